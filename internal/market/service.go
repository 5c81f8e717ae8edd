package market

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aliyevk/codedesk-backend/pkg/db/models"
	"github.com/aliyevk/codedesk-backend/pkg/enums"
	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
)

// BoardRow is one code type on the market board. Types without a manual
// override show as unpriced with medium demand.
type BoardRow struct {
	CodeType string
	Price    *decimal.Decimal
	Demand   enums.DemandLevel
	Manual   bool
}

// Service maintains the admin-curated market board.
type Service interface {
	Set(ctx context.Context, input SetInput) (*models.MarketPrice, error)
	Reset(ctx context.Context, codeType string) (bool, error)
	Board(ctx context.Context) ([]BoardRow, error)
	EstimateValue(ctx context.Context, codeType string, count int) (decimal.Decimal, error)
}

// SetInput is a manual board override for one code type.
type SetInput struct {
	CodeType  string
	Price     *decimal.Decimal
	Demand    enums.DemandLevel
	UpdatedBy string
}

type service struct {
	repo      Repository
	codeTypes []string
}

// NewService wires the market service over the override repository. The
// configured code types form the board's fixed row set.
func NewService(repo Repository, codeTypes []string) (Service, error) {
	if repo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "market repository required")
	}
	return &service{repo: repo, codeTypes: codeTypes}, nil
}

func (s *service) Set(ctx context.Context, input SetInput) (*models.MarketPrice, error) {
	codeType := strings.TrimSpace(input.CodeType)
	if codeType == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "code type is required")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, apperrors.New(apperrors.CodeValidation, "price must not be negative")
	}
	demand := input.Demand
	if demand == "" {
		demand = enums.DemandLevelMedium
	}
	if !demand.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unknown demand level")
	}

	price := &models.MarketPrice{
		CodeType:  codeType,
		Price:     input.Price,
		Demand:    demand,
		UpdatedBy: input.UpdatedBy,
	}
	if err := s.repo.Upsert(ctx, price); err != nil {
		return nil, err
	}
	return price, nil
}

// Reset removes the manual override, returning whether one existed.
func (s *service) Reset(ctx context.Context, codeType string) (bool, error) {
	codeType = strings.TrimSpace(codeType)
	if codeType == "" {
		return false, apperrors.New(apperrors.CodeValidation, "code type is required")
	}
	deleted, err := s.repo.Delete(ctx, codeType)
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

// Board merges the configured type set with the stored overrides.
func (s *service) Board(ctx context.Context) ([]BoardRow, error) {
	overrides, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	byType := make(map[string]models.MarketPrice, len(overrides))
	for _, o := range overrides {
		byType[strings.ToLower(o.CodeType)] = o
	}

	rows := make([]BoardRow, 0, len(s.codeTypes)+len(overrides))
	listed := make(map[string]struct{}, len(s.codeTypes))
	for _, codeType := range s.codeTypes {
		key := strings.ToLower(codeType)
		listed[key] = struct{}{}
		row := BoardRow{CodeType: codeType, Demand: enums.DemandLevelMedium}
		if o, ok := byType[key]; ok {
			row.Price = o.Price
			row.Demand = o.Demand
			row.Manual = true
		}
		rows = append(rows, row)
	}

	// Overrides for types outside the configured set still show up.
	for _, o := range overrides {
		if _, ok := listed[strings.ToLower(o.CodeType)]; ok {
			continue
		}
		rows = append(rows, BoardRow{
			CodeType: o.CodeType,
			Price:    o.Price,
			Demand:   o.Demand,
			Manual:   true,
		})
	}
	return rows, nil
}

// EstimateValue prices a hypothetical submission against the board.
func (s *service) EstimateValue(ctx context.Context, codeType string, count int) (decimal.Decimal, error) {
	if count <= 0 {
		return decimal.Zero, apperrors.New(apperrors.CodeValidation, "count must be positive")
	}
	override, err := s.repo.Find(ctx, strings.TrimSpace(codeType))
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	if override.Price == nil {
		return decimal.Zero, nil
	}
	return override.Price.Mul(decimal.NewFromInt(int64(count))), nil
}
