package market

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aliyevk/codedesk-backend/internal/repo"
	"github.com/aliyevk/codedesk-backend/pkg/db/models"
)

// Repository persists manual market board overrides.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, price *models.MarketPrice) error
	Delete(ctx context.Context, codeType string) (int64, error)
	List(ctx context.Context) ([]models.MarketPrice, error)
	Find(ctx context.Context, codeType string) (*models.MarketPrice, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a market repository bound to the provided database.
func NewRepository(conn *gorm.DB, timeout time.Duration) Repository {
	return &repository{base: repo.NewBase(conn, timeout)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: repo.NewBase(tx, 0)}
}

func (r *repository) Upsert(ctx context.Context, price *models.MarketPrice) error {
	if price.ID == uuid.Nil {
		price.ID = uuid.New()
	}
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	err := r.base.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "code_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"price", "demand", "updated_by", "updated_at",
		}),
	}).Create(price).Error
	return repo.Wrap(err, "upserting market price")
}

func (r *repository) Delete(ctx context.Context, codeType string) (int64, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	res := r.base.DB(ctx).
		Where("code_type = ?", codeType).
		Delete(&models.MarketPrice{})
	return res.RowsAffected, repo.Wrap(res.Error, "deleting market price")
}

func (r *repository) List(ctx context.Context) ([]models.MarketPrice, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	var out []models.MarketPrice
	if err := r.base.DB(ctx).Order("code_type ASC").Find(&out).Error; err != nil {
		return nil, repo.Wrap(err, "listing market prices")
	}
	return out, nil
}

func (r *repository) Find(ctx context.Context, codeType string) (*models.MarketPrice, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	var price models.MarketPrice
	if err := r.base.DB(ctx).First(&price, "code_type = ?", codeType).Error; err != nil {
		return nil, repo.Wrap(err, "finding market price")
	}
	return &price, nil
}
