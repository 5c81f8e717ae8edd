package finance

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/aliyevk/codedesk-backend/internal/codes"
	"github.com/aliyevk/codedesk-backend/internal/payouts"
	"github.com/aliyevk/codedesk-backend/internal/users"
	"github.com/aliyevk/codedesk-backend/pkg/db/models"
	"github.com/aliyevk/codedesk-backend/pkg/enums"
	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
)

// TypeStats tallies one code type inside a snapshot.
type TypeStats struct {
	Priced   int
	Unpriced int
	Owed     decimal.Decimal
}

// Snapshot is a user's financial position, computed fresh on every request.
//
// TotalOwed sums priced rows that are not yet Paid; settled rows leave the
// figure the moment a payout lands. TotalPaid is the ledger sum and is
// informational only. NetBalance therefore equals TotalOwed: paid amounts
// are never subtracted again, otherwise every payout would push the balance
// negative.
type Snapshot struct {
	UserID        int64
	TotalOwed     decimal.Decimal
	TotalPaid     decimal.Decimal
	NetBalance    decimal.Decimal
	UnpricedCount int
	StatusCounts  map[enums.CodeStatus]int
	PerType       map[string]TypeStats
}

// SystemSummary aggregates every user's snapshot for admin reporting.
type SystemSummary struct {
	TotalOwed     decimal.Decimal
	TotalPaid     decimal.Decimal
	UnpricedCount int
	CodeCount     int
	UserCount     int
	PerUser       []Snapshot
}

// Service derives balances from code rows plus the payout ledger.
type Service interface {
	Calculate(ctx context.Context, userID int64) (*Snapshot, error)
	SystemWideSummary(ctx context.Context) (*SystemSummary, error)
}

type service struct {
	codes  codes.Repository
	ledger payouts.Repository
	users  users.Repository
}

// NewService wires a finance service over the code, ledger and user repos.
func NewService(codesRepo codes.Repository, ledgerRepo payouts.Repository, usersRepo users.Repository) (Service, error) {
	if codesRepo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "codes repository required")
	}
	if ledgerRepo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "ledger repository required")
	}
	if usersRepo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "users repository required")
	}
	return &service{codes: codesRepo, ledger: ledgerRepo, users: usersRepo}, nil
}

// Calculate recomputes the snapshot from scratch. There is no stored running
// balance; recomputation is the source of truth.
func (s *service) Calculate(ctx context.Context, userID int64) (*Snapshot, error) {
	if userID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}

	records, err := s.codes.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	paid, err := s.ledger.TotalPaid(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot := snapshotFromRecords(userID, records)
	snapshot.TotalPaid = paid
	return snapshot, nil
}

// SystemWideSummary iterates every user's snapshot. Linear in total codes,
// meant for reports, not per-message hot paths.
func (s *service) SystemWideSummary(ctx context.Context) (*SystemSummary, error) {
	directory, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	summary := &SystemSummary{
		TotalOwed: decimal.Zero,
		TotalPaid: decimal.Zero,
		UserCount: len(directory),
	}
	for _, user := range directory {
		snapshot, err := s.Calculate(ctx, user.TelegramID)
		if err != nil {
			return nil, err
		}
		summary.TotalOwed = summary.TotalOwed.Add(snapshot.TotalOwed)
		summary.TotalPaid = summary.TotalPaid.Add(snapshot.TotalPaid)
		summary.UnpricedCount += snapshot.UnpricedCount
		for _, count := range snapshot.StatusCounts {
			summary.CodeCount += count
		}
		summary.PerUser = append(summary.PerUser, *snapshot)
	}
	return summary, nil
}

func snapshotFromRecords(userID int64, records []models.CodeRecord) *Snapshot {
	snapshot := &Snapshot{
		UserID:       userID,
		TotalOwed:    decimal.Zero,
		TotalPaid:    decimal.Zero,
		StatusCounts: make(map[enums.CodeStatus]int, 4),
		PerType:      make(map[string]TypeStats),
	}

	for _, record := range records {
		snapshot.StatusCounts[record.Status]++
		stats := snapshot.PerType[record.CodeType]

		// Paid rows are settled; the ledger tracks their money.
		if record.Status == enums.CodeStatusPaid {
			snapshot.PerType[record.CodeType] = stats
			continue
		}

		if record.Priced() && record.Price.IsPositive() {
			snapshot.TotalOwed = snapshot.TotalOwed.Add(*record.Price)
			stats.Priced++
			stats.Owed = stats.Owed.Add(*record.Price)
		} else {
			snapshot.UnpricedCount++
			stats.Unpriced++
		}
		snapshot.PerType[record.CodeType] = stats
	}

	snapshot.NetBalance = snapshot.TotalOwed
	return snapshot
}
