package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aliyevk/codedesk-backend/internal/repo"
	"github.com/aliyevk/codedesk-backend/pkg/db/models"
)

// Repository manages the append-only payout ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, entry *models.PayoutEntry) error
	ListByUser(ctx context.Context, userID int64) ([]models.PayoutEntry, error)
	ListAll(ctx context.Context) ([]models.PayoutEntry, error)
	TotalPaid(ctx context.Context, userID int64) (decimal.Decimal, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(conn *gorm.DB, timeout time.Duration) Repository {
	return &repository{base: repo.NewBase(conn, timeout)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: repo.NewBase(tx, 0)}
}

func (r *repository) Append(ctx context.Context, entry *models.PayoutEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	return repo.Wrap(r.base.DB(ctx).Create(entry).Error, "appending ledger entry")
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]models.PayoutEntry, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	var out []models.PayoutEntry
	if err := r.base.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, repo.Wrap(err, "listing ledger entries")
	}
	return out, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.PayoutEntry, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	var out []models.PayoutEntry
	if err := r.base.DB(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, repo.Wrap(err, "listing ledger")
	}
	return out, nil
}

// TotalPaid sums the ledger for one user. Decimal summation happens in Go so
// sqlite and postgres agree on precision.
func (r *repository) TotalPaid(ctx context.Context, userID int64) (decimal.Decimal, error) {
	entries, err := r.ListByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, entry := range entries {
		total = total.Add(entry.Amount)
	}
	return total, nil
}
