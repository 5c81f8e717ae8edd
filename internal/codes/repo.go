package codes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aliyevk/codedesk-backend/internal/repo"
	"github.com/aliyevk/codedesk-backend/pkg/db/models"
	"github.com/aliyevk/codedesk-backend/pkg/enums"
)

// Repository manages persistence for code records. Mutations return the
// affected row count so callers can tell "nothing matched" from failure.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, records []models.CodeRecord) error
	ListByUser(ctx context.Context, userID int64) ([]models.CodeRecord, error)
	ListByBatch(ctx context.Context, userID, batchID int64) ([]models.CodeRecord, error)
	ListAll(ctx context.Context) ([]models.CodeRecord, error)
	ListPayable(ctx context.Context, userID int64) ([]models.CodeRecord, error)
	ListUnpriced(ctx context.Context) ([]models.CodeRecord, error)
	FindByCode(ctx context.Context, code string) ([]models.CodeRecord, error)
	SetPriceForBatch(ctx context.Context, userID, batchID int64, price decimal.Decimal) (int64, error)
	SetPriceForAllUnpriced(ctx context.Context, userID int64, price decimal.Decimal) (int64, error)
	UpdateStatusForBatch(ctx context.Context, userID, batchID int64, status enums.CodeStatus) (int64, error)
	MarkPendingListed(ctx context.Context, userID int64) (int64, error)
	MarkPaidByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
	SetNoteForBatch(ctx context.Context, userID, batchID int64, note string) (int64, error)
	DeleteBatch(ctx context.Context, userID, batchID int64) (int64, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a code repository bound to the provided database.
func NewRepository(conn *gorm.DB, timeout time.Duration) Repository {
	return &repository{base: repo.NewBase(conn, timeout)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: repo.NewBase(tx, 0)}
}

// Append writes the whole slice in one insert. All rows land or none do.
func (r *repository) Append(ctx context.Context, records []models.CodeRecord) error {
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		if records[i].ID == uuid.Nil {
			records[i].ID = uuid.New()
		}
	}
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	return repo.Wrap(r.base.DB(ctx).Create(&records).Error, "appending code records")
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]models.CodeRecord, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	var out []models.CodeRecord
	if err := r.base.DB(ctx).
		Where("user_id = ?", userID).
		Order("batch_id ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, repo.Wrap(err, "listing user codes")
	}
	return out, nil
}

func (r *repository) ListByBatch(ctx context.Context, userID, batchID int64) ([]models.CodeRecord, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	var out []models.CodeRecord
	if err := r.base.DB(ctx).
		Where("user_id = ? AND batch_id = ?", userID, batchID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, repo.Wrap(err, "listing batch codes")
	}
	return out, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.CodeRecord, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	var out []models.CodeRecord
	if err := r.base.DB(ctx).
		Order("user_id ASC, batch_id ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, repo.Wrap(err, "listing all codes")
	}
	return out, nil
}

// ListPayable returns the rows a payout would settle: priced and sitting in
// a payable status.
func (r *repository) ListPayable(ctx context.Context, userID int64) ([]models.CodeRecord, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	var out []models.CodeRecord
	if err := r.base.DB(ctx).
		Where("user_id = ? AND status IN ? AND price > 0",
			userID, []enums.CodeStatus{enums.CodeStatusListed, enums.CodeStatusProcessed}).
		Order("batch_id ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, repo.Wrap(err, "listing payable codes")
	}
	return out, nil
}

func (r *repository) ListUnpriced(ctx context.Context) ([]models.CodeRecord, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	var out []models.CodeRecord
	if err := r.base.DB(ctx).
		Where("price IS NULL OR price = 0").
		Order("batch_id ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, repo.Wrap(err, "listing unpriced codes")
	}
	return out, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) ([]models.CodeRecord, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	var out []models.CodeRecord
	if err := r.base.DB(ctx).
		Where("code = ?", code).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, repo.Wrap(err, "finding code")
	}
	return out, nil
}

// SetPriceForBatch prices the unpriced members of one batch. Rows that
// already carry a price are left alone.
func (r *repository) SetPriceForBatch(ctx context.Context, userID, batchID int64, price decimal.Decimal) (int64, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	res := r.base.DB(ctx).
		Model(&models.CodeRecord{}).
		Where("user_id = ? AND batch_id = ? AND (price IS NULL OR price = 0)", userID, batchID).
		Update("price", price)
	return res.RowsAffected, repo.Wrap(res.Error, "pricing batch")
}

// SetPriceForAllUnpriced prices every unpriced row of a user in one sweep.
func (r *repository) SetPriceForAllUnpriced(ctx context.Context, userID int64, price decimal.Decimal) (int64, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	res := r.base.DB(ctx).
		Model(&models.CodeRecord{}).
		Where("user_id = ? AND (price IS NULL OR price = 0)", userID).
		Update("price", price)
	return res.RowsAffected, repo.Wrap(res.Error, "pricing all unpriced")
}

func (r *repository) UpdateStatusForBatch(ctx context.Context, userID, batchID int64, status enums.CodeStatus) (int64, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	res := r.base.DB(ctx).
		Model(&models.CodeRecord{}).
		Where("user_id = ? AND batch_id = ?", userID, batchID).
		Update("status", status)
	return res.RowsAffected, repo.Wrap(res.Error, "updating batch status")
}

func (r *repository) MarkPendingListed(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	res := r.base.DB(ctx).
		Model(&models.CodeRecord{}).
		Where("user_id = ? AND status = ?", userID, enums.CodeStatusPending).
		Update("status", enums.CodeStatusListed)
	return res.RowsAffected, repo.Wrap(res.Error, "marking pending listed")
}

func (r *repository) MarkPaidByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	res := r.base.DB(ctx).
		Model(&models.CodeRecord{}).
		Where("id IN ?", ids).
		Update("status", enums.CodeStatusPaid)
	return res.RowsAffected, repo.Wrap(res.Error, "marking codes paid")
}

func (r *repository) SetNoteForBatch(ctx context.Context, userID, batchID int64, note string) (int64, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	res := r.base.DB(ctx).
		Model(&models.CodeRecord{}).
		Where("user_id = ? AND batch_id = ?", userID, batchID).
		Update("note", note)
	return res.RowsAffected, repo.Wrap(res.Error, "noting batch")
}

func (r *repository) DeleteBatch(ctx context.Context, userID, batchID int64) (int64, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	res := r.base.DB(ctx).
		Where("user_id = ? AND batch_id = ?", userID, batchID).
		Delete(&models.CodeRecord{})
	return res.RowsAffected, repo.Wrap(res.Error, "deleting batch")
}

func (r *repository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	res := r.base.DB(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CodeRecord{})
	return res.RowsAffected, repo.Wrap(res.Error, "deleting user codes")
}
