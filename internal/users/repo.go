package users

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aliyevk/codedesk-backend/internal/repo"
	"github.com/aliyevk/codedesk-backend/pkg/db/models"
)

// Repository exposes user directory persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, telegramID int64) (*models.User, error)
	FindByHandle(ctx context.Context, handle string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	TouchLastSeen(ctx context.Context, telegramID int64, at time.Time) error
}

type repository struct {
	base repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(conn *gorm.DB, timeout time.Duration) Repository {
	return &repository{base: repo.NewBase(conn, timeout)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: repo.NewBase(tx, 0)}
}

// Upsert inserts the user or refreshes the mutable contact fields. Handles
// change between sessions, so every contact rewrites them.
func (r *repository) Upsert(ctx context.Context, user *models.User) error {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	err := r.base.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"chat_id", "handle", "first_name", "last_seen_at", "updated_at",
		}),
	}).Create(user).Error
	return repo.Wrap(err, "upserting user")
}

func (r *repository) FindByID(ctx context.Context, telegramID int64) (*models.User, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	var user models.User
	if err := r.base.DB(ctx).First(&user, "telegram_id = ?", telegramID).Error; err != nil {
		return nil, repo.Wrap(err, "finding user by id")
	}
	return &user, nil
}

func (r *repository) FindByHandle(ctx context.Context, handle string) (*models.User, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	var user models.User
	if err := r.base.DB(ctx).
		Where("LOWER(handle) = LOWER(?)", handle).
		Order("last_seen_at DESC").
		First(&user).Error; err != nil {
		return nil, repo.Wrap(err, "finding user by handle")
	}
	return &user, nil
}

func (r *repository) List(ctx context.Context) ([]models.User, error) {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	var out []models.User
	if err := r.base.DB(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, repo.Wrap(err, "listing users")
	}
	return out, nil
}

func (r *repository) TouchLastSeen(ctx context.Context, telegramID int64, at time.Time) error {
	ctx, cancel := r.base.Bound(ctx)
	defer cancel()
	err := r.base.DB(ctx).
		Model(&models.User{}).
		Where("telegram_id = ?", telegramID).
		UpdateColumn("last_seen_at", at).Error
	return repo.Wrap(err, "touching last seen")
}
