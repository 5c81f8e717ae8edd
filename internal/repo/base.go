package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/aliyevk/codedesk-backend/pkg/db"
	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
)

// Base provides a shared foundation for domain repositories. Every query is
// bounded by the configured timeout so a stalled datasource surfaces as a
// storage error instead of hanging the bot.
type Base struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(conn *gorm.DB, timeout time.Duration) Base {
	return Base{db: conn, timeout: timeout}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Bound derives a context carrying the query timeout, when one is configured.
func (b Base) Bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.timeout)
}

// Wrap maps a raw gorm error onto the app error taxonomy.
func Wrap(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.Wrap(apperrors.CodeNotFound, err, msg)
	case db.IsUniqueViolation(err, ""):
		return apperrors.Wrap(apperrors.CodeConflict, err, msg)
	case db.IsUnavailable(err):
		return apperrors.Wrap(apperrors.CodeStorage, err, msg)
	default:
		return apperrors.Wrap(apperrors.CodeInternal, err, msg)
	}
}
