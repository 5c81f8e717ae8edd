package users

import (
	"context"
	"strings"
	"time"

	"github.com/aliyevk/codedesk-backend/pkg/db/models"
	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
)

// Service maintains the directory of everyone the bot has talked to.
type Service interface {
	Track(ctx context.Context, input TrackInput) (*models.User, error)
	Get(ctx context.Context, telegramID int64) (*models.User, error)
	Resolve(ctx context.Context, handle string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// TrackInput captures the identity fields present on every update.
type TrackInput struct {
	TelegramID int64
	ChatID     int64
	Handle     string
	FirstName  string
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a users service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "users repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Track records the sender of an update, refreshing handle and chat id.
func (s *service) Track(ctx context.Context, input TrackInput) (*models.User, error) {
	if input.TelegramID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "telegram id is required")
	}

	handle := strings.TrimPrefix(strings.TrimSpace(input.Handle), "@")
	seen := s.now().UTC()
	user := &models.User{
		TelegramID: input.TelegramID,
		ChatID:     input.ChatID,
		Handle:     handle,
		LastSeenAt: &seen,
	}
	if name := strings.TrimSpace(input.FirstName); name != "" {
		user.FirstName = &name
	}

	if err := s.repo.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) Get(ctx context.Context, telegramID int64) (*models.User, error) {
	if telegramID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "telegram id is required")
	}
	return s.repo.FindByID(ctx, telegramID)
}

// Resolve finds a user by handle, tolerating a leading @ and mixed case.
func (s *service) Resolve(ctx context.Context, handle string) (*models.User, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "handle is required")
	}
	return s.repo.FindByHandle(ctx, handle)
}

func (s *service) List(ctx context.Context) ([]models.User, error) {
	return s.repo.List(ctx)
}
