package codes

import (
	"context"
	"time"

	"github.com/aliyevk/codedesk-backend/pkg/db/models"
	"github.com/aliyevk/codedesk-backend/pkg/enums"
	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
)

// Service runs the submission pipeline and code lookups.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error)
	ListCodes(ctx context.Context, userID int64) ([]models.CodeRecord, error)
	Search(ctx context.Context, rawCode string) ([]models.CodeRecord, error)
	RebuildIndex(ctx context.Context) (int, error)
	EraseUser(ctx context.Context, userID int64) (int64, error)
}

// SubmitInput is one submission message: a code type and the raw lines.
type SubmitInput struct {
	UserID   int64
	Handle   string
	CodeType string
	RawCodes []string
}

// SubmitResult reports what happened to every submitted line.
type SubmitResult struct {
	Accepted      int
	Duplicates    []string
	InvalidFormat []string
	BatchID       int64
}

type service struct {
	repo      Repository
	validator *Validator
	index     *SearchIndex
	now       func() time.Time
}

// NewService wires a codes service with the provided repository and
// validator. The search index is optional; without it every search goes
// straight to the row store.
func NewService(repo Repository, validator *Validator, index *SearchIndex) (Service, error) {
	if repo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "codes repository required")
	}
	if validator == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "code validator required")
	}
	return &service{repo: repo, validator: validator, index: index, now: time.Now}, nil
}

// Submit validates, deduplicates and commits a batch of new codes. The write
// is all-or-nothing; a storage failure leaves no partial batch behind.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	if input.UserID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if input.CodeType == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "code type is required")
	}
	if len(input.RawCodes) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "at least one code is required")
	}

	// Same code twice in one message counts once.
	unique := make([]string, 0, len(input.RawCodes))
	seen := make(map[string]struct{}, len(input.RawCodes))
	for _, raw := range input.RawCodes {
		code := s.validator.Normalize(raw)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		unique = append(unique, code)
	}

	result := &SubmitResult{}
	valid := make([]string, 0, len(unique))
	for _, code := range unique {
		if s.validator.Valid(code) {
			valid = append(valid, code)
		} else {
			result.InvalidFormat = append(result.InvalidFormat, code)
		}
	}

	existing, err := s.repo.ListByUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	history := make(map[string]struct{}, len(existing))
	for _, record := range existing {
		history[s.validator.Normalize(record.Code)] = struct{}{}
	}

	fresh := make([]string, 0, len(valid))
	for _, code := range valid {
		if _, dup := history[code]; dup {
			result.Duplicates = append(result.Duplicates, code)
		} else {
			fresh = append(fresh, code)
		}
	}

	if len(fresh) == 0 {
		return result, nil
	}

	batchID := nextBatchID(s.now)
	submitted := s.now().UTC()
	records := make([]models.CodeRecord, 0, len(fresh))
	for _, code := range fresh {
		records = append(records, models.CodeRecord{
			UserID:    input.UserID,
			Handle:    input.Handle,
			Code:      code,
			CodeType:  input.CodeType,
			BatchID:   batchID,
			Status:    enums.CodeStatusPending,
			CreatedAt: submitted,
		})
	}
	if err := s.repo.Append(ctx, records); err != nil {
		return nil, err
	}
	if s.index != nil {
		// Best effort, the next rebuild recreates it anyway.
		_ = s.index.Invalidate(ctx)
	}

	result.Accepted = len(fresh)
	result.BatchID = batchID
	return result, nil
}

func (s *service) ListCodes(ctx context.Context, userID int64) ([]models.CodeRecord, error) {
	if userID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	return s.repo.ListByUser(ctx, userID)
}

// Search finds every record carrying the exact code, across all users.
// A warm index answers from the cache; otherwise the row store is hit.
func (s *service) Search(ctx context.Context, rawCode string) ([]models.CodeRecord, error) {
	code := s.validator.Normalize(rawCode)
	if code == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "code is required")
	}
	if s.index != nil {
		if records, warm, err := s.index.Lookup(ctx, code); err == nil && warm {
			return records, nil
		}
	}
	return s.repo.FindByCode(ctx, code)
}

// EraseUser permanently removes every code record the user ever submitted.
// The payout ledger is untouched: it is append-only financial history.
func (s *service) EraseUser(ctx context.Context, userID int64) (int64, error) {
	if userID == 0 {
		return 0, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	deleted, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.index != nil {
		// Best effort, the next rebuild recreates it anyway.
		_ = s.index.Invalidate(ctx)
	}
	return deleted, nil
}

// RebuildIndex loads every record and swaps in a fresh search index. It
// returns the record count that was indexed.
func (s *service) RebuildIndex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, apperrors.New(apperrors.CodeInternal, "search index not configured")
	}
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.index.Rebuild(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
