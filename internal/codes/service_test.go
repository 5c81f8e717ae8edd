package codes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aliyevk/codedesk-backend/pkg/db/models"
	"github.com/aliyevk/codedesk-backend/pkg/enums"
	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
)

type fakeRepository struct {
	listByUserFn   func(ctx context.Context, userID int64) ([]models.CodeRecord, error)
	appendFn       func(ctx context.Context, records []models.CodeRecord) error
	findByCodeFn   func(ctx context.Context, code string) ([]models.CodeRecord, error)
	deleteByUserFn func(ctx context.Context, userID int64) (int64, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Append(ctx context.Context, records []models.CodeRecord) error {
	if f.appendFn != nil {
		return f.appendFn(ctx, records)
	}
	return nil
}

func (f *fakeRepository) ListByUser(ctx context.Context, userID int64) ([]models.CodeRecord, error) {
	if f.listByUserFn != nil {
		return f.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeRepository) ListByBatch(ctx context.Context, userID, batchID int64) ([]models.CodeRecord, error) {
	return nil, nil
}

func (f *fakeRepository) ListAll(ctx context.Context) ([]models.CodeRecord, error) { return nil, nil }

func (f *fakeRepository) ListPayable(ctx context.Context, userID int64) ([]models.CodeRecord, error) {
	return nil, nil
}

func (f *fakeRepository) ListUnpriced(ctx context.Context) ([]models.CodeRecord, error) {
	return nil, nil
}

func (f *fakeRepository) FindByCode(ctx context.Context, code string) ([]models.CodeRecord, error) {
	if f.findByCodeFn != nil {
		return f.findByCodeFn(ctx, code)
	}
	return nil, nil
}

func (f *fakeRepository) SetPriceForBatch(ctx context.Context, userID, batchID int64, price decimal.Decimal) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) SetPriceForAllUnpriced(ctx context.Context, userID int64, price decimal.Decimal) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) UpdateStatusForBatch(ctx context.Context, userID, batchID int64, status enums.CodeStatus) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) MarkPendingListed(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) MarkPaidByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) SetNoteForBatch(ctx context.Context, userID, batchID int64, note string) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) DeleteBatch(ctx context.Context, userID, batchID int64) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	if f.deleteByUserFn != nil {
		return f.deleteByUserFn(ctx, userID)
	}
	return 0, nil
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	validator, err := NewValidator("")
	if err != nil {
		t.Fatalf("validator error: %v", err)
	}
	svc, err := NewService(repo, validator, nil)
	if err != nil {
		t.Fatalf("service error: %v", err)
	}
	return svc
}

func TestService_SubmitFreshUser(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	var written []models.CodeRecord
	repo.appendFn = func(ctx context.Context, records []models.CodeRecord) error {
		written = records
		return nil
	}

	// Same code twice in one message counts once and is not a duplicate.
	result, err := svc.Submit(context.Background(), SubmitInput{
		UserID:   42,
		Handle:   "seller_one",
		CodeType: "X",
		RawCodes: []string{"ABCDE", "FGHIJ", "ABCDE"},
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if result.Accepted != 2 {
		t.Fatalf("expected 2 accepted, got %d", result.Accepted)
	}
	if len(result.Duplicates) != 0 {
		t.Fatalf("expected no duplicates, got %v", result.Duplicates)
	}
	if len(result.InvalidFormat) != 0 {
		t.Fatalf("expected no invalid codes, got %v", result.InvalidFormat)
	}
	if result.BatchID == 0 {
		t.Fatal("expected batch id assigned")
	}
	if len(written) != 2 {
		t.Fatalf("expected 2 records written, got %d", len(written))
	}
	for _, record := range written {
		if record.Status != enums.CodeStatusPending {
			t.Fatalf("expected pending status, got %s", record.Status)
		}
		if record.Price != nil {
			t.Fatal("expected no price on fresh records")
		}
		if record.BatchID != result.BatchID {
			t.Fatalf("batch id mismatch: %d vs %d", record.BatchID, result.BatchID)
		}
		if record.CodeType != "X" {
			t.Fatalf("unexpected code type %q", record.CodeType)
		}
	}
}

func TestService_SubmitRejectsHistoryDuplicates(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	repo.listByUserFn = func(ctx context.Context, userID int64) ([]models.CodeRecord, error) {
		return []models.CodeRecord{{Code: "ABCDE", UserID: userID}}, nil
	}
	appended := false
	repo.appendFn = func(ctx context.Context, records []models.CodeRecord) error {
		appended = true
		return nil
	}

	result, err := svc.Submit(context.Background(), SubmitInput{
		UserID:   42,
		CodeType: "X",
		RawCodes: []string{"ABCDE"},
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if result.Accepted != 0 {
		t.Fatalf("expected 0 accepted, got %d", result.Accepted)
	}
	if len(result.Duplicates) != 1 || result.Duplicates[0] != "ABCDE" {
		t.Fatalf("expected ABCDE reported duplicate, got %v", result.Duplicates)
	}
	if result.BatchID != 0 {
		t.Fatalf("no batch should be assigned, got %d", result.BatchID)
	}
	if appended {
		t.Fatal("nothing should be written when all codes are duplicates")
	}
}

func TestService_SubmitDuplicateIsCaseSensitive(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	repo.listByUserFn = func(ctx context.Context, userID int64) ([]models.CodeRecord, error) {
		return []models.CodeRecord{{Code: "ABCDE"}}, nil
	}

	result, err := svc.Submit(context.Background(), SubmitInput{
		UserID:   42,
		CodeType: "X",
		RawCodes: []string{"abcde", "  ABCDE  "},
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if result.Accepted != 1 {
		t.Fatalf("lowercase variant should be accepted, got %d", result.Accepted)
	}
	if len(result.Duplicates) != 1 || result.Duplicates[0] != "ABCDE" {
		t.Fatalf("whitespace-trimmed match should be a duplicate, got %v", result.Duplicates)
	}
}

func TestService_SubmitPartitionsInvalidFormat(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	result, err := svc.Submit(context.Background(), SubmitInput{
		UserID:   42,
		CodeType: "X",
		RawCodes: []string{"ABCDE", "ab", "bad code"},
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if result.Accepted != 1 {
		t.Fatalf("expected 1 accepted, got %d", result.Accepted)
	}
	if len(result.InvalidFormat) != 2 {
		t.Fatalf("expected 2 invalid, got %v", result.InvalidFormat)
	}
}

func TestService_SubmitSurfacesStorageFailure(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	repo.appendFn = func(ctx context.Context, records []models.CodeRecord) error {
		return apperrors.New(apperrors.CodeStorage, "storage unavailable")
	}

	_, err := svc.Submit(context.Background(), SubmitInput{
		UserID:   42,
		CodeType: "X",
		RawCodes: []string{"ABCDE"},
	})
	if !apperrors.IsCode(err, apperrors.CodeStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestService_SubmitValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepository{})

	cases := []SubmitInput{
		{CodeType: "X", RawCodes: []string{"ABCDE"}},
		{UserID: 42, RawCodes: []string{"ABCDE"}},
		{UserID: 42, CodeType: "X"},
	}
	for i, input := range cases {
		if _, err := svc.Submit(context.Background(), input); !apperrors.IsCode(err, apperrors.CodeValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestService_SearchNormalizes(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	var asked string
	repo.findByCodeFn = func(ctx context.Context, code string) ([]models.CodeRecord, error) {
		asked = code
		return []models.CodeRecord{{Code: code}}, nil
	}

	got, err := svc.Search(context.Background(), "  ABCDE ")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if asked != "ABCDE" {
		t.Fatalf("expected normalized lookup, got %q", asked)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
}

func TestService_EraseUser(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)

	var erased int64
	repo.deleteByUserFn = func(ctx context.Context, userID int64) (int64, error) {
		erased = userID
		return 3, nil
	}

	deleted, err := svc.EraseUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("EraseUser error: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted rows, got %d", deleted)
	}
	if erased != 42 {
		t.Fatalf("expected delete for user 42, got %d", erased)
	}

	if _, err := svc.EraseUser(context.Background(), 0); !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error for missing user id, got %v", err)
	}
}
