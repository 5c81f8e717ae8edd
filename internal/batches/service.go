package batches

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/aliyevk/codedesk-backend/internal/codes"
	"github.com/aliyevk/codedesk-backend/pkg/db/models"
	"github.com/aliyevk/codedesk-backend/pkg/enums"
	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
)

// AllUnpriced selects every unpriced record of a user instead of one batch.
const AllUnpriced int64 = -1

// BatchView is the derived grouping of a user's records sharing a batch id.
type BatchView struct {
	BatchID       int64
	CodeType      string
	Count         int
	StatusCounts  map[enums.CodeStatus]int
	Status        enums.BatchStatus
	PricedCount   int
	UnpricedCount int
	PricedValue   decimal.Decimal
}

// BatchDetail adds the full ordered member list to a view.
type BatchDetail struct {
	BatchView
	Codes []models.CodeRecord
}

// QueueItem is the next batch waiting in the pricing queue.
type QueueItem struct {
	UserID int64
	Handle string
	Detail BatchDetail
}

// Service exposes the batch lifecycle operations.
type Service interface {
	AggregateBatches(ctx context.Context, userID int64) ([]BatchView, error)
	GetBatchDetails(ctx context.Context, userID, batchID int64) (*BatchDetail, error)
	SetPrice(ctx context.Context, userID, batchID int64, price decimal.Decimal) (int64, error)
	UpdateStatus(ctx context.Context, userID, batchID int64, status enums.CodeStatus) (int64, error)
	DeleteBatch(ctx context.Context, userID, batchID int64) (int64, error)
	MarkListed(ctx context.Context, userID int64) (int64, error)
	AddNote(ctx context.Context, userID, batchID int64, note string) (int64, error)
	NextUnpricedBatch(ctx context.Context, userID int64, skip []int64) (*QueueItem, error)
}

type service struct {
	repo codes.Repository
}

// NewService wires a batch service over the code repository.
func NewService(repo codes.Repository) (Service, error) {
	if repo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "codes repository required")
	}
	return &service{repo: repo}, nil
}

// AggregateBatches builds views for every batch a user owns, oldest first.
func (s *service) AggregateBatches(ctx context.Context, userID int64) ([]BatchView, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	grouped := make(map[int64][]models.CodeRecord)
	for _, record := range records {
		grouped[record.BatchID] = append(grouped[record.BatchID], record)
	}

	views := make([]BatchView, 0, len(grouped))
	for batchID, members := range grouped {
		views = append(views, buildView(batchID, members))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].BatchID < views[j].BatchID })
	return views, nil
}

// GetBatchDetails returns one batch with its ordered member list.
func (s *service) GetBatchDetails(ctx context.Context, userID, batchID int64) (*BatchDetail, error) {
	members, err := s.repo.ListByBatch(ctx, userID, batchID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, apperrors.New(apperrors.CodeNotFound, "batch not found")
	}
	return &BatchDetail{
		BatchView: buildView(batchID, members),
		Codes:     members,
	}, nil
}

// SetPrice prices the unpriced members of one batch, or of everything the
// user owns when AllUnpriced is passed. Priced rows are never overwritten.
func (s *service) SetPrice(ctx context.Context, userID, batchID int64, price decimal.Decimal) (int64, error) {
	if !price.IsPositive() {
		return 0, apperrors.New(apperrors.CodeValidation, "price must be positive")
	}
	if batchID == AllUnpriced {
		return s.repo.SetPriceForAllUnpriced(ctx, userID, price)
	}
	return s.repo.SetPriceForBatch(ctx, userID, batchID, price)
}

// UpdateStatus bulk-sets the status of every member of a batch. Free-text
// statuses are normalized first; Paid rows stay final via explicit admin
// intent only, which this override is.
func (s *service) UpdateStatus(ctx context.Context, userID, batchID int64, status enums.CodeStatus) (int64, error) {
	normalized := enums.NormalizeCodeStatus(string(status))
	return s.repo.UpdateStatusForBatch(ctx, userID, batchID, normalized)
}

func (s *service) DeleteBatch(ctx context.Context, userID, batchID int64) (int64, error) {
	return s.repo.DeleteBatch(ctx, userID, batchID)
}

// MarkListed queues every Pending record of a user for pricing.
func (s *service) MarkListed(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkPendingListed(ctx, userID)
}

func (s *service) AddNote(ctx context.Context, userID, batchID int64, note string) (int64, error) {
	return s.repo.SetNoteForBatch(ctx, userID, batchID, note)
}

// NextUnpricedBatch walks the pricing queue: the oldest batch that still has
// unpriced codes and is not on the skip list. A non-zero userID restricts the
// queue to that user. A nil item means the queue is empty, which is not an
// error.
func (s *service) NextUnpricedBatch(ctx context.Context, userID int64, skip []int64) (*QueueItem, error) {
	unpriced, err := s.repo.ListUnpriced(ctx)
	if err != nil {
		return nil, err
	}

	skipped := make(map[int64]struct{}, len(skip))
	for _, id := range skip {
		skipped[id] = struct{}{}
	}

	for _, record := range unpriced {
		if userID != 0 && record.UserID != userID {
			continue
		}
		if _, skip := skipped[record.BatchID]; skip {
			continue
		}
		members, err := s.repo.ListByBatch(ctx, record.UserID, record.BatchID)
		if err != nil {
			return nil, err
		}
		return &QueueItem{
			UserID: record.UserID,
			Handle: record.Handle,
			Detail: BatchDetail{
				BatchView: buildView(record.BatchID, members),
				Codes:     members,
			},
		}, nil
	}
	return nil, nil
}

// buildView derives the batch attributes from its members. The status
// derivation runs in strict priority order: any Pending member dominates,
// then Listed, then all-Paid, then some-Paid, else the batch is Processed.
func buildView(batchID int64, members []models.CodeRecord) BatchView {
	view := BatchView{
		BatchID:      batchID,
		Count:        len(members),
		StatusCounts: make(map[enums.CodeStatus]int, 4),
		PricedValue:  decimal.Zero,
	}
	if len(members) > 0 {
		view.CodeType = members[0].CodeType
	}
	for _, member := range members {
		view.StatusCounts[member.Status]++
		if member.Priced() && member.Price.IsPositive() {
			view.PricedCount++
			view.PricedValue = view.PricedValue.Add(*member.Price)
		} else {
			view.UnpricedCount++
		}
	}
	view.Status = enums.DeriveBatchStatus(view.StatusCounts, view.Count)
	return view
}
