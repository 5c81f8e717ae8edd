package payouts

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aliyevk/codedesk-backend/internal/codes"
	"github.com/aliyevk/codedesk-backend/pkg/db/models"
	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
	"github.com/aliyevk/codedesk-backend/pkg/validate"
)

// Address formats accepted for withdrawals.
var (
	mexcUIDPattern   = regexp.MustCompile(`^\d{8,10}$`)
	bep20AddrPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	supportedMethods = map[string]*regexp.Regexp{
		MethodMEXC:  mexcUIDPattern,
		MethodBEP20: bep20AddrPattern,
	}
)

const (
	MethodMEXC  = "mexc"
	MethodBEP20 = "bep20"
)

// TxRunner runs a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service settles payable codes against the ledger.
type Service interface {
	ProcessPayout(ctx context.Context, input ProcessPayoutInput) (*PayoutResult, error)
	Ledger(ctx context.Context, userID int64) ([]models.PayoutEntry, error)
	ValidateAddress(method, address string) error
}

// ProcessPayoutInput identifies whose codes settle and who triggered it.
// Method and Address are optional context for the ledger entry; when set
// they should already have passed ValidateAddress.
type ProcessPayoutInput struct {
	UserID  int64  `json:"user_id" validate:"required"`
	Handle  string `json:"handle" validate:"required"`
	Admin   string `json:"admin" validate:"required"`
	Method  string `json:"method"`
	Address string `json:"address"`
}

// PayoutResult reports what the payout settled. A zero Amount means nothing
// was payable, which is a normal outcome, not an error.
type PayoutResult struct {
	Amount    decimal.Decimal
	CodeCount int
	Entry     *models.PayoutEntry
}

type service struct {
	codes  codes.Repository
	ledger Repository
	tx     TxRunner
}

// NewService wires a payout service over the code and ledger repositories.
func NewService(codesRepo codes.Repository, ledgerRepo Repository, tx TxRunner) (Service, error) {
	if codesRepo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "codes repository required")
	}
	if ledgerRepo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "ledger repository required")
	}
	if tx == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "transaction runner required")
	}
	return &service{codes: codesRepo, ledger: ledgerRepo, tx: tx}, nil
}

// ProcessPayout flips every priced Listed/Processed record of the user to
// Paid and appends exactly one ledger entry for the sum. Both writes happen
// in one transaction; a failure leaves records and ledger untouched.
func (s *service) ProcessPayout(ctx context.Context, input ProcessPayoutInput) (*PayoutResult, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	result := &PayoutResult{Amount: decimal.Zero}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		codesRepo := s.codes.WithTx(tx)
		ledgerRepo := s.ledger.WithTx(tx)

		payable, err := codesRepo.ListPayable(ctx, input.UserID)
		if err != nil {
			return err
		}
		if len(payable) == 0 {
			return nil
		}

		total := decimal.Zero
		ids := make([]uuid.UUID, 0, len(payable))
		for _, record := range payable {
			total = total.Add(*record.Price)
			ids = append(ids, record.ID)
		}

		updated, err := codesRepo.MarkPaidByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if updated != int64(len(ids)) {
			return apperrors.New(apperrors.CodeConflict, "payout row count mismatch")
		}

		entry := &models.PayoutEntry{
			UserID:    input.UserID,
			Handle:    input.Handle,
			Amount:    total,
			CodeCount: len(ids),
			Admin:     input.Admin,
			Method:    input.Method,
			Address:   input.Address,
			CreatedAt: time.Now().UTC(),
		}
		if err := ledgerRepo.Append(ctx, entry); err != nil {
			return err
		}

		result.Amount = total
		result.CodeCount = len(ids)
		result.Entry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Ledger(ctx context.Context, userID int64) ([]models.PayoutEntry, error) {
	if userID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	return s.ledger.ListByUser(ctx, userID)
}

// ValidateAddress checks a withdrawal destination against the format rules
// of the chosen method.
func (s *service) ValidateAddress(method, address string) error {
	pattern, ok := supportedMethods[method]
	if !ok {
		return apperrors.New(apperrors.CodeValidation, "unsupported payout method")
	}
	if !pattern.MatchString(address) {
		return apperrors.New(apperrors.CodeValidation, "payout address format is invalid")
	}
	return nil
}
