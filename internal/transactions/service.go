package transactions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merouaHba/EcommerceAPI/pkg/db/models"
	"github.com/merouaHba/EcommerceAPI/pkg/enums"
	pkgerrors "github.com/merouaHba/EcommerceAPI/pkg/errors"
)

// Service records captures and applies cumulative refunds.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.Transaction, error)
	ApplyRefund(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID, amountCents int) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListBySender(ctx context.Context, senderID uuid.UUID) ([]models.Transaction, error)
}

// RecordInput captures the immutable data a transaction row requires.
type RecordInput struct {
	// ID is optional; callers that need the transaction id before the row
	// exists (to claim the order's paid flag first) assign it up front.
	ID              uuid.UUID
	SenderID        uuid.UUID
	ReceiverID      uuid.UUID
	PaymentIntentID string
	AmountCents     int
	Currency        enums.Currency
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a transactions service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.Transaction, error) {
	if input.SenderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sender id required")
	}
	if input.ReceiverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receiver id required")
	}
	if input.PaymentIntentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	if input.AmountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount cannot be negative")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}

	txn := &models.Transaction{
		ID:              input.ID,
		SenderID:        input.SenderID,
		ReceiverID:      input.ReceiverID,
		PaymentIntentID: input.PaymentIntentID,
		AmountCents:     input.AmountCents,
		Currency:        currency,
	}
	created, err := s.repo.WithTx(tx).Create(ctx, txn)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record transaction")
	}
	return created, nil
}

// ApplyRefund grows the cumulative refund for a transaction. The repository
// rejects any increment that would exceed the captured amount.
func (s *service) ApplyRefund(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID, amountCents int) error {
	if transactionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	if amountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	ok, err := s.repo.WithTx(tx).AddRefund(ctx, transactionID, amountCents, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply refund")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "refund exceeds captured amount")
	}
	return nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return txn, nil
}

func (s *service) ListBySender(ctx context.Context, senderID uuid.UUID) ([]models.Transaction, error) {
	txns, err := s.repo.ListBySender(ctx, senderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return txns, nil
}
