package transactions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merouaHba/EcommerceAPI/pkg/db/models"
)

// Repository defines persistence for payment transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Transaction, error)
	AddRefund(ctx context.Context, id uuid.UUID, amountCents int, at time.Time) (bool, error)
	ListBySender(ctx context.Context, senderID uuid.UUID) ([]models.Transaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a transactions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("payment_intent_id = ?", paymentIntentID).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// AddRefund grows the refunded amount, capped at the captured amount. The
// guard in the WHERE clause makes over-refunds impossible even under
// concurrent cancellations; false means the cap would have been exceeded.
func (r *repository) AddRefund(ctx context.Context, id uuid.UUID, amountCents int, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE transactions
		SET amount_refunded_cents = amount_refunded_cents + ?,
			is_refunded = TRUE,
			refunded_at = ?
		WHERE id = ?
			AND amount_refunded_cents + ? <= amount_cents
	`, amountCents, at, id, amountCents)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListBySender(ctx context.Context, senderID uuid.UUID) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("sender_id = ?", senderID).
		Order("created_at DESC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
