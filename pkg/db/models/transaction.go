package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/merouaHba/EcommerceAPI/pkg/enums"
)

// Transaction records money received for one order. The row is append-only
// except for the refund columns, which only ever grow toward AmountCents.
type Transaction struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SenderID   uuid.UUID `gorm:"column:sender_id;type:uuid;not null"`
	ReceiverID uuid.UUID `gorm:"column:receiver_id;type:uuid;not null"`

	PaymentIntentID string         `gorm:"column:payment_intent_id;not null;uniqueIndex"`
	AmountCents     int            `gorm:"column:amount_cents;not null"`
	Currency        enums.Currency `gorm:"column:currency;not null;default:'usd'"`

	IsRefunded          bool       `gorm:"column:is_refunded;not null;default:false"`
	AmountRefundedCents int        `gorm:"column:amount_refunded_cents;not null;default:0"`
	RefundedAt          *time.Time `gorm:"column:refunded_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
