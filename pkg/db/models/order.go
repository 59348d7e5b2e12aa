package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/merouaHba/EcommerceAPI/pkg/enums"
	"github.com/merouaHba/EcommerceAPI/pkg/types"
)

// Order is the buyer-facing aggregate created at checkout. Orders are never
// physically deleted; payment and cancellation flip monotonic flags.
type Order struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID      `gorm:"column:user_id;type:uuid;not null"`
	ShippingAddress types.Address  `gorm:"embedded;embeddedPrefix:shipping_"`
	Phone           string         `gorm:"column:phone;not null"`
	Currency        enums.Currency `gorm:"column:currency;not null;default:'usd'"`

	// TotalPriceCents is the cart total at checkout time. It is carried
	// independently from the sub-order totals because platform shipping and
	// tax apply at the order level.
	TotalPriceCents    int `gorm:"column:total_price_cents;not null"`
	TaxPriceCents      int `gorm:"column:tax_price_cents;not null;default:0"`
	ShippingPriceCents int `gorm:"column:shipping_price_cents;not null;default:0"`

	IsPaid     bool       `gorm:"column:is_paid;not null;default:false"`
	PaidAt     *time.Time `gorm:"column:paid_at"`
	IsCanceled bool       `gorm:"column:is_canceled;not null;default:false"`
	CanceledAt *time.Time `gorm:"column:canceled_at"`

	TransactionID *uuid.UUID   `gorm:"column:transaction_id;type:uuid"`
	Transaction   *Transaction `gorm:"foreignKey:TransactionID"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	SubOrders []SubOrder  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
