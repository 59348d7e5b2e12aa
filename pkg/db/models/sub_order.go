package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/merouaHba/EcommerceAPI/pkg/enums"
)

// SubOrder is the seller-facing slice of an Order, one per seller.
type SubOrder struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID  uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	SellerID uuid.UUID `gorm:"column:seller_id;type:uuid;not null"`

	Items []OrderItem `gorm:"foreignKey:SubOrderID"`

	TotalAmountCents   int `gorm:"column:total_amount_cents;not null"`
	TaxPriceCents      int `gorm:"column:tax_price_cents;not null;default:0"`
	ShippingPriceCents int `gorm:"column:shipping_price_cents;not null;default:0"`

	Status enums.SubOrderStatus `gorm:"column:status;not null;default:'not_processed'"`

	IsDelivered bool       `gorm:"column:is_delivered;not null;default:false"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`

	// IsBalanceTransfered flips false -> true exactly once; the conditional
	// update in the orders repository is the sole guard against double payout.
	IsBalanceTransfered bool `gorm:"column:is_balance_transfered;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PayoutAmountCents is what the seller receives for this sub-order on payout.
func (s SubOrder) PayoutAmountCents() int {
	return s.TotalAmountCents + s.TaxPriceCents + s.ShippingPriceCents
}
