package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is one line of the cart snapshot taken at checkout. Every item
// belongs to the order and to exactly one sub-order, so the sub-orders
// partition the snapshot by seller with no overlap and no omission.
type OrderItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	SubOrderID uuid.UUID `gorm:"column:sub_order_id;type:uuid;not null"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	SellerID   uuid.UUID `gorm:"column:seller_id;type:uuid;not null"`

	Name           string `gorm:"column:name;not null"`
	ImageKey       string `gorm:"column:image_key"`
	Qty            int    `gorm:"column:qty;not null"`
	UnitPriceCents int    `gorm:"column:unit_price_cents;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// SubtotalCents is the line total at the snapshot price.
func (i OrderItem) SubtotalCents() int {
	return i.UnitPriceCents * i.Qty
}
