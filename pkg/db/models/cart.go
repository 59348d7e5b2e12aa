package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart belongs to the cart collaborator; this core only reads it at checkout
// and empties it when payment is reconciled.
type Cart struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`

	Items           []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	TotalPriceCents int        `gorm:"column:total_price_cents;not null;default:0"`
	TotalQuantity   int        `gorm:"column:total_quantity;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CartItem is one priced line in a user's cart.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID    uuid.UUID `gorm:"column:cart_id;type:uuid;not null"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	SellerID  uuid.UUID `gorm:"column:seller_id;type:uuid;not null"`

	Qty            int `gorm:"column:qty;not null"`
	UnitPriceCents int `gorm:"column:unit_price_cents;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// SubtotalCents is the line total at the current cart price.
func (i CartItem) SubtotalCents() int {
	return i.UnitPriceCents * i.Qty
}
