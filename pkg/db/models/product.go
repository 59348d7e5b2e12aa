package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merouaHba/EcommerceAPI/pkg/enums"
)

// Product carries the catalog fields this core reads plus the inventory
// counters it owns. Full catalog CRUD lives with the catalog collaborator;
// only the inventory ledger mutates the counters here.
type Product struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID uuid.UUID `gorm:"column:seller_id;type:uuid;not null"`

	Name         string          `gorm:"column:name;not null"`
	MainImageKey string          `gorm:"column:main_image_key"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`

	Quantity         int               `gorm:"column:quantity;not null;default:0"`
	ReservedQuantity int               `gorm:"column:reserved_quantity;not null;default:0"`
	Sold             int               `gorm:"column:sold;not null;default:0"`
	BackorderCount   int               `gorm:"column:backorder_count;not null;default:0"`
	StockStatus      enums.StockStatus `gorm:"column:stock_status;not null;default:'in_stock'"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PriceCents converts the catalog's decimal price to minor units. This is the
// single decimal-to-cents boundary; everything downstream works in cents.
func (p Product) PriceCents() int {
	return int(p.Price.Shift(2).Round(0).IntPart())
}
