package orders

import (
	"github.com/google/uuid"

	"github.com/merouaHba/EcommerceAPI/pkg/db/models"
	"github.com/merouaHba/EcommerceAPI/pkg/enums"
	"github.com/merouaHba/EcommerceAPI/pkg/types"
)

// CreateOrderInput carries everything checkout needs beyond the cart.
type CreateOrderInput struct {
	UserID          uuid.UUID
	UserEmail       string
	ShippingAddress types.Address
	Phone           string
	Currency        enums.Currency

	TaxPriceCents      int
	ShippingPriceCents int

	SuccessURL string
	CancelURL  string
}

// CreateOrderResult is the created order plus the hosted payment session
// the buyer is redirected to.
type CreateOrderResult struct {
	Order       *models.Order
	CheckoutURL string
	SessionID   string
}

// UpdateSubOrderStatusInput is a seller moving their slice forward.
type UpdateSubOrderStatusInput struct {
	SubOrderID uuid.UUID
	SellerID   uuid.UUID
	Status     enums.SubOrderStatus
}
