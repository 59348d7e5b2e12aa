package orders

import "github.com/merouaHba/EcommerceAPI/pkg/types"

type createOrderRequest struct {
	Email           string        `json:"email" validate:"required,email"`
	ShippingAddress types.Address `json:"shipping_address" validate:"required"`
	Phone           string        `json:"phone" validate:"required,min=5"`
	Currency        string        `json:"currency"`

	TaxPriceCents      int `json:"tax_price_cents" validate:"gte=0"`
	ShippingPriceCents int `json:"shipping_price_cents" validate:"gte=0"`

	SuccessURL string `json:"success_url" validate:"required,url"`
	CancelURL  string `json:"cancel_url" validate:"required,url"`
}

type updateSubOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
