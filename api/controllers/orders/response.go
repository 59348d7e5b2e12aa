package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/merouaHba/EcommerceAPI/pkg/db/models"
	"github.com/merouaHba/EcommerceAPI/pkg/types"
)

type orderItemView struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	SellerID       uuid.UUID `json:"seller_id"`
	Name           string    `json:"name"`
	ImageKey       string    `json:"image_key,omitempty"`
	Qty            int       `json:"qty"`
	UnitPriceCents int       `json:"unit_price_cents"`
	SubtotalCents  int       `json:"subtotal_cents"`
}

type subOrderView struct {
	ID                 uuid.UUID       `json:"id"`
	OrderID            uuid.UUID       `json:"order_id"`
	SellerID           uuid.UUID       `json:"seller_id"`
	Status             string          `json:"status"`
	TotalAmountCents   int             `json:"total_amount_cents"`
	TaxPriceCents      int             `json:"tax_price_cents"`
	ShippingPriceCents int             `json:"shipping_price_cents"`
	IsDelivered        bool            `json:"is_delivered"`
	DeliveredAt        *time.Time      `json:"delivered_at,omitempty"`
	Items              []orderItemView `json:"items,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

type orderView struct {
	ID                 uuid.UUID       `json:"id"`
	UserID             uuid.UUID       `json:"user_id"`
	ShippingAddress    types.Address   `json:"shipping_address"`
	Phone              string          `json:"phone"`
	Currency           string          `json:"currency"`
	TotalPriceCents    int             `json:"total_price_cents"`
	TaxPriceCents      int             `json:"tax_price_cents"`
	ShippingPriceCents int             `json:"shipping_price_cents"`
	IsPaid             bool            `json:"is_paid"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
	IsCanceled         bool            `json:"is_canceled"`
	CanceledAt         *time.Time      `json:"canceled_at,omitempty"`
	Items              []orderItemView `json:"items,omitempty"`
	SubOrders          []subOrderView  `json:"sub_orders,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

type createOrderResponse struct {
	Order       orderView `json:"order"`
	CheckoutURL string    `json:"checkout_url"`
	SessionID   string    `json:"session_id"`
}

func toItemView(item models.OrderItem) orderItemView {
	return orderItemView{
		ID:             item.ID,
		ProductID:      item.ProductID,
		SellerID:       item.SellerID,
		Name:           item.Name,
		ImageKey:       item.ImageKey,
		Qty:            item.Qty,
		UnitPriceCents: item.UnitPriceCents,
		SubtotalCents:  item.SubtotalCents(),
	}
}

func toSubOrderView(subOrder models.SubOrder) subOrderView {
	view := subOrderView{
		ID:                 subOrder.ID,
		OrderID:            subOrder.OrderID,
		SellerID:           subOrder.SellerID,
		Status:             subOrder.Status.String(),
		TotalAmountCents:   subOrder.TotalAmountCents,
		TaxPriceCents:      subOrder.TaxPriceCents,
		ShippingPriceCents: subOrder.ShippingPriceCents,
		IsDelivered:        subOrder.IsDelivered,
		DeliveredAt:        subOrder.DeliveredAt,
		CreatedAt:          subOrder.CreatedAt,
	}
	for _, item := range subOrder.Items {
		view.Items = append(view.Items, toItemView(item))
	}
	return view
}

func toOrderView(order *models.Order) orderView {
	view := orderView{
		ID:                 order.ID,
		UserID:             order.UserID,
		ShippingAddress:    order.ShippingAddress,
		Phone:              order.Phone,
		Currency:           order.Currency.String(),
		TotalPriceCents:    order.TotalPriceCents,
		TaxPriceCents:      order.TaxPriceCents,
		ShippingPriceCents: order.ShippingPriceCents,
		IsPaid:             order.IsPaid,
		PaidAt:             order.PaidAt,
		IsCanceled:         order.IsCanceled,
		CanceledAt:         order.CanceledAt,
		CreatedAt:          order.CreatedAt,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, toItemView(item))
	}
	for _, subOrder := range order.SubOrders {
		view.SubOrders = append(view.SubOrders, toSubOrderView(subOrder))
	}
	return view
}
