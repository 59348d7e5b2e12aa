package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merouaHba/EcommerceAPI/internal/carts"
	"github.com/merouaHba/EcommerceAPI/internal/inventory"
	"github.com/merouaHba/EcommerceAPI/internal/payments"
	"github.com/merouaHba/EcommerceAPI/pkg/db/models"
	"github.com/merouaHba/EcommerceAPI/pkg/enums"
	pkgerrors "github.com/merouaHba/EcommerceAPI/pkg/errors"
	"github.com/merouaHba/EcommerceAPI/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines checkout and order lifecycle operations.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	GetSubOrder(ctx context.Context, subOrderID, sellerID uuid.UUID) (*models.SubOrder, error)
	ListSellerSubOrders(ctx context.Context, sellerID uuid.UUID) ([]models.SubOrder, error)
	UpdateSubOrderStatus(ctx context.Context, input UpdateSubOrderStatusInput) error
}

type service struct {
	repo      Repository
	tx        txRunner
	carts     carts.Repository
	inventory inventory.Service
	gateway   payments.Gateway
	logg      *logger.Logger
	now       func() time.Time
}

// Params collects the service dependencies.
type Params struct {
	Repo      Repository
	Tx        txRunner
	Carts     carts.Repository
	Inventory inventory.Service
	Gateway   payments.Gateway
	Logger    *logger.Logger
}

// NewService builds an orders service with the required dependencies.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Carts == nil {
		return nil, fmt.Errorf("carts repository required")
	}
	if p.Inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if p.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      p.Repo,
		tx:        p.Tx,
		carts:     p.Carts,
		inventory: p.Inventory,
		gateway:   p.Gateway,
		logg:      p.Logger,
		now:       time.Now,
	}, nil
}

// CreateOrder snapshots the cart into one order with per-seller sub-orders,
// persists the whole graph atomically, then opens a hosted payment session.
// The order stays unpaid until the processor's event confirms payment.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if missing := input.ShippingAddress.Validate(); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	if input.Phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone required")
	}
	if input.TaxPriceCents < 0 || input.ShippingPriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax and shipping cannot be negative")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported currency %q", currency))
	}

	cart, err := s.carts.FindActiveByUser(ctx, input.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	productIDs := make([]uuid.UUID, 0, len(cart.Items))
	for _, line := range cart.Items {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.inventory.LoadProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	for _, line := range cart.Items {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s no longer exists", line.ProductID))
		}
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line quantity must be positive")
		}
		if line.Qty > product.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("insufficient stock for %q", product.Name)).
				WithDetails(map[string]any{"product_id": product.ID, "available": product.Quantity})
		}
	}

	groups := GroupItemsBySeller(cart.Items, products)
	if len(groups) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	order := buildOrderGraph(input, currency, groups)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutSessionInput{
		OrderID:    order.ID,
		UserID:     input.UserID,
		CartID:     cart.ID,
		UserEmail:  input.UserEmail,
		Currency:   string(currency),
		Items:      checkoutItems(order.Items),
		SuccessURL: input.SuccessURL,
		CancelURL:  input.CancelURL,
	})
	if err != nil {
		// the unpaid order survives; the buyer can retry payment
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "checkout session failed", err)
		return nil, err
	}

	return &CreateOrderResult{
		Order:       order,
		CheckoutURL: session.URL,
		SessionID:   session.ID,
	}, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if userID != uuid.Nil && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, err := s.repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

func (s *service) GetSubOrder(ctx context.Context, subOrderID, sellerID uuid.UUID) (*models.SubOrder, error) {
	if subOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sub-order id required")
	}
	subOrder, err := s.repo.FindSubOrder(ctx, subOrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sub-order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sub-order")
	}
	if sellerID != uuid.Nil && subOrder.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "sub-order does not belong to seller")
	}
	return subOrder, nil
}

func (s *service) ListSellerSubOrders(ctx context.Context, sellerID uuid.UUID) ([]models.SubOrder, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	subOrders, err := s.repo.ListSubOrdersBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller sub-orders")
	}
	return subOrders, nil
}

// UpdateSubOrderStatus moves a sub-order along the fulfillment path.
// Cancellation is not reachable from here; it runs through the
// cancellation flow so refunds happen first.
func (s *service) UpdateSubOrderStatus(ctx context.Context, input UpdateSubOrderStatusInput) error {
	if input.SubOrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sub-order id required")
	}
	if input.SellerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	if !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", input.Status))
	}
	if input.Status == enums.SubOrderStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeValidation, "cancellation must go through the cancel endpoint")
	}

	subOrder, err := s.repo.FindSubOrder(ctx, input.SubOrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sub-order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sub-order")
	}
	if subOrder.SellerID != input.SellerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "sub-order does not belong to seller")
	}
	if subOrder.Status == input.Status {
		return nil
	}
	if !subOrder.Status.CanTransitionTo(input.Status) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move sub-order from %s to %s", subOrder.Status, input.Status))
	}

	ok, err := s.repo.UpdateSubOrderStatus(ctx, subOrder.ID, subOrder.Status, input.Status, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sub-order status")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "sub-order changed concurrently")
	}
	return nil
}

// buildOrderGraph assigns IDs up front so item rows can carry both their
// order and sub-order foreign keys in a single insert.
func buildOrderGraph(input CreateOrderInput, currency enums.Currency, groups []SellerGroup) *models.Order {
	orderID := uuid.New()
	order := &models.Order{
		ID:                 orderID,
		UserID:             input.UserID,
		ShippingAddress:    input.ShippingAddress,
		Phone:              input.Phone,
		Currency:           currency,
		TaxPriceCents:      input.TaxPriceCents,
		ShippingPriceCents: input.ShippingPriceCents,
	}

	itemsTotal := 0
	for _, group := range groups {
		subOrderID := uuid.New()
		subOrder := models.SubOrder{
			ID:               subOrderID,
			OrderID:          orderID,
			UserID:           input.UserID,
			SellerID:         group.SellerID,
			TotalAmountCents: group.TotalCents,
			Status:           enums.SubOrderStatusNotProcessed,
		}
		for _, item := range group.Items {
			item.ID = uuid.New()
			item.OrderID = orderID
			item.SubOrderID = subOrderID
			order.Items = append(order.Items, item)
		}
		order.SubOrders = append(order.SubOrders, subOrder)
		itemsTotal += group.TotalCents
	}
	order.TotalPriceCents = itemsTotal + input.TaxPriceCents + input.ShippingPriceCents
	return order
}

func checkoutItems(items []models.OrderItem) []payments.CheckoutItem {
	out := make([]payments.CheckoutItem, 0, len(items))
	for _, item := range items {
		out = append(out, payments.CheckoutItem{
			Name:           item.Name,
			ImageURL:       item.ImageKey,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return out
}
