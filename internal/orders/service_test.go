package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/merouaHba/EcommerceAPI/internal/carts"
	"github.com/merouaHba/EcommerceAPI/internal/inventory"
	"github.com/merouaHba/EcommerceAPI/internal/payments"
	"github.com/merouaHba/EcommerceAPI/pkg/db/models"
	"github.com/merouaHba/EcommerceAPI/pkg/enums"
	pkgerrors "github.com/merouaHba/EcommerceAPI/pkg/errors"
	"github.com/merouaHba/EcommerceAPI/pkg/logger"
	"github.com/merouaHba/EcommerceAPI/pkg/types"
)

type fakeOrdersRepo struct {
	created        *models.Order
	createErr      error
	subOrder       *models.SubOrder
	statusUpdates  []enums.SubOrderStatus
	statusUpdateOK bool
}

func (f *fakeOrdersRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = order
	return order, nil
}

func (f *fakeOrdersRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if f.created != nil && f.created.ID == orderID {
		return f.created, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) FindSubOrder(ctx context.Context, subOrderID uuid.UUID) (*models.SubOrder, error) {
	if f.subOrder != nil && f.subOrder.ID == subOrderID {
		return f.subOrder, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrdersRepo) ListSubOrdersBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.SubOrder, error) {
	return nil, nil
}

func (f *fakeOrdersRepo) MarkOrderPaid(ctx context.Context, orderID, transactionID uuid.UUID, at time.Time) (bool, error) {
	return true, nil
}

func (f *fakeOrdersRepo) MarkOrderCanceled(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	return nil
}

func (f *fakeOrdersRepo) UpdateSubOrderStatus(ctx context.Context, subOrderID uuid.UUID, from, to enums.SubOrderStatus, at time.Time) (bool, error) {
	f.statusUpdates = append(f.statusUpdates, to)
	return f.statusUpdateOK, nil
}

func (f *fakeOrdersRepo) CountActiveSubOrders(ctx context.Context, orderID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeOrdersRepo) FindPayableSubOrders(ctx context.Context) ([]models.SubOrder, error) {
	return nil, nil
}

func (f *fakeOrdersRepo) ClaimSubOrderPayout(ctx context.Context, subOrderID uuid.UUID) (bool, error) {
	return true, nil
}

func (f *fakeOrdersRepo) ReleaseSubOrderPayout(ctx context.Context, subOrderID uuid.UUID) error {
	return nil
}

type fakeTxRunner struct {
	err error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(&gorm.DB{})
}

type fakeCartsRepo struct {
	cart *models.Cart
	err  error
}

func (f *fakeCartsRepo) WithTx(tx *gorm.DB) carts.Repository { return f }

func (f *fakeCartsRepo) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cart, nil
}

func (f *fakeCartsRepo) Clear(ctx context.Context, cartID uuid.UUID) error { return nil }

type fakeInventory struct {
	products map[uuid.UUID]models.Product
}

func (f *fakeInventory) Apply(ctx context.Context, tx *gorm.DB, deltas []inventory.Delta) error {
	return nil
}

func (f *fakeInventory) LoadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	return f.products, nil
}

type fakeGateway struct {
	session    *payments.CheckoutSession
	sessionErr error
	lastInput  payments.CheckoutSessionInput
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, input payments.CheckoutSessionInput) (*payments.CheckoutSession, error) {
	f.lastInput = input
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.session, nil
}

func (f *fakeGateway) Refund(ctx context.Context, input payments.RefundInput) (*payments.Refund, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) Transfer(ctx context.Context, input payments.TransferInput) (*payments.Transfer, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) IsTransferActive(ctx context.Context, accountID string) (bool, error) {
	return false, nil
}

func testAddress() types.Address {
	return types.Address{Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}
}

func newTestService(t *testing.T, repo *fakeOrdersRepo, cartsRepo *fakeCartsRepo, inv *fakeInventory, gateway *fakeGateway) Service {
	t.Helper()
	svc, err := NewService(Params{
		Repo:      repo,
		Tx:        &fakeTxRunner{},
		Carts:     cartsRepo,
		Inventory: inv,
		Gateway:   gateway,
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func twoSellerFixture() (*models.Cart, map[uuid.UUID]models.Product) {
	sellerA := uuid.New()
	sellerB := uuid.New()
	productA := models.Product{ID: uuid.New(), SellerID: sellerA, Name: "widget", Price: decimal.NewFromFloat(10.00), Quantity: 10}
	productB := models.Product{ID: uuid.New(), SellerID: sellerB, Name: "gizmo", Price: decimal.NewFromFloat(5.00), Quantity: 10}

	cart := &models.Cart{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Items: []models.CartItem{
			{ProductID: productA.ID, SellerID: sellerA, Qty: 2},
			{ProductID: productB.ID, SellerID: sellerB, Qty: 3},
		},
	}
	products := map[uuid.UUID]models.Product{
		productA.ID: productA,
		productB.ID: productB,
	}
	return cart, products
}

func TestService_CreateOrderFansOutBySeller(t *testing.T) {
	cart, products := twoSellerFixture()
	repo := &fakeOrdersRepo{}
	gateway := &fakeGateway{session: &payments.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}}
	svc := newTestService(t, repo, &fakeCartsRepo{cart: cart}, &fakeInventory{products: products}, gateway)

	result, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          cart.UserID,
		UserEmail:       "buyer@example.com",
		ShippingAddress: testAddress(),
		Phone:           "+15551234567",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if result.CheckoutURL != "https://pay.example/cs_1" {
		t.Fatalf("unexpected checkout url %q", result.CheckoutURL)
	}

	order := repo.created
	if order == nil {
		t.Fatal("expected order to be persisted")
	}
	if len(order.SubOrders) != 2 {
		t.Fatalf("expected 2 sub-orders, got %d", len(order.SubOrders))
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 item rows, got %d", len(order.Items))
	}

	// 2 x 10.00 + 3 x 5.00
	if order.TotalPriceCents != 3500 {
		t.Fatalf("expected order total 3500, got %d", order.TotalPriceCents)
	}
	subTotal := 0
	for _, sub := range order.SubOrders {
		if sub.OrderID != order.ID {
			t.Fatal("sub-order not linked to order")
		}
		if sub.Status != enums.SubOrderStatusNotProcessed {
			t.Fatalf("new sub-order must start not_processed, got %s", sub.Status)
		}
		subTotal += sub.TotalAmountCents
	}
	if subTotal != 3500 {
		t.Fatalf("sub-order totals must cover the snapshot, got %d", subTotal)
	}

	subIDs := map[uuid.UUID]bool{}
	for _, sub := range order.SubOrders {
		subIDs[sub.ID] = true
	}
	for _, item := range order.Items {
		if item.OrderID != order.ID {
			t.Fatal("item missing order link")
		}
		if !subIDs[item.SubOrderID] {
			t.Fatal("item not assigned to a sub-order of this order")
		}
	}

	if order.IsPaid {
		t.Fatal("order must start unpaid")
	}
	if gateway.lastInput.OrderID != order.ID {
		t.Fatal("checkout session must reference the created order")
	}
}

func TestService_CreateOrderEmptyCart(t *testing.T) {
	svc := newTestService(t, &fakeOrdersRepo{}, &fakeCartsRepo{cart: &models.Cart{ID: uuid.New()}}, &fakeInventory{}, &fakeGateway{})

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          uuid.New(),
		ShippingAddress: testAddress(),
		Phone:           "+15551234567",
	})
	if err == nil {
		t.Fatal("expected error for empty cart")
	}
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_CreateOrderInsufficientStock(t *testing.T) {
	cart, products := twoSellerFixture()
	for id, p := range products {
		p.Quantity = 1
		products[id] = p
	}
	svc := newTestService(t, &fakeOrdersRepo{}, &fakeCartsRepo{cart: cart}, &fakeInventory{products: products}, &fakeGateway{})

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          cart.UserID,
		ShippingAddress: testAddress(),
		Phone:           "+15551234567",
	})
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for stock, got %v", err)
	}
}

func TestService_CreateOrderIncompleteAddress(t *testing.T) {
	svc := newTestService(t, &fakeOrdersRepo{}, &fakeCartsRepo{}, &fakeInventory{}, &fakeGateway{})

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          uuid.New(),
		ShippingAddress: types.Address{Line1: "1 Main St"},
		Phone:           "+15551234567",
	})
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_CreateOrderKeepsOrderWhenSessionFails(t *testing.T) {
	cart, products := twoSellerFixture()
	repo := &fakeOrdersRepo{}
	gateway := &fakeGateway{sessionErr: pkgerrors.New(pkgerrors.CodeDependency, "stripe down")}
	svc := newTestService(t, repo, &fakeCartsRepo{cart: cart}, &fakeInventory{products: products}, gateway)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          cart.UserID,
		ShippingAddress: testAddress(),
		Phone:           "+15551234567",
	})
	if err == nil {
		t.Fatal("expected gateway error to surface")
	}
	if repo.created == nil {
		t.Fatal("order must survive a failed session so payment can be retried")
	}
}

func TestService_UpdateSubOrderStatus(t *testing.T) {
	sellerID := uuid.New()
	repo := &fakeOrdersRepo{
		subOrder: &models.SubOrder{
			ID:       uuid.New(),
			SellerID: sellerID,
			Status:   enums.SubOrderStatusProcessing,
		},
		statusUpdateOK: true,
	}
	svc := newTestService(t, repo, &fakeCartsRepo{}, &fakeInventory{}, &fakeGateway{})

	err := svc.UpdateSubOrderStatus(context.Background(), UpdateSubOrderStatusInput{
		SubOrderID: repo.subOrder.ID,
		SellerID:   sellerID,
		Status:     enums.SubOrderStatusShipped,
	})
	if err != nil {
		t.Fatalf("UpdateSubOrderStatus error: %v", err)
	}
	if len(repo.statusUpdates) != 1 || repo.statusUpdates[0] != enums.SubOrderStatusShipped {
		t.Fatalf("unexpected status updates: %v", repo.statusUpdates)
	}
}

func TestService_UpdateSubOrderStatusRejectsSkips(t *testing.T) {
	sellerID := uuid.New()
	repo := &fakeOrdersRepo{
		subOrder: &models.SubOrder{
			ID:       uuid.New(),
			SellerID: sellerID,
			Status:   enums.SubOrderStatusNotProcessed,
		},
	}
	svc := newTestService(t, repo, &fakeCartsRepo{}, &fakeInventory{}, &fakeGateway{})

	err := svc.UpdateSubOrderStatus(context.Background(), UpdateSubOrderStatusInput{
		SubOrderID: repo.subOrder.ID,
		SellerID:   sellerID,
		Status:     enums.SubOrderStatusDelivered,
	})
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for skipped step, got %v", err)
	}
}

func TestService_UpdateSubOrderStatusWrongSeller(t *testing.T) {
	repo := &fakeOrdersRepo{
		subOrder: &models.SubOrder{
			ID:       uuid.New(),
			SellerID: uuid.New(),
			Status:   enums.SubOrderStatusProcessing,
		},
	}
	svc := newTestService(t, repo, &fakeCartsRepo{}, &fakeInventory{}, &fakeGateway{})

	err := svc.UpdateSubOrderStatus(context.Background(), UpdateSubOrderStatusInput{
		SubOrderID: repo.subOrder.ID,
		SellerID:   uuid.New(),
		Status:     enums.SubOrderStatusShipped,
	})
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestService_UpdateSubOrderStatusBlocksCancellation(t *testing.T) {
	svc := newTestService(t, &fakeOrdersRepo{}, &fakeCartsRepo{}, &fakeInventory{}, &fakeGateway{})

	err := svc.UpdateSubOrderStatus(context.Background(), UpdateSubOrderStatusInput{
		SubOrderID: uuid.New(),
		SellerID:   uuid.New(),
		Status:     enums.SubOrderStatusCancelled,
	})
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
