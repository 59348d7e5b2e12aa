package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/merouaHba/EcommerceAPI/internal/carts"
	"github.com/merouaHba/EcommerceAPI/internal/inventory"
	"github.com/merouaHba/EcommerceAPI/internal/orders"
	"github.com/merouaHba/EcommerceAPI/internal/transactions"
	"github.com/merouaHba/EcommerceAPI/pkg/db/models"
	"github.com/merouaHba/EcommerceAPI/pkg/enums"
	pkgerrors "github.com/merouaHba/EcommerceAPI/pkg/errors"
	"github.com/merouaHba/EcommerceAPI/pkg/logger"
)

type fakeOrdersRepo struct {
	order         *models.Order
	paidClaims    int
	claimedTxnID  uuid.UUID
	statusUpdates int
}

func (f *fakeOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return f }

func (f *fakeOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	return order, nil
}

func (f *fakeOrdersRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if f.order != nil && f.order.ID == orderID {
		return f.order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) FindSubOrder(ctx context.Context, subOrderID uuid.UUID) (*models.SubOrder, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrdersRepo) ListSubOrdersBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.SubOrder, error) {
	return nil, nil
}

func (f *fakeOrdersRepo) MarkOrderPaid(ctx context.Context, orderID, transactionID uuid.UUID, at time.Time) (bool, error) {
	f.paidClaims++
	// only the first claim wins, as with the conditional UPDATE
	if f.paidClaims == 1 {
		f.claimedTxnID = transactionID
		return true, nil
	}
	return false, nil
}

func (f *fakeOrdersRepo) MarkOrderCanceled(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	return nil
}

func (f *fakeOrdersRepo) UpdateSubOrderStatus(ctx context.Context, subOrderID uuid.UUID, from, to enums.SubOrderStatus, at time.Time) (bool, error) {
	f.statusUpdates++
	return true, nil
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

type fakeTransactions struct {
	recorded []transactions.RecordInput
}

func (f *fakeTransactions) Record(ctx context.Context, tx *gorm.DB, input transactions.RecordInput) (*models.Transaction, error) {
	// payment_intent_id carries a unique index; a second insert for the
	// same intent fails exactly like the real repository would
	for _, prev := range f.recorded {
		if prev.PaymentIntentID == input.PaymentIntentID {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, gorm.ErrDuplicatedKey, "record transaction")
		}
	}
	f.recorded = append(f.recorded, input)
	id := input.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &models.Transaction{ID: id, PaymentIntentID: input.PaymentIntentID, AmountCents: input.AmountCents}, nil
}

func (f *fakeTransactions) ApplyRefund(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID, amountCents int) error {
	return nil
}

func (f *fakeTransactions) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTransactions) ListBySender(ctx context.Context, senderID uuid.UUID) ([]models.Transaction, error) {
	return nil, nil
}

type fakeInventory struct {
	applied [][]inventory.Delta
}

func (f *fakeInventory) Apply(ctx context.Context, tx *gorm.DB, deltas []inventory.Delta) error {
	f.applied = append(f.applied, deltas)
	return nil
}

func (f *fakeInventory) LoadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	return nil, nil
}

type fakeCartsRepo struct {
	cart    *models.Cart
	cleared int
}

func (f *fakeCartsRepo) WithTx(tx *gorm.DB) carts.Repository { return f }

func (f *fakeCartsRepo) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if f.cart == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.cart, nil
}

func (f *fakeCartsRepo) Clear(ctx context.Context, cartID uuid.UUID) error {
	f.cleared++
	return nil
}

type fakeGuard struct {
	seen     map[string]bool
	released []string
	// alwaysMiss simulates a guard whose mark expired or was lost, so
	// every delivery looks new at the redis layer
	alwaysMiss bool
}

func (f *fakeGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[eventID] && !f.alwaysMiss {
		return true, nil
	}
	f.seen[eventID] = true
	return false, nil
}

func (f *fakeGuard) Release(ctx context.Context, eventID string) error {
	f.released = append(f.released, eventID)
	delete(f.seen, eventID)
	return nil
}

func (f *fakeGuard) has(eventID string) bool {
	return f.seen[eventID]
}

type fakeTxRunner struct{}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func paidOrderFixture() *models.Order {
	orderID := uuid.New()
	userID := uuid.New()
	productA := uuid.New()
	productB := uuid.New()
	subA := models.SubOrder{ID: uuid.New(), OrderID: orderID, Status: enums.SubOrderStatusNotProcessed}
	subB := models.SubOrder{ID: uuid.New(), OrderID: orderID, Status: enums.SubOrderStatusNotProcessed}
	return &models.Order{
		ID:              orderID,
		UserID:          userID,
		TotalPriceCents: 3500,
		SubOrders:       []models.SubOrder{subA, subB},
		Items: []models.OrderItem{
			{OrderID: orderID, SubOrderID: subA.ID, ProductID: productA, Qty: 2, UnitPriceCents: 1000},
			{OrderID: orderID, SubOrderID: subB.ID, ProductID: productB, Qty: 3, UnitPriceCents: 500},
		},
	}
}

func checkoutEvent(t *testing.T, eventID string, order *models.Order) *stripe.Event {
	t.Helper()
	payload := map[string]any{
		"id":             "cs_test_1",
		"amount_total":   order.TotalPriceCents,
		"currency":       "usd",
		"payment_intent": map[string]any{"id": "pi_123"},
		"metadata": map[string]string{
			"order_id": order.ID.String(),
			"user_id":  order.UserID.String(),
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal session payload: %v", err)
	}
	return &stripe.Event{
		ID:   eventID,
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func newTestReconciler(t *testing.T, repo *fakeOrdersRepo, txns *fakeTransactions, inv *fakeInventory, cartsRepo *fakeCartsRepo, guard *fakeGuard) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Orders:            repo,
		Transactions:      txns,
		Inventory:         inv,
		Carts:             cartsRepo,
		TransactionRunner: &fakeTxRunner{},
		Guard:             guard,
		Logger:            logger.New(logger.Options{ServiceName: "test"}),
		PlatformUserID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestHandleEventAppliesPaymentEffect(t *testing.T) {
	order := paidOrderFixture()
	repo := &fakeOrdersRepo{order: order}
	txns := &fakeTransactions{}
	inv := &fakeInventory{}
	cartsRepo := &fakeCartsRepo{cart: &models.Cart{ID: uuid.New(), UserID: order.UserID}}
	guard := &fakeGuard{}
	svc := newTestReconciler(t, repo, txns, inv, cartsRepo, guard)

	if err := svc.HandleEvent(context.Background(), checkoutEvent(t, "evt_1", order)); err != nil {
		t.Fatalf("HandleEvent error: %v", err)
	}

	if len(txns.recorded) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns.recorded))
	}
	rec := txns.recorded[0]
	if rec.PaymentIntentID != "pi_123" || rec.AmountCents != 3500 || rec.SenderID != order.UserID {
		t.Fatalf("unexpected transaction input: %+v", rec)
	}
	if rec.ID == uuid.Nil || rec.ID != repo.claimedTxnID {
		t.Fatalf("transaction row must carry the id the paid claim pinned: %s vs %s", rec.ID, repo.claimedTxnID)
	}
	if repo.paidClaims != 1 {
		t.Fatalf("expected 1 paid claim, got %d", repo.paidClaims)
	}
	if repo.statusUpdates != 2 {
		t.Fatalf("expected both sub-orders advanced, got %d", repo.statusUpdates)
	}
	if len(inv.applied) != 1 || len(inv.applied[0]) != 2 {
		t.Fatalf("expected inventory deltas for 2 items, got %+v", inv.applied)
	}
	for _, delta := range inv.applied[0] {
		if delta.Quantity >= 0 || delta.Sold <= 0 {
			t.Fatalf("sale delta must move stock to sold: %+v", delta)
		}
	}
	if cartsRepo.cleared != 1 {
		t.Fatalf("expected cart cleared once, got %d", cartsRepo.cleared)
	}
}

func TestHandleEventDuplicateDeliveryIsNoop(t *testing.T) {
	order := paidOrderFixture()
	repo := &fakeOrdersRepo{order: order}
	txns := &fakeTransactions{}
	inv := &fakeInventory{}
	cartsRepo := &fakeCartsRepo{cart: &models.Cart{ID: uuid.New(), UserID: order.UserID}}
	guard := &fakeGuard{}
	svc := newTestReconciler(t, repo, txns, inv, cartsRepo, guard)

	event := checkoutEvent(t, "evt_dup", order)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("first delivery error: %v", err)
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("second delivery error: %v", err)
	}

	if len(txns.recorded) != 1 {
		t.Fatalf("duplicate delivery must not record a second transaction: %d", len(txns.recorded))
	}
	if repo.paidClaims != 1 {
		t.Fatalf("duplicate delivery must not reach the paid claim: %d", repo.paidClaims)
	}
	if len(inv.applied) != 1 {
		t.Fatalf("duplicate delivery must not reapply inventory: %d", len(inv.applied))
	}
	if cartsRepo.cleared != 1 {
		t.Fatalf("duplicate delivery must not clear the cart again: %d", cartsRepo.cleared)
	}
}

func TestHandleEventRedeliveryPastGuardIsNoop(t *testing.T) {
	order := paidOrderFixture()
	repo := &fakeOrdersRepo{order: order}
	txns := &fakeTransactions{}
	inv := &fakeInventory{}
	cartsRepo := &fakeCartsRepo{cart: &models.Cart{ID: uuid.New(), UserID: order.UserID}}
	guard := &fakeGuard{alwaysMiss: true}
	svc := newTestReconciler(t, repo, txns, inv, cartsRepo, guard)

	event := checkoutEvent(t, "evt_expired", order)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("first delivery error: %v", err)
	}
	// the redelivery reaches the DB; the paid claim must turn it away
	// before the unique payment intent index can fail the insert
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("redelivery must be acknowledged as a no-op, got %v", err)
	}

	if len(txns.recorded) != 1 {
		t.Fatalf("redelivery must not record a second transaction: %d", len(txns.recorded))
	}
	if repo.paidClaims != 2 {
		t.Fatalf("both deliveries reach the claim, only one wins: %d", repo.paidClaims)
	}
	if repo.statusUpdates != 2 {
		t.Fatalf("redelivery must not advance sub-orders again: %d", repo.statusUpdates)
	}
	if len(inv.applied) != 1 {
		t.Fatalf("redelivery must not reapply inventory: %d", len(inv.applied))
	}
	if cartsRepo.cleared != 1 {
		t.Fatalf("redelivery must not clear the cart again: %d", cartsRepo.cleared)
	}
}

func TestHandleEventLostClaimRaceIsAcknowledged(t *testing.T) {
	order := paidOrderFixture()
	repo := &fakeOrdersRepo{order: order}
	repo.paidClaims = 1 // simulate a prior winner
	txns := &fakeTransactions{}
	guard := &fakeGuard{}
	svc := newTestReconciler(t, repo, txns, &fakeInventory{}, &fakeCartsRepo{}, guard)

	if err := svc.HandleEvent(context.Background(), checkoutEvent(t, "evt_race", order)); err != nil {
		t.Fatalf("lost race must be acknowledged, got %v", err)
	}
	if repo.statusUpdates != 0 {
		t.Fatal("loser must not advance sub-orders")
	}
}

func TestHandleEventUnknownOrderFailsNotFound(t *testing.T) {
	order := paidOrderFixture()
	repo := &fakeOrdersRepo{} // no orders
	guard := &fakeGuard{}
	svc := newTestReconciler(t, repo, &fakeTransactions{}, &fakeInventory{}, &fakeCartsRepo{}, guard)

	err := svc.HandleEvent(context.Background(), checkoutEvent(t, "evt_unknown", order))
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found for unknown order, got %v", err)
	}
	if guard.has("evt_unknown") {
		t.Fatal("failed event must release its mark so redelivery can retry")
	}
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	svc := newTestReconciler(t, &fakeOrdersRepo{}, &fakeTransactions{}, &fakeInventory{}, &fakeCartsRepo{}, &fakeGuard{})
	event := &stripe.Event{
		Type: stripe.EventTypeInvoicePaid,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unhandled types must be acknowledged, got %v", err)
	}
}

func TestParseCheckoutCompletedValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{name: "missing order id", payload: map[string]any{
			"payment_intent": map[string]any{"id": "pi"},
			"metadata":       map[string]string{"user_id": uuid.New().String()},
		}},
		{name: "bad order id", payload: map[string]any{
			"payment_intent": map[string]any{"id": "pi"},
			"metadata":       map[string]string{"order_id": "nope", "user_id": uuid.New().String()},
		}},
		{name: "missing payment intent", payload: map[string]any{
			"metadata": map[string]string{"order_id": uuid.New().String(), "user_id": uuid.New().String()},
		}},
	}
	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(tc.payload)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			event := &stripe.Event{
				ID:   fmt.Sprintf("evt_%d", i),
				Type: stripe.EventTypeCheckoutSessionCompleted,
				Data: &stripe.EventData{Raw: raw},
			}
			if _, err := ParseCheckoutCompleted(event); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
