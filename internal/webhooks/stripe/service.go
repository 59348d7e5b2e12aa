package stripewebhook

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/merouaHba/EcommerceAPI/internal/carts"
	"github.com/merouaHba/EcommerceAPI/internal/inventory"
	"github.com/merouaHba/EcommerceAPI/internal/orders"
	"github.com/merouaHba/EcommerceAPI/internal/transactions"
	"github.com/merouaHba/EcommerceAPI/pkg/enums"
	pkgerrors "github.com/merouaHba/EcommerceAPI/pkg/errors"
	"github.com/merouaHba/EcommerceAPI/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// ServiceParams collects the reconciler dependencies.
type ServiceParams struct {
	Orders            orders.Repository
	Transactions      transactions.Service
	Inventory         inventory.Service
	Carts             carts.Repository
	TransactionRunner txRunner
	Guard             eventGuard
	Logger            *logger.Logger
	PlatformUserID    uuid.UUID
}

// Service reconciles processor payment events against local order state.
type Service struct {
	orders         orders.Repository
	transactions   transactions.Service
	inventory      inventory.Service
	carts          carts.Repository
	txRunner       txRunner
	guard          eventGuard
	logg           *logger.Logger
	platformUserID uuid.UUID
	now            func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.Transactions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transactions service required")
	}
	if params.Inventory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory service required")
	}
	if params.Carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "carts repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		orders:         params.Orders,
		transactions:   params.Transactions,
		inventory:      params.Inventory,
		carts:          params.Carts,
		txRunner:       params.TransactionRunner,
		guard:          params.Guard,
		logg:           params.Logger,
		platformUserID: params.PlatformUserID,
		now:            time.Now,
	}, nil
}

// HandleEvent routes verified processor events. Unhandled event types are
// acknowledged without side effects.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		parsed, err := ParseCheckoutCompleted(event)
		if err != nil {
			return err
		}
		return s.reconcilePayment(ctx, parsed)
	default:
		return nil
	}
}

// reconcilePayment applies the full payment effect atomically: claim the
// paid flag, record the transaction, move sub-orders to processing, commit
// inventory, and empty the cart. Duplicate deliveries are no-ops through
// the event guard and the is_paid claim.
func (s *Service) reconcilePayment(ctx context.Context, evt *CheckoutCompletedEvent) error {
	ctx = s.logg.WithOrderID(ctx, evt.OrderID.String())

	seen, err := s.guard.CheckAndMark(ctx, evt.EventID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check event idempotency")
	}
	if seen {
		s.logg.Info(ctx, "duplicate payment event skipped")
		return nil
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)

		order, err := ordersRepo.FindOrder(ctx, evt.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				s.logg.Warn(ctx, "payment event references unknown order")
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found for payment event")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.IsCanceled {
			s.logg.Warn(ctx, "payment event for canceled order ignored")
			return nil
		}

		if evt.AmountCents != order.TotalPriceCents {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"event_amount_cents": evt.AmountCents,
				"order_total_cents":  order.TotalPriceCents,
			}), "payment amount differs from order total")
		}

		// the paid claim must win before the transaction row exists, so a
		// duplicate delivery bows out here instead of tripping the unique
		// payment intent index
		txnID := uuid.New()
		claimed, err := ordersRepo.MarkOrderPaid(ctx, order.ID, txnID, s.now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if !claimed {
			s.logg.Info(ctx, "order already paid; payment event skipped")
			return pkgerrors.New(pkgerrors.CodeIdempotency, "order already paid")
		}

		if _, err := s.transactions.Record(ctx, tx, transactions.RecordInput{
			ID:              txnID,
			SenderID:        order.UserID,
			ReceiverID:      s.platformUserID,
			PaymentIntentID: evt.PaymentIntentID,
			AmountCents:     evt.AmountCents,
			Currency:        enums.Currency(evt.Currency),
		}); err != nil {
			return err
		}

		for _, subOrder := range order.SubOrders {
			ok, err := ordersRepo.UpdateSubOrderStatus(ctx, subOrder.ID,
				enums.SubOrderStatusNotProcessed, enums.SubOrderStatusProcessing, s.now().UTC())
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance sub-order")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "sub-order not in initial state")
			}
		}

		deltas := make([]inventory.Delta, 0, len(order.Items))
		for _, item := range order.Items {
			deltas = append(deltas, inventory.SaleDelta(item.ProductID, item.Qty))
		}
		if err := s.inventory.Apply(ctx, tx, deltas); err != nil {
			return err
		}

		cartsRepo := s.carts.WithTx(tx)
		cartID := evt.CartID
		if cartID == uuid.Nil {
			cart, err := cartsRepo.FindActiveByUser(ctx, order.UserID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return nil
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
			}
			cartID = cart.ID
		}
		if err := cartsRepo.Clear(ctx, cartID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeIdempotency {
			// lost the claim race; the winning delivery did the work
			return nil
		}
		// let the processor redeliver
		if releaseErr := s.guard.Release(ctx, evt.EventID); releaseErr != nil {
			s.logg.Error(ctx, "release event mark failed", releaseErr)
		}
		return err
	}

	s.logg.Info(ctx, "payment reconciled")
	return nil
}
