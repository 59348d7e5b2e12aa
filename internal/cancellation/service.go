package cancellation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/merouaHba/EcommerceAPI/internal/inventory"
	"github.com/merouaHba/EcommerceAPI/internal/orders"
	"github.com/merouaHba/EcommerceAPI/internal/payments"
	"github.com/merouaHba/EcommerceAPI/internal/transactions"
	"github.com/merouaHba/EcommerceAPI/pkg/db/models"
	"github.com/merouaHba/EcommerceAPI/pkg/enums"
	pkgerrors "github.com/merouaHba/EcommerceAPI/pkg/errors"
	"github.com/merouaHba/EcommerceAPI/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service cancels whole orders or single sub-orders, refunding through
// the processor before any local state changes.
type Service interface {
	CancelOrder(ctx context.Context, orderID, userID uuid.UUID) error
	CancelSubOrder(ctx context.Context, input CancelSubOrderInput) error
}

// CancelSubOrderInput identifies the sub-order and who is asking.
type CancelSubOrderInput struct {
	SubOrderID uuid.UUID
	ActorID    uuid.UUID
	// ActorIsSeller switches the ownership check from buyer to seller.
	ActorIsSeller bool
}

// Params collects the service dependencies.
type Params struct {
	Orders       orders.Repository
	Transactions transactions.Service
	Inventory    inventory.Service
	Gateway      payments.Gateway
	Tx           txRunner
	Logger       *logger.Logger
	// Window bounds how long after checkout a buyer can cancel.
	Window time.Duration
}

type service struct {
	orders       orders.Repository
	transactions transactions.Service
	inventory    inventory.Service
	gateway      payments.Gateway
	tx           txRunner
	logg         *logger.Logger
	window       time.Duration
	now          func() time.Time
}

// NewService builds a cancellation service with the required dependencies.
func NewService(p Params) (Service, error) {
	if p.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Transactions == nil {
		return nil, fmt.Errorf("transactions service required")
	}
	if p.Inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if p.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if p.Window <= 0 {
		return nil, fmt.Errorf("cancellation window required")
	}
	return &service{
		orders:       p.Orders,
		transactions: p.Transactions,
		inventory:    p.Inventory,
		gateway:      p.Gateway,
		tx:           p.Tx,
		logg:         p.Logger,
		window:       p.Window,
		now:          time.Now,
	}, nil
}

// CancelOrder cancels every cancelable sub-order. One sub-order failing
// does not block the others; the combined error reports what failed.
func (s *service) CancelOrder(ctx context.Context, orderID, userID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if userID != uuid.Nil && order.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	if order.IsCanceled {
		return nil
	}
	if err := s.checkWindow(order); err != nil {
		return err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	var errs error
	for i := range order.SubOrders {
		subOrder := &order.SubOrders[i]
		if subOrder.Status == enums.SubOrderStatusCancelled {
			continue
		}
		if !subOrder.Status.CanTransitionTo(enums.SubOrderStatusCancelled) {
			errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("sub-order %s in status %s cannot be canceled", subOrder.ID, subOrder.Status)))
			continue
		}
		if err := s.cancelOne(ctx, order, subOrder); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// CancelSubOrder cancels one seller's slice of an order.
func (s *service) CancelSubOrder(ctx context.Context, input CancelSubOrderInput) error {
	if input.SubOrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sub-order id required")
	}

	subOrder, err := s.orders.FindSubOrder(ctx, input.SubOrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sub-order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sub-order")
	}
	if input.ActorID != uuid.Nil {
		owner := subOrder.UserID
		if input.ActorIsSeller {
			owner = subOrder.SellerID
		}
		if owner != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "sub-order does not belong to actor")
		}
	}
	if subOrder.Status == enums.SubOrderStatusCancelled {
		return nil
	}
	if !subOrder.Status.CanTransitionTo(enums.SubOrderStatusCancelled) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("sub-order in status %s cannot be canceled", subOrder.Status))
	}

	order, err := s.orders.FindOrder(ctx, subOrder.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent order")
	}
	if order.IsCanceled {
		return nil
	}
	if err := s.checkWindow(order); err != nil {
		return err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	return s.cancelOne(ctx, order, subOrder)
}

// cancelOne refunds first, then mutates local state. A refund failure
// leaves the sub-order exactly as it was.
func (s *service) cancelOne(ctx context.Context, order *models.Order, subOrder *models.SubOrder) error {
	refundCents := 0
	if order.IsPaid {
		if order.Transaction == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "paid order missing transaction")
		}
		// item total only; order-level shipping and tax are not returned
		// on partial cancellation
		refundCents = subOrder.TotalAmountCents
		if refundCents > 0 {
			if _, err := s.gateway.Refund(ctx, payments.RefundInput{
				PaymentIntentID: order.Transaction.PaymentIntentID,
				AmountCents:     refundCents,
			}); err != nil {
				return err
			}
		}
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)

		ok, err := repo.UpdateSubOrderStatus(ctx, subOrder.ID, subOrder.Status,
			enums.SubOrderStatusCancelled, s.now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel sub-order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "sub-order changed concurrently")
		}

		if order.IsPaid {
			deltas := make([]inventory.Delta, 0, len(subOrder.Items))
			for _, item := range subOrder.Items {
				deltas = append(deltas, inventory.SaleDelta(item.ProductID, item.Qty).Negate())
			}
			if err := s.inventory.Apply(ctx, tx, deltas); err != nil {
				return err
			}
			if refundCents > 0 {
				if err := s.transactions.ApplyRefund(ctx, tx, order.Transaction.ID, refundCents); err != nil {
					return err
				}
			}
		}

		active, err := repo.CountActiveSubOrders(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active sub-orders")
		}
		if active == 0 {
			if err := repo.MarkOrderCanceled(ctx, order.ID, s.now().UTC()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order canceled")
			}
		}

		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"sub_order_id": subOrder.ID.String(),
			"refund_cents": refundCents,
		}), "sub-order canceled")
		return nil
	})
}

// checkWindow anchors the window on payment time; unpaid orders fall back
// to creation time since no money has moved yet.
func (s *service) checkWindow(order *models.Order) error {
	start := order.CreatedAt
	if order.IsPaid && order.PaidAt != nil {
		start = *order.PaidAt
	}
	if s.now().Sub(start) > s.window {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cancellation window has elapsed")
	}
	return nil
}
