package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/merouaHba/EcommerceAPI/internal/payments"
	"github.com/merouaHba/EcommerceAPI/internal/sellers"
	"github.com/merouaHba/EcommerceAPI/pkg/db/models"
	"github.com/merouaHba/EcommerceAPI/pkg/logger"
	"github.com/merouaHba/EcommerceAPI/pkg/metrics"
)

const payoutJobName = "seller-payouts"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type payoutOrderRepo interface {
	FindPayableSubOrders(ctx context.Context) ([]models.SubOrder, error)
	ClaimSubOrderPayout(ctx context.Context, subOrderID uuid.UUID) (bool, error)
	ReleaseSubOrderPayout(ctx context.Context, subOrderID uuid.UUID) error
}

type transferGateway interface {
	Transfer(ctx context.Context, input payments.TransferInput) (*payments.Transfer, error)
	IsTransferActive(ctx context.Context, accountID string) (bool, error)
}

// PayoutJobParams configure the daily seller payout job.
type PayoutJobParams struct {
	Logger   *logger.Logger
	Orders   payoutOrderRepo
	Sellers  sellers.Repository
	Gateway  transferGateway
	DB       txRunner
	Metrics  *metrics.CronJobMetrics
	Currency string
}

// NewPayoutJob builds the job that transfers paid sub-order earnings
// to sellers.
func NewPayoutJob(params PayoutJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Sellers == nil {
		return nil, fmt.Errorf("sellers repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	currency := params.Currency
	if currency == "" {
		currency = "usd"
	}
	return &payoutJob{
		logg:     params.Logger,
		orders:   params.Orders,
		sellers:  params.Sellers,
		gateway:  params.Gateway,
		db:       params.DB,
		metrics:  params.Metrics,
		currency: currency,
		now:      time.Now,
	}, nil
}

type payoutJob struct {
	logg     *logger.Logger
	orders   payoutOrderRepo
	sellers  sellers.Repository
	gateway  transferGateway
	db       txRunner
	metrics  *metrics.CronJobMetrics
	currency string
	now      func() time.Time
}

func (j *payoutJob) Name() string { return payoutJobName }

// Run pays every eligible sub-order. One sub-order failing never blocks
// the rest; failures are combined and surfaced at the end.
func (j *payoutJob) Run(ctx context.Context) error {
	subOrders, err := j.orders.FindPayableSubOrders(ctx)
	if err != nil {
		return fmt.Errorf("list payable sub-orders: %w", err)
	}
	if len(subOrders) == 0 {
		j.logg.Info(ctx, "no sub-orders eligible for payout")
		return nil
	}

	var errs error
	for _, subOrder := range subOrders {
		if err := j.payOne(ctx, subOrder); err != nil {
			j.recordFailure()
			errs = multierr.Append(errs, fmt.Errorf("sub-order %s: %w", subOrder.ID, err))
		}
	}
	return errs
}

func (j *payoutJob) payOne(ctx context.Context, subOrder models.SubOrder) error {
	ctx = j.logg.WithSellerID(ctx, subOrder.SellerID.String())
	ctx = j.logg.WithField(ctx, "sub_order_id", subOrder.ID.String())

	seller, err := j.sellers.FindByID(ctx, subOrder.SellerID)
	if err != nil {
		return fmt.Errorf("load seller: %w", err)
	}
	if seller.StripeAccountID == nil || *seller.StripeAccountID == "" {
		j.logg.Warn(ctx, "seller has no payout account; skipping")
		return fmt.Errorf("seller %s has no payout account", seller.ID)
	}

	active, err := j.gateway.IsTransferActive(ctx, *seller.StripeAccountID)
	if err != nil {
		return fmt.Errorf("check transfer capability: %w", err)
	}
	if !active {
		j.logg.Warn(ctx, "seller transfers not active; skipping")
		return fmt.Errorf("transfers inactive for seller %s", seller.ID)
	}

	amount := subOrder.PayoutAmountCents()
	if amount <= 0 {
		j.logg.Warn(ctx, "sub-order has nothing to pay out")
		return nil
	}

	// claim before the transfer so a concurrent run cannot pay twice
	claimed, err := j.orders.ClaimSubOrderPayout(ctx, subOrder.ID)
	if err != nil {
		return fmt.Errorf("claim payout: %w", err)
	}
	if !claimed {
		j.logg.Info(ctx, "payout already claimed by another run")
		return nil
	}

	_, err = j.gateway.Transfer(ctx, payments.TransferInput{
		DestinationAccountID: *seller.StripeAccountID,
		AmountCents:          amount,
		Currency:             j.currency,
		IdempotencyKey:       fmt.Sprintf("payout-%s", subOrder.ID),
		Description:          fmt.Sprintf("payout for sub-order %s", subOrder.ID),
	})
	if err != nil {
		// give the claim back so the next run retries; the idempotency
		// key keeps a half-applied transfer from doubling
		if releaseErr := j.orders.ReleaseSubOrderPayout(ctx, subOrder.ID); releaseErr != nil {
			j.logg.Error(ctx, "release payout claim failed", releaseErr)
			return multierr.Combine(err, releaseErr)
		}
		return fmt.Errorf("transfer: %w", err)
	}

	err = j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return j.sellers.WithTx(tx).IncrementBalance(ctx, seller.ID, amount)
	})
	if err != nil {
		// transfer already happened; balance catch-up is log-and-alert
		j.logg.Error(ctx, "transfer sent but balance update failed", err)
		return fmt.Errorf("increment balance: %w", err)
	}

	if j.metrics != nil {
		j.metrics.AddPayout(payoutJobName, int64(amount))
	}
	j.logg.Info(j.logg.WithField(ctx, "amount_cents", amount), "seller payout complete")
	return nil
}

func (j *payoutJob) recordFailure() {
	if j.metrics != nil {
		j.metrics.IncPayoutFailure(payoutJobName)
	}
}
