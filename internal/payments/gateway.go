package payments

import (
	"context"

	"github.com/google/uuid"
)

// CheckoutItem is one display line sent to the payment processor.
type CheckoutItem struct {
	Name           string
	ImageURL       string
	Qty            int
	UnitPriceCents int
}

// CheckoutSessionInput carries everything needed to open a hosted
// payment session for an order.
type CheckoutSessionInput struct {
	OrderID    uuid.UUID
	UserID     uuid.UUID
	CartID     uuid.UUID
	UserEmail  string
	Currency   string
	Items      []CheckoutItem
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the processor-hosted session the buyer completes.
type CheckoutSession struct {
	ID  string
	URL string
}

// RefundInput identifies the payment and amount to return.
type RefundInput struct {
	PaymentIntentID string
	AmountCents     int
}

// Refund is the processor's confirmation of a completed refund.
type Refund struct {
	ID          string
	AmountCents int
}

// TransferInput moves funds to a seller's connected account. The
// idempotency key makes retried transfers safe.
type TransferInput struct {
	DestinationAccountID string
	AmountCents          int
	Currency             string
	IdempotencyKey       string
	Description          string
}

// Transfer is the processor's confirmation of a completed transfer.
type Transfer struct {
	ID          string
	AmountCents int
}

// Gateway is the processor boundary. Every call is synchronous and
// confirmed; callers must not mutate local state before the call returns.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error)
	Refund(ctx context.Context, input RefundInput) (*Refund, error)
	Transfer(ctx context.Context, input TransferInput) (*Transfer, error)
	IsTransferActive(ctx context.Context, accountID string) (bool, error)
}
