package stripewebhook

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/merouaHba/EcommerceAPI/pkg/errors"
)

// CheckoutCompletedEvent is the validated payload of a completed checkout
// session. Amounts stay in minor units end to end.
type CheckoutCompletedEvent struct {
	EventID         string
	SessionID       string
	PaymentIntentID string
	OrderID         uuid.UUID
	UserID          uuid.UUID
	// CartID is optional; sessions created before carts carried metadata
	// fall back to the buyer's active cart.
	CartID      uuid.UUID
	AmountCents int
	Currency    string
}

// ParseCheckoutCompleted extracts and validates the fields reconciliation
// needs from a checkout.session.completed event.
func ParseCheckoutCompleted(event *stripe.Event) (*CheckoutCompletedEvent, error) {
	if event == nil || event.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}

	orderRaw, ok := session.Metadata["order_id"]
	if !ok || orderRaw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session missing order_id metadata")
	}
	orderID, err := uuid.Parse(orderRaw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id metadata")
	}

	userRaw := session.Metadata["user_id"]
	userID, err := uuid.Parse(userRaw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id metadata")
	}

	var cartID uuid.UUID
	if cartRaw := session.Metadata["cart_id"]; cartRaw != "" {
		cartID, err = uuid.Parse(cartRaw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart_id metadata")
		}
	}

	if session.PaymentIntent == nil || session.PaymentIntent.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session missing payment intent")
	}
	if session.AmountTotal < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "negative session amount")
	}

	return &CheckoutCompletedEvent{
		EventID:         event.ID,
		SessionID:       session.ID,
		PaymentIntentID: session.PaymentIntent.ID,
		OrderID:         orderID,
		UserID:          userID,
		CartID:          cartID,
		AmountCents:     int(session.AmountTotal),
		Currency:        string(session.Currency),
	}, nil
}
