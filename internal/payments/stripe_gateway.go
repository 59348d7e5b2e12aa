package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/account"
	"github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/refund"
	"github.com/stripe/stripe-go/v84/transfer"

	pkgerrors "github.com/merouaHba/EcommerceAPI/pkg/errors"
	"github.com/merouaHba/EcommerceAPI/pkg/logger"
	pkgstripe "github.com/merouaHba/EcommerceAPI/pkg/stripe"
)

const transferMaxRetries = 3

// StripeGateway implements Gateway on Stripe's hosted checkout,
// refunds, and Connect transfers.
type StripeGateway struct {
	client *pkgstripe.Client
	logg   *logger.Logger
}

// NewStripeGateway wires the gateway with an initialized Stripe client.
func NewStripeGateway(client *pkgstripe.Client, logg *logger.Logger) (*StripeGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &StripeGateway{client: client, logg: logg}, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout requires at least one item")
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(input.Items))
	for _, item := range input.Items {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{item.ImageURL})
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Qty)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(input.Currency),
				UnitAmount:  stripe.Int64(int64(item.UnitPriceCents)),
				ProductData: productData,
			},
		})
	}

	metadata := map[string]string{
		"order_id": input.OrderID.String(),
		"user_id":  input.UserID.String(),
	}
	if input.CartID != uuid.Nil {
		metadata["cart_id"] = input.CartID.String()
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(input.SuccessURL),
		CancelURL:  stripe.String(input.CancelURL),
		Metadata:   metadata,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	if input.UserEmail != "" {
		params.CustomerEmail = stripe.String(input.UserEmail)
	}

	callCtx, cancel := g.client.CallContext(ctx)
	defer cancel()
	params.Context = callCtx

	sess, err := session.New(params)
	if err != nil {
		return nil, wrapStripeErr(err, "create checkout session")
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, input RefundInput) (*Refund, error) {
	if input.PaymentIntentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	callCtx, cancel := g.client.CallContext(ctx)
	defer cancel()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(input.PaymentIntentID),
		Amount:        stripe.Int64(int64(input.AmountCents)),
	}
	params.Context = callCtx

	ref, err := refund.New(params)
	if err != nil {
		return nil, wrapStripeErr(err, "create refund")
	}
	// a refund counts only once the processor reports it succeeded;
	// pending and failed refunds must not unlock local mutations
	if ref.Status != stripe.RefundStatusSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("create refund: refund %s has status %s", ref.ID, ref.Status))
	}
	return &Refund{ID: ref.ID, AmountCents: int(ref.Amount)}, nil
}

// Transfer moves funds to a connected account. Retries are safe because
// the idempotency key pins the request to a single transfer at Stripe.
func (g *StripeGateway) Transfer(ctx context.Context, input TransferInput) (*Transfer, error) {
	if input.DestinationAccountID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination account required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer amount must be positive")
	}
	if input.IdempotencyKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key required")
	}

	var result *stripe.Transfer
	backoff := retry.WithMaxRetries(transferMaxRetries, retry.NewExponential(300*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := g.client.CallContext(ctx)
		defer cancel()

		params := &stripe.TransferParams{
			Amount:      stripe.Int64(int64(input.AmountCents)),
			Currency:    stripe.String(input.Currency),
			Destination: stripe.String(input.DestinationAccountID),
		}
		if input.Description != "" {
			params.Description = stripe.String(input.Description)
		}
		params.Context = callCtx
		params.SetIdempotencyKey(input.IdempotencyKey)

		tr, err := transfer.New(params)
		if err != nil {
			if isTransientStripeErr(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		result = tr
		return nil
	})
	if err != nil {
		return nil, wrapStripeErr(err, "create transfer")
	}
	return &Transfer{ID: result.ID, AmountCents: int(result.Amount)}, nil
}

func (g *StripeGateway) IsTransferActive(ctx context.Context, accountID string) (bool, error) {
	if accountID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}

	callCtx, cancel := g.client.CallContext(ctx)
	defer cancel()

	params := &stripe.AccountParams{}
	params.Context = callCtx

	acct, err := account.GetByID(accountID, params)
	if err != nil {
		return false, wrapStripeErr(err, "load connected account")
	}
	if acct.Capabilities == nil {
		return false, nil
	}
	return acct.Capabilities.Transfers == stripe.AccountCapabilityStatusActive, nil
}

func isTransientStripeErr(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= 500 {
			return true
		}
		return stripeErr.Code == stripe.ErrorCodeLockTimeout
	}
	// non-Stripe errors at this layer are transport failures
	return true
}

func wrapStripeErr(err error, action string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("%s: stripe %s", action, stripeErr.Code))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
