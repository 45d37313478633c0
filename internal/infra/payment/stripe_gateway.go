package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"dreams-membership/internal/domain"
	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/adapter"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var _ adapter.BillingProvider = (*StripeGateway)(nil)

// StripeGateway implements BillingProvider with an explicitly constructed
// Stripe client. Nothing here touches the package-level stripe.Key.
type StripeGateway struct {
	createCustomer        func(params *stripe.CustomerParams) (*stripe.Customer, error)
	createCheckoutSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	createPortalSession   func(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
}

// NewStripeGateway builds a gateway whose outbound calls are bounded by timeout.
func NewStripeGateway(secretKey string, timeout time.Duration) *StripeGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	sc := client.New(strings.TrimSpace(secretKey), stripe.NewBackends(httpClient))
	return &StripeGateway{
		createCustomer:        sc.Customers.New,
		createCheckoutSession: sc.CheckoutSessions.New,
		createPortalSession:   sc.BillingPortalSessions.New,
	}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	const op = "stripe.CreateCustomer"
	if err := ctx.Err(); err != nil {
		return "", &domain.UpstreamError{Op: op, Err: err}
	}
	params := &stripe.CustomerParams{}
	params.Context = ctx
	if email = strings.TrimSpace(email); email != "" {
		params.Email = stripe.String(email)
	}
	params.AddMetadata("user_id", userID)

	cust, err := g.createCustomer(params)
	if err != nil {
		return "", upstream(op, err)
	}
	return cust.ID, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req model.CheckoutRequest) (string, error) {
	const op = "stripe.CreateCheckoutSession"
	if err := ctx.Err(); err != nil {
		return "", &domain.UpstreamError{Op: op, Err: err}
	}

	item := &stripe.CheckoutSessionLineItemParams{Quantity: stripe.Int64(max(req.Item.Quantity, 1))}
	mode := stripe.CheckoutSessionModeSubscription
	if req.Mode == model.CheckoutModePayment {
		mode = stripe.CheckoutSessionModePayment
		item.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(req.Item.Currency),
			UnitAmount: stripe.Int64(req.Item.UnitAmount),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(req.Item.ProductName),
			},
		}
	} else {
		item.Price = stripe.String(req.Item.PriceID)
	}

	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(req.CustomerID),
		Mode:               stripe.String(string(mode)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          []*stripe.CheckoutSessionLineItemParams{item},
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	params.Context = ctx

	session, err := g.createCheckoutSession(params)
	if err != nil {
		return "", upstream(op, err)
	}
	return session.ID, nil
}

func (g *StripeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	const op = "stripe.CreatePortalSession"
	if err := ctx.Err(); err != nil {
		return "", &domain.UpstreamError{Op: op, Err: err}
	}
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	session, err := g.createPortalSession(params)
	if err != nil {
		return "", upstream(op, err)
	}
	return session.URL, nil
}

// upstream keeps Stripe's own message when the API answered with an error
// body, and the transport error text otherwise.
func upstream(op string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.Msg != "" {
		return &domain.UpstreamError{Op: op, Msg: serr.Msg, Err: err}
	}
	return &domain.UpstreamError{Op: op, Msg: err.Error(), Err: err}
}
