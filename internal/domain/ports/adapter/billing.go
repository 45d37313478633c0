package adapter

import (
	"context"

	"dreams-membership/internal/domain/model"
)

// BillingProvider is the hex port for the payment processor. Failures are
// returned as *domain.UpstreamError.
type BillingProvider interface {
	Name() string

	// CreateCustomer registers a provider-side customer and returns its id.
	// userID is stored as provider metadata for later reconciliation.
	CreateCustomer(ctx context.Context, email, userID string) (customerID string, err error)
	// CreateCheckoutSession opens a hosted checkout and returns the session id
	// the client needs to resume it.
	CreateCheckoutSession(ctx context.Context, req model.CheckoutRequest) (sessionID string, err error)
	// CreatePortalSession opens the hosted billing-management page.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (url string, err error)
}

// EventVerifier authenticates a raw webhook delivery and decodes it.
// It returns domain.ErrSignature or domain.ErrMalformedEvent on failure.
type EventVerifier interface {
	VerifyEvent(payload []byte, signature string) (*model.BillingEvent, error)
}
