package model

import "time"

type BillingEventType string

const (
	EventCheckoutCompleted   BillingEventType = "checkout.session.completed"
	EventSubscriptionUpdated BillingEventType = "customer.subscription.updated"
	EventSubscriptionDeleted BillingEventType = "customer.subscription.deleted"
)

// BillingEvent is a verified provider notification reduced to the fields the
// membership state machine reads.
type BillingEvent struct {
	ID               string
	Type             BillingEventType
	CustomerID       string
	SubscriptionID   string
	Mode             CheckoutMode       // checkout events only
	Status           SubscriptionStatus // subscription events only
	CurrentPeriodEnd *time.Time
	Created          time.Time
}

// WebhookOutcome is the result of processing one delivery.
type WebhookOutcome string

const (
	WebhookApplied  WebhookOutcome = "applied"
	WebhookIgnored  WebhookOutcome = "ignored"
	WebhookNoRecord WebhookOutcome = "no_record"
)
