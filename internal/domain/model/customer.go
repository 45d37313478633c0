package model

import (
	"time"

	"dreams-membership/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// GrantsAccess reports whether a subscription in this status entitles the
// customer to member content.
func (s SubscriptionStatus) GrantsAccess() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// CustomerRecord mirrors the billing provider's customer/subscription pair for
// one local user. ExternalCustomerID is assigned once, Status is overwritten by
// webhook events (last writer wins).
type CustomerRecord struct {
	ID                     string
	UserID                 string
	ExternalCustomerID     string // empty until the first checkout registers a customer
	ExternalSubscriptionID *string
	Status                 SubscriptionStatus
	CurrentPeriodEnd       *time.Time // informational only
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func NewCustomerRecord(id, userID string) (*CustomerRecord, error) {
	if id == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &CustomerRecord{
		ID:        id,
		UserID:    userID,
		Status:    SubscriptionStatusInactive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (c *CustomerRecord) IsZero() bool { return c == nil || c.ID == "" }

// HasExternalCustomer reports whether the provider-side customer exists.
func (c *CustomerRecord) HasExternalCustomer() bool {
	return c != nil && c.ExternalCustomerID != ""
}

// SubscriptionActive is false for a nil record.
func (c *CustomerRecord) SubscriptionActive() bool {
	return c != nil && c.Status.GrantsAccess()
}
