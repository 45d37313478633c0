package repository

import (
	"context"
	"time"

	"dreams-membership/internal/domain/model"
)

// -----------------------------
// Customer records
// -----------------------------

// CustomerRepository stores at most one CustomerRecord per user.
type CustomerRepository interface {
	// GetOrCreate returns the user's record, inserting an inactive one if none
	// exists. Concurrent calls for the same user create at most one row.
	GetOrCreate(ctx context.Context, tx Tx, userID string) (*model.CustomerRecord, error)
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.CustomerRecord, error)
	// FindByExternalCustomerID is the only way webhook events find their user.
	FindByExternalCustomerID(ctx context.Context, tx Tx, customerID string) (*model.CustomerRecord, error)
	// AssignExternalCustomerID sets the provider customer id if the record has
	// none yet and returns the id that is stored afterwards.
	AssignExternalCustomerID(ctx context.Context, tx Tx, userID, customerID string) (string, error)
	// UpdateStatus overwrites status unconditionally. subscriptionID and
	// periodEnd are only written when non-nil.
	UpdateStatus(ctx context.Context, tx Tx, userID string, status model.SubscriptionStatus, subscriptionID *string, periodEnd *time.Time) error
}
