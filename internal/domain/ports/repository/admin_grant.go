package repository

import (
	"context"
	"time"

	"dreams-membership/internal/domain/model"
)

// AdminGrantRepository is read-only for the membership core; grants are
// written by operator tooling.
type AdminGrantRepository interface {
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.AdminGrant, error)
	// ListUsersExpiredBetween returns users whose active grant has an expiry
	// date in [from, to).
	ListUsersExpiredBetween(ctx context.Context, tx Tx, from, to time.Time) ([]string, error)
}
