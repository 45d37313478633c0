package repository

import (
	"context"

	"dreams-membership/internal/domain/model"
)

// -----------------------------
// Users and profiles
// -----------------------------

type UserRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
}

// ProfileRepository owns the denormalised membership flag.
type ProfileRepository interface {
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.UserProfile, error)
	// Create inserts a profile and reports false if one already existed.
	Create(ctx context.Context, tx Tx, p *model.UserProfile) (bool, error)
	// SetPatron upserts the flag, creating the profile when it is missing.
	SetPatron(ctx context.Context, tx Tx, userID string, isPatron bool) error
	// ListUserIDs pages through profiles ordered by user id.
	ListUserIDs(ctx context.Context, tx Tx, afterUserID string, limit int) ([]string, error)
}
