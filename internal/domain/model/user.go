package model

import (
	"time"

	"dreams-membership/internal/domain"
)

// User is the local account as far as membership is concerned.
type User struct {
	ID       string
	Username string
	Email    string
	JoinedAt time.Time
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

// UserProfile holds the denormalised membership flag read by the rest of the
// site. IsPatron is a projection of the entitlement decision and is rewritten
// whenever a webhook changes the subscription status.
type UserProfile struct {
	UserID    string
	IsPatron  bool
	UpdatedAt time.Time
}

func NewUserProfile(userID string) (*UserProfile, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &UserProfile{UserID: userID, UpdatedAt: time.Now()}, nil
}
