package model

import "time"

// AdminGrant is an operator-issued access override. It is managed outside this
// service; the membership core only reads it.
type AdminGrant struct {
	ID        string
	UserID    string
	Active    bool
	ExpiresAt *time.Time // calendar date; nil means no expiry
	Notes     string
	CreatedAt time.Time
}

// IsValid reports whether the grant is active and its expiry date is today or
// later. Dates are compared in UTC at day granularity.
func (g *AdminGrant) IsValid(now time.Time) bool {
	if g == nil || !g.Active {
		return false
	}
	if g.ExpiresAt == nil {
		return true
	}
	return !truncateDay(*g.ExpiresAt).Before(truncateDay(now))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
