package model

import "time"

// Entitlement is the breakdown behind a membership decision.
type Entitlement struct {
	UserID             string
	SubscriptionActive bool
	GrantValid         bool
}

// IsMember is the OR of both sources; neither can veto the other.
func (e Entitlement) IsMember() bool { return e.SubscriptionActive || e.GrantValid }

// ResolveEntitlement combines a customer record and an admin grant, either of
// which may be nil. It has no side effects.
func ResolveEntitlement(userID string, c *CustomerRecord, g *AdminGrant, now time.Time) Entitlement {
	return Entitlement{
		UserID:             userID,
		SubscriptionActive: c.SubscriptionActive(),
		GrantValid:         g.IsValid(now),
	}
}
