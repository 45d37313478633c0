package payment

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dreams-membership/internal/domain"
	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/adapter"

	"github.com/stripe/stripe-go/v82/webhook"
)

var _ adapter.EventVerifier = (*StripeEventVerifier)(nil)

// StripeEventVerifier checks the Stripe-Signature header against the shared
// signing secret, then decodes only the fields the membership state machine
// reads.
type StripeEventVerifier struct {
	secret    string
	tolerance time.Duration
}

func NewStripeEventVerifier(secret string) *StripeEventVerifier {
	return &StripeEventVerifier{secret: strings.TrimSpace(secret), tolerance: webhook.DefaultTolerance}
}

func (v *StripeEventVerifier) VerifyEvent(payload []byte, signature string) (*model.BillingEvent, error) {
	if v.secret == "" || strings.TrimSpace(signature) == "" {
		return nil, domain.ErrSignature
	}
	if err := webhook.ValidatePayloadWithTolerance(payload, signature, v.secret, v.tolerance); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSignature, err)
	}

	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", domain.ErrMalformedEvent)
	}

	ev := &model.BillingEvent{
		ID:      env.ID,
		Type:    model.BillingEventType(env.Type),
		Created: time.Unix(env.Created, 0).UTC(),
	}

	switch ev.Type {
	case model.EventCheckoutCompleted:
		var session CheckoutSession
		if err := decodeObject(env, &session); err != nil {
			return nil, err
		}
		ev.CustomerID = session.Customer
		ev.SubscriptionID = session.Subscription
		ev.Mode = model.CheckoutMode(session.Mode)

	case model.EventSubscriptionUpdated, model.EventSubscriptionDeleted:
		var sub Subscription
		if err := decodeObject(env, &sub); err != nil {
			return nil, err
		}
		ev.CustomerID = sub.Customer
		ev.SubscriptionID = sub.ID
		ev.Status = model.SubscriptionStatus(strings.TrimSpace(sub.Status))
		ev.CurrentPeriodEnd = sub.PeriodEnd()
	}
	return ev, nil
}

type eventEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

func decodeObject(env eventEnvelope, into any) error {
	if len(env.Data.Object) == 0 {
		return fmt.Errorf("%w: %s without data.object", domain.ErrMalformedEvent, env.Type)
	}
	if err := json.Unmarshal(env.Data.Object, into); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrMalformedEvent, env.Type, err)
	}
	return nil
}

// CheckoutSession is a minimal representation of a Stripe checkout.session object.
type CheckoutSession struct {
	ID           string            `json:"id"`
	Mode         string            `json:"mode"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// Subscription is a minimal representation of a Stripe subscription object.
type Subscription struct {
	ID               string `json:"id"`
	Customer         string `json:"customer"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
	Items            struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

// PeriodEnd reads current_period_end from the subscription, or from its first
// item on API versions that moved the field there.
func (s *Subscription) PeriodEnd() *time.Time {
	ts := s.CurrentPeriodEnd
	if ts == 0 {
		for _, it := range s.Items.Data {
			if it.CurrentPeriodEnd > 0 {
				ts = it.CurrentPeriodEnd
				break
			}
		}
	}
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
