// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"dreams-membership/internal/domain"
	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/adapter"
	"dreams-membership/internal/domain/ports/repository"
	"dreams-membership/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// WebhookUseCase applies billing-provider notifications to customer records.
//
// Delivery is at-least-once and unordered. Every transition is a plain
// overwrite of the status column, so re-delivery is a no-op in effect; an
// older event arriving late can regress the status until the next event
// corrects it. There is no sequence check.
type WebhookUseCase interface {
	// Process verifies and applies one delivery. It returns
	// domain.ErrSignature or domain.ErrMalformedEvent for deliveries that must
	// be rejected; any other error means the event was not applied and should
	// be retried by the provider.
	Process(ctx context.Context, payload []byte, signature string) (*model.BillingEvent, model.WebhookOutcome, error)
}

type webhookUC struct {
	verifier    adapter.EventVerifier
	customers   repository.CustomerRepository
	entitlement EntitlementUseCase
	tm          repository.TransactionManager
	dev         bool
	log         *zerolog.Logger
}

func NewWebhookUseCase(
	verifier adapter.EventVerifier,
	customers repository.CustomerRepository,
	entitlement EntitlementUseCase,
	tm repository.TransactionManager,
	dev bool,
	logger *zerolog.Logger,
) *webhookUC {
	wl := logger.With().Str("component", "WebhookUC").Logger()
	return &webhookUC{
		verifier:    verifier,
		customers:   customers,
		entitlement: entitlement,
		tm:          tm,
		dev:         dev,
		log:         &wl,
	}
}

func (u *webhookUC) Process(ctx context.Context, payload []byte, signature string) (*model.BillingEvent, model.WebhookOutcome, error) {
	defer logging.TraceDuration(u.log, "WebhookUC.Process")()

	ev, err := u.verifier.VerifyEvent(payload, signature)
	if err != nil {
		u.log.Warn().Err(err).Msg("webhook rejected")
		return nil, "", err
	}
	l := u.log.With().Str("event_id", ev.ID).Str("type", string(ev.Type)).Logger()

	var outcome model.WebhookOutcome
	switch ev.Type {
	case model.EventCheckoutCompleted:
		if ev.Mode != model.CheckoutModeSubscription {
			// One-time payments never change subscription status.
			l.Info().Str("mode", string(ev.Mode)).Msg("checkout completed without subscription; ignored")
			return ev, model.WebhookIgnored, nil
		}
		var subID *string
		if s := strings.TrimSpace(ev.SubscriptionID); s != "" {
			subID = &s
		}
		outcome, err = u.apply(ctx, ev.CustomerID, model.SubscriptionStatusActive, subID, nil)

	case model.EventSubscriptionUpdated:
		if ev.Status == "" {
			return ev, "", domain.ErrMalformedEvent
		}
		outcome, err = u.apply(ctx, ev.CustomerID, ev.Status, nil, ev.CurrentPeriodEnd)

	case model.EventSubscriptionDeleted:
		outcome, err = u.apply(ctx, ev.CustomerID, model.SubscriptionStatusCanceled, nil, nil)

	default:
		l.Debug().Msg("unhandled event type; ignored")
		return ev, model.WebhookIgnored, nil
	}
	if err != nil {
		l.Error().Err(err).Str("customer", logging.Redact(ev.CustomerID, u.dev)).Msg("webhook apply failed")
		return ev, "", err
	}
	l.Info().Str("customer", logging.Redact(ev.CustomerID, u.dev)).Str("outcome", string(outcome)).Msg("webhook processed")
	return ev, outcome, nil
}

// apply overwrites the status of the record linked to customerID and
// recomputes the member flag in the same transaction.
func (u *webhookUC) apply(ctx context.Context, customerID string, status model.SubscriptionStatus, subID *string, periodEnd *time.Time) (model.WebhookOutcome, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return model.WebhookNoRecord, nil
	}

	outcome := model.WebhookApplied
	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		rec, err := u.customers.FindByExternalCustomerID(ctx, tx, customerID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				outcome = model.WebhookNoRecord
				return nil
			}
			return err
		}
		if err := u.customers.UpdateStatus(ctx, tx, rec.UserID, status, subID, periodEnd); err != nil {
			return err
		}
		_, err = u.entitlement.SyncFlag(ctx, tx, rec.UserID)
		return err
	})
	return outcome, err
}
