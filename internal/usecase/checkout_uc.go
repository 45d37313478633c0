// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dreams-membership/internal/domain"
	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/adapter"
	"dreams-membership/internal/domain/ports/repository"
	"dreams-membership/internal/infra/logging"
	"dreams-membership/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutConfig holds the fixed parameters of every checkout session.
type CheckoutConfig struct {
	SuccessURL      string
	CancelURL       string
	PortalReturnURL string
	Currency        string
	DonationName    string
	// Plans restricts accepted price ids when non-empty.
	Plans   []model.Plan
	LockTTL time.Duration
	// Dev logs provider ids in full.
	Dev bool
}

type CheckoutUseCase interface {
	// StartCheckout opens a provider checkout session for a plan or a custom
	// amount and returns the session id.
	StartCheckout(ctx context.Context, userID string, sel model.CheckoutSelection) (string, error)
	// PortalURL returns a billing-management URL for the user's customer.
	// It returns domain.ErrNoCustomer when no provider customer exists.
	PortalURL(ctx context.Context, userID string) (string, error)
	// CustomerRecord returns the user's record, or nil when none exists.
	CustomerRecord(ctx context.Context, userID string) (*model.CustomerRecord, error)
}

type checkoutUC struct {
	customers repository.CustomerRepository
	users     repository.UserRepository
	billing   adapter.BillingProvider
	locker    adapter.Locker // optional
	cfg       CheckoutConfig
	log       *zerolog.Logger
}

func NewCheckoutUseCase(
	customers repository.CustomerRepository,
	users repository.UserRepository,
	billing adapter.BillingProvider,
	locker adapter.Locker,
	cfg CheckoutConfig,
	logger *zerolog.Logger,
) *checkoutUC {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 15 * time.Second
	}
	cl := logger.With().Str("component", "CheckoutUC").Logger()
	return &checkoutUC{
		customers: customers,
		users:     users,
		billing:   billing,
		locker:    locker,
		cfg:       cfg,
		log:       &cl,
	}
}

func (u *checkoutUC) StartCheckout(ctx context.Context, userID string, sel model.CheckoutSelection) (string, error) {
	defer logging.TraceDuration(u.log, "CheckoutUC.StartCheckout")()

	if userID == "" {
		return "", domain.ErrInvalidArgument
	}
	if err := sel.Validate(); err != nil {
		return "", err
	}
	if sel.PriceID != "" && !u.knownPrice(sel.PriceID) {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidSelection, domain.ErrUnknownPlan)
	}

	rec, err := u.customers.GetOrCreate(ctx, repository.NoTX, userID)
	if err != nil {
		return "", fmt.Errorf("get or create customer record: %w", err)
	}
	customerID := rec.ExternalCustomerID
	if customerID == "" {
		customerID, err = u.ensureCustomer(ctx, userID)
		if err != nil {
			return "", err
		}
	}

	req := model.CheckoutRequest{
		CustomerID: customerID,
		Mode:       sel.Mode(),
		SuccessURL: u.cfg.SuccessURL,
		CancelURL:  u.cfg.CancelURL,
	}
	if req.Mode == model.CheckoutModeSubscription {
		req.Item = model.LineItem{PriceID: sel.PriceID, Quantity: 1}
	} else {
		req.Item = model.LineItem{
			UnitAmount:  sel.CustomAmount,
			Currency:    u.cfg.Currency,
			ProductName: u.cfg.DonationName,
			Quantity:    1,
		}
	}

	sessionID, err := u.billing.CreateCheckoutSession(ctx, req)
	if err != nil {
		u.log.Error().Err(err).Str("user_id", userID).Str("mode", string(req.Mode)).Msg("checkout session failed")
		metrics.IncCheckoutSession(string(req.Mode), "failed")
		return "", err
	}
	metrics.IncCheckoutSession(string(req.Mode), "created")
	u.log.Info().Str("user_id", userID).Str("mode", string(req.Mode)).Str("session_id", logging.Redact(sessionID, u.cfg.Dev)).Msg("checkout session created")
	return sessionID, nil
}

// ensureCustomer registers the provider customer under a per-user lock so two
// concurrent checkouts do not create two provider customers. The store keeps
// whichever id was assigned first.
func (u *checkoutUC) ensureCustomer(ctx context.Context, userID string) (string, error) {
	if u.locker != nil {
		key := "membership:customer:" + userID
		token, err := u.locker.TryLock(ctx, key, u.cfg.LockTTL)
		switch {
		case errors.Is(err, domain.ErrLockBusy):
			return "", fmt.Errorf("lock customer registration: %w", err)
		case err != nil:
			// AssignExternalCustomerID is write-once, so the lock only saves a
			// duplicate provider customer; a locker outage must not block payments.
			u.log.Warn().Err(err).Str("user_id", userID).Msg("customer lock unavailable; registering without it")
		default:
			defer func() {
				if err := u.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
					u.log.Warn().Err(err).Str("user_id", userID).Msg("failed to release customer lock")
				}
			}()
		}
	}

	// Re-read under the lock; another request may have won.
	rec, err := u.customers.FindByUserID(ctx, repository.NoTX, userID)
	if err != nil {
		return "", fmt.Errorf("reload customer record: %w", err)
	}
	if rec.HasExternalCustomer() {
		return rec.ExternalCustomerID, nil
	}

	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	created, err := u.billing.CreateCustomer(ctx, user.Email, userID)
	if err != nil {
		u.log.Error().Err(err).Str("user_id", userID).Msg("provider customer registration failed")
		return "", err
	}
	stored, err := u.customers.AssignExternalCustomerID(ctx, repository.NoTX, userID, created)
	if err != nil {
		return "", fmt.Errorf("persist customer id: %w", err)
	}
	if stored != created {
		u.log.Warn().
			Str("user_id", userID).
			Str("kept", logging.Redact(stored, u.cfg.Dev)).
			Str("orphaned", logging.Redact(created, u.cfg.Dev)).
			Msg("customer id already assigned; provider customer left unused")
	}
	return stored, nil
}

func (u *checkoutUC) knownPrice(priceID string) bool {
	if len(u.cfg.Plans) == 0 {
		return true
	}
	for _, p := range u.cfg.Plans {
		if p.PriceID == priceID {
			return true
		}
	}
	return false
}

func (u *checkoutUC) PortalURL(ctx context.Context, userID string) (string, error) {
	rec, err := u.customers.FindByUserID(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNoCustomer
		}
		return "", err
	}
	if !rec.HasExternalCustomer() {
		return "", domain.ErrNoCustomer
	}
	url, err := u.billing.CreatePortalSession(ctx, rec.ExternalCustomerID, u.cfg.PortalReturnURL)
	if err != nil {
		u.log.Error().Err(err).Str("user_id", userID).Msg("portal session failed")
		return "", err
	}
	return url, nil
}

func (u *checkoutUC) CustomerRecord(ctx context.Context, userID string) (*model.CustomerRecord, error) {
	rec, err := u.customers.FindByUserID(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}
