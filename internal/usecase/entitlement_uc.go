// File: internal/usecase/entitlement_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"dreams-membership/internal/domain"
	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/repository"
	"dreams-membership/internal/infra/logging"
	"dreams-membership/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

// EntitlementUseCase answers "is this user an active member?" and keeps the
// denormalised profile flag in step with the answer.
type EntitlementUseCase interface {
	// Resolve reads both sources and returns the breakdown.
	Resolve(ctx context.Context, userID string) (model.Entitlement, error)
	// IsMember is Resolve(...).IsMember().
	IsMember(ctx context.Context, userID string) (bool, error)
	// CachedIsMember reads the profile flag and falls back to Resolve when
	// the user has no profile yet.
	CachedIsMember(ctx context.Context, userID string) (bool, error)
	// SyncFlag recomputes the decision and writes it to the profile,
	// creating the profile if it is missing.
	SyncFlag(ctx context.Context, tx repository.Tx, userID string) (bool, error)
}

type entitlementUC struct {
	customers repository.CustomerRepository
	grants    repository.AdminGrantRepository
	profiles  repository.ProfileRepository
	now       func() time.Time
	log       *zerolog.Logger
}

// NewEntitlementUseCase wires the resolver. clock may be nil.
func NewEntitlementUseCase(
	customers repository.CustomerRepository,
	grants repository.AdminGrantRepository,
	profiles repository.ProfileRepository,
	clock func() time.Time,
	logger *zerolog.Logger,
) *entitlementUC {
	if clock == nil {
		clock = time.Now
	}
	return &entitlementUC{
		customers: customers,
		grants:    grants,
		profiles:  profiles,
		now:       clock,
		log:       logger,
	}
}

func (u *entitlementUC) Resolve(ctx context.Context, userID string) (model.Entitlement, error) {
	return u.resolve(ctx, repository.NoTX, userID)
}

func (u *entitlementUC) IsMember(ctx context.Context, userID string) (bool, error) {
	defer logging.TraceDuration(u.log, "EntitlementUC.IsMember")()
	e, err := u.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	return e.IsMember(), nil
}

func (u *entitlementUC) CachedIsMember(ctx context.Context, userID string) (bool, error) {
	p, err := u.profiles.FindByUserID(ctx, repository.NoTX, userID)
	switch {
	case err == nil:
		return p.IsPatron, nil
	case errors.Is(err, domain.ErrNotFound):
		return u.IsMember(ctx, userID)
	default:
		return false, err
	}
}

func (u *entitlementUC) SyncFlag(ctx context.Context, tx repository.Tx, userID string) (bool, error) {
	defer logging.TraceDuration(u.log, "EntitlementUC.SyncFlag")()
	e, err := u.resolve(ctx, tx, userID)
	if err != nil {
		return false, err
	}
	member := e.IsMember()
	if err := u.profiles.SetPatron(ctx, tx, userID, member); err != nil {
		u.log.Error().Err(err).Str("user_id", userID).Msg("failed to write member flag")
		return false, err
	}
	metrics.IncFlagWrite(member)
	u.log.Debug().
		Str("user_id", userID).
		Bool("subscription_active", e.SubscriptionActive).
		Bool("grant_valid", e.GrantValid).
		Bool("is_member", member).
		Msg("member flag synced")
	return member, nil
}

func (u *entitlementUC) resolve(ctx context.Context, tx repository.Tx, userID string) (model.Entitlement, error) {
	if userID == "" {
		return model.Entitlement{}, domain.ErrInvalidArgument
	}
	rec, err := u.customers.FindByUserID(ctx, tx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return model.Entitlement{}, err
	}
	grant, err := u.grants.FindByUserID(ctx, tx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return model.Entitlement{}, err
	}
	return model.ResolveEntitlement(userID, rec, grant, u.now()), nil
}
