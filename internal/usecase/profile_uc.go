package usecase

import (
	"context"

	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ ProfileUseCase = (*profileUC)(nil)

// ProfileUseCase provisions the profile row that carries the member flag.
// Account creation calls ProvisionProfile explicitly and inspects the result.
type ProfileUseCase interface {
	ProvisionProfile(ctx context.Context, userID string) (p *model.UserProfile, created bool, err error)
}

type profileUC struct {
	profiles    repository.ProfileRepository
	entitlement EntitlementUseCase
	tm          repository.TransactionManager
	log         *zerolog.Logger
}

func NewProfileUseCase(profiles repository.ProfileRepository, entitlement EntitlementUseCase, tm repository.TransactionManager, logger *zerolog.Logger) *profileUC {
	pl := logger.With().Str("component", "ProfileUC").Logger()
	return &profileUC{profiles: profiles, entitlement: entitlement, tm: tm, log: &pl}
}

func (u *profileUC) ProvisionProfile(ctx context.Context, userID string) (*model.UserProfile, bool, error) {
	p, err := model.NewUserProfile(userID)
	if err != nil {
		return nil, false, err
	}

	var created bool
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		created, err = u.profiles.Create(ctx, tx, p)
		if err != nil {
			return err
		}
		// A grant may already exist for the account; start from the real answer.
		p.IsPatron, err = u.entitlement.SyncFlag(ctx, tx, userID)
		return err
	})
	if err != nil {
		u.log.Error().Err(err).Str("user_id", userID).Msg("profile provisioning failed")
		return nil, false, err
	}
	return p, created, nil
}
