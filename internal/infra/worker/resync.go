package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"dreams-membership/internal/domain/ports/repository"
	"dreams-membership/internal/usecase"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

const resyncPageSize = 200

// ResyncResult summarises one run of ResyncAll.
type ResyncResult struct {
	Users   int
	Synced  int64
	Failed  int64
	Members int64
}

// Resyncer recomputes the cached member flag for every profile.
type Resyncer struct {
	profiles    repository.ProfileRepository
	entitlement usecase.EntitlementUseCase
	tm          repository.TransactionManager
	workers     int
	log         *zerolog.Logger
}

func NewResyncer(
	profiles repository.ProfileRepository,
	entitlement usecase.EntitlementUseCase,
	tm repository.TransactionManager,
	workers int,
	logger *zerolog.Logger,
) *Resyncer {
	rl := logger.With().Str("component", "Resyncer").Logger()
	return &Resyncer{profiles: profiles, entitlement: entitlement, tm: tm, workers: workers, log: &rl}
}

// SyncUser recomputes one user's flag in its own transaction.
func (r *Resyncer) SyncUser(ctx context.Context, userID string) (bool, error) {
	var member bool
	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		member, err = r.entitlement.SyncFlag(ctx, tx, userID)
		return err
	})
	return member, err
}

// ResyncAll pages through profiles and syncs each user on the pool. A failed
// user is logged and counted; the run continues.
func (r *Resyncer) ResyncAll(ctx context.Context) (ResyncResult, error) {
	pool := NewPool(r.workers, r.log)
	pool.Start(ctx)

	var res ResyncResult
	var members atomic.Int64

	after := ""
	var listErr error
	for {
		ids, err := r.profiles.ListUserIDs(ctx, repository.NoTX, after, resyncPageSize)
		if err != nil {
			listErr = fmt.Errorf("list profiles after %q: %w", after, err)
			break
		}
		for _, id := range ids {
			userID := id
			err := pool.Submit(ctx, func(ctx context.Context) error {
				member, err := r.SyncUser(ctx, userID)
				if err != nil {
					return fmt.Errorf("sync %s: %w", userID, err)
				}
				if member {
					members.Add(1)
				}
				return nil
			})
			if err != nil {
				listErr = err
				break
			}
			res.Users++
		}
		if listErr != nil || len(ids) < resyncPageSize {
			break
		}
		after = ids[len(ids)-1]
	}

	res.Synced, res.Failed = pool.Close()
	res.Members = members.Load()
	r.log.Info().
		Int("users", res.Users).
		Int64("synced", res.Synced).
		Int64("failed", res.Failed).
		Int64("members", res.Members).
		Msg("entitlement resync finished")
	return res, listErr
}
