package sched

import (
	"context"
	"time"

	"dreams-membership/internal/domain/ports/repository"
	"dreams-membership/internal/infra/metrics"
	"dreams-membership/internal/usecase"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// GrantSweeper recomputes the member flag of users whose admin grant lapsed
// since the previous sweep. Grant validity moves with the calendar, so
// nothing else would rewrite those flags.
type GrantSweeper struct {
	interval    time.Duration
	grants      repository.AdminGrantRepository
	entitlement usecase.EntitlementUseCase
	tm          repository.TransactionManager
	now         func() time.Time
	log         *zerolog.Logger

	// lastDay is the UTC day of the previous sweep; grants expiring on
	// [lastDay, today) became invalid in between.
	lastDay time.Time
}

func NewGrantSweeper(
	interval time.Duration,
	grants repository.AdminGrantRepository,
	entitlement usecase.EntitlementUseCase,
	tm repository.TransactionManager,
	clock func() time.Time,
	logger *zerolog.Logger,
) *GrantSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if clock == nil {
		clock = time.Now
	}
	sl := logger.With().Str("component", "GrantSweeper").Logger()
	return &GrantSweeper{
		interval:    interval,
		grants:      grants,
		entitlement: entitlement,
		tm:          tm,
		now:         clock,
		log:         &sl,
	}
}

func (w *GrantSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting grant sweeper")
	// Run once on startup to catch expiries missed while we were down.
	w.runSweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping grant sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.runSweep(ctx)
		}
	}
}

func (w *GrantSweeper) runSweep(ctx context.Context) {
	n, err := w.Sweep(ctx)
	if err != nil {
		metrics.IncGrantSweep("failed", n)
		w.log.Error().Err(err).Msg("grant sweep failed")
		return
	}
	metrics.IncGrantSweep("ok", n)
	if n > 0 {
		w.log.Info().Int("count", n).Msg("member flags recomputed for lapsed grants")
	}
}

// Sweep processes one window and returns how many flags were rewritten.
// The window only advances when every user in it was synced.
func (w *GrantSweeper) Sweep(ctx context.Context) (int, error) {
	today := utcDay(w.now())
	from := w.lastDay
	if from.IsZero() {
		from = today.AddDate(0, 0, -1)
	}
	if !from.Before(today) {
		return 0, nil
	}

	users, err := w.grants.ListUsersExpiredBetween(ctx, repository.NoTX, from, today)
	if err != nil {
		return 0, err
	}

	synced := 0
	var firstErr error
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		err := w.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			_, err := w.entitlement.SyncFlag(ctx, tx, userID)
			return err
		})
		if err != nil {
			w.log.Error().Err(err).Str("user_id", userID).Msg("sync member flag failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		synced++
	}
	if firstErr != nil {
		return synced, firstErr
	}
	w.lastDay = today
	return synced, nil
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
