package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/repository"
	"dreams-membership/internal/infra/metrics"
	red "dreams-membership/internal/infra/redis"

	"github.com/rs/zerolog"
)

var _ repository.ProfileRepository = (*profileRepoCacheDecorator)(nil)

// profileRepoCacheDecorator caches the member flag read on every page view.
// Writes delete the key before the inner write and again once the
// transaction carrying the write has committed, so a reader that cached the
// old row in between is evicted.
type profileRepoCacheDecorator struct {
	inner repository.ProfileRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewProfileRepoCacheDecorator(inner repository.ProfileRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.ProfileRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &profileRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func profileKey(userID string) string { return "membership:profile:" + userID }

func (d *profileRepoCacheDecorator) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error) {
	key := profileKey(userID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var p model.UserProfile
		if json.Unmarshal([]byte(val), &p) == nil {
			metrics.IncCacheRequest("profile", "hit")
			return &p, nil
		}
	} else if !errors.Is(err, red.Nil) {
		d.log.Warn().Err(err).Str("key", key).Msg("profile cache read failed")
	}

	metrics.IncCacheRequest("profile", "miss")
	p, err := d.inner.FindByUserID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(p); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return p, nil
}

func (d *profileRepoCacheDecorator) Create(ctx context.Context, tx repository.Tx, p *model.UserProfile) (bool, error) {
	created, err := d.inner.Create(ctx, tx, p)
	if err == nil {
		d.invalidateAfterCommit(ctx, tx, p.UserID)
	}
	return created, err
}

func (d *profileRepoCacheDecorator) SetPatron(ctx context.Context, tx repository.Tx, userID string, isPatron bool) error {
	d.invalidate(ctx, userID)
	if err := d.inner.SetPatron(ctx, tx, userID, isPatron); err != nil {
		return err
	}
	d.invalidateAfterCommit(ctx, tx, userID)
	return nil
}

func (d *profileRepoCacheDecorator) ListUserIDs(ctx context.Context, tx repository.Tx, afterUserID string, limit int) ([]string, error) {
	return d.inner.ListUserIDs(ctx, tx, afterUserID, limit)
}

func (d *profileRepoCacheDecorator) invalidateAfterCommit(ctx context.Context, tx repository.Tx, userID string) {
	afterCommit(ctx, tx, func(ctx context.Context) { d.invalidate(ctx, userID) })
}

func (d *profileRepoCacheDecorator) invalidate(ctx context.Context, userID string) {
	if err := d.cache.Del(ctx, profileKey(userID)); err != nil {
		d.log.Warn().Err(err).Str("user_id", userID).Msg("profile cache invalidation failed")
	}
}
