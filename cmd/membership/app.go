package main

import (
	"context"
	"fmt"

	"dreams-membership/internal/config"
	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/adapter"
	"dreams-membership/internal/domain/ports/repository"
	"dreams-membership/internal/infra/db/postgres"
	"dreams-membership/internal/infra/logging"
	red "dreams-membership/internal/infra/redis"
	"dreams-membership/internal/usecase"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

// app holds the wiring shared by every command.
type app struct {
	cfg   *config.Config
	log   *zerolog.Logger
	pool  *pgxpool.Pool
	redis red.RedisClient // nil when redis is not configured

	tm        repository.TransactionManager
	customers repository.CustomerRepository
	grants    repository.AdminGrantRepository
	profiles  repository.ProfileRepository
	users     repository.UserRepository

	entitlement usecase.EntitlementUseCase
	profileUC   usecase.ProfileUseCase
}

func loadConfig() (*config.Config, *zerolog.Logger, error) {
	cfg, err := config.LoadConfig(cfgPath, devMode)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	return cfg, logging.New(cfg.Log, cfg.Runtime.Dev), nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	// ---- Postgres ----
	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	a := &app{cfg: cfg, log: logger, pool: pool}

	// ---- Redis (optional) ----
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = rc
	} else {
		logger.Warn().Msg("redis not configured; running without flag cache, checkout lock and rate limit")
	}

	// ---- Repositories ----
	a.tm = postgres.NewTxManager(pool)
	a.customers = postgres.NewPostgresCustomerRepo(pool)
	a.grants = postgres.NewPostgresAdminGrantRepo(pool)
	a.users = postgres.NewPostgresUserRepo(pool)
	a.profiles = postgres.NewPostgresProfileRepo(pool)
	if a.redis != nil {
		a.profiles = postgres.NewProfileRepoCacheDecorator(a.profiles, a.redis, cfg.Redis.TTL, logger)
	}

	// ---- Use cases ----
	a.entitlement = usecase.NewEntitlementUseCase(a.customers, a.grants, a.profiles, nil, logger)
	a.profileUC = usecase.NewProfileUseCase(a.profiles, a.entitlement, a.tm, logger)
	return a, nil
}

func (a *app) locker() adapter.Locker {
	if a.redis == nil {
		return nil
	}
	return red.NewLocker(a.redis)
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("redis close")
		}
	}
	a.pool.Close()
}

func plansFromConfig(in []config.PlanConfig) []model.Plan {
	out := make([]model.Plan, 0, len(in))
	for _, p := range in {
		out = append(out, model.Plan{Name: p.Name, PriceID: p.PriceID, Amount: p.Amount})
	}
	return out
}
