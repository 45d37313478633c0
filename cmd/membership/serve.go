package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dreams-membership/internal/infra/api"
	"dreams-membership/internal/infra/metrics"
	"dreams-membership/internal/infra/payment"
	red "dreams-membership/internal/infra/redis"
	"dreams-membership/internal/infra/sched"
	"dreams-membership/internal/usecase"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service and the grant sweeper",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	metrics.MustRegister()
	metrics.SetBuildInfo(Version, GitCommit)

	// ---- Billing provider ----
	gateway := payment.NewStripeGateway(cfg.Billing.SecretKey, cfg.Billing.Timeout)
	verifier := payment.NewStripeEventVerifier(cfg.Billing.WebhookSecret)

	plans := plansFromConfig(cfg.Billing.Plans)
	checkoutUC := usecase.NewCheckoutUseCase(a.customers, a.users, gateway, a.locker(), usecase.CheckoutConfig{
		SuccessURL:      cfg.Billing.SuccessURL,
		CancelURL:       cfg.Billing.CancelURL,
		PortalReturnURL: cfg.Billing.PortalReturnURL,
		Currency:        cfg.Billing.Currency,
		DonationName:    cfg.Billing.DonationName,
		Plans:           plans,
		Dev:             cfg.Runtime.Dev,
	}, a.log)
	webhookUC := usecase.NewWebhookUseCase(verifier, a.customers, a.entitlement, a.tm, cfg.Runtime.Dev, a.log)

	// ---- HTTP ----
	var limiter api.RateLimiter
	if a.redis != nil {
		limiter = red.NewRateLimiter(a.redis)
	}
	auth := api.NewAuthManager(cfg.Auth.Secret, cfg.Auth.CookieName, !cfg.Runtime.Dev, cfg.Auth.TTL)
	srv := api.NewServer(checkoutUC, webhookUC, a.entitlement, a.profileUC, auth, limiter, api.Options{
		PublishableKey: cfg.Billing.PublishableKey,
		Plans:          plans,
		SelectURL:      cfg.Billing.CancelURL,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		CheckoutLimit:  cfg.RateLimit.CheckoutLimit,
		CheckoutWindow: cfg.RateLimit.CheckoutWindow,
	}, a.log)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	sweeper := sched.NewGrantSweeper(cfg.Scheduler.GrantSweepInterval, a.grants, a.entitlement, a.tm, nil, a.log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.log.Info().Msg("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				st := a.pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	})

	err = g.Wait()
	a.log.Info().Err(err).Msg("membership service stopped")
	return err
}
