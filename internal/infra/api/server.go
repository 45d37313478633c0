package api

import (
	"context"
	"net/http"
	"time"

	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RateLimiter is satisfied by the redis fixed-window limiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Options struct {
	PublishableKey string
	Plans          []model.Plan
	// SelectURL is where portal requests without a customer are sent.
	SelectURL      string
	RequestTimeout time.Duration
	CheckoutLimit  int // per user per window; 0 disables
	CheckoutWindow time.Duration
}

// Server exposes the membership endpoints.
type Server struct {
	checkout    usecase.CheckoutUseCase
	webhook     usecase.WebhookUseCase
	entitlement usecase.EntitlementUseCase
	profiles    usecase.ProfileUseCase
	auth        *AuthManager
	limiter     RateLimiter // optional
	validate    *validator.Validate
	opts        Options
	log         *zerolog.Logger
}

func NewServer(
	checkout usecase.CheckoutUseCase,
	webhook usecase.WebhookUseCase,
	entitlement usecase.EntitlementUseCase,
	profiles usecase.ProfileUseCase,
	auth *AuthManager,
	limiter RateLimiter,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 20 * time.Second
	}
	if opts.CheckoutWindow <= 0 {
		opts.CheckoutWindow = time.Minute
	}
	if opts.SelectURL == "" {
		opts.SelectURL = "/membership/select/"
	}
	sl := logger.With().Str("component", "HTTPServer").Logger()
	return &Server{
		checkout:    checkout,
		webhook:     webhook,
		entitlement: entitlement,
		profiles:    profiles,
		auth:        auth,
		limiter:     limiter,
		validate:    validator.New(),
		opts:        opts,
		log:         &sl,
	}
}

// Router builds the HTTP handler. The webhook route is outside the session
// group: it authenticates by signature only.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.StripSlashes,
		Recover(s.log),
		TraceID(),
		RequestLog(s.log),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/membership", func(r chi.Router) {
		r.With(Timeout(s.opts.RequestTimeout)).Post("/webhook", s.handleWebhook)
		r.Get("/success", s.handleSuccess)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireUser, Timeout(s.opts.RequestTimeout))
			r.Post("/checkout", s.handleCheckout)
			r.Get("/portal", s.handlePortal)
			r.Get("/select", s.handleSelect)
			r.Get("/status", s.handleStatus)
			r.Post("/profile", s.handleProvisionProfile)
		})
	})
	return r
}
