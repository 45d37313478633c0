package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"dreams-membership/internal/domain"
	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/infra/logging"
	"dreams-membership/internal/infra/metrics"
	red "dreams-membership/internal/infra/redis"

	"github.com/go-playground/validator/v10"
)

const maxCheckoutBody = 64 << 10

// checkoutRequest carries exactly one of PriceID or CustomAmount.
type checkoutRequest struct {
	PriceID      string `json:"price_id" validate:"required_without=CustomAmount,excluded_with=CustomAmount"`
	CustomAmount int64  `json:"custom_amount" validate:"omitempty,gt=0"`
}

type checkoutResponse struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := logging.UserIDFrom(ctx)
	l := logging.With(ctx, s.log)

	if !s.allowCheckout(w, r, userID) {
		return
	}

	var req checkoutRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCheckoutBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeError(w, r, http.StatusBadRequest, "provide either price_id or a positive custom_amount")
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	sel := model.CheckoutSelection{PriceID: req.PriceID, CustomAmount: req.CustomAmount}
	sessionID, err := s.checkout.StartCheckout(ctx, userID, sel)
	if err != nil {
		status, msg := checkoutErrorStatus(err)
		if status >= http.StatusInternalServerError {
			l.Error().Err(err).Msg("checkout failed")
		}
		writeError(w, r, status, msg)
		return
	}
	writeJSON(w, r, http.StatusOK, checkoutResponse{SessionID: sessionID})
}

func (s *Server) allowCheckout(w http.ResponseWriter, r *http.Request, userID string) bool {
	if s.limiter == nil || s.opts.CheckoutLimit <= 0 {
		return true
	}
	ok, err := s.limiter.Allow(r.Context(), red.UserActionKey(userID, "checkout"), s.opts.CheckoutLimit, s.opts.CheckoutWindow)
	if err != nil {
		// fail open: a limiter outage must not block payments
		l := logging.With(r.Context(), s.log)
		l.Warn().Err(err).Msg("checkout rate limiter unavailable")
		return true
	}
	if !ok {
		writeError(w, r, http.StatusTooManyRequests, "too many checkout attempts, try again shortly")
		return false
	}
	return true
}

// checkoutErrorStatus maps use-case errors to a status and a client message.
func checkoutErrorStatus(err error) (int, string) {
	var upErr *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrUnknownPlan):
		return http.StatusBadRequest, "unknown plan"
	case errors.Is(err, domain.ErrInvalidSelection), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "provide either price_id or a positive custom_amount"
	case errors.As(err, &upErr) && upErr.Msg != "":
		return http.StatusBadGateway, upErr.Msg
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, "billing provider unavailable"
	case errors.Is(err, domain.ErrLockBusy):
		return http.StatusConflict, "a checkout is already being prepared, try again"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logging.With(ctx, s.log)

	url, err := s.checkout.PortalURL(ctx, logging.UserIDFrom(ctx))
	switch {
	case err == nil:
		metrics.IncPortalSession("redirected")
		http.Redirect(w, r, url, http.StatusFound)
	case errors.Is(err, domain.ErrNoCustomer):
		metrics.IncPortalSession("no_customer")
		http.Redirect(w, r, s.opts.SelectURL, http.StatusFound)
	default:
		metrics.IncPortalSession("failed")
		l.Error().Err(err).Msg("portal session failed; sending user to plan selection")
		http.Redirect(w, r, s.opts.SelectURL, http.StatusFound)
	}
}
