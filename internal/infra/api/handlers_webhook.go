package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"dreams-membership/internal/domain"
	"dreams-membership/internal/infra/logging"
	"dreams-membership/internal/infra/metrics"
)

const (
	maxWebhookBody  = 1 << 20
	signatureHeader = "Stripe-Signature"
)

type webhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { metrics.ObserveWebhook(time.Since(start)) }()
	l := logging.With(r.Context(), s.log)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		metrics.IncWebhookEvent("", "rejected")
		l.Warn().Err(err).Msg("webhook body unreadable")
		writeError(w, r, http.StatusBadRequest, "invalid payload")
		return
	}

	ev, outcome, err := s.webhook.Process(r.Context(), payload, r.Header.Get(signatureHeader))
	eventType := ""
	if ev != nil {
		eventType = string(ev.Type)
	}
	switch {
	case errors.Is(err, domain.ErrSignature):
		metrics.IncWebhookEvent(eventType, "rejected")
		writeError(w, r, http.StatusBadRequest, "invalid signature")
	case errors.Is(err, domain.ErrMalformedEvent):
		metrics.IncWebhookEvent(eventType, "rejected")
		writeError(w, r, http.StatusBadRequest, "malformed event")
	case err != nil:
		// not applied; a 5xx makes the provider redeliver
		metrics.IncWebhookEvent(eventType, "error")
		l.Error().Err(err).Str("type", eventType).Msg("webhook processing failed")
		writeError(w, r, http.StatusInternalServerError, "processing failed")
	default:
		metrics.IncWebhookEvent(eventType, string(outcome))
		writeJSON(w, r, http.StatusOK, webhookResponse{Received: true, Outcome: string(outcome)})
	}
}
