package api

import (
	"html/template"
	"net/http"
	"time"

	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/infra/logging"
)

type customerView struct {
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
}

type selectResponse struct {
	PublishableKey string        `json:"publishable_key"`
	Plans          []model.Plan  `json:"plans"`
	Customer       *customerView `json:"customer"`
	IsMember       bool          `json:"is_member"`
}

// handleSelect returns what the plan-selection widget needs.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := logging.UserIDFrom(ctx)
	l := logging.With(ctx, s.log)

	rec, err := s.checkout.CustomerRecord(ctx, userID)
	if err != nil {
		l.Error().Err(err).Msg("load customer record failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	member, err := s.entitlement.CachedIsMember(ctx, userID)
	if err != nil {
		l.Error().Err(err).Msg("load member flag failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	resp := selectResponse{
		PublishableKey: s.opts.PublishableKey,
		Plans:          s.opts.Plans,
		IsMember:       member,
	}
	if resp.Plans == nil {
		resp.Plans = []model.Plan{}
	}
	if rec != nil {
		resp.Customer = &customerView{Status: string(rec.Status), CurrentPeriodEnd: rec.CurrentPeriodEnd}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

type statusResponse struct {
	IsMember           bool `json:"is_member"`
	SubscriptionActive bool `json:"subscription_active"`
	GrantValid         bool `json:"grant_valid"`
}

// handleStatus resolves from source records, bypassing the cached flag.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	e, err := s.entitlement.Resolve(ctx, logging.UserIDFrom(ctx))
	if err != nil {
		l := logging.With(ctx, s.log)
		l.Error().Err(err).Msg("resolve entitlement failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, r, http.StatusOK, statusResponse{
		IsMember:           e.IsMember(),
		SubscriptionActive: e.SubscriptionActive,
		GrantValid:         e.GrantValid,
	})
}

type profileResponse struct {
	UserID   string `json:"user_id"`
	IsPatron bool   `json:"is_patron"`
	Created  bool   `json:"created"`
}

// handleProvisionProfile is called by the signup flow; repeated calls are safe.
func (s *Server) handleProvisionProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, created, err := s.profiles.ProvisionProfile(ctx, logging.UserIDFrom(ctx))
	if err != nil {
		l := logging.With(ctx, s.log)
		l.Error().Err(err).Msg("provision profile failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, profileResponse{UserID: p.UserID, IsPatron: p.IsPatron, Created: created})
}

var successPage = template.Must(template.New("success").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Thank you</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.ok{color:#057a55}
.btn{display:inline-block;margin-top:16px;padding:10px 16px;border-radius:8px;border:1px solid #888;text-decoration:none}
</style>
</head>
<body>
<div class="card">
  <h2 class="ok">Thank you for your support!</h2>
  <p>Your payment went through. Membership perks appear as soon as the payment processor confirms it, usually within a minute.</p>
  <a class="btn" href="{{.}}">Manage membership</a>
</div>
</body>
</html>`))

func (s *Server) handleSuccess(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = successPage.Execute(w, s.opts.SelectURL)
}
