//go:build !integration

package api

import (
	"context"
	"io"
	"time"

	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

type mockCheckout struct {
	StartCheckoutFunc  func(ctx context.Context, userID string, sel model.CheckoutSelection) (string, error)
	PortalURLFunc      func(ctx context.Context, userID string) (string, error)
	CustomerRecordFunc func(ctx context.Context, userID string) (*model.CustomerRecord, error)

	startCalls int
	lastUserID string
	lastSel    model.CheckoutSelection
}

func (m *mockCheckout) StartCheckout(ctx context.Context, userID string, sel model.CheckoutSelection) (string, error) {
	m.startCalls++
	m.lastUserID = userID
	m.lastSel = sel
	if m.StartCheckoutFunc != nil {
		return m.StartCheckoutFunc(ctx, userID, sel)
	}
	return "cs_test_1", nil
}

func (m *mockCheckout) PortalURL(ctx context.Context, userID string) (string, error) {
	if m.PortalURLFunc != nil {
		return m.PortalURLFunc(ctx, userID)
	}
	return "https://billing.example/p/1", nil
}

func (m *mockCheckout) CustomerRecord(ctx context.Context, userID string) (*model.CustomerRecord, error) {
	if m.CustomerRecordFunc != nil {
		return m.CustomerRecordFunc(ctx, userID)
	}
	return nil, nil
}

type mockWebhook struct {
	ProcessFunc func(ctx context.Context, payload []byte, signature string) (*model.BillingEvent, model.WebhookOutcome, error)

	calls         int
	lastPayload   []byte
	lastSignature string
}

func (m *mockWebhook) Process(ctx context.Context, payload []byte, signature string) (*model.BillingEvent, model.WebhookOutcome, error) {
	m.calls++
	m.lastPayload = payload
	m.lastSignature = signature
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, payload, signature)
	}
	return &model.BillingEvent{Type: model.EventSubscriptionUpdated}, model.WebhookApplied, nil
}

type mockEntitlement struct {
	ResolveFunc        func(ctx context.Context, userID string) (model.Entitlement, error)
	CachedIsMemberFunc func(ctx context.Context, userID string) (bool, error)
}

func (m *mockEntitlement) Resolve(ctx context.Context, userID string) (model.Entitlement, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, userID)
	}
	return model.Entitlement{UserID: userID}, nil
}

func (m *mockEntitlement) IsMember(ctx context.Context, userID string) (bool, error) {
	e, err := m.Resolve(ctx, userID)
	return e.IsMember(), err
}

func (m *mockEntitlement) CachedIsMember(ctx context.Context, userID string) (bool, error) {
	if m.CachedIsMemberFunc != nil {
		return m.CachedIsMemberFunc(ctx, userID)
	}
	return false, nil
}

func (m *mockEntitlement) SyncFlag(ctx context.Context, _ repository.Tx, userID string) (bool, error) {
	return m.IsMember(ctx, userID)
}

type mockProfiles struct {
	ProvisionFunc func(ctx context.Context, userID string) (*model.UserProfile, bool, error)
}

func (m *mockProfiles) ProvisionProfile(ctx context.Context, userID string) (*model.UserProfile, bool, error) {
	if m.ProvisionFunc != nil {
		return m.ProvisionFunc(ctx, userID)
	}
	return &model.UserProfile{UserID: userID}, true, nil
}

type mockLimiter struct {
	allow   bool
	err     error
	lastKey string
}

func (m *mockLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	m.lastKey = key
	return m.allow, m.err
}

func newLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
