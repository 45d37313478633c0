//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"dreams-membership/internal/domain"
	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/adapter"
	"dreams-membership/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func strPtr(s string) *string { return &s }

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

// =============================
// Repositories
// =============================

// ---- In-memory CustomerRepository ----

type memCustomerRepo struct {
	mu     sync.Mutex
	byUser map[string]*model.CustomerRecord
	seq    int

	UpdateStatusErr error
}

var _ repository.CustomerRepository = (*memCustomerRepo)(nil)

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{byUser: map[string]*model.CustomerRecord{}}
}

func (m *memCustomerRepo) GetOrCreate(ctx context.Context, tx repository.Tx, userID string) (*model.CustomerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.byUser[userID]; ok {
		cp := *rec
		return &cp, nil
	}
	m.seq++
	rec, err := model.NewCustomerRecord(fmt.Sprintf("cr-%d", m.seq), userID)
	if err != nil {
		return nil, err
	}
	m.byUser[userID] = rec
	cp := *rec
	return &cp, nil
}

func (m *memCustomerRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.CustomerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memCustomerRepo) FindByExternalCustomerID(ctx context.Context, tx repository.Tx, customerID string) (*model.CustomerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.byUser {
		if customerID != "" && rec.ExternalCustomerID == customerID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCustomerRepo) AssignExternalCustomerID(ctx context.Context, tx repository.Tx, userID, customerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byUser[userID]
	if !ok {
		return "", domain.ErrNotFound
	}
	if rec.ExternalCustomerID == "" {
		rec.ExternalCustomerID = customerID
	}
	return rec.ExternalCustomerID, nil
}

func (m *memCustomerRepo) UpdateStatus(ctx context.Context, tx repository.Tx, userID string, status model.SubscriptionStatus, subscriptionID *string, periodEnd *time.Time) error {
	if m.UpdateStatusErr != nil {
		return m.UpdateStatusErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byUser[userID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Status = status
	if subscriptionID != nil {
		s := *subscriptionID
		rec.ExternalSubscriptionID = &s
	}
	if periodEnd != nil {
		t := *periodEnd
		rec.CurrentPeriodEnd = &t
	}
	return nil
}

// seed stores a record directly, bypassing GetOrCreate.
func (m *memCustomerRepo) seed(userID, customerID string, status model.SubscriptionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.byUser[userID] = &model.CustomerRecord{
		ID:                 fmt.Sprintf("cr-%d", m.seq),
		UserID:             userID,
		ExternalCustomerID: customerID,
		Status:             status,
	}
}

func (m *memCustomerRepo) get(userID string) *model.CustomerRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byUser[userID]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

// ---- In-memory AdminGrantRepository ----

type memGrantRepo struct {
	byUser map[string]*model.AdminGrant
}

var _ repository.AdminGrantRepository = (*memGrantRepo)(nil)

func newMemGrantRepo() *memGrantRepo { return &memGrantRepo{byUser: map[string]*model.AdminGrant{}} }

func (m *memGrantRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.AdminGrant, error) {
	g, ok := m.byUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *memGrantRepo) ListUsersExpiredBetween(ctx context.Context, tx repository.Tx, from, to time.Time) ([]string, error) {
	var out []string
	for uid, g := range m.byUser {
		if g.Active && g.ExpiresAt != nil && !g.ExpiresAt.Before(from) && g.ExpiresAt.Before(to) {
			out = append(out, uid)
		}
	}
	return out, nil
}

// ---- In-memory ProfileRepository ----

type memProfileRepo struct {
	mu       sync.Mutex
	byUser   map[string]*model.UserProfile
	setCalls int

	SetPatronErr error
}

var _ repository.ProfileRepository = (*memProfileRepo)(nil)

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{byUser: map[string]*model.UserProfile{}}
}

func (m *memProfileRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfileRepo) Create(ctx context.Context, tx repository.Tx, p *model.UserProfile) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUser[p.UserID]; ok {
		return false, nil
	}
	cp := *p
	m.byUser[p.UserID] = &cp
	return true, nil
}

func (m *memProfileRepo) SetPatron(ctx context.Context, tx repository.Tx, userID string, isPatron bool) error {
	if m.SetPatronErr != nil {
		return m.SetPatronErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	p, ok := m.byUser[userID]
	if !ok {
		p = &model.UserProfile{UserID: userID}
		m.byUser[userID] = p
	}
	p.IsPatron = isPatron
	p.UpdatedAt = time.Now()
	return nil
}

func (m *memProfileRepo) ListUserIDs(ctx context.Context, tx repository.Tx, after string, limit int) ([]string, error) {
	return nil, nil
}

func (m *memProfileRepo) flag(userID string) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byUser[userID]
	if !ok {
		return false, false
	}
	return p.IsPatron, true
}

// ---- In-memory UserRepository ----

type memUserRepo struct {
	byID map[string]*model.User
}

var _ repository.UserRepository = (*memUserRepo)(nil)

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

// ---- TransactionManager ----

type noTx struct{}

type mockTxManager struct{ calls int }

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.calls++
	return fn(ctx, noTx{})
}

// =============================
// Adapters
// =============================

// ---- Mock BillingProvider ----

type mockBilling struct {
	mu sync.Mutex

	CreateCustomerFunc        func(ctx context.Context, email, userID string) (string, error)
	CreateCheckoutSessionFunc func(ctx context.Context, req model.CheckoutRequest) (string, error)
	CreatePortalSessionFunc   func(ctx context.Context, customerID, returnURL string) (string, error)

	customerCalls int
	sessionCalls  int
	portalCalls   int
	lastRequest   model.CheckoutRequest
	lastUserID    string
}

var _ adapter.BillingProvider = (*mockBilling)(nil)

func (m *mockBilling) Name() string { return "mock" }

func (m *mockBilling) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	m.mu.Lock()
	m.customerCalls++
	m.lastUserID = userID
	n := m.customerCalls
	m.mu.Unlock()
	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, email, userID)
	}
	return fmt.Sprintf("cus_%d", n), nil
}

func (m *mockBilling) CreateCheckoutSession(ctx context.Context, req model.CheckoutRequest) (string, error) {
	m.mu.Lock()
	m.sessionCalls++
	m.lastRequest = req
	m.mu.Unlock()
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, req)
	}
	return "cs_test_1", nil
}

func (m *mockBilling) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	m.mu.Lock()
	m.portalCalls++
	m.mu.Unlock()
	if m.CreatePortalSessionFunc != nil {
		return m.CreatePortalSessionFunc(ctx, customerID, returnURL)
	}
	return "https://billing.example/session/" + customerID, nil
}

func (m *mockBilling) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.customerCalls + m.sessionCalls + m.portalCalls
}

// ---- Mock EventVerifier ----

type mockVerifier struct {
	VerifyFunc func(payload []byte, signature string) (*model.BillingEvent, error)
}

var _ adapter.EventVerifier = (*mockVerifier)(nil)

func (m *mockVerifier) VerifyEvent(payload []byte, signature string) (*model.BillingEvent, error) {
	return m.VerifyFunc(payload, signature)
}

// verifierFor accepts any signature and returns ev.
func verifierFor(ev *model.BillingEvent) *mockVerifier {
	return &mockVerifier{VerifyFunc: func([]byte, string) (*model.BillingEvent, error) {
		cp := *ev
		return &cp, nil
	}}
}

// ---- Mock Locker ----

type mockLocker struct {
	mu       sync.Mutex
	held     map[string]string
	TryErr   error
	locks    int
	unlocked int
}

var _ adapter.Locker = (*mockLocker)(nil)

func (m *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.TryErr != nil {
		return "", m.TryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held == nil {
		m.held = map[string]string{}
	}
	m.locks++
	tok := fmt.Sprintf("tok-%d", m.locks)
	m.held[key] = tok
	return tok, nil
}

func (m *mockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] == token {
		delete(m.held, key)
		m.unlocked++
	}
	return nil
}
