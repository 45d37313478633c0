//go:build !integration

package sched_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/repository"
	"dreams-membership/internal/infra/sched"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

type listCall struct{ from, to time.Time }

type mockGrantRepo struct {
	ListFunc func(from, to time.Time) ([]string, error)
	calls    []listCall
}

func (m *mockGrantRepo) FindByUserID(context.Context, repository.Tx, string) (*model.AdminGrant, error) {
	return nil, nil
}

func (m *mockGrantRepo) ListUsersExpiredBetween(_ context.Context, _ repository.Tx, from, to time.Time) ([]string, error) {
	m.calls = append(m.calls, listCall{from, to})
	if m.ListFunc != nil {
		return m.ListFunc(from, to)
	}
	return nil, nil
}

type mockEntitlement struct {
	SyncFlagFunc func(userID string) (bool, error)
	synced       []string
}

func (m *mockEntitlement) Resolve(_ context.Context, userID string) (model.Entitlement, error) {
	return model.Entitlement{UserID: userID}, nil
}

func (m *mockEntitlement) IsMember(context.Context, string) (bool, error)       { return false, nil }
func (m *mockEntitlement) CachedIsMember(context.Context, string) (bool, error) { return false, nil }

func (m *mockEntitlement) SyncFlag(_ context.Context, _ repository.Tx, userID string) (bool, error) {
	m.synced = append(m.synced, userID)
	if m.SyncFlagFunc != nil {
		return m.SyncFlagFunc(userID)
	}
	return false, nil
}

type mockTxManager struct{ calls int }

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.calls++
	return fn(ctx, nil)
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func newSweeper(grants *mockGrantRepo, ent *mockEntitlement, tm *mockTxManager, now *time.Time) *sched.GrantSweeper {
	logger := zerolog.New(io.Discard)
	return sched.NewGrantSweeper(time.Hour, grants, ent, tm, func() time.Time { return *now }, &logger)
}

func TestGrantSweeper_FirstSweepCoversYesterday(t *testing.T) {
	// Arrange
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	grants := &mockGrantRepo{ListFunc: func(from, to time.Time) ([]string, error) {
		return []string{"u1", "u2"}, nil
	}}
	ent := &mockEntitlement{}
	tm := &mockTxManager{}
	w := newSweeper(grants, ent, tm, &now)

	// Act
	n, err := w.Sweep(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 synced, got %d", n)
	}
	if len(grants.calls) != 1 {
		t.Fatalf("expected one list call, got %d", len(grants.calls))
	}
	if got := grants.calls[0]; !got.from.Equal(day(2026, 3, 9)) || !got.to.Equal(day(2026, 3, 10)) {
		t.Fatalf("unexpected window [%v, %v)", got.from, got.to)
	}
	if len(ent.synced) != 2 || tm.calls != 2 {
		t.Fatalf("expected each user synced in its own tx, synced=%v txs=%d", ent.synced, tm.calls)
	}
}

func TestGrantSweeper_SameDaySkipsAndNextDayAdvances(t *testing.T) {
	now := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	grants := &mockGrantRepo{}
	w := newSweeper(grants, &mockEntitlement{}, &mockTxManager{}, &now)

	if _, err := w.Sweep(context.Background()); err != nil {
		t.Fatalf("first sweep: %v", err)
	}

	now = now.Add(5 * time.Hour)
	if _, err := w.Sweep(context.Background()); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(grants.calls) != 1 {
		t.Fatalf("same-day sweep should not query, got %d calls", len(grants.calls))
	}

	// two days later: the window covers both missed days
	now = time.Date(2026, 3, 12, 0, 5, 0, 0, time.UTC)
	if _, err := w.Sweep(context.Background()); err != nil {
		t.Fatalf("third sweep: %v", err)
	}
	if len(grants.calls) != 2 {
		t.Fatalf("expected 2 list calls, got %d", len(grants.calls))
	}
	if got := grants.calls[1]; !got.from.Equal(day(2026, 3, 10)) || !got.to.Equal(day(2026, 3, 12)) {
		t.Fatalf("unexpected window [%v, %v)", got.from, got.to)
	}
}

func TestGrantSweeper_FailureKeepsWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	grants := &mockGrantRepo{ListFunc: func(from, to time.Time) ([]string, error) {
		return []string{"u1", "u2", "u3"}, nil
	}}
	boom := errors.New("db down")
	ent := &mockEntitlement{SyncFlagFunc: func(userID string) (bool, error) {
		if userID == "u2" {
			return false, boom
		}
		return true, nil
	}}
	w := newSweeper(grants, ent, &mockTxManager{}, &now)

	n, err := w.Sweep(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected sync error, got %v", err)
	}
	if n != 2 {
		t.Fatalf("other users should still be synced, got %d", n)
	}

	// retry the same window on the next run
	ent.SyncFlagFunc = nil
	if _, err := w.Sweep(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(grants.calls) != 2 || !grants.calls[1].from.Equal(day(2026, 3, 9)) {
		t.Fatalf("expected retry of the same window, calls=%v", grants.calls)
	}
}

func TestGrantSweeper_ListError(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	boom := errors.New("query failed")
	grants := &mockGrantRepo{ListFunc: func(from, to time.Time) ([]string, error) { return nil, boom }}
	ent := &mockEntitlement{}
	w := newSweeper(grants, ent, &mockTxManager{}, &now)

	if _, err := w.Sweep(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected list error, got %v", err)
	}
	if len(ent.synced) != 0 {
		t.Fatalf("nothing should be synced, got %v", ent.synced)
	}
}

func TestGrantSweeper_RunStopsOnCancel(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	grants := &mockGrantRepo{}
	w := newSweeper(grants, &mockEntitlement{}, &mockTxManager{}, &now)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Run(ctx)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(grants.calls) != 1 {
		t.Fatalf("expected the startup sweep to run once, got %d", len(grants.calls))
	}
}
