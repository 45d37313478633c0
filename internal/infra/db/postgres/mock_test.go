//go:build !integration

package postgres

import (
	"context"
	"time"

	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/repository"
	red "dreams-membership/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerProfileRepo mocks the database repository that the profile decorator wraps.
type mockInnerProfileRepo struct {
	FindByUserIDFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error)
	CreateFunc       func(ctx context.Context, tx repository.Tx, p *model.UserProfile) (bool, error)
	SetPatronFunc    func(ctx context.Context, tx repository.Tx, userID string, isPatron bool) error
	ListUserIDsFunc  func(ctx context.Context, tx repository.Tx, after string, limit int) ([]string, error)
}

func (m *mockInnerProfileRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error) {
	return m.FindByUserIDFunc(ctx, tx, userID)
}
func (m *mockInnerProfileRepo) Create(ctx context.Context, tx repository.Tx, p *model.UserProfile) (bool, error) {
	return m.CreateFunc(ctx, tx, p)
}
func (m *mockInnerProfileRepo) SetPatron(ctx context.Context, tx repository.Tx, userID string, isPatron bool) error {
	return m.SetPatronFunc(ctx, tx, userID, isPatron)
}
func (m *mockInnerProfileRepo) ListUserIDs(ctx context.Context, tx repository.Tx, after string, limit int) ([]string, error) {
	return m.ListUserIDsFunc(ctx, tx, after, limit)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	SetNXFunc  func(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return m.SetNXFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }
func (m *mockRedisClient) Close() error                   { return nil }
