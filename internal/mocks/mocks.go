package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"trinket-service/internal/domain"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, pattern string, data any) error {
	args := m.Called(ctx, pattern, data)
	return args.Error(0)
}

type MockProductCache struct {
	mock.Mock
}

func (m *MockProductCache) Get(ctx context.Context, id uint64) (*domain.Product, bool) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.Product), args.Bool(1)
}

func (m *MockProductCache) Version(ctx context.Context, id uint64) int64 {
	args := m.Called(ctx, id)
	return args.Get(0).(int64)
}

func (m *MockProductCache) Set(ctx context.Context, p *domain.Product, version int64) {
	m.Called(ctx, p, version)
}

func (m *MockProductCache) Invalidate(ctx context.Context, ids ...uint64) {
	m.Called(ctx, ids)
}
