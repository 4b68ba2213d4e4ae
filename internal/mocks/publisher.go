package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type IdempotencyStoreMock struct {
	mock.Mock
}

func (m *IdempotencyStoreMock) PutNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

type BroadcastSinkMock struct {
	mock.Mock
}

func (m *BroadcastSinkMock) Broadcast(chatID int, payload []byte) {
	m.Called(chatID, payload)
}

type BusSinkMock struct {
	mock.Mock
}

func (m *BusSinkMock) Publish(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}
