package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendOTP(ctx context.Context, to, code string) error {
	args := m.Called(ctx, to, code)
	return args.Error(0)
}

func (m *mockMailer) SendWelcome(ctx context.Context, to, name string) error {
	args := m.Called(ctx, to, name)
	return args.Error(0)
}

type mockCooldown struct {
	mock.Mock
}

func (m *mockCooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockCooldown) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
