package mocks

import (
	"context"

	"docingest/internal/auth"

	"github.com/stretchr/testify/mock"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, token string, memberID int64) (*auth.Identity, error) {
	args := m.Called(ctx, token, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Identity), args.Error(1)
}
