package mocks

import (
	"context"

	"docingest/internal/classifier"

	"github.com/stretchr/testify/mock"
)

type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Ask(ctx context.Context, q classifier.Query) (string, error) {
	args := m.Called(ctx, q)
	return args.String(0), args.Error(1)
}
