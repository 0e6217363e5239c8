package mocks

import (
	"context"

	"docingest/internal/model"
	"docingest/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Begin(ctx context.Context) (repository.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Tx), args.Error(1)
}

func (m *MockStore) FindDocument(ctx context.Context, kind model.Kind, id int64) (*model.DocumentRecord, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockStore) FindUser(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockStore) FindShareToken(ctx context.Context, token string) (*model.ShareToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareToken), args.Error(1)
}

func (m *MockStore) ListSharedPrescriptions(ctx context.Context, userID int64) ([]model.SharedPrescription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SharedPrescription), args.Error(1)
}

func (m *MockStore) ListSharedReports(ctx context.Context, userID int64) ([]model.SharedReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SharedReport), args.Error(1)
}
