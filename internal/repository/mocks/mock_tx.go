package mocks

import (
	"context"

	"docingest/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockTx struct {
	mock.Mock
}

func (m *MockTx) LockDocument(ctx context.Context, kind model.Kind, id int64) (*model.DocumentRecord, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockTx) CreateDocument(ctx context.Context, kind model.Kind, ownerID int64, fields model.DocumentFields) (*model.DocumentRecord, error) {
	args := m.Called(ctx, kind, ownerID, fields)
	if f, ok := args.Get(0).(func(context.Context, model.Kind, int64, model.DocumentFields) *model.DocumentRecord); ok {
		return f(ctx, kind, ownerID, fields), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockTx) AddImage(ctx context.Context, kind model.Kind, img *model.ImageRecord) error {
	args := m.Called(ctx, kind, img)
	return args.Error(0)
}

func (m *MockTx) SoftDeleteImages(ctx context.Context, kind model.Kind, ids []int64) error {
	args := m.Called(ctx, kind, ids)
	return args.Error(0)
}

func (m *MockTx) SoftDeleteDocument(ctx context.Context, kind model.Kind, id int64) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}

func (m *MockTx) SetProfileImage(ctx context.Context, userID int64, path string) error {
	args := m.Called(ctx, userID, path)
	return args.Error(0)
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}
