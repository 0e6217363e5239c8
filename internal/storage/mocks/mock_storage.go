package mocks

import (
	"context"
	"io"

	"docingest/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Stage(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.Staged, error) {
	args := m.Called(ctx, key, r, opt)
	if f, ok := args.Get(0).(func(context.Context, string, io.Reader, storage.PutObjectOptions) storage.Staged); ok {
		return f(ctx, key, r, opt), args.Error(1)
	}
	return args.Get(0).(storage.Staged), args.Error(1)
}

func (m *MockStorage) Promote(ctx context.Context, s storage.Staged) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStorage) Discard(ctx context.Context, s storage.Staged) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorage) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	var rc io.ReadCloser
	if v := args.Get(0); v != nil {
		rc = v.(io.ReadCloser)
	}
	return rc, args.Get(1).(storage.ObjectInfo), args.Error(2)
}
