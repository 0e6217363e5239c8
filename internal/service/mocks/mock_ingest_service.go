package mocks

import (
	"context"
	"io"

	"docingest/internal/service"
	"docingest/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) IngestNewDocument(ctx context.Context, req service.NewDocumentRequest) (*service.IngestResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

func (m *MockIngestService) IngestAppendImages(ctx context.Context, req service.AppendRequest) (*service.AppendResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AppendResult), args.Error(1)
}

func (m *MockIngestService) SharedDocuments(ctx context.Context, token string) (*service.SharedResult, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SharedResult), args.Error(1)
}

func (m *MockIngestService) UploadProfileImage(ctx context.Context, req service.ProfileRequest) (*service.ProfileResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProfileResult), args.Error(1)
}

func (m *MockIngestService) OpenFile(ctx context.Context, token, publicPath string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, token, publicPath)
	var rc io.ReadCloser
	if v := args.Get(0); v != nil {
		rc = v.(io.ReadCloser)
	}
	return rc, args.Get(1).(storage.ObjectInfo), args.Error(2)
}
