package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"docingest/internal/auth"
	authMocks "docingest/internal/auth/mocks"
	"docingest/internal/model"
	repoMocks "docingest/internal/repository/mocks"
	"docingest/internal/storage"
	storeMocks "docingest/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func int64p(v int64) *int64 { return &v }

func TestNestReports(t *testing.T) {
	prescriptions := []model.SharedPrescription{{ID: 1}, {ID: 2}}
	reports := []model.SharedReport{
		{ID: 10, PrescriptionID: int64p(2)},
		{ID: 11},
		{ID: 12, PrescriptionID: int64p(99)}, // parent not shared
		{ID: 13, PrescriptionID: int64p(2)},
	}

	got := nestReports(prescriptions, reports)

	require.Len(t, got.Prescriptions, 2)
	assert.Empty(t, got.Prescriptions[0].Reports)
	assert.NotNil(t, got.Prescriptions[0].Reports)
	require.Len(t, got.Prescriptions[1].Reports, 2)
	assert.Equal(t, int64(10), got.Prescriptions[1].Reports[0].ID)
	assert.Equal(t, int64(13), got.Prescriptions[1].Reports[1].ID)
	require.Len(t, got.StandaloneReports, 1)
	assert.Equal(t, int64(11), got.StandaloneReports[0].ID)
}

func TestIngestService_SharedDocuments(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		token      string
		setupMocks func(mStore *repoMocks.MockStore)
		wantErr    error
	}{
		{
			name:  "valid token",
			token: "share-1",
			setupMocks: func(mStore *repoMocks.MockStore) {
				mStore.On("FindShareToken", mock.Anything, "share-1").
					Return(&model.ShareToken{Token: "share-1", UserID: 7, ExpiresAt: now.Add(time.Hour)}, nil)
				mStore.On("ListSharedPrescriptions", mock.Anything, int64(7)).
					Return([]model.SharedPrescription{{ID: 1, Images: []model.SharedImage{{ID: 3, DocumentID: 1}}}}, nil)
				mStore.On("ListSharedReports", mock.Anything, int64(7)).
					Return([]model.SharedReport{{ID: 5, PrescriptionID: int64p(1)}, {ID: 6}}, nil)
			},
		},
		{
			name:    "missing token",
			token:   "  ",
			wantErr: ErrValidation,
		},
		{
			name:  "unknown token",
			token: "nope",
			setupMocks: func(mStore *repoMocks.MockStore) {
				mStore.On("FindShareToken", mock.Anything, "nope").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrAuth,
		},
		{
			name:  "expired token",
			token: "old",
			setupMocks: func(mStore *repoMocks.MockStore) {
				mStore.On("FindShareToken", mock.Anything, "old").
					Return(&model.ShareToken{Token: "old", UserID: 7, ExpiresAt: now.Add(-time.Minute)}, nil)
			},
			wantErr: ErrAuth,
		},
		{
			name:  "listing fails",
			token: "share-1",
			setupMocks: func(mStore *repoMocks.MockStore) {
				mStore.On("FindShareToken", mock.Anything, "share-1").
					Return(&model.ShareToken{Token: "share-1", UserID: 7, ExpiresAt: now.Add(time.Hour)}, nil)
				mStore.On("ListSharedPrescriptions", mock.Anything, int64(7)).Return(nil, errors.New("db down"))
			},
			wantErr: ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(repoMocks.MockStore)
			if tt.setupMocks != nil {
				tt.setupMocks(mStore)
			}
			svc := newTestService(t, mStore, new(storeMocks.MockStorage), new(authMocks.MockAuthenticator), &fakeClassifier{}, nil)
			svc.now = func() time.Time { return now }

			res, err := svc.SharedDocuments(context.Background(), tt.token)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			uid, err := svc.tokens.VerifyFileToken(res.FileToken)
			require.NoError(t, err)
			assert.Equal(t, int64(7), uid)
			assert.Equal(t, now.Add(time.Hour), res.ExpiresAt)
			require.Len(t, res.Documents.Prescriptions, 1)
			require.Len(t, res.Documents.Prescriptions[0].Reports, 1)
			assert.Equal(t, int64(5), res.Documents.Prescriptions[0].Reports[0].ID)
			require.Len(t, res.Documents.StandaloneReports, 1)
			assert.Equal(t, int64(6), res.Documents.StandaloneReports[0].ID)
		})
	}
}

func TestIngestService_UploadProfileImage(t *testing.T) {
	img := model.ImageInput{Data: pngOf(t, 1), MediaType: "image/png", OriginalName: "me.png"}

	tests := []struct {
		name       string
		image      model.ImageInput
		setupMocks func(mStore *repoMocks.MockStore, mTx *repoMocks.MockTx, mFiles *storeMocks.MockStorage)
		wantErr    error
	}{
		{
			name:  "replaces previous picture",
			image: img,
			setupMocks: func(mStore *repoMocks.MockStore, mTx *repoMocks.MockTx, mFiles *storeMocks.MockStorage) {
				mStore.On("FindUser", mock.Anything, testMember).
					Return(&model.User{ID: testMember, ProfileImageURL: strp("/profiles/old.png")}, nil)
				stageOK(mFiles)
				mStore.On("Begin", mock.Anything).Return(mTx, nil)
				mTx.On("SetProfileImage", mock.Anything, testMember, mock.MatchedBy(func(p string) bool {
					return strings.HasPrefix(p, "/profiles/me-normalized-99-")
				})).Return(nil)
				mTx.On("Commit").Return(nil)
				mFiles.On("Promote", mock.Anything, mock.Anything).Return(nil)
				mFiles.On("Delete", mock.Anything, "profiles/old.png").Return(nil)
			},
		},
		{
			name:  "undecodable image",
			image: model.ImageInput{Data: []byte("text"), MediaType: "image/png", OriginalName: "me.png"},
			setupMocks: func(mStore *repoMocks.MockStore, mTx *repoMocks.MockTx, mFiles *storeMocks.MockStorage) {
				mStore.On("FindUser", mock.Anything, testMember).Return(&model.User{ID: testMember}, nil)
			},
			wantErr: ErrValidation,
		},
		{
			name:  "database update fails",
			image: img,
			setupMocks: func(mStore *repoMocks.MockStore, mTx *repoMocks.MockTx, mFiles *storeMocks.MockStorage) {
				mStore.On("FindUser", mock.Anything, testMember).Return(&model.User{ID: testMember}, nil)
				stageOK(mFiles)
				mStore.On("Begin", mock.Anything).Return(mTx, nil)
				mTx.On("SetProfileImage", mock.Anything, testMember, mock.Anything).Return(errors.New("db down"))
				mTx.On("Rollback").Return(nil)
				mFiles.On("Discard", mock.Anything, mock.Anything).Return(nil)
			},
			wantErr: ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(repoMocks.MockStore)
			mTx := new(repoMocks.MockTx)
			mFiles := new(storeMocks.MockStorage)
			tt.setupMocks(mStore, mTx, mFiles)
			svc := newTestService(t, mStore, mFiles, authOK(), &fakeClassifier{}, nil)

			res, err := svc.UploadProfileImage(context.Background(), ProfileRequest{
				Token:    testToken,
				MemberID: testMember,
				Image:    tt.image,
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				mFiles.AssertNotCalled(t, "Promote", mock.Anything, mock.Anything)
				mFiles.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(res.ProfileImageURL, "/profiles/"))
			mFiles.AssertExpectations(t)
			mTx.AssertExpectations(t)
		})
	}
}

func TestIngestService_OpenFile(t *testing.T) {
	mStore := new(repoMocks.MockStore)
	mFiles := new(storeMocks.MockStorage)
	svc := newTestService(t, mStore, mFiles, new(authMocks.MockAuthenticator), &fakeClassifier{}, nil)
	tokens := svc.tokens.(*auth.JWT)
	token, err := tokens.IssueFileToken(7, time.Minute)
	require.NoError(t, err)

	mFiles.On("Get", mock.Anything, "uploads/a.png").
		Return(io.NopCloser(strings.NewReader("png")), storage.ObjectInfo{Key: "uploads/a.png", Size: 3}, nil)
	mFiles.On("Get", mock.Anything, "uploads/gone.png").
		Return(nil, storage.ObjectInfo{}, storage.ErrNotFound)

	rc, info, err := svc.OpenFile(context.Background(), token, "/uploads/a.png")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, int64(3), info.Size)

	_, _, err = svc.OpenFile(context.Background(), token, "/uploads/gone.png")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = svc.OpenFile(context.Background(), token, "/secrets/key.pem")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = svc.OpenFile(context.Background(), token, "/uploads/.staging-0b1c-a.png")
	assert.ErrorIs(t, err, ErrNotFound)
	mFiles.AssertNotCalled(t, "Get", mock.Anything, "uploads/.staging-0b1c-a.png")

	_, _, err = svc.OpenFile(context.Background(), "garbage", "/uploads/a.png")
	assert.ErrorIs(t, err, ErrAuth)
}
