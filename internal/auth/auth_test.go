package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docingest/internal/model"
)

type userFinder struct{ mock.Mock }

func (m *userFinder) FindUser(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func sign(t *testing.T, secret string, c jwt.Claims, method jwt.SigningMethod) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, c).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWT_Authenticate(t *testing.T) {
	valid := claims{UserID: 42, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	expired := claims{UserID: 42, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}}

	tests := []struct {
		name       string
		token      func(t *testing.T) string
		memberID   int64
		setupMocks func(u *userFinder)
		wantErr    bool
		wantUnauth bool
	}{
		{
			name:     "valid token and member",
			token:    func(t *testing.T) string { return sign(t, "s3cret", valid, jwt.SigningMethodHS256) },
			memberID: 7,
			setupMocks: func(u *userFinder) {
				u.On("FindUser", mock.Anything, int64(7)).Return(&model.User{ID: 7}, nil)
			},
		},
		{
			name:       "bearer prefix accepted",
			token:      func(t *testing.T) string { return "Bearer " + sign(t, "s3cret", valid, jwt.SigningMethodHS256) },
			memberID:   7,
			setupMocks: func(u *userFinder) { u.On("FindUser", mock.Anything, int64(7)).Return(&model.User{ID: 7}, nil) },
		},
		{
			name:       "wrong secret",
			token:      func(t *testing.T) string { return sign(t, "other", valid, jwt.SigningMethodHS256) },
			memberID:   7,
			setupMocks: func(u *userFinder) {},
			wantErr:    true, wantUnauth: true,
		},
		{
			name:       "expired",
			token:      func(t *testing.T) string { return sign(t, "s3cret", expired, jwt.SigningMethodHS256) },
			memberID:   7,
			setupMocks: func(u *userFinder) {},
			wantErr:    true, wantUnauth: true,
		},
		{
			name:       "unexpected algorithm",
			token:      func(t *testing.T) string { return sign(t, "s3cret", valid, jwt.SigningMethodHS512) },
			memberID:   7,
			setupMocks: func(u *userFinder) {},
			wantErr:    true, wantUnauth: true,
		},
		{
			name:       "empty token",
			token:      func(t *testing.T) string { return "" },
			memberID:   7,
			setupMocks: func(u *userFinder) {},
			wantErr:    true, wantUnauth: true,
		},
		{
			name:     "unknown member",
			token:    func(t *testing.T) string { return sign(t, "s3cret", valid, jwt.SigningMethodHS256) },
			memberID: 8,
			setupMocks: func(u *userFinder) {
				u.On("FindUser", mock.Anything, int64(8)).Return(nil, sql.ErrNoRows)
			},
			wantErr: true, wantUnauth: true,
		},
		{
			name:     "member lookup failure is not an auth failure",
			token:    func(t *testing.T) string { return sign(t, "s3cret", valid, jwt.SigningMethodHS256) },
			memberID: 9,
			setupMocks: func(u *userFinder) {
				u.On("FindUser", mock.Anything, int64(9)).Return(nil, errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := new(userFinder)
			tt.setupMocks(u)
			a, err := NewJWT("s3cret", u)
			require.NoError(t, err)

			id, err := a.Authenticate(context.Background(), tt.token(t), tt.memberID)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantUnauth, errors.Is(err, ErrUnauthorized))
				assert.Nil(t, id)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(42), id.UserID)
				assert.Equal(t, tt.memberID, id.MemberID)
			}
			u.AssertExpectations(t)
		})
	}
}

func TestJWT_FileToken(t *testing.T) {
	a, err := NewJWT("s3cret", nil)
	require.NoError(t, err)

	tok, err := a.IssueFileToken(42, time.Minute)
	require.NoError(t, err)
	uid, err := a.VerifyFileToken(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)

	_, err = a.IssueFileToken(42, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)

	a.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = a.VerifyFileToken(tok)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestNewJWT_RequiresSecret(t *testing.T) {
	_, err := NewJWT("", nil)
	assert.Error(t, err)
}
