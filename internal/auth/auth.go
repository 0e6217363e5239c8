// Package auth verifies member access tokens and issues short-lived
// file-access tokens. Tokens are HS256 JWTs carrying a numeric userId claim.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"docingest/internal/model"
)

// ErrUnauthorized is returned for any token or member that does not check out.
// Callers must not reveal which check failed.
var ErrUnauthorized = errors.New("unauthorized")

// Identity is the verified caller.
type Identity struct {
	UserID   int64
	MemberID int64
}

// Authenticator verifies a caller acting on behalf of a member.
type Authenticator interface {
	Authenticate(ctx context.Context, token string, memberID int64) (*Identity, error)
}

// UserFinder looks members up. repository.Store satisfies it.
type UserFinder interface {
	FindUser(ctx context.Context, id int64) (*model.User, error)
}

type claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// JWT implements Authenticator with a shared HMAC secret.
type JWT struct {
	secret []byte
	users  UserFinder
	now    func() time.Time
}

// NewJWT returns a JWT authenticator. An empty secret is rejected.
func NewJWT(secret string, users UserFinder) (*JWT, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	return &JWT{secret: []byte(secret), users: users, now: time.Now}, nil
}

var _ Authenticator = (*JWT)(nil)

// Authenticate verifies token and that memberID names an existing member.
func (j *JWT) Authenticate(ctx context.Context, token string, memberID int64) (*Identity, error) {
	userID, err := j.verify(token)
	if err != nil {
		return nil, err
	}
	if memberID <= 0 {
		return nil, ErrUnauthorized
	}
	if _, err := j.users.FindUser(ctx, memberID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("auth: find member: %w", err)
	}
	return &Identity{UserID: userID, MemberID: memberID}, nil
}

// IssueFileToken signs a token for userID that expires after ttl.
func (j *JWT) IssueFileToken(userID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", ErrUnauthorized
	}
	now := j.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return t.SignedString(j.secret)
}

// VerifyFileToken returns the user a file-access token was issued for.
func (j *JWT) VerifyFileToken(token string) (int64, error) {
	return j.verify(token)
}

func (j *JWT) verify(token string) (int64, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return 0, ErrUnauthorized
	}
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil || c.UserID <= 0 {
		return 0, ErrUnauthorized
	}
	return c.UserID, nil
}
