package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"docingest/internal/model"
	"docingest/internal/repository"
)

// Store is a PostgreSQL implementation of repository.Store.
// It uses database/sql with parameterized queries and contains no business logic.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ repository.Store = (*Store)(nil)

// Begin starts a read-committed transaction.
func (s *Store) Begin(ctx context.Context) (repository.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// FindDocument fetches a non-deleted document header.
func (s *Store) FindDocument(ctx context.Context, kind model.Kind, id int64) (*model.DocumentRecord, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT id, user_id, created_at FROM %s WHERE id = $1 AND deleted = FALSE`, t.docs)

	d := model.DocumentRecord{Kind: kind}
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.OwnerID, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// FindUser fetches a member's profile row.
func (s *Store) FindUser(ctx context.Context, id int64) (*model.User, error) {
	const q = `SELECT user_id, profile_image_url FROM users WHERE user_id = $1`
	var (
		u   model.User
		url sql.NullString
	)
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &url); err != nil {
		return nil, err
	}
	if url.Valid {
		u.ProfileImageURL = &url.String
	}
	return &u, nil
}

// FindShareToken fetches a share token row.
func (s *Store) FindShareToken(ctx context.Context, token string) (*model.ShareToken, error) {
	const q = `SELECT token, user_id, expires_at FROM token WHERE token = $1`
	var st model.ShareToken
	if err := s.db.QueryRowContext(ctx, q, token).Scan(&st.Token, &st.UserID, &st.ExpiresAt); err != nil {
		return nil, err
	}
	return &st, nil
}
