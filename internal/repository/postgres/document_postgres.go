package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"docingest/internal/model"
	"docingest/internal/repository"
)

// Tx is a PostgreSQL implementation of repository.Tx.
type Tx struct {
	tx *sql.Tx
}

var _ repository.Tx = (*Tx)(nil)

// LockDocument reads a live document header with FOR UPDATE.
func (t *Tx) LockDocument(ctx context.Context, kind model.Kind, id int64) (*model.DocumentRecord, error) {
	tbl, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT id, user_id, created_at FROM %s WHERE id = $1 AND deleted = FALSE FOR UPDATE`, tbl.docs)

	d := model.DocumentRecord{Kind: kind}
	if err := t.tx.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.OwnerID, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDocument inserts a document row. Absent fields are left out of the
// column list so that the table defaults apply.
func (t *Tx) CreateDocument(ctx context.Context, kind model.Kind, ownerID int64, fields model.DocumentFields) (*model.DocumentRecord, error) {
	tbl, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	cols := []string{"user_id"}
	args := []any{ownerID}
	add := func(col string, v any) {
		cols = append(cols, col)
		args = append(args, v)
	}
	if fields.Title != nil {
		add("title", *fields.Title)
	}
	if fields.Shared != nil {
		add("shared", *fields.Shared)
	}
	if fields.PrescriptionID != nil && kind == model.KindReport {
		add("prescription_id", *fields.PrescriptionID)
	}
	for _, f := range kind.Fields() {
		v, ok := fields.Values[f]
		if !ok {
			continue
		}
		add(tbl.columns[f], nullString(v))
	}

	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id, created_at`,
		tbl.docs, strings.Join(cols, ", "), strings.Join(marks, ", "))

	d := model.DocumentRecord{Kind: kind, OwnerID: ownerID, Fields: fields.Clone()}
	if err := t.tx.QueryRowContext(ctx, q, args...).Scan(&d.ID, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// AddImage inserts an image row.
func (t *Tx) AddImage(ctx context.Context, kind model.Kind, img *model.ImageRecord) error {
	tbl, err := tableFor(kind)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO %s (%s, normalized_path, thumbnail_path, fingerprint) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		tbl.images, tbl.imageFK)

	var fp *string
	if img.Fingerprint != "" {
		fp = &img.Fingerprint
	}
	return t.tx.QueryRowContext(ctx, q, img.DocumentID, img.NormalizedPath, img.ThumbnailPath, nullString(fp)).
		Scan(&img.ID, &img.CreatedAt)
}

// SoftDeleteImages flags image rows as deleted.
func (t *Tx) SoftDeleteImages(ctx context.Context, kind model.Kind, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tbl, err := tableFor(kind)
	if err != nil {
		return err
	}
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	q := fmt.Sprintf(`UPDATE %s SET deleted = TRUE WHERE id IN (%s)`, tbl.images, strings.Join(marks, ", "))
	_, err = t.tx.ExecContext(ctx, q, args...)
	return err
}

// SoftDeleteDocument flags a document row as deleted.
func (t *Tx) SoftDeleteDocument(ctx context.Context, kind model.Kind, id int64) error {
	tbl, err := tableFor(kind)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE %s SET deleted = TRUE WHERE id = $1`, tbl.docs)
	_, err = t.tx.ExecContext(ctx, q, id)
	return err
}

// SetProfileImage replaces users.profile_image_url. An empty path clears it.
func (t *Tx) SetProfileImage(ctx context.Context, userID int64, path string) error {
	const q = `UPDATE users SET profile_image_url = $1 WHERE user_id = $2`
	var v *string
	if path != "" {
		v = &path
	}
	res, err := t.tx.ExecContext(ctx, q, nullString(v), userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction. Rolling back a finished transaction is a no-op.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return err
	}
	return nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
