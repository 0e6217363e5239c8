// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres). No business logic here;
// missing rows are reported as sql.ErrNoRows.
package repository

import (
	"context"

	"docingest/internal/model"
)

// Store is the read side plus the transaction factory.
type Store interface {
	// Begin starts a transaction. Every write goes through a Tx.
	Begin(ctx context.Context) (Tx, error)

	// FindDocument returns the non-deleted document of kind with id, without images.
	FindDocument(ctx context.Context, kind model.Kind, id int64) (*model.DocumentRecord, error)

	// FindUser returns the member with id.
	FindUser(ctx context.Context, id int64) (*model.User, error)

	// FindShareToken returns the share token row for token.
	FindShareToken(ctx context.Context, token string) (*model.ShareToken, error)

	// ListSharedPrescriptions returns the member's shared, non-deleted
	// prescriptions with their non-deleted images, oldest first.
	ListSharedPrescriptions(ctx context.Context, userID int64) ([]model.SharedPrescription, error)

	// ListSharedReports returns the member's shared, non-deleted reports with
	// their non-deleted images, oldest first.
	ListSharedReports(ctx context.Context, userID int64) ([]model.SharedReport, error)
}

// Tx is one database transaction. After Commit or Rollback it must not be used;
// Rollback after Commit is a no-op.
type Tx interface {
	// LockDocument locks the non-deleted document of kind with id until the
	// transaction ends, so it cannot be soft-deleted underneath the caller.
	LockDocument(ctx context.Context, kind model.Kind, id int64) (*model.DocumentRecord, error)

	// CreateDocument inserts a document row with only the present fields set
	// and returns its id and creation time.
	CreateDocument(ctx context.Context, kind model.Kind, ownerID int64, fields model.DocumentFields) (*model.DocumentRecord, error)

	// AddImage inserts an image row for img.DocumentID and fills img.ID and img.CreatedAt.
	AddImage(ctx context.Context, kind model.Kind, img *model.ImageRecord) error

	// SoftDeleteImages flags the given image rows as deleted.
	SoftDeleteImages(ctx context.Context, kind model.Kind, ids []int64) error

	// SoftDeleteDocument flags a document row as deleted.
	SoftDeleteDocument(ctx context.Context, kind model.Kind, id int64) error

	// SetProfileImage replaces the member's profile image path. An empty
	// path clears it.
	SetProfileImage(ctx context.Context, userID int64, path string) error

	Commit() error
	Rollback() error
}
