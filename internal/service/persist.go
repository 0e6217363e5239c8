package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"docingest/internal/model"
	"docingest/internal/repository"
	"docingest/internal/storage"
)

const derivativeContentType = "image/png"

// errNotOwner marks a document locked inside the write transaction that no
// longer belongs to the uploading member.
var errNotOwner = errors.New("owner changed")

// target is where an accepted batch is written. A zero documentID means a
// new document is created from fields.
type target struct {
	kind       model.Kind
	memberID   int64
	documentID int64
	fields     model.DocumentFields
}

// persist writes an admitted batch. Derivatives are staged first, then the
// document and image rows are inserted in one transaction, and the staged
// files are promoted only once the transaction has committed. Any failure
// before the commit rolls the transaction back and discards every staged file.
//
// The work runs detached from ctx cancellation so a client that goes away
// cannot leave a half-written batch.
func (s *ingestService) persist(ctx context.Context, op string, t target, sets []*model.DerivativeSet) (int64, []model.ImageRecord, error) {
	ctx = context.WithoutCancel(ctx)

	staged := make([]storage.Staged, 0, 2*len(sets))
	images := make([]model.ImageRecord, len(sets))
	for i, set := range sets {
		norm, err := s.stage(ctx, set.Normalized)
		if err != nil {
			s.discard(ctx, staged)
			return 0, nil, wrapError(op, ErrStorage, err)
		}
		staged = append(staged, norm)
		thumb, err := s.stage(ctx, set.Thumbnail)
		if err != nil {
			s.discard(ctx, staged)
			return 0, nil, wrapError(op, ErrStorage, err)
		}
		staged = append(staged, thumb)
		images[i] = model.ImageRecord{
			NormalizedPath: storage.PublicPath(norm.Key),
			ThumbnailPath:  storage.PublicPath(thumb.Key),
			Fingerprint:    set.Fingerprint,
		}
	}

	docID, err := s.insert(ctx, t, images)
	if err != nil {
		s.discard(ctx, staged)
		return 0, nil, wrapError(op, insertKind(err), err)
	}

	for i, st := range staged {
		if err := s.files.Promote(ctx, st); err != nil {
			s.log.Error("promote staged file after commit",
				zap.String("key", st.Key), zap.Int64("document_id", docID), zap.Error(err))
			s.compensate(ctx, t, docID, images, staged, i)
			return 0, nil, wrapError(op, ErrStorage, err)
		}
	}
	return docID, images, nil
}

func (s *ingestService) stage(ctx context.Context, d model.Derivative) (storage.Staged, error) {
	return s.files.Stage(ctx, storage.Key(storage.CollectionUploads, d.Filename), bytes.NewReader(d.Data),
		storage.PutObjectOptions{Size: int64(len(d.Data)), ContentType: derivativeContentType})
}

// insert writes the document (when new) and its images in one transaction.
// images are updated in place with their ids. An existing document, or the
// parent prescription of a new report, is locked and its owner checked again
// before anything is written.
func (s *ingestService) insert(ctx context.Context, t target, images []model.ImageRecord) (int64, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	docID := t.documentID
	if docID != 0 {
		if err := lockOwned(ctx, tx, t.kind, docID, t.memberID); err != nil {
			return 0, rollback(tx, err)
		}
	} else {
		if t.kind == model.KindReport && t.fields.PrescriptionID != nil {
			if err := lockOwned(ctx, tx, model.KindPrescription, *t.fields.PrescriptionID, t.memberID); err != nil {
				return 0, rollback(tx, err)
			}
		}
		rec, err := tx.CreateDocument(ctx, t.kind, t.memberID, t.fields)
		if err != nil {
			return 0, rollback(tx, err)
		}
		docID = rec.ID
	}
	for i := range images {
		images[i].DocumentID = docID
		if err := tx.AddImage(ctx, t.kind, &images[i]); err != nil {
			return 0, rollback(tx, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, rollback(tx, err)
	}
	return docID, nil
}

func lockOwned(ctx context.Context, tx repository.Tx, kind model.Kind, id, memberID int64) error {
	doc, err := tx.LockDocument(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("lock %s %d: %w", kind, id, err)
	}
	if doc.OwnerID != memberID {
		return fmt.Errorf("%s %d: %w", kind, id, errNotOwner)
	}
	return nil
}

// insertKind classifies a failed insert. A document deleted or handed over
// between the pre-checks and the transaction reports like the pre-checks do.
func insertKind(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, errNotOwner):
		return ErrOwnership
	default:
		return ErrStorage
	}
}

type rollbacker interface{ Rollback() error }

func rollback(tx rollbacker, cause error) error {
	if err := tx.Rollback(); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (s *ingestService) discard(ctx context.Context, staged []storage.Staged) {
	for _, st := range staged {
		if err := s.files.Discard(ctx, st); err != nil {
			s.log.Warn("discard staged file", zap.String("key", st.TempKey), zap.Error(err))
		}
	}
}

// compensate undoes a committed batch whose files could not all be promoted:
// the rows written by the batch are soft-deleted and every file of the batch,
// promoted or still staged, is removed.
func (s *ingestService) compensate(ctx context.Context, t target, docID int64, images []model.ImageRecord, staged []storage.Staged, failed int) {
	log := s.log.With(zap.String("kind", string(t.kind)), zap.Int64("document_id", docID))

	if err := s.softDelete(ctx, t, docID, images); err != nil {
		log.Error("compensating soft delete failed", zap.Error(err))
	}
	for i, st := range staged {
		var err error
		if i < failed {
			err = s.files.Delete(ctx, st.Key)
		} else {
			err = s.files.Discard(ctx, st)
		}
		if err != nil {
			log.Error("remove file of rolled back batch", zap.String("key", st.Key), zap.Error(err))
		}
	}
}

func (s *ingestService) softDelete(ctx context.Context, t target, docID int64, images []model.ImageRecord) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	ids := make([]int64, len(images))
	for i, img := range images {
		ids[i] = img.ID
	}
	if err := tx.SoftDeleteImages(ctx, t.kind, ids); err != nil {
		return rollback(tx, err)
	}
	if t.documentID == 0 {
		if err := tx.SoftDeleteDocument(ctx, t.kind, docID); err != nil {
			return rollback(tx, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return rollback(tx, err)
	}
	return nil
}
