package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"docingest/internal/derivative"
	"docingest/internal/model"
	"docingest/internal/storage"
)

// ProfileRequest carries a new profile picture for a member.
type ProfileRequest struct {
	Token    string
	MemberID int64
	Image    model.ImageInput
}

// ProfileResult is the stored profile picture.
type ProfileResult struct {
	ProfileImageURL string
}

func (s *ingestService) UploadProfileImage(ctx context.Context, req ProfileRequest) (*ProfileResult, error) {
	const op = "upload profile image"
	if req.MemberID <= 0 {
		return nil, invalid("member_id must be a positive integer")
	}
	id, err := s.authenticate(ctx, op, req.Token, req.MemberID)
	if err != nil {
		return nil, err
	}
	if len(req.Image.Data) == 0 {
		return nil, invalid("no files uploaded")
	}
	if err := s.validateImage(req.Image); err != nil {
		return nil, err
	}
	user, err := s.store.FindUser(ctx, req.MemberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wrapError(op, ErrAuth, nil)
		}
		return nil, wrapError(op, ErrStorage, err)
	}

	d, err := s.gen.Normalize(req.Image, id.UserID)
	if err != nil {
		if errors.Is(err, derivative.ErrDecode) {
			return nil, invalid("file %q is not a readable image", req.Image.OriginalName)
		}
		return nil, wrapError(op, ErrStorage, err)
	}

	ctx = context.WithoutCancel(ctx)
	st, err := s.files.Stage(ctx, storage.Key(storage.CollectionProfiles, d.Filename), bytes.NewReader(d.Data),
		storage.PutObjectOptions{Size: int64(len(d.Data)), ContentType: derivativeContentType})
	if err != nil {
		return nil, wrapError(op, ErrStorage, err)
	}
	path := storage.PublicPath(st.Key)
	if err := s.setProfileImage(ctx, req.MemberID, path); err != nil {
		s.discard(ctx, []storage.Staged{st})
		return nil, wrapError(op, ErrStorage, err)
	}

	var previous string
	if user.ProfileImageURL != nil {
		previous = *user.ProfileImageURL
	}
	if err := s.files.Promote(ctx, st); err != nil {
		s.log.Error("promote profile image after commit", zap.Int64("member_id", req.MemberID), zap.Error(err))
		if rerr := s.setProfileImage(ctx, req.MemberID, previous); rerr != nil {
			s.log.Error("restore previous profile image", zap.Int64("member_id", req.MemberID), zap.Error(rerr))
		}
		s.discard(ctx, []storage.Staged{st})
		return nil, wrapError(op, ErrStorage, err)
	}

	if previous != "" && previous != path {
		if err := s.files.Delete(ctx, storage.KeyFromPublicPath(previous)); err != nil {
			s.log.Warn("delete previous profile image", zap.String("path", previous), zap.Error(err))
		}
	}
	return &ProfileResult{ProfileImageURL: path}, nil
}

func (s *ingestService) setProfileImage(ctx context.Context, memberID int64, path string) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := tx.SetProfileImage(ctx, memberID, path); err != nil {
		return rollback(tx, err)
	}
	if err := tx.Commit(); err != nil {
		return rollback(tx, err)
	}
	return nil
}
