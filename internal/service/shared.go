package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"time"

	"docingest/internal/model"
	"docingest/internal/storage"
)

// SharedResult is the shared documents view plus a token that grants access
// to their image files until the share token expires.
type SharedResult struct {
	FileToken string
	ExpiresAt time.Time
	Documents model.SharedDocuments
}

func (s *ingestService) SharedDocuments(ctx context.Context, token string) (*SharedResult, error) {
	const op = "shared documents"
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, invalid("token is required")
	}

	st, err := s.store.FindShareToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wrapError(op, ErrAuth, errors.New("unknown share token"))
		}
		return nil, wrapError(op, ErrStorage, err)
	}
	ttl := st.ExpiresAt.Sub(s.now()).Truncate(time.Second)
	if ttl <= 0 {
		return nil, wrapError(op, ErrAuth, errors.New("share token expired"))
	}
	fileToken, err := s.tokens.IssueFileToken(st.UserID, ttl)
	if err != nil {
		return nil, wrapError(op, ErrAuth, err)
	}

	prescriptions, err := s.store.ListSharedPrescriptions(ctx, st.UserID)
	if err != nil {
		return nil, wrapError(op, ErrStorage, err)
	}
	reports, err := s.store.ListSharedReports(ctx, st.UserID)
	if err != nil {
		return nil, wrapError(op, ErrStorage, err)
	}
	return &SharedResult{
		FileToken: fileToken,
		ExpiresAt: st.ExpiresAt,
		Documents: nestReports(prescriptions, reports),
	}, nil
}

// nestReports attaches reports to the shared prescription they belong to.
// Reports without a prescription are standalone; reports whose prescription
// is not shared are left out.
func nestReports(prescriptions []model.SharedPrescription, reports []model.SharedReport) model.SharedDocuments {
	out := model.SharedDocuments{
		Prescriptions:     make([]model.SharedPrescription, len(prescriptions)),
		StandaloneReports: make([]model.SharedReport, 0),
	}
	byID := make(map[int64]int, len(prescriptions))
	for i, p := range prescriptions {
		if p.Reports == nil {
			p.Reports = make([]model.SharedReport, 0)
		}
		out.Prescriptions[i] = p
		byID[p.ID] = i
	}
	for _, r := range reports {
		if r.PrescriptionID == nil {
			out.StandaloneReports = append(out.StandaloneReports, r)
			continue
		}
		if i, ok := byID[*r.PrescriptionID]; ok {
			out.Prescriptions[i].Reports = append(out.Prescriptions[i].Reports, r)
		}
	}
	return out
}

// OpenFile returns a stored derivative. Any valid access or file token opens
// committed files of the uploads and profiles collections.
func (s *ingestService) OpenFile(ctx context.Context, token, publicPath string) (io.ReadCloser, storage.ObjectInfo, error) {
	const op = "open file"
	if _, err := s.tokens.VerifyFileToken(token); err != nil {
		return nil, storage.ObjectInfo{}, wrapError(op, ErrAuth, nil)
	}
	key := storage.KeyFromPublicPath(publicPath)
	if !strings.HasPrefix(key, storage.CollectionUploads+"/") && !strings.HasPrefix(key, storage.CollectionProfiles+"/") {
		return nil, storage.ObjectInfo{}, wrapError(op, ErrNotFound, nil)
	}
	// Staged files are invisible until their batch commits.
	if storage.IsStaging(key) {
		return nil, storage.ObjectInfo{}, wrapError(op, ErrNotFound, nil)
	}
	rc, info, err := s.files.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, storage.ObjectInfo{}, wrapError(op, ErrNotFound, err)
		}
		return nil, storage.ObjectInfo{}, wrapError(op, ErrStorage, err)
	}
	return rc, info, nil
}
