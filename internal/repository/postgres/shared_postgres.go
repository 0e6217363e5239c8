package postgres

import (
	"context"
	"database/sql"
	"time"

	"docingest/internal/model"
)

// ListSharedPrescriptions returns shared prescriptions with their images in one
// round trip; rows arrive grouped by prescription.
func (s *Store) ListSharedPrescriptions(ctx context.Context, userID int64) ([]model.SharedPrescription, error) {
	const q = `
		SELECT p.id, p.title, p.department, p.doctor_name, p.visited_date, p.created_at,
		       i.id, i.normalized_path, i.thumbnail_path
		FROM prescriptions p
		LEFT JOIN prescription_images i ON i.prescription_id = p.id AND i.deleted = FALSE
		WHERE p.user_id = $1 AND p.shared = TRUE AND p.deleted = FALSE
		ORDER BY p.created_at DESC, p.id DESC, i.created_at, i.id
	`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.SharedPrescription, 0)
	for rows.Next() {
		var (
			id                      int64
			title, dept, doc, visit sql.NullString
			createdAt               time.Time
			img                     imageCols
		)
		if err := rows.Scan(&id, &title, &dept, &doc, &visit, &createdAt, &img.id, &img.normalized, &img.thumbnail); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].ID != id {
			out = append(out, model.SharedPrescription{
				ID:          id,
				Title:       ptr(title),
				Department:  ptr(dept),
				DoctorName:  ptr(doc),
				VisitedDate: ptr(visit),
				CreatedAt:   createdAt,
				Images:      make([]model.SharedImage, 0),
				Reports:     make([]model.SharedReport, 0),
			})
		}
		if si, ok := img.image(id); ok {
			last := &out[len(out)-1]
			last.Images = append(last.Images, si)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSharedReports returns shared reports with their images.
func (s *Store) ListSharedReports(ctx context.Context, userID int64) ([]model.SharedReport, error) {
	const q = `
		SELECT r.id, r.title, r.test_name, r.delivery_date, r.prescription_id, r.created_at,
		       i.id, i.normalized_path, i.thumbnail_path
		FROM reports r
		LEFT JOIN report_images i ON i.report_id = r.id AND i.deleted = FALSE
		WHERE r.user_id = $1 AND r.shared = TRUE AND r.deleted = FALSE
		ORDER BY r.created_at DESC, r.id DESC, i.created_at, i.id
	`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.SharedReport, 0)
	for rows.Next() {
		var (
			id                    int64
			title, test, delivery sql.NullString
			prescriptionID        sql.NullInt64
			createdAt             time.Time
			img                   imageCols
		)
		if err := rows.Scan(&id, &title, &test, &delivery, &prescriptionID, &createdAt, &img.id, &img.normalized, &img.thumbnail); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].ID != id {
			r := model.SharedReport{
				ID:           id,
				Title:        ptr(title),
				TestName:     ptr(test),
				DeliveryDate: ptr(delivery),
				CreatedAt:    createdAt,
				Images:       make([]model.SharedImage, 0),
			}
			if prescriptionID.Valid {
				pid := prescriptionID.Int64
				r.PrescriptionID = &pid
			}
			out = append(out, r)
		}
		if si, ok := img.image(id); ok {
			last := &out[len(out)-1]
			last.Images = append(last.Images, si)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// imageCols holds the nullable image columns of a LEFT JOIN row.
type imageCols struct {
	id         sql.NullInt64
	normalized sql.NullString
	thumbnail  sql.NullString
}

func (c imageCols) image(docID int64) (model.SharedImage, bool) {
	if !c.id.Valid {
		return model.SharedImage{}, false
	}
	return model.SharedImage{
		ID:             c.id.Int64,
		DocumentID:     docID,
		NormalizedPath: c.normalized.String,
		ThumbnailPath:  c.thumbnail.String,
	}, true
}

func ptr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
