package model

import "time"

// SharedImage is an image as exposed in the shared documents view.
type SharedImage struct {
	ID             int64  `json:"id"`
	DocumentID     int64  `json:"document_id"`
	NormalizedPath string `json:"normalized_path"`
	ThumbnailPath  string `json:"thumbnail_path"`
}

// SharedReport is a shared, non-deleted report.
type SharedReport struct {
	ID             int64         `json:"id"`
	Title          *string       `json:"title"`
	TestName       *string       `json:"test_name"`
	DeliveryDate   *string       `json:"delivery_date"`
	PrescriptionID *int64        `json:"prescription_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	Images         []SharedImage `json:"images"`
}

// SharedPrescription is a shared, non-deleted prescription with the shared
// reports attached to it.
type SharedPrescription struct {
	ID          int64          `json:"id"`
	Title       *string        `json:"title"`
	Department  *string        `json:"department"`
	DoctorName  *string        `json:"doctor_name"`
	VisitedDate *string        `json:"visited_date"`
	CreatedAt   time.Time      `json:"created_at"`
	Images      []SharedImage  `json:"images"`
	Reports     []SharedReport `json:"reports"`
}

// SharedDocuments is everything a member has marked as shared.
type SharedDocuments struct {
	Prescriptions     []SharedPrescription `json:"prescriptions"`
	StandaloneReports []SharedReport       `json:"standalone_reports"`
}
