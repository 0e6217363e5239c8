package model

import "time"

// DocumentFields holds the optional, caller-visible fields of a document.
// A nil pointer or a missing map key means the field is absent; absent
// fields are never written to the database.
type DocumentFields struct {
	Title          *string
	Shared         *bool
	PrescriptionID *int64 // reports only

	// Values holds extracted-schema fields (see Kind.Fields). A key mapped to
	// nil is an explicit null supplied by the caller.
	Values map[Field]*string
}

// Value returns the value of f and whether it is present.
func (f DocumentFields) Value(field Field) (*string, bool) {
	v, ok := f.Values[field]
	return v, ok
}

// Clone returns a deep copy of the field set.
func (f DocumentFields) Clone() DocumentFields {
	out := DocumentFields{
		Title:          f.Title,
		Shared:         f.Shared,
		PrescriptionID: f.PrescriptionID,
		Values:         make(map[Field]*string, len(f.Values)),
	}
	for k, v := range f.Values {
		if v != nil {
			s := *v
			v = &s
		}
		out.Values[k] = v
	}
	return out
}

// DocumentRecord is a persisted prescription or report.
type DocumentRecord struct {
	ID        int64          `json:"id"`
	Kind      Kind           `json:"kind"`
	OwnerID   int64          `json:"owner_id"`
	Fields    DocumentFields `json:"-"`
	Images    []ImageRecord  `json:"images,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ImageRecord references the stored derivatives of one accepted image.
type ImageRecord struct {
	ID             int64     `json:"id"`
	DocumentID     int64     `json:"document_id"`
	NormalizedPath string    `json:"normalized_path"`
	ThumbnailPath  string    `json:"thumbnail_path"`
	Fingerprint    string    `json:"fingerprint,omitempty"`
	Deleted        bool      `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// User is the subset of the member profile the pipeline reads.
type User struct {
	ID              int64
	ProfileImageURL *string
}

// ShareToken grants read access to a member's shared documents.
type ShareToken struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}
