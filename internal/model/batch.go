package model

// ImageInput is one raw image of a submitted batch.
type ImageInput struct {
	Data         []byte
	MediaType    string
	OriginalName string
}

// Derivative roles.
const (
	RoleNormalized = "normalized"
	RoleThumbnail  = "thumbnail"
)

// Derivative is one generated artifact, not yet written anywhere.
type Derivative struct {
	Role     string
	Filename string
	Data     []byte
	Width    int
	Height   int
}

// DerivativeSet is the pair of artifacts generated from one source image.
type DerivativeSet struct {
	Normalized  Derivative
	Thumbnail   Derivative
	Fingerprint string
}

// InvalidFile describes one image that failed admission.
type InvalidFile struct {
	Index        int    `json:"index"`
	OriginalName string `json:"original_name"`
	ClassifiedAs Kind   `json:"classified_as"`
	Reason       string `json:"reason"`
}

// RejectionReport lists every file that prevented a batch from being accepted,
// in upload order.
type RejectionReport struct {
	Kind         Kind          `json:"kind"`
	InvalidFiles []InvalidFile `json:"invalid_files"`
}
