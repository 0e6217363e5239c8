// Package model contains domain models shared by the ingestion pipeline.
// No business logic beyond schema lookups lives here.
package model

// Kind is a document type tag produced by the classifier.
type Kind string

const (
	KindPrescription Kind = "prescription"
	KindReport       Kind = "report"
	KindOther        Kind = "other"
)

// Valid reports whether k is one of the three classifier tags.
func (k Kind) Valid() bool {
	switch k {
	case KindPrescription, KindReport, KindOther:
		return true
	}
	return false
}

// Storable reports whether documents of kind k can be persisted.
func (k Kind) Storable() bool {
	return k == KindPrescription || k == KindReport
}

// Field names an extracted metadata field. Values match the keys of the
// classifier's extractedData object.
type Field string

const (
	FieldDepartment   Field = "department"
	FieldDoctorName   Field = "doctor_name"
	FieldVisitedDate  Field = "visited_date"
	FieldTestName     Field = "test_name"
	FieldDeliveryDate Field = "deliveryDate"
	FieldNormalOrNot  Field = "normal_or_not"
)

var schemas = map[Kind][]Field{
	KindPrescription: {FieldDepartment, FieldDoctorName, FieldVisitedDate},
	KindReport:       {FieldTestName, FieldDeliveryDate, FieldNormalOrNot},
}

// Fields returns the ordered extracted-field schema of kind k.
// Kinds that cannot be stored have no schema.
func (k Kind) Fields() []Field {
	fs := schemas[k]
	out := make([]Field, len(fs))
	copy(out, fs)
	return out
}

// HasField reports whether f belongs to the schema of k.
func (k Kind) HasField(f Field) bool {
	for _, sf := range schemas[k] {
		if sf == f {
			return true
		}
	}
	return false
}

// Normal-flag values accepted for reports.
const (
	NormalityNormal        = "Normal"
	NormalityAbnormal      = "Abnormal"
	NormalityNotApplicable = "Not Applicable"
)
