package model

// ExtractedData is the classifier's per-image field extraction.
// Each field is nil when the model could not find it.
type ExtractedData struct {
	Department   *string `json:"department"`
	DoctorName   *string `json:"doctor_name"`
	VisitedDate  *string `json:"visited_date"`
	TestName     *string `json:"test_name"`
	DeliveryDate *string `json:"deliveryDate"`
	NormalOrNot  *string `json:"normal_or_not"`
}

// Get returns the value extracted for f, or nil.
func (d ExtractedData) Get(f Field) *string {
	switch f {
	case FieldDepartment:
		return d.Department
	case FieldDoctorName:
		return d.DoctorName
	case FieldVisitedDate:
		return d.VisitedDate
	case FieldTestName:
		return d.TestName
	case FieldDeliveryDate:
		return d.DeliveryDate
	case FieldNormalOrNot:
		return d.NormalOrNot
	}
	return nil
}

// Verdict is the immutable classification result for one image.
type Verdict struct {
	Kind      Kind          `json:"documentType"`
	Extracted ExtractedData `json:"extractedData"`
	Reason    string        `json:"reason,omitempty"`
}

// FallbackVerdict is the fail-closed verdict used whenever classification
// cannot produce a trustworthy answer.
func FallbackVerdict(reason string) Verdict {
	return Verdict{Kind: KindOther, Reason: reason}
}
