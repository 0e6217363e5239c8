package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"docingest/internal/model"
)

// ErrMalformed reports an oracle answer that is not a valid verdict.
var ErrMalformed = errors.New("malformed verdict")

type wireExtracted struct {
	Department   *string `json:"department"`
	DoctorName   *string `json:"doctor_name"`
	VisitedDate  *string `json:"visited_date"`
	TestName     *string `json:"test_name"`
	DeliveryDate *string `json:"deliveryDate"`
	NormalOrNot  *string `json:"normal_or_not"`
}

type wireVerdict struct {
	DocumentType  *string        `json:"documentType"`
	ExtractedData *wireExtracted `json:"extractedData"`
	Reason        *string        `json:"reason"`
}

// ParseVerdict decodes a raw oracle answer into a Verdict. Only a single JSON
// object with known keys is accepted; a surrounding markdown code fence is
// tolerated. Any deviation returns an error wrapping ErrMalformed.
func ParseVerdict(raw string) (model.Verdict, error) {
	text := stripFence(raw)
	if text == "" {
		return model.Verdict{}, fmt.Errorf("%w: empty answer", ErrMalformed)
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	var w wireVerdict
	if err := dec.Decode(&w); err != nil {
		return model.Verdict{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return model.Verdict{}, fmt.Errorf("%w: trailing data after object", ErrMalformed)
	}

	if w.DocumentType == nil {
		return model.Verdict{}, fmt.Errorf("%w: missing documentType", ErrMalformed)
	}
	if w.ExtractedData == nil {
		return model.Verdict{}, fmt.Errorf("%w: missing extractedData", ErrMalformed)
	}
	kind := model.Kind(strings.ToLower(strings.TrimSpace(*w.DocumentType)))
	if !kind.Valid() {
		return model.Verdict{}, fmt.Errorf("%w: unknown documentType %q", ErrMalformed, *w.DocumentType)
	}

	ex := model.ExtractedData{
		Department:   clean(w.ExtractedData.Department),
		DoctorName:   clean(w.ExtractedData.DoctorName),
		VisitedDate:  clean(w.ExtractedData.VisitedDate),
		TestName:     clean(w.ExtractedData.TestName),
		DeliveryDate: clean(w.ExtractedData.DeliveryDate),
		NormalOrNot:  clean(w.ExtractedData.NormalOrNot),
	}
	if ex.NormalOrNot != nil {
		switch *ex.NormalOrNot {
		case model.NormalityNormal, model.NormalityAbnormal, model.NormalityNotApplicable:
		default:
			return model.Verdict{}, fmt.Errorf("%w: invalid normal_or_not %q", ErrMalformed, *ex.NormalOrNot)
		}
	}

	v := model.Verdict{Kind: kind, Extracted: ex}
	if w.Reason != nil {
		v.Reason = strings.TrimSpace(*w.Reason)
	}
	return v, nil
}

// clean trims s and maps blanks and the literal "null" to absent.
func clean(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" || strings.EqualFold(t, "null") {
		return nil
	}
	return &t
}

func stripFence(raw string) string {
	t := strings.TrimSpace(raw)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		// drop an info string such as "json"
		if !strings.ContainsAny(t[:i], "{[") {
			t = t[i+1:]
		}
	}
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}
