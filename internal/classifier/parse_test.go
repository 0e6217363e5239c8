package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docingest/internal/model"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    model.Kind
		wantErr bool
		check   func(t *testing.T, v model.Verdict)
	}{
		{
			name: "prescription with fields",
			raw:  `{"documentType":"prescription","extractedData":{"department":" Cardiology ","doctor_name":"Dr. A","visited_date":"2024-01-02","test_name":null,"deliveryDate":null,"normal_or_not":null},"reason":"classified as prescription"}`,
			want: model.KindPrescription,
			check: func(t *testing.T, v model.Verdict) {
				require.NotNil(t, v.Extracted.Department)
				assert.Equal(t, "Cardiology", *v.Extracted.Department)
				assert.Nil(t, v.Extracted.TestName)
				assert.Equal(t, "classified as prescription", v.Reason)
			},
		},
		{
			name: "fenced report, blank and null strings are absent",
			raw:  "```json\n{\"documentType\":\"Report\",\"extractedData\":{\"test_name\":\"CBC\",\"deliveryDate\":\"  \",\"normal_or_not\":\"null\"}}\n```",
			want: model.KindReport,
			check: func(t *testing.T, v model.Verdict) {
				require.NotNil(t, v.Extracted.TestName)
				assert.Equal(t, "CBC", *v.Extracted.TestName)
				assert.Nil(t, v.Extracted.DeliveryDate)
				assert.Nil(t, v.Extracted.NormalOrNot)
			},
		},
		{
			name: "not applicable is a valid normal flag",
			raw:  `{"documentType":"report","extractedData":{"normal_or_not":"Not Applicable"}}`,
			want: model.KindReport,
		},
		{name: "unknown type", raw: `{"documentType":"invoice","extractedData":{}}`, wantErr: true},
		{name: "missing documentType", raw: `{"extractedData":{}}`, wantErr: true},
		{name: "missing extractedData", raw: `{"documentType":"report"}`, wantErr: true},
		{name: "null extractedData", raw: `{"documentType":"report","extractedData":null}`, wantErr: true},
		{name: "unknown top-level key", raw: `{"documentType":"report","extractedData":{},"confidence":0.9}`, wantErr: true},
		{name: "unknown field key", raw: `{"documentType":"report","extractedData":{"patient":"x"}}`, wantErr: true},
		{name: "wrong field type", raw: `{"documentType":"report","extractedData":{"test_name":42}}`, wantErr: true},
		{name: "bad normal flag", raw: `{"documentType":"report","extractedData":{"normal_or_not":"Fine"}}`, wantErr: true},
		{name: "trailing data", raw: `{"documentType":"other","extractedData":{}} {"documentType":"report"}`, wantErr: true},
		{name: "not json", raw: `It is a prescription.`, wantErr: true},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "array", raw: `[{"documentType":"report","extractedData":{}}]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVerdict(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Kind)
			if tt.check != nil {
				tt.check(t, v)
			}
		})
	}
}
