package metadata

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docingest/internal/model"
)

func str(s string) *string { return &s }

func rx(dept, doctor, date *string) model.Verdict {
	return model.Verdict{Kind: model.KindPrescription, Extracted: model.ExtractedData{
		Department: dept, DoctorName: doctor, VisitedDate: date,
	}}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		kind     model.Kind
		verdicts []model.Verdict
		want     map[model.Field]string
	}{
		{
			name: "agreement with gaps",
			kind: model.KindPrescription,
			verdicts: []model.Verdict{
				rx(str("Cardiology"), nil, str("2024-01-02")),
				rx(str(" Cardiology "), str("Dr. A"), nil),
				rx(str(""), nil, str("2024-01-02")),
			},
			want: map[model.Field]string{
				model.FieldDepartment:  "Cardiology",
				model.FieldDoctorName:  "Dr. A",
				model.FieldVisitedDate: "2024-01-02",
			},
		},
		{
			name: "conflict leaves field absent",
			kind: model.KindPrescription,
			verdicts: []model.Verdict{
				rx(str("Cardiology"), str("Dr. A"), nil),
				rx(str("Neurology"), str("Dr. A"), nil),
			},
			want: map[model.Field]string{model.FieldDoctorName: "Dr. A"},
		},
		{
			name: "scenario from a three page batch",
			kind: model.KindPrescription,
			verdicts: []model.Verdict{
				rx(str("Cardiology"), nil, nil),
				rx(str("Cardiology"), nil, nil),
				rx(str("Neurology"), nil, nil),
			},
			want: map[model.Field]string{},
		},
		{
			name: "only schema fields of the kind",
			kind: model.KindReport,
			verdicts: []model.Verdict{
				{Kind: model.KindReport, Extracted: model.ExtractedData{Department: str("Lab"), TestName: str("CBC"), NormalOrNot: str("Normal")}},
			},
			want: map[model.Field]string{model.FieldTestName: "CBC", model.FieldNormalOrNot: "Normal"},
		},
		{
			name:     "empty batch",
			kind:     model.KindReport,
			verdicts: nil,
			want:     map[model.Field]string{},
		},
		{
			name: "non storable kind has no schema",
			kind: model.KindOther,
			verdicts: []model.Verdict{
				rx(str("Cardiology"), nil, nil),
			},
			want: map[model.Field]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.kind, tt.verdicts))
		})
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	verdicts := []model.Verdict{
		rx(str("Cardiology"), str("Dr. A"), nil),
		rx(nil, str("Dr. A"), str("2024-01-02")),
		rx(str("Cardiology"), str("Dr. B"), nil),
		rx(nil, nil, str("2024-01-02")),
	}
	want := Aggregate(model.KindPrescription, verdicts)

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]model.Verdict(nil), verdicts...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Aggregate(model.KindPrescription, shuffled))
	}
}

func TestMerge(t *testing.T) {
	explicit := model.DocumentFields{
		Title: str("Visit"),
		Values: map[model.Field]*string{
			model.FieldDepartment: str("Neurology"),
			model.FieldDoctorName: nil, // explicit null
		},
	}
	aggregated := map[model.Field]string{
		model.FieldDepartment:  "Cardiology",
		model.FieldDoctorName:  "Dr. A",
		model.FieldVisitedDate: "2024-01-02",
	}

	merged := Merge(model.KindPrescription, explicit, aggregated)

	require.NotNil(t, merged.Values[model.FieldDepartment])
	assert.Equal(t, "Neurology", *merged.Values[model.FieldDepartment])
	v, ok := merged.Values[model.FieldDoctorName]
	assert.True(t, ok)
	assert.Nil(t, v)
	require.NotNil(t, merged.Values[model.FieldVisitedDate])
	assert.Equal(t, "2024-01-02", *merged.Values[model.FieldVisitedDate])
	assert.Equal(t, "Visit", *merged.Title)

	// explicit is untouched
	_, ok = explicit.Values[model.FieldVisitedDate]
	assert.False(t, ok)

	assert.Equal(t, []model.Field{model.FieldVisitedDate}, AutoFilled(model.KindPrescription, explicit, aggregated))
}

func TestMerge_NilValues(t *testing.T) {
	merged := Merge(model.KindReport, model.DocumentFields{}, map[model.Field]string{model.FieldTestName: "CBC"})
	require.NotNil(t, merged.Values[model.FieldTestName])
	assert.Equal(t, "CBC", *merged.Values[model.FieldTestName])
}
