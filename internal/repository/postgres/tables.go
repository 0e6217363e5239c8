package postgres

import (
	"fmt"

	"docingest/internal/model"
)

// table maps a document kind onto its SQL tables. Column names come only from
// this fixed set, never from input.
type table struct {
	docs    string
	images  string
	imageFK string
	columns map[model.Field]string
}

var tables = map[model.Kind]table{
	model.KindPrescription: {
		docs:    "prescriptions",
		images:  "prescription_images",
		imageFK: "prescription_id",
		columns: map[model.Field]string{
			model.FieldDepartment:  "department",
			model.FieldDoctorName:  "doctor_name",
			model.FieldVisitedDate: "visited_date",
		},
	},
	model.KindReport: {
		docs:    "reports",
		images:  "report_images",
		imageFK: "report_id",
		columns: map[model.Field]string{
			model.FieldTestName:     "test_name",
			model.FieldDeliveryDate: "delivery_date",
			model.FieldNormalOrNot:  "normal_or_not",
		},
	},
}

func tableFor(kind model.Kind) (table, error) {
	t, ok := tables[kind]
	if !ok {
		return table{}, fmt.Errorf("no table for document kind %q", kind)
	}
	return t, nil
}
