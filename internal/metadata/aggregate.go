// Package metadata derives document fields from per-image verdicts.
//
// A field is only ever filled from a batch when every image that mentions it
// agrees on a single value. Disagreement leaves the field empty.
package metadata

import (
	"strings"

	"docingest/internal/model"
)

// Aggregate returns, for each field in kind's schema, the single distinct
// non-empty value observed across verdicts. Fields with no value or with
// conflicting values are omitted. The result does not depend on the order of
// verdicts.
func Aggregate(kind model.Kind, verdicts []model.Verdict) map[model.Field]string {
	out := make(map[model.Field]string)
	for _, f := range kind.Fields() {
		var (
			value    string
			distinct int
		)
		for _, v := range verdicts {
			p := v.Extracted.Get(f)
			if p == nil {
				continue
			}
			s := strings.TrimSpace(*p)
			if s == "" {
				continue
			}
			if distinct == 0 {
				value, distinct = s, 1
				continue
			}
			if s != value {
				distinct++
				break
			}
		}
		if distinct == 1 {
			out[f] = value
		}
	}
	return out
}

// Merge fills the schema fields the caller left absent with aggregated values.
// A field the caller supplied, including an explicit null, is never replaced.
// explicit is not modified.
func Merge(kind model.Kind, explicit model.DocumentFields, aggregated map[model.Field]string) model.DocumentFields {
	out := explicit.Clone()
	for _, f := range kind.Fields() {
		if _, present := out.Values[f]; present {
			continue
		}
		if v, ok := aggregated[f]; ok {
			out.Values[f] = &v
		}
	}
	return out
}

// AutoFilled lists the fields Merge took from aggregated, in schema order.
func AutoFilled(kind model.Kind, explicit model.DocumentFields, aggregated map[model.Field]string) []model.Field {
	var out []model.Field
	for _, f := range kind.Fields() {
		if _, present := explicit.Values[f]; present {
			continue
		}
		if _, ok := aggregated[f]; ok {
			out = append(out, f)
		}
	}
	return out
}
