// Package intake implements the complaint-driven intake form: per-field
// extraction and validation, allergy handling, medication sanitizing, BMI
// derivation, and assembly of the booking payload.
package intake

import (
	"strconv"
	"strings"

	"github.com/careloop/clinic-booking/internal/catalog"
)

// FieldErrors maps field names to user-facing validation messages. It is the
// form renderer's inline error source; an empty map means the form passed.
type FieldErrors map[string]string

func (e FieldErrors) add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

// Extract validates one raw input against its spec. It returns the typed
// value (float64 for number fields, string for select and date fields),
// whether a value was supplied, and at most one error. Specs come from the
// static catalog and are trusted.
func Extract(raw string, spec catalog.FieldSpec) (value any, present bool, fieldErr string) {
	switch spec.Kind {
	case catalog.KindNumber:
		return extractNumber(raw, spec)
	case catalog.KindSelect, catalog.KindDate:
		return extractChoice(raw, spec)
	default:
		return nil, false, ""
	}
}

func extractNumber(raw string, spec catalog.FieldSpec) (any, bool, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if spec.Required {
			return nil, false, "Enter " + strings.ToLower(spec.Label)
		}
		return nil, false, ""
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false, "Enter a number for " + strings.ToLower(spec.Label)
	}
	if v < spec.Min {
		return nil, false, "Must be at least " + formatBound(spec.Min)
	}
	if v > spec.Max {
		return nil, false, "Must be at most " + formatBound(spec.Max)
	}
	// Step is an input ergonomics hint, not a constraint.
	return v, true, ""
}

// extractChoice covers select and date fields: the empty string is the
// "no selection" sentinel, and non-empty values are trusted from the
// rendered control.
func extractChoice(raw string, spec catalog.FieldSpec) (any, bool, string) {
	if raw == "" {
		if spec.Required {
			return nil, false, "Select " + strings.ToLower(spec.Label)
		}
		return nil, false, ""
	}
	return raw, true, ""
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
