package intake

import (
	"regexp"
	"strings"

	"github.com/careloop/clinic-booking/internal/catalog"
)

var otherAllergyPattern = regexp.MustCompile(`^[A-Za-z0-9 ,.-]{3,80}$`)

// Form is one raw intake submission as collected by the rendering
// collaborator: field values keyed by field name plus the allergy and
// medication inputs, all untyped.
type Form struct {
	ChiefComplaint string            `json:"chiefComplaint"`
	Fields         map[string]string `json:"fields"`
	Allergies      []string          `json:"allergies"`
	OtherAllergy   string            `json:"otherAllergy"`
	Medications    string            `json:"medications"`
}

// Payload is the validated output of one submission. It is assembled fresh
// per booking attempt and consumed exactly once by the booking request.
type Payload struct {
	ChiefComplaint       string         `json:"chiefComplaint"`
	RecommendedSpecialty string         `json:"recommendedSpecialty"`
	Vitals               map[string]any `json:"vitals"`
}

// Assemble runs the full validation pass over a form. It is a batch pass:
// every mandatory and complaint-specific field is checked and all errors
// are reported together, so the user sees every problem at once. A payload
// is produced only when the error map comes back empty.
func Assemble(form Form) (*Payload, FieldErrors) {
	errs := make(FieldErrors)

	if form.ChiefComplaint == "" {
		errs.add("chiefComplaint", "Select a chief complaint")
		return nil, errs
	}
	def, ok := catalog.Lookup(form.ChiefComplaint)
	if !ok {
		errs.add("chiefComplaint", "Select a chief complaint")
		return nil, errs
	}

	vitals := make(map[string]any)
	var extraNames []string

	for _, spec := range catalog.MandatoryVitals {
		value, present, msg := Extract(form.Fields[spec.Name], spec)
		if msg != "" {
			errs.add(spec.Name, msg)
			continue
		}
		if present {
			vitals[spec.Name] = value
		}
	}

	for _, spec := range def.ExtraVitals {
		value, present, msg := Extract(form.Fields[spec.Name], spec)
		if msg != "" {
			errs.add(spec.Name, msg)
			continue
		}
		if present {
			vitals[spec.Name] = value
			extraNames = append(extraNames, spec.Name)
		}
	}

	allergies := validateAllergies(form, errs)
	medications := SanitizeMedications(form.Medications)

	if len(errs) > 0 {
		return nil, errs
	}

	if height, okH := vitals["heightCm"].(float64); okH {
		if weight, okW := vitals["weightKg"].(float64); okW {
			if bmi, defined := ComputeBMI(height, weight); defined {
				vitals["bmi"] = bmi
			}
		}
	}
	vitals["allergies"] = allergies
	if medications != "" {
		vitals["medications"] = medications
	}
	if len(extraNames) > 0 {
		vitals["extraFields"] = extraNames
	}

	return &Payload{
		ChiefComplaint:       form.ChiefComplaint,
		RecommendedSpecialty: def.Specialty,
		Vitals:               vitals,
	}, nil
}

// validateAllergies enforces the allergy invariant: at least one token, and
// the OTHER token is replaced by a labeled free-text entry rather than
// persisted itself.
func validateAllergies(form Form, errs FieldErrors) []string {
	if len(form.Allergies) == 0 {
		errs.add("allergies", "Select at least one allergy option")
		return nil
	}

	tokens := make([]string, 0, len(form.Allergies))
	hasOther := false
	for _, tok := range form.Allergies {
		if tok == catalog.AllergyOther {
			hasOther = true
			continue
		}
		tokens = append(tokens, tok)
	}
	if hasOther {
		text := strings.TrimSpace(form.OtherAllergy)
		switch {
		case text == "":
			errs.add("otherAllergy", "Describe the other allergy")
		case !otherAllergyPattern.MatchString(text):
			errs.add("otherAllergy", "Use letters, numbers, commas, and periods (3-80 chars)")
		default:
			tokens = append(tokens, "Other: "+text)
		}
	}
	return tokens
}
