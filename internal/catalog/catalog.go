// Package catalog holds the static clinical reference data: the chief
// complaint table with its specialty mapping and per-complaint extra vitals,
// the mandatory vitals set, and the allergy/city/language enumerations.
package catalog

import "strconv"

// FieldKind discriminates the field spec variants.
type FieldKind string

const (
	KindNumber FieldKind = "number"
	KindSelect FieldKind = "select"
	KindDate   FieldKind = "date"
)

// Option is one selectable (value, label) pair of a select field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldSpec describes one clinical input. Min/Max/Step apply to number
// fields, Options to select fields. Specs are constructed once from the
// tables below and never mutated.
type FieldSpec struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	Min      float64   `json:"min,omitempty"`
	Max      float64   `json:"max,omitempty"`
	Step     float64   `json:"step,omitempty"`
	Options  []Option  `json:"options,omitempty"`
}

// ComplaintDefinition maps a chief complaint label to its recommended
// specialty and the extra vitals collected for it.
type ComplaintDefinition struct {
	Label       string      `json:"label"`
	Specialty   string      `json:"specialty"`
	ExtraVitals []FieldSpec `json:"extraVitals"`
}

// Specialties lists every specialty a complaint can map to.
var Specialties = []string{
	"Cardiology",
	"General Practice",
	"Dermatology",
	"Neurology",
	"Orthopedics",
	"Pediatrics",
	"Ophthalmology",
	"ENT",
	"Endocrinology",
	"Gastroenterology",
	"Psychiatry",
	"Pulmonology",
	"Urology",
	"Gynecology",
}

var LanguageOptions = []string{"English", "French", "German", "Spanish"}

var CityOptions = []string{"Paris", "Lyon", "Marseille", "Toulouse"}

// AllergyOther is the reserved token that unlocks the free-text allergy
// field. It is never persisted itself.
const AllergyOther = "OTHER"

var AllergyOptions = []Option{
	{Value: "NONE", Label: "None"},
	{Value: "PENICILLIN", Label: "Penicillin"},
	{Value: "NSAIDS", Label: "NSAIDs"},
	{Value: "PEANUTS", Label: "Peanuts"},
	{Value: "SHELLFISH", Label: "Shellfish"},
	{Value: AllergyOther, Label: "Other"},
}

// MandatoryVitals is the fixed field set collected on every intake.
var MandatoryVitals = []FieldSpec{
	{Name: "heightCm", Label: "Height (cm)", Kind: KindNumber, Min: 120, Max: 230, Step: 1, Required: true},
	{Name: "weightKg", Label: "Weight (kg)", Kind: KindNumber, Min: 30, Max: 250, Step: 0.1, Required: true},
	{Name: "bloodPressureSystolic", Label: "Blood pressure systolic", Kind: KindNumber, Min: 80, Max: 220, Step: 1, Required: true},
	{Name: "bloodPressureDiastolic", Label: "Blood pressure diastolic", Kind: KindNumber, Min: 40, Max: 140, Step: 1, Required: true},
	{Name: "heartRate", Label: "Heart rate (bpm)", Kind: KindNumber, Min: 40, Max: 200, Step: 1, Required: true},
}

var yesNo = []Option{
	{Value: "YES", Label: "Yes"},
	{Value: "NO", Label: "No"},
}

var painSeverity = severityScale()

func severityScale() []Option {
	opts := make([]Option, 0, 11)
	for i := 0; i <= 10; i++ {
		v := strconv.Itoa(i)
		opts = append(opts, Option{Value: v, Label: v})
	}
	return opts
}

var affectedAreas = []Option{
	{Value: "KNEE", Label: "Knee"},
	{Value: "SHOULDER", Label: "Shoulder"},
	{Value: "BACK", Label: "Back"},
	{Value: "HIP", Label: "Hip"},
	{Value: "ANKLE", Label: "Ankle"},
	{Value: "NECK", Label: "Neck"},
}

var visualAcuity = []Option{
	{Value: "NORMAL", Label: "Normal"},
	{Value: "MILD", Label: "Mild blur"},
	{Value: "SEVERE", Label: "Severe blur"},
}

var painLocations = []Option{
	{Value: "RUQ", Label: "Right upper quadrant"},
	{Value: "LUQ", Label: "Left upper quadrant"},
	{Value: "RLQ", Label: "Right lower quadrant"},
	{Value: "LLQ", Label: "Left lower quadrant"},
	{Value: "EPIGASTRIC", Label: "Epigastric"},
}

var vaccinationStatus = []Option{
	{Value: "UP_TO_DATE", Label: "Up-to-date"},
	{Value: "DELAYED", Label: "Delayed"},
	{Value: "UNKNOWN", Label: "Unknown"},
}

var smokingStatus = []Option{
	{Value: "NEVER", Label: "Never"},
	{Value: "FORMER", Label: "Former"},
	{Value: "CURRENT", Label: "Current"},
}

// complaints is ordered for rendering; lookup goes through the index below.
var complaints = []ComplaintDefinition{
	{
		Label:     "Chest pain",
		Specialty: "Cardiology",
		ExtraVitals: []FieldSpec{
			{Name: "totalCholesterol", Label: "Total cholesterol (mg/dL)", Kind: KindNumber, Min: 100, Max: 400, Step: 1, Required: true},
			{Name: "ldl", Label: "LDL (mg/dL)", Kind: KindNumber, Min: 50, Max: 300, Step: 1, Required: true},
			{Name: "hdl", Label: "HDL (mg/dL)", Kind: KindNumber, Min: 20, Max: 120, Step: 1, Required: true},
			{Name: "triglycerides", Label: "Triglycerides (mg/dL)", Kind: KindNumber, Min: 50, Max: 600, Step: 1, Required: true},
			{Name: "fastingBloodSugar", Label: "Fasting blood sugar (mg/dL)", Kind: KindNumber, Min: 60, Max: 400, Step: 1, Required: true},
		},
	},
	{
		Label:     "Shortness of breath",
		Specialty: "Pulmonology",
		ExtraVitals: []FieldSpec{
			{Name: "smokingStatus", Label: "Smoking status", Kind: KindSelect, Options: smokingStatus, Required: true},
			{Name: "o2Saturation", Label: "O2 saturation (%)", Kind: KindNumber, Min: 70, Max: 100, Step: 1, Required: true},
		},
	},
	{
		Label:     "Skin rash/itch",
		Specialty: "Dermatology",
		ExtraVitals: []FieldSpec{
			{Name: "onsetDays", Label: "Onset (days)", Kind: KindNumber, Min: 0, Max: 60, Step: 1, Required: true},
			{Name: "itchSeverity", Label: "Itch severity (0-10)", Kind: KindSelect, Options: painSeverity, Required: true},
		},
	},
	{
		Label:     "Headache/migraine",
		Specialty: "Neurology",
		ExtraVitals: []FieldSpec{
			{Name: "painSeverity", Label: "Pain severity (0-10)", Kind: KindSelect, Options: painSeverity, Required: true},
			{Name: "durationHours", Label: "Duration (hours)", Kind: KindNumber, Min: 0, Max: 72, Step: 1, Required: true},
			{Name: "aura", Label: "Aura", Kind: KindSelect, Options: yesNo, Required: true},
		},
	},
	{
		Label:     "Knee/shoulder/back pain",
		Specialty: "Orthopedics",
		ExtraVitals: []FieldSpec{
			{Name: "painSeverity", Label: "Pain severity (0-10)", Kind: KindSelect, Options: painSeverity, Required: true},
			{Name: "onsetDays", Label: "Onset (days)", Kind: KindNumber, Min: 0, Max: 120, Step: 1, Required: true},
			{Name: "affectedArea", Label: "Affected area", Kind: KindSelect, Options: affectedAreas, Required: true},
		},
	},
	{
		Label:     "Fever/cold/flu",
		Specialty: "General Practice",
		ExtraVitals: []FieldSpec{
			{Name: "temperatureC", Label: "Temperature (C)", Kind: KindNumber, Min: 34, Max: 42, Step: 0.1, Required: true},
			{Name: "onsetDays", Label: "Onset (days)", Kind: KindNumber, Min: 0, Max: 21, Step: 1, Required: true},
		},
	},
	{
		Label:     "Eye irritation/blurred vision",
		Specialty: "Ophthalmology",
		ExtraVitals: []FieldSpec{
			{Name: "visualAcuity", Label: "Visual acuity", Kind: KindSelect, Options: visualAcuity, Required: true},
		},
	},
	{
		Label:     "Ear pain/sore throat",
		Specialty: "ENT",
		ExtraVitals: []FieldSpec{
			{Name: "onsetDays", Label: "Onset (days)", Kind: KindNumber, Min: 0, Max: 30, Step: 1, Required: true},
			{Name: "fever", Label: "Fever", Kind: KindSelect, Options: yesNo, Required: true},
		},
	},
	{
		Label:     "High blood sugar/diabetes follow-up",
		Specialty: "Endocrinology",
		ExtraVitals: []FieldSpec{
			{Name: "fastingBloodSugar", Label: "Fasting blood sugar (mg/dL)", Kind: KindNumber, Min: 60, Max: 400, Step: 1, Required: true},
			{Name: "hba1c", Label: "HbA1c (%)", Kind: KindNumber, Min: 4, Max: 15, Step: 0.1, Required: false},
		},
	},
	{
		Label:     "Abdominal pain/acid reflux",
		Specialty: "Gastroenterology",
		ExtraVitals: []FieldSpec{
			{Name: "painLocation", Label: "Pain location", Kind: KindSelect, Options: painLocations, Required: true},
			{Name: "onsetDays", Label: "Onset (days)", Kind: KindNumber, Min: 0, Max: 60, Step: 1, Required: true},
		},
	},
	{
		Label:     "Anxiety/depression check-in",
		Specialty: "Psychiatry",
		ExtraVitals: []FieldSpec{
			{Name: "phq2Q1", Label: "Little interest or pleasure", Kind: KindSelect, Options: yesNo, Required: true},
			{Name: "phq2Q2", Label: "Feeling down or hopeless", Kind: KindSelect, Options: yesNo, Required: true},
		},
	},
	{
		Label:     "Urinary issues",
		Specialty: "Urology",
		ExtraVitals: []FieldSpec{
			{Name: "burning", Label: "Burning sensation", Kind: KindSelect, Options: yesNo, Required: true},
			{Name: "frequencyPerDay", Label: "Frequency (times/day)", Kind: KindNumber, Min: 0, Max: 30, Step: 1, Required: true},
		},
	},
	{
		Label:     "Women's health consultation",
		Specialty: "Gynecology",
		ExtraVitals: []FieldSpec{
			{Name: "lmpDate", Label: "Last menstrual period", Kind: KindDate, Required: false},
			{Name: "symptomType", Label: "Symptom type", Kind: KindSelect, Options: []Option{
				{Value: "PAIN", Label: "Pain"},
				{Value: "BLEEDING", Label: "Bleeding"},
				{Value: "WELLNESS", Label: "Routine wellness"},
			}, Required: true},
		},
	},
	{
		Label:     "Child vaccination/fever",
		Specialty: "Pediatrics",
		ExtraVitals: []FieldSpec{
			{Name: "childWeightKg", Label: "Child weight (kg)", Kind: KindNumber, Min: 2, Max: 80, Step: 0.1, Required: true},
			{Name: "temperatureC", Label: "Temperature (C)", Kind: KindNumber, Min: 34, Max: 42, Step: 0.1, Required: true},
			{Name: "vaccinationStatus", Label: "Vaccination status", Kind: KindSelect, Options: vaccinationStatus, Required: true},
		},
	},
}

var complaintIndex = buildComplaintIndex()

func buildComplaintIndex() map[string]ComplaintDefinition {
	idx := make(map[string]ComplaintDefinition, len(complaints))
	for _, c := range complaints {
		idx[c.Label] = c
	}
	return idx
}

// Lookup resolves a chief complaint label. It fails closed: an unknown label
// returns false, which callers treat as "no specialty recommendation and no
// extra fields", not as an error.
func Lookup(label string) (ComplaintDefinition, bool) {
	def, ok := complaintIndex[label]
	return def, ok
}

// Complaints returns the complaint definitions in catalog order.
func Complaints() []ComplaintDefinition {
	out := make([]ComplaintDefinition, len(complaints))
	copy(out, complaints)
	return out
}
