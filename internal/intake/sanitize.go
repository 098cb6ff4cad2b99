package intake

import (
	"math"
	"regexp"
	"strings"
)

var (
	angleBrackets   = regexp.MustCompile(`[<>]`)
	disallowedChars = regexp.MustCompile(`[^A-Za-z0-9 ,.;:()/-]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// SanitizeMedications strips markup-capable characters from the free-text
// medications field. It is lossy on purpose and never rejects input: angle
// brackets are dropped outright, anything else outside the allowed set
// becomes a space, and whitespace runs collapse to one space.
func SanitizeMedications(value string) string {
	value = angleBrackets.ReplaceAllString(value, "")
	value = disallowedChars.ReplaceAllString(value, " ")
	value = whitespaceRuns.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// ComputeBMI derives body mass index rounded to one decimal. It is defined
// only for positive height and a supplied weight.
func ComputeBMI(heightCm, weightKg float64) (float64, bool) {
	if heightCm <= 0 || weightKg <= 0 {
		return 0, false
	}
	meters := heightCm / 100
	return math.Round(weightKg/(meters*meters)*10) / 10, true
}
