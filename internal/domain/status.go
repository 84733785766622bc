package domain

import "strings"

// Confidence labels how much trust a forecast carries. Downstream safety
// factors scale inversely with it.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ForecastHorizons are the supported prediction windows, in days.
var ForecastHorizons = []int{30, 60, 90}

// ABC classes rank SKUs by descending contribution to inventory value.
const (
	ABCClassA = "A"
	ABCClassB = "B"
	ABCClassC = "C"
)

// Well-known recommendation annotations. These are stable strings that
// clients may match on; free text goes to ForecastResult.Explanation instead.
const (
	NoteBudgetLimited   = "budget-limited"
	NoteDefaultLeadTime = "default lead time assumed"
	NoteBulkDiscount    = "quantity raised to discount tier"
)

// ParseConfidence maps a label to a Confidence, case-insensitively.
func ParseConfidence(label string) (Confidence, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "high":
		return ConfidenceHigh, true
	case "medium":
		return ConfidenceMedium, true
	case "low":
		return ConfidenceLow, true
	}
	return "", false
}
