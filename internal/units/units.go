// Package units parses quantity-with-unit strings ("30 min", "5 km") and
// checks proofs against a habit's minimal dose.
package units

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Quantity is a parsed quantity-with-unit string.
type Quantity struct {
	Value    float64
	Unit     string // normalized
	Original string
}

// Result describes the outcome of a minimal-dose check.
type Result struct {
	Valid       bool
	MinimalDose bool
	Reason      string
	// ProofValue and RequiredValue are only meaningful when HasValues is set,
	// which requires both sides to have parsed.
	ProofValue    float64
	RequiredValue float64
	HasValues     bool
}

var quantityRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([a-zA-Z]+)$`)

// synonyms maps unit variations to their canonical form. Units not listed
// pass through lowercased.
var synonyms = map[string]string{
	"minutes":     "min",
	"minute":      "min",
	"mins":        "min",
	"hours":       "hr",
	"hour":        "hr",
	"hrs":         "hr",
	"kilometers":  "km",
	"kilometer":   "km",
	"kms":         "km",
	"miles":       "mi",
	"mile":        "mi",
	"meters":      "m",
	"meter":       "m",
	"pages":       "page",
	"reps":        "rep",
	"repetitions": "rep",
	"repetition":  "rep",
	"sets":        "set",
	"seconds":     "sec",
	"second":      "sec",
	"secs":        "sec",
}

// Normalize maps a unit word to its canonical form.
func Normalize(unit string) string {
	lower := strings.ToLower(unit)
	if canonical, ok := synonyms[lower]; ok {
		return canonical
	}
	return lower
}

// Parse parses a quantity-with-unit string like "30 min", "5.5 km" or
// "10pages". It returns false for anything that doesn't match
// <number><optional space><unit-word>.
func Parse(text string) (Quantity, bool) {
	trimmed := strings.TrimSpace(text)

	match := quantityRe.FindStringSubmatch(trimmed)
	if match == nil {
		return Quantity{}, false
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return Quantity{}, false
	}

	return Quantity{
		Value:    value,
		Unit:     Normalize(match[2]),
		Original: trimmed,
	}, true
}

// Validate checks a proof quantity against a habit's minimal dose.
//
// No unit conversion is performed: mismatched units always invalidate,
// regardless of magnitude. A proof is a minimal dose only when it equals the
// requirement exactly; exceeding it is a full proof.
func Validate(proofText, minimalDoseText string) Result {
	proof, ok := Parse(proofText)
	if !ok {
		return Result{
			Reason: fmt.Sprintf("invalid proof unit format: %q, expected format like \"30 min\" or \"5 km\"", proofText),
		}
	}

	minimal, ok := Parse(minimalDoseText)
	if !ok {
		return Result{
			Reason: fmt.Sprintf("invalid minimal dose format: %q, expected format like \"20 min\" or \"3 km\"", minimalDoseText),
		}
	}

	if proof.Unit != minimal.Unit {
		return Result{
			Reason:        fmt.Sprintf("unit mismatch: proof is in %q but minimal dose is in %q", proof.Unit, minimal.Unit),
			ProofValue:    proof.Value,
			RequiredValue: minimal.Value,
			HasValues:     true,
		}
	}

	res := Result{
		ProofValue:    proof.Value,
		RequiredValue: minimal.Value,
		HasValues:     true,
	}

	switch {
	case proof.Value == minimal.Value:
		res.Valid = true
		res.MinimalDose = true
		res.Reason = fmt.Sprintf("proof matches minimal dose exactly: %v %s", proof.Value, proof.Unit)
	case proof.Value > minimal.Value:
		res.Valid = true
		res.Reason = fmt.Sprintf("proof exceeds minimal dose: %v %s > %v %s", proof.Value, proof.Unit, minimal.Value, minimal.Unit)
	default:
		res.Reason = fmt.Sprintf("proof does not meet minimal dose: %v %s < %v %s", proof.Value, proof.Unit, minimal.Value, minimal.Unit)
	}

	return res
}

// Meets reports whether the proof quantity meets or exceeds the minimal dose.
func Meets(proofText, minimalDoseText string) bool {
	res := Validate(proofText, minimalDoseText)
	return res.Valid
}

// IsExactDose reports whether the proof is exactly the minimal dose.
func IsExactDose(proofText, minimalDoseText string) bool {
	res := Validate(proofText, minimalDoseText)
	return res.Valid && res.MinimalDose
}
