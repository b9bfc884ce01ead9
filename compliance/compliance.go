package compliance

import "fmt"

// ComplianceMode selects how aggressively document conversion rejects
// input that has no single canonical reading.
//
// Strict mode prefers explicit failure over silent acceptance: floating
// point numbers and duplicate object keys are errors.
// Permissive mode accepts floats in their shortest round-trip form and
// keeps the last of duplicated JSON keys.
type ComplianceMode int

const (
	Permissive ComplianceMode = iota
	Strict
)

func (m ComplianceMode) String() string {
	switch m {
	case Permissive:
		return "permissive"
	case Strict:
		return "strict"
	}
	return fmt.Sprintf("ComplianceMode(%d)", int(m))
}

// ParseMode parses "strict" or "permissive".
func ParseMode(s string) (ComplianceMode, error) {
	switch s {
	case "strict", "":
		return Strict, nil
	case "permissive":
		return Permissive, nil
	}
	return Strict, fmt.Errorf("unknown compliance mode %q (want strict or permissive)", s)
}
