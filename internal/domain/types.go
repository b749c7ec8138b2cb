// Package domain contains the core clinical entities used to compute the
// CLIF-C OF (Chronic Liver Failure Consortium Organ Failure) score and the
// ACLF (Acute-on-Chronic Liver Failure) grade.
//
// Reference: Jalan R. et al. (2014) Development and validation of a prognostic
// score to predict mortality in patients with acute-on-chronic liver failure.
// J Hepatol. 61(5):1038-47. doi: 10.1016/j.jhep.2014.06.012
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Organ identifies one of the six organ systems scored by CLIF-C OF.
type Organ string

const (
	Liver       Organ = "liver"
	Kidney      Organ = "kidney"
	Brain       Organ = "brain"
	Coagulation Organ = "coagulation"
	Circulation Organ = "circulation"
	Respiratory Organ = "respiratory"
)

// Organs lists every organ in canonical order. Organ failure lists are always
// reported in this order.
var Organs = []Organ{Liver, Kidney, Brain, Coagulation, Circulation, Respiratory}

// IsValid reports whether o is one of the six scored organs.
func (o Organ) IsValid() bool {
	switch o {
	case Liver, Kidney, Brain, Coagulation, Circulation, Respiratory:
		return true
	default:
		return false
	}
}

func (o Organ) String() string {
	return string(o)
}

// Score is a per-organ CLIF-C OF sub-score. Valid scores are 1, 2 and 3;
// ScoreUnknown marks an organ whose measurement was not available.
type Score int

const (
	ScoreUnknown Score = 0
	ScoreNormal  Score = 1
	ScoreWarning Score = 2
	ScoreFailure Score = 3
)

// IsKnown reports whether the score was computed from a measurement or an
// override flag.
func (s Score) IsKnown() bool {
	return s >= ScoreNormal && s <= ScoreFailure
}

// IsFailure reports whether the score marks organ failure.
func (s Score) IsFailure() bool {
	return s == ScoreFailure
}

// MarshalJSON encodes unknown scores as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.IsKnown() {
		return []byte("null"), nil
	}
	return json.Marshal(int(s))
}

// UnmarshalJSON accepts null or an integer in {1,2,3}.
func (s *Score) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ScoreUnknown
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("score: %w", err)
	}
	if n != 0 && !Score(n).IsKnown() {
		return fmt.Errorf("score: %d is outside 1-3", n)
	}
	*s = Score(n)
	return nil
}

// Grade is the ACLF grade.
type Grade string

const (
	NoACLF Grade = "No ACLF"
	ACLF1  Grade = "ACLF-1"
	ACLF2  Grade = "ACLF-2"
	ACLF3  Grade = "ACLF-3"
)

// Grades lists grades from least to most severe.
var Grades = []Grade{NoACLF, ACLF1, ACLF2, ACLF3}

// Severity is the risk band associated with a grade.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// KidneyStatus classifies renal function for the ACLF-1 exception rules.
type KidneyStatus string

const (
	KidneyFailure             KidneyStatus = "kidney_failure"
	KidneyModerateDysfunction KidneyStatus = "kidney_dysfunction_moderate"
	KidneyMildDysfunction     KidneyStatus = "kidney_dysfunction_mild"
	KidneyNormal              KidneyStatus = "kidney_normal"
)

// HEGrade is the West-Haven hepatic encephalopathy bucket.
type HEGrade int

const (
	HEGradeNone   HEGrade = 0 // no encephalopathy
	HEGradeMild   HEGrade = 1 // West-Haven 1-2
	HEGradeSevere HEGrade = 2 // West-Haven 3-4
)

// IsValid reports whether g is one of the three HE buckets.
func (g HEGrade) IsValid() bool {
	return g >= HEGradeNone && g <= HEGradeSevere
}

// PaO2Source records whether PaO2 was measured or estimated from SpO2.
type PaO2Source string

const (
	PaO2Measured  PaO2Source = "measured"
	PaO2Estimated PaO2Source = "estimated"
)

// SpO2WarningLevel is the accuracy advisory tier for SpO2-derived PaO2.
type SpO2WarningLevel string

const (
	SpO2WarningNone    SpO2WarningLevel = "none"
	SpO2WarningCaution SpO2WarningLevel = "caution" // limited accuracy, 94 < SpO2 <= 97
	SpO2WarningHigh    SpO2WarningLevel = "warning" // high inaccuracy, SpO2 > 97
)

// ScoreStatus is the display status for an organ score.
type ScoreStatus string

const (
	StatusUnknown ScoreStatus = "unknown"
	StatusNormal  ScoreStatus = "normal"
	StatusWarning ScoreStatus = "warning"
	StatusFailure ScoreStatus = "failure"
)

// Validation errors for clinical data integrity
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidGrade = errors.New("invalid ACLF grade")
)

// IsValid validates that the grade is one of the four ACLF grades.
func (g Grade) IsValid() bool {
	switch g {
	case NoACLF, ACLF1, ACLF2, ACLF3:
		return true
	default:
		return false
	}
}

func (g Grade) String() string {
	return string(g)
}

// ParseGrade converts a textual grade into a Grade.
func ParseGrade(s string) (Grade, error) {
	g := Grade(s)
	if !g.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
	return g, nil
}

// IsACLF reports whether the grade denotes ACLF of any severity.
func (g Grade) IsACLF() bool {
	return g == ACLF1 || g == ACLF2 || g == ACLF3
}

// LogFields returns structured logging fields for the audit trail of an
// evaluation.
func (g Grade) LogFields() map[string]any {
	info := MortalityTable[g]
	return map[string]any{
		"aclf_grade":     string(g),
		"is_aclf":        g.IsACLF(),
		"mortality_rate": info.Rate,
		"severity":       string(info.Severity),
	}
}

// IsValid validates the severity level.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

func (s Severity) String() string {
	return string(s)
}
