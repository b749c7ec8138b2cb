package domain

import (
	"maps"
	"slices"
	"time"
)

// ScoreResult is the per-organ score set with its aggregates.
type ScoreResult struct {
	Scores            map[Organ]Score `json:"scores"`
	TotalScore        int             `json:"totalScore"`
	OrganFailures     []Organ         `json:"organFailures"`
	OrganFailureCount int             `json:"organFailureCount"`
}

// Score returns the score of organ o, or ScoreUnknown.
func (r ScoreResult) Score(o Organ) Score {
	return r.Scores[o]
}

// GradeReason is the machine-oriented code of the rule that decided a grade.
type GradeReason string

const (
	ReasonMultiOrganFailure         GradeReason = "multi_organ_failure"
	ReasonTwoOrganFailures          GradeReason = "two_organ_failures"
	ReasonSingleKidneyFailure       GradeReason = "single_kidney_failure"
	ReasonFailureWithMildKidney     GradeReason = "organ_failure_with_mild_kidney_dysfunction"
	ReasonFailureWithMildHE         GradeReason = "organ_failure_with_mild_hepatic_encephalopathy"
	ReasonSingleFailureNoCriteria   GradeReason = "single_organ_failure_without_criteria"
	ReasonModerateKidneyDysfunction GradeReason = "moderate_kidney_dysfunction"
	ReasonNoOrganFailureCriteria    GradeReason = "no_organ_failure_criteria"
)

// ACLFAssessment is the output of the ACLF grading decision procedure.
type ACLFAssessment struct {
	Grade             Grade       `json:"grade"`
	Reason            GradeReason `json:"reason"`
	Rationale         string      `json:"rationale"`
	RationaleKr       string      `json:"rationaleKr"`
	FailedOrgan       Organ       `json:"failedOrgan,omitempty"`
	OrganFailures     []Organ     `json:"organFailures"`
	OrganFailureCount int         `json:"organFailureCount"`
}

// OrganDetail is the display summary of one organ's score.
type OrganDetail struct {
	Organ      Organ       `json:"organ"`
	Name       string      `json:"name"`
	Indicator  string      `json:"indicator"`
	Score      Score       `json:"score"`
	Status     ScoreStatus `json:"status"`
	StatusText string      `json:"statusText"`
	Color      string      `json:"color"`
	Value      any         `json:"value"`
	Unit       string      `json:"unit"`
	IsFailure  bool        `json:"isFailure"`
}

// SpO2Warning is the informational accuracy advisory for SpO2-derived PaO2.
type SpO2Warning struct {
	Level   SpO2WarningLevel `json:"level"`
	Message string           `json:"message"`
}

// DiagnosisResult is the complete, immutable output of one evaluation.
type DiagnosisResult struct {
	Inputs            ValidatedInputs `json:"inputs"`
	Scores            map[Organ]Score `json:"scores"`
	TotalScore        int             `json:"totalScore"`
	Grade             Grade           `json:"grade"`
	Reason            GradeReason     `json:"reason"`
	Rationale         string          `json:"rationale"`
	RationaleKr       string          `json:"rationaleKr"`
	OrganFailures     []Organ         `json:"organFailures"`
	OrganFailureCount int             `json:"organFailureCount"`
	Mortality         string          `json:"mortality"`
	Severity          Severity        `json:"severity"`
	SeverityColor     string          `json:"severityColor"`
	SeverityInfo      SeverityDisplay `json:"severityInfo"`
	GradeColor        string          `json:"gradeColor"`
	OrganDetails      []OrganDetail   `json:"organDetails,omitempty"`
	SpO2Warning       *SpO2Warning    `json:"spo2Warning,omitempty"`
}

// Clone returns a deep copy of r, so a copy can be handed out while r is
// shared.
func (r *DiagnosisResult) Clone() *DiagnosisResult {
	out := *r
	out.Inputs = r.Inputs.Clone()
	out.Scores = maps.Clone(r.Scores)
	out.OrganFailures = slices.Clone(r.OrganFailures)
	out.OrganDetails = slices.Clone(r.OrganDetails)
	if r.SpO2Warning != nil {
		warning := *r.SpO2Warning
		out.SpO2Warning = &warning
	}
	return &out
}

// ValidationReport is the outcome of validating a PatientInputs.
type ValidationReport struct {
	IsValid         bool                       `json:"isValid"`
	Errors          map[Field]*ValidationError `json:"errors"`
	ValidatedInputs ValidatedInputs            `json:"validatedInputs"`
}

// ErrorMessages flattens the report errors into a field → message map.
func (r *ValidationReport) ErrorMessages() map[Field]string {
	out := make(map[Field]string, len(r.Errors))
	for field, err := range r.Errors {
		out[field] = err.Message
	}
	return out
}

// HistoryEntry is a saved evaluation. The DiagnosisResult fields are
// flattened into the entry when encoded.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	DiagnosisResult
}
