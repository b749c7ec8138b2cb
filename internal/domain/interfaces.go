package domain

import (
	"context"
)

// Calculator runs a complete evaluation from raw inputs to a DiagnosisResult
type Calculator interface {
	Calculate(ctx context.Context, inputs *PatientInputs) (*DiagnosisResult, *ValidationReport, error)
}
