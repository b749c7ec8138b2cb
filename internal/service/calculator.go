package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clif-c-of-mcp-server/internal/cache"
	"github.com/clif-c-of-mcp-server/internal/domain"
)

// ResultCache memoises complete evaluations by input key. The calculator
// stores and hands out copies, so cached results are never shared with callers.
type ResultCache interface {
	Get(key string) (*domain.DiagnosisResult, bool)
	Add(key string, result *domain.DiagnosisResult)
}

// CalculatorService runs the validate, score and grade pipeline
type CalculatorService struct {
	logger *logrus.Logger
	cache  ResultCache
}

// NewCalculatorService creates a new calculator service. resultCache may be nil.
func NewCalculatorService(logger *logrus.Logger, resultCache ResultCache) *CalculatorService {
	return &CalculatorService{
		logger: logger,
		cache:  resultCache,
	}
}

// Calculate evaluates one set of patient inputs. When validation fails it
// returns a nil result together with the report; the error return is
// reserved for problems that are not about the inputs themselves.
func (c *CalculatorService) Calculate(ctx context.Context, inputs *domain.PatientInputs) (*domain.DiagnosisResult, *domain.ValidationReport, error) {
	if inputs == nil {
		return nil, nil, errors.New("patient inputs are required")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	startTime := time.Now()

	key, err := cache.GenerateKey(inputs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive cache key: %w", err)
	}

	report := ValidateAllInputs(inputs)
	if !report.IsValid {
		c.logger.WithFields(logrus.Fields{
			"invalid_fields": len(report.Errors),
		}).Debug("Patient inputs failed validation")
		return nil, report, nil
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			c.logger.WithField("cache_key", key[:12]).Debug("Returning cached evaluation")
			return cached.Clone(), report, nil
		}
	}

	result := c.evaluate(&report.ValidatedInputs)

	if c.cache != nil {
		c.cache.Add(key, result.Clone())
	}

	fields := logrus.Fields(result.Grade.LogFields())
	fields["total_score"] = result.TotalScore
	fields["organ_failures"] = result.OrganFailureCount
	fields["reason"] = result.Reason
	fields["processing_time"] = time.Since(startTime)
	c.logger.WithFields(fields).Info("CLIF-C OF evaluation completed")

	return result, report, nil
}

func (c *CalculatorService) evaluate(v *domain.ValidatedInputs) *domain.DiagnosisResult {
	scores := CalculateAllScores(v)
	c.logger.WithFields(logrus.Fields{
		"total_score":    scores.TotalScore,
		"organ_failures": scores.OrganFailures,
	}).Debug("Organ scores calculated")

	assessment := DetermineACLFGrade(scores, v)
	mortality := GetMortalityInfo(assessment.Grade)

	details := make([]domain.OrganDetail, 0, len(domain.Organs))
	for _, organ := range domain.Organs {
		details = append(details, GetOrganDetails(organ, scores.Score(organ), v))
	}

	result := &domain.DiagnosisResult{
		Inputs:            *v,
		Scores:            scores.Scores,
		TotalScore:        scores.TotalScore,
		Grade:             assessment.Grade,
		Reason:            assessment.Reason,
		Rationale:         assessment.Rationale,
		RationaleKr:       assessment.RationaleKr,
		OrganFailures:     assessment.OrganFailures,
		OrganFailureCount: assessment.OrganFailureCount,
		Mortality:         mortality.Rate,
		Severity:          mortality.Severity,
		SeverityColor:     GetSeverityColor(mortality.Severity),
		SeverityInfo:      GetSeverityInfo(mortality.Severity),
		GradeColor:        GetGradeColor(assessment.Grade),
		OrganDetails:      details,
	}

	if v.UseSpO2 && v.SpO2 != nil {
		warning := GetSpO2Warning(v.SpO2)
		result.SpO2Warning = &warning
	}

	return result
}
