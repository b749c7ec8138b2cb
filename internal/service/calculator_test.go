package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clif-c-of-mcp-server/internal/cache"
	"github.com/clif-c-of-mcp-server/internal/domain"
)

func newTestCalculator(t *testing.T, resultCache ResultCache) (*CalculatorService, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewCalculatorService(logger, resultCache), hook
}

func TestCalculate_SingleKidneyFailure(t *testing.T) {
	calc, hook := newTestCalculator(t, nil)

	result, report, err := calc.Calculate(context.Background(), validInputs())

	require.NoError(t, err)
	require.True(t, report.IsValid)
	require.NotNil(t, result)

	assert.Equal(t, map[domain.Organ]domain.Score{
		domain.Liver:       domain.ScoreNormal,
		domain.Kidney:      domain.ScoreFailure,
		domain.Brain:       domain.ScoreNormal,
		domain.Coagulation: domain.ScoreNormal,
		domain.Circulation: domain.ScoreNormal,
		domain.Respiratory: domain.ScoreNormal,
	}, result.Scores)
	assert.Equal(t, 8, result.TotalScore)
	assert.Equal(t, 1, result.OrganFailureCount)
	assert.Equal(t, []domain.Organ{domain.Kidney}, result.OrganFailures)
	assert.Equal(t, domain.ACLF1, result.Grade)
	assert.Equal(t, "Single kidney failure", result.Rationale)
	assert.Equal(t, "~22%", result.Mortality)
	assert.Equal(t, domain.SeverityModerate, result.Severity)
	assert.Equal(t, "#F59E0B", result.SeverityColor)
	assert.Equal(t, domain.SeverityDisplay{Color: "#F59E0B", BgColor: "#FEF3C7", Label: "중등도", Icon: "⚠"}, result.SeverityInfo)
	assert.Len(t, result.OrganDetails, len(domain.Organs))
	assert.Nil(t, result.SpO2Warning)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "ACLF-1", entry.Data["aclf_grade"])
	assert.Equal(t, 8, entry.Data["total_score"])
}

func TestCalculate_ThreeOrganFailures(t *testing.T) {
	calc, _ := newTestCalculator(t, nil)
	in := &domain.PatientInputs{
		Bilirubin:  "15",
		Creatinine: "1.6",
		INR:        "1.2",
		SBP:        "120",
		DBP:        "80",
		PaO2:       "50",
		O2Flow:     "2",
		RRT:        true,
	}

	for _, he := range []domain.HEGrade{domain.HEGradeNone, domain.HEGradeMild} {
		he := he
		in.HEGrade = &he

		result, report, err := calc.Calculate(context.Background(), in)

		require.NoError(t, err)
		require.True(t, report.IsValid)
		assert.Equal(t, []domain.Organ{domain.Liver, domain.Kidney, domain.Respiratory}, result.OrganFailures)
		assert.Equal(t, domain.ACLF3, result.Grade)
		assert.Equal(t, "> 70%", result.Mortality)
		assert.Equal(t, domain.SeverityCritical, result.Severity)
	}
}

func TestCalculate_InvalidInputs(t *testing.T) {
	calc, _ := newTestCalculator(t, nil)
	in := validInputs()
	in.Bilirubin = "high"

	result, report, err := calc.Calculate(context.Background(), in)

	require.NoError(t, err)
	assert.Nil(t, result)
	require.NotNil(t, report)
	assert.False(t, report.IsValid)
	assert.Equal(t, domain.KindNotANumber, report.Errors[domain.FieldBilirubin].Kind)
}

func TestCalculate_SpO2Advisory(t *testing.T) {
	calc, _ := newTestCalculator(t, nil)
	in := validInputs()
	in.UseSpO2 = true
	in.SpO2 = "98"

	result, _, err := calc.Calculate(context.Background(), in)

	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotNil(t, result.SpO2Warning)
	assert.Equal(t, domain.SpO2WarningHigh, result.SpO2Warning.Level)
	assert.Equal(t, domain.PaO2Estimated, result.Inputs.PaO2Source)
}

func TestCalculate_Idempotent(t *testing.T) {
	calc, _ := newTestCalculator(t, nil)

	first, _, err := calc.Calculate(context.Background(), validInputs())
	require.NoError(t, err)
	second, _, err := calc.Calculate(context.Background(), validInputs())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculate_UsesCache(t *testing.T) {
	resultCache := cache.NewResultCache(domain.CacheConfig{Enabled: true, MaxItems: 8})
	calc, _ := newTestCalculator(t, resultCache)

	first, _, err := calc.Calculate(context.Background(), validInputs())
	require.NoError(t, err)
	second, _, err := calc.Calculate(context.Background(), validInputs())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotSame(t, first, second)
	assert.Equal(t, int64(1), resultCache.GetStats().Hits)

	in := validInputs()
	in.Bilirubin = "bad"
	_, _, err = calc.Calculate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, resultCache.GetStats().Size, "invalid inputs must not be cached")
}

func TestCalculate_CachedResultIsolatedFromCallers(t *testing.T) {
	resultCache := cache.NewResultCache(domain.CacheConfig{Enabled: true, MaxItems: 8})
	calc, _ := newTestCalculator(t, resultCache)
	ctx := context.Background()

	first, _, err := calc.Calculate(ctx, validInputs())
	require.NoError(t, err)
	want := first.Clone()

	second, _, err := calc.Calculate(ctx, validInputs())
	require.NoError(t, err)

	for _, r := range []*domain.DiagnosisResult{first, second} {
		r.Scores[domain.Liver] = domain.ScoreFailure
		r.OrganFailures = append(r.OrganFailures[:0], domain.Brain)
		r.OrganDetails[0].Score = domain.ScoreFailure
		*r.Inputs.Bilirubin = 99
		r.Grade = domain.ACLF3
	}

	third, _, err := calc.Calculate(ctx, validInputs())
	require.NoError(t, err)
	assert.Equal(t, want, third)
	assert.Equal(t, int64(2), resultCache.GetStats().Hits)
}

func TestCalculate_Errors(t *testing.T) {
	calc, _ := newTestCalculator(t, nil)

	_, _, err := calc.Calculate(context.Background(), nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = calc.Calculate(ctx, validInputs())
	assert.ErrorIs(t, err, context.Canceled)
}
