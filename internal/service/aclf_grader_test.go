package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

func TestCheckKidneyCondition(t *testing.T) {
	tests := []struct {
		creatinine float64
		rrt        bool
		want       domain.KidneyStatus
	}{
		{1.0, false, domain.KidneyNormal},
		{1.49, false, domain.KidneyNormal},
		{1.5, false, domain.KidneyMildDysfunction},
		{1.99, false, domain.KidneyMildDysfunction},
		{2.0, false, domain.KidneyModerateDysfunction},
		{3.49, false, domain.KidneyModerateDysfunction},
		{3.5, false, domain.KidneyFailure},
		{0.8, true, domain.KidneyFailure},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CheckKidneyCondition(tt.creatinine, tt.rrt), "creatinine %v rrt %v", tt.creatinine, tt.rrt)
	}
}

func failures(organs ...domain.Organ) domain.ScoreResult {
	return domain.ScoreResult{OrganFailures: organs, OrganFailureCount: len(organs)}
}

func TestDetermineACLFGrade(t *testing.T) {
	tests := []struct {
		name        string
		scores      domain.ScoreResult
		creatinine  float64
		rrt         bool
		he          domain.HEGrade
		wantGrade   domain.Grade
		wantReason  domain.GradeReason
		rationale   string
		rationaleKr string
	}{
		{
			name:        "three failures",
			scores:      failures(domain.Liver, domain.Kidney, domain.Respiratory),
			creatinine:  4,
			wantGrade:   domain.ACLF3,
			wantReason:  domain.ReasonMultiOrganFailure,
			rationale:   "3 organ failures",
			rationaleKr: "장기부전 3개",
		},
		{
			name:       "four failures",
			scores:     failures(domain.Liver, domain.Kidney, domain.Brain, domain.Respiratory),
			creatinine: 4,
			he:         domain.HEGradeSevere,
			wantGrade:  domain.ACLF3,
			wantReason: domain.ReasonMultiOrganFailure,
			rationale:  "4 organ failures",
		},
		{
			name:        "two failures",
			scores:      failures(domain.Liver, domain.Coagulation),
			creatinine:  1,
			wantGrade:   domain.ACLF2,
			wantReason:  domain.ReasonTwoOrganFailures,
			rationale:   "2 organ failures",
			rationaleKr: "장기부전 2개",
		},
		{
			name:        "single kidney failure",
			scores:      failures(domain.Kidney),
			creatinine:  4,
			wantGrade:   domain.ACLF1,
			wantReason:  domain.ReasonSingleKidneyFailure,
			rationale:   "Single kidney failure",
			rationaleKr: "단독 신부전",
		},
		{
			name:        "liver failure with mild kidney dysfunction",
			scores:      failures(domain.Liver),
			creatinine:  1.7,
			wantGrade:   domain.ACLF1,
			wantReason:  domain.ReasonFailureWithMildKidney,
			rationale:   "Liver failure + mild kidney dysfunction (Cr 1.5-1.9)",
			rationaleKr: "간 부전 + 경미한 신기능장애",
		},
		{
			name:        "coagulation failure with mild HE",
			scores:      failures(domain.Coagulation),
			creatinine:  1.0,
			he:          domain.HEGradeMild,
			wantGrade:   domain.ACLF1,
			wantReason:  domain.ReasonFailureWithMildHE,
			rationale:   "Coagulation failure + mild hepatic encephalopathy (HE 1-2)",
			rationaleKr: "응고 부전 + 경도 간성뇌증",
		},
		{
			name:        "mild kidney dysfunction takes precedence over HE",
			scores:      failures(domain.Respiratory),
			creatinine:  1.5,
			he:          domain.HEGradeMild,
			wantGrade:   domain.ACLF1,
			wantReason:  domain.ReasonFailureWithMildKidney,
			rationale:   "Respiratory failure + mild kidney dysfunction (Cr 1.5-1.9)",
			rationaleKr: "호흡 부전 + 경미한 신기능장애",
		},
		{
			name:        "single liver failure alone",
			scores:      failures(domain.Liver),
			creatinine:  1.0,
			wantGrade:   domain.NoACLF,
			wantReason:  domain.ReasonSingleFailureNoCriteria,
			rationale:   "Single liver failure without additional criteria",
			rationaleKr: "단독 간 부전 (추가 조건 미충족)",
		},
		{
			name:       "moderate kidney dysfunction with another failure does not qualify",
			scores:     failures(domain.Circulation),
			creatinine: 2.5,
			wantGrade:  domain.NoACLF,
			wantReason: domain.ReasonSingleFailureNoCriteria,
			rationale:  "Single circulation failure without additional criteria",
		},
		{
			name:        "moderate kidney dysfunction alone",
			scores:      failures(),
			creatinine:  2.5,
			wantGrade:   domain.ACLF1,
			wantReason:  domain.ReasonModerateKidneyDysfunction,
			rationale:   "Moderate kidney dysfunction (Cr 2.0-3.4)",
			rationaleKr: "중등도 신기능장애 (Cr 2.0-3.4)",
		},
		{
			name:        "no failures",
			scores:      failures(),
			creatinine:  1.0,
			he:          domain.HEGradeMild,
			wantGrade:   domain.NoACLF,
			wantReason:  domain.ReasonNoOrganFailureCriteria,
			rationale:   "No organ failure criteria met",
			rationaleKr: "장기부전 기준 미충족",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &domain.ValidatedInputs{
				Creatinine: domain.Float64(tt.creatinine),
				RRT:        tt.rrt,
				HEGrade:    tt.he,
			}

			got := DetermineACLFGrade(tt.scores, v)

			assert.Equal(t, tt.wantGrade, got.Grade)
			assert.Equal(t, tt.wantReason, got.Reason)
			assert.Equal(t, tt.rationale, got.Rationale)
			if tt.rationaleKr != "" {
				assert.Equal(t, tt.rationaleKr, got.RationaleKr)
			}
			assert.Equal(t, tt.scores.OrganFailureCount, got.OrganFailureCount)
		})
	}
}

func TestDetermineACLFGrade_BrainFailureIgnoresHE(t *testing.T) {
	// a single brain failure implies HE 3-4, so the HE 1-2 exception cannot apply
	v := &domain.ValidatedInputs{Creatinine: domain.Float64(1.0), HEGrade: domain.HEGradeMild}

	got := DetermineACLFGrade(failures(domain.Brain), v)

	assert.Equal(t, domain.NoACLF, got.Grade)
	assert.Equal(t, domain.Brain, got.FailedOrgan)
	assert.Equal(t, "단독 뇌 부전 (추가 조건 미충족)", got.RationaleKr)
}

func TestDetermineACLFGrade_Idempotent(t *testing.T) {
	scores := failures(domain.Liver)
	v := &domain.ValidatedInputs{Creatinine: domain.Float64(1.6)}

	first := DetermineACLFGrade(scores, v)
	second := DetermineACLFGrade(scores, v)

	assert.Equal(t, first, second)
	assert.Equal(t, []domain.Organ{domain.Liver}, scores.OrganFailures, "input must not be mutated")
}

func TestDetermineACLFGrade_OnlyGradingInputsMatter(t *testing.T) {
	scores := failures(domain.Coagulation)
	base := &domain.ValidatedInputs{Creatinine: domain.Float64(1.0)}
	noisy := &domain.ValidatedInputs{
		Creatinine:   domain.Float64(1.0),
		Bilirubin:    domain.Float64(40),
		INR:          domain.Float64(9),
		MAP:          domain.Float64(40),
		PFRatio:      domain.Float64(100),
		Vasopressors: true,
	}

	assert.Equal(t, DetermineACLFGrade(scores, base), DetermineACLFGrade(scores, noisy))
}

func TestGetMortalityInfo(t *testing.T) {
	tests := []struct {
		grade    domain.Grade
		rate     string
		severity domain.Severity
		color    string
	}{
		{domain.NoACLF, "< 5%", domain.SeverityLow, "#10B981"},
		{domain.ACLF1, "~22%", domain.SeverityModerate, "#F59E0B"},
		{domain.ACLF2, "~32%", domain.SeverityHigh, "#EF4444"},
		{domain.ACLF3, "> 70%", domain.SeverityCritical, "#DC2626"},
	}

	for _, tt := range tests {
		info := GetMortalityInfo(tt.grade)
		assert.Equal(t, tt.rate, info.Rate)
		assert.Equal(t, tt.severity, info.Severity)
		assert.Equal(t, tt.color, GetSeverityColor(info.Severity))
		assert.Equal(t, tt.color, GetGradeColor(tt.grade))
	}

	assert.Equal(t, domain.MortalityTable[domain.NoACLF], GetMortalityInfo("ACLF-9"))
	assert.Equal(t, "#6B7280", GetSeverityColor("unknown"))
}

func TestGetSeverityInfo(t *testing.T) {
	tests := []struct {
		severity domain.Severity
		label    string
		icon     string
	}{
		{domain.SeverityLow, "낮음", "✓"},
		{domain.SeverityModerate, "중등도", "⚠"},
		{domain.SeverityHigh, "높음", "⚠"},
		{domain.SeverityCritical, "매우 높음", "⛔"},
	}

	for _, tt := range tests {
		info := GetSeverityInfo(tt.severity)
		assert.Equal(t, tt.label, info.Label)
		assert.Equal(t, tt.icon, info.Icon)
		assert.Equal(t, GetSeverityColor(tt.severity), info.Color)
		assert.NotEmpty(t, info.BgColor)
	}

	assert.Equal(t, domain.SeverityDisplay{Color: "#6B7280"}, GetSeverityInfo("unknown"))
}
