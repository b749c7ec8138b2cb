package service

import (
	"fmt"
	"strings"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

// CheckKidneyCondition classifies renal function for the ACLF-1 exception rules.
func CheckKidneyCondition(creatinine float64, rrt bool) domain.KidneyStatus {
	switch {
	case rrt || creatinine >= 3.5:
		return domain.KidneyFailure
	case creatinine >= 2.0:
		return domain.KidneyModerateDysfunction
	case creatinine >= 1.5:
		return domain.KidneyMildDysfunction
	default:
		return domain.KidneyNormal
	}
}

// kidneyConditionOf treats a missing creatinine as normal unless RRT is in use.
func kidneyConditionOf(v *domain.ValidatedInputs) domain.KidneyStatus {
	if v.Creatinine == nil {
		return CheckKidneyCondition(0, v.RRT)
	}
	return CheckKidneyCondition(*v.Creatinine, v.RRT)
}

// DetermineACLFGrade grades ACLF from the organ failures and the creatinine,
// RRT and HE grade of v. Rules are evaluated in order and the first match
// wins:
//
//  1. three or more organ failures: ACLF-3
//  2. two organ failures: ACLF-2
//  3. one organ failure: ACLF-1 if it is the kidney, or if it comes with mild
//     kidney dysfunction, or with HE grade 1-2 when the failure is not the
//     brain; otherwise no ACLF
//  4. no organ failure: ACLF-1 on moderate kidney dysfunction, else no ACLF
//
// Nothing else in v influences the grade.
func DetermineACLFGrade(scores domain.ScoreResult, v *domain.ValidatedInputs) domain.ACLFAssessment {
	failures := append([]domain.Organ{}, scores.OrganFailures...)
	count := scores.OrganFailureCount

	result := domain.ACLFAssessment{
		OrganFailures:     failures,
		OrganFailureCount: count,
	}

	switch {
	case count >= 3:
		return withGrade(result, domain.ACLF3, domain.ReasonMultiOrganFailure,
			fmt.Sprintf("%d organ failures", count),
			fmt.Sprintf("장기부전 %d개", count))

	case count == 2:
		return withGrade(result, domain.ACLF2, domain.ReasonTwoOrganFailures,
			"2 organ failures", "장기부전 2개")

	case count == 1 && len(failures) > 0:
		failed := failures[0]
		result.FailedOrgan = failed

		if failed == domain.Kidney {
			return withGrade(result, domain.ACLF1, domain.ReasonSingleKidneyFailure,
				"Single kidney failure", "단독 신부전")
		}
		if kidneyConditionOf(v) == domain.KidneyMildDysfunction {
			return withGrade(result, domain.ACLF1, domain.ReasonFailureWithMildKidney,
				capitalize(string(failed))+" failure + mild kidney dysfunction (Cr 1.5-1.9)",
				failed.KoreanName()+" 부전 + 경미한 신기능장애")
		}
		if v.HEGrade == domain.HEGradeMild && failed != domain.Brain {
			return withGrade(result, domain.ACLF1, domain.ReasonFailureWithMildHE,
				capitalize(string(failed))+" failure + mild hepatic encephalopathy (HE 1-2)",
				failed.KoreanName()+" 부전 + 경도 간성뇌증")
		}
		return withGrade(result, domain.NoACLF, domain.ReasonSingleFailureNoCriteria,
			"Single "+string(failed)+" failure without additional criteria",
			"단독 "+failed.KoreanName()+" 부전 (추가 조건 미충족)")
	}

	if kidneyConditionOf(v) == domain.KidneyModerateDysfunction {
		return withGrade(result, domain.ACLF1, domain.ReasonModerateKidneyDysfunction,
			"Moderate kidney dysfunction (Cr 2.0-3.4)", "중등도 신기능장애 (Cr 2.0-3.4)")
	}
	return withGrade(result, domain.NoACLF, domain.ReasonNoOrganFailureCriteria,
		"No organ failure criteria met", "장기부전 기준 미충족")
}

func withGrade(a domain.ACLFAssessment, grade domain.Grade, reason domain.GradeReason, rationale, rationaleKr string) domain.ACLFAssessment {
	a.Grade = grade
	a.Reason = reason
	a.Rationale = rationale
	a.RationaleKr = rationaleKr
	return a
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// GetMortalityInfo returns the 28-day mortality band for grade. Unknown
// grades fall back to the no-ACLF band.
func GetMortalityInfo(grade domain.Grade) domain.MortalityInfo {
	if info, ok := domain.MortalityTable[grade]; ok {
		return info
	}
	return domain.MortalityTable[domain.NoACLF]
}

// GetSeverityColor returns the display colour of a severity level.
func GetSeverityColor(severity domain.Severity) string {
	if color, ok := domain.SeverityColors[severity]; ok {
		return color
	}
	return domain.DefaultSeverityColor
}

// GetSeverityInfo returns the presentation metadata of a severity level.
// Unknown levels get the default colour and no label.
func GetSeverityInfo(severity domain.Severity) domain.SeverityDisplay {
	if info, ok := domain.SeverityInfo[severity]; ok {
		return info
	}
	return domain.SeverityDisplay{Color: domain.DefaultSeverityColor}
}

// GetGradeColor returns the display colour of a grade.
func GetGradeColor(grade domain.Grade) string {
	if color, ok := domain.GradeColors[grade]; ok {
		return color
	}
	return domain.DefaultSeverityColor
}
