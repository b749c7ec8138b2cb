package service

import (
	"github.com/clif-c-of-mcp-server/internal/domain"
)

// ScoreLiver scores total bilirubin in mg/dL.
func ScoreLiver(bilirubin *float64) domain.Score {
	switch {
	case bilirubin == nil:
		return domain.ScoreUnknown
	case *bilirubin < 6:
		return domain.ScoreNormal
	case *bilirubin < 12:
		return domain.ScoreWarning
	default:
		return domain.ScoreFailure
	}
}

// ScoreKidney scores creatinine in mg/dL. Renal replacement therapy is
// always a failure whatever the creatinine.
func ScoreKidney(creatinine *float64, rrt bool) domain.Score {
	switch {
	case rrt:
		return domain.ScoreFailure
	case creatinine == nil:
		return domain.ScoreUnknown
	case *creatinine < 2:
		return domain.ScoreNormal
	case *creatinine < 3.5:
		return domain.ScoreWarning
	default:
		return domain.ScoreFailure
	}
}

// ScoreBrain scores the hepatic encephalopathy bucket.
func ScoreBrain(he domain.HEGrade) domain.Score {
	switch he {
	case domain.HEGradeNone:
		return domain.ScoreNormal
	case domain.HEGradeMild:
		return domain.ScoreWarning
	default:
		return domain.ScoreFailure
	}
}

// ScoreCoagulation scores the INR.
func ScoreCoagulation(inr *float64) domain.Score {
	switch {
	case inr == nil:
		return domain.ScoreUnknown
	case *inr < 2.0:
		return domain.ScoreNormal
	case *inr < 2.5:
		return domain.ScoreWarning
	default:
		return domain.ScoreFailure
	}
}

// ScoreCirculation scores mean arterial pressure. Only vasopressor use
// reaches failure; a measured MAP scores at most 2.
func ScoreCirculation(mapValue *float64, vasopressors bool) domain.Score {
	switch {
	case vasopressors:
		return domain.ScoreFailure
	case mapValue == nil:
		return domain.ScoreUnknown
	case *mapValue >= 70:
		return domain.ScoreNormal
	default:
		return domain.ScoreWarning
	}
}

// ScoreRespiratory scores the PaO2/FiO2 ratio.
func ScoreRespiratory(pfRatio *float64) domain.Score {
	switch {
	case pfRatio == nil:
		return domain.ScoreUnknown
	case *pfRatio > 300:
		return domain.ScoreNormal
	case *pfRatio > 200:
		return domain.ScoreWarning
	default:
		return domain.ScoreFailure
	}
}

// organScorers maps each organ to its scoring rule over validated inputs.
var organScorers = map[domain.Organ]func(v *domain.ValidatedInputs) domain.Score{
	domain.Liver:       func(v *domain.ValidatedInputs) domain.Score { return ScoreLiver(v.Bilirubin) },
	domain.Kidney:      func(v *domain.ValidatedInputs) domain.Score { return ScoreKidney(v.Creatinine, v.RRT) },
	domain.Brain:       func(v *domain.ValidatedInputs) domain.Score { return ScoreBrain(v.HEGrade) },
	domain.Coagulation: func(v *domain.ValidatedInputs) domain.Score { return ScoreCoagulation(v.INR) },
	domain.Circulation: func(v *domain.ValidatedInputs) domain.Score { return ScoreCirculation(v.MAP, v.Vasopressors) },
	domain.Respiratory: func(v *domain.ValidatedInputs) domain.Score { return ScoreRespiratory(v.PFRatio) },
}

// CalculateAllScores scores all six organs. Unknown scores are left out of
// the total and never count as failures; failures are listed in canonical
// organ order.
func CalculateAllScores(v *domain.ValidatedInputs) domain.ScoreResult {
	result := domain.ScoreResult{
		Scores:        make(map[domain.Organ]domain.Score, len(domain.Organs)),
		OrganFailures: []domain.Organ{},
	}

	for _, organ := range domain.Organs {
		score := organScorers[organ](v)
		result.Scores[organ] = score
		if score.IsKnown() {
			result.TotalScore += int(score)
		}
		if score.IsFailure() {
			result.OrganFailures = append(result.OrganFailures, organ)
		}
	}
	result.OrganFailureCount = len(result.OrganFailures)

	return result
}

// GetScoreStatus returns the display status of a score.
func GetScoreStatus(score domain.Score) domain.ScoreStatusInfo {
	if info, ok := domain.ScoreStatusTable[score]; ok {
		return info
	}
	return domain.ScoreStatusInfo{Status: domain.StatusUnknown, Text: "-", Color: "gray"}
}

// GetOrganDetails summarises one organ's score for display. Override flags
// are shown in place of the measurement they replace.
func GetOrganDetails(organ domain.Organ, score domain.Score, v *domain.ValidatedInputs) domain.OrganDetail {
	status := GetScoreStatus(score)
	value, unit := organDisplayValue(organ, v)

	return domain.OrganDetail{
		Organ:      organ,
		Name:       organ.DisplayName(),
		Indicator:  domain.OrganTable[organ].Indicator,
		Score:      score,
		Status:     status.Status,
		StatusText: status.Text,
		Color:      status.Color,
		Value:      value,
		Unit:       unit,
		IsFailure:  score.IsFailure(),
	}
}

func organDisplayValue(organ domain.Organ, v *domain.ValidatedInputs) (any, string) {
	switch organ {
	case domain.Liver:
		return optional(v.Bilirubin), "mg/dL"
	case domain.Kidney:
		if v.RRT {
			return "RRT", ""
		}
		return optional(v.Creatinine), "mg/dL"
	case domain.Brain:
		return v.HEGrade.Label(), ""
	case domain.Coagulation:
		return optional(v.INR), ""
	case domain.Circulation:
		if v.Vasopressors {
			return "승압제 사용", ""
		}
		return optional(v.MAP), "mmHg"
	case domain.Respiratory:
		return optional(v.PFRatio), ""
	default:
		return "", ""
	}
}

// optional unwraps p so a missing value encodes as JSON null rather than a typed nil.
func optional(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
