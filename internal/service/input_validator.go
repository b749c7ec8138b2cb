package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

// Severinghaus inversion constants and the plausible PaO2 window for estimates.
const (
	severinghausSlope     = 11.2
	severinghausIntercept = 26.6
	minEstimatedPaO2      = 30.0
	maxEstimatedPaO2      = 150.0
	minEstimableSpO2      = 70.0
	maxEstimableSpO2      = 100.0 // exclusive
)

// Nasal prong FiO2 approximation: room air plus 4% per L/min.
const (
	roomAirFiO2      = 21.0
	fio2PerLitreOfO2 = 4.0
)

// requiredFields are validated on every evaluation, in this order.
var requiredFields = []domain.Field{
	domain.FieldBilirubin,
	domain.FieldCreatinine,
	domain.FieldINR,
	domain.FieldSBP,
	domain.FieldDBP,
	domain.FieldO2Flow,
}

// ParseValue converts a raw input into a number. Empty input and input that
// is not a finite decimal number are reported as distinct error kinds.
// The returned error carries no field; callers set it.
func ParseValue(raw domain.RawValue) (float64, *domain.ValidationError) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return 0, domain.NewValidationError("", domain.KindEmptyValue, "value required", string(raw))
	}

	if !isDecimal(s) {
		return 0, domain.NewValidationError("", domain.KindNotANumber, "enter a number", string(raw))
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, domain.NewValidationError("", domain.KindNotANumber, "enter a number", string(raw))
	}
	return v, nil
}

// isDecimal rejects the Go literal forms ParseFloat accepts beyond plain
// decimal notation: hex mantissas and digit separators.
func isDecimal(s string) bool {
	unsigned := strings.TrimLeft(s, "+-")
	if strings.HasPrefix(unsigned, "0x") || strings.HasPrefix(unsigned, "0X") {
		return false
	}
	return !strings.Contains(s, "_")
}

// ValidateValue parses raw and checks it against the range of field. Fields
// without a range only need to parse.
func ValidateValue(field domain.Field, raw domain.RawValue) (float64, *domain.ValidationError) {
	v, verr := ParseValue(raw)
	if verr != nil {
		verr.Field = field
		return 0, verr
	}

	r, ok := domain.ValidationRanges[field]
	if !ok {
		return v, nil
	}
	if !r.Contains(v) {
		return 0, domain.NewOutOfRangeError(field, r, string(raw))
	}
	return v, nil
}

// CalculateMAP returns round((sbp + 2*dbp) / 3), or nil if either pressure is missing.
func CalculateMAP(sbp, dbp *float64) *float64 {
	if sbp == nil || dbp == nil {
		return nil
	}
	return domain.Float64(math.Round((*sbp + 2*(*dbp)) / 3))
}

// CalculateFiO2FromFlow returns FiO2 in percent for a nasal prong flow in
// L/min. The flow is not clamped.
func CalculateFiO2FromFlow(flow *float64) *float64 {
	if flow == nil {
		return nil
	}
	return domain.Float64(roomAirFiO2 + fio2PerLitreOfO2*(*flow))
}

// CalculatePFRatio returns round(pao2 / fio2) where fio2 above 1 is taken as
// a percentage. It returns nil when an operand is missing or the FiO2
// fraction is not positive.
func CalculatePFRatio(pao2, fio2 *float64) *float64 {
	if pao2 == nil || fio2 == nil {
		return nil
	}

	fraction := *fio2
	if fraction > 1 {
		fraction /= 100
	}
	if fraction <= 0 {
		return nil
	}
	return domain.Float64(math.Round(*pao2 / fraction))
}

// EstimatePaO2FromSpO2 inverts the Severinghaus curve. The estimate is
// clamped to 30-150 mmHg. SpO2 outside [70, 100) yields nil; 100% is
// rejected since the log term is undefined there.
func EstimatePaO2FromSpO2(spo2 *float64) *float64 {
	if spo2 == nil || *spo2 < minEstimableSpO2 || *spo2 >= maxEstimableSpO2 {
		return nil
	}

	ratio := *spo2 / (100 - *spo2)
	estimate := severinghausSlope*math.Log(ratio) + severinghausIntercept
	estimate = math.Max(minEstimatedPaO2, math.Min(maxEstimatedPaO2, estimate))
	return domain.Float64(math.Round(estimate))
}

// GetSpO2Warning returns the accuracy advisory for an SpO2-derived PaO2.
func GetSpO2Warning(spo2 *float64) domain.SpO2Warning {
	switch {
	case spo2 == nil:
		return domain.SpO2Warning{Level: domain.SpO2WarningNone}
	case *spo2 > 97:
		return domain.SpO2Warning{
			Level:   domain.SpO2WarningHigh,
			Message: "SpO2 > 97%: the PaO2 estimate is highly inaccurate; arterial blood gas analysis is recommended",
		}
	case *spo2 > 94:
		return domain.SpO2Warning{
			Level:   domain.SpO2WarningCaution,
			Message: "SpO2 94-97%: the PaO2 estimate has limited accuracy",
		}
	default:
		return domain.SpO2Warning{Level: domain.SpO2WarningNone}
	}
}

// ValidateAllInputs validates every field of in and computes the derived
// quantities. The report is valid iff no field error was recorded; derived
// values that cannot be computed are left nil without an error.
func ValidateAllInputs(in *domain.PatientInputs) *domain.ValidationReport {
	errs := make(map[domain.Field]*domain.ValidationError)
	v := domain.ValidatedInputs{}

	raw := map[domain.Field]domain.RawValue{
		domain.FieldBilirubin:  in.Bilirubin,
		domain.FieldCreatinine: in.Creatinine,
		domain.FieldINR:        in.INR,
		domain.FieldSBP:        in.SBP,
		domain.FieldDBP:        in.DBP,
		domain.FieldO2Flow:     in.O2Flow,
	}
	target := map[domain.Field]**float64{
		domain.FieldBilirubin:  &v.Bilirubin,
		domain.FieldCreatinine: &v.Creatinine,
		domain.FieldINR:        &v.INR,
		domain.FieldSBP:        &v.SBP,
		domain.FieldDBP:        &v.DBP,
		domain.FieldO2Flow:     &v.O2Flow,
	}
	for _, field := range requiredFields {
		value, verr := ValidateValue(field, raw[field])
		if verr != nil {
			errs[field] = verr
			continue
		}
		*target[field] = domain.Float64(value)
	}

	v.MAP = CalculateMAP(v.SBP, v.DBP)

	v.UseSpO2 = in.UseSpO2
	if in.UseSpO2 {
		spo2, verr := ValidateValue(domain.FieldSpO2, in.SpO2)
		if verr != nil {
			errs[domain.FieldSpO2] = verr
		} else {
			v.SpO2 = domain.Float64(spo2)
			if estimate := EstimatePaO2FromSpO2(v.SpO2); estimate != nil {
				v.PaO2 = estimate
				v.PaO2Source = domain.PaO2Estimated
			} else {
				errs[domain.FieldSpO2] = domain.NewValidationError(domain.FieldSpO2, domain.KindEstimationFailed,
					"PaO2 cannot be estimated from this SpO2 (70-99% required)", string(in.SpO2))
			}
		}
	} else {
		pao2, verr := ValidateValue(domain.FieldPaO2, in.PaO2)
		if verr != nil {
			errs[domain.FieldPaO2] = verr
		} else {
			v.PaO2 = domain.Float64(pao2)
			v.PaO2Source = domain.PaO2Measured
		}
	}

	v.FiO2 = CalculateFiO2FromFlow(v.O2Flow)
	v.PFRatio = CalculatePFRatio(v.PaO2, v.FiO2)

	v.RRT = in.RRT
	v.Vasopressors = in.Vasopressors
	v.HEGrade = domain.HEGradeNone
	if in.HEGrade != nil {
		if in.HEGrade.IsValid() {
			v.HEGrade = *in.HEGrade
		} else {
			errs[domain.FieldHEGrade] = domain.NewValidationError(domain.FieldHEGrade, domain.KindInvalidOption,
				"select 0 (none), 1 (grade 1-2) or 2 (grade 3-4)", strconv.Itoa(int(*in.HEGrade)))
		}
	}

	return &domain.ValidationReport{
		IsValid:         len(errs) == 0,
		Errors:          errs,
		ValidatedInputs: v,
	}
}
