package domain

// MortalityInfo is the 28-day mortality band and risk level for a grade.
type MortalityInfo struct {
	Rate     string   `json:"rate"`
	Severity Severity `json:"severity"`
}

// MortalityTable maps each ACLF grade to its 28-day mortality band.
var MortalityTable = map[Grade]MortalityInfo{
	NoACLF: {Rate: "< 5%", Severity: SeverityLow},
	ACLF1:  {Rate: "~22%", Severity: SeverityModerate},
	ACLF2:  {Rate: "~32%", Severity: SeverityHigh},
	ACLF3:  {Rate: "> 70%", Severity: SeverityCritical},
}

// DefaultSeverityColor is used for severities outside SeverityColors.
const DefaultSeverityColor = "#6B7280"

// GradeColors is the display colour of each grade.
var GradeColors = map[Grade]string{
	NoACLF: "#10B981",
	ACLF1:  "#F59E0B",
	ACLF2:  "#EF4444",
	ACLF3:  "#DC2626",
}

// SeverityColors is the display colour of each severity level.
var SeverityColors = map[Severity]string{
	SeverityLow:      "#10B981",
	SeverityModerate: "#F59E0B",
	SeverityHigh:     "#EF4444",
	SeverityCritical: "#DC2626",
}

// SeverityDisplay holds presentation metadata for a severity level.
type SeverityDisplay struct {
	Color   string `json:"color"`
	BgColor string `json:"bg_color"`
	Label   string `json:"label"`
	Icon    string `json:"icon"`
}

// SeverityInfo is the full presentation table for severity levels.
var SeverityInfo = map[Severity]SeverityDisplay{
	SeverityLow:      {Color: SeverityColors[SeverityLow], BgColor: "#D1FAE5", Label: "낮음", Icon: "✓"},
	SeverityModerate: {Color: SeverityColors[SeverityModerate], BgColor: "#FEF3C7", Label: "중등도", Icon: "⚠"},
	SeverityHigh:     {Color: SeverityColors[SeverityHigh], BgColor: "#FEE2E2", Label: "높음", Icon: "⚠"},
	SeverityCritical: {Color: SeverityColors[SeverityCritical], BgColor: "#FEE2E2", Label: "매우 높음", Icon: "⛔"},
}

// OrganInfo holds the display names and scoring indicator of an organ.
type OrganInfo struct {
	English   string `json:"en"`
	Korean    string `json:"kr"`
	Indicator string `json:"indicator"`
}

// OrganTable describes each organ system.
var OrganTable = map[Organ]OrganInfo{
	Liver:       {English: "Liver", Korean: "간", Indicator: "Bilirubin"},
	Kidney:      {English: "Kidney", Korean: "신장", Indicator: "Creatinine"},
	Brain:       {English: "Brain", Korean: "뇌", Indicator: "HE Grade"},
	Coagulation: {English: "Coagulation", Korean: "응고", Indicator: "INR"},
	Circulation: {English: "Circulation", Korean: "순환", Indicator: "MAP"},
	Respiratory: {English: "Respiratory", Korean: "호흡", Indicator: "PaO₂/FiO₂"},
}

// DisplayName returns "<korean> (<english>)", or the organ key when unknown.
func (o Organ) DisplayName() string {
	info, ok := OrganTable[o]
	if !ok {
		return string(o)
	}
	return info.Korean + " (" + info.English + ")"
}

// KoreanName returns the Korean organ name, or the organ key when unknown.
func (o Organ) KoreanName() string {
	if info, ok := OrganTable[o]; ok {
		return info.Korean
	}
	return string(o)
}

// ScoreStatusInfo is the display status of a sub-score.
type ScoreStatusInfo struct {
	Status ScoreStatus `json:"status"`
	Text   string      `json:"text"`
	Color  string      `json:"color"`
}

// ScoreStatusTable maps every score, including ScoreUnknown, to its status.
var ScoreStatusTable = map[Score]ScoreStatusInfo{
	ScoreUnknown: {Status: StatusUnknown, Text: "미입력", Color: "gray"},
	ScoreNormal:  {Status: StatusNormal, Text: "정상", Color: "green"},
	ScoreWarning: {Status: StatusWarning, Text: "주의", Color: "yellow"},
	ScoreFailure: {Status: StatusFailure, Text: "부전", Color: "red"},
}

// ScoreColors is the hex colour of each known score level.
var ScoreColors = map[Score]string{
	ScoreNormal:  "#10B981",
	ScoreWarning: "#F59E0B",
	ScoreFailure: "#EF4444",
}

// HEOption describes one selectable hepatic encephalopathy bucket.
type HEOption struct {
	Value       HEGrade `json:"value"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
}

// HEOptions lists the HE buckets in ascending severity.
var HEOptions = []HEOption{
	{Value: HEGradeNone, Label: "Grade 0", Description: "정상"},
	{Value: HEGradeMild, Label: "Grade 1-2", Description: "경도"},
	{Value: HEGradeSevere, Label: "Grade 3-4", Description: "중증"},
}

// Label returns the West-Haven label for the bucket. Unknown values fall back
// to "Grade 0".
func (g HEGrade) Label() string {
	if g.IsValid() {
		return HEOptions[g].Label
	}
	return HEOptions[HEGradeNone].Label
}

// OrganCriteria is the band of indicator values behind each sub-score.
type OrganCriteria struct {
	Organ     Organ  `json:"organ"`
	Indicator string `json:"indicator"`
	Normal    string `json:"normal"`
	Warning   string `json:"warning"`
	Failure   string `json:"failure"`
}

// CriteriaTable lists the sub-score bands in canonical organ order.
var CriteriaTable = []OrganCriteria{
	{Organ: Liver, Indicator: "Bilirubin (mg/dL)", Normal: "< 6", Warning: "6 - 11.9", Failure: ">= 12"},
	{Organ: Kidney, Indicator: "Creatinine (mg/dL)", Normal: "< 2", Warning: "2 - 3.4", Failure: ">= 3.5 or RRT"},
	{Organ: Brain, Indicator: "HE grade (West-Haven)", Normal: "Grade 0", Warning: "Grade 1-2", Failure: "Grade 3-4"},
	{Organ: Coagulation, Indicator: "INR", Normal: "< 2.0", Warning: "2.0 - 2.4", Failure: ">= 2.5"},
	{Organ: Circulation, Indicator: "MAP (mmHg)", Normal: ">= 70", Warning: "< 70", Failure: "Vasopressors"},
	{Organ: Respiratory, Indicator: "PaO2/FiO2", Normal: "> 300", Warning: "201 - 300", Failure: "<= 200"},
}
