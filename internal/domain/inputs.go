package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field names a validated patient input.
type Field string

const (
	FieldBilirubin  Field = "bilirubin"
	FieldCreatinine Field = "creatinine"
	FieldHEGrade    Field = "heGrade"
	FieldINR        Field = "inr"
	FieldSBP        Field = "sbp"
	FieldDBP        Field = "dbp"
	FieldPaO2       Field = "pao2"
	FieldSpO2       Field = "spo2"
	FieldO2Flow     Field = "o2Flow"
	FieldPFRatio    Field = "pfRatio"
)

// ValidationRange is the inclusive accepted range of a numeric field.
type ValidationRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit"`
}

// Contains reports whether v lies within the inclusive range.
func (r ValidationRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// ValidationRanges holds the clinical input ranges.
var ValidationRanges = map[Field]ValidationRange{
	FieldBilirubin:  {Min: 0.1, Max: 50, Unit: "mg/dL"},
	FieldCreatinine: {Min: 0.1, Max: 15, Unit: "mg/dL"},
	FieldINR:        {Min: 0.5, Max: 10, Unit: ""},
	FieldSBP:        {Min: 60, Max: 250, Unit: "mmHg"},
	FieldDBP:        {Min: 30, Max: 150, Unit: "mmHg"},
	FieldPaO2:       {Min: 30, Max: 600, Unit: "mmHg"},
	FieldSpO2:       {Min: 70, Max: 100, Unit: "%"},
	FieldO2Flow:     {Min: 0, Max: 5, Unit: "L/min"},
	FieldPFRatio:    {Min: 50, Max: 600, Unit: ""},
}

// RawValue is an unparsed numeric input as entered by the user. The empty
// string stands for an absent value. JSON and YAML numbers, strings and null
// all decode into a RawValue.
type RawValue string

// IsEmpty reports whether no value was entered.
func (r RawValue) IsEmpty() bool {
	return strings.TrimSpace(string(r)) == ""
}

func (r RawValue) String() string {
	return string(r)
}

// UnmarshalJSON accepts numbers, strings and null.
func (r *RawValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*r = ""
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RawValue(s)
	default:
		// numbers and any other literal are kept verbatim; parsing decides
		*r = RawValue(trimmed)
	}
	return nil
}

// UnmarshalYAML accepts any scalar; a YAML null decodes to the empty value.
func (r *RawValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", node.Line)
	}
	if node.Tag == "!!null" {
		*r = ""
		return nil
	}
	*r = RawValue(node.Value)
	return nil
}

// PatientInputs is one raw measurement set for a single evaluation.
type PatientInputs struct {
	Bilirubin    RawValue `json:"bilirubin" yaml:"bilirubin"`
	Creatinine   RawValue `json:"creatinine" yaml:"creatinine"`
	RRT          bool     `json:"rrt" yaml:"rrt"`
	HEGrade      *HEGrade `json:"heGrade,omitempty" yaml:"heGrade,omitempty"`
	INR          RawValue `json:"inr" yaml:"inr"`
	SBP          RawValue `json:"sbp" yaml:"sbp"`
	DBP          RawValue `json:"dbp" yaml:"dbp"`
	Vasopressors bool     `json:"vasopressors" yaml:"vasopressors"`
	PaO2         RawValue `json:"pao2" yaml:"pao2"`
	SpO2         RawValue `json:"spo2" yaml:"spo2"`
	UseSpO2      bool     `json:"useSpO2" yaml:"useSpO2"`
	O2Flow       RawValue `json:"o2Flow" yaml:"o2Flow"`
}

// ValidatedInputs holds parsed, range-checked inputs and derived quantities.
// A nil pointer means the value is missing or could not be derived.
type ValidatedInputs struct {
	Bilirubin    *float64   `json:"bilirubin,omitempty"`
	Creatinine   *float64   `json:"creatinine,omitempty"`
	RRT          bool       `json:"rrt"`
	HEGrade      HEGrade    `json:"heGrade"`
	INR          *float64   `json:"inr,omitempty"`
	SBP          *float64   `json:"sbp,omitempty"`
	DBP          *float64   `json:"dbp,omitempty"`
	MAP          *float64   `json:"map,omitempty"`
	Vasopressors bool       `json:"vasopressors"`
	UseSpO2      bool       `json:"useSpO2"`
	SpO2         *float64   `json:"spo2,omitempty"`
	PaO2         *float64   `json:"pao2,omitempty"`
	PaO2Source   PaO2Source `json:"pao2Source,omitempty"`
	O2Flow       *float64   `json:"o2Flow,omitempty"`
	FiO2         *float64   `json:"fio2,omitempty"`
	PFRatio      *float64   `json:"pfRatio,omitempty"`
}

// Clone returns a copy of v that shares no pointers with it.
func (v ValidatedInputs) Clone() ValidatedInputs {
	for _, p := range []**float64{
		&v.Bilirubin, &v.Creatinine, &v.INR, &v.SBP, &v.DBP, &v.MAP,
		&v.SpO2, &v.PaO2, &v.O2Flow, &v.FiO2, &v.PFRatio,
	} {
		if *p != nil {
			*p = Float64(**p)
		}
	}
	return v
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
