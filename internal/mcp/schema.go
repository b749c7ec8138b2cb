package mcp

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

// numericField accepts a number or a numeric string, mirroring what a
// clinician would type into a form.
func numericField(field domain.Field, label string) *jsonschema.Schema {
	description := label
	if r, ok := domain.ValidationRanges[field]; ok {
		description = fmt.Sprintf("%s, %g - %g", label, r.Min, r.Max)
		if r.Unit != "" {
			description += " " + r.Unit
		}
	}
	return &jsonschema.Schema{
		Types:       []string{"number", "string", "null"},
		Description: description,
	}
}

func booleanField(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "boolean", Description: description}
}

func stringField(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

// patientProperties describes domain.PatientInputs.
func patientProperties() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		string(domain.FieldBilirubin):  numericField(domain.FieldBilirubin, "Total bilirubin"),
		string(domain.FieldCreatinine): numericField(domain.FieldCreatinine, "Serum creatinine"),
		"rrt":                          booleanField("Renal replacement therapy in progress"),
		string(domain.FieldHEGrade): {
			Type:        "integer",
			Description: "Hepatic encephalopathy: 0 = Grade 0, 1 = Grade 1-2, 2 = Grade 3-4",
		},
		string(domain.FieldINR):    numericField(domain.FieldINR, "INR"),
		string(domain.FieldSBP):    numericField(domain.FieldSBP, "Systolic blood pressure"),
		string(domain.FieldDBP):    numericField(domain.FieldDBP, "Diastolic blood pressure"),
		"vasopressors":             booleanField("Vasopressors in use"),
		string(domain.FieldPaO2):   numericField(domain.FieldPaO2, "Arterial PaO2"),
		string(domain.FieldSpO2):   numericField(domain.FieldSpO2, "Pulse oximetry SpO2, used when useSpO2 is set"),
		"useSpO2":                  booleanField("Estimate PaO2 from SpO2 instead of using a measured PaO2"),
		string(domain.FieldO2Flow): numericField(domain.FieldO2Flow, "Nasal cannula oxygen flow"),
	}
}

func patientInputSchema(extra map[string]*jsonschema.Schema) *jsonschema.Schema {
	properties := patientProperties()
	for name, schema := range extra {
		properties[name] = schema
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
	}
}

func objectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	if properties == nil {
		properties = map[string]*jsonschema.Schema{}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}
