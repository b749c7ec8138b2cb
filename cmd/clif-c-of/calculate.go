package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/clif-c-of-mcp-server/internal/domain"
	"github.com/clif-c-of-mcp-server/internal/service"
)

// Output formats
const (
	outputText = "text"
	outputJSON = "json"
)

// inputFlags binds one flag per patient input. Numeric values stay strings
// so they are validated exactly like form input.
type inputFlags struct {
	file string

	bilirubin    string
	creatinine   string
	rrt          bool
	heGrade      int
	inr          string
	sbp          string
	dbp          string
	vasopressors bool
	pao2         string
	spo2         string
	useSpO2      bool
	o2Flow       string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.file, "input", "i", "", "read inputs from a YAML or JSON file (- for stdin)")
	fs.StringVar(&f.bilirubin, "bilirubin", "", "total bilirubin (mg/dL)")
	fs.StringVar(&f.creatinine, "creatinine", "", "serum creatinine (mg/dL)")
	fs.BoolVar(&f.rrt, "rrt", false, "renal replacement therapy in progress")
	fs.IntVar(&f.heGrade, "he-grade", 0, "hepatic encephalopathy: 0 = Grade 0, 1 = Grade 1-2, 2 = Grade 3-4")
	fs.StringVar(&f.inr, "inr", "", "INR")
	fs.StringVar(&f.sbp, "sbp", "", "systolic blood pressure (mmHg)")
	fs.StringVar(&f.dbp, "dbp", "", "diastolic blood pressure (mmHg)")
	fs.BoolVar(&f.vasopressors, "vasopressors", false, "vasopressors in use")
	fs.StringVar(&f.pao2, "pao2", "", "arterial PaO2 (mmHg)")
	fs.StringVar(&f.spo2, "spo2", "", "pulse oximetry SpO2 (%)")
	fs.BoolVar(&f.useSpO2, "use-spo2", false, "estimate PaO2 from SpO2")
	fs.StringVar(&f.o2Flow, "o2-flow", "", "nasal cannula oxygen flow (L/min)")
}

// inputs builds the patient inputs: the --input file first, then any flag
// given explicitly on the command line.
func (f *inputFlags) inputs(cmd *cobra.Command) (*domain.PatientInputs, error) {
	inputs := &domain.PatientInputs{}
	if f.file != "" {
		loaded, err := readInputs(f.file, cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		inputs = loaded
	}

	changed := cmd.Flags().Changed
	raw := func(name, value string, target *domain.RawValue) {
		if changed(name) {
			*target = domain.RawValue(value)
		}
	}
	raw("bilirubin", f.bilirubin, &inputs.Bilirubin)
	raw("creatinine", f.creatinine, &inputs.Creatinine)
	raw("inr", f.inr, &inputs.INR)
	raw("sbp", f.sbp, &inputs.SBP)
	raw("dbp", f.dbp, &inputs.DBP)
	raw("pao2", f.pao2, &inputs.PaO2)
	raw("spo2", f.spo2, &inputs.SpO2)
	raw("o2-flow", f.o2Flow, &inputs.O2Flow)

	if changed("rrt") {
		inputs.RRT = f.rrt
	}
	if changed("vasopressors") {
		inputs.Vasopressors = f.vasopressors
	}
	if changed("use-spo2") {
		inputs.UseSpO2 = f.useSpO2
	}
	if changed("he-grade") {
		grade := domain.HEGrade(f.heGrade)
		inputs.HEGrade = &grade
	}

	return inputs, nil
}

// readInputs decodes a YAML document, which includes plain JSON.
func readInputs(path string, stdin io.Reader) (*domain.PatientInputs, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs: %w", err)
	}

	inputs := &domain.PatientInputs{}
	if err := yaml.Unmarshal(data, inputs); err != nil {
		return nil, fmt.Errorf("failed to parse inputs: %w", err)
	}
	return inputs, nil
}

func calculateCmd(flags *globalFlags) *cobra.Command {
	input := &inputFlags{}
	var save bool
	var output string

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate the CLIF-C OF score and ACLF grade",
		Example: `  clif-c-of calculate --bilirubin 3 --creatinine 4 --inr 1.5 --sbp 90 --dbp 60 --pao2 250 --o2-flow 2
  clif-c-of calculate --input patient.yaml --save --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			inputs, err := input.inputs(cmd)
			if err != nil {
				return err
			}

			a, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			result, report, err := a.calculator().Calculate(ctx, inputs)
			if err != nil {
				return fmt.Errorf("calculation failed: %w", err)
			}
			if result == nil {
				writeValidationErrors(cmd.ErrOrStderr(), report)
				return fmt.Errorf("inputs failed validation")
			}

			var historyID string
			if save {
				store, err := a.openHistory(ctx)
				if err != nil {
					return err
				}
				defer a.closeHistory(store)
				historyID = store.Add(ctx, result).ID
			}

			out := cmd.OutOrStdout()
			if output == outputJSON {
				return writeJSON(out, map[string]any{"result": result, "historyId": historyID})
			}
			writeResult(out, result)
			if historyID != "" {
				fmt.Fprintf(out, "\nSaved to history as %s\n", historyID)
			}
			return nil
		},
	}

	input.register(cmd)
	cmd.Flags().BoolVar(&save, "save", false, "save the evaluation to history")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text, json)")
	return cmd
}

func validateCmd() *cobra.Command {
	input := &inputFlags{}
	var output string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate patient inputs without scoring them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			inputs, err := input.inputs(cmd)
			if err != nil {
				return err
			}

			report := service.ValidateAllInputs(inputs)
			out := cmd.OutOrStdout()
			if output == outputJSON {
				if err := writeJSON(out, report); err != nil {
					return err
				}
			} else if report.IsValid {
				fmt.Fprintln(out, "✓ Inputs are valid")
			} else {
				writeValidationErrors(out, report)
			}

			if !report.IsValid {
				return fmt.Errorf("inputs failed validation")
			}
			return nil
		},
	}

	input.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text, json)")
	return cmd
}

func checkOutput(output string) error {
	if output != outputText && output != outputJSON {
		return fmt.Errorf("unknown output format %q: use text or json", output)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeValidationErrors lists field errors in field order.
func writeValidationErrors(w io.Writer, report *domain.ValidationReport) {
	fmt.Fprintln(w, "✗ Invalid inputs:")
	if report == nil {
		return
	}
	messages := report.ErrorMessages()
	fields := make([]string, 0, len(messages))
	for field := range messages {
		fields = append(fields, string(field))
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(w, "  %s: %s\n", field, strings.TrimSpace(messages[domain.Field(field)]))
	}
}
