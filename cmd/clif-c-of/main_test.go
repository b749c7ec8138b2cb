package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

var kidneyFailureArgs = []string{
	"--bilirubin", "3",
	"--creatinine", "4.0",
	"--inr", "1.5",
	"--sbp", "90",
	"--dbp", "60",
	"--pao2", "250",
	"--o2-flow", "2",
}

// isolate points the configuration at a fresh data directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	t.Setenv("CLIF_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("CLIF_LOGGING_LEVEL", "error")
	return filepath.Join(dir, "data")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestCalculate_Text(t *testing.T) {
	isolate(t)

	out, err := run(t, "", append([]string{"calculate"}, kidneyFailureArgs...)...)

	require.NoError(t, err)
	assert.Contains(t, out, "ACLF grade:   ACLF-1")
	assert.Contains(t, out, "CLIF-C OF:    8")
	assert.Contains(t, out, "kidney")
	assert.NotContains(t, out, "Saved to history")
}

func TestCalculate_JSONAndSave(t *testing.T) {
	isolate(t)

	args := append([]string{"calculate", "--save", "-o", "json"}, kidneyFailureArgs...)
	out, err := run(t, "", args...)
	require.NoError(t, err)

	var decoded struct {
		Result    domain.DiagnosisResult `json:"result"`
		HistoryID string                 `json:"historyId"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, domain.ACLF1, decoded.Result.Grade)
	assert.Equal(t, 8, decoded.Result.TotalScore)
	require.NotEmpty(t, decoded.HistoryID)

	out, err = run(t, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, decoded.HistoryID)
	assert.Contains(t, out, "ACLF-1")

	out, err = run(t, "", "history", "show", decoded.HistoryID, "-o", "json")
	require.NoError(t, err)
	var entry domain.HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	assert.Equal(t, decoded.HistoryID, entry.ID)
	assert.Equal(t, 8, entry.TotalScore)
}

func TestCalculate_InputFile(t *testing.T) {
	dataDir := isolate(t)
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	path := filepath.Join(dataDir, "patient.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bilirubin: 3
creatinine: "4.0"
inr: 1.5
sbp: 90
dbp: 60
pao2: 250
o2Flow: 2
heGrade: 2
`), 0644))

	out, err := run(t, "", "calculate", "--input", path, "--he-grade", "0", "-o", "json")
	require.NoError(t, err)
	var decoded struct {
		Result domain.DiagnosisResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, domain.HEGradeNone, decoded.Result.Inputs.HEGrade, "flags override the file")
	assert.Equal(t, 8, decoded.Result.TotalScore)
}

func TestCalculate_JSONFromStdin(t *testing.T) {
	isolate(t)
	stdin := `{"bilirubin": 3, "creatinine": "4.0", "inr": 1.5, "sbp": 90, "dbp": 60, "pao2": 250, "o2Flow": 2}`

	out, err := run(t, stdin, "calculate", "--input", "-")

	require.NoError(t, err)
	assert.Contains(t, out, "ACLF-1")
}

func TestCalculate_InvalidInputs(t *testing.T) {
	isolate(t)

	out, err := run(t, "", "calculate", "--bilirubin", "abc")

	require.Error(t, err)
	assert.Contains(t, out, "✗ Invalid inputs:")
	assert.Contains(t, out, "bilirubin:")
	assert.Contains(t, out, "creatinine:")
}

func TestCalculate_UnknownOutput(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "calculate", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestValidate(t *testing.T) {
	isolate(t)

	out, err := run(t, "", append([]string{"validate"}, kidneyFailureArgs...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Inputs are valid")

	out, err = run(t, "", "validate", "--inr", "20", "-o", "json")
	require.Error(t, err)
	var report domain.ValidationReport
	require.NoError(t, json.Unmarshal([]byte(firstJSONDocument(out)), &report))
	assert.False(t, report.IsValid)
	assert.Contains(t, report.Errors, domain.FieldINR)
}

func TestHistory_ExportImportClear(t *testing.T) {
	dataDir := isolate(t)

	for i := 0; i < 2; i++ {
		_, err := run(t, "", append([]string{"calculate", "--save"}, kidneyFailureArgs...)...)
		require.NoError(t, err)
	}

	exportPath := filepath.Join(dataDir, "backup.json")
	out, err := run(t, "", "history", "export", "--file", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 evaluations")

	_, err = run(t, "", "history", "clear")
	assert.ErrorContains(t, err, "--yes")

	out, err = run(t, "", "history", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 2 evaluations")

	out, err = run(t, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved evaluations")

	out, err = run(t, "", "history", "import", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 evaluations (0 skipped)")

	out, err = run(t, "", "history", "import", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 evaluations (2 skipped)")
}

func TestHistory_ListFilters(t *testing.T) {
	isolate(t)

	_, err := run(t, "", append([]string{"calculate", "--save"}, kidneyFailureArgs...)...)
	require.NoError(t, err)

	tests := []struct {
		name  string
		args  []string
		count int
	}{
		{"matching grade", []string{"--grade", "ACLF-1"}, 1},
		{"other grade", []string{"--grade", "No ACLF"}, 0},
		{"failed organ", []string{"--organ", "kidney"}, 1},
		{"healthy organ", []string{"--organ", "liver"}, 0},
		{"grade and organ", []string{"--grade", "ACLF-1", "--organ", "kidney"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "", append([]string{"history", "list", "-o", "json"}, tt.args...)...)
			require.NoError(t, err)

			var entries []domain.HistoryEntry
			require.NoError(t, json.Unmarshal([]byte(out), &entries))
			assert.Len(t, entries, tt.count)
		})
	}

	_, err = run(t, "", "history", "list", "--grade", "ACLF-4")
	assert.ErrorIs(t, err, domain.ErrInvalidGrade)

	_, err = run(t, "", "history", "list", "--organ", "spleen")
	assert.ErrorContains(t, err, "invalid organ")
}

func TestHistory_DefaultExportFile(t *testing.T) {
	dataDir := isolate(t)

	out, err := run(t, "", "history", "export")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 0 evaluations")

	matches, err := filepath.Glob(filepath.Join(dataDir, "exports", "history_export_*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestHistory_RemoveUnknown(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "history", "remove", "missing")
	assert.ErrorContains(t, err, "no saved evaluation")

	_, err = run(t, "", "history", "show", "missing")
	assert.ErrorContains(t, err, "no saved evaluation")
}

func TestInvalidConfigRejected(t *testing.T) {
	isolate(t)
	t.Setenv("CLIF_HISTORY_MAX_ENTRIES", "11")

	_, err := run(t, "", append([]string{"calculate"}, kidneyFailureArgs...)...)
	assert.ErrorContains(t, err, "history.max_entries")
}

func TestMigrate_RequiresURL(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "migrate", "up")
	assert.ErrorContains(t, err, "no database URL")
}

func TestSetup_ClaudeDesktop(t *testing.T) {
	dir := isolate(t)
	claudeConfig := filepath.Join(dir, "claude_desktop_config.json")

	out, err := run(t, "", "setup", "claude-desktop", "--yes",
		"--claude-config", claudeConfig, "--binary", "/usr/local/bin/clif-c-of")
	require.NoError(t, err)
	assert.Contains(t, out, "configured successfully")

	out, err = run(t, "", "setup", "status", "--claude-config", claudeConfig)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Configured")
}

// firstJSONDocument drops whatever cobra printed after the JSON document.
func firstJSONDocument(out string) string {
	decoder := json.NewDecoder(strings.NewReader(out))
	var raw json.RawMessage
	if err := decoder.Decode(&raw); err != nil {
		return out
	}
	return string(raw)
}
