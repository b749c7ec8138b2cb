package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/clif-c-of-mcp-server/internal/domain"
	"github.com/clif-c-of-mcp-server/internal/history"
	"github.com/clif-c-of-mcp-server/internal/service"
)

// Tool names
const (
	ToolCalculate          = "calculate_clif_c_of"
	ToolValidateInputs     = "validate_inputs"
	ToolListHistory        = "list_history"
	ToolGetHistory         = "get_history"
	ToolDeleteHistory      = "delete_history"
	ToolClearHistory       = "clear_history"
	ToolExportHistory      = "export_history"
	ToolImportHistory      = "import_history"
	ToolGetReferenceTables = "get_reference_tables"
)

var toolNames = []string{
	ToolCalculate,
	ToolValidateInputs,
	ToolListHistory,
	ToolGetHistory,
	ToolDeleteHistory,
	ToolClearHistory,
	ToolExportHistory,
	ToolImportHistory,
	ToolGetReferenceTables,
}

// CalculateParams defines parameters for calculate_clif_c_of
type CalculateParams struct {
	domain.PatientInputs
	Save bool `json:"save,omitempty"`
}

// CalculateResult defines the result of calculate_clif_c_of
type CalculateResult struct {
	Result    *domain.DiagnosisResult `json:"result"`
	HistoryID string                  `json:"historyId,omitempty"`
}

// ValidateInputsParams defines parameters for validate_inputs
type ValidateInputsParams struct {
	domain.PatientInputs
}

// ValidateInputsResult defines the result of validate_inputs
type ValidateInputsResult struct {
	IsValid         bool                    `json:"isValid"`
	Errors          map[domain.Field]string `json:"errors,omitempty"`
	ValidatedInputs domain.ValidatedInputs  `json:"validatedInputs"`
	SpO2Warning     *domain.SpO2Warning     `json:"spo2Warning,omitempty"`
}

// ListHistoryParams defines parameters for list_history
type ListHistoryParams struct {
	Limit int `json:"limit,omitempty"`
}

// HistorySummary is one row of list_history
type HistorySummary struct {
	ID                string         `json:"id"`
	Timestamp         time.Time      `json:"timestamp"`
	Grade             domain.Grade   `json:"grade"`
	TotalScore        int            `json:"totalScore"`
	OrganFailures     []domain.Organ `json:"organFailures"`
	OrganFailureCount int            `json:"organFailureCount"`
	Mortality         string         `json:"mortality"`
}

// ListHistoryResult defines the result of list_history
type ListHistoryResult struct {
	Count      int              `json:"count"`
	MaxEntries int              `json:"maxEntries"`
	Entries    []HistorySummary `json:"entries"`
}

// HistoryIDParams identifies one history entry
type HistoryIDParams struct {
	ID string `json:"id"`
}

// ClearHistoryParams defines parameters for clear_history
type ClearHistoryParams struct {
	Confirm bool `json:"confirm"`
}

// ImportHistoryParams defines parameters for import_history
type ImportHistoryParams struct {
	FilePath string `json:"file_path"`
}

// ExportHistoryResult defines the result of export_history
type ExportHistoryResult struct {
	FilePath string `json:"file_path"`
	Count    int    `json:"count"`
	Message  string `json:"message"`
}

// ImportHistoryResult defines the result of import_history
type ImportHistoryResult struct {
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Count    int    `json:"count"`
	Message  string `json:"message"`
}

// ReferenceTables is the static clinical reference returned by get_reference_tables
type ReferenceTables struct {
	ValidationRanges map[domain.Field]domain.ValidationRange    `json:"validationRanges"`
	Criteria         []domain.OrganCriteria                     `json:"criteria"`
	GradingRules     []string                                   `json:"gradingRules"`
	Mortality        map[domain.Grade]domain.MortalityInfo      `json:"mortality"`
	HEOptions        []domain.HEOption                          `json:"heOptions"`
	SeverityInfo     map[domain.Severity]domain.SeverityDisplay `json:"severityInfo"`
	ScoreColors      map[domain.Score]string                    `json:"scoreColors"`
}

// gradingRules states the ACLF decision procedure in evaluation order.
var gradingRules = []string{
	"ACLF-3: three or more organ failures",
	"ACLF-2: exactly two organ failures",
	"ACLF-1: single kidney failure",
	"ACLF-1: single non-kidney failure with creatinine 1.5-1.9 mg/dL",
	"ACLF-1: single non-kidney, non-brain failure with HE grade 1-2",
	"No ACLF: single failure without the above",
	"ACLF-1: no organ failure with creatinine 2.0-3.4 mg/dL",
	"No ACLF: otherwise",
}

// registerTools adds every tool to the SDK server.
func (s *Server) registerTools() {
	idSchema := objectSchema(map[string]*jsonschema.Schema{
		"id": stringField("History entry id"),
	}, "id")

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolCalculate,
		Description: "Calculate the CLIF-C OF organ failure score and ACLF grade with 28-day mortality. Set save to keep the result in history.",
		InputSchema: patientInputSchema(map[string]*jsonschema.Schema{
			"save": booleanField("Append the result to the evaluation history"),
		}),
	}, s.handleCalculate)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolValidateInputs,
		Description: "Validate patient inputs and show derived MAP, FiO2, PaO2 estimate and P/F ratio without grading.",
		InputSchema: patientInputSchema(nil),
	}, s.handleValidateInputs)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolListHistory,
		Description: "List saved evaluations, newest first.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"limit": {Type: "integer", Description: "Maximum number of entries to return"},
		}),
	}, s.handleListHistory)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolGetHistory,
		Description: "Get a saved evaluation by id.",
		InputSchema: idSchema,
	}, s.handleGetHistory)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolDeleteHistory,
		Description: "Delete a saved evaluation by id.",
		InputSchema: idSchema,
	}, s.handleDeleteHistory)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolClearHistory,
		Description: "Delete every saved evaluation. Requires confirm: true.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"confirm": booleanField("Must be true"),
		}, "confirm"),
	}, s.handleClearHistory)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolExportHistory,
		Description: "Export the evaluation history to a JSON file in the export directory.",
		InputSchema: objectSchema(nil),
	}, s.handleExportHistory)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolImportHistory,
		Description: "Merge evaluations from a JSON export file into the history.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"file_path": stringField("Path to a file written by export_history"),
		}, "file_path"),
	}, s.handleImportHistory)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolGetReferenceTables,
		Description: "Get input ranges, organ score bands, grading rules and the mortality table.",
		InputSchema: objectSchema(nil),
	}, s.handleGetReferenceTables)

	for _, name := range toolNames {
		s.logger.WithField("tool_name", name).Debug("Registered MCP tool")
	}
}

// handleCalculate handles the calculate_clif_c_of tool invocation
func (s *Server) handleCalculate(ctx context.Context, req *mcp.CallToolRequest, params CalculateParams) (*mcp.CallToolResult, any, error) {
	if res := s.allow(ToolCalculate); res != nil {
		return res, nil, nil
	}

	result, report, err := s.calculator.Calculate(ctx, &params.PatientInputs)
	if err != nil {
		s.logger.WithError(err).WithField("tool", ToolCalculate).Error("Evaluation failed")
		return errorResult(domain.ErrInternalServer, "Evaluation failed", err.Error()), nil, nil
	}
	if !report.IsValid {
		return errorResult(domain.ErrValidation, "Invalid patient inputs", formatFieldErrors(report)), nil, nil
	}

	out := CalculateResult{Result: result}
	if params.Save {
		entry := s.history.Add(ctx, result)
		out.HistoryID = entry.ID
	}

	s.logger.WithFields(logrus.Fields{
		"tool":       ToolCalculate,
		"aclf_grade": result.Grade,
		"saved":      params.Save,
	}).Info("Tool completed")

	return jsonResult(out), out, nil
}

// handleValidateInputs handles the validate_inputs tool invocation
func (s *Server) handleValidateInputs(ctx context.Context, req *mcp.CallToolRequest, params ValidateInputsParams) (*mcp.CallToolResult, any, error) {
	if res := s.allow(ToolValidateInputs); res != nil {
		return res, nil, nil
	}

	report := service.ValidateAllInputs(&params.PatientInputs)
	out := ValidateInputsResult{
		IsValid:         report.IsValid,
		ValidatedInputs: report.ValidatedInputs,
	}
	if !report.IsValid {
		out.Errors = report.ErrorMessages()
	}
	if v := report.ValidatedInputs; v.UseSpO2 && v.SpO2 != nil {
		warning := service.GetSpO2Warning(v.SpO2)
		out.SpO2Warning = &warning
	}

	return jsonResult(out), out, nil
}

// handleListHistory handles the list_history tool invocation
func (s *Server) handleListHistory(ctx context.Context, req *mcp.CallToolRequest, params ListHistoryParams) (*mcp.CallToolResult, any, error) {
	if res := s.allow(ToolListHistory); res != nil {
		return res, nil, nil
	}
	if params.Limit < 0 {
		return errorResult(domain.ErrInvalidInput, "limit must not be negative", ""), nil, nil
	}

	entries := s.history.List()
	if params.Limit > 0 && params.Limit < len(entries) {
		entries = entries[:params.Limit]
	}

	out := ListHistoryResult{
		Count:      s.history.Len(),
		MaxEntries: s.history.MaxEntries(),
		Entries:    make([]HistorySummary, 0, len(entries)),
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, HistorySummary{
			ID:                e.ID,
			Timestamp:         e.Timestamp,
			Grade:             e.Grade,
			TotalScore:        e.TotalScore,
			OrganFailures:     e.OrganFailures,
			OrganFailureCount: e.OrganFailureCount,
			Mortality:         e.Mortality,
		})
	}

	return jsonResult(out), out, nil
}

// handleGetHistory handles the get_history tool invocation
func (s *Server) handleGetHistory(ctx context.Context, req *mcp.CallToolRequest, params HistoryIDParams) (*mcp.CallToolResult, any, error) {
	if res := s.allow(ToolGetHistory); res != nil {
		return res, nil, nil
	}
	if strings.TrimSpace(params.ID) == "" {
		return errorResult(domain.ErrInvalidInput, "Missing required parameter", "id is required"), nil, nil
	}

	entry, ok := s.history.Get(params.ID)
	if !ok {
		return errorResult(domain.ErrNotFoundCode, "History entry not found", params.ID), nil, nil
	}
	return jsonResult(entry), entry, nil
}

// handleDeleteHistory handles the delete_history tool invocation
func (s *Server) handleDeleteHistory(ctx context.Context, req *mcp.CallToolRequest, params HistoryIDParams) (*mcp.CallToolResult, any, error) {
	if res := s.allow(ToolDeleteHistory); res != nil {
		return res, nil, nil
	}
	if strings.TrimSpace(params.ID) == "" {
		return errorResult(domain.ErrInvalidInput, "Missing required parameter", "id is required"), nil, nil
	}

	if !s.history.Remove(ctx, params.ID) {
		return errorResult(domain.ErrNotFoundCode, "History entry not found", params.ID), nil, nil
	}

	s.logger.WithFields(logrus.Fields{"tool": ToolDeleteHistory, "id": params.ID}).Info("History entry deleted")
	out := map[string]any{"deleted": params.ID, "count": s.history.Len()}
	return jsonResult(out), out, nil
}

// handleClearHistory handles the clear_history tool invocation
func (s *Server) handleClearHistory(ctx context.Context, req *mcp.CallToolRequest, params ClearHistoryParams) (*mcp.CallToolResult, any, error) {
	if res := s.allow(ToolClearHistory); res != nil {
		return res, nil, nil
	}
	if !params.Confirm {
		return errorResult(domain.ErrInvalidInput, "confirm must be true to clear history", ""), nil, nil
	}

	removed := s.history.Len()
	s.history.Clear(ctx)

	s.logger.WithFields(logrus.Fields{"tool": ToolClearHistory, "removed": removed}).Info("History cleared")
	out := map[string]any{"removed": removed}
	return jsonResult(out), out, nil
}

// handleExportHistory handles the export_history tool invocation
func (s *Server) handleExportHistory(ctx context.Context, req *mcp.CallToolRequest, params struct{}) (*mcp.CallToolResult, any, error) {
	if res := s.allow(ToolExportHistory); res != nil {
		return res, nil, nil
	}

	if err := os.MkdirAll(s.exportDir, 0755); err != nil {
		return errorResult(domain.ErrStorage, "Failed to create export directory", err.Error()), nil, nil
	}

	filePath := filepath.Join(s.exportDir, history.ExportFileName(time.Now()))

	file, err := os.Create(filePath)
	if err != nil {
		return errorResult(domain.ErrStorage, "Failed to create export file", err.Error()), nil, nil
	}
	defer file.Close()

	if err := s.history.ExportJSON(file); err != nil {
		s.logger.WithError(err).Error("Failed to export history")
		return errorResult(domain.ErrStorage, "Failed to export history", err.Error()), nil, nil
	}

	count := s.history.Len()
	out := ExportHistoryResult{
		FilePath: filePath,
		Count:    count,
		Message:  fmt.Sprintf("Exported %d evaluations to %s", count, filePath),
	}
	return jsonResult(out), out, nil
}

// handleImportHistory handles the import_history tool invocation
func (s *Server) handleImportHistory(ctx context.Context, req *mcp.CallToolRequest, params ImportHistoryParams) (*mcp.CallToolResult, any, error) {
	if res := s.allow(ToolImportHistory); res != nil {
		return res, nil, nil
	}
	if params.FilePath == "" {
		return errorResult(domain.ErrInvalidInput, "Missing required parameter", "file_path is required"), nil, nil
	}

	file, err := os.Open(params.FilePath)
	if err != nil {
		return errorResult(domain.ErrStorage, "Failed to open import file", err.Error()), nil, nil
	}
	defer file.Close()

	imported, skipped, err := s.history.ImportJSON(ctx, file)
	if err != nil {
		return errorResult(domain.ErrInvalidInput, "Failed to import history", err.Error()), nil, nil
	}

	out := ImportHistoryResult{
		Imported: imported,
		Skipped:  skipped,
		Count:    s.history.Len(),
		Message:  fmt.Sprintf("Imported %d evaluations, skipped %d", imported, skipped),
	}
	return jsonResult(out), out, nil
}

// handleGetReferenceTables handles the get_reference_tables tool invocation
func (s *Server) handleGetReferenceTables(ctx context.Context, req *mcp.CallToolRequest, params struct{}) (*mcp.CallToolResult, any, error) {
	if res := s.allow(ToolGetReferenceTables); res != nil {
		return res, nil, nil
	}

	out := referenceTables()
	return jsonResult(out), out, nil
}

func referenceTables() ReferenceTables {
	return ReferenceTables{
		ValidationRanges: domain.ValidationRanges,
		Criteria:         domain.CriteriaTable,
		GradingRules:     gradingRules,
		Mortality:        domain.MortalityTable,
		HEOptions:        domain.HEOptions,
		SeverityInfo:     domain.SeverityInfo,
		ScoreColors:      domain.ScoreColors,
	}
}

// allow returns a RATE_LIMIT_EXCEEDED result when the limiter has no token.
func (s *Server) allow(tool string) *mcp.CallToolResult {
	if s.limiter.Allow() {
		s.logger.WithField("tool", tool).Debug("Tool invoked")
		return nil
	}
	s.logger.WithField("tool", tool).Warn("Tool call rate limited")
	return errorResult(domain.ErrRateLimit, "Too many tool calls", fmt.Sprintf("limit is %g calls per second", s.config.RateLimit))
}

// formatFieldErrors renders the report's field errors in field order.
func formatFieldErrors(report *domain.ValidationReport) string {
	messages := report.ErrorMessages()
	fields := make([]string, 0, len(messages))
	for field := range messages {
		fields = append(fields, string(field))
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, messages[domain.Field(field)]))
	}
	return strings.Join(parts, "; ")
}
