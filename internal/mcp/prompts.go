package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

// Prompt names
const (
	PromptInterpretEvaluation = "interpret_evaluation"
)

var promptNames = []string{PromptInterpretEvaluation}

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        PromptInterpretEvaluation,
		Description: "Explain a saved CLIF-C OF evaluation: which organs failed, why the ACLF grade was assigned and what the mortality estimate means.",
		Arguments: []*mcp.PromptArgument{
			{Name: "id", Description: "History entry id; the most recent evaluation when empty"},
		},
	}, s.getInterpretEvaluation)
}

func (s *Server) getInterpretEvaluation(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var id string
	if req != nil && req.Params != nil {
		id = req.Params.Arguments["id"]
	}
	return s.interpretEvaluationPrompt(id)
}

// interpretEvaluationPrompt renders the evaluation with the given id, or the
// newest one when id is empty.
func (s *Server) interpretEvaluationPrompt(id string) (*mcp.GetPromptResult, error) {
	var entry domain.HistoryEntry
	if id == "" {
		entries := s.history.List()
		if len(entries) == 0 {
			return nil, fmt.Errorf("no saved evaluations")
		}
		entry = entries[0]
	} else {
		var ok bool
		if entry, ok = s.history.Get(id); !ok {
			return nil, fmt.Errorf("history entry %s not found", id)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Interpret this CLIF-C OF evaluation for a patient with acute-on-chronic liver failure.\n\n")
	fmt.Fprintf(&b, "ACLF grade: %s (%s)\n", entry.Grade, entry.Reason)
	fmt.Fprintf(&b, "CLIF-C OF score: %d\n", entry.TotalScore)
	fmt.Fprintf(&b, "28-day mortality: %s\n", entry.Mortality)
	fmt.Fprintf(&b, "Grading rationale: %s\n\n", entry.Rationale)
	b.WriteString("Organ scores:\n")
	for _, detail := range entry.OrganDetails {
		fmt.Fprintf(&b, "- %s (%s): score %s, %s\n", detail.Organ, detail.Indicator, scoreText(detail.Score), detail.Status)
	}
	if entry.SpO2Warning != nil && entry.SpO2Warning.Level != domain.SpO2WarningNone {
		fmt.Fprintf(&b, "\nNote: %s\n", entry.SpO2Warning.Message)
	}
	b.WriteString("\nExplain which organ failures drive the grade and what the mortality estimate implies. Do not recommend treatment.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Interpretation of evaluation %s", entry.ID),
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: b.String()}},
		},
	}, nil
}

func scoreText(score domain.Score) string {
	if !score.IsKnown() {
		return "unknown"
	}
	return fmt.Sprintf("%d", int(score))
}
