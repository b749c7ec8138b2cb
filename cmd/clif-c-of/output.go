package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

// writeResult renders an evaluation as a plain-text report.
func writeResult(w io.Writer, result *domain.DiagnosisResult) {
	fmt.Fprintf(w, "ACLF grade:   %s\n", result.Grade)
	fmt.Fprintf(w, "CLIF-C OF:    %d\n", result.TotalScore)
	fmt.Fprintf(w, "Failures:     %d\n", result.OrganFailureCount)
	fmt.Fprintf(w, "28-day mort.: %s (%s)\n", result.Mortality, result.Severity)
	fmt.Fprintf(w, "Rationale:    %s\n", result.Rationale)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORGAN\tINDICATOR\tVALUE\tSCORE\tSTATUS")
	for _, detail := range result.OrganDetails {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			detail.Organ, detail.Indicator, formatValue(detail.Value, detail.Unit),
			formatScore(detail.Score), detail.Status)
	}
	tw.Flush()

	if result.SpO2Warning != nil && result.SpO2Warning.Level != domain.SpO2WarningNone {
		fmt.Fprintf(w, "\n⚠ %s\n", result.SpO2Warning.Message)
	}
}

// writeHistory renders history entries newest first.
func writeHistory(w io.Writer, entries []domain.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No saved evaluations")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIMESTAMP\tGRADE\tSCORE\tFAILURES")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
			entry.ID, entry.Timestamp.Local().Format(time.DateTime),
			entry.Grade, entry.TotalScore, entry.OrganFailureCount)
	}
	tw.Flush()
}

func formatValue(value any, unit string) string {
	if value == nil {
		return "-"
	}
	var s string
	switch v := value.(type) {
	case float64:
		s = fmt.Sprintf("%g", v)
	default:
		s = fmt.Sprint(v)
	}
	if s == "" {
		return "-"
	}
	if unit != "" {
		s += " " + unit
	}
	return s
}

func formatScore(score domain.Score) string {
	if !score.IsKnown() {
		return "-"
	}
	return fmt.Sprintf("%d", int(score))
}
