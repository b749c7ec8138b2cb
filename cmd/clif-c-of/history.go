package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/clif-c-of-mcp-server/internal/config"
	"github.com/clif-c-of-mcp-server/internal/domain"
	"github.com/clif-c-of-mcp-server/internal/history"
)

func historyCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved evaluations",
	}

	cmd.AddCommand(historyListCmd(flags))
	cmd.AddCommand(historyShowCmd(flags))
	cmd.AddCommand(historyRemoveCmd(flags))
	cmd.AddCommand(historyClearCmd(flags))
	cmd.AddCommand(historyExportCmd(flags))
	cmd.AddCommand(historyImportCmd(flags))
	return cmd
}

// withHistory runs fn with the application and its opened history store.
func withHistory(cmd *cobra.Command, flags *globalFlags, fn func(a *app, store *history.Store) error) error {
	a, err := loadApp(flags)
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.openHistory(cmd.Context())
	if err != nil {
		return err
	}
	defer a.closeHistory(store)

	return fn(a, store)
}

// entryFilter selects history entries by grade and failed organ.
type entryFilter struct {
	grade domain.Grade
	organ domain.Organ
}

func newEntryFilter(grade, organ string) (entryFilter, error) {
	var f entryFilter
	if grade != "" {
		g, err := domain.ParseGrade(grade)
		if err != nil {
			return f, err
		}
		f.grade = g
	}
	if organ != "" {
		o := domain.Organ(organ)
		if !o.IsValid() {
			return f, fmt.Errorf("invalid organ: %q", organ)
		}
		f.organ = o
	}
	return f, nil
}

func (f entryFilter) apply(entries []domain.HistoryEntry) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if f.grade != "" && e.Grade != f.grade {
			continue
		}
		if f.organ != "" && !slices.Contains(e.OrganFailures, f.organ) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func historyListCmd(flags *globalFlags) *cobra.Command {
	var output, grade, organ string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved evaluations, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			filter, err := newEntryFilter(grade, organ)
			if err != nil {
				return err
			}
			return withHistory(cmd, flags, func(a *app, store *history.Store) error {
				entries := filter.apply(store.List())
				if output == outputJSON {
					return writeJSON(cmd.OutOrStdout(), entries)
				}
				writeHistory(cmd.OutOrStdout(), entries)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text, json)")
	cmd.Flags().StringVar(&grade, "grade", "", `only entries with this grade ("No ACLF", "ACLF-1", "ACLF-2", "ACLF-3")`)
	cmd.Flags().StringVar(&organ, "organ", "", "only entries where this organ failed (liver, kidney, brain, coagulation, circulation, respiratory)")
	return cmd
}

func historyShowCmd(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			return withHistory(cmd, flags, func(a *app, store *history.Store) error {
				entry, ok := store.Get(args[0])
				if !ok {
					return fmt.Errorf("no saved evaluation with id %s", args[0])
				}
				out := cmd.OutOrStdout()
				if output == outputJSON {
					return writeJSON(out, entry)
				}
				fmt.Fprintf(out, "Saved:        %s\n", entry.Timestamp.Local().Format(time.DateTime))
				writeResult(out, &entry.DiagnosisResult)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text, json)")
	return cmd
}

func historyRemoveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a saved evaluation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, flags, func(a *app, store *history.Store) error {
				if !store.Remove(cmd.Context(), args[0]) {
					return fmt.Errorf("no saved evaluation with id %s", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}

func historyClearCmd(flags *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every saved evaluation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear history without --yes")
			}
			return withHistory(cmd, flags, func(a *app, store *history.Store) error {
				count := store.Len()
				store.Clear(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d evaluations\n", count)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm clearing the history")
	return cmd
}

func historyExportCmd(flags *globalFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export saved evaluations as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, flags, func(a *app, store *history.Store) error {
				if file == "-" {
					return store.ExportJSON(cmd.OutOrStdout())
				}

				path := file
				if path == "" {
					path = filepath.Join(config.ExportDir(a.config.DataDir), history.ExportFileName(time.Now()))
				}
				if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
					return fmt.Errorf("failed to create export directory: %w", err)
				}

				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create export file: %w", err)
				}
				defer f.Close()

				if err := store.ExportJSON(f); err != nil {
					return fmt.Errorf("failed to export history: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d evaluations to %s\n", store.Len(), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "export file (- for stdout; default: a timestamped file in the exports directory)")
	return cmd
}

func historyImportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge evaluations from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer f.Close()

			return withHistory(cmd, flags, func(a *app, store *history.Store) error {
				imported, skipped, err := store.ImportJSON(cmd.Context(), f)
				if err != nil {
					return fmt.Errorf("failed to import history: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d evaluations (%d skipped)\n", imported, skipped)
				return nil
			})
		},
	}
}
