package main

import (
	"github.com/spf13/cobra"

	"github.com/clif-c-of-mcp-server/internal/setup"
)

func setupCmd(flags *globalFlags) *cobra.Command {
	var claudeConfig string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the calculator with Claude Desktop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newSetupCLI(cmd).Wizard(claudeConfig)
		},
	}
	cmd.PersistentFlags().StringVar(&claudeConfig, "claude-config", "", "Claude Desktop config file (detected when empty)")

	var binary string
	var yes bool
	claudeDesktop := &cobra.Command{
		Use:   "claude-desktop",
		Short: "Add the calculator to Claude Desktop's MCP servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newSetupCLI(cmd).ClaudeDesktop(setup.Options{
				BinaryPath:  binary,
				DataDir:     flags.dataDir,
				ConfigPath:  claudeConfig,
				AutoConfirm: yes,
			})
		},
	}
	claudeDesktop.Flags().StringVar(&binary, "binary", "", "path to the clif-c-of binary (default: this executable)")
	claudeDesktop.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the Claude Desktop integration status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newSetupCLI(cmd).ShowStatus(claudeConfig)
		},
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the Claude Desktop integration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newSetupCLI(cmd).Validate(claudeConfig)
		},
	}

	wizard := &cobra.Command{
		Use:   "wizard",
		Short: "Run the interactive setup wizard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newSetupCLI(cmd).Wizard(claudeConfig)
		},
	}

	cmd.AddCommand(claudeDesktop, status, validate, wizard)
	return cmd
}

func newSetupCLI(cmd *cobra.Command) *setup.CLI {
	return setup.NewCLI(cmd.InOrStdin(), cmd.OutOrStdout())
}
