package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/clif-c-of-mcp-server/internal/config"
	"github.com/clif-c-of-mcp-server/internal/mcp"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator as an MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			// stdout carries the MCP protocol
			if a.config.Logging.Output == "stdout" {
				a.logger.SetOutput(os.Stderr)
				a.logger.Warn("Logging to stdout is not possible while serving MCP, using stderr")
			}

			ctx := cmd.Context()
			store, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			defer a.closeHistory(store)

			server, err := mcp.NewServer(a.config.MCP, a.calculator(), a.logger,
				mcp.WithHistory(store),
				mcp.WithExportDir(config.ExportDir(a.config.DataDir)),
			)
			if err != nil {
				return err
			}

			if err := server.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			a.logger.Info("CLIF-C OF MCP server stopped")
			return nil
		},
	}
}
