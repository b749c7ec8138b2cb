package setup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/clif-c-of-mcp-server/internal/config"
)

// CLI runs the interactive setup commands.
type CLI struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewCLI creates a new setup CLI reading answers from in and writing to out.
func NewCLI(in io.Reader, out io.Writer) *CLI {
	return &CLI{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (c *CLI) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *CLI) println(args ...any) {
	fmt.Fprintln(c.out, args...)
}

// confirm asks a yes/no question; an empty answer picks def.
func (c *CLI) confirm(question string, def bool) bool {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	c.printf("%s %s: ", question, hint)

	response, _ := c.reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	if response == "" {
		return def
	}
	return response == "y" || response == "yes"
}

// ClaudeDesktop configures Claude Desktop integration.
func (c *CLI) ClaudeDesktop(opts Options) error {
	if opts.BinaryPath == "" {
		if execPath, err := os.Executable(); err == nil {
			opts.BinaryPath = execPath
		}
	}

	configPath, _ := resolveConfigPath(opts.ConfigPath)
	c.println("Claude Desktop Configuration")
	c.println("============================")
	c.printf("Config file: %s\n", configPath)
	c.printf("Server binary: %s serve\n", opts.BinaryPath)
	if opts.DataDir != "" {
		c.printf("Data directory: %s\n", opts.DataDir)
	}
	c.println()

	if !opts.AutoConfirm && !c.confirm("Proceed with configuration?", true) {
		c.println("Configuration cancelled.")
		return nil
	}

	if err := ConfigureClaudeDesktop(opts); err != nil {
		return fmt.Errorf("failed to configure Claude Desktop: %w", err)
	}

	c.println()
	c.println("✓ Claude Desktop configured successfully!")
	c.println()
	c.println("Next steps:")
	c.println("  1. Restart Claude Desktop to load the new configuration")
	c.println("  2. Ask Claude: \"What MCP tools do you have available?\"")
	c.println("  3. Try: \"Calculate CLIF-C OF for bilirubin 3, creatinine 4, INR 1.5, BP 90/60, PaO2 250 on 2 L/min\"")
	c.println()
	return nil
}

// ShowStatus displays the current setup status.
func (c *CLI) ShowStatus(configPath string) error {
	status, err := GetStatus(configPath)
	if err != nil {
		return err
	}

	c.println("CLIF-C OF Calculator Status")
	c.println("===========================")
	c.println()

	c.println("Claude Desktop:")
	c.printf("  Config path: %s\n", status.ClaudeDesktopPath)
	if status.ClaudeDesktopConfigured {
		c.println("  Status: ✓ Configured")
		c.printf("  Binary: %s\n", status.ServerPath)
	} else {
		c.println("  Status: ✗ Not configured")
	}
	c.println()

	c.println("Data Directory:")
	c.printf("  Path: %s\n", status.DataDir)
	if _, err := os.Stat(status.DataDir); err == nil {
		c.println("  Status: ✓ Exists")
		if _, err := os.Stat(config.HistoryDBPath(status.DataDir)); err == nil {
			c.println("  History DB: ✓ Present")
		} else {
			c.println("  History DB: - Not created yet")
		}
	} else {
		c.println("  Status: - Will be created on first run")
	}
	c.println()

	if len(status.Issues) > 0 {
		c.println("Issues:")
		for _, issue := range status.Issues {
			c.printf("  ⚠ %s\n", issue)
		}
		c.println()
	}
	return nil
}

// Validate checks the current configuration.
func (c *CLI) Validate(configPath string) error {
	c.println("Validating configuration...")
	c.println()

	valid, issues := Validate(configPath)
	if valid {
		c.println("✓ Configuration is valid!")
	} else {
		c.println("✗ Configuration has issues:")
	}
	for _, issue := range issues {
		c.printf("  - %s\n", issue)
	}
	return nil
}

// Wizard runs the interactive setup wizard.
func (c *CLI) Wizard(configPath string) error {
	c.println()
	c.println("CLIF-C OF Calculator - Interactive Setup")
	c.println("========================================")
	c.println()

	c.println("Step 1: Checking current setup...")
	status, _ := GetStatus(configPath)
	if status != nil && status.ClaudeDesktopConfigured {
		c.println("✓ Claude Desktop is already configured!")
		if !c.confirm("Would you like to reconfigure?", false) {
			c.println()
			c.println("Setup complete. Your server is ready to use!")
			return nil
		}
	}

	c.println()
	c.println("Step 2: Configure Claude Desktop")
	c.println("--------------------------------")

	execPath, _ := os.Executable()
	binaryPath := c.ask("Server binary path", execPath)
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		c.printf("⚠ Warning: Binary not found at %s\n", binaryPath)
		if !c.confirm("Continue anyway?", false) {
			return fmt.Errorf("setup cancelled")
		}
	}
	dataDir := c.ask("Data directory", config.DefaultDataDir())

	c.println()
	c.println("Step 3: Applying configuration...")

	opts := Options{
		BinaryPath: binaryPath,
		DataDir:    dataDir,
		ConfigPath: configPath,
	}
	if err := ConfigureClaudeDesktop(opts); err != nil {
		return fmt.Errorf("failed to configure: %w", err)
	}
	if err := config.EnsureDataDir(dataDir); err != nil {
		c.printf("⚠ Warning: Could not create data directory: %v\n", err)
	}

	c.println()
	c.println("✓ Setup complete!")
	c.println()
	c.println("Next steps:")
	c.println("  1. Restart Claude Desktop to load the new configuration")
	c.println("  2. Start a new conversation with Claude")
	c.printf("  3. Run '%s setup status' at any time to check the setup\n", filepath.Base(binaryPath))
	c.println()
	return nil
}

// ask prompts for a value, returning def for an empty answer.
func (c *CLI) ask(question, def string) string {
	c.printf("%s [%s]: ", question, def)
	answer, _ := c.reader.ReadString('\n')
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def
	}
	return answer
}
