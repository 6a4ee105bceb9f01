package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/pagediff/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/pagediff.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new pagediff tuning file",
		Long: `Initialize creates a new .pagediff tuning file in the current directory.

The generated file documents every setting with its default value:
- Matching threshold and strategy
- Fusion weights for pages, segments and text
- Segmentation and visual comparison parameters
- Severity overrides and content-type keywords

Examples:
  # Create .pagediff in current directory
  pagediff init

  # Create config file at a specific path
  pagediff init -o ~/.config/pagediff/config.yaml

  # Force overwrite existing file
  pagediff init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/pagediff.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to tune the comparison, for example:")
	fmt.Fprintln(out, "  - Matching threshold and strategy")
	fmt.Fprintln(out, "  - Weights of the visual and text signals")
	fmt.Fprintln(out, "  - Severity of each difference category")

	return nil
}
