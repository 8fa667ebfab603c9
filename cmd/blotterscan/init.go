package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blotterscan/blotterscan/internal/config"
)

//go:embed templates/blotterscan.yaml
var profileTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new portal profile file",
		Long: `Init creates a new .blotterscan portal profile in the current directory.

The generated file includes:
- The built-in selectors for the default booking portal
- Documentation for every configurable selector and label
- Commented examples for extracting extra record fields

Examples:
  # Create .blotterscan in current directory
  blotterscan init

  # Create profile at a specific path
  blotterscan init -o county.yaml

  # Force overwrite existing file
  blotterscan init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultProfileFile,
		"Output file path for the portal profile")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing profile file")

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
			return fmt.Errorf("profile file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := profileTemplate.ReadFile("templates/blotterscan.yaml")
	if err != nil {
		return fmt.Errorf("failed to read profile template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}

	fmt.Printf("Created portal profile: %s\n", outputPath)
	fmt.Println("\nEdit this file when the portal's page structure changes:")
	fmt.Println("  - Login and search form selectors")
	fmt.Println("  - Results page entry selector")
	fmt.Println("  - Record field labels, including extra fields")

	return nil
}
