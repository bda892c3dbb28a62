package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neilberkman/leadrider/internal/core/crm"
	"github.com/neilberkman/leadrider/internal/core/export"
	"github.com/spf13/cobra"
)

var exportOutput string

var leadsExportCmd = &cobra.Command{
	Use:   "export <lead-id>",
	Short: "Export a lead and its timeline to markdown",
	Long: `Export a lead to a markdown file using the lead template.

By default exports to the current directory as lead-<id>.md. Use "-o -" for stdout.
Customize the output with ~/.config/leadrider/lead_template.mustache.

Examples:
  leadrider leads export 12
  leadrider leads export 12 -o ~/jane.md
  leadrider leads export 12 -o -`,
	Args: cobra.ExactArgs(1),
	RunE: runLeadsExport,
}

func init() {
	leadsCmd.AddCommand(leadsExportCmd)
	leadsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: lead-<id>.md in current directory)")
}

func runLeadsExport(cmd *cobra.Command, args []string) error {
	id, err := parseLeadID(args[0])
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()
	if err := a.requireUser(ctx); err != nil {
		return err
	}

	detail, err := a.crm.LeadDetail(ctx, id)
	if errors.Is(err, crm.ErrLeadNotFound) {
		return fmt.Errorf("lead %d not found", id)
	}
	if err != nil {
		return failure(err, "Failed to fetch lead data")
	}

	out, err := export.Render(a.cfg.LeadTemplate, detail)
	if err != nil {
		return err
	}

	if exportOutput == "-" {
		fmt.Print(out)
		return nil
	}

	outputPath := exportOutput
	if outputPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		outputPath = filepath.Join(cwd, fmt.Sprintf("lead-%d.md", id))
	}

	if err := os.WriteFile(outputPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	fmt.Printf("Exported lead %d to %s\n", id, outputPath)
	return nil
}
