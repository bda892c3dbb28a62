package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/neilberkman/leadrider/internal/core/crm"
	"github.com/neilberkman/leadrider/internal/core/export"
	"github.com/spf13/cobra"
)

var showCopyEmail bool

var leadsShowCmd = &cobra.Command{
	Use:   "show <lead-id>",
	Short: "Show a lead and its activity timeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runLeadsShow,
}

func init() {
	leadsCmd.AddCommand(leadsShowCmd)
	leadsShowCmd.Flags().BoolVar(&showCopyEmail, "copy-email", false, "Copy the lead's email to the clipboard")
}

func runLeadsShow(cmd *cobra.Command, args []string) error {
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

	var detail *crm.LeadDetail
	err = withSpinner("Loading lead...", func() error {
		var err error
		detail, err = a.crm.LeadDetail(ctx, id)
		return err
	})
	if errors.Is(err, crm.ErrLeadNotFound) {
		return fmt.Errorf("lead %d not found", id)
	}
	if err != nil {
		return failure(err, "Failed to fetch lead data")
	}

	l := detail.Lead
	fmt.Printf("%s\n", l.FullName())
	fmt.Printf("%s\n\n", export.PropertyInterest(l))
	fmt.Printf("  Email:    %s\n", l.Email)
	fmt.Printf("  Phone:    %s\n", export.Phone(l))
	fmt.Printf("  Status:   %s\n", l.Status)
	fmt.Printf("  Source:   %s\n", l.Source)
	fmt.Printf("  Budget:   %s\n", export.Budget(l))
	fmt.Printf("  Created:  %s\n", export.Date(l.CreatedAt))
	if !l.IsActive {
		fmt.Println("  (deleted)")
	}
	fmt.Println()

	fmt.Printf("Activity timeline (%d)\n", len(detail.Activities))
	if len(detail.Activities) == 0 {
		fmt.Println("  No activities logged yet.")
	}
	for _, act := range detail.Activities {
		line := fmt.Sprintf("  %s %s  %s", export.ActivityIcon(act.ActivityType), act.Title, export.Date(act.ActivityDate))
		if d := export.Duration(act); d != "" {
			line += "  " + d
		}
		fmt.Println(line)
		if act.Notes != nil && *act.Notes != "" {
			for _, n := range strings.Split(*act.Notes, "\n") {
				fmt.Printf("      %s\n", n)
			}
		}
		fmt.Printf("      Logged by %s\n", act.UserName)
	}

	if showCopyEmail {
		if err := clipboard.WriteAll(l.Email); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Printf("\nCopied %s to clipboard.\n", l.Email)
	}
	return nil
}
