package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/neilberkman/leadrider/internal/core/export"
	"github.com/neilberkman/leadrider/internal/core/leadquery"
	"github.com/neilberkman/leadrider/internal/core/models"
	"github.com/spf13/cobra"
)

var (
	leadsSearch string
	leadsStatus string
	leadsPage   int
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List and manage leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active leads, newest first",
	Long: `List active leads one page (10 leads) at a time.

Examples:
  leadrider leads list
  leadrider leads list --search jane
  leadrider leads list --status qualified --page 2`,
	Args: cobra.NoArgs,
	RunE: runLeadsList,
}

func init() {
	rootCmd.AddCommand(leadsCmd)
	leadsCmd.AddCommand(leadsListCmd)
	leadsListCmd.Flags().StringVarP(&leadsSearch, "search", "s", "", "Match name, email or phone")
	leadsListCmd.Flags().StringVar(&leadsStatus, "status", "All", "Filter by status: All, "+strings.Join(statusNames(), ", "))
	leadsListCmd.Flags().IntVar(&leadsPage, "page", 1, "Page number")
}

func runLeadsList(cmd *cobra.Command, args []string) error {
	status, err := models.ParseStatusFilter(leadsStatus)
	if err != nil {
		return err
	}
	q, err := leadquery.PageQuery(leadsPage, strings.TrimSpace(leadsSearch), status)
	if err != nil {
		return fmt.Errorf("--page: %w", err)
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

	var page *models.LeadPage
	err = withSpinner("Fetching leads...", func() error {
		var err error
		page, err = a.crm.ListLeads(ctx, q)
		return err
	})
	if err != nil {
		return failure(err, "Failed to fetch leads")
	}

	if len(page.Leads) == 0 {
		if leadsPage > 1 {
			fmt.Printf("No leads on page %d.\n", leadsPage)
		} else {
			fmt.Println("No leads found. Create one with 'leadrider leads create'.")
		}
		return nil
	}

	now := time.Now()
	fmt.Printf("%-6s %-24s %-30s %-12s %-24s %s\n", "ID", "NAME", "EMAIL", "STATUS", "BUDGET", "CREATED")
	for _, l := range page.Leads {
		fmt.Printf("%-6d %-24s %-30s %-12s %-24s %s\n",
			l.ID,
			truncate(l.FullName(), 24),
			truncate(l.Email, 30),
			l.Status,
			export.Budget(l),
			export.Relative(l.CreatedAt, now),
		)
	}
	fmt.Println()

	total := leadquery.TotalPages(leadsPage, page)
	switch {
	case page.HasTotal:
		fmt.Printf("Page %d of %d (%d leads)\n", leadsPage, total, page.Total)
	case total > leadsPage:
		fmt.Printf("Page %d (more with --page %d)\n", leadsPage, leadsPage+1)
	default:
		fmt.Printf("Page %d\n", leadsPage)
	}
	return nil
}

func statusNames() []string {
	names := make([]string, len(models.LeadStatuses))
	for i, s := range models.LeadStatuses {
		names[i] = string(s)
	}
	return names
}

func parseLeadID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid lead id %q", arg)
	}
	return id, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
