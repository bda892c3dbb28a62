package cli

import (
	"fmt"
	"strings"

	"github.com/neilberkman/leadrider/internal/core/export"
	"github.com/neilberkman/leadrider/internal/core/models"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the pipeline dashboard",
	Long: `Show lead and activity totals, leads by status and the most recent activities.

Example:
  leadrider stats`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()
	if err := a.requireUser(ctx); err != nil {
		return err
	}

	var stats *models.DashboardStats
	err = withSpinner("Loading dashboard...", func() error {
		var err error
		stats, err = a.crm.DashboardStatistics(ctx)
		return err
	})
	if err != nil {
		return failure(err, "Failed to fetch dashboard statistics")
	}

	fmt.Println("Dashboard")
	fmt.Println("=========")
	fmt.Println()
	fmt.Printf("Total Active Leads:        %s\n", export.StatValue(stats.TotalLeads))
	fmt.Printf("New Leads (This Week):     %s\n", export.StatValue(stats.NewLeadsThisWeek))
	fmt.Printf("Closed Leads (This Month): %s\n", export.StatValue(stats.ClosedLeadsThisMonth))
	fmt.Printf("Total Activities Logged:   %s\n", export.StatValue(stats.TotalActivities))
	fmt.Println()

	fmt.Println("Leads by status:")
	for _, line := range statusBars(stats.LeadsByStatus, 30) {
		fmt.Println("  " + line)
	}
	fmt.Println()

	fmt.Println("Recent activities:")
	if len(stats.RecentActivities) == 0 {
		fmt.Println("  No recent activities.")
	}
	for _, ra := range stats.RecentActivities {
		fmt.Printf("  %s %s\n", export.ActivityIcon(ra.ActivityType), ra.Title)
		fmt.Printf("      For lead %s on %s\n", export.RecentLeadName(ra), export.Date(ra.ActivityDate))
	}
	return nil
}

// statusBars renders a horizontal text bar chart scaled to width.
func statusBars(counts []models.StatusCount, width int) []string {
	if len(counts) == 0 {
		return []string{"No leads yet."}
	}
	maxCount := 0
	for _, c := range counts {
		maxCount = max(maxCount, c.Count)
	}
	lines := make([]string, 0, len(counts))
	for _, c := range counts {
		n := 0
		if maxCount > 0 {
			n = c.Count * width / maxCount
		}
		if c.Count > 0 && n == 0 {
			n = 1
		}
		lines = append(lines, fmt.Sprintf("%-12s %s %d", c.Status, strings.Repeat("█", n), c.Count))
	}
	return lines
}
