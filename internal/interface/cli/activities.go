package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neilberkman/leadrider/internal/core/crm"
	"github.com/neilberkman/leadrider/internal/core/dates"
	"github.com/neilberkman/leadrider/internal/core/export"
	"github.com/neilberkman/leadrider/internal/core/models"
	"github.com/spf13/cobra"
)

var (
	activityType     string
	activityTitle    string
	activityNotes    string
	activityDate     string
	activityDuration int
)

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "List and log activities on a lead",
}

var activitiesListCmd = &cobra.Command{
	Use:   "list <lead-id>",
	Short: "List a lead's activities, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runActivitiesList,
}

var activitiesAddCmd = &cobra.Command{
	Use:   "add <lead-id>",
	Short: "Log a call, email, meeting or note",
	Long: `Log an activity against a lead.

The date accepts YYYY-MM-DD or phrases like "yesterday" and "last friday".
Duration (minutes) is only kept for calls.

Examples:
  leadrider activities add 12 --title "Intro call" --duration 15
  leadrider activities add 12 --type meeting --title "Showing" --date "next tuesday"
  leadrider activities add 12 --type note --title "Prefers east side" --notes "Near schools"`,
	Args: cobra.ExactArgs(1),
	RunE: runActivitiesAdd,
}

func init() {
	rootCmd.AddCommand(activitiesCmd)
	activitiesCmd.AddCommand(activitiesListCmd)
	activitiesCmd.AddCommand(activitiesAddCmd)

	f := activitiesAddCmd.Flags()
	f.StringVarP(&activityType, "type", "t", string(models.ActivityCall), "Activity type: call, email, meeting, note")
	f.StringVar(&activityTitle, "title", "", "Title")
	f.StringVar(&activityNotes, "notes", "", "Notes")
	f.StringVar(&activityDate, "date", "today", "Activity date")
	f.IntVar(&activityDuration, "duration", 0, "Call duration in minutes")
}

func runActivitiesList(cmd *cobra.Command, args []string) error {
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

	activities, err := a.crm.ListActivities(ctx, id)
	if errors.Is(err, crm.ErrLeadNotFound) {
		return fmt.Errorf("lead %d not found", id)
	}
	if err != nil {
		return failure(err, "Failed to fetch activities")
	}

	if len(activities) == 0 {
		fmt.Println("No activities logged yet.")
		return nil
	}
	for _, act := range activities {
		fmt.Printf("[%d] %s %-8s %s  %s", act.ID, export.ActivityIcon(act.ActivityType), act.ActivityType, export.Date(act.ActivityDate), act.Title)
		if d := export.Duration(act); d != "" {
			fmt.Printf(" (%s)", d)
		}
		fmt.Printf("  - %s\n", act.UserName)
	}
	return nil
}

func runActivitiesAdd(cmd *cobra.Command, args []string) error {
	id, err := parseLeadID(args[0])
	if err != nil {
		return err
	}

	date, err := dates.Normalize(activityDate, time.Now())
	if err != nil {
		return err
	}
	in := models.ActivityInput{
		ActivityType: models.ActivityType(strings.ToLower(activityType)),
		ActivityDate: date,
		Notes:        optionalText(activityNotes),
	}
	if in.Title, err = orPrompt(activityTitle, "Title"); err != nil {
		return err
	}
	if cmd.Flags().Changed("duration") {
		d := activityDuration
		in.Duration = &d
	}
	if err := in.Validate(); err != nil {
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

	act, err := a.crm.CreateActivity(ctx, id, in)
	if errors.Is(err, crm.ErrLeadNotFound) {
		return fmt.Errorf("lead %d not found", id)
	}
	if err != nil {
		return failure(err, "Failed to log activity")
	}
	fmt.Printf("Logged %s %q on %s.\n", act.ActivityType, act.Title, export.Date(act.ActivityDate))
	return nil
}
