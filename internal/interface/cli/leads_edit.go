package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/neilberkman/leadrider/internal/core/crm"
	"github.com/neilberkman/leadrider/internal/core/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// leadFlags backs both create and update.
type leadFlags struct {
	firstName string
	lastName  string
	email     string
	phone     string
	budgetMin string
	budgetMax string
	interest  string
	status    string
	source    string
}

var (
	createFlags leadFlags
	updateFlags leadFlags
	deleteYes   bool
)

var leadsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a lead",
	Long: `Create a lead. Name and email are prompted for when not given.

Examples:
  leadrider leads create --first-name Jane --last-name Doe --email jane@example.com
  leadrider leads create --first-name Jane --last-name Doe --email jane@example.com --budget-min 300000 --budget-max 450000`,
	Args: cobra.NoArgs,
	RunE: runLeadsCreate,
}

var leadsUpdateCmd = &cobra.Command{
	Use:   "update <lead-id>",
	Short: "Update a lead; only the given flags change",
	Long: `Update a lead. The current values are kept for every flag not given.
Pass an empty value (--phone "") to clear an optional field.

Examples:
  leadrider leads update 12 --status qualified
  leadrider leads update 12 --budget-max 600000 --source referral`,
	Args: cobra.ExactArgs(1),
	RunE: runLeadsUpdate,
}

var leadsDeleteCmd = &cobra.Command{
	Use:   "delete <lead-id>",
	Short: "Delete a lead (soft delete)",
	Long: `Delete a lead. The backend marks it inactive: it disappears from
listings but its history is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runLeadsDelete,
}

func init() {
	leadsCmd.AddCommand(leadsCreateCmd)
	leadsCmd.AddCommand(leadsUpdateCmd)
	leadsCmd.AddCommand(leadsDeleteCmd)

	createFlags.register(leadsCreateCmd.Flags(), false)
	updateFlags.register(leadsUpdateCmd.Flags(), true)
	leadsDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}

func (f *leadFlags) register(fs *pflag.FlagSet, withStatus bool) {
	fs.StringVar(&f.firstName, "first-name", "", "First name")
	fs.StringVar(&f.lastName, "last-name", "", "Last name")
	fs.StringVar(&f.email, "email", "", "Email address")
	fs.StringVar(&f.phone, "phone", "", "Phone number")
	fs.StringVar(&f.budgetMin, "budget-min", "", "Minimum budget")
	fs.StringVar(&f.budgetMax, "budget-max", "", "Maximum budget")
	fs.StringVar(&f.interest, "interest", "", "Property interest")
	if withStatus {
		fs.StringVar(&f.status, "status", "", "Status: "+strings.Join(statusNames(), ", "))
		fs.StringVar(&f.source, "source", "", "Lead source")
	}
}

func runLeadsCreate(cmd *cobra.Command, args []string) error {
	f := createFlags
	in := models.LeadInput{Phone: f.phone}
	var err error
	if in.FirstName, err = orPrompt(f.firstName, "First name"); err != nil {
		return err
	}
	if in.LastName, err = orPrompt(f.lastName, "Last name"); err != nil {
		return err
	}
	if in.Email, err = orPrompt(f.email, "Email"); err != nil {
		return err
	}
	if in.BudgetMin, err = parseBudget(f.budgetMin, "--budget-min"); err != nil {
		return err
	}
	if in.BudgetMax, err = parseBudget(f.budgetMax, "--budget-max"); err != nil {
		return err
	}
	in.PropertyInterest = optionalText(f.interest)
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

	lead, err := a.crm.CreateLead(ctx, in)
	if err != nil {
		return failure(err, "Failed to create lead")
	}
	fmt.Printf("Created lead %d: %s <%s>\n", lead.ID, lead.FullName(), lead.Email)
	return nil
}

func runLeadsUpdate(cmd *cobra.Command, args []string) error {
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

	lead, err := a.crm.GetLead(ctx, id)
	if errors.Is(err, crm.ErrLeadNotFound) {
		return fmt.Errorf("lead %d not found", id)
	}
	if err != nil {
		return failure(err, "Failed to fetch lead data")
	}

	upd := models.UpdateFromLead(*lead)
	if err := updateFlags.apply(cmd.Flags(), &upd); err != nil {
		return err
	}
	if err := upd.Validate(); err != nil {
		return err
	}

	updated, err := a.crm.UpdateLead(ctx, id, upd)
	if err != nil {
		return failure(err, "Failed to update lead")
	}
	fmt.Printf("Updated lead %d: %s (%s)\n", updated.ID, updated.FullName(), updated.Status)
	return nil
}

// apply copies every flag the user set onto upd.
func (f *leadFlags) apply(fs *pflag.FlagSet, upd *models.LeadUpdate) error {
	var err error
	if fs.Changed("first-name") {
		upd.FirstName = f.firstName
	}
	if fs.Changed("last-name") {
		upd.LastName = f.lastName
	}
	if fs.Changed("email") {
		upd.Email = f.email
	}
	if fs.Changed("phone") {
		upd.Phone = f.phone
	}
	if fs.Changed("budget-min") {
		if upd.BudgetMin, err = parseBudget(f.budgetMin, "--budget-min"); err != nil {
			return err
		}
	}
	if fs.Changed("budget-max") {
		if upd.BudgetMax, err = parseBudget(f.budgetMax, "--budget-max"); err != nil {
			return err
		}
	}
	if fs.Changed("interest") {
		upd.PropertyInterest = optionalText(f.interest)
	}
	if fs.Changed("status") {
		upd.Status = models.LeadStatus(strings.ToLower(strings.TrimSpace(f.status)))
	}
	if fs.Changed("source") {
		upd.Source = f.source
	}
	return nil
}

func runLeadsDelete(cmd *cobra.Command, args []string) error {
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

	lead, err := a.crm.GetLead(ctx, id)
	if errors.Is(err, crm.ErrLeadNotFound) {
		return fmt.Errorf("lead %d not found", id)
	}
	if err != nil {
		return failure(err, "Failed to fetch lead data")
	}

	if !deleteYes {
		ok, err := confirm(fmt.Sprintf("Delete %s? The lead is marked inactive and hidden from listings", lead.FullName()))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := a.crm.DeleteLead(ctx, id); err != nil {
		return failure(err, "Failed to delete lead")
	}
	fmt.Printf("Deleted lead %d.\n", id)
	return nil
}

// parseBudget reads an optional positive amount; "" means no value.
func parseBudget(s, flag string) (*float64, error) {
	s = strings.TrimSpace(strings.NewReplacer(",", "", "$", "").Replace(s))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a number", flag, s)
	}
	return &v, nil
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
