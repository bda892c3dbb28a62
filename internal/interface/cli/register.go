package cli

import (
	"fmt"

	"github.com/neilberkman/leadrider/internal/core/models"
	"github.com/spf13/cobra"
)

var registerInput models.Registration

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account on the CRM backend",
	Long: `Create an account. Prompts for anything not given as a flag.
Run 'leadrider login' afterwards.`,
	Args: cobra.NoArgs,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVar(&registerInput.Username, "username", "", "Username")
	registerCmd.Flags().StringVar(&registerInput.Email, "email", "", "Email address")
	registerCmd.Flags().StringVar(&registerInput.FirstName, "first-name", "", "First name")
	registerCmd.Flags().StringVar(&registerInput.LastName, "last-name", "", "Last name")
	registerCmd.Flags().StringVar(&registerInput.Password, "password", "", "Password")
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	reg := registerInput
	fields := []struct {
		dst   *string
		label string
	}{
		{&reg.Username, "Username"},
		{&reg.Email, "Email"},
		{&reg.FirstName, "First name"},
		{&reg.LastName, "Last name"},
		{&reg.Password, "Password"},
	}
	for _, f := range fields {
		if *f.dst, err = orPrompt(*f.dst, f.label); err != nil {
			return err
		}
	}
	if err := reg.Validate(); err != nil {
		return err
	}

	var user *models.User
	err = withSpinner("Creating account...", func() error {
		var err error
		user, err = a.crm.Register(cmd.Context(), reg)
		return err
	})
	if err != nil {
		return failure(err, "Registration failed")
	}

	fmt.Printf("Account %q created. Run 'leadrider login' to sign in.\n", user.Username)
	return nil
}
