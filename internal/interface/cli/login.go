package cli

import (
	"fmt"

	"github.com/neilberkman/leadrider/internal/core/models"
	"github.com/spf13/cobra"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the CRM backend",
	Long: `Log in and store the access token for later commands.

Prompts for anything not given as a flag.

Examples:
  leadrider login
  leadrider login --username agent`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	creds := models.Credentials{}
	if creds.Username, err = orPrompt(loginUsername, "Username"); err != nil {
		return err
	}
	if creds.Password, err = orPrompt(loginPassword, "Password"); err != nil {
		return err
	}
	if err := creds.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()

	var token string
	err = withSpinner("Signing in...", func() error {
		var err error
		token, err = a.crm.Login(ctx, creds)
		return err
	})
	if err != nil {
		return failure(err, "Login failed")
	}

	if err := a.session.Login(token); err != nil {
		return err
	}
	if err := a.session.Hydrate(ctx); err != nil {
		return failure(err, "Failed to load your profile")
	}

	fmt.Printf("Logged in as %s\n", a.session.User().DisplayName())
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.session.IsAuthenticated() {
		fmt.Println("Not logged in.")
		return nil
	}
	if err := a.session.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}
