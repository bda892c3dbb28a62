package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/neilberkman/leadrider/internal/core/gateway"
	"github.com/neilberkman/leadrider/internal/core/session"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is logged in",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Backend: %s\n", a.cfg.APIURL)
	if !a.session.IsAuthenticated() {
		fmt.Println("Not logged in.")
		return nil
	}

	if exp, ok := session.TokenExpiry(a.session.Token()); ok {
		fmt.Printf("Token expires: %s (%s)\n", humanize.Time(exp), exp.Local().Format("Jan 2 15:04"))
	}

	if err := a.requireUser(cmd.Context()); err != nil {
		fmt.Printf("Could not verify the stored token (%s); you have been logged out.\n", gateway.Message(err, "request failed"))
		return nil
	}
	u := a.session.User()
	fmt.Printf("Logged in as: %s (%s)\n", u.DisplayName(), u.Username)
	if u.Email != "" {
		fmt.Printf("Email: %s\n", u.Email)
	}
	return nil
}
