package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neilberkman/leadrider/internal/fakecrm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	mockAddr   string
	mockNoSeed bool
)

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Run an in-memory CRM backend for demos",
	Long: `Run an in-memory CRM backend with the same API as the real one.

Seeds a demo account (demo / demo1234) and a few leads unless --no-seed is given.
Data is lost when the server stops.

Examples:
  leadrider mock-server
  leadrider mock-server --addr :9000
  leadrider --api-url http://localhost:8000 login -u demo`,
	Args: cobra.NoArgs,
	RunE: runMockServer,
}

func init() {
	rootCmd.AddCommand(mockServerCmd)
	mockServerCmd.Flags().StringVar(&mockAddr, "addr", "localhost:8000", "Listen address")
	mockServerCmd.Flags().BoolVar(&mockNoSeed, "no-seed", false, "Start with no accounts or leads")
}

func runMockServer(cmd *cobra.Command, args []string) error {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if debugLog {
		log.SetLevel(logrus.DebugLevel)
	}

	backend := fakecrm.New(fakecrm.WithLogger(log))
	if !mockNoSeed {
		if err := backend.Seed(); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              mockAddr,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	fmt.Fprintf(os.Stderr, "Mock CRM listening on http://%s\n", mockAddr)
	if !mockNoSeed {
		fmt.Fprintf(os.Stderr, "Demo login: %s / %s\n", fakecrm.DemoUsername, fakecrm.DemoPassword)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("mock server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
