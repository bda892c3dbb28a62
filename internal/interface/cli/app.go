package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/neilberkman/leadrider/internal/core/config"
	"github.com/neilberkman/leadrider/internal/core/crm"
	"github.com/neilberkman/leadrider/internal/core/db"
	"github.com/neilberkman/leadrider/internal/core/gateway"
	"github.com/neilberkman/leadrider/internal/core/logging"
	"github.com/neilberkman/leadrider/internal/core/session"
	"github.com/neilberkman/leadrider/internal/core/tokenstore"
	"github.com/sirupsen/logrus"
)

var errLoginRequired = errors.New("not logged in; run 'leadrider login' first")

// app is everything a command needs, wired once per invocation.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	crm     *crm.Client
	session *session.Manager

	closers []io.Closer
}

func openApp() (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if debugLog {
		cfg.LogLevel = "debug"
	}

	a := &app{cfg: cfg}
	log, logFile, err := logging.Setup(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a.log = log
	a.closers = append(a.closers, logFile)

	store, err := a.openTokenStore()
	if err != nil {
		a.Close()
		return nil, err
	}

	gw, err := gateway.New(cfg.APIURL,
		gateway.WithTimeout(cfg.Timeout()),
		gateway.WithUserAgent("leadrider/"+appVersion),
		gateway.WithLogger(log),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to configure backend client: %w", err)
	}
	a.crm = crm.New(gw)

	a.session, err = session.NewManager(store, a.crm, session.WithLogger(log))
	if err != nil {
		a.Close()
		return nil, err
	}
	gw.SetCredentials(a.session)

	log.WithFields(logrus.Fields{
		"api_url":     cfg.APIURL,
		"token_store": cfg.TokenStore,
	}).Debug("leadrider started")
	return a, nil
}

func (a *app) openTokenStore() (tokenstore.Store, error) {
	if a.cfg.TokenStore == config.TokenStoreFile {
		return tokenstore.NewFile(a.cfg.TokenPath()), nil
	}
	database, err := db.New(a.cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}
	a.closers = append(a.closers, database)
	return tokenstore.NewSQLite(database), nil
}

// Close releases the database and log file, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

// requireUser hydrates the stored session. Commands that talk to the backend call it first.
func (a *app) requireUser(ctx context.Context) error {
	if a.session.Token() == "" {
		return errLoginRequired
	}
	if err := a.session.Hydrate(ctx); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			return errLoginRequired
		}
		return fmt.Errorf("session expired or invalid, log in again: %w", err)
	}
	return nil
}

// failure turns a backend error into the message shown to the user.
func failure(err error, fallback string) error {
	if errors.Is(err, gateway.ErrUnauthorized) {
		return fmt.Errorf("%s: %s (you have been logged out)", fallback, gateway.Message(err, "unauthorized"))
	}
	return errors.New(gateway.Message(err, fallback))
}
