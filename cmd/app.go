package cmd

import (
	"os"

	"github.com/nconklindev/warrantor/internal/auth"
	"github.com/nconklindev/warrantor/internal/config"
	"github.com/nconklindev/warrantor/internal/dashboard"
	"github.com/nconklindev/warrantor/internal/logging"
	"github.com/nconklindev/warrantor/internal/store"
	"github.com/nconklindev/warrantor/internal/warranty"

	"go.uber.org/zap"
)

// app bundles the services every command works with.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     *store.Store
	dashboard *dashboard.Dashboard
	warranty  *warranty.Service
	session   *auth.Session
}

func newApp(logToStderr bool) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg, logToStderr)
	if err != nil {
		return nil, err
	}

	verifier, err := auth.NewHashVerifier(cfg.PasswordHash)
	if err != nil {
		return nil, err
	}

	s, err := store.Open(cfg.Backend, cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     s,
		dashboard: dashboard.New(s, cfg.ExportDir, logger),
		warranty:  warranty.NewService(s, logger),
		session:   auth.NewSession(verifier),
	}, nil
}

// authenticate signs in with --password or $WARRANTOR_PASSWORD.
func (a *app) authenticate() error {
	pw := password
	if pw == "" {
		pw = os.Getenv("WARRANTOR_PASSWORD")
	}
	if err := a.session.Login(pw); err != nil {
		a.logger.Warn("Rejected admin password")
		return err
	}
	return nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// withApp opens the app, signs in and runs fn.
func withApp(fn func(a *app) error) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.authenticate(); err != nil {
		return err
	}
	return fn(a)
}
