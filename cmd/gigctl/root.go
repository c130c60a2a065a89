package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/api"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/chat"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/config"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/database"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/jobs"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/logging"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/media"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/phone"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/session"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/store"
)

// Gate annotation values. Commands default to gateHome.
const (
	gateKey      = "gate"
	gateNone     = "none"      // no session needed, no backend wiring
	gateOpen     = "open"      // wired, session optional
	gateSignedIn = "signed-in" // any authenticated session
	gateHome     = "home"      // complete profile required
)

type cli struct {
	verbose    bool
	configPath string
	output     string
	envErr     error

	cfg      *config.Config
	logger   *zap.Logger
	session  *session.Manager
	coord    *jobs.Coordinator
	chat     *chat.Service
	provider phone.Provider
	closers  []func() error
}

func (c *cli) root() *cobra.Command {
	root := &cobra.Command{
		Use:           "gigctl",
		Short:         "Gig marketplace client",
		Long:          "gigctl signs in with a phone number and drives jobs, applications, engagements and chat.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&c.configPath, "config", "", "YAML config file (default $GIG_CONFIG or gig.yaml)")
	pf.StringVarP(&c.output, "output", "o", "table", "output format: table or json")

	root.AddCommand(
		c.authCmd(),
		c.profileCmd(),
		c.jobsCmd(),
		c.applyCmd(),
		c.withdrawCmd(),
		c.applicationsCmd(),
		c.requestsCmd(),
		c.decideCmd(),
		c.engagementsCmd(),
		c.completeCmd(),
		c.rateCmd(),
		c.chatCmd(),
		c.skillsCmd(),
		c.serveFakeCmd(),
	)
	return root
}

func gate(cmd *cobra.Command) string {
	for p := cmd; p != nil; p = p.Parent() {
		if g, ok := p.Annotations[gateKey]; ok {
			return g
		}
	}
	return gateHome
}

func withGate(g string) map[string]string {
	return map[string]string{gateKey: g}
}

func (c *cli) setup(cmd *cobra.Command) error {
	if c.output != "table" && c.output != "json" {
		return apperr.Validation("gigctl", "output", "output must be table or json")
	}
	if c.configPath != "" {
		if err := os.Setenv("GIG_CONFIG", c.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if c.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.IsProduction())
	if err != nil {
		return err
	}
	c.cfg, c.logger = cfg, logger
	c.closers = append(c.closers, func() error {
		_ = logger.Sync()
		return nil
	})
	if c.envErr != nil {
		logger.Debug("no .env file loaded", zap.Error(c.envErr))
	}

	g := gate(cmd)
	if g == gateNone {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := c.wire(cmd.Context()); err != nil {
		return err
	}

	switch g {
	case gateSignedIn:
		return c.requireSignedIn(cmd.Context())
	case gateHome:
		return c.requireHome(cmd.Context())
	}
	return nil
}

func (c *cli) wire(ctx context.Context) error {
	cfg, logger := c.cfg, c.logger

	kv, closeKV, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	c.closers = append(c.closers, closeKV)

	client := api.New(cfg.APIBaseURL, api.WithTimeout(cfg.RequestTimeout), api.WithLogger(logger))

	switch cfg.PhoneProvider {
	case "fake":
		c.provider = phone.NewFake()
	default:
		c.provider = phone.NewFirebase(phone.FirebaseConfig{
			APIKey:             cfg.FirebaseAPIKey,
			IdentityBaseURL:    cfg.IdentityBaseURL,
			SecureTokenBaseURL: cfg.SecureTokenBaseURL,
			RecaptchaToken:     cfg.RecaptchaToken,
			Logger:             logger,
		})
	}

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithCountryCode(cfg.DefaultCountryCode),
	}
	if cfg.CloudinaryEnabled() {
		up, err := media.NewCloudinary(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, logger)
		if err != nil {
			logger.Warn("image uploads disabled", zap.Error(err))
		} else {
			opts = append(opts, session.WithUploader(up, cfg.UploadFolder))
		}
	}
	c.session = session.New(client, c.provider, kv, opts...)
	c.coord = jobs.New(client, logger)

	var archive chat.Archive
	if cfg.MongoURI != "" {
		m, err := database.ConnectMongo(ctx, cfg.MongoURI, logger)
		if err != nil {
			logger.Warn("chat archive disabled", zap.Error(err))
		} else {
			c.closers = append(c.closers, func() error { return m.Close(context.Background()) })
			a := chat.NewMongoArchive(m.DB)
			if err := a.EnsureIndexes(ctx); err != nil {
				logger.Warn("chat archive indexes", zap.Error(err))
			}
			archive = a
		}
	}
	c.chat = chat.NewService(client, archive, logger)
	return nil
}

// requireSignedIn restores the stored session and refuses without one.
func (c *cli) requireSignedIn(ctx context.Context) error {
	if _, err := c.session.Restore(ctx); err != nil {
		return err
	}
	if c.session.Route(session.DestProfileCompletion) == session.DestSignIn {
		return notSignedIn()
	}
	return nil
}

// requireHome is the command gate: an incomplete profile is sent to
// profile completion whatever was asked for.
func (c *cli) requireHome(ctx context.Context) error {
	if _, err := c.session.Restore(ctx); err != nil {
		return err
	}
	switch c.session.Route(session.DestHome) {
	case session.DestSignIn:
		return notSignedIn()
	case session.DestProfileCompletion:
		e := apperr.ErrProfileIncomplete.At("gigctl")
		e.Message = "complete your profile first: gigctl profile complete --name NAME --skills SKILL[,SKILL]"
		return e
	}
	return nil
}

func notSignedIn() error {
	e := apperr.ErrNotAuthenticated.At("gigctl")
	e.Message = "sign in first: gigctl auth login PHONE"
	return e
}

func (c *cli) close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *cli) printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
