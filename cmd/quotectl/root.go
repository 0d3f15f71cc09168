package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/classquotes/internal/adapters/cache"
	"github.com/jsamuelsen/classquotes/internal/adapters/clients"
	"github.com/jsamuelsen/classquotes/internal/adapters/clients/acl"
	"github.com/jsamuelsen/classquotes/internal/app"
	"github.com/jsamuelsen/classquotes/internal/platform/config"
	"github.com/jsamuelsen/classquotes/internal/platform/logging"
)

type rootOptions struct {
	profile   string
	configDir string
	baseURL   string
	cachePath string
	roles     string
	verbose   bool
	json      bool
}

// cli is built once per invocation by the root command's pre-run hook.
type cli struct {
	opts    *rootOptions
	cfg     *config.Config
	logger  *slog.Logger
	catalog *app.Catalog
	api     *acl.QuoteAPI
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	c := &cli{opts: opts}

	root := &cobra.Command{
		Use:           "quotectl",
		Short:         "Collect and browse classroom quotes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.api != nil {
				return c.api.Close()
			}

			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.profile, "profile", envOr("APP_PROFILE", "local"), "configuration profile")
	pf.StringVar(&opts.configDir, "config-dir", config.DefaultDir, "directory holding base.yaml and profile files")
	pf.StringVar(&opts.baseURL, "base-url", "", "quote API address (overrides client.base_url)")
	pf.StringVar(&opts.cachePath, "cache", "", "local snapshot file (overrides client.cache_path)")
	pf.StringVar(&opts.roles, "roles", "", "comma-separated roles sent with every request, e.g. admin")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log requests to stderr")
	pf.BoolVar(&opts.json, "json", false, "print JSON instead of a table")

	root.AddCommand(
		newListCmd(c),
		newAddCmd(c),
		newEditCmd(c),
		newDeleteCmd(c),
		newSyncCmd(c),
	)

	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	cfg, err := config.LoadFrom(c.opts.configDir, c.opts.profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if c.opts.baseURL != "" {
		cfg.Client.BaseURL = c.opts.baseURL
	}
	if c.opts.cachePath != "" {
		cfg.Client.CachePath = c.opts.cachePath
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level := "warn"
	if c.opts.verbose {
		level = "debug"
	}

	logger := logging.NewWithWriter(&logging.Config{
		Level:   level,
		Format:  "pretty",
		Service: "quotectl",
		Version: cfg.App.Version,
	}, cmd.ErrOrStderr())

	var headerFunc func(*http.Request)
	if c.opts.roles != "" {
		rolesHeader := cfg.Auth.RolesHeader
		headerFunc = func(r *http.Request) { r.Header.Set(rolesHeader, c.opts.roles) }
	}

	client, err := clients.New(&clients.Config{
		BaseURL:     cfg.Client.BaseURL,
		ServiceName: cfg.Client.ServiceName,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		HeaderFunc:  headerFunc,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating API client: %w", err)
	}

	c.cfg = cfg
	c.logger = logger
	c.api = acl.NewQuoteAPI(acl.QuoteAPIConfig{Client: client, Logger: logger})
	c.catalog = app.NewCatalog(app.CatalogConfig{
		Remote: c.api,
		Cache:  cache.NewFileCache(cfg.Client.CachePath),
		Logger: logger,
	})

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
