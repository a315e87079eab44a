// Package cmd implements the CLI commands for meli-collector.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/donaldgifford/meli-collector/internal/config"
	"github.com/donaldgifford/meli-collector/internal/meli"
	"github.com/donaldgifford/meli-collector/pkg/logger"
)

// EnvPrefix prefixes environment overrides, e.g. MELI_LOGGING_LEVEL.
const EnvPrefix = "MELI"

// app holds state shared by the commands of one root.
type app struct {
	cfgFile string
	v       *viper.Viper
}

var rootCmd = newRootCommand()

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "meli-collector",
		Short: "Collect Mercado Libre listings into a CSV export",
		Long: "meli-collector searches the Mercado Libre API for a list of terms,\n" +
			"fetches the details of every matching item and writes the records\n" +
			"that could be retrieved to a timestamped CSV file.",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (defaults only when empty)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text, json)")
	pf.String("output", "table", "output format (table, json)")

	cobra.CheckErr(a.v.BindPFlag("logging.level", pf.Lookup("log-level")))
	cobra.CheckErr(a.v.BindPFlag("logging.format", pf.Lookup("log-format")))
	cobra.CheckErr(a.v.BindPFlag("output", pf.Lookup("output")))

	root.AddCommand(a.collectCommand())
	root.AddCommand(a.searchCommand())
	root.AddCommand(a.itemCommand())
	root.AddCommand(versionCommand())

	return root
}

// loadConfig reads the config file, applies flag and environment overrides,
// then lets override adjust the result before validating it again.
func (a *app) loadConfig(override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if v := a.v.GetString("logging.level"); v != "" {
		cfg.Logging.Level = v
	}
	if v := a.v.GetString("logging.format"); v != "" {
		cfg.Logging.Format = v
	}
	if v := a.v.GetString("export.output_dir"); v != "" {
		cfg.Export.OutputDir = v
	}
	if v := a.v.GetString("metrics.textfile"); v != "" {
		cfg.Metrics.Textfile = v
	}
	if v := a.v.GetInt("collection.max_pages"); v > 0 {
		cfg.Collection.MaxPages = v
	}

	if override != nil {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (a *app) jsonOutput() bool {
	return a.v.GetString("output") == "json"
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: w,
	})
}

func newAPIClient(cfg *config.Config, log *slog.Logger) *meli.APIClient {
	m := cfg.Marketplace
	return meli.NewAPIClient(meli.StaticToken(m.AccessToken),
		meli.WithBaseURL(m.BaseURL),
		meli.WithSiteID(m.SiteID),
		meli.WithHTTPClient(&http.Client{Timeout: m.Timeout}),
		meli.WithRateLimiter(meli.NewRateLimiter(
			m.RateLimit.PerSecond,
			m.RateLimit.Burst,
			m.RateLimit.DailyLimit,
		)),
		meli.WithRetryPolicy(m.Retry.Policy()),
		meli.WithLogger(log),
	)
}
