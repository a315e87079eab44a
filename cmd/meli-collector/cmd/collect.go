package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/meli-collector/internal/collector"
	"github.com/donaldgifford/meli-collector/internal/config"
	"github.com/donaldgifford/meli-collector/internal/export"
	"github.com/donaldgifford/meli-collector/internal/metrics"
	"github.com/donaldgifford/meli-collector/internal/notify"
	"github.com/donaldgifford/meli-collector/pkg/logger"
)

const notifyTimeout = 10 * time.Second

func (a *app) collectCommand() *cobra.Command {
	var terms []string

	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect every configured term and export the records to CSV",
		Long: "Searches each term in order, fetches the details of every match and\n" +
			"writes one CSV file to the output directory. Failed items are skipped,\n" +
			"failed terms are listed in the summary, and nothing is written when\n" +
			"no record could be collected.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCollect(cmd, terms)
		},
	}

	f := collectCmd.Flags()
	f.StringArrayVar(&terms, "term", nil, "search term, repeatable (replaces configured terms)")
	f.String("output-dir", "", "directory for the CSV export")
	f.Int("max-pages", 0, "search result pages read per term")
	f.String("metrics-textfile", "", "write Prometheus metrics to this file after the run")

	cobra.CheckErr(a.v.BindPFlag("export.output_dir", f.Lookup("output-dir")))
	cobra.CheckErr(a.v.BindPFlag("collection.max_pages", f.Lookup("max-pages")))
	cobra.CheckErr(a.v.BindPFlag("metrics.textfile", f.Lookup("metrics-textfile")))

	return collectCmd
}

func (a *app) runCollect(cmd *cobra.Command, terms []string) error {
	cfg, err := a.loadConfig(func(c *config.Config) {
		if len(terms) > 0 {
			c.Collection.Terms = terms
		}
	})
	if err != nil {
		return err
	}

	log, runID := logger.ForRun(newLogger(cfg, cmd.ErrOrStderr()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	retry := cfg.Marketplace.Retry.Policy()
	if retry.Unbounded() {
		log.Warn("API retries are unbounded; a call that keeps failing blocks the run until interrupted")
	}

	c := collector.New(newAPIClient(cfg, log),
		collector.WithLogger(log),
		collector.WithPageSize(cfg.Collection.Limit),
		collector.WithOffset(cfg.Collection.Offset),
		collector.WithMaxPages(cfg.Collection.MaxPages),
		collector.WithDetailCache(cfg.Collection.DetailCacheSize),
	)

	res, runErr := c.Run(ctx, cfg.Collection.Terms)
	if runErr != nil {
		log.Warn("run interrupted, exporting partial results", "error", runErr)
	}

	path, exportErr := exportResult(cfg, res, log)

	writeMetricsFile(cfg.Metrics.Textfile, log)

	out := cmd.OutOrStdout()
	if a.jsonOutput() {
		if err := outputJSON(out, newRunSummary(runID, res, path)); err != nil {
			return err
		}
	} else if err := printSummary(out, runID, res, path); err != nil {
		return err
	}

	// Reports still go out when the run was interrupted.
	report := notify.NewReport(runID, res, path)
	if err := newNotifier(cfg, log).SendRunReport(context.WithoutCancel(cmd.Context()), report); err != nil {
		log.Error("failed to send run report", "error", err)
	}

	if exportErr != nil {
		return exportErr
	}
	if runErr != nil {
		return fmt.Errorf("collection interrupted: %w", runErr)
	}
	return nil
}

// exportResult writes the CSV file and returns its path, or "" when nothing
// was collected.
func exportResult(cfg *config.Config, res *collector.Result, log *slog.Logger) (string, error) {
	if res.Empty() {
		log.Warn("no data collected, skipping export")
		return "", nil
	}

	columns := cfg.Export.Columns
	if len(columns) == 0 {
		columns = export.DefaultColumns
	}

	table, err := export.Project(res.Records, columns)
	if err != nil {
		return "", fmt.Errorf("projecting records: %w", err)
	}

	path, err := export.WriteFile(cfg.Export.OutputDir, res.StartedAt, table)
	if err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}

	log.Info("export written",
		"path", path,
		"rows", len(table.Rows),
		"columns", len(table.Columns),
	)
	return path, nil
}

func newNotifier(cfg *config.Config, log *slog.Logger) notify.Notifier {
	if d := cfg.Notifications.Discord; d.Enabled {
		return notify.NewDiscordNotifier(d.WebhookURL,
			notify.WithHTTPClient(&http.Client{Timeout: notifyTimeout}),
		)
	}
	return notify.NewNoOpNotifier(log)
}

func writeMetricsFile(path string, log *slog.Logger) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		log.Error("failed to write metrics file", "path", path, "error", err)
		return
	}
	log.Debug("metrics written", "path", path)
}

