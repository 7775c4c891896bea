package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/logocluster/internal/cluster"
	"github.com/nao1215/logocluster/internal/config"
	"github.com/nao1215/logocluster/internal/database"
	"github.com/nao1215/logocluster/internal/decode"
	"github.com/nao1215/logocluster/internal/fetch"
	"github.com/nao1215/logocluster/internal/locate"
	"github.com/nao1215/logocluster/internal/log"
	"github.com/nao1215/logocluster/internal/metrics"
	"github.com/nao1215/logocluster/internal/model"
	"github.com/nao1215/logocluster/internal/pipeline"
	"github.com/nao1215/logocluster/internal/report"
	"github.com/nao1215/logocluster/internal/source"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [domain...]",
		Short: "Find, hash and group the logos of websites",
		Long: `Scan processes every domain given as an argument or listed in an input file.

For each domain it locates logo candidates (icon links, social preview
images, header images, web app manifests and well-known icon paths),
downloads them in rank order and accepts the first image that decodes and
is large enough. The accepted logo is reduced to a 64-bit difference hash.
Finally, websites whose hashes differ in at most --threshold bits are
grouped together.

Examples:
  # Scan two domains
  logocluster scan example.com example.org

  # Scan a CSV file with a "domain" column using 16 workers
  logocluster scan -i domains.csv -w 16

  # Resume an interrupted scan and write groups as Markdown
  logocluster scan -i domains.csv --resume -f markdown -o groups.md

  # Expose Prometheus metrics while scanning
  logocluster scan -i domains.csv --metrics-addr :9102`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Input
	cmd.Flags().StringSliceP("input", "i", nil,
		"File listing domains, one per line or as a CSV column named \"domain\" (repeatable)")
	cmd.Flags().BoolP("resume", "R", false,
		"Skip domains that already reached a final status in a previous run")

	// Network behavior
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers, "Number of domains processed concurrently")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Read timeout for each request")
	cmd.Flags().Duration("connect-timeout", config.DefaultConnectTimeout, "Dial and TLS handshake timeout")
	cmd.Flags().Duration("page-timeout", config.DefaultPageTimeout, "Timeout for landing page requests")
	cmd.Flags().Duration("candidate-timeout", config.DefaultCandidateTimeout,
		"Upper bound for one candidate image including retries (0 disables it)")
	cmd.Flags().IntP("retries", "r", config.DefaultRetries, "Attempts per candidate image")
	cmd.Flags().Duration("retry-backoff", config.DefaultRetryBackoff, "Unit of the linear retry backoff")
	cmd.Flags().Duration("host-interval", config.DefaultHostInterval,
		"Minimum spacing between requests to the same host (0 disables it)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize, "Maximum response size in bytes")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header sent with every request")

	// Logo acceptance and grouping
	cmd.Flags().Int("min-size", config.DefaultMinLogoSize, "Smallest accepted logo width and height")
	addGroupingFlags(cmd)

	// Outputs
	cmd.Flags().String("results", config.DefaultResultsFile, "Per-domain result log (CSV)")
	cmd.Flags().String("db-dir", "", "Database directory (default: XDG data directory)")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while scanning")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .logocluster in current or home directory)")

	return cmd
}

// addGroupingFlags registers the flags shared by scan and group.
func addGroupingFlags(cmd *cobra.Command) {
	cmd.Flags().Int("threshold", config.DefaultThreshold,
		"Largest Hamming distance between two logos in one group (0-64)")
	cmd.Flags().Int("prefix-bits", config.DefaultPrefixBits, "Leading hash bits used as bucket key")
	cmd.Flags().Int("prefix-radius", config.DefaultPrefixRadius, "Largest key distance between compared buckets")
	cmd.Flags().StringP("output", "o", config.DefaultGroupsFile, "Group report path")
	cmd.Flags().StringP("format", "f", config.DefaultGroupFormat, "Group report format: csv, markdown, xlsx or json")
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.JSONLogs)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, cmd.OutOrStdout(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getJSONLogsFlag retrieves the json-logs flag from the command or its parent.
func getJSONLogsFlag(cmd *cobra.Command) bool {
	jsonLogs, err := cmd.Flags().GetBool("json-logs")
	if err != nil {
		jsonLogs, err = cmd.Root().PersistentFlags().GetBool("json-logs")
		if err != nil {
			return false
		}
	}
	return jsonLogs
}

// loadConfig returns the defaults overlaid with the configuration file and
// environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if err := config.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.JSONLogs = getJSONLogsFlag(cmd)
	return cfg, nil
}

// buildConfig creates a Config for a scan. Flags only override file and
// environment values when given explicitly.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	ints := map[string]*int{
		"workers":  &cfg.Workers,
		"retries":  &cfg.Retries,
		"min-size": &cfg.MinLogoSize,
	}
	for name, dst := range ints {
		if flags.Changed(name) {
			if *dst, err = flags.GetInt(name); err != nil {
				return nil, err
			}
		}
	}

	durations := map[string]*time.Duration{
		"timeout":           &cfg.Timeout,
		"connect-timeout":   &cfg.ConnectTimeout,
		"page-timeout":      &cfg.PageTimeout,
		"candidate-timeout": &cfg.CandidateTimeout,
		"retry-backoff":     &cfg.RetryBackoff,
		"host-interval":     &cfg.HostInterval,
	}
	for name, dst := range durations {
		if flags.Changed(name) {
			if *dst, err = flags.GetDuration(name); err != nil {
				return nil, err
			}
		}
	}

	strs := map[string]*string{
		"user-agent":   &cfg.UserAgent,
		"results":      &cfg.ResultsFile,
		"db-dir":       &cfg.DBDir,
		"metrics-addr": &cfg.MetricsAddr,
	}
	for name, dst := range strs {
		if flags.Changed(name) {
			if *dst, err = flags.GetString(name); err != nil {
				return nil, err
			}
		}
	}

	if flags.Changed("max-body-size") {
		if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
			return nil, err
		}
	}
	if err := applyGroupingFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if cfg.Inputs, err = flags.GetStringSlice("input"); err != nil {
		return nil, err
	}
	if cfg.Resume, err = flags.GetBool("resume"); err != nil {
		return nil, err
	}
	cfg.Targets = args

	return cfg, nil
}

// applyGroupingFlags copies explicitly given grouping flags into cfg.
func applyGroupingFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("threshold") {
		if cfg.Threshold, err = flags.GetInt("threshold"); err != nil {
			return err
		}
	}
	if flags.Changed("prefix-bits") {
		if cfg.PrefixBits, err = flags.GetInt("prefix-bits"); err != nil {
			return err
		}
	}
	if flags.Changed("prefix-radius") {
		if cfg.PrefixRadius, err = flags.GetInt("prefix-radius"); err != nil {
			return err
		}
	}
	if cfg.GroupsFile, err = flags.GetString("output"); err != nil {
		return err
	}
	if cfg.GroupFormat, err = flags.GetString("format"); err != nil {
		return err
	}
	return nil
}

// runScan executes a scan and writes its outputs.
func runScan(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	domains, err := source.Collect(cfg.Inputs, cfg.Targets)
	if err != nil {
		return err
	}

	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	runID, err := store.StartRun(ctx)
	if err != nil {
		return err
	}
	logger.Info("starting scan", "run", runID, "domains", len(domains), "workers", cfg.Workers, "db", store.Path())

	pending := domains
	var resumed []*model.Outcome
	if cfg.Resume {
		pending, resumed, err = splitCompleted(ctx, store, domains)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Resuming: %d of %d domains already processed\n", len(resumed), len(domains))
	}

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		m = metrics.New()
		srv, err := m.Listen(cfg.MetricsAddr, logger)
		if err != nil {
			return err
		}
		metricsCtx, cancelMetrics := context.WithCancel(ctx)
		defer cancelMetrics()
		go func() {
			if err := srv.Serve(metricsCtx); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	resultLog, closeResults, err := openResultLog(cfg.ResultsFile)
	if err != nil {
		return err
	}
	defer closeResults()
	for _, o := range resumed {
		if err := resultLog.Record(ctx, o); err != nil {
			return fmt.Errorf("failed to write result log: %w", err)
		}
	}

	runner := newRunner(cfg, store.Recorder(runID), resultLog, m, logger)
	fmt.Fprintf(out, "Scanning %d domains (workers: %d)...\n", len(pending), cfg.Workers)
	res, runErr := runner.Run(ctx, pending)
	if err := resultLog.Flush(); err != nil {
		logger.Error("failed to flush result log", "error", err)
	}
	if res == nil {
		return runErr
	}

	summary := res.Summary
	summary.RunID = runID
	for _, o := range resumed {
		summary.Record(o)
	}
	summary.Skipped = len(resumed)

	items := mergeItems(domains, res.Items, resumed)
	groups := clusterItems(cfg, items, &summary, logger)
	if m != nil {
		m.SetGroups(len(groups))
	}

	rep := report.NewReport(groups, summary)
	if err := writeGroupReport(cfg.GroupsFile, cfg.GroupFormat, rep); err != nil {
		return err
	}
	if err := store.FinishRun(context.WithoutCancel(ctx), summary); err != nil {
		logger.Error("failed to store run summary", "error", err)
	}

	if _, err := report.NewSummaryWriter(out, report.WithVerbose(cfg.Verbose)).Write(rep); err != nil {
		return err
	}
	fmt.Fprintf(out, "Groups written to %s\n", cfg.GroupsFile)
	fmt.Fprintf(out, "Results written to %s\n", cfg.ResultsFile)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("scan interrupted, rerun with --resume to continue: %w", runErr)
		}
		return runErr
	}
	return nil
}

// newRunner wires the fetcher, locator, decoder and pipeline for a scan.
func newRunner(cfg *config.Config, recorder pipeline.Sink, resultLog pipeline.Sink, m *metrics.Metrics, logger *slog.Logger) *pipeline.Runner {
	client := fetch.NewHTTPClient(fetch.ClientOptions{
		ConnectTimeout: cfg.ConnectTimeout,
		Timeout:        cfg.Timeout,
		Overrides:      cfg.Hosts,
	})

	fetchOpts := []fetch.Option{
		fetch.WithClient(client),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithBackoff(cfg.RetryBackoff),
		fetch.WithPageTimeout(cfg.PageTimeout),
		fetch.WithLogger(logger),
	}
	if cfg.HostInterval > 0 {
		fetchOpts = append(fetchOpts, fetch.WithLimiter(fetch.NewHostLimiter(cfg.HostInterval, cfg.HostBurst)))
	}
	decodeOpts := []decode.Option{decode.WithLogger(logger)}
	sinks := []pipeline.Sink{resultLog, recorder}
	if m != nil {
		fetchOpts = append(fetchOpts, fetch.WithObserver(m))
		decodeOpts = append(decodeOpts, decode.WithObserver(m.ObserveDecode))
		sinks = append(sinks, m)
	}

	fetcher := fetch.New(fetchOpts...)
	locator := locate.NewLocator(fetcher, locate.WithLogger(logger))
	decoder := decode.New(decodeOpts...)
	settings := pipeline.Settings{
		MinLogoSize:      cfg.MinLogoSize,
		Attempts:         cfg.Retries,
		CandidateTimeout: cfg.CandidateTimeout,
		Skip:             cfg.Hosts.Skip,
	}

	batch := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.DefaultPipeline(locator, fetcher, decoder, settings, logger)
		},
		pipeline.WithConcurrency(cfg.Workers),
		pipeline.WithBatchLogger(logger),
	)
	return pipeline.NewRunner(batch, pipeline.WithSinks(sinks...), pipeline.WithRunnerLogger(logger))
}

// splitCompleted separates domains with a stored final outcome from the
// ones still to process, keeping input order.
func splitCompleted(ctx context.Context, store *database.Store, domains []string) ([]string, []*model.Outcome, error) {
	done, err := store.CompletedOutcomes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load previous results: %w", err)
	}
	pending := make([]string, 0, len(domains))
	var resumed []*model.Outcome
	for _, d := range domains {
		if o, ok := done[d]; ok {
			resumed = append(resumed, o)
			continue
		}
		pending = append(pending, d)
	}
	return pending, resumed, nil
}

// mergeItems returns the hashed logos of fresh and resumed outcomes in
// input order.
func mergeItems(domains []string, fresh []model.LogoItem, resumed []*model.Outcome) []model.LogoItem {
	byDomain := make(map[string]model.LogoItem, len(fresh)+len(resumed))
	for _, item := range fresh {
		byDomain[item.Domain] = item
	}
	for _, o := range resumed {
		if item, ok := o.LogoItem(); ok {
			byDomain[item.Domain] = item
		}
	}
	items := make([]model.LogoItem, 0, len(byDomain))
	for _, d := range domains {
		if item, ok := byDomain[d]; ok {
			items = append(items, item)
		}
	}
	return items
}

// clusterItems groups items and records the grouping statistics in summary.
func clusterItems(cfg *config.Config, items []model.LogoItem, summary *model.Summary, logger *slog.Logger) []model.Group {
	c := cluster.New(
		cluster.WithThreshold(cfg.Threshold),
		cluster.WithPrefixBits(cfg.PrefixBits),
		cluster.WithPrefixRadius(cfg.PrefixRadius),
		cluster.WithLogger(logger),
	)
	res := c.Cluster(items)
	summary.ApplyGroups(len(items), res.Groups)
	summary.Comparisons = res.Comparisons
	summary.Unions = res.Unions
	return res.Groups
}

// createFile creates path and its parent directories.
func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// openResultLog creates the result log and returns a function closing it.
func openResultLog(path string) (*report.ResultLog, func(), error) {
	f, err := createFile(path)
	if err != nil {
		return nil, nil, err
	}
	l, err := report.NewResultLog(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return l, func() {
		_ = l.Flush()
		_ = f.Close()
	}, nil
}

// writeGroupReport writes rep to path in format.
func writeGroupReport(path, format string, rep *report.Report) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := report.NewWriter(format, f)
	if err != nil {
		return err
	}
	if _, err := w.Write(rep); err != nil {
		return fmt.Errorf("failed to write group report: %w", err)
	}
	return f.Close()
}
