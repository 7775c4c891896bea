package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/logocluster/internal/config"
	"github.com/nao1215/logocluster/internal/database"
	"github.com/nao1215/logocluster/internal/log"
	"github.com/nao1215/logocluster/internal/model"
	"github.com/nao1215/logocluster/internal/report"
)

// NewGroupCmd creates the group command.
// It regroups logos stored by previous scans without fetching anything.
func NewGroupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Regroup stored logos with other parameters",
		Long: `Group loads the logo hashes stored by previous scans and clusters them again.

No network request is made, so different thresholds and output formats
can be tried quickly once a scan has finished.

Examples:
  # Regroup with a stricter threshold
  logocluster group --threshold 4

  # Write an Excel workbook
  logocluster group -f xlsx -o groups.xlsx

  # List stored runs
  logocluster group --runs`,
		Args: cobra.NoArgs,
		RunE: runGroupCmd,
	}

	addGroupingFlags(cmd)
	cmd.Flags().String("db-dir", "", "Database directory (default: XDG data directory)")
	cmd.Flags().Bool("runs", false, "List stored runs instead of grouping")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .logocluster in current or home directory)")

	return cmd
}

func runGroupCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyGroupingFlags(cmd, cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("db-dir") {
		if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
			return err
		}
	}
	if err := cfg.ValidateGrouping(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	listRuns, err := cmd.Flags().GetBool("runs")
	if err != nil {
		return err
	}

	logger := log.NewLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.JSONLogs)

	store, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("no stored results in %s (run 'logocluster scan' first): %w", cfg.DBDir, err)
		}
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if listRuns {
		return printRuns(ctx, store, cmd.OutOrStdout())
	}
	return runGroup(ctx, cfg, store, cmd.OutOrStdout(), logger)
}

// runGroup clusters the stored logos and writes the group report.
func runGroup(ctx context.Context, cfg *config.Config, store *database.Store, out io.Writer, logger *slog.Logger) error {
	start := time.Now()

	outcomes, err := store.Outcomes(ctx)
	if err != nil {
		return err
	}
	var summary model.Summary
	items := make([]model.LogoItem, 0, len(outcomes))
	for _, o := range outcomes {
		summary.Record(o)
		if item, ok := o.LogoItem(); ok {
			items = append(items, item)
		}
	}

	groups := clusterItems(cfg, items, &summary, logger)
	summary.Duration = time.Since(start)

	rep := report.NewReport(groups, summary)
	if err := writeGroupReport(cfg.GroupsFile, cfg.GroupFormat, rep); err != nil {
		return err
	}
	if _, err := report.NewSummaryWriter(out, report.WithVerbose(cfg.Verbose)).Write(rep); err != nil {
		return err
	}
	fmt.Fprintf(out, "Groups written to %s\n", cfg.GroupsFile)
	return nil
}

// printRuns lists stored runs, most recent first.
func printRuns(ctx context.Context, store *database.Store, out io.Writer) error {
	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs stored.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tDOMAINS\tEXTRACTED\tGROUPS")
	for _, r := range runs {
		total, extracted, groups := "-", "-", "-"
		if r.Summary != nil {
			total = fmt.Sprint(r.Summary.Total)
			extracted = fmt.Sprintf("%d (%.1f%%)", r.Summary.Extracted, r.Summary.ExtractionRate())
			groups = fmt.Sprint(r.Summary.SimilarGroups)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), total, extracted, groups)
	}
	return tw.Flush()
}
