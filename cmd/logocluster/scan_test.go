package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/logocluster/internal/config"
	"github.com/nao1215/logocluster/internal/database"
	"github.com/nao1215/logocluster/internal/model"
	"github.com/nao1215/logocluster/internal/phash"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".logocluster")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildConfigPrecedence(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, "settings:\n  workers: 3\n  threshold: 5\n  retries: 4\n")

	cmd := NewScanCmd()
	if err := cmd.ParseFlags([]string{"--config", path, "--threshold", "7", "-i", "a.csv", "-i", "b.csv", "example.com"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := buildConfig(cmd, cmd.Flags().Args())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Workers != 3 {
		t.Errorf("expected workers from file, got %d", cfg.Workers)
	}
	if cfg.Retries != 4 {
		t.Errorf("expected retries from file, got %d", cfg.Retries)
	}
	if cfg.Threshold != 7 {
		t.Errorf("expected threshold from flag, got %d", cfg.Threshold)
	}
	if cfg.PageTimeout != config.DefaultPageTimeout {
		t.Errorf("expected default page timeout, got %v", cfg.PageTimeout)
	}
	if !reflect.DeepEqual(cfg.Inputs, []string{"a.csv", "b.csv"}) {
		t.Errorf("expected inputs, got %v", cfg.Inputs)
	}
	if !reflect.DeepEqual(cfg.Targets, []string{"example.com"}) {
		t.Errorf("expected targets, got %v", cfg.Targets)
	}
}

// TestBuildConfigEnvironment cannot run in parallel because it sets
// environment variables.
func TestBuildConfigEnvironment(t *testing.T) {
	t.Setenv("LOGOCLUSTER_WORKERS", "6")
	path := writeConfigFile(t, "settings:\n  workers: 3\n")

	cmd := NewScanCmd()
	if err := cmd.ParseFlags([]string{"--config", path}); err != nil {
		t.Fatal(err)
	}
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 6 {
		t.Errorf("expected environment to override file, got %d", cfg.Workers)
	}

	cmd = NewScanCmd()
	if err := cmd.ParseFlags([]string{"--config", path, "-w", "9"}); err != nil {
		t.Fatal(err)
	}
	cfg, err = buildConfig(cmd, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 9 {
		t.Errorf("expected flag to override environment, got %d", cfg.Workers)
	}
}

func TestBuildConfigMissingExplicitFile(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()
	if err := cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}); err != nil {
		t.Fatal(err)
	}
	if _, err := buildConfig(cmd, nil); err == nil {
		t.Error("expected error for missing config file")
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse %s: %v", path, err)
	}
	return rows
}

func TestRunScanSkippedHosts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := config.NewConfig()
	cfg.Targets = []string{"one.example", "two.example"}
	cfg.Hosts.Defaults.Skip = true
	cfg.DBDir = filepath.Join(dir, "db")
	cfg.ResultsFile = filepath.Join(dir, "out", "results.csv")
	cfg.GroupsFile = filepath.Join(dir, "out", "groups.csv")

	var out bytes.Buffer
	if err := runScan(context.Background(), cfg, &out, quietLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := readCSV(t, cfg.ResultsFile)
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	for _, row := range rows[1:] {
		if row[3] != "NO_LOGO" {
			t.Errorf("expected NO_LOGO, got %v", row)
		}
	}
	groups := readCSV(t, cfg.GroupsFile)
	if len(groups) != 1 {
		t.Errorf("expected only the group header, got %v", groups)
	}
	if !strings.Contains(out.String(), "FINAL STATISTICS") {
		t.Errorf("expected summary output, got %q", out.String())
	}

	t.Run("resume skips finished domains", func(t *testing.T) {
		cfg.Resume = true
		cfg.Targets = append(cfg.Targets, "three.example")
		var out bytes.Buffer
		if err := runScan(context.Background(), cfg, &out, quietLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "Resuming: 2 of 3 domains already processed") {
			t.Errorf("expected resume message, got %q", out.String())
		}
		if !strings.Contains(out.String(), "Resumed:           2") {
			t.Errorf("expected resumed count in summary, got %q", out.String())
		}
		if rows := readCSV(t, cfg.ResultsFile); len(rows) != 4 {
			t.Errorf("expected all 3 domains in result log, got %d rows", len(rows)-1)
		}

		store, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		defer store.Close()
		runs, err := store.Runs(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 2 {
			t.Errorf("expected 2 runs, got %d", len(runs))
		}
	})
}

func TestMergeItems(t *testing.T) {
	t.Parallel()

	fresh := []model.LogoItem{{Domain: "c.com", Hash: phash.FromUint64(3)}}
	resumed := []*model.Outcome{
		{Domain: "a.com", Status: model.StatusOK, Hash: phash.FromUint64(1)},
		{Domain: "b.com", Status: model.StatusNoLogo},
	}
	got := mergeItems([]string{"a.com", "b.com", "c.com"}, fresh, resumed)
	if len(got) != 2 || got[0].Domain != "a.com" || got[1].Domain != "c.com" {
		t.Errorf("expected a.com and c.com in input order, got %+v", got)
	}
}

func seedStore(t *testing.T, dir string) {
	t.Helper()
	store, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	outcomes := []*model.Outcome{
		{Domain: "b.com", Status: model.StatusOK, LogoURL: "https://b.com/l.png", Hash: phash.FromUint64(0x3)},
		{Domain: "a.com", Status: model.StatusOK, LogoURL: "https://a.com/l.png", Hash: phash.FromUint64(0x1)},
		{Domain: "z.com", Status: model.StatusOK, LogoURL: "https://z.com/l.png", Hash: phash.FromUint64(^uint64(0))},
		{Domain: "n.com", Status: model.StatusNoLogo},
	}
	for _, o := range outcomes {
		if err := store.SaveOutcome(ctx, "seed", o); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunGroup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedStore(t, dir)

	cfg := config.NewConfig()
	cfg.DBDir = dir
	cfg.GroupsFile = filepath.Join(dir, "groups.csv")

	store, err := database.Open(dir, database.Options{EnableWAL: true})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	var out bytes.Buffer
	if err := runGroup(context.Background(), cfg, store, &out, quietLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := readCSV(t, cfg.GroupsFile)
	want := [][]string{
		{"group_id", "count", "websites"},
		{"1", "2", "a.com | b.com"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("expected %v, got %v", want, rows)
	}
	if !strings.Contains(out.String(), "Similar groups:    1") {
		t.Errorf("expected group count in summary, got %q", out.String())
	}

	t.Run("zero threshold separates the pair", func(t *testing.T) {
		strict := *cfg
		strict.Threshold = 0
		strict.GroupsFile = filepath.Join(dir, "strict.csv")
		if err := runGroup(context.Background(), &strict, store, io.Discard, quietLogger()); err != nil {
			t.Fatal(err)
		}
		if rows := readCSV(t, strict.GroupsFile); len(rows) != 1 {
			t.Errorf("expected no groups, got %v", rows)
		}
	})
}

func TestGroupCmdRuns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	id, err := store.StartRun(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.FinishRun(context.Background(), model.Summary{RunID: id, Total: 4, Extracted: 3, SimilarGroups: 1, Duration: time.Second}); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	var buf bytes.Buffer
	cmd := NewGroupCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--db-dir", dir, "--runs", "--config", writeConfigFile(t, "{}\n")})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), id) || !strings.Contains(buf.String(), "3 (75.0%)") {
		t.Errorf("expected run listing, got %q", buf.String())
	}
}

func TestGroupCmdWithoutDatabase(t *testing.T) {
	t.Parallel()

	cmd := NewGroupCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--db-dir", t.TempDir(), "--config", writeConfigFile(t, "{}\n")})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "run 'logocluster scan' first") {
		t.Errorf("expected missing database error, got %v", err)
	}
}
