package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/logocluster/internal/model"
	"github.com/nao1215/logocluster/internal/phash"
)

// FileName is the database file created inside the database directory.
const FileName = "logocluster.db"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store provides SQLite-backed persistence for outcomes and runs.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the Store in dbDir. When CreateIfNotExists is
// false a missing database file is an error.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, ErrNotFound)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a new file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	-- Latest outcome per domain
	CREATE TABLE IF NOT EXISTS outcomes (
		domain TEXT PRIMARY KEY,
		home_url TEXT NOT NULL DEFAULT '',
		logo_url TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		hash TEXT NOT NULL DEFAULT '',
		run_id TEXT NOT NULL,
		processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes(status);
	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);

	-- One row per scan run
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME,
		summary_json TEXT
	);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// StartRun records a new run and returns its id.
func (s *Store) StartRun(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO runs (id) VALUES (?)`, id); err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// FinishRun stores the summary of a run and marks it finished.
func (s *Store) FinishRun(ctx context.Context, summary model.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = CURRENT_TIMESTAMP, summary_json = ? WHERE id = ?`,
		string(data), summary.RunID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", summary.RunID, ErrNotFound)
	}
	return nil
}

// Run is a stored run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    *model.Summary
}

// Runs lists stored runs, most recent first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, started_at, finished_at, summary_json
	FROM runs
	ORDER BY started_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished sql.NullString
			summary  sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &summary); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(started)
		if finished.Valid {
			r.FinishedAt = parseTimestamp(finished.String)
		}
		if summary.Valid && summary.String != "" {
			var sum model.Summary
			if err := json.Unmarshal([]byte(summary.String), &sum); err == nil {
				r.Summary = &sum
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SaveOutcome inserts or replaces the outcome of a domain.
func (s *Store) SaveOutcome(ctx context.Context, runID string, o *model.Outcome) error {
	hash := ""
	if o.Hash.Valid() {
		hash = o.Hash.String()
	}
	processed := o.ProcessedAt
	if processed.IsZero() {
		processed = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO outcomes (domain, home_url, logo_url, status, error, hash, run_id, processed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(domain) DO UPDATE SET
		home_url = excluded.home_url,
		logo_url = excluded.logo_url,
		status = excluded.status,
		error = excluded.error,
		hash = excluded.hash,
		run_id = excluded.run_id,
		processed_at = excluded.processed_at
	`,
		o.Domain,
		o.HomeURL,
		o.LogoURL,
		string(o.Status),
		o.Error,
		hash,
		runID,
		processed.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save outcome: %w", err)
	}
	return nil
}

const outcomeColumns = `domain, home_url, logo_url, status, error, hash, processed_at`

func scanOutcome(sc interface{ Scan(...any) error }) (*model.Outcome, error) {
	var (
		o         model.Outcome
		status    string
		hash      string
		processed string
	)
	if err := sc.Scan(&o.Domain, &o.HomeURL, &o.LogoURL, &status, &o.Error, &hash, &processed); err != nil {
		return nil, err
	}
	o.Status = model.ParseStatus(status)
	if hash != "" {
		h, err := phash.Parse(hash)
		if err != nil {
			return nil, fmt.Errorf("invalid hash for %s: %w", o.Domain, err)
		}
		o.Hash = h
	}
	o.ProcessedAt = parseTimestamp(processed)
	return &o, nil
}

// Outcome returns the stored outcome of domain or ErrNotFound.
func (s *Store) Outcome(ctx context.Context, domain string) (*model.Outcome, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+outcomeColumns+` FROM outcomes WHERE domain = ?`, domain)
	o, err := scanOutcome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("outcome %s: %w", domain, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outcome: %w", err)
	}
	return o, nil
}

// Outcomes returns every stored outcome ordered by domain.
func (s *Store) Outcomes(ctx context.Context) ([]*model.Outcome, error) {
	return s.queryOutcomes(ctx, `SELECT `+outcomeColumns+` FROM outcomes ORDER BY domain`)
}

// CompletedOutcomes returns the stored outcomes with a final status,
// keyed by domain. Domains that ended in ERROR are not included so they
// are retried on resume.
func (s *Store) CompletedOutcomes(ctx context.Context) (map[string]*model.Outcome, error) {
	all, err := s.queryOutcomes(ctx,
		`SELECT `+outcomeColumns+` FROM outcomes WHERE status IN (?, ?, ?)`,
		string(model.StatusOK), string(model.StatusNoLogo), string(model.StatusUnreadable))
	if err != nil {
		return nil, err
	}
	done := make(map[string]*model.Outcome, len(all))
	for _, o := range all {
		done[o.Domain] = o
	}
	return done, nil
}

// LogoItems returns the stored hashed logos ordered by domain.
func (s *Store) LogoItems(ctx context.Context) ([]model.LogoItem, error) {
	all, err := s.queryOutcomes(ctx,
		`SELECT `+outcomeColumns+` FROM outcomes WHERE status = ? AND hash != '' ORDER BY domain`,
		string(model.StatusOK))
	if err != nil {
		return nil, err
	}
	items := make([]model.LogoItem, 0, len(all))
	for _, o := range all {
		if item, ok := o.LogoItem(); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *Store) queryOutcomes(ctx context.Context, query string, args ...any) ([]*model.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var out []*model.Outcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Recorder saves outcomes of one run as they are reported.
type Recorder struct {
	store *Store
	runID string
}

// Recorder returns a Recorder that tags outcomes with runID.
func (s *Store) Recorder(runID string) *Recorder {
	return &Recorder{store: s, runID: runID}
}

// Record saves o. The write is not cancelled with ctx so an interrupted
// scan still persists the domains that finished.
func (r *Recorder) Record(ctx context.Context, o *model.Outcome) error {
	return r.store.SaveOutcome(context.WithoutCancel(ctx), r.runID, o)
}

// timestampFormats are the layouts SQLite may return, most specific first.
var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when no layout matches.
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
