package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	defaultRecentLimit      = 20
)

const runColumns = "id, command, language, status, started_at, finished_at, summary_json, error_message"

// Store persists run history in SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or connects to the run history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create run history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// SetClock overrides the time source used for run timestamps.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Start records a new running run. An empty id is replaced by a random UUID.
func (s *Store) Start(ctx context.Context, id, command, language string) (Run, error) {
	if strings.TrimSpace(command) == "" {
		return Run{}, errors.New("run command is required")
	}
	if id == "" {
		id = uuid.NewString()
	}
	run := Run{
		ID:        id,
		Command:   command,
		Language:  language,
		Status:    StatusRunning,
		StartedAt: s.now().UTC(),
	}
	err := s.exec(ctx,
		`INSERT INTO runs (id, command, language, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Command, nullableString(language), string(run.Status), run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish records the outcome of run id. summary is stored as JSON.
func (s *Store) Finish(ctx context.Context, id string, status Status, summary any, runErr error) error {
	var summaryJSON sql.NullString
	if summary != nil {
		data, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("marshal run summary: %w", err)
		}
		summaryJSON = sql.NullString{String: string(data), Valid: true}
	}
	var message sql.NullString
	if runErr != nil {
		message = sql.NullString{String: runErr.Error(), Valid: true}
	}
	res, err := s.execResult(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, summary_json = ?, error_message = ? WHERE id = ?`,
		string(status), s.now().UTC().Format(time.RFC3339Nano), summaryJSON, message, id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// Get returns the run with id, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Recent returns up to limit runs, newest first. command filters when set.
func (s *Store) Recent(ctx context.Context, command string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	query := "SELECT " + runColumns + " FROM runs"
	args := []any{}
	if command != "" {
		query += " WHERE command = ?"
		args = append(args, command)
	}
	query += " ORDER BY started_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		language    sql.NullString
		status      string
		startedRaw  string
		finishedRaw sql.NullString
		summary     sql.NullString
		message     sql.NullString
	)
	if err := scanner.Scan(&run.ID, &run.Command, &language, &status, &startedRaw, &finishedRaw, &summary, &message); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Language = language.String
	run.Status = Status(status)
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	if summary.Valid && summary.String != "" {
		run.Summary = json.RawMessage(summary.String)
	}
	run.Error = message.String
	return &run, nil
}

func parseTime(raw string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execResult(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.execResult(ctx, query, args...)
	return err
}
