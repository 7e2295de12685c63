package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/id"
	"github.com/xraph/tempo/job"
	"github.com/xraph/tempo/store"
)

//go:embed migrations.sql
var migrationsFS embed.FS

var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of store.Store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open opens (or creates) a SQLite database at the given path.
// Use ":memory:" for an ephemeral database.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000")

	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("sqlite: read migrations: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(b)); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveDefinition inserts or updates a definition by name.
func (s *Store) SaveDefinition(ctx context.Context, def *job.Definition) error {
	tags, err := json.Marshal(def.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: marshal tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO job_definitions
			(name, schedule, queue, retries, timeout_ns, max_instances,
			 coalesce_fires, misfire_grace_ns, enabled, priority, description, tags)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(name) DO UPDATE SET
			schedule = excluded.schedule,
			queue = excluded.queue,
			retries = excluded.retries,
			timeout_ns = excluded.timeout_ns,
			max_instances = excluded.max_instances,
			coalesce_fires = excluded.coalesce_fires,
			misfire_grace_ns = excluded.misfire_grace_ns,
			enabled = excluded.enabled,
			priority = excluded.priority,
			description = excluded.description,
			tags = excluded.tags`,
		def.Name, def.Schedule, def.Queue, def.Retries, int64(def.Timeout),
		def.MaxInstances, def.Coalesce, int64(def.MisfireGrace), def.Enabled,
		def.Priority, def.Description, string(tags),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save definition %q: %w", def.Name, err)
	}
	return nil
}

// DeleteDefinition removes a definition by name.
func (s *Store) DeleteDefinition(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM job_definitions WHERE name = ?`, name); err != nil {
		return fmt.Errorf("sqlite: delete definition %q: %w", name, err)
	}
	return nil
}

// ListDefinitions returns all definitions sorted by name.
func (s *Store) ListDefinitions(ctx context.Context) ([]*job.Definition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, schedule, queue, retries, timeout_ns, max_instances,
		       coalesce_fires, misfire_grace_ns, enabled, priority, description, tags
		FROM job_definitions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list definitions: %w", err)
	}
	defer rows.Close()

	var out []*job.Definition
	for rows.Next() {
		var (
			d         job.Definition
			timeoutNS int64
			misfireNS int64
			tagsJSON  string
		)
		if err := rows.Scan(&d.Name, &d.Schedule, &d.Queue, &d.Retries,
			&timeoutNS, &d.MaxInstances, &d.Coalesce, &misfireNS,
			&d.Enabled, &d.Priority, &d.Description, &tagsJSON); err != nil {
			return nil, fmt.Errorf("sqlite: scan definition: %w", err)
		}
		d.Timeout = time.Duration(timeoutNS)
		d.MisfireGrace = time.Duration(misfireNS)
		if err := json.Unmarshal([]byte(tagsJSON), &d.Tags); err != nil {
			return nil, fmt.Errorf("sqlite: unmarshal tags for %q: %w", d.Name, err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// AppendExecution records one execution attempt.
func (s *Store) AppendExecution(ctx context.Context, e *job.Execution) error {
	var resultJSON any
	if e.Result != nil {
		b, err := json.Marshal(e.Result)
		if err != nil {
			return fmt.Errorf("sqlite: marshal result: %w", err)
		}
		resultJSON = string(b)
	}

	var completedAt any
	if e.CompletedAt != nil {
		completedAt = e.CompletedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_executions
			(id, job_name, queue, status, started_at, completed_at,
			 retry_count, max_retries, worker_id, result, error,
			 progress, skip_reason, attempt_limit_ns)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.JobName, e.Queue, string(e.Status),
		e.StartedAt.UTC().Format(time.RFC3339Nano), completedAt,
		e.RetryCount, e.MaxRetries, e.WorkerID, resultJSON, e.Error,
		e.Progress, e.SkipReason, int64(e.AttemptLimit),
	)
	if err != nil {
		return fmt.Errorf("sqlite: append execution %s: %w", e.ID, err)
	}
	return nil
}

// GetExecution retrieves an execution record by ID.
func (s *Store) GetExecution(ctx context.Context, execID id.ExecID) (*job.Execution, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, job_name, queue, status, started_at, completed_at,
		       retry_count, max_retries, worker_id, result, error,
		       progress, skip_reason, attempt_limit_ns
		FROM job_executions WHERE id = ?`, execID)

	e, err := scanExecution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tempo.ErrExecutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get execution %s: %w", execID, err)
	}
	return e, nil
}

// ListExecutions returns records for a job, newest first.
func (s *Store) ListExecutions(ctx context.Context, jobName string, limit int) ([]*job.Execution, error) {
	q := `
		SELECT id, job_name, queue, status, started_at, completed_at,
		       retry_count, max_retries, worker_id, result, error,
		       progress, skip_reason, attempt_limit_ns
		FROM job_executions`
	args := []any{}
	if jobName != "" {
		q += ` WHERE job_name = ?`
		args = append(args, jobName)
	}
	q += ` ORDER BY rowid DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list executions: %w", err)
	}
	defer rows.Close()

	var out []*job.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan execution: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanExecution(row scanner) (*job.Execution, error) {
	var (
		e           job.Execution
		status      string
		startedAt   string
		completedAt sql.NullString
		resultJSON  sql.NullString
		limitNS     int64
	)
	if err := row.Scan(&e.ID, &e.JobName, &e.Queue, &status, &startedAt,
		&completedAt, &e.RetryCount, &e.MaxRetries, &e.WorkerID,
		&resultJSON, &e.Error, &e.Progress, &e.SkipReason, &limitNS); err != nil {
		return nil, err
	}

	e.Status = job.Status(status)
	e.AttemptLimit = time.Duration(limitNS)

	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	e.StartedAt = t

	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		e.CompletedAt = &t
	}

	if resultJSON.Valid {
		var res job.Result
		if err := json.Unmarshal([]byte(resultJSON.String), &res); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		e.Result = &res
	}

	return &e, nil
}
