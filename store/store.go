// Package store defines the persistence interface for job definitions
// and execution history. Backends: SQLite and Memory.
package store

import (
	"context"

	"github.com/xraph/tempo/id"
	"github.com/xraph/tempo/job"
)

// Store is the persistence interface. The scheduler works entirely
// in memory; a Store, when configured, mirrors definitions and
// execution records so history survives restarts.
type Store interface {
	// SaveDefinition inserts or updates a job definition by name.
	SaveDefinition(ctx context.Context, def *job.Definition) error

	// DeleteDefinition removes a definition by name. Removing an
	// unknown name is not an error.
	DeleteDefinition(ctx context.Context, name string) error

	// ListDefinitions returns all stored definitions sorted by name.
	ListDefinitions(ctx context.Context) ([]*job.Definition, error)

	// AppendExecution records one execution attempt. Records are
	// append-only; the same execution ID may appear once per status
	// change if the caller chooses to re-append, but the scheduler
	// appends each attempt exactly once, after it settles.
	AppendExecution(ctx context.Context, e *job.Execution) error

	// GetExecution retrieves a single execution record by ID.
	// Returns tempo.ErrExecutionNotFound if no record exists.
	GetExecution(ctx context.Context, execID id.ExecID) (*job.Execution, error)

	// ListExecutions returns execution records for a job, newest
	// first. A limit of zero means no limit. An empty jobName
	// returns records for all jobs.
	ListExecutions(ctx context.Context, jobName string, limit int) ([]*job.Execution, error)

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
