// Package storage contains storage-agnostic contracts for the batched
// writers. Backends implement Repository with their most efficient bulk
// primitive; the pipeline depends only on this interface.
package storage

import "context"

// Conflict selects how a batch write resolves an existing key.
type Conflict int

const (
	// UpdateAll overwrites every non-key column of the existing row with the
	// incoming values. Never a partial-field merge.
	UpdateAll Conflict = iota
	// DoNothing drops the incoming row and leaves the existing one untouched.
	DoNothing
)

// Table identifies a write target: fully qualified name, ordered columns
// (matching the value slices), key columns, and the conflict policy.
type Table struct {
	Name       string
	Columns    []string
	KeyColumns []string
	OnConflict Conflict
}

// Repository is the minimal sink interface. UpsertBatch writes one batch in a
// single transaction: insert all rows, resolve key conflicts per the table's
// policy, commit before returning. A failure on any row fails the whole batch
// with nothing committed. The returned count is the number of rows the store
// reports as affected (inserts plus updates; ignored conflicts don't count).
type Repository interface {
	UpsertBatch(ctx context.Context, tbl Table, rows [][]any) (int64, error)
	Ping(ctx context.Context) error
	Close()
}
