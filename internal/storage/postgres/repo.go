// Package postgres implements the storage repository on pgx v5. Each batch
// becomes one multi-row INSERT ... ON CONFLICT statement executed inside its
// own transaction, so a failing row rolls back the whole batch and a
// returning batch is always fully committed.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpasquini/airbnb/internal/storage"
)

// maxParams is the Postgres wire-protocol bind parameter ceiling. Batches
// whose rows*columns exceed it are split into several statements within the
// same transaction, preserving whole-batch atomicity.
const maxParams = 65535

// upsertTx is the slice of pgx.Tx the batch writer uses. Tests substitute a
// fake through the begin seam to drive UpsertBatch without a live server.
type upsertTx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Repository is a Postgres-backed storage.Repository.
type Repository struct {
	pool  *pgxpool.Pool
	begin func(ctx context.Context) (upsertTx, error)
}

// NewRepository connects a pgx pool using the given DSN.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	r := &Repository{pool: pool}
	r.begin = func(ctx context.Context) (upsertTx, error) { return pool.Begin(ctx) }
	return r, nil
}

// Ping verifies connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases the pool.
func (r *Repository) Close() { r.pool.Close() }

// UpsertBatch writes rows to tbl in one transaction and commits before
// returning. Conflicting keys are resolved per tbl.OnConflict: full
// non-key-column overwrite, or silently ignored for insert-only tables.
// For UpdateAll tables the keys within one batch must be distinct: Postgres
// rejects a statement whose ON CONFLICT DO UPDATE touches the same row
// twice, so dedup is the caller's concern.
func (r *Repository) UpsertBatch(ctx context.Context, tbl storage.Table, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(tbl.Columns) == 0 {
		return 0, fmt.Errorf("%s: no columns configured", tbl.Name)
	}

	tx, err := r.begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: begin: %w", tbl.Name, err)
	}
	// Rollback is a no-op after a successful commit.
	defer tx.Rollback(ctx)

	var total int64
	per := rowsPerStatement(len(tbl.Columns))
	for start := 0; start < len(rows); start += per {
		end := start + per
		if end > len(rows) {
			end = len(rows)
		}
		page := rows[start:end]

		sql := upsertSQL(tbl, len(page))
		args := make([]any, 0, len(page)*len(tbl.Columns))
		for _, row := range page {
			if len(row) != len(tbl.Columns) {
				return 0, fmt.Errorf("%s: row width %d, want %d columns", tbl.Name, len(row), len(tbl.Columns))
			}
			args = append(args, row...)
		}

		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return 0, fmt.Errorf("%s: upsert: %w", tbl.Name, pgDetail(err))
		}
		total += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", tbl.Name, err)
	}
	return total, nil
}

// rowsPerStatement bounds rows per statement by the bind parameter ceiling.
func rowsPerStatement(cols int) int {
	n := maxParams / cols
	if n < 1 {
		n = 1
	}
	return n
}

// upsertSQL renders the multi-row INSERT for nRows rows of tbl.
//
//	INSERT INTO t (c1,c2) VALUES ($1,$2),($3,$4)
//	ON CONFLICT (k) DO UPDATE SET c2 = EXCLUDED.c2
//
// or, for insert-only tables, ON CONFLICT DO NOTHING.
func upsertSQL(tbl storage.Table, nRows int) string {
	cols := tbl.Columns

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgFQN(tbl.Name))
	b.WriteString(" (")
	b.WriteString(strings.Join(mapIdent(cols), ","))
	b.WriteString(") VALUES ")

	p := 1
	for i := 0; i < nRows; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		for j := range cols {
			if j > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "$%d", p)
			p++
		}
		b.WriteByte(')')
	}

	switch tbl.OnConflict {
	case storage.DoNothing:
		b.WriteString(" ON CONFLICT DO NOTHING")
	case storage.UpdateAll:
		b.WriteString(" ON CONFLICT (")
		b.WriteString(strings.Join(mapIdent(tbl.KeyColumns), ","))
		b.WriteString(") DO UPDATE SET ")
		b.WriteString(strings.Join(updateColumns(cols, tbl.KeyColumns), ", "))
	}
	return b.String()
}

// updateColumns renders "col = EXCLUDED.col" for every non-key column.
func updateColumns(cols, keys []string) []string {
	keySet := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keySet[k] = struct{}{}
	}
	updates := make([]string, 0, len(cols))
	for _, col := range cols {
		if _, isKey := keySet[col]; isKey {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", pgIdent(col), pgIdent(col)))
	}
	return updates
}

// pgDetail surfaces the Postgres error detail when present; constraint
// violations are much easier to diagnose with it.
func pgDetail(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%s: %s (%s)", pgErr.Message, pgErr.Detail, pgErr.SQLState())
	}
	return err
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "airbnb.listings" to
// "airbnb"."listings". If no dot is present, returns a single quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}

var _ storage.Repository = (*Repository)(nil)
