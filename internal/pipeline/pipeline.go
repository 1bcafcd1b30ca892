// Package pipeline runs the dataset stages in order: open the source, read
// row chunks, build typed values, apply the price filter, and write each
// chunk to storage in its own transaction.
//
// Stages are strictly sequential (reviews and calendar reference listings),
// but inside a stage the reader and writer overlap through a bounded channel
// so the next chunk is parsed while the previous one commits. Peak memory
// stays around two chunks regardless of file size.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/rpasquini/airbnb/internal/datasource"
	"github.com/rpasquini/airbnb/internal/datasource/file"
	"github.com/rpasquini/airbnb/internal/filter"
	"github.com/rpasquini/airbnb/internal/metrics"
	csvparser "github.com/rpasquini/airbnb/internal/parser/csv"
	"github.com/rpasquini/airbnb/internal/schema"
	"github.com/rpasquini/airbnb/internal/storage"
)

// sampleErrors bounds how many parse-error messages are kept verbatim; the
// full count is always reported.
const sampleErrors = 5

// StageError is the typed failure returned when a dataset stage fails.
// Chunk is the 0-based index of the chunk being processed, or -1 when the
// failure happened before any chunk (open, header validation).
type StageError struct {
	Stage string
	Chunk int
	Err   error
}

func (e *StageError) Error() string {
	if e.Chunk < 0 {
		return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("stage %s: chunk %d: %v", e.Stage, e.Chunk, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Checkpoint records how far a stage got. Fingerprint hashes the source
// header, so a persisted checkpoint can detect that the file changed shape
// between runs. Chunk is the last committed chunk index (-1 when none).
type Checkpoint struct {
	Path        string
	Fingerprint uint64
	Chunk       int
	RowsWritten int64
}

// StageStats is the final accounting for one dataset stage.
//
//	Read == ParseErrors + Filtered + Written
//
// Written counts rows handed to a committed batch; Applied is the number of
// rows the store reported as affected (for insert-or-ignore tables, ignored
// duplicates make Applied < Written).
type StageStats struct {
	Name        string
	Read        int64
	ParseErrors int64
	Filtered    int64
	Written     int64
	Applied     int64
	Batches     int64
	Duration    time.Duration
	Checkpoint  Checkpoint
}

// RunResult aggregates per-stage stats for a whole run. On failure it holds
// the stats of every completed stage plus the partial stats of the one that
// failed.
type RunResult struct {
	Stages []StageStats
}

// TotalWritten sums written rows across stages.
func (r *RunResult) TotalWritten() int64 {
	var n int64
	for _, s := range r.Stages {
		n += s.Written
	}
	return n
}

// counters holds cross-goroutine statistics for one stage.
type counters struct {
	read        atomic.Int64 // data rows seen by the reader
	parseErrors atomic.Int64 // rows that failed reading or cleaning
	filtered    atomic.Int64 // rows dropped by the price threshold
	written     atomic.Int64 // rows in committed batches
	applied     atomic.Int64 // rows the store reported as affected
	batches     atomic.Int64 // committed batches
}

// Runner executes dataset stages against a storage repository.
type Runner struct {
	repo storage.Repository
	job  string

	// batchSize overrides each dataset's chunk size when > 0.
	batchSize int

	// newSource is a test seam; production points at the local file source.
	newSource func(path string) datasource.Source
}

// NewRunner returns a Runner writing through repo. job labels metrics and
// log lines for this run.
func NewRunner(repo storage.Repository, job string) *Runner {
	return &Runner{
		repo: repo,
		job:  job,
		newSource: func(path string) datasource.Source {
			return file.NewLocal(path)
		},
	}
}

// SetBatchSize forces a chunk size for every dataset. Zero keeps the
// per-dataset defaults. Chunk size changes commit granularity only, never
// which rows are loaded.
func (r *Runner) SetBatchSize(n int) { r.batchSize = n }

// Run executes the datasets in the given order, stopping at the first
// failure. The returned RunResult is non-nil even on error; the error is a
// *StageError for stage failures.
func (r *Runner) Run(ctx context.Context, datasets []schema.Dataset) (*RunResult, error) {
	if err := r.repo.Ping(ctx); err != nil {
		return &RunResult{}, fmt.Errorf("storage ping: %w", err)
	}

	res := &RunResult{}
	for _, ds := range datasets {
		start := time.Now()
		stats, err := r.runStage(ctx, ds)
		stats.Duration = time.Since(start)

		metrics.RecordStage(r.job, ds.Name, err, stats.Duration)
		metrics.RecordRows(r.job, "read", stats.Read)
		metrics.RecordRows(r.job, "parse_errors", stats.ParseErrors)
		metrics.RecordRows(r.job, "filtered", stats.Filtered)
		metrics.RecordRows(r.job, "written", stats.Written)
		metrics.RecordBatches(r.job, stats.Batches)

		res.Stages = append(res.Stages, stats)
		logStageSummary(stats)

		if err != nil {
			return res, err
		}
	}

	log.Printf("run complete: stages=%d total_written=%s",
		len(res.Stages), humanize.Comma(res.TotalWritten()))
	return res, nil
}

// batch carries one built and filtered chunk from reader to writer.
type batch struct {
	chunk    int
	rows     [][]any
	filtered int
}

func (r *Runner) runStage(ctx context.Context, ds schema.Dataset) (StageStats, error) {
	stats := StageStats{Name: ds.Name, Checkpoint: Checkpoint{Path: ds.Path, Chunk: -1}}

	src, err := r.newSource(ds.Path).Open(ctx)
	if err != nil {
		return stats, &StageError{Stage: ds.Name, Chunk: -1, Err: err}
	}
	defer src.Close()

	var c counters
	agg := newErrAgg(sampleErrors)

	onReadErr := func(line int, err error) {
		c.read.Add(1)
		c.parseErrors.Add(1)
		agg.add(fmt.Sprintf("line=%d: %v", line, err))
	}

	chunkSize := ds.ChunkSize
	if r.batchSize > 0 {
		chunkSize = r.batchSize
	}

	reader, err := csvparser.NewChunkReader(src, ds.Header, chunkSize, onReadErr)
	if err != nil {
		return stats, &StageError{Stage: ds.Name, Chunk: -1, Err: err}
	}

	cp := Checkpoint{
		Path:        ds.Path,
		Fingerprint: xxh3.HashString(strings.Join(reader.RawHeader(), "\x1f")),
		Chunk:       -1,
	}

	thr := thresholdFor(ds)
	tbl := tableFor(ds)
	idx := reader.Index()

	start := time.Now()
	batches := make(chan batch, 1)

	g, ctx := errgroup.WithContext(ctx)

	// Reader: pull chunks, build typed rows, apply the price filter. A chunk
	// with any unparsable row fails the stage after the chunk is fully
	// scanned, so the error sample can show several offenders at once. The
	// failing chunk never reaches the writer.
	g.Go(func() error {
		defer close(batches)
		next := 0
		for {
			ch, err := reader.Next(ctx)
			if err == io.EOF {
				// Malformed rows at the tail of the file surface here:
				// Next drops them and reports EOF once nothing parsable
				// is left, so the aggregate check has to run again.
				if n := agg.total(); n > 0 {
					return &StageError{
						Stage: ds.Name,
						Chunk: next,
						Err: fmt.Errorf("%d parse errors (first %d shown): %s",
							n, len(agg.samples()), strings.Join(agg.samples(), "; ")),
					}
				}
				return nil
			}
			if err != nil {
				return &StageError{Stage: ds.Name, Chunk: next, Err: err}
			}
			next = ch.Index + 1

			rows := make([][]any, 0, len(ch.Rows))
			for _, raw := range ch.Rows {
				c.read.Add(1)
				vals, err := ds.Build(idx, raw)
				if err != nil {
					c.parseErrors.Add(1)
					agg.add(fmt.Sprintf("line=%d: %v", raw.Line, err))
					continue
				}
				rows = append(rows, vals)
			}

			if n := agg.total(); n > 0 {
				return &StageError{
					Stage: ds.Name,
					Chunk: ch.Index,
					Err: fmt.Errorf("%d parse errors (first %d shown): %s",
						n, len(agg.samples()), strings.Join(agg.samples(), "; ")),
				}
			}

			kept, dropped := thr.Apply(rows)
			c.filtered.Add(int64(dropped))

			select {
			case batches <- batch{chunk: ch.Index, rows: kept, filtered: dropped}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	// Writer: one goroutine, so chunks commit in file order. Each batch is
	// one transaction; a failure stops the stage with everything before the
	// failing chunk already durable.
	g.Go(func() error {
		for b := range batches {
			if len(b.rows) > 0 {
				affected, err := r.repo.UpsertBatch(ctx, tbl, b.rows)
				if err != nil {
					return &StageError{Stage: ds.Name, Chunk: b.chunk, Err: err}
				}
				c.written.Add(int64(len(b.rows)))
				c.applied.Add(affected)
				c.batches.Add(1)
			}
			cp.Chunk = b.chunk
			cp.RowsWritten = c.written.Load()

			elapsed := time.Since(start)
			rate := int64(float64(c.written.Load()) / elapsed.Seconds())
			log.Printf("stage=%s chunk=%d rows=%s filtered=%d written=%s rps=%s elapsed=%s",
				ds.Name,
				b.chunk,
				humanize.Comma(int64(len(b.rows)+b.filtered)),
				b.filtered,
				humanize.Comma(c.written.Load()),
				humanize.Comma(rate),
				elapsed.Truncate(time.Millisecond),
			)
		}
		return nil
	})

	err = g.Wait()

	stats.Read = c.read.Load()
	stats.ParseErrors = c.parseErrors.Load()
	stats.Filtered = c.filtered.Load()
	stats.Written = c.written.Load()
	stats.Applied = c.applied.Load()
	stats.Batches = c.batches.Load()
	stats.Checkpoint = cp
	return stats, err
}

// logStageSummary prints the final accounting for a stage and checks row
// conservation: every row read is either written, filtered, or a parse error.
func logStageSummary(s StageStats) {
	log.Printf(
		"summary: stage=%s read=%s parse_errors=%d filtered=%d written=%s applied=%s batches=%d elapsed=%s",
		s.Name,
		humanize.Comma(s.Read),
		s.ParseErrors,
		s.Filtered,
		humanize.Comma(s.Written),
		humanize.Comma(s.Applied),
		s.Batches,
		s.Duration.Truncate(time.Millisecond),
	)

	accounted := s.ParseErrors + s.Filtered + s.Written
	if accounted != s.Read {
		log.Printf("WARNING: row accounting mismatch: stage=%s read=%d accounted=%d (delta=%d)",
			s.Name, s.Read, accounted, s.Read-accounted)
	}
}

// tableFor maps a dataset onto the storage write target.
func tableFor(ds schema.Dataset) storage.Table {
	oc := storage.UpdateAll
	if ds.OnConflict == schema.DoNothing {
		oc = storage.DoNothing
	}
	return storage.Table{
		Name:       ds.Table,
		Columns:    ds.Columns,
		KeyColumns: ds.KeyColumns,
		OnConflict: oc,
	}
}

// thresholdFor resolves the dataset's price columns to value positions.
func thresholdFor(ds schema.Dataset) filter.Threshold {
	var cols []int
	for _, name := range ds.PriceColumns {
		for i, col := range ds.Columns {
			if col == name {
				cols = append(cols, i)
				break
			}
		}
	}
	return filter.Threshold{Columns: cols, Limit: ds.PriceLimit}
}

// errAgg keeps the first few error messages plus a total count.
type errAgg struct {
	mu    sync.Mutex
	limit int
	count int
	first []string
}

func newErrAgg(limit int) *errAgg {
	return &errAgg{limit: limit}
}

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.mu.Unlock()
}

func (a *errAgg) total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

func (a *errAgg) samples() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.first
}
