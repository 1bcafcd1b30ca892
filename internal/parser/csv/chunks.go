// Package csv reads delimited files as a lazy, finite sequence of fixed-size
// row chunks. The file header is validated against an explicit schema
// contract at open time, so a renamed or missing column fails fast instead of
// failing row by row. Memory stays bounded: at most one chunk is held at a
// time, regardless of file size.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rpasquini/airbnb/internal/schema"
)

// Chunk is one bounded group of raw records. Index is 0-based file order;
// the pipeline commits chunks in this order.
type Chunk struct {
	Index int
	Rows  []schema.Raw
}

// ErrFn reports a recoverable per-row read problem (malformed quoting, wrong
// field count). The affected row is excluded from the chunk and reading
// continues; the caller decides whether accumulated errors fail the stage.
type ErrFn func(line int, err error)

// ChunkReader produces successive chunks from a single pass over r. It is
// not restartable: a new run reopens the source and builds a new reader.
type ChunkReader struct {
	cr        *csv.Reader
	index     schema.HeaderIndex
	rawHeader []string
	chunkSize int
	onError   ErrFn

	line int // last line handed out (header is line 1)
	n    int // chunks emitted
	done bool
}

// NewChunkReader reads and validates the header row, returning a reader that
// emits chunks of at most chunkSize rows. Any positive chunk size produces
// the same total row sequence; it tunes memory and commit granularity only.
func NewChunkReader(r io.Reader, contract schema.Contract, chunkSize int, onError ErrFn) (*ChunkReader, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be > 0, got %d", chunkSize)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // width enforced per row, reported via onError

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", contract.Name, err)
	}
	idx, err := contract.Index(header)
	if err != nil {
		return nil, err
	}

	raw := make([]string, len(header))
	for i, h := range header {
		raw[i] = strings.TrimSpace(h)
	}

	return &ChunkReader{
		cr:        cr,
		index:     idx,
		rawHeader: raw,
		chunkSize: chunkSize,
		onError:   onError,
		line:      1,
	}, nil
}

// Index returns the header-derived column index shared by all chunks.
func (c *ChunkReader) Index() schema.HeaderIndex { return c.index }

// RawHeader returns the trimmed header cells as they appeared in the file.
func (c *ChunkReader) RawHeader() []string { return c.rawHeader }

// Next returns the next chunk in file order, or (nil, io.EOF) once the file
// is exhausted. Rows that fail to read keep their place in the line count but
// are excluded from the chunk and reported via the error callback.
func (c *ChunkReader) Next(ctx context.Context) (*Chunk, error) {
	if c.done {
		return nil, io.EOF
	}

	width := len(c.rawHeader)
	rows := make([]schema.Raw, 0, c.chunkSize)

	for len(rows) < c.chunkSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := c.cr.Read()
		if err == io.EOF {
			c.done = true
			break
		}
		c.line++

		if err != nil {
			c.report(fmt.Errorf("read: %w", err))
			continue
		}
		if len(rec) != width {
			c.report(fmt.Errorf("field count: expected %d, got %d", width, len(rec)))
			continue
		}

		fields := make([]string, len(rec))
		for i, v := range rec {
			fields[i] = strings.TrimSpace(v)
		}
		rows = append(rows, schema.Raw{Fields: fields, Line: c.line})
	}

	if len(rows) == 0 {
		return nil, io.EOF
	}
	ch := &Chunk{Index: c.n, Rows: rows}
	c.n++
	return ch, nil
}

func (c *ChunkReader) report(err error) {
	if c.onError != nil {
		c.onError(c.line, err)
	}
}
