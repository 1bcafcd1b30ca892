// Package datasource abstracts where a dataset file comes from. The pipeline
// opens each stage through a Source, so local plain and gzip files share one
// seam and tests can stand in their own readers.
package datasource

import (
	"context"
	"io"
)

// Source yields a fresh reader over a dataset. Open is called once per stage
// run; the returned reader is consumed in a single pass and closed.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
