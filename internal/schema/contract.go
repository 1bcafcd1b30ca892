// Package schema defines the dataset descriptors and typed row models for the
// three Airbnb tables. A descriptor carries everything the pipeline needs to
// load one file: source file, target table, ordered columns, conflict policy,
// the expected header contract, and a builder that turns a raw CSV record
// into a column-aligned value slice.
package schema

import (
	"fmt"
	"strings"
)

// Raw is one unparsed CSV record plus its 1-based source line number
// (the header is line 1).
type Raw struct {
	Fields []string
	Line   int
}

// HeaderIndex maps canonical column names onto field positions within a Raw
// record. It is derived once per file from the header row.
type HeaderIndex map[string]int

// Get returns the named field of r, or "" when the column is absent or the
// record is short. Width problems are caught earlier by the reader; the
// empty-string fallback keeps builders total.
func (h HeaderIndex) Get(r Raw, col string) string {
	i, ok := h[col]
	if !ok || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// Contract is the explicit schema descriptor for one input file: the columns
// a header must provide, matched by canonical name rather than position.
type Contract struct {
	Name    string
	Columns []string
}

// Index validates a file header against the contract and returns the
// position index for the expected columns. Extra columns in the file are
// ignored; any missing expected column fails fast, before row processing
// starts.
func (c Contract) Index(header []string) (HeaderIndex, error) {
	pos := make(map[string]int, len(header))
	for i, cell := range header {
		pos[canonical(cell)] = i
	}

	idx := make(HeaderIndex, len(c.Columns))
	var missing []string
	for _, col := range c.Columns {
		i, ok := pos[canonical(col)]
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[col] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: header missing column(s): %s",
			c.Name, strings.Join(missing, ", "))
	}
	return idx, nil
}
