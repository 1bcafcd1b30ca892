// Package filter applies the price-ceiling predicate to cleaned row batches.
package filter

// Threshold drops rows whose designated columns exceed a fixed limit.
// Columns holds positions within the value slice; Limit is inclusive: a value
// strictly greater than Limit drops the row, a value equal to it does not.
type Threshold struct {
	Columns []int
	Limit   float64
}

// Apply partitions batch into kept rows and a dropped count. A row is dropped
// iff any designated column holds a numeric value above the limit; NULLs pass.
// The kept slice aliases the input backing array. Pure, no I/O;
// len(kept) + dropped == len(batch) always holds.
func (t Threshold) Apply(batch [][]any) (kept [][]any, dropped int) {
	if len(t.Columns) == 0 {
		return batch, 0
	}
	kept = batch[:0]
	for _, row := range batch {
		if t.exceeds(row) {
			dropped++
			continue
		}
		kept = append(kept, row)
	}
	return kept, dropped
}

func (t Threshold) exceeds(row []any) bool {
	for _, i := range t.Columns {
		if i >= len(row) {
			continue
		}
		switch v := row[i].(type) {
		case float64:
			if v > t.Limit {
				return true
			}
		case int64:
			if float64(v) > t.Limit {
				return true
			}
		}
	}
	return false
}
