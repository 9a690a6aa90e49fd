package dataset

import (
	"fmt"
	"strings"
)

// Frame is an ordered set of equally sized named columns.
type Frame struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// NewFrame returns an empty frame. The row count is fixed by the first
// column added.
func NewFrame() *Frame {
	return &Frame{index: make(map[string]int)}
}

// Rows returns the number of records.
func (f *Frame) Rows() int { return f.rows }

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.cols) }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.name
	}
	return names
}

// Has reports whether a column with the given name exists. Stage logic
// uses this for the schema-presence checks the contracts require.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the named column, or false when absent.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// AddColumn appends a column. It fails on a duplicate name or a length
// that disagrees with the frame.
func (f *Frame) AddColumn(c *Column) error {
	if _, exists := f.index[c.name]; exists {
		return fmt.Errorf("column %q already exists", c.name)
	}
	if len(f.cols) > 0 && c.Len() != f.rows {
		return fmt.Errorf("column %q has %d rows, frame has %d", c.name, c.Len(), f.rows)
	}
	if len(f.cols) == 0 {
		f.rows = c.Len()
	}
	f.index[c.name] = len(f.cols)
	f.cols = append(f.cols, c)
	return nil
}

// ReplaceColumn swaps the named column in place, preserving its position.
func (f *Frame) ReplaceColumn(c *Column) error {
	i, ok := f.index[c.name]
	if !ok {
		return fmt.Errorf("column %q not found", c.name)
	}
	if c.Len() != f.rows {
		return fmt.Errorf("column %q has %d rows, frame has %d", c.name, c.Len(), f.rows)
	}
	f.cols[i] = c
	return nil
}

// PutColumn replaces the named column when present and appends it
// otherwise. Derivation stages use this so that re-running the pipeline
// over already-enriched data refreshes rather than duplicates columns.
func (f *Frame) PutColumn(c *Column) error {
	if f.Has(c.name) {
		return f.ReplaceColumn(c)
	}
	return f.AddColumn(c)
}

// RenameColumn changes a column's name, keeping its position. Renaming a
// missing column is a no-op; renaming onto an existing name fails.
func (f *Frame) RenameColumn(from, to string) error {
	i, ok := f.index[from]
	if !ok {
		return nil
	}
	if from == to {
		return nil
	}
	if _, exists := f.index[to]; exists {
		return fmt.Errorf("cannot rename %q to %q: target exists", from, to)
	}
	delete(f.index, from)
	f.index[to] = i
	f.cols[i].name = to
	return nil
}

// RowKey returns a composite identity for row i covering every column,
// with missing cells kept distinct from empty and zero cells. Two rows are
// exact duplicates iff their keys are equal.
func (f *Frame) RowKey(i int) string {
	var b strings.Builder
	for ci, c := range f.cols {
		if ci > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(c.rowKeyPart(i))
	}
	return b.String()
}

// Select copies the rows where mask is true into a new frame with the
// same column order. The receiver is not modified.
func (f *Frame) Select(mask []bool) *Frame {
	out := NewFrame()
	for _, c := range f.cols {
		// AddColumn cannot fail here: names are unique and the
		// filtered columns share one length.
		_ = out.AddColumn(c.filter(mask))
	}
	if len(f.cols) == 0 {
		out.rows = 0
	}
	return out
}

// Record returns row i as a map keyed by column name, with missing
// numeric cells as nil.
func (f *Frame) Record(i int) map[string]interface{} {
	rec := make(map[string]interface{}, len(f.cols))
	for _, c := range f.cols {
		rec[c.name] = c.Value(i)
	}
	return rec
}

// Records returns up to limit rows starting at offset as maps. A limit of
// zero or less means no bound.
func (f *Frame) Records(offset, limit int) []map[string]interface{} {
	if offset < 0 {
		offset = 0
	}
	if offset >= f.rows {
		return []map[string]interface{}{}
	}
	end := f.rows
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]map[string]interface{}, 0, end-offset)
	for i := offset; i < end; i++ {
		out = append(out, f.Record(i))
	}
	return out
}
