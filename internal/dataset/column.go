package dataset

import (
	"strconv"
)

// Kind discriminates the cell representation of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindBool
)

// String returns the kind name for logs and error messages.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Column is one named column of a frame. The concrete storage depends on
// the kind; all accessors are safe for concurrent readers once the column
// is no longer being written.
type Column struct {
	name  string
	kind  Kind
	text  []string
	nums  []float64
	valid []bool
	flags []bool
}

// NewTextColumn builds a text column over the given cells.
func NewTextColumn(name string, cells []string) *Column {
	return &Column{name: name, kind: KindText, text: cells}
}

// NewNumberColumn builds a number column. valid marks which cells hold a
// value; a nil valid treats every cell as present.
func NewNumberColumn(name string, cells []float64, valid []bool) *Column {
	if valid == nil {
		valid = make([]bool, len(cells))
		for i := range valid {
			valid[i] = true
		}
	}
	return &Column{name: name, kind: KindNumber, nums: cells, valid: valid}
}

// NewBoolColumn builds a bool column.
func NewBoolColumn(name string, cells []bool) *Column {
	return &Column{name: name, kind: KindBool, flags: cells}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the column kind.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of cells.
func (c *Column) Len() int {
	switch c.kind {
	case KindText:
		return len(c.text)
	case KindNumber:
		return len(c.nums)
	case KindBool:
		return len(c.flags)
	}
	return 0
}

// Text returns the string cell at row i. Valid only for text columns.
func (c *Column) Text(i int) string { return c.text[i] }

// Number returns the numeric cell at row i and whether it is present.
// Valid only for number columns.
func (c *Column) Number(i int) (float64, bool) {
	return c.nums[i], c.valid[i]
}

// Bool returns the flag cell at row i. Valid only for bool columns.
func (c *Column) Bool(i int) bool { return c.flags[i] }

// SetNumber overwrites the numeric cell at row i and marks it present.
func (c *Column) SetNumber(i int, v float64) {
	c.nums[i] = v
	c.valid[i] = true
}

// Missing counts the absent cells of a number column. Text and bool
// columns have no missing representation and report zero.
func (c *Column) Missing() int {
	if c.kind != KindNumber {
		return 0
	}
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}
	return n
}

// NonMissing copies out the present values of a number column in row
// order.
func (c *Column) NonMissing() []float64 {
	if c.kind != KindNumber {
		return nil
	}
	out := make([]float64, 0, len(c.nums))
	for i, v := range c.nums {
		if c.valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// Value returns the cell at row i as a JSON-facing value: string, float64,
// bool, or nil for a missing numeric cell.
func (c *Column) Value(i int) interface{} {
	switch c.kind {
	case KindText:
		return c.text[i]
	case KindNumber:
		if !c.valid[i] {
			return nil
		}
		return c.nums[i]
	case KindBool:
		return c.flags[i]
	}
	return nil
}

// CellString renders the cell at row i for delimited-text output.
// Missing numeric cells render empty; bool cells render True/False to stay
// byte-compatible with the previously published artifact format.
func (c *Column) CellString(i int) string {
	switch c.kind {
	case KindText:
		return c.text[i]
	case KindNumber:
		if !c.valid[i] {
			return ""
		}
		return strconv.FormatFloat(c.nums[i], 'f', -1, 64)
	case KindBool:
		if c.flags[i] {
			return "True"
		}
		return "False"
	}
	return ""
}

// rowKeyPart renders the cell for composite row-identity keys. The prefix
// keeps a missing number distinct from an empty string cell.
func (c *Column) rowKeyPart(i int) string {
	switch c.kind {
	case KindText:
		return "t:" + c.text[i]
	case KindNumber:
		if !c.valid[i] {
			return "n:"
		}
		return "n:" + strconv.FormatFloat(c.nums[i], 'g', -1, 64)
	case KindBool:
		if c.flags[i] {
			return "b:1"
		}
		return "b:0"
	}
	return ""
}

// filter copies the cells selected by mask into a new column.
func (c *Column) filter(mask []bool) *Column {
	out := &Column{name: c.name, kind: c.kind}
	switch c.kind {
	case KindText:
		for i, keep := range mask {
			if keep {
				out.text = append(out.text, c.text[i])
			}
		}
	case KindNumber:
		for i, keep := range mask {
			if keep {
				out.nums = append(out.nums, c.nums[i])
				out.valid = append(out.valid, c.valid[i])
			}
		}
	case KindBool:
		for i, keep := range mask {
			if keep {
				out.flags = append(out.flags, c.flags[i])
			}
		}
	}
	return out
}
