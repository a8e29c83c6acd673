// Package table provides the mutable row/column table the normalization
// pipeline operates on. Cells are strings; typed interpretation is the
// caller's concern.
package table

import (
	"fmt"
	"strings"
)

// Table is an ordered set of named columns over string-cell rows.
// All mutating operations work in place.
type Table struct {
	columns []string
	rows    [][]string
}

// New creates a table from raw rows. Column names are assigned later via
// SetColumns.
func New(rows [][]string) *Table {
	return &Table{rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns the current column names in order.
func (t *Table) Columns() []string { return t.columns }

// Rows returns the underlying rows. Callers must not reshape them.
func (t *Table) Rows() [][]string { return t.rows }

// SetColumns assigns names positionally. Rows whose width differs from the
// name count are dropped; the number of dropped rows is returned.
func (t *Table) SetColumns(names []string) int {
	kept := t.rows[:0]
	dropped := 0
	for _, row := range t.rows {
		if len(row) != len(names) {
			dropped++
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
	t.columns = append([]string(nil), names...)
	return dropped
}

// Index returns the position of the first column with the given name.
func (t *Table) Index(name string) (int, bool) {
	for i, c := range t.columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// Get returns the cell at (row, column name), or "" if the column is absent.
func (t *Table) Get(row int, name string) string {
	i, ok := t.Index(name)
	if !ok {
		return ""
	}
	return t.rows[row][i]
}

// Set writes the cell at (row, column name). Unknown columns are ignored.
func (t *Table) Set(row int, name, value string) {
	if i, ok := t.Index(name); ok {
		t.rows[row][i] = value
	}
}

// AddColumn appends an empty column with the given name.
func (t *Table) AddColumn(name string) {
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], "")
	}
}

// MergeDuplicates concatenates the values of columns sharing a name into
// the first occurrence, space-separated in positional order with repeated
// whitespace collapsed. Later occurrences are renamed "<name> <i>" so every
// column label ends up unique.
func (t *Table) MergeDuplicates() {
	seen := make(map[string][]int)
	for i, c := range t.columns {
		seen[c] = append(seen[c], i)
	}
	for _, name := range append([]string(nil), t.columns...) {
		idx := seen[name]
		if len(idx) < 2 {
			continue
		}
		for r, row := range t.rows {
			parts := make([]string, 0, len(idx))
			for _, i := range idx {
				parts = append(parts, row[i])
			}
			t.rows[r][idx[0]] = collapseSpaces(strings.Join(parts, " "))
		}
		for n, i := range idx[1:] {
			t.columns[i] = fmt.Sprintf("%s %d", name, n)
		}
		delete(seen, name)
	}
}

// Filter keeps only the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) {
	kept := t.rows[:0]
	for i, row := range t.rows {
		if keep(i) {
			kept = append(kept, row)
		}
	}
	t.rows = kept
}

// Project returns a new table containing the named columns in the given
// order. Unknown names produce an error.
func (t *Table) Project(names []string) (*Table, error) {
	idx := make([]int, len(names))
	for n, name := range names {
		i, ok := t.Index(name)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		idx[n] = i
	}
	out := &Table{columns: append([]string(nil), names...)}
	out.rows = make([][]string, len(t.rows))
	for r, row := range t.rows {
		cells := make([]string, len(idx))
		for n, i := range idx {
			cells[n] = row[i]
		}
		out.rows[r] = cells
	}
	return out, nil
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
