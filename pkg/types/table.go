package types

import "fmt"

// Column is one named, ordered sequence of cells.
type Column struct {
	// Name is the column header. Unique within a table.
	Name string

	// Kind is the dominant cell kind, as inferred on load or set by a
	// dtype conversion. Individual cells may still differ after fills.
	Kind Kind

	// Cells holds one value per row.
	Cells []Value
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	Cols []Column
}

// NewTable validates column lengths and name uniqueness and returns a Table.
func NewTable(cols []Column) (Table, error) {
	seen := make(map[string]bool, len(cols))
	rows := -1
	for _, c := range cols {
		if c.Name == "" {
			return Table{}, fmt.Errorf("types: column name must not be empty")
		}
		if seen[c.Name] {
			return Table{}, fmt.Errorf("types: duplicate column name %q", c.Name)
		}
		seen[c.Name] = true
		if rows == -1 {
			rows = len(c.Cells)
		} else if len(c.Cells) != rows {
			return Table{}, fmt.Errorf("types: column %q has %d cells, want %d", c.Name, len(c.Cells), rows)
		}
	}
	return Table{Cols: cols}, nil
}

// NumRows returns the row count.
func (t Table) NumRows() int {
	if len(t.Cols) == 0 {
		return 0
	}
	return len(t.Cols[0].Cells)
}

// NumCols returns the column count.
func (t Table) NumCols() int {
	return len(t.Cols)
}

// ColumnNames returns the ordered column headers.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Cols))
	for i, c := range t.Cols {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Row materializes row i as a slice of cells in column order.
func (t Table) Row(i int) []Value {
	row := make([]Value, len(t.Cols))
	for c := range t.Cols {
		row[c] = t.Cols[c].Cells[i]
	}
	return row
}

// Clone returns a deep copy. Mutating the copy never affects the original.
func (t Table) Clone() Table {
	cols := make([]Column, len(t.Cols))
	for i, c := range t.Cols {
		cells := make([]Value, len(c.Cells))
		copy(cells, c.Cells)
		cols[i] = Column{Name: c.Name, Kind: c.Kind, Cells: cells}
	}
	return Table{Cols: cols}
}
