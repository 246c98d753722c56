package engine

import "webplots/internal/models"

// Dataset holds loaded CSV data row-wise, in file order.
type Dataset struct {
	// Columns in header order; duplicate headers are renamed.
	Columns []string
	Rows    []models.Row
}

func (d *Dataset) Len() int { return len(d.Rows) }

// Column returns every cell of one column; absent cells are null.
func (d *Dataset) Column(name string) []models.Value {
	return columnValues(d.Rows, name)
}

// HasColumn reports whether name is one of the dataset's columns.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}
