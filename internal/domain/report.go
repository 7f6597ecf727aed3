package domain

// Table is a renderer-facing grid of named columns. Cells are preformatted.
type Table struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// AddRow appends a row. Missing trailing cells are padded with "".
func (t *Table) AddRow(cells ...string) {
	row := make([]string, max(len(cells), len(t.Columns)))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Column returns the cells of the named column, or nil if there is none.
func (t Table) Column(name string) []string {
	for i, c := range t.Columns {
		if c != name {
			continue
		}
		out := make([]string, len(t.Rows))
		for j, row := range t.Rows {
			if i < len(row) {
				out[j] = row[i]
			}
		}
		return out
	}
	return nil
}
