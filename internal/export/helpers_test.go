package export

import "gddb/internal/project"

// newNumberTable builds a minimal enabled table with a Number primary key
// column named "pk" and the given (rowID, pkValue) rows.
func newNumberTable(id string, rows ...[2]any) *project.Table {
	t := &project.Table{
		ID:      id,
		Name:    id,
		Export:  &project.ExportConfig{Enabled: true},
		Columns: []*project.Column{{ID: "pk", Name: "pk", Kind: project.KindNumber}},
		Keys:    project.Keys{PrimaryColumnID: "pk"},
	}
	for _, r := range rows {
		rowID := r[0].(string)
		val := r[1].(float64)
		t.Rows = append(t.Rows, &project.Row{ID: rowID, Cells: map[string]project.Cell{
			"pk": project.NumberCell(val),
		}})
	}
	return t
}
