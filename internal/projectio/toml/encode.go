package toml

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"gddb/internal/project"
)

// Encode writes proj back out as a gddb TOML document, the mirror image
// of Parse/ParseFile. It exists for the `introspect` command: a project
// pulled from a live database has nowhere else to live until it's
// hand-edited and re-exported.
func Encode(proj *project.Project, w io.Writer) error {
	return toml.NewEncoder(w).Encode(toProjectFile(proj))
}

// EncodeFile creates (or truncates) the file at path and writes proj to it.
func EncodeFile(proj *project.Project, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("toml: create file %q: %w", path, err)
	}
	defer f.Close()
	return Encode(proj, f)
}

func toProjectFile(proj *project.Project) *projectFile {
	pf := &projectFile{Project: proj.PluginOptions}
	for _, t := range proj.Tables {
		pf.Tables = append(pf.Tables, toTomlTable(t))
	}
	return pf
}

func toTomlTable(t *project.Table) tomlTable {
	tt := tomlTable{
		ID:           t.ID,
		Name:         t.Name,
		Parent:       t.ParentTable,
		ParentRowCol: t.ParentRowID,
		IsPlugin:     t.IsPlugin,
		IsSystem:     t.IsSystem,
		IsDerived:    t.IsDerived,
		DerivedFrom:  t.DerivedFromTableID,
		Keys: tomlKeys{
			Primary: t.Keys.PrimaryColumnID,
		},
	}
	if t.Export != nil {
		tt.Enabled = t.Export.Enabled
		tt.Struct = t.Export.StructName
	}
	for _, sk := range t.Keys.Secondary {
		tt.Keys.Secondary = append(tt.Keys.Secondary, tomlSecondaryKey{Column: sk.ColumnID, Unique: sk.Unique})
	}
	for _, c := range t.Columns {
		tt.Columns = append(tt.Columns, toTomlColumn(c))
	}
	for _, r := range t.Rows {
		tt.Rows = append(tt.Rows, toTomlRow(r))
	}
	for _, v := range t.Variants {
		tv := tomlVariant{ID: v.ID, Name: v.Name}
		if delta := t.Deltas[v.ID]; delta != nil {
			tv.DeletedRows = delta.DeletedRowIDs
			for _, added := range delta.AddedRows {
				tv.AddedRows = append(tv.AddedRows, toTomlRow(added))
			}
			for _, ov := range delta.Overrides {
				tv.Overrides = append(tv.Overrides, tomlOverride{Row: ov.RowID, Column: ov.ColumnID, Value: cellToRaw(ov.Value)})
			}
		}
		tt.Variants = append(tt.Variants, tv)
	}
	return tt
}

func toTomlColumn(c *project.Column) tomlColumn {
	return tomlColumn{
		ID:               c.ID,
		Name:             c.Name,
		Kind:             string(c.Kind),
		TypeID:           c.TypeID,
		Options:          c.Options,
		RelationTable:    c.RelationTargetTable,
		RelationVariant:  c.RelationTargetVariant,
		SubtableChild:    c.SubtableChildTable,
		RowRefBaseTable:  c.RowRefBaseTableID,
		RowRefPairColumn: c.RowRefPairColumnID,
		ExportType:       string(c.ExportType),
		ExportEnumName:   c.ExportEnumName,
		ExportIgnore:     c.ExportIgnore,
	}
}

func toTomlRow(r *project.Row) map[string]any {
	out := map[string]any{"id": r.ID}
	for colID, cell := range r.Cells {
		out[colID] = cellToRaw(cell)
	}
	return out
}

func cellToRaw(c project.Cell) any {
	switch c.Kind {
	case project.CellString:
		return c.Str
	case project.CellBool:
		return c.Bool
	case project.CellNumber:
		return c.Number
	case project.CellVector:
		return []any{c.Vector[0], c.Vector[1], c.Vector[2], c.Vector[3]}
	default:
		return nil
	}
}
