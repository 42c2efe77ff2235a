// Package toml parses the gddb TOML authoring format into the canonical
// project.Project representation the export pipeline operates on.
//
// This adapts internal/parser/toml from the schema-migration ancestor of
// this tool line for line: a flat intermediate document decoded with
// BurntSushi/toml, then converted into the domain model by a converter
// carrying a seen-names set, exactly as that package's schemaFile/converter
// pair does for SQL schemas.
package toml

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"gddb/internal/project"
)

// projectFile is the top-level TOML document.
type projectFile struct {
	Project map[string]string `toml:"project"`
	Tables  []tomlTable        `toml:"tables"`
}

type tomlTable struct {
	ID       string              `toml:"id"`
	Name     string              `toml:"name"`
	Enabled  bool                `toml:"export_enabled"`
	Struct   string              `toml:"export_struct_name"`
	Parent   string              `toml:"parent_table"`
	ParentRowCol string          `toml:"parent_row_column"`
	IsPlugin bool                `toml:"is_plugin"`
	IsSystem bool                `toml:"is_system"`
	IsDerived bool               `toml:"is_derived"`
	DerivedFrom string          `toml:"derived_from_table"`
	Keys     tomlKeys            `toml:"keys"`
	Columns  []tomlColumn        `toml:"columns"`
	Rows     []map[string]any    `toml:"rows"`
	Variants []tomlVariant       `toml:"variants"`
}

type tomlKeys struct {
	Primary   string            `toml:"primary"`
	Secondary []tomlSecondaryKey `toml:"secondary"`
}

type tomlSecondaryKey struct {
	Column string `toml:"column"`
	Unique bool   `toml:"unique"`
}

type tomlColumn struct {
	ID             string   `toml:"id"`
	Name           string   `toml:"name"`
	Kind           string   `toml:"kind"`
	TypeID         int      `toml:"type_id"`
	Options        []string `toml:"options"`
	RelationTable  string   `toml:"relation_table"`
	RelationVariant int     `toml:"relation_variant"`
	SubtableChild  string   `toml:"subtable_child_table"`
	RowRefBaseTable string  `toml:"rowref_base_table"`
	RowRefPairColumn string `toml:"rowref_pair_column"`
	ExportType     string   `toml:"export_type"`
	ExportEnumName string   `toml:"export_enum_name"`
	ExportIgnore   bool     `toml:"export_ignore"`
}

type tomlVariant struct {
	ID          int                `toml:"id"`
	Name        string             `toml:"name"`
	DeletedRows []string           `toml:"deleted_rows"`
	AddedRows   []map[string]any   `toml:"added_rows"`
	Overrides   []tomlOverride     `toml:"overrides"`
}

type tomlOverride struct {
	Row    string `toml:"row"`
	Column string `toml:"column"`
	Value  any    `toml:"value"`
}

// Parser reads gddb TOML project files.
type Parser struct{}

// NewParser creates a new TOML project parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens the file at path and parses it as a gddb project.
func (p *Parser) ParseFile(path string) (*project.Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("toml: open file %q: %w", path, err)
	}
	defer f.Close()
	return p.Parse(f)
}

// Parse reads TOML content from r and returns the corresponding
// project.Project.
func (p *Parser) Parse(r io.Reader) (*project.Project, error) {
	var pf projectFile
	if _, err := toml.NewDecoder(r).Decode(&pf); err != nil {
		return nil, fmt.Errorf("toml: decode error: %w", err)
	}
	return newConverter(&pf).convert()
}

type converter struct {
	pf        *projectFile
	seenTable map[string]bool
}

func newConverter(pf *projectFile) *converter {
	return &converter{pf: pf, seenTable: make(map[string]bool, len(pf.Tables))}
}

func (c *converter) convert() (*project.Project, error) {
	proj := &project.Project{PluginOptions: c.pf.Project}
	for i := range c.pf.Tables {
		t, err := c.convertTable(&c.pf.Tables[i])
		if err != nil {
			return nil, fmt.Errorf("toml: table %q: %w", c.pf.Tables[i].ID, err)
		}
		proj.Tables = append(proj.Tables, t)
	}
	return proj, nil
}

func (c *converter) validateTableID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("table id is empty")
	}
	if c.seenTable[id] {
		return fmt.Errorf("duplicate table id %q", id)
	}
	c.seenTable[id] = true
	return nil
}

func (c *converter) convertTable(tt *tomlTable) (*project.Table, error) {
	if err := c.validateTableID(tt.ID); err != nil {
		return nil, err
	}

	t := &project.Table{
		ID:          tt.ID,
		Name:        tt.Name,
		IsPlugin:    tt.IsPlugin,
		IsSystem:    tt.IsSystem,
		IsDerived:   tt.IsDerived,
		DerivedFromTableID: tt.DerivedFrom,
		ParentTable: tt.Parent,
		ParentRowID: tt.ParentRowCol,
		Keys: project.Keys{
			PrimaryColumnID: tt.Keys.Primary,
		},
	}
	for _, sk := range tt.Keys.Secondary {
		t.Keys.Secondary = append(t.Keys.Secondary, project.SecondaryKey{
			ColumnID: sk.Column,
			Unique:   sk.Unique,
		})
	}
	if tt.Enabled || tt.Struct != "" {
		t.Export = &project.ExportConfig{Enabled: tt.Enabled, StructName: tt.Struct}
	}

	for i := range tt.Columns {
		col, err := convertColumn(&tt.Columns[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", tt.Columns[i].ID, err)
		}
		t.Columns = append(t.Columns, col)
	}

	for _, row := range tt.Rows {
		r, err := convertRow(row)
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, r)
	}

	if err := c.convertVariants(t, tt.Variants); err != nil {
		return nil, err
	}

	return t, nil
}

func convertColumn(tc *tomlColumn) (*project.Column, error) {
	if strings.TrimSpace(tc.ID) == "" {
		return nil, fmt.Errorf("column id is empty")
	}
	return &project.Column{
		ID:                tc.ID,
		Name:              tc.Name,
		Kind:              project.Kind(tc.Kind),
		TypeID:            tc.TypeID,
		Options:           tc.Options,
		RelationTargetTable:   tc.RelationTable,
		RelationTargetVariant: tc.RelationVariant,
		SubtableChildTable: tc.SubtableChild,
		RowRefBaseTableID: tc.RowRefBaseTable,
		RowRefPairColumnID: tc.RowRefPairColumn,
		ExportType:        project.ExportType(tc.ExportType),
		ExportEnumName:    tc.ExportEnumName,
		ExportIgnore:      tc.ExportIgnore,
	}, nil
}

func convertRow(fields map[string]any) (*project.Row, error) {
	id, _ := fields["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("row is missing an \"id\" field")
	}
	r := &project.Row{ID: id, Cells: make(map[string]project.Cell, len(fields))}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		cell, err := toCell(v)
		if err != nil {
			return nil, fmt.Errorf("row %q, column %q: %w", id, k, err)
		}
		r.Cells[k] = cell
	}
	return r, nil
}

func toCell(v any) (project.Cell, error) {
	switch val := v.(type) {
	case string:
		return project.StringCell(val), nil
	case bool:
		return project.BoolCell(val), nil
	case int64:
		return project.NumberCell(float64(val)), nil
	case float64:
		return project.NumberCell(val), nil
	case []any:
		var vec [4]float64
		for i, e := range val {
			if i >= 4 {
				break
			}
			f, ok := toFloat(e)
			if !ok {
				return project.Cell{}, fmt.Errorf("vector component %d is not numeric", i)
			}
			vec[i] = f
		}
		return project.Cell{Kind: project.CellVector, Vector: vec}, nil
	default:
		return project.Cell{}, fmt.Errorf("unsupported TOML value type %T", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func (c *converter) convertVariants(t *project.Table, variants []tomlVariant) error {
	for _, v := range variants {
		if v.ID == 0 {
			return fmt.Errorf("variant id 0 is reserved for the base variant")
		}
		t.Variants = append(t.Variants, project.TableVariant{ID: v.ID, Name: v.Name})

		delta := &project.TableVariantDelta{DeletedRowIDs: v.DeletedRows}
		for _, row := range v.AddedRows {
			r, err := convertRow(row)
			if err != nil {
				return fmt.Errorf("variant %d: %w", v.ID, err)
			}
			delta.AddedRows = append(delta.AddedRows, r)
		}
		for _, ov := range v.Overrides {
			cell, err := toCell(ov.Value)
			if err != nil {
				return fmt.Errorf("variant %d: override %s.%s: %w", v.ID, ov.Row, ov.Column, err)
			}
			delta.Overrides = append(delta.Overrides, project.CellOverride{
				RowID: ov.Row, ColumnID: ov.Column, Value: cell,
			})
		}

		if t.Deltas == nil {
			t.Deltas = make(map[int]*project.TableVariantDelta)
		}
		t.Deltas[v.ID] = delta
	}
	return nil
}
