// Package project holds the read-only document model consumed by the
// export pipeline: an ordered Project of Tables, each with ordered
// Columns and Rows, optional TableVariants, subtable linkage, and
// row-reference declarations.
//
// Everything in this package is data, not behavior: the export pipeline
// treats a *Project as an external collaborator and never
// mutates the one it was handed directly — it clones first (see
// internal/export/snapshot.go).
package project

// Project is the root document: an ordered sequence of Tables plus a
// process-wide plugin-setting mapping carried through unexamined by the
// export pipeline.
type Project struct {
	Tables        []*Table
	PluginOptions map[string]string
}

// FindTable looks up a table by its stable id.
func (p *Project) FindTable(id string) *Table {
	if p == nil {
		return nil
	}
	for _, t := range p.Tables {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Table is one user-authored table: a stable identifier, a display name,
// ordered Columns, ordered Rows, a Keys declaration, optional export
// configuration, optional variant deltas, and optional subtable parent
// linkage.
type Table struct {
	ID          string
	Name        string
	Columns     []*Column
	Rows        []*Row
	Keys        Keys
	Export      *ExportConfig
	Variants    []TableVariant
	Deltas      map[int]*TableVariantDelta // keyed by TableVariant.ID, base (0) excluded
	IsPlugin    bool
	IsSystem    bool
	IsDerived   bool // rows computed by joins; must not carry variant deltas
	DerivedFromTableID string // set when IsDerived; walked by row-reference target resolution
	ParentTable string
	ParentRowID string // column id on this table holding the parent's row id
}

// FindColumn looks up a column by its stable id.
func (t *Table) FindColumn(id string) *Column {
	for _, c := range t.Columns {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// FindRow looks up a row by its stable id.
func (t *Table) FindRow(id string) *Row {
	for _, r := range t.Rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// IsSubtable reports whether this table has a declared parent.
func (t *Table) IsSubtable() bool {
	return t.ParentTable != "" && t.ParentRowID != ""
}

// ExportConfig carries per-table export overrides.
type ExportConfig struct {
	Enabled    bool
	StructName string
}

// Keys declares which columns form the table's primary and secondary keys.
type Keys struct {
	PrimaryColumnID string
	Secondary       []SecondaryKey
}

// SecondaryKey declares one secondary-key column and its uniqueness.
type SecondaryKey struct {
	ColumnID string
	Unique   bool
}

// Kind enumerates the fixed column-kind registry. A Kind
// value outside this list that still appears on a Column is dispatched to
// a registered provider (see internal/export/providers.go).
type Kind string

const (
	KindID       Kind = "id"
	KindText     Kind = "text"
	KindCheckbox Kind = "checkbox"
	KindNumber   Kind = "number"
	KindFormula  Kind = "formula"
	KindSelect   Kind = "select"
	KindRelation Kind = "relation"
	KindSubtable Kind = "subtable"
	KindSpline   Kind = "spline"
	KindVec2     Kind = "vec2"
	KindVec3     Kind = "vec3"
	KindVec4     Kind = "vec4"
	KindColor    Kind = "color"
	KindAsset    Kind = "asset"
	KindTableRef Kind = "table_ref"
)

// ExportType narrows how a Number/Formula column is serialized.
type ExportType string

const (
	ExportTypeDefault ExportType = ""
	ExportTypeInt     ExportType = "int"
	ExportTypeFloat   ExportType = "float"
	ExportTypeDouble  ExportType = "double"
	ExportTypeFixed32 ExportType = "fixed32"
	ExportTypeFixed64 ExportType = "fixed64"
)

// Column is a single column inside a Table.
type Column struct {
	ID      string
	Name    string
	Kind    Kind
	TypeID  int // for asset/vector/color kinds; 0 = built-in default for Kind

	// Select
	Options []string

	// Relation
	RelationTargetTable   string
	RelationTargetVariant int

	// Subtable
	SubtableChildTable string

	// Row reference (TableRefColumn half of the pair): RowRefBaseTableID
	// names the declared base table whose derivation chain the reference
	// may target, and RowRefPairColumnID names the sibling RowIdColumn
	// that carries the referenced row's id.
	RowRefBaseTableID   string
	RowRefPairColumnID string

	// Export hints
	ExportType     ExportType
	ExportEnumName string
	ExportIgnore   bool
}

// Row is a single row: a stable id and a sparse mapping from column id to
// Cell. Columns with no entry are treated as empty/zero for their kind.
type Row struct {
	ID    string
	Cells map[string]Cell
}

// Cell returns the cell for a column id, and whether one was present.
func (r *Row) Cell(columnID string) (Cell, bool) {
	c, ok := r.Cells[columnID]
	return c, ok
}

// CellKind tags which arm of Cell is populated.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellString
	CellBool
	CellVector
)

// Cell is a tagged variant holding one of a handful of source-document
// value shapes. The serializer never branches on Cell's Kind directly —
// by the time a cell reaches internal/export/serialize.go the field's
// FieldKind has already been resolved and validated at schema-binding
// time, and only that decides how the bytes are written.
type Cell struct {
	Kind   CellKind
	Number float64
	Str    string
	Bool   bool
	Vector [4]float64 // x, y, z, w
}

// NumberCell constructs a numeric cell.
func NumberCell(v float64) Cell { return Cell{Kind: CellNumber, Number: v} }

// StringCell constructs a string cell.
func StringCell(v string) Cell { return Cell{Kind: CellString, Str: v} }

// BoolCell constructs a boolean cell.
func BoolCell(v bool) Cell { return Cell{Kind: CellBool, Bool: v} }

// VectorCell constructs a vector cell; trailing unused components for
// Vec2/Vec3 are ignored by the serializer based on field width.
func VectorCell(x, y, z, w float64) Cell {
	return Cell{Kind: CellVector, Vector: [4]float64{x, y, z, w}}
}
