// Package export implements the export pipeline: it turns a project.Project
// into a binary container plus a JSON manifest. The pipeline is organized
// the way a multi-stage transform pipeline typically organizes itself — small, single-purpose files, a
// diagnostics.List threaded through instead of early-return errors, and a
// final orchestrator (pipeline.go) that sequences the stages and gates on
// diagnostics.List.HasErrors after each one.
package export

import (
	"strconv"

	"gddb/internal/project"
)

// FieldKind is the on-disk encoding of one exported column, per the
// Source/Kind/Width/Encoding table of the column exporter.
type FieldKind int

const (
	FieldStringHandle FieldKind = iota
	FieldByte
	FieldInt32
	FieldFloat32
	FieldFloat64
	FieldFixed32
	FieldFixed64
	FieldSplineHandle
	FieldFixed32Vec2
	FieldFixed32Vec3
	FieldFixed32Vec4
	FieldFixed64Vec2
	FieldFixed64Vec3
	FieldFixed64Vec4
	FieldColor32
	FieldEnum
	FieldForeignKeyInt32
	FieldSubtableParentFK
)

// Width returns the on-disk byte width of kind when it does not depend on
// enum storage width (FieldEnum's width is carried on FieldDescriptor.Enum
// instead and callers must not use this for that kind).
func (k FieldKind) Width() int {
	switch k {
	case FieldStringHandle, FieldInt32, FieldFloat32, FieldSplineHandle,
		FieldForeignKeyInt32, FieldSubtableParentFK:
		return 4
	case FieldByte, FieldColor32:
		return 1
	case FieldFloat64, FieldFixed64:
		return 8
	case FieldFixed32:
		return 4
	case FieldFixed32Vec2:
		return 8
	case FieldFixed32Vec3:
		return 12
	case FieldFixed32Vec4:
		return 16
	case FieldFixed64Vec2:
		return 16
	case FieldFixed64Vec3:
		return 24
	case FieldFixed64Vec4:
		return 32
	default:
		return 0
	}
}

// Color32 is encoded as 4 one-byte channels, so its declared width is the
// fixed constant below rather than FieldKind.Width's single-byte default.
const colorWidth = 4

// EnumModel is the resolved shape of one Select column.
type EnumModel struct {
	Name        string
	Options     []string
	IsKey       bool
	StorageWidth int // 1 or 2
}

// enumIdentity is the tuple that decides whether two columns sharing an
// enum name actually describe the same enum.
type enumIdentity struct {
	name    string
	isKey   bool
	options string // options joined with \x00, used as a comparable key
}

// FieldDescriptor is the binding between one source column and its
// exported on-disk shape (a.k.a. ExportColumnModel).
type FieldDescriptor struct {
	Column     *project.Column
	FieldName  string
	Kind       FieldKind
	Width      int
	Enum       *EnumModel
}

// PrimaryKeyModel is the resolved key assignment for one table+variant.
type PrimaryKeyModel struct {
	ColumnID string
	// RowToKey maps row id to its assigned non-negative integer key.
	RowToKey map[string]int32
	MaxKey   int32
}

// SecondaryKeyModel is one resolved secondary key.
type SecondaryKeyModel struct {
	ColumnID string
	Unique   bool
	RowToKey map[string]int32
	MaxKey   int32
}

// SubtableLink connects a parent table's subtable column to its child table.
type SubtableLink struct {
	ParentColumnID string
	ChildTableID   string
}

// RowRefModel is a resolved polymorphic row-reference pair.
type RowRefModel struct {
	Name            string
	TableRefColumn  string
	RowIDColumn     string
	Targets         []string // exported table ids, sorted by DbPropertyName, 1-based tag = index+1
}

// ExportTableModel is the per-snapshot aggregate the rest of the pipeline
// consumes.
type ExportTableModel struct {
	Table           *project.Table
	VariantID       int
	BinaryTableName string
	DbPropertyName  string
	Fields          []*FieldDescriptor
	PrimaryKey      *PrimaryKeyModel
	SecondaryKeys   []*SecondaryKeyModel
	RecordWidth     int

	SubtableChildren []SubtableLink
	SubtableParent   *SubtableLink // set on the child side
	RowRef           *RowRefModel

	IsDerived bool
}

// PhysicalTableName is the on-disk section name: the plain BinaryTableName
// for the base variant, or "<BinaryTableName>@v<variantId>" otherwise.
func (m *ExportTableModel) PhysicalTableName() string {
	if m.VariantID == 0 {
		return m.BinaryTableName
	}
	return m.BinaryTableName + "@v" + strconv.Itoa(m.VariantID)
}
