package export

import (
	"math"

	"gddb/internal/diagnostics"
	"gddb/internal/project"
)

// vec32TypeID distinguishes a Vec2/3/4 column's element width. Columns
// carry this on TypeID: vec32TypeID selects the 32-bit (Fixed32) lane, and
// any other value (0 by default) selects the 64-bit (Fixed64) lane. Colors
// use the same flag to choose between Color32 (LDR) and Fixed64Vec4 (HDR).
const vec32TypeID = 1

// createFieldDescriptor maps one source column to its exported shape,
// appending a diagnostic and returning nil if the column cannot be
// exported as-is. isSubtableParentColumn reports whether col is the
// subtable parent link column; ExportIgnore skips every column except that
// one.
func createFieldDescriptor(
	table *project.Table,
	structName string,
	col *project.Column,
	fieldName string,
	diags *diagnostics.List,
	providers ColumnExportProviderRegistry,
	isSubtableParentColumn bool,
) *FieldDescriptor {
	if col.ExportIgnore && !isSubtableParentColumn {
		return nil
	}

	switch col.Kind {
	case project.KindID, project.KindText, project.KindAsset, project.KindTableRef:
		return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldStringHandle, Width: FieldStringHandle.Width()}

	case project.KindCheckbox:
		return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldByte, Width: FieldByte.Width()}

	case project.KindNumber, project.KindFormula:
		return numericFieldDescriptor(col, fieldName, diags)

	case project.KindSpline:
		return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldSplineHandle, Width: FieldSplineHandle.Width()}

	case project.KindVec2, project.KindVec3, project.KindVec4:
		return vectorFieldDescriptor(col, fieldName)

	case project.KindColor:
		if col.TypeID == vec32TypeID {
			return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldFixed64Vec4, Width: FieldFixed64Vec4.Width()}
		}
		return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldColor32, Width: colorWidth}

	case project.KindSelect:
		return nil // resolved by the enum mapper; callers attach EnumModel separately

	case project.KindRelation:
		return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldForeignKeyInt32, Width: FieldForeignKeyInt32.Width()}

	case project.KindSubtable:
		return nil // modeled as a relationship, not a field

	default:
		if providers != nil {
			if fd, ok := providers.TryCreateFieldDescriptor(col, fieldName); ok {
				return fd
			}
		}
		diags.Errorf("export/type/unsupported-kind", table.ID, col.ID,
			"column %q has unsupported kind %q and no registered provider", col.ID, col.Kind)
		return nil
	}
}

func numericFieldDescriptor(col *project.Column, fieldName string, diags *diagnostics.List) *FieldDescriptor {
	switch col.ExportType {
	case project.ExportTypeInt, project.ExportTypeDefault:
		return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldInt32, Width: FieldInt32.Width()}
	case project.ExportTypeFloat:
		return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldFloat32, Width: FieldFloat32.Width()}
	case project.ExportTypeDouble:
		return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldFloat64, Width: FieldFloat64.Width()}
	case project.ExportTypeFixed32:
		return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldFixed32, Width: FieldFixed32.Width()}
	case project.ExportTypeFixed64:
		return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldFixed64, Width: FieldFixed64.Width()}
	default:
		diags.Errorf("export/type/unknown-export-type", "", col.ID, "column %q has unrecognized export type %q", col.ID, col.ExportType)
		return nil
	}
}

func vectorFieldDescriptor(col *project.Column, fieldName string) *FieldDescriptor {
	wide := col.TypeID != vec32TypeID
	switch col.Kind {
	case project.KindVec2:
		if wide {
			return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldFixed64Vec2, Width: FieldFixed64Vec2.Width()}
		}
		return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldFixed32Vec2, Width: FieldFixed32Vec2.Width()}
	case project.KindVec3:
		if wide {
			return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldFixed64Vec3, Width: FieldFixed64Vec3.Width()}
		}
		return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldFixed32Vec3, Width: FieldFixed32Vec3.Width()}
	default: // KindVec4
		if wide {
			return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldFixed64Vec4, Width: FieldFixed64Vec4.Width()}
		}
		return &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldFixed32Vec4, Width: FieldFixed32Vec4.Width()}
	}
}

// isIntegral reports whether v is within 1e-9 of its nearest integer, the
// tolerance the key resolver and the Int32 numeric field path both use to
// accept authoring-tool floating point round-off.
func isIntegral(v float64) bool {
	return math.Abs(v-math.Round(v)) <= 1e-9
}
