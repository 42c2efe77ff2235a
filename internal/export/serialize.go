package export

import (
	"encoding/binary"
	"math"

	"gddb/internal/diagnostics"
	"gddb/internal/fixedpoint"
	"gddb/internal/project"
	"gddb/internal/spline"
)

// pkIndex looks up the resolved PrimaryKeyModel for any (tableID, variantID)
// pair already built in this export, the shared lookup foreign keys and
// subtable-parent links consult.
type pkIndex map[string]map[int]*PrimaryKeyModel

func newPKIndex() pkIndex { return make(pkIndex) }

func (idx pkIndex) put(tableID string, variantID int, pk *PrimaryKeyModel) {
	m, ok := idx[tableID]
	if !ok {
		m = make(map[int]*PrimaryKeyModel)
		idx[tableID] = m
	}
	m[variantID] = pk
}

func (idx pkIndex) get(tableID string, variantID int) *PrimaryKeyModel {
	m, ok := idx[tableID]
	if !ok {
		return nil
	}
	return m[variantID]
}

// BinaryTableSection is one serialized table+variant: its physical name,
// record width, packed record bytes, and (elsewhere attached) slot array.
type BinaryTableSection struct {
	Name        string
	RecordWidth int
	RowCount    int
	Records     []byte
}

// serializeRecords packs model's rows into a fixed-width record stream per
// pks resolves foreign keys and subtable-parent links; reg resolves
// string and spline field values.
func serializeRecords(model *ExportTableModel, pks pkIndex, reg *StringRegistry, providers ColumnExportProviderRegistry, diags *diagnostics.List) *BinaryTableSection {
	rows := model.Table.Rows
	buf := make([]byte, model.RecordWidth*len(rows))

	for rowIdx, row := range rows {
		off := rowIdx * model.RecordWidth
		for _, f := range model.Fields {
			n := writeField(buf[off:off+f.Width], model, f, row, pks, reg, providers, diags)
			off += n
		}
	}

	return &BinaryTableSection{
		Name:        model.PhysicalTableName(),
		RecordWidth: model.RecordWidth,
		RowCount:    len(rows),
		Records:     buf,
	}
}

func writeField(out []byte, model *ExportTableModel, f *FieldDescriptor, row *project.Row, pks pkIndex, reg *StringRegistry, providers ColumnExportProviderRegistry, diags *diagnostics.List) int {
	cell, _ := row.Cell(f.Column.ID)

	switch f.Kind {
	case FieldStringHandle, FieldSplineHandle:
		value := cell.Str
		if f.Kind == FieldSplineHandle {
			if canon, err := spline.Canonicalize(value); err == nil {
				value = canon
			}
		}
		var id uint32
		if value != "" {
			id, _ = reg.ID(value)
		}
		binary.LittleEndian.PutUint32(out, id)

	case FieldByte:
		if cell.Bool {
			out[0] = 1
		} else {
			out[0] = 0
		}

	case FieldInt32:
		if !isIntegral(cell.Number) {
			diags.Errorf("export/convert/non-integer", model.Table.ID, f.Column.ID, "row %q: value %v is not an integer", row.ID, cell.Number)
		}
		binary.LittleEndian.PutUint32(out, uint32(int32(cell.Number)))

	case FieldFloat32:
		binary.LittleEndian.PutUint32(out, math.Float32bits(float32(cell.Number)))

	case FieldFloat64:
		binary.LittleEndian.PutUint64(out, math.Float64bits(cell.Number))

	case FieldFixed32:
		binary.LittleEndian.PutUint32(out, uint32(fixedpoint.Fixed32FromDouble(cell.Number)))

	case FieldFixed64:
		binary.LittleEndian.PutUint64(out, uint64(fixedpoint.Fixed64FromDouble(cell.Number)))

	case FieldFixed32Vec2, FieldFixed32Vec3, FieldFixed32Vec4:
		n := componentCount(f.Kind)
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint32(out[i*4:], uint32(fixedpoint.Fixed32FromDouble(cell.Vector[i])))
		}

	case FieldFixed64Vec2, FieldFixed64Vec3, FieldFixed64Vec4:
		n := componentCount(f.Kind)
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint64(out[i*8:], uint64(fixedpoint.Fixed64FromDouble(cell.Vector[i])))
		}

	case FieldColor32:
		for i := 0; i < 4; i++ {
			out[i] = colorChannelByte(cell.Vector[i])
		}

	case FieldEnum:
		value, ok := encodeEnumValue(f.Enum, cell.Str)
		if !ok {
			diags.Errorf("export/enum/invalid-value", model.Table.ID, f.Column.ID, "row %q: value %q is not a valid option", row.ID, cell.Str)
		}
		writeEnumValue(out, f.Enum.StorageWidth, value)

	case FieldForeignKeyInt32:
		writeFK(out, pks, f.Column.RelationTargetTable, f.Column.RelationTargetVariant, cell.Str, model.Table.ID, f.Column.ID, row.ID, diags)

	case FieldSubtableParentFK:
		writeFK(out, pks, model.Table.ParentTable, model.VariantID, cell.Str, model.Table.ID, f.Column.ID, row.ID, diags)

	default:
		if providers != nil {
			if _, err := providers.TryWriteField(f.Column, cell, out); err != nil {
				diags.Errorf("export/convert/provider-error", model.Table.ID, f.Column.ID, "row %q: %v", row.ID, err)
			}
		}
	}

	return f.Width
}

func writeFK(out []byte, pks pkIndex, targetTable string, targetVariant int, targetRowID string, tableID, colID, rowID string, diags *diagnostics.List) {
	if targetRowID == "" {
		binary.LittleEndian.PutUint32(out, uint32(int32(-1)))
		return
	}
	pk := pks.get(targetTable, targetVariant)
	var key int32 = -1
	if pk != nil {
		if k, ok := pk.RowToKey[targetRowID]; ok {
			key = k
		}
	}
	if key == -1 {
		diags.Errorf("export/fk/unresolved", tableID, colID, "row %q: target row %q not found in table %q variant %d", rowID, targetRowID, targetTable, targetVariant)
	}
	binary.LittleEndian.PutUint32(out, uint32(key))
}

func writeEnumValue(out []byte, width, value int) {
	if width == 1 {
		out[0] = byte(value)
		return
	}
	binary.LittleEndian.PutUint16(out, uint16(value))
}

func componentCount(kind FieldKind) int {
	switch kind {
	case FieldFixed32Vec2, FieldFixed64Vec2:
		return 2
	case FieldFixed32Vec3, FieldFixed64Vec3:
		return 3
	default:
		return 4
	}
}

// colorChannelByte implements the color channel conversion rule:
// clamp(round(clamp(v,0,1) * 255), 0, 255) with round-half-away-from-zero.
func colorChannelByte(v float64) byte {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	scaled := v * 255
	rounded := math.Floor(scaled + 0.5)
	if rounded < 0 {
		rounded = 0
	} else if rounded > 255 {
		rounded = 255
	}
	return byte(rounded)
}
