package export

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gddb/internal/project"
)

// TestPipelineTwoTableForeignKey verifies an end-to-end run resolves a
// relation column to its target table's assigned primary-key index and
// writes both the referencing table's records and the referenced table's
// primary-key slot array into the output container.
func TestPipelineTwoTableForeignKey(t *testing.T) {
	a := newNumberTable("a", [2]any{"rowA_1", 1.0}, [2]any{"rowA_2", 2.0}, [2]any{"rowA_3", 3.0})

	b := &project.Table{
		ID:     "b",
		Name:   "b",
		Export: &project.ExportConfig{Enabled: true},
		Columns: []*project.Column{
			{ID: "bpk", Name: "bpk", Kind: project.KindNumber},
			{ID: "aRef", Name: "aRef", Kind: project.KindRelation, RelationTargetTable: "a"},
		},
		Keys: project.Keys{PrimaryColumnID: "bpk"},
		Rows: []*project.Row{
			{ID: "rowB_1", Cells: map[string]project.Cell{"bpk": project.NumberCell(1), "aRef": project.StringCell("rowA_2")}},
			{ID: "rowB_2", Cells: map[string]project.Cell{"bpk": project.NumberCell(2), "aRef": project.StringCell("rowA_1")}},
		},
	}

	proj := &project.Project{Tables: []*project.Table{a, b}}
	out := filepath.Join(t.TempDir(), "out.gddb")

	result := (&Pipeline{}).Run(proj, Options{BinaryOutputPath: out})
	require.False(t, result.HasErrors(), "%v", result.Diagnostics)

	sections := parseDirectory(t, result.Binary)
	aSection := sections["A"]
	bSection := sections["B"]
	require.NotNil(t, aSection)
	require.NotNil(t, bSection)

	require.Len(t, aSection.slotArray, 4)
	assert.Equal(t, []int32{-1, 0, 1, 2}, aSection.slotArray)

	// b's fields are bpk(Int32,4) then aRef(ForeignKeyInt32,4); aRef sits
	// at byte offset 4 of each 8-byte record.
	require.Equal(t, 8, bSection.recordWidth)
	fk0 := int32(binary.LittleEndian.Uint32(bSection.records[4:8]))
	fk1 := int32(binary.LittleEndian.Uint32(bSection.records[12:16]))
	assert.Equal(t, int32(2), fk0)
	assert.Equal(t, int32(1), fk1)
}

// TestPipelineSubtableFanOut verifies an end-to-end run builds a parent
// table's dense subtable-range index and the matching child-row index from
// child rows that reference the parent by row ID.
func TestPipelineSubtableFanOut(t *testing.T) {
	parent := newNumberTable("p", [2]any{"rowP_10", 10.0}, [2]any{"rowP_11", 11.0})
	child := &project.Table{
		ID:          "c",
		Name:        "c",
		Export:      &project.ExportConfig{Enabled: true},
		ParentTable: "p",
		ParentRowID: "parentRow",
		Columns:     []*project.Column{{ID: "parentRow", Name: "parentRow", Kind: project.KindID}},
		Rows: []*project.Row{
			{ID: "row0", Cells: map[string]project.Cell{"parentRow": project.StringCell("rowP_10")}},
			{ID: "row1", Cells: map[string]project.Cell{"parentRow": project.StringCell("rowP_10")}},
			{ID: "row2", Cells: map[string]project.Cell{"parentRow": project.StringCell("rowP_11")}},
		},
	}
	// p must declare c as a subtable column for the inclusion closure to
	// pick c up even though c.Export is already set directly here; declare
	// it anyway so the link resolves on the parent side too.
	parent.Columns = append(parent.Columns, &project.Column{ID: "children", Name: "children", Kind: project.KindSubtable, SubtableChildTable: "c"})

	proj := &project.Project{Tables: []*project.Table{parent, child}}
	out := filepath.Join(t.TempDir(), "out.gddb")

	result := (&Pipeline{}).Run(proj, Options{BinaryOutputPath: out})
	require.False(t, result.HasErrors(), "%v", result.Diagnostics)

	sections := parseDirectory(t, result.Binary)
	ranges := sections["C__sub_parent_ranges"]
	rows := sections["C__sub_parent_rows"]
	require.NotNil(t, ranges)
	require.NotNil(t, rows)

	require.Len(t, ranges.records, 12*8)
	start10 := int32(binary.LittleEndian.Uint32(ranges.records[10*8:]))
	count10 := int32(binary.LittleEndian.Uint32(ranges.records[10*8+4:]))
	start11 := int32(binary.LittleEndian.Uint32(ranges.records[11*8:]))
	count11 := int32(binary.LittleEndian.Uint32(ranges.records[11*8+4:]))
	assert.Equal(t, int32(0), start10)
	assert.Equal(t, int32(2), count10)
	assert.Equal(t, int32(2), start11)
	assert.Equal(t, int32(1), count11)

	require.Len(t, rows.records, 3*4)
	assert.Equal(t, int32(0), int32(binary.LittleEndian.Uint32(rows.records[0:4])))
	assert.Equal(t, int32(1), int32(binary.LittleEndian.Uint32(rows.records[4:8])))
	assert.Equal(t, int32(2), int32(binary.LittleEndian.Uint32(rows.records[8:12])))
}

// TestPipelineVariantTable verifies a variant delta (row deletion, row
// addition, and a cell override on a surviving row) produces its own
// container section with the override value baked into the serialized
// record while leaving the base section untouched.
func TestPipelineVariantTable(t *testing.T) {
	table := &project.Table{
		ID:     "t",
		Name:   "t",
		Export: &project.ExportConfig{Enabled: true},
		Columns: []*project.Column{
			{ID: "pk", Name: "pk", Kind: project.KindNumber},
			{ID: "col_x", Name: "col_x", Kind: project.KindNumber},
		},
		Keys: project.Keys{PrimaryColumnID: "pk"},
		Rows: []*project.Row{
			{ID: "r1", Cells: map[string]project.Cell{"pk": project.NumberCell(1), "col_x": project.NumberCell(0)}},
			{ID: "r2", Cells: map[string]project.Cell{"pk": project.NumberCell(2), "col_x": project.NumberCell(0)}},
		},
		Variants: []project.TableVariant{{ID: 7, Name: "V7"}},
		Deltas: map[int]*project.TableVariantDelta{
			7: {
				DeletedRowIDs: []string{"r1"},
				AddedRows: []*project.Row{
					{ID: "r3", Cells: map[string]project.Cell{"pk": project.NumberCell(3), "col_x": project.NumberCell(0)}},
				},
				Overrides: []project.CellOverride{
					{RowID: "r2", ColumnID: "col_x", Value: project.NumberCell(42)},
				},
			},
		},
	}

	proj := &project.Project{Tables: []*project.Table{table}}
	out := filepath.Join(t.TempDir(), "out.gddb")

	result := (&Pipeline{}).Run(proj, Options{BinaryOutputPath: out})
	require.False(t, result.HasErrors(), "%v", result.Diagnostics)

	sections := parseDirectory(t, result.Binary)
	base := sections["T"]
	variant := sections["T@v7"]
	require.NotNil(t, base)
	require.NotNil(t, variant)

	assert.Equal(t, 2, base.recordCount)
	assert.Equal(t, 2, variant.recordCount)
	assert.Equal(t, base.recordWidth, variant.recordWidth)

	// variant row order: r2 (surviving), r3 (added); col_x is the second
	// Int32 field at byte offset 4.
	colX := int32(binary.LittleEndian.Uint32(variant.records[4:8]))
	assert.Equal(t, int32(42), colX)
}

func TestPipelineDeterministic(t *testing.T) {
	a := newNumberTable("a", [2]any{"r1", 1.0}, [2]any{"r2", 2.0})
	proj := &project.Project{Tables: []*project.Table{a}}

	out1 := filepath.Join(t.TempDir(), "out1.gddb")
	out2 := filepath.Join(t.TempDir(), "out2.gddb")

	r1 := (&Pipeline{}).Run(proj, Options{BinaryOutputPath: out1})
	r2 := (&Pipeline{}).Run(proj, Options{BinaryOutputPath: out2})
	require.False(t, r1.HasErrors())
	require.False(t, r2.HasErrors())
	assert.Equal(t, r1.Binary, r2.Binary)
}

func TestPipelineNoTablesEnabledIsFatal(t *testing.T) {
	proj := &project.Project{Tables: []*project.Table{{ID: "t", Name: "t"}}}
	out := filepath.Join(t.TempDir(), "out.gddb")
	result := (&Pipeline{}).Run(proj, Options{BinaryOutputPath: out})
	require.True(t, result.HasErrors())
	assert.Equal(t, "export/config/no-tables-enabled", result.Diagnostics[0].Code)
	assert.Nil(t, result.Binary)
}

func TestPipelineMissingBinaryOutputPathIsFatal(t *testing.T) {
	proj := &project.Project{Tables: []*project.Table{newNumberTable("a", [2]any{"r1", 1.0})}}
	result := (&Pipeline{}).Run(proj, Options{})
	require.True(t, result.HasErrors())
	assert.Equal(t, "export/options/missing-binary-output-path", result.Diagnostics[0].Code)
}

func TestPipelineWritesManifestWhenRequested(t *testing.T) {
	a := newNumberTable("a", [2]any{"r1", 1.0})
	proj := &project.Project{Tables: []*project.Table{a}}
	out := filepath.Join(t.TempDir(), "out.gddb")

	result := (&Pipeline{}).Run(proj, Options{BinaryOutputPath: out, WriteManifest: true})
	require.False(t, result.HasErrors())
	require.NotNil(t, result.Manifest)

	data, err := os.ReadFile(out + ".manifest.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"A"`)
}

// --- test-only binary container reader -------------------------------

type parsedSection struct {
	recordWidth int
	recordCount int
	records     []byte
	slotArray   []int32
}

func parseDirectory(t *testing.T, bin []byte) map[string]*parsedSection {
	t.Helper()
	require.GreaterOrEqual(t, len(bin), headerSize)
	tableCount := binary.LittleEndian.Uint32(bin[8:12])

	out := make(map[string]*parsedSection, tableCount)
	dirStart := headerSize
	namePoolStart := dirStart + int(tableCount)*directoryEntrySize
	for i := uint32(0); i < tableCount; i++ {
		entry := bin[dirStart+int(i)*directoryEntrySize : dirStart+int(i+1)*directoryEntrySize]
		nameOffset := binary.LittleEndian.Uint32(entry[0:4])
		recordOffset := binary.LittleEndian.Uint32(entry[4:8])
		recordCount := binary.LittleEndian.Uint32(entry[8:12])
		recordSize := binary.LittleEndian.Uint32(entry[12:16])
		slotOffset := binary.LittleEndian.Uint32(entry[16:20])
		slotLength := binary.LittleEndian.Uint32(entry[20:24])

		name := readCString(bin, namePoolStart+int(nameOffset))

		sec := &parsedSection{
			recordWidth: int(recordSize),
			recordCount: int(recordCount),
			records:     bin[recordOffset : recordOffset+recordCount*recordSize],
		}
		for j := uint32(0); j < slotLength; j++ {
			off := slotOffset + j*4
			sec.slotArray = append(sec.slotArray, int32(binary.LittleEndian.Uint32(bin[off:off+4])))
		}
		out[name] = sec
	}
	return out
}

func readCString(buf []byte, offset int) string {
	end := offset
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	return string(buf[offset:end])
}
