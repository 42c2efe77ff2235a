package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gddb/internal/diagnostics"
	"gddb/internal/project"
)

func modelWithStringField(tableID, colID string, values ...string) *ExportTableModel {
	col := &project.Column{ID: colID, Name: colID, Kind: project.KindText}
	field := &FieldDescriptor{Column: col, FieldName: colID, Kind: FieldStringHandle, Width: 4}
	table := &project.Table{ID: tableID}
	for i, v := range values {
		table.Rows = append(table.Rows, &project.Row{
			ID:    "row" + string(rune('0'+i)),
			Cells: map[string]project.Cell{colID: project.StringCell(v)},
		})
	}
	return &ExportTableModel{Table: table, Fields: []*FieldDescriptor{field}}
}

func TestBuildStringRegistrySortsAndDeduplicates(t *testing.T) {
	model := modelWithStringField("t", "c", "banana", "apple", "banana", "")
	diags := &diagnostics.List{}
	reg := buildStringRegistry([]*ExportTableModel{model}, diags)
	require.False(t, diags.HasErrors())

	require.Len(t, reg.Entries, 2)
	assert.Equal(t, "apple", reg.Entries[0].Value)
	assert.Equal(t, "banana", reg.Entries[1].Value)
}

func TestBuildStringRegistryEmptyStringNeverRegistered(t *testing.T) {
	model := modelWithStringField("t", "c", "")
	diags := &diagnostics.List{}
	reg := buildStringRegistry([]*ExportTableModel{model}, diags)
	require.False(t, diags.HasErrors())
	assert.Empty(t, reg.Entries)
	_, ok := reg.ID("")
	assert.False(t, ok)
}

func TestStringRegistryIDRoundTrips(t *testing.T) {
	model := modelWithStringField("t", "c", "hello", "world")
	diags := &diagnostics.List{}
	reg := buildStringRegistry([]*ExportTableModel{model}, diags)
	require.False(t, diags.HasErrors())

	for _, want := range []string{"hello", "world"} {
		id, ok := reg.ID(want)
		require.True(t, ok)
		var found string
		for _, e := range reg.Entries {
			if e.ID == id {
				found = e.Value
			}
		}
		assert.Equal(t, want, found)
	}
}

func TestBuildStringRegistryTooLargeEntryIsDiagnostic(t *testing.T) {
	big := make([]byte, maxStringRegistryEntryBytes+1)
	for i := range big {
		big[i] = 'a'
	}
	model := modelWithStringField("t", "c", string(big))
	diags := &diagnostics.List{}
	reg := buildStringRegistry([]*ExportTableModel{model}, diags)
	require.True(t, diags.HasErrors())
	assert.Equal(t, "export/strings/entry-too-large", diags.Items()[0].Code)
	assert.Empty(t, reg.Entries)
}
