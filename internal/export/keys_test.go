package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gddb/internal/diagnostics"
	"gddb/internal/project"
)

func TestResolveNumericPrimaryKeyUsesRawValue(t *testing.T) {
	table := newNumberTable("a",
		[2]any{"rowA_1", 1.0},
		[2]any{"rowA_2", 2.0},
		[2]any{"rowA_3", 3.0},
	)
	var diags diagnostics.List
	pk := resolvePrimaryKey(table, nil, &diags)
	require.False(t, diags.HasErrors())
	assert.Equal(t, int32(1), pk.RowToKey["rowA_1"])
	assert.Equal(t, int32(2), pk.RowToKey["rowA_2"])
	assert.Equal(t, int32(3), pk.RowToKey["rowA_3"])
	assert.Equal(t, int32(3), pk.MaxKey)
}

func TestResolveNumericPrimaryKeyNonIntegerIsDiagnostic(t *testing.T) {
	table := newNumberTable("a", [2]any{"r1", 1.5})
	var diags diagnostics.List
	resolvePrimaryKey(table, nil, &diags)
	require.True(t, diags.HasErrors())
	assert.Equal(t, "export/keys/non-integer", diags.Items()[0].Code)
}

func TestResolveNumericPrimaryKeyNegativeIsDiagnostic(t *testing.T) {
	table := newNumberTable("a", [2]any{"r1", -1.0})
	var diags diagnostics.List
	resolvePrimaryKey(table, nil, &diags)
	require.True(t, diags.HasErrors())
	assert.Equal(t, "export/keys/negative", diags.Items()[0].Code)
}

func TestResolveNumericPrimaryKeyOutOfRangeIsDiagnostic(t *testing.T) {
	table := newNumberTable("a", [2]any{"r1", 3000000001.0})
	var diags diagnostics.List
	pk := resolvePrimaryKey(table, nil, &diags)
	require.True(t, diags.HasErrors())
	assert.Equal(t, "export/keys/out-of-range", diags.Items()[0].Code)
	_, assigned := pk.RowToKey["r1"]
	assert.False(t, assigned)
}

func TestResolveNumericPrimaryKeyAtInt32MaxSucceeds(t *testing.T) {
	table := newNumberTable("a", [2]any{"r1", float64(2147483647)})
	var diags diagnostics.List
	pk := resolvePrimaryKey(table, nil, &diags)
	require.False(t, diags.HasErrors())
	assert.Equal(t, int32(2147483647), pk.RowToKey["r1"])
}

func TestResolveNumericPrimaryKeyDuplicateIsDiagnostic(t *testing.T) {
	table := newNumberTable("a", [2]any{"r1", 1.0}, [2]any{"r2", 1.0})
	var diags diagnostics.List
	resolvePrimaryKey(table, nil, &diags)
	require.True(t, diags.HasErrors())
	assert.Equal(t, "export/keys/duplicate", diags.Items()[0].Code)
}

func TestResolveUUIDPrimaryKeySortsCanonicalAscending(t *testing.T) {
	table := &project.Table{
		ID:      "u",
		Name:    "U",
		Export:  &project.ExportConfig{Enabled: true},
		Columns: []*project.Column{{ID: "id", Name: "id", Kind: project.KindID}},
		Keys:    project.Keys{PrimaryColumnID: "id"},
	}
	// Declared out of sorted order.
	table.Rows = []*project.Row{
		{ID: "row_c", Cells: map[string]project.Cell{"id": project.StringCell("00000000-0000-0000-0000-000000000003")}},
		{ID: "row_a", Cells: map[string]project.Cell{"id": project.StringCell("00000000-0000-0000-0000-000000000001")}},
		{ID: "row_b", Cells: map[string]project.Cell{"id": project.StringCell("00000000-0000-0000-0000-000000000002")}},
	}

	var diags diagnostics.List
	pk := resolvePrimaryKey(table, nil, &diags)
	require.False(t, diags.HasErrors())
	assert.Equal(t, int32(0), pk.RowToKey["row_a"])
	assert.Equal(t, int32(1), pk.RowToKey["row_b"])
	assert.Equal(t, int32(2), pk.RowToKey["row_c"])
}

func TestResolveUUIDPrimaryKeyIsDeterministicAcrossRuns(t *testing.T) {
	build := func() map[string]int32 {
		table := &project.Table{
			ID:      "u",
			Name:    "U",
			Export:  &project.ExportConfig{Enabled: true},
			Columns: []*project.Column{{ID: "id", Name: "id", Kind: project.KindID}},
			Keys:    project.Keys{PrimaryColumnID: "id"},
			Rows: []*project.Row{
				{ID: "row_c", Cells: map[string]project.Cell{"id": project.StringCell("00000000-0000-0000-0000-000000000003")}},
				{ID: "row_a", Cells: map[string]project.Cell{"id": project.StringCell("00000000-0000-0000-0000-000000000001")}},
			},
		}
		var diags diagnostics.List
		return resolvePrimaryKey(table, nil, &diags).RowToKey
	}
	first := build()
	second := build()
	assert.Equal(t, first, second)
}

func TestResolveUUIDPrimaryKeyInvalidIsDiagnostic(t *testing.T) {
	table := &project.Table{
		ID:      "u",
		Name:    "U",
		Export:  &project.ExportConfig{Enabled: true},
		Columns: []*project.Column{{ID: "id", Name: "id", Kind: project.KindID}},
		Keys:    project.Keys{PrimaryColumnID: "id"},
		Rows: []*project.Row{
			{ID: "row_a", Cells: map[string]project.Cell{"id": project.StringCell("not-a-uuid")}},
		},
	}
	var diags diagnostics.List
	resolvePrimaryKey(table, nil, &diags)
	require.True(t, diags.HasErrors())
	assert.Equal(t, "export/keys/invalid-uuid", diags.Items()[0].Code)
}

func TestResolveSyntheticRowIDKeyForSubtableWithoutDeclaredPK(t *testing.T) {
	table := &project.Table{
		ID:          "child",
		Name:        "Child",
		Export:      &project.ExportConfig{Enabled: true},
		ParentTable: "parent",
		ParentRowID: "parentRow",
		Columns: []*project.Column{
			{ID: "parentRow", Name: "parentRow", Kind: project.KindID},
			{ID: syntheticSubtableIDColumn, Name: syntheticSubtableIDColumn, Kind: project.KindID, ExportIgnore: true},
		},
		Rows: []*project.Row{
			{ID: "row_b", Cells: map[string]project.Cell{}},
			{ID: "row_a", Cells: map[string]project.Cell{}},
		},
	}
	var diags diagnostics.List
	pk := resolvePrimaryKey(table, nil, &diags)
	require.False(t, diags.HasErrors())
	assert.Equal(t, syntheticSubtableIDColumn, pk.ColumnID)
	assert.Equal(t, int32(0), pk.RowToKey["row_a"])
	assert.Equal(t, int32(1), pk.RowToKey["row_b"])
}

func TestResolveSecondaryKeysUniqueDuplicateIsDiagnostic(t *testing.T) {
	table := newNumberTable("a", [2]any{"r1", 1.0}, [2]any{"r2", 2.0})
	table.Columns = append(table.Columns, &project.Column{ID: "sk", Name: "sk", Kind: project.KindNumber})
	table.Rows[0].Cells["sk"] = project.NumberCell(5)
	table.Rows[1].Cells["sk"] = project.NumberCell(5)
	table.Keys.Secondary = []project.SecondaryKey{{ColumnID: "sk", Unique: true}}

	var diags diagnostics.List
	resolveSecondaryKeys(table, nil, &diags)
	require.True(t, diags.HasErrors())
	assert.Equal(t, "export/keys/duplicate-secondary", diags.Items()[0].Code)
}

func TestResolveSecondaryKeysNonUniqueAllowsDuplicates(t *testing.T) {
	table := newNumberTable("a", [2]any{"r1", 1.0}, [2]any{"r2", 2.0})
	table.Columns = append(table.Columns, &project.Column{ID: "sk", Name: "sk", Kind: project.KindNumber})
	table.Rows[0].Cells["sk"] = project.NumberCell(5)
	table.Rows[1].Cells["sk"] = project.NumberCell(5)
	table.Keys.Secondary = []project.SecondaryKey{{ColumnID: "sk", Unique: false}}

	var diags diagnostics.List
	sks := resolveSecondaryKeys(table, nil, &diags)
	require.False(t, diags.HasErrors())
	require.Len(t, sks, 1)
	assert.Equal(t, int32(5), sks[0].RowToKey["r1"])
	assert.Equal(t, int32(5), sks[0].RowToKey["r2"])
}
