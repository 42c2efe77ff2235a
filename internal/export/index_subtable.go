package export

import (
	"sort"

	"gddb/internal/diagnostics"
)

const maxParentKeyDensity = 1_000_000

// SubtableParentIndex is the pair of sections that make up the subtable
// parent-range index: a dense range array keyed by parent key, and a flat
// array of child row indices grouped by parent key ascending.
type SubtableParentIndex struct {
	Ranges []Range
	Rows   []int32
}

// buildSubtableParentIndex builds the parent-range index for a subtable
// section: row indices follow the declaration order of child.Table.Rows,
// and each child row's parent key comes from resolving its
// SubtableParentFK field against parentPK.
func buildSubtableParentIndex(child *ExportTableModel, parentPK *PrimaryKeyModel, diags *diagnostics.List) *SubtableParentIndex {
	type entry struct {
		parentKey int32
		rowIndex  int32
	}
	var entries []entry
	var maxParentKey int32 = -1

	for rowIdx, row := range child.Table.Rows {
		parentRowID := row.Cells[childParentLinkColumnID(child)]
		targetRowID := parentRowID.Str
		if targetRowID == "" {
			continue
		}
		key, ok := parentPK.RowToKey[targetRowID]
		if !ok {
			diags.Errorf("export/fk/unresolved", child.Table.ID, child.Table.ParentRowID, "row %q: parent row %q not found", row.ID, targetRowID)
			continue
		}
		entries = append(entries, entry{parentKey: key, rowIndex: int32(rowIdx)})
		if key > maxParentKey {
			maxParentKey = key
		}
	}

	if maxParentKey > maxParentKeyDensity {
		diags.Errorf("export/subtable/parent-index-range-too-large", child.Table.ID, "", "max parent key %d exceeds the %d density bound", maxParentKey, maxParentKeyDensity)
		return &SubtableParentIndex{}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].parentKey != entries[j].parentKey {
			return entries[i].parentKey < entries[j].parentKey
		}
		return entries[i].rowIndex < entries[j].rowIndex
	})

	length := maxParentKey + 1
	if length < 0 {
		length = 0
	}
	ranges := make([]Range, length)
	rows := make([]int32, 0, len(entries))
	i := 0
	for key := int32(0); key < length; key++ {
		start := int32(len(rows))
		for i < len(entries) && entries[i].parentKey == key {
			rows = append(rows, entries[i].rowIndex)
			i++
		}
		ranges[key] = Range{Start: start, Count: int32(len(rows)) - start}
	}

	return &SubtableParentIndex{Ranges: ranges, Rows: rows}
}

// childParentLinkColumnID returns the column id on a subtable that holds
// the parent row's id, i.e. Table.ParentRowID.
func childParentLinkColumnID(child *ExportTableModel) string {
	return child.Table.ParentRowID
}
