package export

import (
	"sort"

	"gddb/internal/diagnostics"
)

// KeyValuePair is one (key, rowIndex) entry of a sorted secondary section.
type KeyValuePair struct {
	Key      int32
	RowIndex int32
}

// Range is a (start, count) span into a flat row-index array.
type Range struct {
	Start int32
	Count int32
}

// buildPrimarySlotArray builds the dense primary-key slot array attached
// directly to a table's section: length maxKey+1, -1 where no row claims
// that key.
func buildPrimarySlotArray(model *ExportTableModel, diags *diagnostics.List) []int32 {
	if model.PrimaryKey == nil {
		return nil
	}
	slots := make([]int32, model.PrimaryKey.MaxKey+1)
	for i := range slots {
		slots[i] = -1
	}
	for rowIdx, row := range model.Table.Rows {
		key, ok := model.PrimaryKey.RowToKey[row.ID]
		if !ok {
			continue
		}
		if int(key) >= len(slots) {
			diags.Errorf("export/keys/index-out-of-range", model.Table.ID, model.PrimaryKey.ColumnID, "row %q key %d exceeds slot array bound", row.ID, key)
			continue
		}
		if slots[key] != -1 {
			diags.Errorf("export/keys/duplicate", model.Table.ID, model.PrimaryKey.ColumnID, "primary key %d claimed by more than one row", key)
			continue
		}
		slots[key] = int32(rowIdx)
	}
	return slots
}

// buildPrimarySortedPairs builds the "<Table>__pk_sorted" section: every
// (key, rowIndex) pair, sorted by key then row index.
func buildPrimarySortedPairs(model *ExportTableModel) []KeyValuePair {
	if model.PrimaryKey == nil {
		return nil
	}
	pairs := make([]KeyValuePair, 0, len(model.Table.Rows))
	for rowIdx, row := range model.Table.Rows {
		key, ok := model.PrimaryKey.RowToKey[row.ID]
		if !ok {
			continue
		}
		pairs = append(pairs, KeyValuePair{Key: key, RowIndex: int32(rowIdx)})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Key != pairs[j].Key {
			return pairs[i].Key < pairs[j].Key
		}
		return pairs[i].RowIndex < pairs[j].RowIndex
	})
	return pairs
}
