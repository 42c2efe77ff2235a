package export

import (
	"sort"

	"gddb/internal/diagnostics"
)

// buildSecondaryUniqueIndex builds the dense slot array for a unique
// secondary key ("<Table>__sk_<Field>__unique"): same shape as the primary
// slot array.
func buildSecondaryUniqueIndex(model *ExportTableModel, sk *SecondaryKeyModel, diags *diagnostics.List) []int32 {
	slots := make([]int32, sk.MaxKey+1)
	for i := range slots {
		slots[i] = -1
	}
	for rowIdx, row := range model.Table.Rows {
		key, ok := sk.RowToKey[row.ID]
		if !ok {
			continue
		}
		if slots[key] != -1 {
			diags.Errorf("export/keys/duplicate-secondary", model.Table.ID, sk.ColumnID, "secondary key %d claimed by more than one row", key)
			continue
		}
		slots[key] = int32(rowIdx)
	}
	return slots
}

// buildSecondaryPairs builds the sorted (key, rowIndex) pairs for a
// non-unique secondary key ("<Table>__sk_<Field>__pairs").
func buildSecondaryPairs(model *ExportTableModel, sk *SecondaryKeyModel) []KeyValuePair {
	pairs := make([]KeyValuePair, 0, len(model.Table.Rows))
	for rowIdx, row := range model.Table.Rows {
		key, ok := sk.RowToKey[row.ID]
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

// secondaryIndexFieldName returns the field name the section-name
// templates use for a secondary key column.
func secondaryIndexFieldName(model *ExportTableModel, colID string) string {
	for _, f := range model.Fields {
		if f.Column.ID == colID {
			return f.FieldName
		}
	}
	return colID
}
