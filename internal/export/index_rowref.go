package export

import "gddb/internal/diagnostics"

// RowTarget is one row's resolved row-reference: which target table (by
// 1-based tag into RowRefModel.Targets) and which row within it, or
// (-1,-1) if unresolved.
type RowTarget struct {
	Tag      int32
	TargetPK int32
}

// TargetMeta points a (parentKey, tag) or (parentKey) slot at its span
// inside a concatenated target-ranges array.
type TargetMeta struct {
	RangeOffset int32
	MapLength   int32
}

// RowRefIndex bundles the nine auxiliary sections one row reference
// produces.
type RowRefIndex struct {
	RowTargets []RowTarget

	ParentKindRanges []Range
	ParentKindRows   []int32

	ParentKindTargetMeta   []TargetMeta
	ParentKindTargetRanges []Range
	ParentKindTargetRows   []int32

	ParentTargetMeta   []TargetMeta
	ParentTargetRanges []Range
	ParentTargetRows   []int32
}

type rowRefEntry struct {
	rowIndex  int32
	parentKey int32
	tagIndex  int32 // 0-based
	targetPK  int32
}

// buildRowRefIndex requires child to be a subtable (non-subtable owners
// are diagnostic) and pks to already contain every target table
// in rowRef.Targets plus the child's own parent table.
func buildRowRefIndex(child *ExportTableModel, rowRef *RowRefModel, pks pkIndex, diags *diagnostics.List) *RowRefIndex {
	if !child.Table.IsSubtable() {
		diags.Errorf("export/rowref/not-subtable", child.Table.ID, "", "row reference %q is declared on a non-subtable table", rowRef.Name)
		return &RowRefIndex{}
	}

	parentPK := pks.get(child.Table.ParentTable, child.VariantID)
	targetIndex := make(map[string]int, len(rowRef.Targets))
	for i, t := range rowRef.Targets {
		targetIndex[t] = i
	}

	idx := &RowRefIndex{RowTargets: make([]RowTarget, len(child.Table.Rows))}
	var entries []rowRefEntry
	var maxParentKey int32 = -1

	for rowIdx, row := range child.Table.Rows {
		idx.RowTargets[rowIdx] = RowTarget{Tag: -1, TargetPK: -1}

		tableRefCell := row.Cells[rowRef.TableRefColumn]
		rowIDCell := row.Cells[rowRef.RowIDColumn]
		if tableRefCell.Str == "" || rowIDCell.Str == "" {
			continue
		}
		tagIdx, ok := targetIndex[tableRefCell.Str]
		if !ok {
			diags.Errorf("export/rowref/unknown-target", child.Table.ID, rowRef.TableRefColumn, "row %q: target table %q is not among the declared targets", row.ID, tableRefCell.Str)
			continue
		}
		targetPK := pks.get(tableRefCell.Str, 0)
		if targetPK == nil {
			diags.Errorf("export/rowref/target-not-resolved", child.Table.ID, rowRef.TableRefColumn, "row %q: target table %q has no resolved primary keys", row.ID, tableRefCell.Str)
			continue
		}
		pk, ok := targetPK.RowToKey[rowIDCell.Str]
		if !ok {
			diags.Errorf("export/rowref/target-row-not-found", child.Table.ID, rowRef.RowIDColumn, "row %q: target row %q not found in table %q", row.ID, rowIDCell.Str, tableRefCell.Str)
			continue
		}

		idx.RowTargets[rowIdx] = RowTarget{Tag: int32(tagIdx + 1), TargetPK: pk}

		var parentKey int32 = -1
		if parentPK != nil {
			parentCell := row.Cells[child.Table.ParentRowID]
			if k, ok := parentPK.RowToKey[parentCell.Str]; ok {
				parentKey = k
			}
		}
		if parentKey < 0 {
			continue
		}
		entries = append(entries, rowRefEntry{rowIndex: int32(rowIdx), parentKey: parentKey, tagIndex: int32(tagIdx), targetPK: pk})
		if parentKey > maxParentKey {
			maxParentKey = parentKey
		}
	}

	if maxParentKey > maxParentKeyDensity {
		diags.Errorf("export/rowref/parent-index-range-too-large", child.Table.ID, "", "max parent key %d exceeds the %d density bound", maxParentKey, maxParentKeyDensity)
		return idx
	}
	if len(entries) == 0 {
		return idx
	}

	kindCount := int32(len(rowRef.Targets))
	parentLen := maxParentKey + 1

	byParentKind := make(map[int64][]rowRefEntry)
	byParent := make(map[int32][]rowRefEntry)
	for _, e := range entries {
		slot := int64(e.parentKey)*int64(kindCount) + int64(e.tagIndex)
		byParentKind[slot] = append(byParentKind[slot], e)
		byParent[e.parentKey] = append(byParent[e.parentKey], e)
	}

	idx.ParentKindRanges = make([]Range, parentLen*kindCount)
	idx.ParentKindTargetMeta = make([]TargetMeta, parentLen*kindCount)
	for pk := int32(0); pk < parentLen; pk++ {
		for kind := int32(0); kind < kindCount; kind++ {
			slotIdx := pk*kindCount + kind
			group := byParentKind[int64(pk)*int64(kindCount)+int64(kind)]
			start := int32(len(idx.ParentKindRows))
			for _, e := range sortByRowIndex(group) {
				idx.ParentKindRows = append(idx.ParentKindRows, e.rowIndex)
			}
			idx.ParentKindRanges[slotIdx] = Range{Start: start, Count: int32(len(idx.ParentKindRows)) - start}

			rangeOffset, mapLength, ranges, rows := buildTargetRanges(group)
			idx.ParentKindTargetMeta[slotIdx] = TargetMeta{RangeOffset: int32(len(idx.ParentKindTargetRanges)) + rangeOffset, MapLength: mapLength}
			idx.ParentKindTargetRanges = append(idx.ParentKindTargetRanges, ranges...)
			idx.ParentKindTargetRows = append(idx.ParentKindTargetRows, rows...)
		}
	}

	idx.ParentTargetMeta = make([]TargetMeta, parentLen)
	for pk := int32(0); pk < parentLen; pk++ {
		group := byParent[pk]
		rangeOffset, mapLength, ranges, rows := buildTargetRanges(group)
		idx.ParentTargetMeta[pk] = TargetMeta{RangeOffset: int32(len(idx.ParentTargetRanges)) + rangeOffset, MapLength: mapLength}
		idx.ParentTargetRanges = append(idx.ParentTargetRanges, ranges...)
		idx.ParentTargetRows = append(idx.ParentTargetRows, rows...)
	}

	return idx
}

func sortByRowIndex(entries []rowRefEntry) []rowRefEntry {
	out := append([]rowRefEntry(nil), entries...)
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && out[j].rowIndex < out[j-1].rowIndex {
			out[j], out[j-1] = out[j-1], out[j]
			j--
		}
	}
	return out
}

// buildTargetRanges builds one slot's dense (start,count) array indexed by
// targetPk, plus the flat row-index array it points into. rangeOffset is
// always 0 here; callers add the running total of the shared
// ParentKindTargetRanges/ParentTargetRanges array to it.
func buildTargetRanges(group []rowRefEntry) (rangeOffset, mapLength int32, ranges []Range, rows []int32) {
	if len(group) == 0 {
		return 0, 0, nil, nil
	}
	var maxTargetPK int32
	for _, e := range group {
		if e.targetPK > maxTargetPK {
			maxTargetPK = e.targetPK
		}
	}
	byTarget := make(map[int32][]rowRefEntry, len(group))
	for _, e := range group {
		byTarget[e.targetPK] = append(byTarget[e.targetPK], e)
	}
	mapLength = maxTargetPK + 1
	ranges = make([]Range, mapLength)
	for t := int32(0); t < mapLength; t++ {
		start := int32(len(rows))
		for _, e := range sortByRowIndex(byTarget[t]) {
			rows = append(rows, e.rowIndex)
		}
		ranges[t] = Range{Start: start, Count: int32(len(rows)) - start}
	}
	return 0, mapLength, ranges, rows
}
