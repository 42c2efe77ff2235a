package export

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"gddb/internal/diagnostics"
	"gddb/internal/project"
)

const syntheticSubtableIDColumn = "__export_row_id"

// resolvePrimaryKey assigns a non-negative, unique integer key to every row
// of table, per the precedence and synthesis rules below: Number keys are
// the raw cell values, Select keys are the enum encoding, and Id and
// synthetic subtable keys are dense zero-based sorted indices.
func resolvePrimaryKey(table *project.Table, enums map[string]*EnumModel, diags *diagnostics.List) *PrimaryKeyModel {
	colID := table.Keys.PrimaryColumnID
	if colID == "" && table.IsSubtable() {
		return resolveSyntheticRowIDKey(table)
	}

	col := table.FindColumn(colID)
	if col == nil {
		diags.Errorf("export/keys/missing-primary-key", table.ID, colID, "table %q declares primary key column %q which does not exist", table.ID, colID)
		return nil
	}

	switch col.Kind {
	case project.KindNumber, project.KindFormula:
		return resolveNumericPrimaryKey(table, col, diags)
	case project.KindSelect:
		return resolveEnumPrimaryKey(table, col, enums, diags)
	case project.KindID:
		return resolveUUIDPrimaryKey(table, col, diags)
	default:
		diags.Errorf("export/keys/unsupported-primary-key-kind", table.ID, col.ID, "column %q of kind %q cannot serve as a primary key", col.ID, col.Kind)
		return nil
	}
}

func resolveSyntheticRowIDKey(table *project.Table) *PrimaryKeyModel {
	model := &PrimaryKeyModel{ColumnID: syntheticSubtableIDColumn, RowToKey: make(map[string]int32, len(table.Rows))}
	type pair struct {
		id  string
		key string
	}
	pairs := make([]pair, 0, len(table.Rows))
	for _, r := range table.Rows {
		pairs = append(pairs, pair{id: r.ID, key: r.ID})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })
	for i, p := range pairs {
		model.RowToKey[p.id] = int32(i)
	}
	if len(pairs) > 0 {
		model.MaxKey = int32(len(pairs) - 1)
	}
	return model
}

func resolveNumericPrimaryKey(table *project.Table, col *project.Column, diags *diagnostics.List) *PrimaryKeyModel {
	model := &PrimaryKeyModel{ColumnID: col.ID, RowToKey: make(map[string]int32, len(table.Rows))}
	seen := make(map[int32]string, len(table.Rows))
	for _, r := range table.Rows {
		cell, ok := r.Cell(col.ID)
		if !ok || cell.Kind != project.CellNumber {
			diags.Errorf("export/keys/missing-value", table.ID, col.ID, "row %q has no numeric value for primary key column %q", r.ID, col.ID)
			continue
		}
		if !isIntegral(cell.Number) {
			diags.Errorf("export/keys/non-integer", table.ID, col.ID, "row %q primary key value %v is not an integer", r.ID, cell.Number)
			continue
		}
		if cell.Number > math.MaxInt32 || cell.Number < math.MinInt32 {
			diags.Errorf("export/keys/out-of-range", table.ID, col.ID, "row %q primary key value %v does not fit in a signed 32-bit integer", r.ID, cell.Number)
			continue
		}
		key := int32(cell.Number)
		if key < 0 {
			diags.Errorf("export/keys/negative", table.ID, col.ID, "row %q primary key value %d is negative", r.ID, key)
			continue
		}
		if other, dup := seen[key]; dup {
			diags.Errorf("export/keys/duplicate", table.ID, col.ID, "rows %q and %q share primary key %d", other, r.ID, key)
			continue
		}
		seen[key] = r.ID
		model.RowToKey[r.ID] = key
		if key > model.MaxKey {
			model.MaxKey = key
		}
	}
	return model
}

func resolveEnumPrimaryKey(table *project.Table, col *project.Column, enums map[string]*EnumModel, diags *diagnostics.List) *PrimaryKeyModel {
	em, ok := enums[col.ID]
	if !ok {
		diags.Errorf("export/keys/enum-not-resolved", table.ID, col.ID, "primary key column %q has no resolved enum model", col.ID)
		return nil
	}
	model := &PrimaryKeyModel{ColumnID: col.ID, RowToKey: make(map[string]int32, len(table.Rows))}
	seen := make(map[int32]string, len(table.Rows))
	for _, r := range table.Rows {
		cell, _ := r.Cell(col.ID)
		value, ok := encodeEnumValue(em, cell.Str)
		if !ok {
			diags.Errorf("export/keys/invalid-enum-value", table.ID, col.ID, "row %q has unrecognized enum value %q for primary key", r.ID, cell.Str)
			continue
		}
		key := int32(value)
		if other, dup := seen[key]; dup {
			diags.Errorf("export/keys/duplicate", table.ID, col.ID, "rows %q and %q share primary key %d", other, r.ID, key)
			continue
		}
		seen[key] = r.ID
		model.RowToKey[r.ID] = key
		if key > model.MaxKey {
			model.MaxKey = key
		}
	}
	return model
}

func resolveUUIDPrimaryKey(table *project.Table, col *project.Column, diags *diagnostics.List) *PrimaryKeyModel {
	type uuidRow struct {
		rowID    string
		canonical string
	}
	var rows []uuidRow
	for _, r := range table.Rows {
		cell, ok := r.Cell(col.ID)
		if !ok || cell.Kind != project.CellString {
			diags.Errorf("export/keys/missing-value", table.ID, col.ID, "row %q has no id value for primary key column %q", r.ID, col.ID)
			continue
		}
		parsed, err := uuid.Parse(cell.Str)
		if err != nil {
			diags.Errorf("export/keys/invalid-uuid", table.ID, col.ID, "row %q value %q is not a valid UUID: %v", r.ID, cell.Str, err)
			continue
		}
		rows = append(rows, uuidRow{rowID: r.ID, canonical: parsed.String()})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].canonical != rows[j].canonical {
			return rows[i].canonical < rows[j].canonical
		}
		return rows[i].rowID < rows[j].rowID
	})

	model := &PrimaryKeyModel{ColumnID: col.ID, RowToKey: make(map[string]int32, len(rows))}
	for i := 1; i < len(rows); i++ {
		if rows[i].canonical == rows[i-1].canonical {
			diags.Errorf("export/keys/duplicate", table.ID, col.ID, "rows %q and %q share UUID %q", rows[i-1].rowID, rows[i].rowID, rows[i].canonical)
		}
	}
	for i, r := range rows {
		model.RowToKey[r.rowID] = int32(i)
	}
	if len(rows) > 0 {
		model.MaxKey = int32(len(rows) - 1)
	}
	return model
}

// resolveSecondaryKeys binds every declared secondary key. Only Number(int)
// and Select(key enum) source kinds are supported; anything else is
// diagnostic and skipped.
func resolveSecondaryKeys(table *project.Table, enums map[string]*EnumModel, diags *diagnostics.List) []*SecondaryKeyModel {
	var out []*SecondaryKeyModel
	for _, sk := range table.Keys.Secondary {
		col := table.FindColumn(sk.ColumnID)
		if col == nil {
			diags.Errorf("export/keys/missing-secondary-key", table.ID, sk.ColumnID, "table %q declares secondary key column %q which does not exist", table.ID, sk.ColumnID)
			continue
		}

		model := &SecondaryKeyModel{ColumnID: col.ID, Unique: sk.Unique, RowToKey: make(map[string]int32, len(table.Rows))}
		seen := make(map[int32]string, len(table.Rows))

		switch col.Kind {
		case project.KindNumber, project.KindFormula:
			for _, r := range table.Rows {
				cell, ok := r.Cell(col.ID)
				if !ok || cell.Kind != project.CellNumber || !isIntegral(cell.Number) {
					continue
				}
				key := int32(cell.Number)
				if sk.Unique {
					if other, dup := seen[key]; dup {
						diags.Errorf("export/keys/duplicate-secondary", table.ID, col.ID, "rows %q and %q share secondary key %d", other, r.ID, key)
						continue
					}
					seen[key] = r.ID
				}
				model.RowToKey[r.ID] = key
				if key > model.MaxKey {
					model.MaxKey = key
				}
			}
		case project.KindSelect:
			em, ok := enums[col.ID]
			if !ok || !em.IsKey {
				diags.Errorf("export/keys/unsupported-secondary-key-kind", table.ID, col.ID, "secondary key column %q must be a key enum", col.ID)
				continue
			}
			for _, r := range table.Rows {
				cell, _ := r.Cell(col.ID)
				value, ok := encodeEnumValue(em, cell.Str)
				if !ok {
					continue
				}
				key := int32(value)
				if sk.Unique {
					if other, dup := seen[key]; dup {
						diags.Errorf("export/keys/duplicate-secondary", table.ID, col.ID, "rows %q and %q share secondary key %d", other, r.ID, key)
						continue
					}
					seen[key] = r.ID
				}
				model.RowToKey[r.ID] = key
				if key > model.MaxKey {
					model.MaxKey = key
				}
			}
		default:
			diags.Errorf("export/keys/unsupported-secondary-key-kind", table.ID, col.ID, "secondary key column %q has unsupported kind %q", col.ID, col.Kind)
			continue
		}

		out = append(out, model)
	}
	return out
}
