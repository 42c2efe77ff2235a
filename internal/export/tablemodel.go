package export

import (
	"sort"

	"gddb/internal/diagnostics"
	"gddb/internal/identifier"
	"gddb/internal/project"
)

const maxDerivationWalkDepth = 64

// includedTables computes the closure of export inclusion: every table whose
// ExportConfig is enabled, plus every subtable transitively reachable from
// one through a Subtable column.
func includedTables(proj *project.Project) map[string]*project.Table {
	included := make(map[string]*project.Table)
	var visit func(t *project.Table)
	visit = func(t *project.Table) {
		if _, ok := included[t.ID]; ok {
			return
		}
		included[t.ID] = t
		for _, col := range t.Columns {
			if col.Kind != project.KindSubtable {
				continue
			}
			if child := proj.FindTable(col.SubtableChildTable); child != nil {
				visit(child)
			}
		}
	}
	for _, t := range proj.Tables {
		if t.Export != nil && t.Export.Enabled {
			visit(t)
		}
	}
	return included
}

// sanitizedNames computes each included table's BinaryTableName/StructName
// (same value) and globally disambiguated DbPropertyName.
// Iteration follows proj.Tables declaration order so disambiguation ties
// break deterministically.
func sanitizedNames(proj *project.Project, included map[string]*project.Table) map[string]struct{ structName, dbName string } {
	out := make(map[string]struct{ structName, dbName string }, len(included))
	used := make(map[string]bool, len(included))
	for _, t := range proj.Tables {
		if _, ok := included[t.ID]; !ok {
			continue
		}
		structName := t.Name
		if t.Export != nil && t.Export.StructName != "" {
			structName = t.Export.StructName
		}
		structName = identifier.AvoidReserved(identifier.Pascal(structName))
		dbName := identifier.Disambiguate(structName, used)
		out[t.ID] = struct{ structName, dbName string }{structName: structName, dbName: dbName}
	}
	return out
}

// buildTableModel materializes one (table, variantID) combination's fields,
// keys, and relationship links. enums is the project-wide enum identity
// table, shared and mutated across every call in one export so name
// collisions are detected project-wide rather than per table. claimedChildren
// maps a child table ID to the ID of the parent table whose subtable column
// first claimed it, shared the same way so a child claimed by two different
// parents is caught regardless of which one is processed first.
func buildTableModel(
	proj *project.Project,
	table *project.Table,
	variantID int,
	names map[string]struct{ structName, dbName string },
	enums map[string]enumIdentity,
	resolvedEnums map[string]*EnumModel,
	claimedChildren map[string]string,
	providers ColumnExportProviderRegistry,
	diags *diagnostics.List,
) *ExportTableModel {
	n := names[table.ID]
	model := &ExportTableModel{
		Table:           table,
		VariantID:       variantID,
		BinaryTableName: n.structName,
		DbPropertyName:  n.dbName,
		IsDerived:       table.IsDerived,
	}

	var subtableParentColID string
	if table.IsSubtable() {
		subtableParentColID = table.ParentRowID
	}

	usedFieldNames := make(map[string]bool, len(table.Columns))
	for _, col := range table.Columns {
		if col.Kind == project.KindSubtable {
			child := proj.FindTable(col.SubtableChildTable)
			switch {
			case child == nil:
				diags.Errorf("export/subtable/child-not-found", table.ID, col.ID, "subtable column %q references unknown child table %q", col.ID, col.SubtableChildTable)
			case child.ParentRowID == "":
				diags.Errorf("export/subtable/parent-row-missing", table.ID, col.ID, "subtable column %q targets child table %q, which declares no parent-row column", col.ID, child.ID)
			default:
				if owner, claimed := claimedChildren[child.ID]; claimed && owner != table.ID {
					diags.Errorf("export/subtable/multiple-parents", table.ID, col.ID, "child table %q is claimed by both %q and %q", child.ID, owner, table.ID)
				} else {
					claimedChildren[child.ID] = table.ID
				}
				model.SubtableChildren = append(model.SubtableChildren, SubtableLink{ParentColumnID: col.ID, ChildTableID: child.ID})
			}
			continue
		}

		isSubtableParentCol := col.ID == subtableParentColID
		fieldName := identifier.Disambiguate(identifier.AvoidReserved(identifier.Pascal(col.Name)), usedFieldNames)

		if col.Kind == project.KindSelect {
			isKey := col.ID == table.Keys.PrimaryColumnID
			em := resolveEnum(table, n.structName, col, isKey, enums, diags)
			if em == nil {
				continue
			}
			resolvedEnums[col.ID] = em
			model.Fields = append(model.Fields, &FieldDescriptor{Column: col, FieldName: fieldName, Kind: FieldEnum, Width: em.StorageWidth, Enum: em})
			continue
		}

		fd := createFieldDescriptor(table, n.structName, col, fieldName, diags, providers, isSubtableParentCol)
		if fd == nil {
			continue
		}
		if isSubtableParentCol {
			fd.Kind = FieldSubtableParentFK
			fd.Width = FieldSubtableParentFK.Width()
		}
		model.Fields = append(model.Fields, fd)
	}

	model.RecordWidth = 0
	for _, f := range model.Fields {
		model.RecordWidth += f.Width
	}

	if table.IsSubtable() {
		if parent := proj.FindTable(table.ParentTable); parent != nil {
			model.SubtableParent = &SubtableLink{ParentColumnID: table.ParentRowID, ChildTableID: table.ID}
		}
	}

	model.PrimaryKey = resolvePrimaryKey(table, resolvedEnums, diags)
	model.SecondaryKeys = resolveSecondaryKeys(table, resolvedEnums, diags)

	model.RowRef = resolveRowRef(proj, table, names, diags)

	return model
}

// resolveRowRef finds the at-most-one (TableRefColumn, RowIdColumn) pair in
// table and resolves its target set.
func resolveRowRef(proj *project.Project, table *project.Table, names map[string]struct{ structName, dbName string }, diags *diagnostics.List) *RowRefModel {
	var tableRefCol *project.Column
	for _, col := range table.Columns {
		if col.RowRefBaseTableID != "" {
			tableRefCol = col
			break
		}
	}
	if tableRefCol == nil {
		return nil
	}

	pairCol := table.FindColumn(tableRefCol.RowRefPairColumnID)
	if pairCol == nil {
		diags.Errorf("export/rowref/missing-pair-column", table.ID, tableRefCol.ID, "row-reference column %q has no paired row-id column", tableRefCol.ID)
		return nil
	}

	base := proj.FindTable(tableRefCol.RowRefBaseTableID)
	if base == nil {
		diags.Errorf("export/rowref/base-not-found", table.ID, tableRefCol.ID, "row-reference column %q declares unknown base table %q", tableRefCol.ID, tableRefCol.RowRefBaseTableID)
		return nil
	}

	var targets []string
	for _, t := range proj.Tables {
		if _, ok := names[t.ID]; !ok {
			continue // not exported
		}
		if derivesFrom(proj, t, base.ID) {
			targets = append(targets, t.ID)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return names[targets[i]].dbName < names[targets[j]].dbName })

	return &RowRefModel{
		Name:           identifier.Pascal(tableRefCol.Name),
		TableRefColumn: tableRefCol.ID,
		RowIDColumn:    pairCol.ID,
		Targets:        targets,
	}
}

// derivesFrom walks t's derivation chain (t itself, or t.DerivedFromTableID,
// recursively) looking for baseID, bounded to maxDerivationWalkDepth to
// make cyclic chains report "no target found" rather than loop forever.
func derivesFrom(proj *project.Project, t *project.Table, baseID string) bool {
	cur := t
	depth := 0
	visited := make(map[string]bool)
	for cur != nil && depth < maxDerivationWalkDepth {
		if cur.ID == baseID {
			return true
		}
		if visited[cur.ID] {
			return false
		}
		visited[cur.ID] = true
		if !cur.IsDerived || cur.DerivedFromTableID == "" {
			return false
		}
		cur = proj.FindTable(cur.DerivedFromTableID)
		depth++
	}
	return false
}
