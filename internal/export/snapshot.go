package export

import (
	"gddb/internal/diagnostics"
	"gddb/internal/project"
)

// FormulaEvaluator populates computed (Formula-kind) cells before a
// snapshot is serialized. The evaluator itself — the expression language,
// dependency graph, recomputation order — is an external collaborator
// evaluated by an external collaborator: this package only calls it and watches for its "#ERR"
// sentinel. The default NoopFormulaEvaluator is for projects with no
// formula columns; real deployments supply their own.
type FormulaEvaluator interface {
	Evaluate(proj *project.Project) error
}

// NoopFormulaEvaluator performs no computation; formula-kind cells keep
// whatever value the snapshot builder gave them.
type NoopFormulaEvaluator struct{}

func (NoopFormulaEvaluator) Evaluate(*project.Project) error { return nil }

// formulaErrorSentinel is the string a formula cell holds when its
// evaluator could not produce a value.
const formulaErrorSentinel = "#ERR"

// SnapshotBuilder clones a project and materializes a given variant. Like
// FormulaEvaluator, the cloning/variant-materialization policy is an
// external collaborator; DefaultSnapshotBuilder is a complete, correct
// implementation for the common case (deep copy + delta application) and
// is used unless the caller supplies its own.
type SnapshotBuilder interface {
	BuildBase(proj *project.Project) *project.Project
	BuildWithTableVariant(proj *project.Project, tableID string, variantID int) *project.Project
}

// DefaultSnapshotBuilder deep-clones the project before mutating it, so the
// original Project handed to the pipeline is never touched. It does not add
// the synthetic subtable row-id column (see keys.go); buildSnapshots adds
// that to the base snapshot after BuildBase returns.
type DefaultSnapshotBuilder struct{}

func (DefaultSnapshotBuilder) BuildBase(proj *project.Project) *project.Project {
	return cloneProject(proj)
}

func (DefaultSnapshotBuilder) BuildWithTableVariant(proj *project.Project, tableID string, variantID int) *project.Project {
	clone := cloneProject(proj)
	t := clone.FindTable(tableID)
	if t == nil {
		return clone
	}
	delta := t.Deltas[variantID]
	if delta == nil {
		return clone
	}
	applyDelta(t, delta)
	return clone
}

func applyDelta(t *project.Table, delta *project.TableVariantDelta) {
	deleted := make(map[string]bool, len(delta.DeletedRowIDs))
	for _, id := range delta.DeletedRowIDs {
		deleted[id] = true
	}

	rows := make([]*project.Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if deleted[r.ID] {
			continue
		}
		rows = append(rows, r)
	}
	for _, added := range delta.AddedRows {
		rows = append(rows, cloneRow(added))
	}
	t.Rows = rows

	byID := make(map[string]*project.Row, len(t.Rows))
	for _, r := range t.Rows {
		byID[r.ID] = r
	}
	for _, ov := range delta.Overrides {
		row, ok := byID[ov.RowID]
		if !ok {
			continue
		}
		if t.FindColumn(ov.ColumnID) == nil {
			continue // column no longer exists in schema; override is dropped, not diagnostic
		}
		row.Cells[ov.ColumnID] = ov.Value
	}
}

func cloneProject(proj *project.Project) *project.Project {
	clone := &project.Project{PluginOptions: proj.PluginOptions}
	clone.Tables = make([]*project.Table, len(proj.Tables))
	for i, t := range proj.Tables {
		clone.Tables[i] = cloneTable(t)
	}
	return clone
}

func cloneTable(t *project.Table) *project.Table {
	ct := *t
	ct.Columns = append([]*project.Column(nil), t.Columns...)
	ct.Rows = make([]*project.Row, len(t.Rows))
	for i, r := range t.Rows {
		ct.Rows[i] = cloneRow(r)
	}
	ct.Keys.Secondary = append([]project.SecondaryKey(nil), t.Keys.Secondary...)
	ct.Variants = append([]project.TableVariant(nil), t.Variants...)
	if t.Deltas != nil {
		ct.Deltas = make(map[int]*project.TableVariantDelta, len(t.Deltas))
		for id, d := range t.Deltas {
			ct.Deltas[id] = d
		}
	}
	return &ct
}

func cloneRow(r *project.Row) *project.Row {
	cells := make(map[string]project.Cell, len(r.Cells))
	for k, v := range r.Cells {
		cells[k] = v
	}
	return &project.Row{ID: r.ID, Cells: cells}
}

// tableSnapshot pairs one materialized project clone with the table and
// variant id it exists to serve, as produced by the snapshot orchestrator.
type tableSnapshot struct {
	proj      *project.Project
	table     *project.Table // the table of interest within proj, already located
	variantID int
}

// buildSnapshots builds one base snapshot covering every included
// table, plus one independent snapshot per (table, non-base variant) for
// every included, non-derived table that declares variants.
func buildSnapshots(proj *project.Project, included map[string]*project.Table, builder SnapshotBuilder, evaluator FormulaEvaluator, diags *diagnostics.List) []tableSnapshot {
	var snapshots []tableSnapshot

	base := builder.BuildBase(proj)
	injectSyntheticSubtableKeys(base, included)
	if err := evaluator.Evaluate(base); err != nil {
		diags.Errorf("export/formula/exception", "", "", "formula evaluation failed: %v", err)
		return nil
	}
	checkFormulaErrors(base, included, diags)

	// Iterate in proj.Tables declaration order, not included's map order,
	// so the snapshot list (and everything downstream keyed off its order)
	// is deterministic across runs.
	for _, t := range proj.Tables {
		if _, ok := included[t.ID]; !ok {
			continue
		}
		snapshots = append(snapshots, tableSnapshot{proj: base, table: base.FindTable(t.ID), variantID: 0})
	}

	for _, t := range proj.Tables {
		it, ok := included[t.ID]
		if !ok {
			continue
		}
		if it.IsDerived {
			if len(it.Deltas) > 0 {
				diags.Errorf("export/variant/derived-with-deltas", t.ID, "", "derived table %q must not carry variant deltas", t.ID)
			}
			continue
		}
		for _, v := range it.Variants {
			if v.ID == 0 {
				continue
			}
			vproj := builder.BuildWithTableVariant(proj, t.ID, v.ID)
			if err := evaluator.Evaluate(vproj); err != nil {
				diags.Errorf("export/formula/exception", t.ID, "", "formula evaluation failed for variant %d: %v", v.ID, err)
				continue
			}
			vt := vproj.FindTable(t.ID)
			checkFormulaErrorsOnTable(vt, diags)
			snapshots = append(snapshots, tableSnapshot{proj: vproj, table: vt, variantID: v.ID})
		}
	}

	return snapshots
}

func injectSyntheticSubtableKeys(proj *project.Project, included map[string]*project.Table) {
	for _, t := range included {
		live := proj.FindTable(t.ID)
		if live == nil || !live.IsSubtable() || live.Keys.PrimaryColumnID != "" {
			continue
		}
		if live.FindColumn(syntheticSubtableIDColumn) != nil {
			continue
		}
		live.Columns = append(live.Columns, &project.Column{
			ID: syntheticSubtableIDColumn, Name: syntheticSubtableIDColumn, Kind: project.KindID, ExportIgnore: true,
		})
	}
}

func checkFormulaErrors(proj *project.Project, included map[string]*project.Table, diags *diagnostics.List) {
	for _, t := range proj.Tables {
		if _, ok := included[t.ID]; !ok {
			continue
		}
		checkFormulaErrorsOnTable(proj.FindTable(t.ID), diags)
	}
}

func checkFormulaErrorsOnTable(t *project.Table, diags *diagnostics.List) {
	if t == nil {
		return
	}
	for _, col := range t.Columns {
		if col.Kind != project.KindFormula {
			continue
		}
		for _, r := range t.Rows {
			cell, ok := r.Cell(col.ID)
			if ok && cell.Kind == project.CellString && cell.Str == formulaErrorSentinel {
				diags.Errorf("export/formula/cell-error", t.ID, col.ID, "row %q column %q evaluated to an error", r.ID, col.ID)
			}
		}
	}
}
