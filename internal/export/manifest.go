package export

import (
	"sort"

	"gddb/internal/project"
)

// ManifestVariant is one physical section a manifest table entry lists.
type ManifestVariant struct {
	ID          int    `json:"id"`
	VariantName string `json:"variantName"`
	TableName   string `json:"tableName"`
	RowCount    int    `json:"rowCount"`
}

// ManifestTable summarizes one exported table across all its variants.
type ManifestTable struct {
	Name       string            `json:"name"`
	RowCount   int               `json:"rowCount"`
	RecordSize int               `json:"recordSize"`
	Variants   []ManifestVariant `json:"variants"`
}

// Manifest is the JSON sidecar: a summary of what was exported, so
// downstream tooling can locate generated reader code and any custom
// column-type provider it needs to register.
type Manifest struct {
	Namespace     string          `json:"namespace"`
	BinaryPath    string          `json:"binaryPath"`
	Tables        []ManifestTable `json:"tables"`
	ColumnTypeIDs []string        `json:"columnTypeIds"`
}

// builtinKinds is the fixed column-kind registry; any Kind
// a project column carries outside this set was dispatched to a
// ColumnExportProviderRegistry and is reported in the manifest so
// downstream tooling can locate its provider code.
var builtinKinds = map[project.Kind]bool{
	project.KindID: true, project.KindText: true, project.KindCheckbox: true,
	project.KindNumber: true, project.KindFormula: true, project.KindSelect: true,
	project.KindRelation: true, project.KindSubtable: true, project.KindSpline: true,
	project.KindVec2: true, project.KindVec3: true, project.KindVec4: true,
	project.KindColor: true, project.KindAsset: true, project.KindTableRef: true,
}

// buildManifest summarizes every exported table (grouped by table id, base
// variant first) into the manifest shape.
func buildManifest(proj *project.Project, opts Options, models []*ExportTableModel) *Manifest {
	m := &Manifest{Namespace: opts.DefaultNamespace, BinaryPath: opts.BinaryOutputPath}

	order := make([]string, 0)
	byTable := make(map[string][]*ExportTableModel)
	for _, model := range models {
		if _, ok := byTable[model.Table.ID]; !ok {
			order = append(order, model.Table.ID)
		}
		byTable[model.Table.ID] = append(byTable[model.Table.ID], model)
	}

	for _, tableID := range order {
		group := byTable[tableID]
		var base *ExportTableModel
		for _, mm := range group {
			if mm.VariantID == 0 {
				base = mm
				break
			}
		}
		entry := ManifestTable{Name: base.BinaryTableName, RowCount: len(base.Table.Rows), RecordSize: base.RecordWidth}
		for _, mm := range group {
			entry.Variants = append(entry.Variants, ManifestVariant{
				ID:          mm.VariantID,
				VariantName: variantName(mm),
				TableName:   mm.PhysicalTableName(),
				RowCount:    len(mm.Table.Rows),
			})
		}
		m.Tables = append(m.Tables, entry)
	}

	typeSet := make(map[string]bool)
	for _, t := range proj.Tables {
		for _, c := range t.Columns {
			if !builtinKinds[c.Kind] {
				typeSet[string(c.Kind)] = true
			}
		}
	}
	for k := range typeSet {
		m.ColumnTypeIDs = append(m.ColumnTypeIDs, k)
	}
	sort.Strings(m.ColumnTypeIDs)

	return m
}

func variantName(m *ExportTableModel) string {
	if m.VariantID == 0 {
		return ""
	}
	for _, v := range m.Table.Variants {
		if v.ID == m.VariantID {
			return v.Name
		}
	}
	return ""
}
