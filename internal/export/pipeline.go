package export

import (
	"gddb/internal/diagnostics"
	"gddb/internal/project"
)

// Options are the pipeline-wide settings for one export invocation.
type Options struct {
	// DefaultNamespace is a cosmetic namespace carried into the manifest
	// for generated-code tooling; the export pipeline itself never reads it.
	DefaultNamespace string
	// GeneratedOutputDirectory, when non-empty, is where generated-code
	// files would be written. The export pipeline never generates code
	// itself; this is carried through untouched for
	// a downstream code generator.
	GeneratedOutputDirectory string
	// BinaryOutputPath is required; its absence is export/options/missing-binary-output-path.
	BinaryOutputPath string
	// LiveBinaryOutputPath, when non-empty, additionally writes the binary
	// through a double-buffered live-reload writer (see liveio.go).
	LiveBinaryOutputPath string
	WriteManifest bool
	WriteDebugJSON bool
}

// Pipeline runs the export pipeline end to end. Its two collaborator
// fields default to the identity implementations (DefaultSnapshotBuilder,
// NoopFormulaEvaluator) when left nil, matching SnapshotBuilder and
// FormulaEvaluator's role as pluggable external collaborators.
type Pipeline struct {
	Builder   SnapshotBuilder
	Evaluator FormulaEvaluator
	Providers ColumnExportProviderRegistry
}

// NewPipeline builds a Pipeline with the default collaborators.
func NewPipeline() *Pipeline {
	return &Pipeline{Builder: DefaultSnapshotBuilder{}, Evaluator: NoopFormulaEvaluator{}}
}

// Result is what the pipeline hands back regardless of outcome: the full
// diagnostics list, and either an empty Binary (on an early gate failure)
// or the fully assembled container plus its manifest.
type Result struct {
	Diagnostics []diagnostics.Diagnostic
	Binary      []byte
	Manifest    *Manifest
}

// HasErrors reports whether any diagnostic in the result is Error severity.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == diagnostics.SeverityError {
			return true
		}
	}
	return false
}

// Validate runs every stage through ValidatingVariants (schema, key, enum,
// subtable, row-reference, and variant-shape checks) without resolving
// string ids, serializing any record, or touching the filesystem — the
// `validate` CLI command's entry point.
func (p *Pipeline) Validate(proj *project.Project) []diagnostics.Diagnostic {
	diags := &diagnostics.List{}

	if len(includedTables(proj)) == 0 {
		diags.Errorf("export/config/no-tables-enabled", "", "", "no table has ExportConfig.Enabled set")
		return diags.Items()
	}

	p.buildModels(proj, diags)
	return diags.Items()
}

// buildModels runs every stage through ValidatingVariants and returns the
// resulting per-snapshot models and cross-table PK index. Shared by Run
// (which continues on to serialize and write) and Validate (which stops
// here).
func (p *Pipeline) buildModels(proj *project.Project, diags *diagnostics.List) ([]*ExportTableModel, pkIndex) {
	included := includedTables(proj)

	builder := p.Builder
	if builder == nil {
		builder = DefaultSnapshotBuilder{}
	}
	evaluator := p.Evaluator
	if evaluator == nil {
		evaluator = NoopFormulaEvaluator{}
	}

	// BuildingBase, ValidatingBase, BuildingVariants, ValidatingVariants
	snapshots := buildSnapshots(proj, included, builder, evaluator, diags)
	if diags.HasErrors() {
		return nil, nil
	}

	// AssigningKeys: build one ExportTableModel per snapshot, project-wide
	// enum identity tables threaded through so collisions are caught across
	// every table and variant in this export, not just within one table.
	names := sanitizedNames(proj, included)
	enums := make(map[string]enumIdentity)
	resolvedEnums := make(map[string]*EnumModel)
	claimedChildren := make(map[string]string)
	pks := newPKIndex()

	var models []*ExportTableModel
	for _, snap := range snapshots {
		model := buildTableModel(snap.proj, snap.table, snap.variantID, names, enums, resolvedEnums, claimedChildren, p.Providers, diags)
		models = append(models, model)
		pks.put(snap.table.ID, snap.variantID, model.PrimaryKey)
	}

	checkVariantShapeInvariant(models, diags)
	return models, pks
}

// Run executes the full Idle → Done export invocation state machine,
// gating on diags.HasErrors after each stage and
// never partially writing the primary binary output on error.
func (p *Pipeline) Run(proj *project.Project, opts Options) *Result {
	diags := &diagnostics.List{}

	// ValidatingOptions
	if opts.BinaryOutputPath == "" {
		diags.Errorf("export/options/missing-binary-output-path", "", "", "binaryOutputPath is required")
		return &Result{Diagnostics: diags.Items()}
	}

	if len(includedTables(proj)) == 0 {
		diags.Errorf("export/config/no-tables-enabled", "", "", "no table has ExportConfig.Enabled set")
		return &Result{Diagnostics: diags.Items()}
	}

	models, pks := p.buildModels(proj, diags)
	if diags.HasErrors() {
		return &Result{Diagnostics: diags.Items()}
	}

	// BuildingStringRegistry
	reg := buildStringRegistry(models, diags)
	if diags.HasErrors() {
		return &Result{Diagnostics: diags.Items()}
	}

	// SerializingRecordsAndIndexes
	var sections []ContainerSection
	for _, model := range models {
		sections = append(sections, buildTableSections(model, pks, reg, p.Providers, diags)...)
	}
	if diags.HasErrors() {
		return &Result{Diagnostics: diags.Items()}
	}

	// Assembling
	binary := BuildContainer(sections, reg)

	// WritingOutputs
	manifest := buildManifest(proj, opts, models)
	if err := writeOutputs(binary, manifest, opts); err != nil {
		diags.Errorf("export/io/write-failed", "", "", "%v", err)
		return &Result{Diagnostics: diags.Items()}
	}

	return &Result{Diagnostics: diags.Items(), Binary: binary, Manifest: manifest}
}

// checkVariantShapeInvariant enforces the variant shape invariant: every
// variant snapshot of a table must share the base's BinaryTableName and
// field count.
func checkVariantShapeInvariant(models []*ExportTableModel, diags *diagnostics.List) {
	bases := make(map[string]*ExportTableModel, len(models))
	for _, m := range models {
		if m.VariantID == 0 {
			bases[m.Table.ID] = m
		}
	}
	for _, m := range models {
		if m.VariantID == 0 {
			continue
		}
		base, ok := bases[m.Table.ID]
		if !ok {
			continue
		}
		if m.BinaryTableName != base.BinaryTableName || len(m.Fields) != len(base.Fields) {
			diags.Errorf("export/variant/shape-drift", m.Table.ID, "",
				"variant %d of table %q has %d fields named %q; base has %d fields named %q",
				m.VariantID, m.Table.ID, len(m.Fields), m.BinaryTableName, len(base.Fields), base.BinaryTableName)
		}
	}
}

// buildTableSections assembles every container section one ExportTableModel
// contributes: its record+slot-array section, the sorted-pairs PK section,
// one pair of sections per secondary key, the subtable parent-range
// sections when this table is a subtable, and the nine row-reference
// sections when it declares one.
func buildTableSections(model *ExportTableModel, pks pkIndex, reg *StringRegistry, providers ColumnExportProviderRegistry, diags *diagnostics.List) []ContainerSection {
	phys := model.PhysicalTableName()

	rec := serializeRecords(model, pks, reg, providers, diags)
	slots := buildPrimarySlotArray(model, diags)

	sections := []ContainerSection{
		{Name: phys, RecordWidth: rec.RecordWidth, Records: rec.Records, SlotArray: slots},
		{Name: phys + "__pk_sorted", RecordWidth: 8, Records: packKeyValuePairs(buildPrimarySortedPairs(model))},
	}

	for _, sk := range model.SecondaryKeys {
		fieldName := secondaryIndexFieldName(model, sk.ColumnID)
		if sk.Unique {
			sections = append(sections, ContainerSection{
				Name:        phys + "__sk_" + fieldName + "__unique",
				RecordWidth: 4,
				Records:     packInt32Array(buildSecondaryUniqueIndex(model, sk, diags)),
			})
		} else {
			sections = append(sections, ContainerSection{
				Name:        phys + "__sk_" + fieldName + "__pairs",
				RecordWidth: 8,
				Records:     packKeyValuePairs(buildSecondaryPairs(model, sk)),
			})
		}
	}

	if model.SubtableParent != nil {
		parentPK := pks.get(model.Table.ParentTable, model.VariantID)
		if parentPK == nil {
			diags.Errorf("export/subtable/parent-not-exported", model.Table.ID, "", "subtable %q's parent table %q was not exported for variant %d", model.Table.ID, model.Table.ParentTable, model.VariantID)
		} else {
			idx := buildSubtableParentIndex(model, parentPK, diags)
			sections = append(sections,
				ContainerSection{Name: phys + "__sub_parent_ranges", RecordWidth: 8, Records: packRanges(idx.Ranges)},
				ContainerSection{Name: phys + "__sub_parent_rows", RecordWidth: 4, Records: packInt32Array(idx.Rows)},
			)
		}
	}

	if model.RowRef != nil {
		idx := buildRowRefIndex(model, model.RowRef, pks, diags)
		prefix := phys + "__rowref_" + model.RowRef.Name + "_"
		sections = append(sections,
			ContainerSection{Name: prefix + "row_targets", RecordWidth: 8, Records: packRowTargets(idx.RowTargets)},
			ContainerSection{Name: prefix + "parent_kind_ranges", RecordWidth: 8, Records: packRanges(idx.ParentKindRanges)},
			ContainerSection{Name: prefix + "parent_kind_rows", RecordWidth: 4, Records: packInt32Array(idx.ParentKindRows)},
			ContainerSection{Name: prefix + "parent_kind_target_meta", RecordWidth: 8, Records: packTargetMeta(idx.ParentKindTargetMeta)},
			ContainerSection{Name: prefix + "parent_kind_target_ranges", RecordWidth: 8, Records: packRanges(idx.ParentKindTargetRanges)},
			ContainerSection{Name: prefix + "parent_kind_target_rows", RecordWidth: 4, Records: packInt32Array(idx.ParentKindTargetRows)},
			ContainerSection{Name: prefix + "parent_target_meta", RecordWidth: 8, Records: packTargetMeta(idx.ParentTargetMeta)},
			ContainerSection{Name: prefix + "parent_target_ranges", RecordWidth: 8, Records: packRanges(idx.ParentTargetRanges)},
			ContainerSection{Name: prefix + "parent_target_rows", RecordWidth: 4, Records: packInt32Array(idx.ParentTargetRows)},
		)
	}

	return sections
}
