package export

import (
	"sort"

	"gddb/internal/diagnostics"
	"gddb/internal/project"
	"gddb/internal/spline"
	"gddb/internal/stringhash"
)

const maxStringRegistryEntryBytes = 65535

// StringRegistryEntry is one resolved row of the on-disk string registry.
type StringRegistryEntry struct {
	ID    uint32
	Value string
}

// StringRegistry maps every distinct non-empty exported string to its
// stable id, built once per export covering every snapshot.
type StringRegistry struct {
	Entries []StringRegistryEntry
	ids     map[string]uint32
}

// ID returns the stable id previously assigned to s by buildStringRegistry,
// or (0, false) if s was never registered (the empty string is never
// registered and always reports false).
func (r *StringRegistry) ID(s string) (uint32, bool) {
	id, ok := r.ids[s]
	return id, ok
}

// buildStringRegistry walks every StringHandle/SplineHandle field across
// every snapshot's rows, canonicalizing spline payloads first, and assigns
// each distinct non-empty string a stable id in byte-wise ordinal order.
func buildStringRegistry(models []*ExportTableModel, diags *diagnostics.List) *StringRegistry {
	set := make(map[string]bool)

	collect := func(m *ExportTableModel) {
		for _, f := range m.Fields {
			if f.Kind != FieldStringHandle && f.Kind != FieldSplineHandle {
				continue
			}
			for _, r := range m.Table.Rows {
				cell, ok := r.Cell(f.Column.ID)
				if !ok || cell.Kind != project.CellString {
					continue
				}
				value := cell.Str
				if f.Kind == FieldSplineHandle {
					canon, err := spline.Canonicalize(value)
					if err != nil {
						diags.Errorf("export/convert/invalid-spline", m.Table.ID, f.Column.ID, "row %q: %v", r.ID, err)
						continue
					}
					value = canon
				}
				if value == "" {
					continue
				}
				set[value] = true
			}
		}
	}
	for _, m := range models {
		collect(m)
	}

	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)

	reg := &StringRegistry{ids: make(map[string]uint32, len(values))}
	seenID := make(map[uint32]string, len(values))
	for _, v := range values {
		if len(v) > maxStringRegistryEntryBytes {
			diags.Errorf("export/strings/entry-too-large", "", "", "string of %d bytes exceeds the 65535-byte registry entry limit", len(v))
			continue
		}
		id := stringhash.StableID(v)
		if other, dup := seenID[id]; dup {
			diags.Errorf("export/strings/id-collision", "", "", "strings %q and %q hash to the same stable id %d", other, v, id)
			continue
		}
		seenID[id] = v
		reg.ids[v] = id
		reg.Entries = append(reg.Entries, StringRegistryEntry{ID: id, Value: v})
	}

	return reg
}
