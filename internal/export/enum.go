package export

import (
	"strings"

	"gddb/internal/diagnostics"
	"gddb/internal/identifier"
	"gddb/internal/project"
)

// resolveEnum builds the EnumModel for a Select column, or reports
// export/enum/name-collision if the column's enum name was already bound
// to a different (isKey, optionSequence) tuple elsewhere in this export.
// isKey is supplied by the caller: true when col is the table's declared
// primary key column.
func resolveEnum(
	table *project.Table,
	structName string,
	col *project.Column,
	isKey bool,
	seen map[string]enumIdentity,
	diags *diagnostics.List,
) *EnumModel {
	name := col.ExportEnumName
	if name == "" {
		name = structName + identifier.Pascal(col.Name)
	}

	identity := enumIdentity{
		name:    name,
		isKey:   isKey,
		options: strings.Join(col.Options, "\x00"),
	}

	if prior, ok := seen[name]; ok {
		if prior != identity {
			diags.Errorf("export/enum/name-collision", table.ID, col.ID,
				"enum %q on column %q collides with an earlier enum of the same name but different shape", name, col.ID)
			return nil
		}
	} else {
		seen[name] = identity
	}

	width := 1
	threshold := len(col.Options)
	if !isKey {
		threshold++
	}
	if threshold > 255 {
		width = 2
	}

	return &EnumModel{
		Name:         name,
		Options:      col.Options,
		IsKey:        isKey,
		StorageWidth: width,
	}
}

// encodeEnumValue returns the on-disk integer for a Select cell's current
// string value, or (0, false) if the value isn't one of the enum's options.
// An empty value encodes to (0, true) for a non-key enum ("unset") and
// reports (0, false) for a key enum.
func encodeEnumValue(model *EnumModel, raw string) (value int, ok bool) {
	if raw == "" {
		if model.IsKey {
			return 0, false
		}
		return 0, true
	}
	for i, opt := range model.Options {
		if opt == raw {
			if model.IsKey {
				return i, true
			}
			return i + 1, true
		}
	}
	return 0, false
}
