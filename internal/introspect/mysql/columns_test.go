package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gddb/internal/project"
)

func TestKindFromColumnType(t *testing.T) {
	cases := map[string]project.Kind{
		"tinyint(1)":           project.KindCheckbox,
		"tinyint(1) unsigned":  project.KindCheckbox,
		"int(11)":              project.KindNumber,
		"bigint(20)":           project.KindNumber,
		"decimal(10,2)":        project.KindNumber,
		"float":                project.KindNumber,
		"double":               project.KindNumber,
		"varchar(255)":         project.KindText,
		"text":                 project.KindText,
		"datetime":             project.KindText,
	}
	for sqlType, want := range cases {
		assert.Equal(t, want, kindFromColumnType(sqlType), "sql type %q", sqlType)
	}
}

func TestExportTypeFromColumnType(t *testing.T) {
	cases := map[string]project.ExportType{
		"bigint(20)":    project.ExportTypeDouble,
		"double":        project.ExportTypeDouble,
		"int(11)":       project.ExportTypeInt,
		"float":         project.ExportTypeFloat,
		"decimal(10,2)": project.ExportTypeFloat,
		"varchar(255)":  project.ExportTypeDefault,
	}
	for sqlType, want := range cases {
		assert.Equal(t, want, exportTypeFromColumnType(sqlType), "sql type %q", sqlType)
	}
}
