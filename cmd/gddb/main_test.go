package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureProjectTOML = `
[[tables]]
id = "items"
name = "Items"
export_enabled = true

[tables.keys]
primary = "pk"

[[tables.columns]]
id = "pk"
name = "pk"
kind = "number"

[[tables.rows]]
id = "row1"
pk = 1
`

func TestRunExportRequiresProjectFlag(t *testing.T) {
	err := runExport(&exportFlags{binOut: "out.gddb"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--project is required")
}

func TestRunExportRequiresOutputFlag(t *testing.T) {
	err := runExport(&exportFlags{projectFile: "doc.toml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output is required")
}

func TestRunExportWritesBinaryAndManifest(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(projectPath, []byte(fixtureProjectTOML), 0o644))

	outPath := filepath.Join(dir, "out.gddb")
	err := runExport(&exportFlags{projectFile: projectPath, binOut: outPath, writeManifest: true})
	require.NoError(t, err)

	_, err = os.Stat(outPath)
	require.NoError(t, err)
	_, err = os.Stat(outPath + ".manifest.json")
	require.NoError(t, err)
}

func TestRunExportVerifyDeterministicSucceedsOnCleanPipeline(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(projectPath, []byte(fixtureProjectTOML), 0o644))

	outPath := filepath.Join(dir, "out.gddb")
	err := runExport(&exportFlags{projectFile: projectPath, binOut: outPath, verifyDeterministic: true})
	require.NoError(t, err)

	_, err = os.Stat(outPath + ".verify.tmp")
	assert.True(t, os.IsNotExist(err), "verify temp file should be cleaned up")
}

const fixtureSchemaSQL = `
CREATE TABLE items (
	pk BIGINT NOT NULL PRIMARY KEY
);
`

func TestRunExportAppliesSchemaSQLOverlay(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(projectPath, []byte(fixtureProjectTOML), 0o644))
	schemaPath := filepath.Join(dir, "schema.sql")
	require.NoError(t, os.WriteFile(schemaPath, []byte(fixtureSchemaSQL), 0o644))

	outPath := filepath.Join(dir, "out.gddb")
	err := runExport(&exportFlags{projectFile: projectPath, schemaSQLFile: schemaPath, binOut: outPath, writeManifest: true})
	require.NoError(t, err)

	_, err = os.Stat(outPath)
	require.NoError(t, err)
}

func TestRunExportReportsErrorForInvalidSchemaSQL(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(projectPath, []byte(fixtureProjectTOML), 0o644))
	schemaPath := filepath.Join(dir, "schema.sql")
	require.NoError(t, os.WriteFile(schemaPath, []byte("CREATE TABLE (((( broken"), 0o644))

	err := runExport(&exportFlags{projectFile: projectPath, schemaSQLFile: schemaPath, binOut: filepath.Join(dir, "out.gddb")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing schema SQL")
}

func TestRunExportReportsParseErrorForInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(projectPath, []byte("not valid toml [["), 0o644))

	err := runExport(&exportFlags{projectFile: projectPath, binOut: filepath.Join(dir, "out.gddb")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing project")
}

func TestRunValidateRequiresProjectFlag(t *testing.T) {
	err := runValidate(&validateFlags{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--project is required")
}

func TestRunValidateSucceedsOnWellFormedProject(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(projectPath, []byte(fixtureProjectTOML), 0o644))

	require.NoError(t, runValidate(&validateFlags{projectFile: projectPath}))
}

func TestRunValidateFailsWhenNoTablesEnabled(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(projectPath, []byte(`
[[tables]]
id = "t"
name = "t"
`), 0o644))

	err := runValidate(&validateFlags{projectFile: projectPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestRunIntrospectRequiresDSNAndOutputFlags(t *testing.T) {
	err := runIntrospect(&introspectFlags{out: "out.toml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--dsn is required")

	err = runIntrospect(&introspectFlags{dsn: "root@tcp(127.0.0.1:3306)/db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output is required")
}
