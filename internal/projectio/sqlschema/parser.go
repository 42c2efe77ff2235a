// Package sqlschema authors gddb tables from a MySQL CREATE TABLE dump: a
// schema-only counterpart to the TOML authoring path in
// gddb/internal/projectio/toml, for teams that already keep their table
// shapes as DDL and fill rows in separately. It parses with the same
// pingcap/tidb parser the MySQL-dialect parts of the retrieval pack use,
// so the accepted SQL surface (including TiDB-specific extensions) matches
// what a MySQL-speaking toolchain already produces.
//
// Only the column list, primary key, and unique constraints are read. DDL
// concerns with no analogue in the tabular-document model — engine/charset
// options, foreign keys, fulltext and btree secondary indexes, CHECK
// constraints, generated-column expressions — are accepted syntactically
// (so a full production dump still parses) and then discarded.
package sqlschema

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"gddb/internal/project"
)

// Parser parses MySQL CREATE TABLE statements into gddb tables.
type Parser struct {
	p *parser.Parser
}

// NewParser creates a new schema-only SQL parser.
func NewParser() *Parser {
	return &Parser{p: parser.New()}
}

// Parse reads zero or more CREATE TABLE statements from sql and returns one
// project.Table per statement, in source order. Any non-CREATE-TABLE
// statement in the input (e.g. an accompanying CREATE DATABASE or a
// trailing INSERT) is silently skipped.
func (p *Parser) Parse(sql string) ([]*project.Table, error) {
	stmtNodes, _, err := p.p.Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("sqlschema: parse error: %w", err)
	}

	var tables []*project.Table
	for _, stmt := range stmtNodes {
		create, ok := stmt.(*ast.CreateTableStmt)
		if !ok {
			continue
		}
		table, err := convertCreateTable(create)
		if err != nil {
			return nil, fmt.Errorf("sqlschema: table %q: %w", create.Table.Name.O, err)
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// MergeSchema overlays parsed DDL table shape onto proj: for each sql table
// whose ID matches an existing project table, that table's Columns and Keys
// are replaced with the SQL-derived ones, leaving Rows, Export, and Variants
// untouched, so row data and export configuration stay authored in TOML
// while column layout is declared in SQL. A sql table with no TOML
// counterpart is appended as-is, with export left disabled since schema-only
// SQL carries no export configuration or rows to export.
func MergeSchema(proj *project.Project, sqlTables []*project.Table) {
	for _, st := range sqlTables {
		if existing := proj.FindTable(st.ID); existing != nil {
			existing.Columns = st.Columns
			existing.Keys = st.Keys
			continue
		}
		proj.Tables = append(proj.Tables, st)
	}
}

func convertCreateTable(stmt *ast.CreateTableStmt) (*project.Table, error) {
	table := &project.Table{
		ID:   stmt.Table.Name.O,
		Name: stmt.Table.Name.O,
	}

	var uniqueSingle []string
	for _, colDef := range stmt.Cols {
		col, isPK, isUnique := convertColumn(colDef)
		table.Columns = append(table.Columns, col)
		if isPK {
			table.Keys.PrimaryColumnID = col.ID
		}
		if isUnique {
			uniqueSingle = append(uniqueSingle, col.ID)
		}
	}

	for _, constraint := range stmt.Constraints {
		switch constraint.Tp {
		case ast.ConstraintPrimaryKey:
			if len(constraint.Keys) == 1 {
				table.Keys.PrimaryColumnID = constraint.Keys[0].Column.Name.O
			}
		case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
			if len(constraint.Keys) == 1 {
				uniqueSingle = append(uniqueSingle, constraint.Keys[0].Column.Name.O)
			}
		}
	}

	for _, colID := range uniqueSingle {
		if colID == table.Keys.PrimaryColumnID {
			continue
		}
		table.Keys.Secondary = append(table.Keys.Secondary, project.SecondaryKey{
			ColumnID: colID, Unique: true,
		})
	}

	if table.Keys.PrimaryColumnID == "" {
		return nil, fmt.Errorf("table has no single-column primary key; gddb tables require exactly one")
	}

	return table, nil
}

// convertColumn maps one MySQL column definition to its gddb equivalent,
// reporting whether it carries PRIMARY KEY or UNIQUE KEY column options
// (constraints declared at the table level are folded in separately).
func convertColumn(colDef *ast.ColumnDef) (*project.Column, bool, bool) {
	col := &project.Column{
		ID:         colDef.Name.Name.O,
		Name:       colDef.Name.Name.O,
		Kind:       kindFromSQLType(colDef.Tp.String()),
		ExportType: exportTypeFromSQLType(colDef.Tp.String()),
	}

	var isPK, isUnique bool
	for _, opt := range colDef.Options {
		switch opt.Tp {
		case ast.ColumnOptionPrimaryKey:
			isPK = true
		case ast.ColumnOptionUniqKey:
			isUnique = true
		case ast.ColumnOptionComment:
		}
	}
	return col, isPK, isUnique
}

// kindFromSQLType maps a MySQL column type string to the closest gddb cell
// kind. Types with no direct analogue (BLOB, JSON, geometry types) map to
// KindText; callers authoring those shapes should use the TOML path, which
// lets a column declare any kind directly.
func kindFromSQLType(sqlType string) project.Kind {
	t := strings.ToLower(sqlType)
	switch {
	case strings.Contains(t, "tinyint(1)"):
		return project.KindCheckbox
	case strings.Contains(t, "int"), strings.Contains(t, "decimal"),
		strings.Contains(t, "float"), strings.Contains(t, "double"):
		return project.KindNumber
	default:
		return project.KindText
	}
}

// exportTypeFromSQLType maps a MySQL numeric type to an ExportType: BIGINT
// and DOUBLE to double, other integer types to int, FLOAT and DECIMAL to
// float, and anything else to ExportTypeDefault. DECIMAL values and BIGINT
// values beyond 2^53 can lose precision under this mapping.
func exportTypeFromSQLType(sqlType string) project.ExportType {
	t := strings.ToLower(sqlType)
	switch {
	case strings.Contains(t, "bigint"), strings.Contains(t, "double"):
		return project.ExportTypeDouble
	case strings.Contains(t, "int"):
		return project.ExportTypeInt
	case strings.Contains(t, "float"), strings.Contains(t, "decimal"):
		return project.ExportTypeFloat
	default:
		return project.ExportTypeDefault
	}
}
