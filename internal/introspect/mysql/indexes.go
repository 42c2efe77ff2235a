package mysql

import (
	"database/sql"

	"gddb/internal/project"
)

// introspectKeys fills in secondary keys for single-column UNIQUE indexes
// that introspectColumns didn't already catch via column_key (composite
// indexes and indexes added with a separate CREATE INDEX statement don't
// show up there). Multi-column indexes have no representation in the
// gddb key model and are skipped.
func introspectKeys(ic *introspectCtx, t *project.Table) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT i.index_name, i.non_unique, COUNT(*) AS col_count, MIN(c.column_name) AS col_name
		FROM information_schema.statistics i
		JOIN information_schema.statistics c
			ON i.table_schema = c.table_schema
			AND i.table_name = c.table_name
			AND i.index_name = c.index_name
		WHERE i.table_schema = DATABASE() AND i.table_name = ? AND i.non_unique = 0
		GROUP BY i.index_name, i.non_unique
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	existing := map[string]bool{t.Keys.PrimaryColumnID: true}
	for _, sk := range t.Keys.Secondary {
		existing[sk.ColumnID] = true
	}

	for rows.Next() {
		var indexName string
		var nonUnique int
		var colCount int
		var colName sql.NullString
		if err := rows.Scan(&indexName, &nonUnique, &colCount, &colName); err != nil {
			return err
		}
		if colCount != 1 || !colName.Valid || existing[colName.String] {
			continue
		}
		t.Keys.Secondary = append(t.Keys.Secondary, project.SecondaryKey{
			ColumnID: colName.String, Unique: true,
		})
		existing[colName.String] = true
	}

	return rows.Err()
}
