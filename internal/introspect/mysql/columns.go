package mysql

import (
	"database/sql"
	"strings"

	"gddb/internal/project"
)

func introspectColumns(ic *introspectCtx, t *project.Table) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			c.column_name,
			c.column_type,
			c.column_key
		FROM information_schema.columns c
		WHERE c.table_schema = DATABASE() AND c.table_name = ?
		ORDER BY c.ordinal_position
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, colType, colKey sql.NullString
		if err := rows.Scan(&name, &colType, &colKey); err != nil {
			return err
		}

		col := &project.Column{
			ID:         name.String,
			Name:       name.String,
			Kind:       kindFromColumnType(colType.String),
			ExportType: exportTypeFromColumnType(colType.String),
		}
		t.Columns = append(t.Columns, col)

		if colKey.String == "PRI" {
			t.Keys.PrimaryColumnID = col.ID
		} else if colKey.String == "UNI" {
			t.Keys.Secondary = append(t.Keys.Secondary, project.SecondaryKey{
				ColumnID: col.ID, Unique: true,
			})
		}
	}

	return rows.Err()
}

func kindFromColumnType(colType string) project.Kind {
	t := strings.ToLower(colType)
	switch {
	case strings.HasPrefix(t, "tinyint(1)"):
		return project.KindCheckbox
	case strings.Contains(t, "int"), strings.Contains(t, "decimal"),
		strings.Contains(t, "float"), strings.Contains(t, "double"):
		return project.KindNumber
	default:
		return project.KindText
	}
}

func exportTypeFromColumnType(colType string) project.ExportType {
	t := strings.ToLower(colType)
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
