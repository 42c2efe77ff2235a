package mysql

import (
	"gddb/internal/project"
)

func introspectTables(ic *introspectCtx) ([]*project.Table, error) {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var tables []*project.Table
	for _, name := range names {
		t := &project.Table{ID: name, Name: name}

		if err := introspectColumns(ic, t); err != nil {
			return nil, err
		}
		if err := introspectKeys(ic, t); err != nil {
			return nil, err
		}

		tables = append(tables, t)
	}

	return tables, nil
}
