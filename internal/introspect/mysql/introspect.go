// Package mysql introspects a live MySQL, MariaDB, or TiDB database and
// builds the gddb project.Project that describes it, for the `introspect`
// command: the mirror image of authoring a project from TOML or SQL DDL,
// useful when the source of truth already lives in a running database
// rather than in checked-in files.
//
// Column kind inference is intentionally conservative. information_schema
// carries no notion of "select", "formula", or "relation" — only SQL
// types — so every introspected column starts out as KindCheckbox (for
// tinyint(1)), KindNumber, or KindText and is expected to be hand-edited afterward; introspection's
// job is to save the tedium of transcribing column and key names exactly,
// not to guess at authoring intent.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gddb/internal/project"
)

// Introspecter builds a project.Project by querying information_schema.
type Introspecter struct {
	db *sql.DB
}

// NewIntrospecter wraps an already-open *sql.DB, expected to be registered
// under github.com/go-sql-driver/mysql.
func NewIntrospecter(db *sql.DB) *Introspecter {
	return &Introspecter{db: db}
}

type introspectCtx struct {
	ctx context.Context
	db  *sql.DB
}

// Introspect reads every base table in the connection's current database
// and returns them as a project.Project. Tables are returned sorted by
// table name, not in declaration order.
func (i *Introspecter) Introspect(ctx context.Context) (*project.Project, error) {
	ic := &introspectCtx{ctx: ctx, db: i.db}

	tables, err := introspectTables(ic)
	if err != nil {
		return nil, fmt.Errorf("introspect: %w", err)
	}
	return &project.Project{Tables: tables}, nil
}

// Dialect reports which MySQL-family server the connection is talking to
// by checking version_comment, the way a client would before deciding
// which dialect-specific syntax it can safely use.
func Dialect(ctx context.Context, db *sql.DB) (string, error) {
	var varName, comment string
	if err := db.QueryRowContext(ctx, "SHOW VARIABLES LIKE 'version_comment'").Scan(&varName, &comment); err != nil {
		return "", fmt.Errorf("introspect: detect dialect: %w", err)
	}
	comment = strings.ToLower(comment)
	switch {
	case strings.Contains(comment, "mariadb"):
		return "mariadb", nil
	case strings.Contains(comment, "tidb"):
		return "tidb", nil
	default:
		return "mysql", nil
	}
}
