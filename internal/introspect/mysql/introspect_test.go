package mysql

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"gddb/internal/project"
)

type testMySQLContainer struct {
	container *tcmysql.MySQLContainer
	db        *sql.DB
}

const fixtureSchema = `
CREATE TABLE items (
	id BIGINT NOT NULL PRIMARY KEY,
	sku VARCHAR(64) NOT NULL,
	price DOUBLE NOT NULL,
	active TINYINT(1) NOT NULL,
	UNIQUE KEY uq_sku (sku)
);

CREATE TABLE tags (
	id BIGINT NOT NULL PRIMARY KEY,
	name VARCHAR(64) NOT NULL
);
`

func TestIntrospectIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupMySQL(t)
	ctx := context.Background()

	_, err := tc.db.ExecContext(ctx, fixtureSchema)
	require.NoError(t, err, "failed to load fixture schema")

	proj, err := NewIntrospecter(tc.db).Introspect(ctx)
	require.NoError(t, err)
	require.Len(t, proj.Tables, 2)

	items := proj.FindTable("items")
	require.NotNil(t, items)
	assert.Equal(t, "id", items.Keys.PrimaryColumnID)
	require.Len(t, items.Keys.Secondary, 1)
	assert.Equal(t, "sku", items.Keys.Secondary[0].ColumnID)

	price := items.FindColumn("price")
	require.NotNil(t, price)
	assert.Equal(t, project.KindNumber, price.Kind)
	assert.Equal(t, project.ExportTypeDouble, price.ExportType)

	active := items.FindColumn("active")
	require.NotNil(t, active)
	assert.Equal(t, project.KindCheckbox, active.Kind)

	tags := proj.FindTable("tags")
	require.NotNil(t, tags)
	assert.Equal(t, "id", tags.Keys.PrimaryColumnID)
	assert.Empty(t, tags.Keys.Secondary)
}

func TestDialectIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupMySQL(t)
	dialect, err := Dialect(context.Background(), tc.db)
	require.NoError(t, err)
	assert.Equal(t, "mysql", dialect)
}

func setupMySQL(t *testing.T) *testMySQLContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("testdb"),
		tcmysql.WithUsername("root"),
		tcmysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err, "failed to get connection string")

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err, "failed to open direct DB connection")
	require.NoError(t, db.PingContext(ctx), "failed to ping database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close DB connection: %v", err)
		}
	})

	return &testMySQLContainer{container: container, db: db}
}
