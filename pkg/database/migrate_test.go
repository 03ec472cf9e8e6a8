package database

import (
	"context"
	"regexp"
	"testing"
	"testing/fstest"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-ga-api/pkg/config"
)

func TestMigrateAppliesPendingInOrder(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	files := fstest.MapFS{
		"migrations/0002_add_index.sql": {Data: []byte("CREATE INDEX b ON t (x)")},
		"migrations/0001_init.sql":      {Data: []byte("CREATE TABLE t (x INT)")},
	}

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("0001_init"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX b ON t (x)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (version) VALUES ($1)")).
		WithArgs("0002_add_index").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ran, err := migrate(context.Background(), db, files)
	require.NoError(t, err)
	assert.Equal(t, []string{"0002_add_index"}, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	body, err := migrationFiles.ReadFile("migrations/0001_create_timetables.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS timetables")
	assert.Contains(t, string(body), "timetable_problems")
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "timetable", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=timetable sslmode=disable", dsn)
}
