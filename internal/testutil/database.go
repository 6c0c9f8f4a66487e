package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"yatube/internal/repository/sqldb"
)

// NewTestRepositories opens a sqlite file in a temp dir with the schema
// applied. The database is closed when the test completes.
func NewTestRepositories(t *testing.T) *sqldb.Repositories {
	t.Helper()

	db, err := sqldb.OpenSQLite(filepath.Join(t.TempDir(), "yatube.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	repos := sqldb.NewRepositories(db)
	if err := repos.Init(context.Background()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return repos
}
