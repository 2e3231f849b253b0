package sqlite

import (
	"path/filepath"
	"testing"

	"saldo/internal/store/storetest"
)

func TestSQLiteRepository(t *testing.T) {
	repo, err := NewRepository(filepath.Join(t.TempDir(), "data", "saldo.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	storetest.Run(t, repo)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saldo.db")
	repo, err := NewRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	repo.Close()

	if err := RunMigrations(path); err != nil {
		t.Fatalf("re-running migrations: %v", err)
	}
}
