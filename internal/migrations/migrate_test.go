package migrations

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindLatestMigrationVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_physics_sessions.up.sql",
		"000001_physics_sessions.down.sql",
		"000002_saved_values.up.sql",
		"README.md",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "000009_dir"), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := findLatestMigrationVersion(dir); got != 2 {
		t.Errorf("latest = %d, want 2", got)
	}
}

func TestFindLatestMigrationVersionMissingDir(t *testing.T) {
	if got := findLatestMigrationVersion(filepath.Join(t.TempDir(), "nope")); got != 0 {
		t.Errorf("latest = %d, want 0", got)
	}
}

func TestRunMigrationsNeedsURL(t *testing.T) {
	if err := RunMigrations("", "migrations"); err == nil {
		t.Error("empty database URL accepted")
	}
}
