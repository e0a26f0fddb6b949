package shared

import (
	"database/sql"
	"errors"
	"testing"
)

func memoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	ConfigureDatabase(db, 1, 1)
	t.Cleanup(func() { db.Close() })
	return db
}

func appliedVersions(t *testing.T, db *sql.DB) []int {
	t.Helper()
	rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		t.Fatalf("reading schema_migrations: %v", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			t.Fatalf("scan: %v", err)
		}
		versions = append(versions, v)
	}
	return versions
}

func hasColumn(db *sql.DB, column string) bool {
	_, err := db.Exec("SELECT " + column + " FROM sessions LIMIT 1")
	return err == nil
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected the sessions and grant migrations, got %d", len(migrations))
	}

	for i, m := range migrations {
		if m.Version != i {
			t.Errorf("migration %d has version %d", i, m.Version)
		}
		if m.Up == "" || m.Down == "" {
			t.Errorf("migration %d (%s) needs both directions", m.Version, m.Name)
		}
	}
}

func TestMigrationRunner(t *testing.T) {
	t.Run("applies every version once", func(t *testing.T) {
		db := memoryDB(t)
		for range 2 {
			if err := RunMigrations(db); err != nil {
				t.Fatalf("RunMigrations: %v", err)
			}
		}

		if got := appliedVersions(t, db); len(got) != 2 || got[0] != 0 || got[1] != 1 {
			t.Errorf("expected versions [0 1], got %v", got)
		}
		for _, col := range []string{"client_id", "access_token", "refresh_token", "scope", "expires_at"} {
			if !hasColumn(db, col) {
				t.Errorf("sessions.%s missing after migrations", col)
			}
		}
	})

	t.Run("rollback walks back one version at a time", func(t *testing.T) {
		db := memoryDB(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("RunMigrations: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("first rollback: %v", err)
		}
		if hasColumn(db, "scope") || !hasColumn(db, "refresh_token") {
			t.Error("expected grant columns dropped and the base table kept")
		}
		if got := appliedVersions(t, db); len(got) != 1 {
			t.Errorf("expected one applied version, got %v", got)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("second rollback: %v", err)
		}
		if hasColumn(db, "client_id") {
			t.Error("expected sessions table to be dropped")
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("re-applying after rollback: %v", err)
		}
		if !hasColumn(db, "expires_at") {
			t.Error("expected schema restored after re-applying")
		}
	})
}

func TestOpenDatabase(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		db, err := OpenDatabase(DatabaseConfig{Path: ":memory:", MaxOpenConns: 4, MaxIdleConns: 8})
		if err != nil {
			t.Fatalf("OpenDatabase: %v", err)
		}
		defer db.Close()

		if got := db.Stats().MaxOpenConnections; got != 1 {
			t.Errorf("in-memory database should hold a single connection, got %d", got)
		}
		if !hasColumn(db, "scope") {
			t.Error("expected a migrated schema")
		}
	})

	t.Run("without path", func(t *testing.T) {
		if _, err := OpenDatabase(DatabaseConfig{}); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
