package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3" // SQLite driver, needed for tests
)

// checkTableExists is a test helper to verify if a table exists in the database.
func checkTableExists(t *testing.T, db *sql.DB, tableName string) {
	t.Helper()
	query := fmt.Sprintf("SELECT name FROM sqlite_master WHERE type='table' AND name='%s';", tableName)
	var name string
	err := db.QueryRow(query).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			t.Errorf("Table '%s' does not exist, but it should.", tableName)
			return
		}
		t.Fatalf("Error checking if table '%s' exists: %v", tableName, err)
	}
	if name != tableName {
		t.Errorf("Table check query returned '%s' but expected '%s'", name, tableName)
	}
}

func TestUpgradeDB_NewDatabase(t *testing.T) {
	db, err := OpenDBConnection(":memory:", true, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed for in-memory DB: %v", err)
	}
	defer db.Close()

	err = UpgradeDB(db, ":memory:", TargetSchemaVersion)
	if err != nil {
		t.Fatalf("UpgradeDB failed on a new in-memory database: %v", err)
	}

	expectedTables := []string{"stlcat_versions", "entries", "tags", "entry_tags", "related_files"}
	for _, tableName := range expectedTables {
		checkTableExists(t, db, tableName)
	}

	version, err := GetComponentSchemaVersion(db, CatalogDBComponent)
	if err != nil {
		t.Fatalf("GetComponentSchemaVersion failed after UpgradeDB: %v", err)
	}

	if version != TargetSchemaVersion {
		t.Errorf("Expected component '%s' to be at version %d, but got %d", CatalogDBComponent, TargetSchemaVersion, version)
	}
}

func TestUpgradeDB_AlreadyUpToDate(t *testing.T) {
	db, err := OpenDBConnection(":memory:", true, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed for in-memory DB: %v", err)
	}
	defer db.Close()

	if err := InitializeSchema(db, TargetSchemaVersion); err != nil {
		t.Fatalf("InitializeSchema failed: %v", err)
	}

	// A second upgrade must be a no-op and must not disturb existing data.
	if _, err := db.Exec(`INSERT INTO tags (id, name) VALUES ('00000000-0000-0000-0000-000000000001', 'keepme');`); err != nil {
		t.Fatalf("Failed to insert sentinel tag: %v", err)
	}

	err = UpgradeDB(db, ":memory:", TargetSchemaVersion)
	if err != nil {
		t.Fatalf("UpgradeDB failed on an up-to-date database: %v", err)
	}

	version, err := GetComponentSchemaVersion(db, CatalogDBComponent)
	if err != nil {
		t.Fatalf("GetComponentSchemaVersion failed: %v", err)
	}
	if version != TargetSchemaVersion {
		t.Errorf("Expected version %d after repeated upgrade, got %d", TargetSchemaVersion, version)
	}

	var name string
	if err := db.QueryRow(`SELECT name FROM tags WHERE name = 'keepme';`).Scan(&name); err != nil {
		t.Fatalf("Sentinel tag lost after repeated upgrade: %v", err)
	}
}

func TestUpgradeDB_NewerThanTarget(t *testing.T) {
	db, err := OpenDBConnection(":memory:", false, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed for in-memory DB: %v", err)
	}
	defer db.Close()

	if err := InitializeSchema(db, TargetSchemaVersion+5); err != nil {
		t.Fatalf("InitializeSchema failed: %v", err)
	}

	err = UpgradeDB(db, ":memory:", TargetSchemaVersion)
	if err == nil {
		t.Fatal("Expected UpgradeDB to fail for a database newer than the target version")
	}
	if !strings.Contains(err.Error(), "newer than application's target") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestGetComponentSchemaVersion_MissingTable(t *testing.T) {
	db, err := OpenDBConnection(":memory:", false, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed for in-memory DB: %v", err)
	}
	defer db.Close()

	version, err := GetComponentSchemaVersion(db, CatalogDBComponent)
	if err != nil {
		t.Fatalf("GetComponentSchemaVersion should not error when versions table is absent: %v", err)
	}
	if version != 0 {
		t.Errorf("Expected version 0 for uninitialized database, got %d", version)
	}
}

func TestOpenDBConnection_InvalidSyncMode(t *testing.T) {
	_, err := OpenDBConnection(":memory:", false, "SOMETIMES")
	if err == nil {
		t.Fatal("Expected OpenDBConnection to reject an invalid sync pragma")
	}
}

// Foreign key enforcement rides in the DSN, so it must hold on every
// connection the pool opens, not just the first.
func TestOpenDBConnection_ForeignKeysOnEveryConnection(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "fk_test.db")

	db, err := OpenDBConnection(dbFile, false, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed: %v", err)
	}
	defer db.Close()

	if err := UpgradeDB(db, dbFile, TargetSchemaVersion); err != nil {
		t.Fatalf("UpgradeDB failed: %v", err)
	}

	if _, err := db.Exec(`INSERT INTO entries (id, file_path, name) VALUES ('e1', '/a/box.stl', 'Box')`); err != nil {
		t.Fatalf("Failed to insert entry: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO related_files (id, entry_id, file_path) VALUES ('r1', 'e1', '/a/box_lid.stl')`); err != nil {
		t.Fatalf("Failed to insert related file: %v", err)
	}

	// Drop idle connections so the next statements run on freshly opened ones.
	db.SetMaxIdleConns(0)

	if _, err := db.Exec(`INSERT INTO related_files (id, entry_id, file_path) VALUES ('r2', 'missing', '/a/ghost.stl')`); err == nil {
		t.Error("Expected an orphan related_files insert to violate the foreign key")
	}

	if _, err := db.Exec(`DELETE FROM entries WHERE id = 'e1'`); err != nil {
		t.Fatalf("Failed to delete entry: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM related_files WHERE entry_id = 'e1'`).Scan(&count); err != nil {
		t.Fatalf("Failed to count related files: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected related files to cascade on entry delete, found %d rows", count)
	}
}
