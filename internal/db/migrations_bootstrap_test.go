package db

import (
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/glebarez/sqlite"
	embeddedmigrations "github.com/terraincognita07/fertility/migrations"
	"gorm.io/gorm"
)

func TestOpenSQLiteAppliesEmbeddedMigrationsOnCleanDatabase(t *testing.T) {
	databasePath := filepath.Join(t.TempDir(), "fertility-clean.db")
	database := openSQLiteForMigrationBootstrapTest(t, databasePath)

	assertProfileSnapshotsSchema(t, database)
	assertAllEmbeddedMigrationsApplied(t, database)
}

func TestOpenSQLiteMigrationBootstrapIsIdempotent(t *testing.T) {
	databasePath := filepath.Join(t.TempDir(), "fertility-idempotent.db")

	firstOpen, err := OpenSQLite(databasePath)
	if err != nil {
		t.Fatalf("first open sqlite: %v", err)
	}
	firstRecords := loadMigrationRecords(t, firstOpen)

	firstSQLDB, err := firstOpen.DB()
	if err != nil {
		t.Fatalf("first open sql db: %v", err)
	}
	if err := firstSQLDB.Close(); err != nil {
		t.Fatalf("close first sql db: %v", err)
	}

	secondOpen := openSQLiteForMigrationBootstrapTest(t, databasePath)
	secondRecords := loadMigrationRecords(t, secondOpen)

	if !reflect.DeepEqual(firstRecords, secondRecords) {
		t.Fatalf("expected migration records to remain unchanged between boots, before=%v after=%v", firstRecords, secondRecords)
	}
}

func TestApplyMigrationsSkipsColumnAddedByHand(t *testing.T) {
	database := openRawSQLite(t, filepath.Join(t.TempDir(), "fertility-patched.db"))

	if err := database.Exec(`CREATE TABLE profile_snapshots (profile_id TEXT PRIMARY KEY, name TEXT NOT NULL, version INTEGER NOT NULL DEFAULT 1, data TEXT NOT NULL, created_at DATETIME, updated_at DATETIME, last_notified_date TEXT)`).Error; err != nil {
		t.Fatalf("seed patched schema: %v", err)
	}

	files := fstest.MapFS{
		"0002_profile_snapshots_notified.sql": &fstest.MapFile{
			Data: []byte("ALTER TABLE profile_snapshots ADD COLUMN last_notified_date TEXT;"),
		},
	}
	if err := applyMigrations(database, files); err != nil {
		t.Fatalf("expected duplicate ADD COLUMN to be skipped, got %v", err)
	}

	records := loadMigrationRecords(t, database)
	if len(records) != 1 || records[0] != "0002:0002_profile_snapshots_notified.sql" {
		t.Fatalf("expected the patched migration to be recorded, got %v", records)
	}
}

func TestLoadMigrationsRejectsDuplicateVersions(t *testing.T) {
	files := fstest.MapFS{
		"0001_a.sql": &fstest.MapFile{Data: []byte("SELECT 1;")},
		"0001_b.sql": &fstest.MapFile{Data: []byte("SELECT 2;")},
	}
	if _, err := loadMigrations(files); err == nil {
		t.Fatal("expected duplicate migration version error")
	}
}

func TestLoadMigrationsOrdersNumerically(t *testing.T) {
	files := fstest.MapFS{
		"10_late.sql": &fstest.MapFile{Data: []byte("SELECT 10;")},
		"2_early.sql": &fstest.MapFile{Data: []byte("SELECT 2;")},
		"README.md":   &fstest.MapFile{Data: []byte("ignored")},
		"1_first.sql": &fstest.MapFile{Data: []byte("SELECT 1;")},
	}

	migrations, err := loadMigrations(files)
	if err != nil {
		t.Fatalf("loadMigrations returned error: %v", err)
	}

	got := make([]string, 0, len(migrations))
	for _, migration := range migrations {
		got = append(got, migration.Name)
	}
	want := []string{"1_first.sql", "2_early.sql", "10_late.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSplitSQLStatements(t *testing.T) {
	got := splitSQLStatements("CREATE TABLE a (x INT);\n\n  ;CREATE INDEX i ON a(x);  ")
	want := []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a(x)"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func openSQLiteForMigrationBootstrapTest(t *testing.T, databasePath string) *gorm.DB {
	t.Helper()

	database, err := OpenSQLite(databasePath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	closeOnCleanup(t, database)
	return database
}

func openRawSQLite(t *testing.T, databasePath string) *gorm.DB {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("open raw sqlite: %v", err)
	}
	closeOnCleanup(t, database)
	return database
}

func closeOnCleanup(t *testing.T, database *gorm.DB) {
	t.Helper()

	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("load sql db handle: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
}

func assertProfileSnapshotsSchema(t *testing.T, database *gorm.DB) {
	t.Helper()

	var columns []struct {
		Name string `gorm:"column:name"`
	}
	if err := database.Raw(`PRAGMA table_info("profile_snapshots")`).Scan(&columns).Error; err != nil {
		t.Fatalf("load profile_snapshots columns: %v", err)
	}

	present := make(map[string]bool, len(columns))
	for _, column := range columns {
		present[column.Name] = true
	}
	for _, expected := range []string{"profile_id", "name", "version", "data", "last_notified_date", "created_at", "updated_at"} {
		if !present[expected] {
			t.Fatalf("expected profile_snapshots.%s to exist, got %v", expected, present)
		}
	}
}

func assertAllEmbeddedMigrationsApplied(t *testing.T, database *gorm.DB) {
	t.Helper()

	expected, err := loadMigrations(embeddedmigrations.Files)
	if err != nil {
		t.Fatalf("load embedded migrations: %v", err)
	}
	if len(expected) == 0 {
		t.Fatal("expected at least one embedded migration")
	}

	records := loadMigrationRecords(t, database)
	if len(records) != len(expected) {
		t.Fatalf("expected %d migration records, got %d (%v)", len(expected), len(records), records)
	}
	for index, migration := range expected {
		want := fmt.Sprintf("%s:%s", migration.Version, migration.Name)
		if records[index] != want {
			t.Fatalf("expected migration record %q at %d, got %q", want, index, records[index])
		}
	}
}

func loadMigrationRecords(t *testing.T, database *gorm.DB) []string {
	t.Helper()

	var rows []struct {
		Version string `gorm:"column:version"`
		Name    string `gorm:"column:name"`
	}
	if err := database.Raw(`SELECT version, name FROM schema_migrations ORDER BY version ASC`).Scan(&rows).Error; err != nil {
		t.Fatalf("load schema_migrations: %v", err)
	}

	records := make([]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, fmt.Sprintf("%s:%s", row.Version, row.Name))
	}
	return records
}
