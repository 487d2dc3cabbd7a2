package database

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20260101_000000_things.up.sql":    {Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);")},
		"20260101_000000_things.down.sql":  {Data: []byte("DROP TABLE things;")},
		"20260102_000000_widgets.up.sql":   {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);")},
		"20260102_000000_widgets.down.sql": {Data: []byte("DROP TABLE widgets;")},
		"README.md":                        {Data: []byte("ignored")},
	}
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup
	ctx := context.Background()

	if err := db.Migrate(ctx, testMigrations()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// A second run is a no-op.
	if err := db.Migrate(ctx, testMigrations()); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}

	applied, err := db.Applied(ctx)
	if err != nil {
		t.Fatalf("Applied() error = %v", err)
	}
	if len(applied) != 2 || applied[0].Version != "20260101_000000" || applied[1].Version != "20260102_000000" {
		t.Errorf("Applied() = %+v", applied)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO widgets (id) VALUES (1)"); err != nil {
		t.Errorf("widgets table missing: %v", err)
	}
}

func TestMigrate_FailureStopsRun(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup
	ctx := context.Background()

	src := testMigrations()
	src["20260103_000000_broken.up.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE (;")}

	if err := db.Migrate(ctx, src); err == nil {
		t.Fatal("Migrate() should fail on broken migration")
	}
	applied, err := db.Applied(ctx)
	if err != nil {
		t.Fatalf("Applied() error = %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("applied = %d, want 2 (earlier migrations stay committed)", len(applied))
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup
	ctx := context.Background()

	if err := db.Migrate(ctx, testMigrations()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx, testMigrations()); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	applied, _ := db.Applied(ctx)
	if len(applied) != 1 {
		t.Fatalf("applied = %d, want 1", len(applied))
	}
	if _, err := db.ExecContext(ctx, "SELECT * FROM widgets"); err == nil {
		t.Error("widgets table should be dropped")
	}
}

func TestMigrateDown_NoDownSQL(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup
	ctx := context.Background()

	src := fstest.MapFS{
		"20260101_000000_once.up.sql": {Data: []byte("CREATE TABLE once (id INTEGER);")},
	}
	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx, src); !errors.Is(err, ErrNoDownMigration) {
		t.Errorf("MigrateDown() error = %v, want ErrNoDownMigration", err)
	}
}

func TestMigrateDown_Empty(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	if err := db.MigrateDown(context.Background(), testMigrations()); err != nil {
		t.Errorf("MigrateDown() with nothing applied error = %v", err)
	}
}

func TestLoadMigrations_Nil(t *testing.T) {
	got, err := LoadMigrations(nil)
	if err != nil || got != nil {
		t.Errorf("LoadMigrations(nil) = %v, %v", got, err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		file    string
		version string
		name    string
		up      bool
		ok      bool
	}{
		{"20260301_120000_settings.up.sql", "20260301_120000", "settings", true, true},
		{"20260301_120000_settings.down.sql", "20260301_120000", "settings", false, true},
		{"20260301_120000_two_words.up.sql", "20260301_120000", "two_words", true, true},
		{"20260301_120000.up.sql", "20260301_120000", "", true, true},
		{"20260301.up.sql", "", "", false, false},
		{"20260301_120000_settings.sql", "", "", false, false},
		{"embed.go", "", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			version, name, up, ok := parseMigrationFilename(tt.file)
			if version != tt.version || name != tt.name || up != tt.up || ok != tt.ok {
				t.Errorf("parseMigrationFilename(%q) = %q, %q, %v, %v; want %q, %q, %v, %v",
					tt.file, version, name, up, ok, tt.version, tt.name, tt.up, tt.ok)
			}
		})
	}
}
