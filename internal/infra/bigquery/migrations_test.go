package bigquery

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/api/googleapi"
)

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_view.sql":  {Data: []byte("CREATE VIEW `{{PROJECT_ID}}.{{DATASET_ID}}.v` AS SELECT 1")},
		"m/0001_table.sql": {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.t` (x INT64)")},
		"m/README.md":      {Data: []byte("ignored")},
		"m/1_bad.sql":      {Data: []byte("ignored")},
	}

	got, err := LoadMigrations(fsys, "m", "proj", "ds")
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d migrations, want 2", len(got))
	}
	if got[0].Version != 1 || got[0].Name != "table" || got[1].Version != 2 {
		t.Errorf("order = %d_%s, %d_%s", got[0].Version, got[0].Name, got[1].Version, got[1].Name)
	}
	if got[0].SQL != "CREATE TABLE `proj.ds.t` (x INT64)" {
		t.Errorf("SQL = %q", got[0].SQL)
	}

	// checksum ignores the target dataset
	other, err := LoadMigrations(fsys, "m", "other", "ds2")
	if err != nil {
		t.Fatal(err)
	}
	if other[0].Checksum != got[0].Checksum {
		t.Error("checksum changed with project/dataset")
	}
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0001_a.sql": {Data: []byte("SELECT 1")},
		"m/0001_b.sql": {Data: []byte("SELECT 2")},
	}
	if _, err := LoadMigrations(fsys, "m", "p", "d"); err == nil {
		t.Error("expected an error for a duplicate version")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := LoadMigrations(embeddedMigrations, "migrations", "proj", "finance")
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(got) == 0 || got[0].Version != 1 {
		t.Fatalf("unexpected migrations: %+v", got)
	}
	if !strings.Contains(got[0].SQL, "`proj.finance."+IssuedDocumentsTable+"`") {
		t.Errorf("first migration does not create %s:\n%s", IssuedDocumentsTable, got[0].SQL)
	}
	for _, m := range got {
		if strings.Contains(m.SQL, "{{") {
			t.Errorf("%s has unreplaced placeholders", m.Filename)
		}
	}
}

func TestPending(t *testing.T) {
	all := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}
	applied := []AppliedMigration{{Version: 1}, {Version: 3}}

	var versions []int
	for _, m := range Pending(all, applied) {
		versions = append(versions, m.Version)
	}
	if diff := cmp.Diff([]int{2}, versions); diff != "" {
		t.Errorf("pending mismatch (-want +got):\n%s", diff)
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("read: %w", &googleapi.Error{Code: 404})) {
		t.Error("wrapped 404 not detected")
	}
	if isNotFound(&googleapi.Error{Code: 403}) || isNotFound(errors.New("Not found")) {
		t.Error("false positive")
	}
}

func TestMigrationFilenamePattern(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
	}{
		{"0001_create_issued_documents.sql", true},
		{"001_invalid.sql", false},       // wrong number format
		{"0001_test", false},             // missing .sql
		{"0001.sql", false},              // missing name
		{"invalid_0001_test.sql", false}, // wrong order
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := migrationFile.MatchString(tt.filename); got != tt.valid {
				t.Errorf("match = %v, want %v", got, tt.valid)
			}
		})
	}
}
