package store

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate; a second run must be a no-op.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func TestPutGetDelete(t *testing.T) {
	db := testDB(t)

	if v, err := db.Get(KeyActiveChat); err != nil || v != "" {
		t.Errorf("Get(absent) = (%q, %v), want empty, nil", v, err)
	}

	if err := db.Put(KeyActiveChat, "chat-42"); err != nil {
		t.Fatal(err)
	}
	if v, _ := db.Get(KeyActiveChat); v != "chat-42" {
		t.Errorf("Get = %q, want chat-42", v)
	}

	// Upsert replaces.
	if err := db.Put(KeyActiveChat, "chat-7"); err != nil {
		t.Fatal(err)
	}
	if v, _ := db.Get(KeyActiveChat); v != "chat-7" {
		t.Errorf("Get after upsert = %q, want chat-7", v)
	}

	if err := db.Delete(KeyActiveChat); err != nil {
		t.Fatal(err)
	}
	if v, _ := db.Get(KeyActiveChat); v != "" {
		t.Errorf("Get after delete = %q, want empty", v)
	}

	// Deleting again is a no-op.
	if err := db.Delete(KeyActiveChat); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestClearWipesAllKeys(t *testing.T) {
	db := testDB(t)

	for _, k := range []string{KeyToken, KeyActiveChat, KeyTheme} {
		if err := db.Put(k, "v"); err != nil {
			t.Fatal(err)
		}
	}

	if err := db.Clear(); err != nil {
		t.Fatal(err)
	}

	for _, k := range []string{KeyToken, KeyActiveChat, KeyTheme} {
		if v, _ := db.Get(k); v != "" {
			t.Errorf("Get(%q) after Clear = %q, want empty", k, v)
		}
	}
}
