package app

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"charla/internal/bus"
	"charla/internal/config"
	"charla/internal/state"
	"charla/internal/store"
	"charla/internal/transport"
)

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "charla.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestEngineThemeFollowsConfig(t *testing.T) {
	db := openTestDB(t)
	cfg := &config.Config{ServerURL: "http://localhost:9", Theme: "light"}
	b := bus.New()
	logger := zap.NewNop()

	e := provideEngine(cfg, state.NewStore(b), transport.New(cfg.ServerURL, b, logger), db, b, logger)

	if got := e.Theme(); got != "light" {
		t.Errorf("theme = %q, want the configured %q", got, "light")
	}
}

func TestResolveToken(t *testing.T) {
	t.Run("flag wins and is persisted", func(t *testing.T) {
		db := openTestDB(t)
		token, err := resolveToken(Params{Token: "fresh"}, db)
		if err != nil {
			t.Fatal(err)
		}
		if token != "fresh" {
			t.Errorf("token = %q, want fresh", token)
		}
		if saved, _ := db.Get(store.KeyToken); saved != "fresh" {
			t.Errorf("persisted token = %q, want fresh", saved)
		}
	})

	t.Run("falls back to keystore", func(t *testing.T) {
		db := openTestDB(t)
		if err := db.Put(store.KeyToken, "stored"); err != nil {
			t.Fatal(err)
		}
		token, err := resolveToken(Params{}, db)
		if err != nil {
			t.Fatal(err)
		}
		if token != "stored" {
			t.Errorf("token = %q, want stored", token)
		}
	})

	t.Run("errors when nothing is available", func(t *testing.T) {
		db := openTestDB(t)
		if _, err := resolveToken(Params{}, db); err == nil {
			t.Fatal("expected an error with no token anywhere")
		}
	})
}
