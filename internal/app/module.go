// Package app composes the client: logging, session lock, keystore, the
// websocket transport, the sync engine and the terminal UI, wired through fx.
package app

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"charla/internal/bus"
	"charla/internal/config"
	"charla/internal/engine"
	"charla/internal/lock"
	"charla/internal/logging"
	"charla/internal/session"
	"charla/internal/state"
	"charla/internal/store"
	"charla/internal/transport"
	"charla/internal/tui"
)

// Params holds the resolved invocation settings passed to the fx module.
type Params struct {
	SessionName string
	ServerURL   string // optional override; empty = use config.toml
	Token       string // optional; empty = use the token persisted last run
}

// Module returns the fx module composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("charla",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideLock,
			provideDB,
			provideConfig,
			provideStateStore,
			provideConn,
			provideEngine,
			provideUI,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideDB(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.DBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("keystore initialized", zap.String("path", dbPath))
	return db, nil
}

func provideConfig(p Params, logger *zap.Logger) *config.Config {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		logger.Info("no config file, using defaults", zap.Error(err))
		cfg = &config.Config{Theme: config.DefaultTheme}
	}
	if p.ServerURL != "" {
		cfg.ServerURL = p.ServerURL
	}
	return cfg
}

func provideStateStore(b *bus.Bus) *state.Store {
	return state.NewStore(b)
}

func provideConn(cfg *config.Config, b *bus.Bus, logger *zap.Logger) *transport.Conn {
	return transport.New(cfg.ServerURL, b, logger)
}

func provideEngine(cfg *config.Config, st *state.Store, conn *transport.Conn, db *store.DB, b *bus.Bus, logger *zap.Logger) *engine.Engine {
	return engine.New(st, conn, db, b, logger, cfg.Theme)
}

func provideUI(p Params, e *engine.Engine, st *state.Store, b *bus.Bus, logger *zap.Logger) *tui.App {
	return tui.NewApp(e, st, b, logger, p.SessionName)
}

func registerLifecycle(lc fx.Lifecycle, p Params, e *engine.Engine, conn *transport.Conn, db *store.DB, lk *lock.Lock, ui *tui.App, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			conn.SetSink(e.Dispatch)

			token, err := resolveToken(p, db)
			if err != nil {
				return err
			}

			// Dialing happens off the start path so a slow or dead server
			// leaves the UI usable.
			go func() {
				if err := e.Start(token); err != nil {
					logger.Error("connect failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			ui.Stop()
			e.Stop()
			if err := conn.Close(); err != nil {
				logger.Warn("close transport", zap.Error(err))
			}
			if err := db.Close(); err != nil {
				logger.Warn("close keystore", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("release lock", zap.Error(err))
			}
			logger.Info("stopped")
			return nil
		},
	})
}

// resolveToken prefers the --token flag and falls back to the token persisted
// in the keystore; a freshly supplied token is persisted for the next run.
func resolveToken(p Params, db *store.DB) (string, error) {
	if p.Token != "" {
		if err := db.Put(store.KeyToken, p.Token); err != nil {
			return "", err
		}
		return p.Token, nil
	}
	token, err := db.Get(store.KeyToken)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", errors.New("no auth token: pass --token on first run")
	}
	return token, nil
}
