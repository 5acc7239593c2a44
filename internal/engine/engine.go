// Package engine is the synchronization core: it owns the event loop that
// serializes every inbound server event and every operator action against the
// state store, performs optimistic sends, and reconciles the server's
// authoritative copies against local optimistic state.
package engine

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"charla/internal/bus"
	"charla/internal/protocol"
	"charla/internal/state"
	"charla/internal/store"
)

// Link is the outbound side of the connection manager.
type Link interface {
	Connect(token string) error
	Send(ev protocol.Outbound) error
	Close() error
}

// Keystore holds the session-scoped persisted keys.
type Keystore interface {
	Get(key string) (string, error)
	Put(key, value string) error
	Delete(key string) error
	Clear() error
}

// ActionFailure is the bus payload published when the server rejects a
// profile or group mutation.
type ActionFailure struct {
	Action string
	Status string
}

// Engine runs one session. All state mutations go through a single goroutine:
// inbound events and operator actions are enqueued as tasks and run to
// completion one at a time, so no two handlers ever interleave.
type Engine struct {
	store        *state.Store
	link         Link
	keys         Keystore
	bus          *bus.Bus
	logger       *zap.Logger
	defaultTheme string

	tasks   chan func()
	quit    chan struct{}
	started atomic.Bool
}

// New creates an engine. Call Start to connect and begin processing.
func New(st *state.Store, link Link, keys Keystore, b *bus.Bus, logger *zap.Logger, defaultTheme string) *Engine {
	return &Engine{
		store:        st,
		link:         link,
		keys:         keys,
		bus:          b,
		logger:       logger,
		defaultTheme: defaultTheme,
		tasks:        make(chan func(), 256),
		quit:         make(chan struct{}),
	}
}

// Start launches the event loop and connects with the bearer token. If an
// active conversation id survived from a previous process in this session, it
// is re-requested. Starting twice is a no-op (the transport dial is
// idempotent and the loop runs once).
func (e *Engine) Start(token string) error {
	if e.started.CompareAndSwap(false, true) {
		go e.loop()
	}

	if err := e.link.Connect(token); err != nil {
		return err
	}

	saved, err := e.keys.Get(store.KeyActiveChat)
	if err != nil {
		e.logger.Warn("read persisted active chat", zap.Error(err))
	}
	if saved != "" {
		e.do(func() { e.reopen(saved) })
	}
	return nil
}

// Stop halts the event loop without logging out. Pending tasks are dropped.
func (e *Engine) Stop() {
	select {
	case <-e.quit:
	default:
		close(e.quit)
	}
}

// Dispatch hands one decoded inbound event to the loop. It is the transport's
// sink.
func (e *Engine) Dispatch(ev protocol.Inbound) {
	e.do(func() { e.handleInbound(ev) })
}

// Logout emits the logout notification, closes the transport and resets every
// piece of session state: the in-memory cache, the persisted keys, and the
// theme back to its default.
func (e *Engine) Logout() {
	e.do(func() { e.logout() })
}

func (e *Engine) logout() {
	if err := e.link.Send(protocol.Logout{}); err != nil {
		e.logger.Warn("logout notification not sent", zap.Error(err))
	}
	if err := e.link.Close(); err != nil {
		e.logger.Warn("close transport", zap.Error(err))
	}

	e.store.Reset()

	if err := e.keys.Clear(); err != nil {
		e.logger.Warn("clear session keys", zap.Error(err))
	}
	if err := e.keys.Put(store.KeyTheme, e.defaultTheme); err != nil {
		e.logger.Warn("reset theme", zap.Error(err))
	}
	e.bus.Publish(bus.Now(bus.KindThemeChanged, e.defaultTheme))
	e.logger.Info("logged out")
}

func (e *Engine) loop() {
	for {
		select {
		case fn := <-e.tasks:
			fn()
		case <-e.quit:
			return
		}
	}
}

func (e *Engine) do(fn func()) {
	select {
	case e.tasks <- fn:
	case <-e.quit:
	}
}

// reopen restores the persisted active conversation after a connect.
func (e *Engine) reopen(chatID string) {
	e.store.Apply(func(s *state.Session) {
		s.ActiveChatID = chatID
	})
	e.send(protocol.OpenChat{ChatID: chatID})
}

// send transmits one event. Transport-unavailable is reported and swallowed:
// the action is dropped, never queued.
func (e *Engine) send(ev protocol.Outbound) {
	if err := e.link.Send(ev); err != nil {
		e.logger.Warn("send failed", zap.String("event", ev.EventType()), zap.Error(err))
	}
}

func (e *Engine) persistActiveChat(chatID string) {
	if err := e.keys.Put(store.KeyActiveChat, chatID); err != nil {
		e.logger.Warn("persist active chat", zap.Error(err))
	}
}

func (e *Engine) forgetActiveChat() {
	if err := e.keys.Delete(store.KeyActiveChat); err != nil {
		e.logger.Warn("forget active chat", zap.Error(err))
	}
}

func (e *Engine) reportFailure(action, status string) {
	e.logger.Warn("action rejected by server", zap.String("action", action), zap.String("status", status))
	e.bus.Publish(bus.Now(bus.KindActionFailed, ActionFailure{Action: action, Status: status}))
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
