package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"charla/internal/bus"
	"charla/internal/protocol"
)

var upgrader = websocket.Upgrader{}

type testServer struct {
	*httptest.Server
	upgrades atomic.Int32
	conns    chan *websocket.Conn
	tokens   chan string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		conns:  make(chan *websocket.Conn, 4),
		tokens: make(chan string, 4),
	}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.upgrades.Add(1)
		ts.tokens <- r.URL.Query().Get("token")
		ts.conns <- ws
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testConn(t *testing.T, ts *testServer) (*Conn, *bus.Bus) {
	t.Helper()
	b := bus.New()
	c := New(ts.URL, b, zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })
	return c, b
}

func TestConnectIdempotent(t *testing.T) {
	ts := newTestServer(t)
	c, _ := testConn(t, ts)

	if err := c.Connect("tok-1"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := c.Connect("tok-1"); err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}

	// Give a racing dial time to show up if the guard were broken.
	time.Sleep(100 * time.Millisecond)
	if got := ts.upgrades.Load(); got != 1 {
		t.Errorf("server saw %d connections, want 1", got)
	}
	if !c.Connected() {
		t.Error("Connected() = false after Connect")
	}
}

func TestConnectSendsBearerToken(t *testing.T) {
	ts := newTestServer(t)
	c, _ := testConn(t, ts)

	if err := c.Connect("secret-token"); err != nil {
		t.Fatal(err)
	}
	select {
	case tok := <-ts.tokens:
		if tok != "secret-token" {
			t.Errorf("token = %q, want secret-token", tok)
		}
	case <-time.After(time.Second):
		t.Fatal("server never saw the connection")
	}
}

func TestSendWhileClosed(t *testing.T) {
	c := New("ws://127.0.0.1:1", bus.New(), zap.NewNop())

	err := c.Send(protocol.GetContacts{})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send() error = %v, want ErrNotConnected", err)
	}
}

func TestSendReachesServer(t *testing.T) {
	ts := newTestServer(t)
	c, _ := testConn(t, ts)

	if err := c.Connect("tok"); err != nil {
		t.Fatal(err)
	}
	server := <-ts.conns

	if err := c.Send(protocol.OpenChat{ChatID: "c1"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	_ = server.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := server.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	frame := string(data)
	if !strings.Contains(frame, `"type":"open_chat"`) || !strings.Contains(frame, `"chat_id":"c1"`) {
		t.Errorf("frame = %s", frame)
	}
}

func TestInboundDeliveredToSink(t *testing.T) {
	ts := newTestServer(t)
	c, _ := testConn(t, ts)

	got := make(chan protocol.Inbound, 1)
	c.SetSink(func(ev protocol.Inbound) { got <- ev })

	if err := c.Connect("tok"); err != nil {
		t.Fatal(err)
	}
	server := <-ts.conns

	frame := `{"type":"chat_read","chat_id":"c1"}`
	if err := server.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-got:
		cr, ok := ev.(*protocol.ChatRead)
		if !ok {
			t.Fatalf("got %T, want *protocol.ChatRead", ev)
		}
		if cr.ChatID != "c1" {
			t.Errorf("chat_id = %q, want c1", cr.ChatID)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for inbound event")
	}
}

func TestUnknownInboundIgnored(t *testing.T) {
	ts := newTestServer(t)
	c, _ := testConn(t, ts)

	got := make(chan protocol.Inbound, 2)
	c.SetSink(func(ev protocol.Inbound) { got <- ev })

	if err := c.Connect("tok"); err != nil {
		t.Fatal(err)
	}
	server := <-ts.conns

	_ = server.WriteMessage(websocket.TextMessage, []byte(`{"type":"future_thing","x":1}`))
	_ = server.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat_read","chat_id":"c2"}`))

	select {
	case ev := <-got:
		if _, ok := ev.(*protocol.ChatRead); !ok {
			t.Errorf("got %T, want *protocol.ChatRead (unknown frame should be skipped)", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for inbound event")
	}
}

func TestServerCloseEmitsBusEvent(t *testing.T) {
	ts := newTestServer(t)
	c, b := testConn(t, ts)

	ch, unsub := b.Subscribe("conn.", 4)
	defer unsub()

	if err := c.Connect("tok"); err != nil {
		t.Fatal(err)
	}
	server := <-ts.conns
	_ = server.Close()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Kind == bus.KindConnClosed {
				if c.Connected() {
					t.Error("Connected() = true after close")
				}
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for conn.closed")
		}
	}
}

func TestEndpointBuilding(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"http://localhost:4000", "ws://localhost:4000/ws?token=t"},
		{"https://chat.example.com", "wss://chat.example.com/ws?token=t"},
		{"wss://chat.example.com/socket", "wss://chat.example.com/socket?token=t"},
	}
	for _, tt := range tests {
		c := New(tt.server, bus.New(), zap.NewNop())
		got, err := c.endpoint("t")
		if err != nil {
			t.Errorf("endpoint(%q) error = %v", tt.server, err)
			continue
		}
		if got != tt.want {
			t.Errorf("endpoint(%q) = %q, want %q", tt.server, got, tt.want)
		}
	}

	c := New("ftp://nope", bus.New(), zap.NewNop())
	if _, err := c.endpoint("t"); err == nil {
		t.Error("endpoint() with bad scheme should error")
	}
}
