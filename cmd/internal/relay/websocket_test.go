package relay

import (
	"context"
	"encoding/json"
	"github.com/gorilla/websocket"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newRelayServer(t *testing.T, hub *Hub, presence Presence, roomID int) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	var userID atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = Serve(r.Context(), hub, presence, roomID, NewConn(ws, int(userID.Add(1))))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServeRelaysSignalsToOtherPeers(t *testing.T) {
	hub := NewHub()
	presence := NewMemoryPresence()
	srv := newRelayServer(t, hub, presence, 3)

	first := dial(t, srv)
	waitFor(t, func() bool { return hub.Count(3) == 1 })
	second := dial(t, srv)
	waitFor(t, func() bool { return hub.Count(3) == 2 })

	if err := first.WriteMessage(websocket.TextMessage, []byte(`{"typing":true}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := second.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var frame SignalFrame
	if err = json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.Type != "signal" || frame.SenderID != 1 || string(frame.Payload) != `{"typing":true}` {
		t.Fatalf("unexpected frame %s", data)
	}

	online, _ := presence.Online(context.Background(), 3)
	if len(online) != 2 {
		t.Fatalf("online = %v, want two users", online)
	}
}

func TestServeDeliversBroadcasts(t *testing.T) {
	hub := NewHub()
	srv := newRelayServer(t, hub, nil, 4)

	ws := dial(t, srv)
	waitFor(t, func() bool { return hub.Count(4) == 1 })

	if got := hub.Broadcast(4, []byte(`{"type":"message"}`)); got != 1 {
		t.Fatalf("delivered = %d, want 1", got)
	}

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"type":"message"}` {
		t.Fatalf("payload = %s", data)
	}
}

func TestServeLeavesOnDisconnect(t *testing.T) {
	hub := NewHub()
	presence := NewMemoryPresence()
	srv := newRelayServer(t, hub, presence, 5)

	ws := dial(t, srv)
	waitFor(t, func() bool { return hub.Count(5) == 1 })

	_ = ws.Close()
	waitFor(t, func() bool { return hub.Count(5) == 0 })
	waitFor(t, func() bool {
		online, _ := presence.Online(context.Background(), 5)
		return len(online) == 0
	})
}

func TestHubCloseEndsConnections(t *testing.T) {
	hub := NewHub()
	srv := newRelayServer(t, hub, nil, 6)

	ws := dial(t, srv)
	waitFor(t, func() bool { return hub.Count(6) == 1 })

	hub.Close()

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Fatal("expected the connection to be closed")
	}
}
