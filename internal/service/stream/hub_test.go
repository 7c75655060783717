package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, h *Hub) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.ServeWS(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) models.SignalEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev models.SignalEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return ev
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub(Config{}, nil)
	defer h.Close()
	_, url := newTestServer(t, h)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitClients(t, h, 1)

	ev := models.SignalEvent{Symbol: "EUR/USD", CycleID: "c1", Label: models.SignalBuy, Price: 1.1}
	if err := h.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	got := readEvent(t, conn)
	if got.Symbol != "EUR/USD" || got.CycleID != "c1" || got.Label != models.SignalBuy {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestHubReplaysLastEventPerSymbol(t *testing.T) {
	h := NewHub(Config{}, nil)
	defer h.Close()
	_, url := newTestServer(t, h)

	ctx := context.Background()
	_ = h.Publish(ctx, models.SignalEvent{Symbol: "XAU/USD", CycleID: "a"})
	_ = h.Publish(ctx, models.SignalEvent{Symbol: "BTC/USD", CycleID: "a"})
	_ = h.Publish(ctx, models.SignalEvent{Symbol: "XAU/USD", CycleID: "b"})

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readEvent(t, conn)
	second := readEvent(t, conn)
	if first.Symbol != "BTC/USD" || second.Symbol != "XAU/USD" || second.CycleID != "b" {
		t.Fatalf("unexpected replay %+v %+v", first, second)
	}
}

func TestHubRejectsWhenFull(t *testing.T) {
	h := NewHub(Config{MaxClients: 1}, nil)
	defer h.Close()
	_, url := newTestServer(t, h)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitClients(t, h, 1)

	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatalf("expected second dial to fail")
	}
}

func TestHubCloseDisconnects(t *testing.T) {
	h := NewHub(Config{}, nil)
	_, url := newTestServer(t, h)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitClients(t, h, 1)

	_ = h.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close, got %v", err)
	}
	if err := h.Publish(context.Background(), models.SignalEvent{Symbol: "EUR/USD"}); err == nil {
		t.Fatalf("publish after close should fail")
	}
}
