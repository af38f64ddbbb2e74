package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

func dialRoom(t *testing.T, hub *Hub, roomID string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		hub.Register(roomID, conn)
		// lets the test block until registration happened
		_ = conn.WriteMessage(websocket.TextMessage, []byte("ready"))
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	_, ready, err := conn.ReadMessage()
	if err != nil || string(ready) != "ready" {
		t.Fatalf("handshake: %q err=%v", ready, err)
	}
	return conn
}

func TestHubSendToRoom(t *testing.T) {
	hub := NewHub()
	conn := dialRoom(t, hub, "room-a")

	hub.SendToRoom("room-a", []byte(`{"text":"partial"}`))

	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != `{"text":"partial"}` {
		t.Errorf("got %s", msg)
	}
}

// The progress listener and the status goroutine both send into the same
// room; writes to one conn must be serialized.
func TestHubSendToRoomConcurrent(t *testing.T) {
	hub := NewHub()
	conn := dialRoom(t, hub, "room-b")

	const perSender = 200

	var wg sync.WaitGroup
	for s := 0; s < 2; s++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				hub.SendToRoom("room-b", []byte(`{"text":"frame"}`))
			}
		}()
	}

	for i := 0; i < 2*perSender; i++ {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if string(msg) != `{"text":"frame"}` {
			t.Fatalf("frame %d corrupted: %s", i, msg)
		}
	}
	wg.Wait()
}

func TestHubSendToUnknownRoomIsNoop(t *testing.T) {
	hub := NewHub()
	// must not panic or block
	hub.SendToRoom("nobody-here", []byte("x"))
}
