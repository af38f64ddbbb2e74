package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/dictaphone-ai/medscribe/internal/ports"
)

type startMsg struct {
	SessionID string `json:"sessionId"`
	Mode      string `json:"mode"` // "clean" (default) or "summarize"
}

type statusMsg struct {
	Status    string `json:"status"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// WSHandler upgrades the connection, joins the room and kicks off the
// requested session operation. Progress frames arrive through the hub from
// the service's event loop; this handler only reports start/end status.
func WSHandler(
	hub *Hub,
	sessions ports.SessionProcessor,
	ctxWS context.Context,
	cancelWS context.CancelFunc,
) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		// Upgrade writes its own HTTP error response on failure
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[WS] upgrade failed: %v", err)
			return
		}

		roomID := r.URL.Query().Get("roomID")
		if roomID == "" {
			roomID = "default"
		}

		log.Printf("[WS] start room=%s", roomID)
		hub.Register(roomID, conn)

		defer func() {
			cancelWS()
			log.Printf("[WS] end room=%s", roomID)
			hub.Unregister(roomID, conn)
		}()

		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[WS] read init fail room=%s", roomID)
			return
		}

		var req startMsg
		if err := json.Unmarshal(raw, &req); err != nil {
			sendStatus(hub, roomID, statusMsg{Status: "error", Error: "bad json"})
			return
		}

		log.Printf("[WS] init session=%s mode=%s", req.SessionID, req.Mode)
		sendStatus(hub, roomID, statusMsg{Status: "processing_started", SessionID: req.SessionID})

		go func() {
			var runErr error
			switch req.Mode {
			case "summarize":
				_, runErr = sessions.SummarizeSession(ctxWS, req.SessionID, roomID)
			default:
				_, runErr = sessions.CleanSession(ctxWS, req.SessionID, roomID)
			}
			if runErr != nil {
				log.Printf("[WS] session error session=%s err=%v", req.SessionID, runErr)
				sendStatus(hub, roomID, statusMsg{Status: "error", SessionID: req.SessionID, Error: runErr.Error()})
				return
			}
			sendStatus(hub, roomID, statusMsg{Status: "ok", SessionID: req.SessionID})
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				log.Printf("[WS] disconnect room=%s", roomID)
				return
			}
		}
	}
}

func sendStatus(hub *Hub, roomID string, msg statusMsg) {
	b, _ := json.Marshal(msg)
	hub.SendToRoom(roomID, b)
}
