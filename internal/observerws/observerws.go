// Package observerws serves /ws/logs (spec §6), running server-side the
// same ping/pong/keepalive discipline a websocket client would run in
// reverse: a write-side ping ticker, a pong deadline enforced via
// SetReadDeadline/SetPongHandler, and a background reader solely to drain
// control frames and notice the peer going away.
package observerws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/logging"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/session"
)

const (
	pingEvery = 30 * time.Second
	pongWait  = 60 * time.Second
	writeWait = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades the connection, subscribes it to the Supervisor as an
// Observer, and relays every published Message as JSON until the peer
// disconnects or the server shuts the connection down.
type Handler struct {
	sup *session.Supervisor
	log *logging.Logger
}

func NewHandler(sup *session.Supervisor, log *logging.Logger) *Handler {
	return &Handler{sup: sup, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	obs := h.sup.Subscribe()
	defer h.sup.Unsubscribe(obs)

	done := make(chan struct{})
	go h.readLoop(conn, done)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case msg := <-obs.Messages():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write failed, closing: %v", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.log.Debug("ws ping failed, closing: %v", err)
				return
			}
		}
	}
}

// readLoop only drains control frames (pong/close) and notices the peer
// going away; this daemon has nothing to receive from an observer.
func (h *Handler) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// LogSink returns a logging.Sink that turns every logged line into a
// {type:"log"} message published to every observer (spec §6 WebSocket
// message shapes).
func LogSink(sup *session.Supervisor) func(level logging.Level, tag, msg string) {
	return func(level logging.Level, tag, msg string) {
		sup.PublishLog(level.String(), tag, msg)
	}
}
