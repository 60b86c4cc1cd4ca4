package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"scriptstudio/internal/middleware"
	"scriptstudio/internal/workflow"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Events streams session views over a websocket: the current view first, then
// one frame per state change. The stream ends when the session expires.
func (a *App) Events(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the client.
		return
	}
	defer conn.Close()

	log := zerolog.Ctx(r.Context()).With().Str("session_id", sess.ID).Logger()
	lang := middleware.LocaleFromContext(r.Context())

	// subscribe before reading the snapshot so no change falls in between
	updates, cancel := sess.Broker.Subscribe()
	defer cancel()

	// watching keeps the session alive
	send := func(snap workflow.Snapshot) error {
		a.Store.Touch(sess.ID)
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(newSessionView(sess.ID, snap, lang))
	}
	if err := send(sess.Controller.Snapshot()); err != nil {
		return
	}

	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case snap, ok := <-updates:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			if err := send(snap); err != nil {
				log.Debug().Err(err).Msg("events: write failed")
				return
			}
		case <-ticker.C:
			a.Store.Touch(sess.ID)
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
