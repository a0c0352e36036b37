package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// streamHandler upgrades to WebSocket and pushes engine events as JSON
// text frames until the client goes away. Slow clients miss events rather
// than backing up the engine.
func (s *Server) streamHandler(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		slog.Warn("stream upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	events, cancel := s.engine.Subscribe()

	// Drain client frames so close handshakes are noticed; everything the
	// client sends is ignored.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, err := wsutil.ReadClientText(conn); err != nil {
				return
			}
		}
	}()

	go func() {
		defer func() {
			cancel()
			_ = conn.Close()
		}()
		for {
			select {
			case <-done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				payload, err := json.Marshal(ev)
				if err != nil {
					slog.Warn("stream event marshal failed", "error", err)
					continue
				}
				if err := wsutil.WriteServerText(conn, payload); err != nil {
					slog.Debug("stream client gone", "remote", r.RemoteAddr, "error", err)
					return
				}
			}
		}
	}()
}
