package web

import (
	"context"
	"embed"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-lemmings/internal/core"
)

//go:embed static/index.html
var staticFS embed.FS

const queryTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler returns the HTTP routes served for the hub:
//
//	GET  /                 browser client
//	GET  /ws               websocket state stream
//	GET  /state            one state snapshot as JSON
//	POST /command/{name}   queue a viewer command
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.serveIndex)
	mux.HandleFunc("GET /ws", h.serveWS)
	mux.HandleFunc("GET /state", h.serveState)
	mux.HandleFunc("POST /command/{name}", h.serveCommand)
	return mux
}

func (h *Hub) serveIndex(w http.ResponseWriter, r *http.Request) {
	data, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "client unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data) //nolint:errcheck // Client disconnects are not actionable
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s := &subscriber{conn: conn}
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	state, err := h.snapshot(ctx)
	cancel()
	if err != nil {
		conn.Close()
		return
	}
	data, err := json.Marshal(state)
	if err != nil {
		conn.Close()
		return
	}
	if err := s.write(data); err != nil {
		conn.Close()
		return
	}

	h.add(s)
	defer h.remove(s)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.reject(s, "invalid message")
			continue
		}

		errs := make(chan error, 1)
		h.loop.Post(func() { errs <- h.handle(msg) })
		select {
		case err := <-errs:
			if err != nil {
				h.reject(s, err.Error())
			}
		case <-h.done:
			return
		}
	}
}

func (h *Hub) reject(s *subscriber, reason string) {
	data, _ := json.Marshal(errorMessage{Type: "error", Error: reason})
	if err := s.write(data); err != nil {
		h.logger.Debug("cannot report rejected message", "error", err)
	}
}

func (h *Hub) serveState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	state, err := h.snapshot(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state) //nolint:errcheck // Client disconnects are not actionable
}

func (h *Hub) serveCommand(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	cmd := core.ParseCommand(name)
	if cmd == core.CommandNone {
		http.Error(w, "unknown command "+name, http.StatusBadRequest)
		return
	}

	h.loop.Post(func() {
		if err := h.apply(cmd); err != nil {
			h.logger.Warn("command failed", "command", cmd, "error", err)
		}
	})
	w.WriteHeader(http.StatusAccepted)
}
