package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"burnout-radar/internal/storage"
	"burnout-radar/internal/training"
)

// ProgressHub streams training job transitions to WebSocket subscribers,
// one subscriber set per training id. Wire its Publish method into the
// training service's OnUpdate hook.
type ProgressHub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	subs     map[string]map[*websocket.Conn]bool
	closed   bool
}

// NewProgressHub returns an empty hub.
func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		subs:     make(map[string]map[*websocket.Conn]bool),
	}
}

func isTerminal(status string) bool {
	return status == training.StatusCompleted || status == training.StatusFailed
}

// Subscribe upgrades the request and streams transitions for one job.
// The current state is fetched under the hub lock and sent as the first
// frame; transitions publish after their store write, so a subscriber
// sees either the terminal frame directly or every later transition.
// Blocks until the job finishes or the client disconnects.
func (h *ProgressHub) Subscribe(w http.ResponseWriter, r *http.Request, fetch func() (storage.TrainingJob, error)) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}

	job, err := fetch()
	if err != nil {
		h.mu.Unlock()
		conn.Close()
		return
	}
	data, err := json.Marshal(job)
	if err != nil {
		h.mu.Unlock()
		conn.Close()
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.mu.Unlock()
		conn.Close()
		return
	}
	if isTerminal(job.Status) {
		h.mu.Unlock()
		closeConn(conn, job.Status)
		return
	}

	set, ok := h.subs[job.TrainingID]
	if !ok {
		set = make(map[*websocket.Conn]bool)
		h.subs[job.TrainingID] = set
	}
	set[conn] = true
	h.mu.Unlock()

	// Frames from the client are ignored; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	if set, ok := h.subs[job.TrainingID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.subs, job.TrainingID)
		}
	}
	h.mu.Unlock()
	conn.Close()
}

// Publish forwards one job transition to its subscribers. Terminal
// transitions close and drop the subscriber set.
func (h *ProgressHub) Publish(job storage.TrainingJob) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	set := h.subs[job.TrainingID]
	if len(set) == 0 {
		if isTerminal(job.Status) {
			delete(h.subs, job.TrainingID)
		}
		return
	}

	data, err := json.Marshal(job)
	if err != nil {
		log.Error().Err(err).Msg("progress frame encoding failed")
		return
	}
	for conn := range set {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(set, conn)
		}
	}

	if isTerminal(job.Status) {
		for conn := range set {
			closeConn(conn, job.Status)
		}
		delete(h.subs, job.TrainingID)
	}
}

// Close drops every subscriber; the hub accepts no new ones afterwards.
func (h *ProgressHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, set := range h.subs {
		for conn := range set {
			conn.Close()
		}
		delete(h.subs, id)
	}
}

func closeConn(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		log.Debug().Err(err).Msg("close frame not delivered")
	}
	conn.Close()
}
