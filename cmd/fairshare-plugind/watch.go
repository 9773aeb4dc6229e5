// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// watchEvent is pushed to every connected watcher whenever a model RPC
// changes priorities, so a scheduler doesn't have to poll /v1/query.
type watchEvent struct {
	Type       string           `json:"type"`
	JobID      string           `json:"job_id,omitempty"`
	Priorities map[string]int64 `json:"priorities,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// watchHub fans out watchEvents to every connected websocket client.
// Connections write to their own buffered channel so one slow reader can't
// block the broadcaster; a full channel drops the event for that client.
type watchHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan watchEvent
}

func newWatchHub() *watchHub {
	return &watchHub{clients: make(map[*websocket.Conn]chan watchEvent)}
}

func (h *watchHub) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	ch := make(chan watchEvent, 16)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// Drain incoming frames so a client's close/ping is observed; watch is
	// a push-only feed, so anything a client writes is discarded.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for ev := range ch {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

func (h *watchHub) broadcast(ev watchEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}
