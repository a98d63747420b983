package console

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/goliatone/go-neushop/pkg/neushop"
)

// Event is published after a panel, widget or session operation completes.
// Channel is derived from the workspace id so subscribers never see the
// session identifier itself.
type Event struct {
	Channel string         `json:"channel"`
	Kind    string         `json:"kind"`
	Code    string         `json:"code"`
	Status  neushop.Status `json:"status"`
}

// EventHook receives console events.
type EventHook interface {
	Publish(ctx context.Context, event Event) error
}

type noopEventHook struct{}

func (noopEventHook) Publish(context.Context, Event) error { return nil }

// ChannelFor derives the public event channel of a workspace.
func ChannelFor(workspaceID string) string {
	sum := sha256.Sum256([]byte("neushop-events:" + workspaceID))
	return hex.EncodeToString(sum[:8])
}

// BroadcastHook fans out events to in-process subscribers.
type BroadcastHook struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

type subscriber struct {
	channel string
	ch      chan Event
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{subs: make(map[int]subscriber)}
}

// Publish delivers the event to matching subscribers. Slow subscribers miss
// events rather than blocking the publisher.
func (h *BroadcastHook) Publish(_ context.Context, event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.channel != "" && sub.channel != event.Channel {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns events for channel (all channels when empty) and a
// cancel func.
func (h *BroadcastHook) Subscribe(channel string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan Event, 8)
	h.subs[id] = subscriber{channel: channel, ch: ch}
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Subscribers reports the number of live subscriptions.
func (h *BroadcastHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams events for the channel
// query parameter as JSON.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		http.Error(w, "channel is required", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe(channel)
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE streams events for the channel query parameter as Server-Sent
// Events.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		http.Error(w, "channel is required", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	events, cancel := h.Subscribe(channel)
	defer cancel()

	encoder := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			_, _ = w.Write([]byte("data: "))
			if err := encoder.Encode(event); err != nil {
				return
			}
			_, _ = w.Write([]byte("\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
