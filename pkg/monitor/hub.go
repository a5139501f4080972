package monitor

import (
	"sync"

	"digital.vasic.testconsole/pkg/render"
)

// StreamMessage is pushed to live clients after every console
// change.
type StreamMessage struct {
	Type  string          `json:"type"`
	Event *WorkflowEvent  `json:"event,omitempty"`
	State render.Document `json:"state"`
}

// clientBuffer is the number of messages a slow client may lag
// behind before messages to it are dropped.
const clientBuffer = 32

// hub fans messages out to websocket and SSE clients.
type hub struct {
	mu      sync.RWMutex
	clients map[chan StreamMessage]struct{}
	closed  bool
}

func newHub() *hub {
	return &hub{clients: make(map[chan StreamMessage]struct{})}
}

// add registers a client. It returns nil once the hub is closed.
func (h *hub) add() chan StreamMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	ch := make(chan StreamMessage, clientBuffer)
	h.clients[ch] = struct{}{}
	return ch
}

func (h *hub) remove(ch chan StreamMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

func (h *hub) broadcast(msg StreamMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			// Client too slow, skip
		}
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}
