package sse

import (
	"context"
	"sync"

	"icpep-backend/internal/models"
)

// Hub fans notifications out to connected stream clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan models.Notification]struct{}
	buffer  int
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[chan models.Notification]struct{}),
		buffer:  10,
	}
}

// Subscribe registers a client until ctx is done, then closes its channel.
func (h *Hub) Subscribe(ctx context.Context) <-chan models.Notification {
	clientChan := make(chan models.Notification, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(clientChan)
		return clientChan
	}
	h.clients[clientChan] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(clientChan)
	}()

	return clientChan
}

// Broadcast never blocks; a client with a full buffer misses the notification.
func (h *Hub) Broadcast(n models.Notification) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for clientChan := range h.clients {
		select {
		case clientChan <- n:
			sent++
		default:
		}
	}
	return sent
}

func (h *Hub) remove(clientChan chan models.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[clientChan]; ok {
		delete(h.clients, clientChan)
		close(clientChan)
	}
}

// Close disconnects every client and refuses new subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for clientChan := range h.clients {
		delete(h.clients, clientChan)
		close(clientChan)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
