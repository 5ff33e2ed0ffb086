package realtime

import (
	"sync"
)

// Client is one websocket connection subscribed to a project room.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub maintains the connections subscribed to each project and fans events out to them.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Client]struct{}
}

// NewHub returns an empty hub
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Client]struct{})}
}

// Register adds a client to a project's room.
func (h *Hub) Register(projectID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[projectID]; !ok {
		h.rooms[projectID] = make(map[Client]struct{})
	}
	h.rooms[projectID][client] = struct{}{}
}

// Unregister removes a client; an empty room is dropped.
func (h *Hub) Unregister(projectID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.rooms[projectID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, projectID)
		}
	}
}

// Subscribers returns how many connections watch a project.
func (h *Hub) Subscribers(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}

// Broadcast sends a message to every client in a project's room. Clients whose
// write fails are left for their connection handler to clean up.
func (h *Hub) Broadcast(projectID string, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.rooms[projectID] {
		if c.Send(message) {
			delivered++
		}
	}
	return delivered
}

// Publish encodes a task event and broadcasts it to the task's project.
func (h *Hub) Publish(projectID string, evt TaskEvent) error {
	data, err := Encode(evt)
	if err != nil {
		return err
	}
	h.Broadcast(projectID, data)
	return nil
}
