// Package relay fans live payloads out to the peers connected to a session
// room. Its registry lives in memory only and starts empty on every boot;
// nothing in it is used to authorize or persist anything.
package relay

import (
	"errors"
	"sync"
)

var ErrHubClosed = errors.New("relay: hub is closed")

// Peer is one live connection in a room.
type Peer interface {
	ID() string
	UserID() int
	// Send queues payload without blocking. False means the peer could not take it.
	Send(payload []byte) bool
	Close()
}

type Hub struct {
	mu     sync.RWMutex
	rooms  map[int]map[string]Peer
	closed bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[int]map[string]Peer)}
}

func (h *Hub) Join(roomID int, p Peer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}

	peers, ok := h.rooms[roomID]
	if !ok {
		peers = make(map[string]Peer)
		h.rooms[roomID] = peers
	}
	peers[p.ID()] = p
	return nil
}

// Leave drops the peer from the room. Unknown peers are ignored.
func (h *Hub) Leave(roomID int, p Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	peers, ok := h.rooms[roomID]
	if !ok {
		return
	}

	delete(peers, p.ID())
	if len(peers) == 0 {
		delete(h.rooms, roomID)
	}
}

// Broadcast sends payload to every peer in the room and returns how many
// accepted it.
func (h *Hub) Broadcast(roomID int, payload []byte) int {
	return h.BroadcastFrom(roomID, "", payload)
}

// BroadcastFrom is Broadcast skipping the peer with id senderID.
func (h *Hub) BroadcastFrom(roomID int, senderID string, payload []byte) int {
	delivered := 0
	for _, p := range h.snapshot(roomID) {
		if p.ID() == senderID {
			continue
		}
		if p.Send(payload) {
			delivered++
		}
	}
	return delivered
}

func (h *Hub) Count(roomID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Close disconnects every peer and refuses further joins.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	rooms := h.rooms
	h.rooms = make(map[int]map[string]Peer)
	h.mu.Unlock()

	for _, peers := range rooms {
		for _, p := range peers {
			p.Close()
		}
	}
}

func (h *Hub) snapshot(roomID int) []Peer {
	h.mu.RLock()
	defer h.mu.RUnlock()

	peers := h.rooms[roomID]
	out := make([]Peer, 0, len(peers))
	for _, p := range peers {
		out = append(out, p)
	}
	return out
}
