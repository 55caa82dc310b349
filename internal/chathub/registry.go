package chathub

import (
	"errors"
	"log"
	"sync"

	"roomchat/backend/internal/models"
)

// ErrRegistryClosed is returned by Register after CloseAll.
var ErrRegistryClosed = errors.New("room registry is closed")

// room holds the sessions of one room.
//
// ops orders pipeline operations of the room (persist then broadcast), so
// delivery order equals persistence order. mu guards clients and is held
// while an event is handed to every client, so two broadcasts never
// interleave. Neither lock is shared between rooms.
type room struct {
	ops     sync.Mutex
	mu      sync.Mutex
	clients map[Client]struct{}
}

// RoomRegistry maps room ids to their connected sessions. It is created at
// start-up, owned by the ManagerService and emptied by CloseAll at shutdown.
type RoomRegistry struct {
	mu     sync.Mutex
	rooms  map[string]*room
	closed bool
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*room)}
}

func (r *RoomRegistry) lookup(roomID string) *room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[roomID]
}

// Register adds c to the room. Registering the same client twice is a no-op.
func (r *RoomRegistry) Register(roomID string, c Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}
	rm, ok := r.rooms[roomID]
	if !ok {
		rm = &room{clients: make(map[Client]struct{})}
		r.rooms[roomID] = rm
	}

	rm.mu.Lock()
	rm.clients[c] = struct{}{}
	rm.mu.Unlock()
	return nil
}

// Deregister removes c from the room and closes it. It reports whether c
// was still registered; a client is closed at most once.
func (r *RoomRegistry) Deregister(roomID string, c Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return false
	}

	rm.mu.Lock()
	_, present := rm.clients[c]
	if present {
		delete(rm.clients, c)
		c.Close()
	}
	empty := len(rm.clients) == 0
	rm.mu.Unlock()

	if empty {
		delete(r.rooms, roomID)
	}
	return present
}

// Broadcast hands ev to every client registered in the room at the time of
// the call and returns how many received it. A client whose buffer is full
// is evicted and closed instead of stalling the others.
func (r *RoomRegistry) Broadcast(roomID string, ev models.OutboundEvent) int {
	rm := r.lookup(roomID)
	if rm == nil {
		return 0
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	delivered := 0
	for c := range rm.clients {
		select {
		case c.GetSendChannel() <- ev:
			delivered++
		default:
			log.Printf("WARNING: Send buffer of user %s in room %s is full, dropping the session", c.GetUserID(), roomID)
			delete(rm.clients, c)
			c.Close()
		}
	}
	return delivered
}

// Serialize runs fn while holding the room's operation lock. A room with no
// sessions has nobody to order against, so fn just runs.
func (r *RoomRegistry) Serialize(roomID string, fn func()) {
	rm := r.lookup(roomID)
	if rm == nil {
		fn()
		return
	}
	rm.ops.Lock()
	defer rm.ops.Unlock()
	fn()
}

// Sessions returns the number of clients in the room.
func (r *RoomRegistry) Sessions(roomID string) int {
	rm := r.lookup(roomID)
	if rm == nil {
		return 0
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.clients)
}

// CloseAll closes every session and refuses further registrations.
func (r *RoomRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	closed := 0
	for id, rm := range r.rooms {
		rm.mu.Lock()
		for c := range rm.clients {
			delete(rm.clients, c)
			c.Close()
			closed++
		}
		rm.mu.Unlock()
		delete(r.rooms, id)
	}
	log.Printf("INFO: Room registry closed, %d sessions released", closed)
}
