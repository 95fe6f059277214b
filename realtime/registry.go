package realtime

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Conn is the part of a socket connection the registry drives
type Conn interface {
	ID() string
	Join(room string)
	Leave(room string)
}

// Connection is one live client connection. A session holds at most one.
type Connection struct {
	ConnectionID string    `json:"connectionId"`
	SessionID    string    `json:"sessionId"`
	RoomID       string    `json:"roomId"`
	JoinedAt     time.Time `json:"joinedAt"`
}

type registryEntry struct {
	Connection
	conn Conn
}

// Registry tracks the live connections of this process, in join order
type Registry struct {
	mu      sync.Mutex
	entries []registryEntry
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Join registers conn for sessionID in roomID. Any connection already held by
// the session leaves its room and is dropped first; the previous record is
// returned when that happens.
func (r *Registry) Join(conn Conn, sessionID, roomID string) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted *Connection
	for i, e := range r.entries {
		if e.SessionID != sessionID {
			continue
		}
		e.conn.Leave(e.RoomID)
		r.entries = append(r.entries[:i], r.entries[i+1:]...)
		prev := e.Connection
		evicted = &prev
		zap.S().Infow("evicted session connection",
			"sessionId", sessionID,
			"connectionId", prev.ConnectionID,
			"roomId", prev.RoomID)
		break
	}

	c := Connection{
		ConnectionID: conn.ID(),
		SessionID:    sessionID,
		RoomID:       roomID,
		JoinedAt:     time.Now(),
	}
	r.entries = append(r.entries, registryEntry{Connection: c, conn: conn})
	conn.Join(roomID)
	return evicted, evicted != nil
}

// Disconnect drops every record of the connection and leaves their rooms
func (r *Registry) Disconnect(connectionID string) []Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []Connection
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.ConnectionID != connectionID {
			kept = append(kept, e)
			continue
		}
		e.conn.Leave(e.RoomID)
		removed = append(removed, e.Connection)
	}
	r.entries = kept
	return removed
}

// Lookup returns the connection held by a session
func (r *Registry) Lookup(sessionID string) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.SessionID == sessionID {
			return e.Connection, true
		}
	}
	return Connection{}, false
}

// Connections returns a copy of every record in join order
func (r *Registry) Connections() []Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Connection, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Connection)
	}
	return out
}

// HasRoom reports whether any live connection is in roomID
func (r *Registry) HasRoom(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.RoomID == roomID {
			return true
		}
	}
	return false
}
