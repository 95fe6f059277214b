package realtime

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Roster events sent to admin dashboards
const (
	EventRosterSnapshot   = "rosterSnapshot"
	EventUserConnected    = "userConnected"
	EventUserUpdated      = "userUpdated"
	EventUserDisconnected = "userDisconnected"
)

// RosterUser is an online user as shown on the admin dashboard
type RosterUser struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Avatar      string    `json:"avatar,omitempty"`
	StudentID   string    `json:"studentId,omitempty"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// RosterMessage is the envelope of every roster frame
type RosterMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

const (
	rosterWriteWait  = 10 * time.Second
	rosterPongWait   = 60 * time.Second
	rosterPingPeriod = (rosterPongWait * 9) / 10
	rosterSendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// rosterClient is one admin dashboard socket. Only its writePump writes to conn.
type rosterClient struct {
	conn *websocket.Conn
	send chan RosterMessage
}

// AdminRoster keeps the online users and streams changes to admin dashboard sockets
type AdminRoster struct {
	mutex  sync.Mutex
	users  map[string]RosterUser
	admins map[*rosterClient]struct{}
}

// NewAdminRoster returns an empty roster
func NewAdminRoster() *AdminRoster {
	return &AdminRoster{
		users:  make(map[string]RosterUser),
		admins: make(map[*rosterClient]struct{}),
	}
}

// Connect adds the user and broadcasts userConnected
func (a *AdminRoster) Connect(u RosterUser) {
	if u.ConnectedAt.IsZero() {
		u.ConnectedAt = time.Now()
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.users[u.UserID] = u
	a.broadcast(EventUserConnected, u)
}

// Update replaces the profile fields of an online user and broadcasts
// userUpdated. Offline users are ignored.
func (a *AdminRoster) Update(userID, displayName, avatar, studentID string) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	u, ok := a.users[userID]
	if !ok {
		return
	}
	u.DisplayName = displayName
	u.Avatar = avatar
	u.StudentID = studentID
	a.users[userID] = u
	a.broadcast(EventUserUpdated, u)
}

// Disconnect removes the user and broadcasts userDisconnected
func (a *AdminRoster) Disconnect(userID string) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if _, ok := a.users[userID]; !ok {
		return
	}
	delete(a.users, userID)
	a.broadcast(EventUserDisconnected, RosterUser{UserID: userID})
}

// Snapshot returns the online users, longest connected first
func (a *AdminRoster) Snapshot() []RosterUser {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.snapshot()
}

func (a *AdminRoster) snapshot() []RosterUser {
	out := make([]RosterUser, 0, len(a.users))
	for _, u := range a.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}

// broadcast must be called with the mutex held. A dashboard that cannot keep
// up is dropped.
func (a *AdminRoster) broadcast(event string, data interface{}) {
	msg := RosterMessage{Event: event, Data: data}
	for c := range a.admins {
		select {
		case c.send <- msg:
		default:
			zap.S().Warnw("roster dashboard too slow, dropping it", "event", event)
			a.drop(c)
		}
	}
}

// drop must be called with the mutex held
func (a *AdminRoster) drop(c *rosterClient) {
	if _, ok := a.admins[c]; !ok {
		return
	}
	delete(a.admins, c)
	close(c.send)
}

// ServeHTTP upgrades an admin dashboard connection, sends the current roster and
// keeps the socket registered until the client goes away
func (a *AdminRoster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("roster websocket upgrade error", "error", err)
		return
	}
	c := &rosterClient{conn: conn, send: make(chan RosterMessage, rosterSendBuffer)}

	a.mutex.Lock()
	c.send <- RosterMessage{Event: EventRosterSnapshot, Data: a.snapshot()}
	a.admins[c] = struct{}{}
	a.mutex.Unlock()

	go c.writePump()
	c.readPump()

	a.mutex.Lock()
	a.drop(c)
	a.mutex.Unlock()
}

// readPump discards client frames and returns once the socket is gone
func (c *rosterClient) readPump() {
	defer c.conn.Close()
	c.conn.SetReadDeadline(time.Now().Add(rosterPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(rosterPongWait))
	})
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

func (c *rosterClient) writePump() {
	ticker := time.NewTicker(rosterPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(rosterWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				zap.S().Warnw("failed to write roster event", "event", msg.Event, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(rosterWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
