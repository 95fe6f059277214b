package realtime

import (
	"context"
	"net/http"
	"net/url"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const namespace = "/"

// Push channel events
const (
	EventNotificationCreated = "notificationCreated"
	EventNotificationUpdated = "notificationUpdated"
	EventNotificationDeleted = "notificationDeleted"
	EventNotificationRefresh = "notificationRefresh"
	EventForumUpdated        = "forumUpdated"
	EventForumDeleted        = "forumDeleted"
	EventCommentCreated      = "commentCreated"
	EventCommentUpdated      = "commentUpdated"
	EventCommentDeleted      = "commentDeleted"
)

// ForumRoom is the room of the clients viewing a forum
func ForumRoom(forumID string) string {
	return "forum:" + forumID
}

// ProfileFunc resolves the roster entry of a user who just came online
type ProfileFunc func(ctx context.Context, userID string) (RosterUser, error)

// SubjectFunc returns the user a connection was opened for, from the headers
// and query of its handshake
type SubjectFunc func(header http.Header, query url.Values) (string, error)

// SocketServer is the socket.io push channel. Each user's connections share the
// room named after the user id.
type SocketServer struct {
	server   *socketio.Server
	registry *Registry
	roster   *AdminRoster
	profile  ProfileFunc
	subject  SubjectFunc
}

// NewSocketServer builds the socket.io server and registers its event handlers
func NewSocketServer(registry *Registry) *SocketServer {
	s := &SocketServer{
		server: socketio.NewServer(&engineio.Options{
			Transports: []transport.Transport{
				polling.Default,
				websocket.Default,
			},
		}),
		registry: registry,
	}

	s.server.OnConnect(namespace, func(c socketio.Conn) error {
		subject := ""
		if s.subject != nil {
			u := c.URL()
			id, err := s.subject(c.RemoteHeader(), u.Query())
			if err != nil {
				zap.S().Warnw("socket rejected", "connectionId", c.ID(), "error", err)
				return err
			}
			subject = id
		}
		c.SetContext(subject)
		zap.S().Debugw("socket connected", "connectionId", c.ID(), "userId", subject)
		return nil
	})

	s.server.OnError(namespace, func(c socketio.Conn, e error) {
		zap.S().Warnw("socket error", "error", e)
	})

	s.server.OnDisconnect(namespace, func(c socketio.Conn, reason string) {
		s.disconnect(c.ID())
		zap.S().Debugw("socket disconnected", "connectionId", c.ID(), "reason", reason)
	})

	s.server.OnEvent(namespace, "join", func(c socketio.Conn, msg map[string]interface{}) {
		subject, _ := c.Context().(string)
		s.join(c, subject, msg)
	})

	s.server.OnEvent(namespace, "joinForum", func(c socketio.Conn, msg map[string]interface{}) {
		if forumID, ok := msg["forumId"].(string); ok && forumID != "" {
			c.Join(ForumRoom(forumID))
		}
	})

	s.server.OnEvent(namespace, "leaveForum", func(c socketio.Conn, msg map[string]interface{}) {
		if forumID, ok := msg["forumId"].(string); ok && forumID != "" {
			c.Leave(ForumRoom(forumID))
		}
	})

	return s
}

// WithSubject binds every connection to the user its handshake authenticated.
// A join for any other user is refused.
func (s *SocketServer) WithSubject(fn SubjectFunc) *SocketServer {
	s.subject = fn
	return s
}

// WithRoster reports users coming online and going offline to the admin roster
func (s *SocketServer) WithRoster(roster *AdminRoster, profile ProfileFunc) *SocketServer {
	s.roster = roster
	s.profile = profile
	return s
}

// join puts the connection in the room of its user. subject is the
// authenticated user of the connection, empty when none was bound.
func (s *SocketServer) join(c Conn, subject string, msg map[string]interface{}) {
	userID, _ := msg["userId"].(string)
	if userID == "" {
		userID = subject
	}
	if userID == "" {
		zap.S().Warnw("join without userId", "connectionId", c.ID())
		return
	}
	if s.subject != nil && userID != subject {
		zap.S().Warnw("join for another user refused", "connectionId", c.ID(), "userId", userID, "subject", subject)
		return
	}
	sessionID, _ := msg["sessionId"].(string)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	if existing, ok := s.registry.Lookup(sessionID); ok && existing.RoomID != userID {
		zap.S().Warnw("join with a session of another user refused", "connectionId", c.ID(), "sessionId", sessionID)
		return
	}

	wasOnline := s.registry.HasRoom(userID)
	s.registry.Join(c, sessionID, userID)
	zap.S().Debugw("socket joined", "connectionId", c.ID(), "sessionId", sessionID, "userId", userID)

	if wasOnline || s.roster == nil || s.profile == nil {
		return
	}
	u, err := s.profile(context.Background(), userID)
	if err != nil {
		zap.S().Warnw("failed to resolve roster profile", "userId", userID, "error", err)
		u = RosterUser{UserID: userID}
	}
	s.roster.Connect(u)
}

func (s *SocketServer) disconnect(connectionID string) {
	for _, c := range s.registry.Disconnect(connectionID) {
		if s.roster != nil && !s.registry.HasRoom(c.RoomID) {
			s.roster.Disconnect(c.RoomID)
		}
	}
}

// EmitToUser sends an event to every live connection of the user. It is a
// no-op when the user is offline.
func (s *SocketServer) EmitToUser(userID, event string, payload interface{}) {
	if !s.registry.HasRoom(userID) {
		zap.S().Debugw("skip push to offline user", "userId", userID, "event", event)
		return
	}
	s.server.BroadcastToRoom(namespace, userID, event, payload)
}

// EmitToRoom sends an event to every connection in room
func (s *SocketServer) EmitToRoom(room, event string, payload interface{}) {
	s.server.BroadcastToRoom(namespace, room, event, payload)
}

// Serve runs the socket.io event loop until Close
func (s *SocketServer) Serve() {
	go func() {
		if err := s.server.Serve(); err != nil {
			zap.S().Errorw("socket.io server error", "error", err)
		}
	}()
}

// Close stops the socket.io server
func (s *SocketServer) Close() error {
	return s.server.Close()
}

// ServeHTTP hands socket.io requests to the server
func (s *SocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.ServeHTTP(w, r)
}
