package handlers_test

import (
	"encoding/json"
	"net/http"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/forum-api/api"
	"github.com/linesmerrill/forum-api/databases"
	mocksdb "github.com/linesmerrill/forum-api/databases/mocks"
	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/services"
)

type recordingPusher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPusher) EmitToUser(userID, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, userID+":"+event)
}

func (p *recordingPusher) EmitToRoom(room, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, room+":"+event)
}

// mockCollections registers a mocked collection per name on a mocked database
func mockCollections(names ...string) (*mocksdb.DatabaseHelper, map[string]*mocksdb.CollectionHelper) {
	db := &mocksdb.DatabaseHelper{}
	colls := make(map[string]*mocksdb.CollectionHelper, len(names))
	for _, name := range names {
		conn := &mocksdb.CollectionHelper{}
		db.On("Collection", name).Return(conn)
		colls[name] = conn
	}
	return db, colls
}

func storesFor(db databases.DatabaseHelper) services.Stores {
	return services.Stores{
		Users:         databases.NewUserDatabase(db),
		Forums:        databases.NewForumDatabase(db),
		Comments:      databases.NewCommentDatabase(db),
		Announcements: databases.NewAnnouncementDatabase(db),
		Categories:    databases.NewCategoryDatabase(db),
		Notifications: databases.NewNotificationDatabase(db),
		Reports:       databases.NewReportDatabase(db),
	}
}

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(api.WithActor(req.Context(), services.Actor{UserID: userID, Name: userID, Role: models.RoleUser}))
}

func asAdmin(req *http.Request, userID string) *http.Request {
	return req.WithContext(api.WithActor(req.Context(), services.Actor{UserID: userID, Name: userID, Role: models.RoleAdmin}))
}

func errorBody(message, err string) string {
	b, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{Message: message, Error: err}})
	return string(b)
}

func updateResult(modified int64) *mongo.UpdateResult {
	return &mongo.UpdateResult{MatchedCount: modified, ModifiedCount: modified}
}
