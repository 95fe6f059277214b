package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/linesmerrill/forum-api/api/handlers"
	"github.com/linesmerrill/forum-api/services"
)

func TestNotification_UnreadCountHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/notifications/unread-count", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = asUser(req, "alice")

	db, colls := mockCollections("notifications")
	colls["notifications"].On("CountDocuments", mock.Anything, mock.Anything).Return(int64(3), nil)

	n := handlers.Notification{Notifications: services.NewNotifications(storesFor(db), nil, &recordingPusher{})}

	rr := httptest.NewRecorder()
	http.HandlerFunc(n.UnreadCountHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"count":3}`, rr.Body.String())
}

func TestNotification_DeleteNotificationHandler(t *testing.T) {
	tests := []struct {
		name    string
		deleted int64
		status  int
		pushed  []string
	}{
		{"owned", 1, http.StatusOK, []string{"alice:notificationDeleted"}},
		{"not owned", 0, http.StatusNotFound, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest("DELETE", "/api/v1/notifications/n1", nil)
			if err != nil {
				t.Fatal(err)
			}
			req = mux.SetURLVars(req, map[string]string{"notificationId": "n1"})
			req = asUser(req, "alice")

			db, colls := mockCollections("notifications")
			colls["notifications"].On("DeleteOne", mock.Anything, mock.Anything).Return(tt.deleted, nil)

			pusher := &recordingPusher{}
			n := handlers.Notification{Notifications: services.NewNotifications(storesFor(db), nil, pusher)}

			rr := httptest.NewRecorder()
			http.HandlerFunc(n.DeleteNotificationHandler).ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.pushed, pusher.events)
		})
	}
}

func TestNotification_MarkAllReadHandler(t *testing.T) {
	req, err := http.NewRequest("PUT", "/api/v1/notifications/read-all", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = asUser(req, "alice")

	db, colls := mockCollections("notifications")
	colls["notifications"].On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).Return(updateResult(2), nil)

	pusher := &recordingPusher{}
	n := handlers.Notification{Notifications: services.NewNotifications(storesFor(db), nil, pusher)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(n.MarkAllReadHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"count":2}`, rr.Body.String())
	assert.Equal(t, []string{"alice:notificationRefresh"}, pusher.events)
}
