package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/linesmerrill/forum-api/api/handlers"
	"github.com/linesmerrill/forum-api/config"
)

func TestApp_New(t *testing.T) {
	a := handlers.App{Config: config.Config{JWTSecret: "secret", RequestTimeout: time.Second}}
	r := a.New()
	assert.NotNil(t, a.Socket)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/api/v1/users/me", http.StatusUnauthorized},
		{"POST", "/api/v1/forums", http.StatusUnauthorized},
		{"GET", "/api/v1/notifications", http.StatusUnauthorized},
		{"GET", "/api/v1/admin/reports", http.StatusUnauthorized},
		{"GET", "/api/v1/admin/roster/ws", http.StatusUnauthorized},
		{"GET", "/api/v1/admin/metrics", http.StatusUnauthorized},
		{"GET", "/api/v1/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, tt.path, nil)
			if err != nil {
				t.Fatal(err)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}

	summary := a.Metrics.Summary()
	assert.Equal(t, int64(5), summary.TotalRequests)
	assert.Equal(t, int64(5), summary.TotalErrors)
	paths := map[string]bool{}
	for _, route := range summary.Routes {
		paths[route.Method+" "+route.Path] = true
	}
	assert.True(t, paths["GET /api/v1/users/me"])
	assert.False(t, paths["GET /health"])
}
