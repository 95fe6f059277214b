package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/forum-api/api"
	"github.com/linesmerrill/forum-api/api/scheduler"
	"github.com/linesmerrill/forum-api/config"
	"github.com/linesmerrill/forum-api/databases"
	"github.com/linesmerrill/forum-api/realtime"
	"github.com/linesmerrill/forum-api/services"
	"github.com/linesmerrill/forum-api/storage"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Socket    *realtime.SocketServer
	Scheduler *scheduler.Scheduler
	Metrics   *api.Metrics

	client        databases.ClientHelper
	dbHelper      databases.DatabaseHelper
	files         services.FileStore
	signer        UploadSigner
	notifications *services.Notifications
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.Metrics == nil {
		a.Metrics = api.NewMetrics()
	}
	stores := services.Stores{
		Users:         databases.NewUserDatabase(a.dbHelper),
		Forums:        databases.NewForumDatabase(a.dbHelper),
		Comments:      databases.NewCommentDatabase(a.dbHelper),
		Announcements: databases.NewAnnouncementDatabase(a.dbHelper),
		Categories:    databases.NewCategoryDatabase(a.dbHelper),
		Notifications: databases.NewNotificationDatabase(a.dbHelper),
		Reports:       databases.NewReportDatabase(a.dbHelper),
	}

	roster := realtime.NewAdminRoster()
	socket := realtime.NewSocketServer(realtime.NewRegistry()).
		WithRoster(roster, a.rosterProfile(stores.Users))

	notifications := services.NewNotifications(stores, a.files, socket)
	reports := services.NewReports(stores)
	moderation := services.NewModeration(stores, notifications, reports, a.files, socket)
	content := services.NewContent(stores, notifications, a.files, socket, roster)
	social := services.NewSocial(stores, notifications, socket)

	a.Socket = socket
	a.notifications = notifications

	m := api.NewMiddlewareAuth(a.Config.JWTSecret, content)
	socket.WithSubject(m.SocketSubject)

	u := User{Content: content, Social: social, Moderation: moderation}
	f := Forum{Content: content, Social: social, Moderation: moderation}
	c := Comment{Social: social, Moderation: moderation}
	n := Notification{Notifications: notifications}
	report := Report{Reports: reports, Moderation: moderation}
	ann := Announcement{Content: content, Moderation: moderation}
	cat := Category{Content: content, Moderation: moderation}
	admin := Admin{Moderation: moderation, Roster: roster, Metrics: a.Metrics}
	upload := Upload{Signer: a.signer}

	r := api.New()

	// long lived connections stay outside the request timeout
	r.PathPrefix("/socket.io/").Handler(m.Middleware(socket))
	r.Handle("/api/v1/admin/roster/ws", m.Middleware(api.RequireAdmin(roster))).Methods("GET")

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(a.Metrics.Middleware)
	if a.Config.RequestTimeout > 0 {
		apiCreate.Use(api.TimeoutMiddleware(a.Config.RequestTimeout))
	}
	apiCreate.Use(m.Middleware)

	apiCreate.HandleFunc("/users/me", u.MeHandler).Methods("GET")
	apiCreate.HandleFunc("/users/me", u.UpdateProfileHandler).Methods("PATCH")
	apiCreate.HandleFunc("/users/{userId}", u.DeleteUserHandler).Methods("DELETE")
	apiCreate.HandleFunc("/users/{userId}/follow", u.FollowHandler).Methods("POST")
	apiCreate.HandleFunc("/users/{userId}/follow", u.UnfollowHandler).Methods("DELETE")
	apiCreate.HandleFunc("/users/{userId}/subscribe", u.SubscribeHandler).Methods("POST")
	apiCreate.HandleFunc("/users/{userId}/subscribe", u.UnsubscribeHandler).Methods("DELETE")

	apiCreate.HandleFunc("/forums", f.CreateForumHandler).Methods("POST")
	apiCreate.HandleFunc("/forums/{forumId}", f.ForumByIDHandler).Methods("GET")
	apiCreate.HandleFunc("/forums/{forumId}", f.DeleteForumHandler).Methods("DELETE")
	apiCreate.HandleFunc("/forums/{forumId}/like", f.LikeForumHandler).Methods("POST")
	apiCreate.HandleFunc("/forums/{forumId}/like", f.UnlikeForumHandler).Methods("DELETE")
	apiCreate.HandleFunc("/forums/{forumId}/favorite", f.FavoriteForumHandler).Methods("POST")
	apiCreate.HandleFunc("/forums/{forumId}/favorite", f.UnfavoriteForumHandler).Methods("DELETE")
	apiCreate.HandleFunc("/forums/{forumId}/comments", f.CreateCommentHandler).Methods("POST")

	apiCreate.HandleFunc("/comments/{commentId}", c.DeleteCommentHandler).Methods("DELETE")
	apiCreate.HandleFunc("/comments/{commentId}/like", c.LikeCommentHandler).Methods("POST")
	apiCreate.HandleFunc("/comments/{commentId}/like", c.UnlikeCommentHandler).Methods("DELETE")

	apiCreate.HandleFunc("/notifications", n.NotificationsHandler).Methods("GET")
	apiCreate.HandleFunc("/notifications/unread-count", n.UnreadCountHandler).Methods("GET")
	apiCreate.HandleFunc("/notifications/read-all", n.MarkAllReadHandler).Methods("PUT")
	apiCreate.HandleFunc("/notifications/{notificationId}/read", n.MarkReadHandler).Methods("PUT")
	apiCreate.HandleFunc("/notifications/{notificationId}", n.DeleteNotificationHandler).Methods("DELETE")

	apiCreate.HandleFunc("/reports", report.CreateReportHandler).Methods("POST")
	apiCreate.HandleFunc("/reports/{reportId}", report.ReportByIDHandler).Methods("GET")

	apiCreate.HandleFunc("/uploads/signature", upload.UploadSignatureHandler).Methods("POST")

	admins := apiCreate.NewRoute().Subrouter()
	admins.Use(api.RequireAdmin)

	admins.HandleFunc("/announcements", ann.CreateAnnouncementHandler).Methods("POST")
	admins.HandleFunc("/announcements/{announcementId}", ann.DeleteAnnouncementHandler).Methods("DELETE")
	admins.HandleFunc("/categories", cat.CreateCategoryHandler).Methods("POST")
	admins.HandleFunc("/categories/{categoryId}", cat.DeleteCategoryHandler).Methods("DELETE")

	admins.HandleFunc("/admin/reports", report.ReportsHandler).Methods("GET")
	admins.HandleFunc("/admin/reports/bulk-delete", report.BulkDeleteReportsHandler).Methods("POST")
	admins.HandleFunc("/admin/reports/{reportId}/status", report.UpdateReportStatusHandler).Methods("PUT")
	admins.HandleFunc("/admin/reports/{reportId}/resolve", report.ResolveReportHandler).Methods("POST")
	admins.HandleFunc("/admin/forums/bulk-delete", admin.BulkDeleteForumsHandler).Methods("POST")
	admins.HandleFunc("/admin/roster", admin.RosterHandler).Methods("GET")
	admins.HandleFunc("/admin/metrics", admin.MetricsHandler).Methods("GET")

	return r
}

// rosterProfile resolves the dashboard entry of a user coming online
func (a *App) rosterProfile(users databases.UserDatabase) realtime.ProfileFunc {
	return func(ctx context.Context, userID string) (realtime.RosterUser, error) {
		user, err := users.FindOne(ctx, userID)
		if err != nil {
			return realtime.RosterUser{}, err
		}
		avatar := user.Avatar
		if avatar != "" && a.files != nil {
			if signed, err := a.files.SignedURL(avatar); err == nil {
				avatar = signed
			}
		}
		return realtime.RosterUser{
			UserID:      user.ID,
			DisplayName: user.DisplayName,
			Avatar:      avatar,
			StudentID:   user.StudentID,
		}, nil
	}
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}
	a.client = client

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	if err = client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("forum-api has connected to the database")

	if err := databases.NewNotificationDatabase(a.dbHelper).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	if err := databases.NewReportDatabase(a.dbHelper).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create report indexes: %w", err)
	}

	if a.Config.CloudinaryURL != "" {
		cld, err := storage.NewCloudinary(a.Config.CloudinaryURL)
		if err != nil {
			return err
		}
		a.files = cld
		a.signer = cld
	} else {
		zap.S().Warn("CLOUDINARY_URL not set, file urls are returned unsigned and uploads are disabled")
	}

	// initialize api router
	a.initializeRoutes()
	a.Socket.Serve()

	a.Scheduler = scheduler.NewScheduler(a.notifications, a.Config.NotificationDedupSchedule)
	return a.Scheduler.Start()
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// Close stops the background jobs and the socket server, then disconnects
// from the database
func (a *App) Close(ctx context.Context) {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Socket != nil {
		if err := a.Socket.Close(); err != nil {
			zap.S().Warnw("failed to close socket server", "error", err)
		}
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
}

// ServeHTTP lets the app be mounted directly on an http.Server
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.Router.ServeHTTP(w, r)
}
