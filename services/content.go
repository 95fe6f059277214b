package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/realtime"
)

// Content publishes forums, comments, announcements and categories, and keeps
// user profiles
type Content struct {
	stores        Stores
	notifications *Notifications
	files         FileStore
	pusher        Pusher
	roster        RosterUpdater
}

// NewContent returns the content service. roster may be nil.
func NewContent(stores Stores, notifications *Notifications, files FileStore, pusher Pusher, roster RosterUpdater) *Content {
	return &Content{
		stores:        stores,
		notifications: notifications,
		files:         files,
		pusher:        pusher,
		roster:        roster,
	}
}

// EnsureUser returns the profile of the actor, creating it on first sight
func (s *Content) EnsureUser(ctx context.Context, actor Actor) (*models.User, error) {
	user, err := s.stores.Users.FindOne(ctx, actor.UserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to get user %s: %w", actor.UserID, err)
	}

	role := actor.Role
	if role == "" {
		role = models.RoleUser
	}
	now := time.Now()
	user = &models.User{
		ID:               actor.UserID,
		DisplayName:      actor.Name,
		Role:             role,
		FollowerUserIDs:  []string{},
		FollowingUserIDs: []string{},
		NotifyUserIDs:    []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.stores.Users.InsertOne(ctx, *user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return s.stores.Users.FindOne(ctx, actor.UserID)
		}
		return nil, fmt.Errorf("failed to create user %s: %w", actor.UserID, err)
	}
	zap.S().Infow("user created", "userId", user.ID)
	return user, nil
}

// UpdateProfile changes the actor's profile and mirrors it on the admin roster
func (s *Content) UpdateProfile(ctx context.Context, actor Actor, req models.UpdateProfileRequest) (*models.User, error) {
	fields := bson.M{}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return nil, invalid("displayName cannot be empty")
		}
		fields["displayName"] = name
	}
	if req.StudentID != nil {
		fields["studentId"] = strings.TrimSpace(*req.StudentID)
	}
	if req.Avatar != nil {
		fields["avatar"] = *req.Avatar
	}
	if len(fields) == 0 {
		return nil, invalid("nothing to update")
	}

	before, err := s.stores.Users.FindOne(ctx, actor.UserID)
	if err != nil {
		return nil, lookupErr(err, "user", actor.UserID)
	}
	user, err := s.stores.Users.UpdateProfile(ctx, actor.UserID, fields)
	if err != nil {
		return nil, lookupErr(err, "user", actor.UserID)
	}

	if req.Avatar != nil && before.Avatar != "" && before.Avatar != user.Avatar && s.files != nil {
		if err := s.files.DeleteFile(ctx, before.Avatar); err != nil {
			zap.S().Warnw("failed to delete previous avatar", "userId", user.ID, "ref", before.Avatar, "error", err)
		}
	}
	if s.roster != nil {
		s.roster.Update(user.ID, user.DisplayName, s.notifications.signedURL(user.Avatar), user.StudentID)
	}
	return user, nil
}

// CreateForum publishes a forum and notifies the author's subscribers.
// Anonymous forums are not announced.
func (s *Content) CreateForum(ctx context.Context, actor Actor, req models.CreateForumRequest) (*models.Forum, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, invalid("title and content are required")
	}
	categoryIDs := dedupe(req.CategoryIDs)
	if len(categoryIDs) == 0 {
		return nil, invalid("at least one category is required")
	}
	for _, id := range categoryIDs {
		if _, err := s.stores.Categories.FindOne(ctx, id); err != nil {
			return nil, lookupErr(err, "category", id)
		}
	}
	author, err := s.stores.Users.FindOne(ctx, actor.UserID)
	if err != nil {
		return nil, lookupErr(err, "user", actor.UserID)
	}

	now := time.Now()
	forum := models.Forum{
		ID:              primitive.NewObjectID().Hex(),
		AuthorUserID:    actor.UserID,
		Title:           strings.TrimSpace(req.Title),
		Content:         req.Content,
		CategoryIDs:     categoryIDs,
		Images:          nonNil(req.Images),
		IsAnonymous:     req.IsAnonymous,
		LikeUserIDs:     []string{},
		FavoriteUserIDs: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.stores.Forums.InsertOne(ctx, forum); err != nil {
		return nil, fmt.Errorf("failed to create forum: %w", err)
	}

	if !forum.IsAnonymous {
		s.notifications.FanOut(ctx, models.ActionNewForum, actor.UserID, author.NotifyUserIDs, models.TargetRefs{ForumID: forum.ID})
	}
	return &forum, nil
}

// GetForum returns a forum
func (s *Content) GetForum(ctx context.Context, forumID string) (*models.Forum, error) {
	forum, err := s.stores.Forums.FindOne(ctx, forumID)
	if err != nil {
		return nil, lookupErr(err, "forum", forumID)
	}
	return forum, nil
}

// CreateComment adds a comment to a forum, or a reply when ParentCommentID is
// set. The forum author, or the parent comment author, is notified.
func (s *Content) CreateComment(ctx context.Context, actor Actor, forumID string, req models.CreateCommentRequest) (*models.Comment, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, invalid("content is required")
	}
	forum, err := s.stores.Forums.FindOne(ctx, forumID)
	if err != nil {
		return nil, lookupErr(err, "forum", forumID)
	}

	ev := Event{
		Action:          models.ActionNewComment,
		ActorUserID:     actor.UserID,
		RecipientUserID: forum.AuthorUserID,
		Target:          models.TargetRefs{ForumID: forum.ID},
	}
	if req.ParentCommentID != "" {
		parent, err := s.stores.Comments.FindOne(ctx, req.ParentCommentID)
		if err != nil {
			return nil, lookupErr(err, "comment", req.ParentCommentID)
		}
		if parent.ForumID != forum.ID {
			return nil, invalid("comment %s does not belong to forum %s", parent.ID, forum.ID)
		}
		ev.Action = models.ActionNewReply
		ev.RecipientUserID = parent.AuthorUserID
		ev.Target = models.TargetRefs{ForumID: forum.ID, CommentID: parent.ID}
	}

	now := time.Now()
	comment := models.Comment{
		ID:              primitive.NewObjectID().Hex(),
		ForumID:         forum.ID,
		AuthorUserID:    actor.UserID,
		ParentCommentID: req.ParentCommentID,
		Content:         req.Content,
		Images:          nonNil(req.Images),
		IsAnonymous:     req.IsAnonymous,
		LikeUserIDs:     []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.stores.Comments.InsertOne(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if _, err := s.notifications.Reconcile(ctx, ev, Push); err != nil {
		zap.S().Errorw("failed to notify about comment", "commentId", comment.ID, "error", err)
	}
	s.pusher.EmitToRoom(realtime.ForumRoom(forum.ID), realtime.EventCommentCreated, comment)
	return &comment, nil
}

// CreateAnnouncement publishes an announcement and notifies every other user
func (s *Content) CreateAnnouncement(ctx context.Context, actor Actor, req models.CreateAnnouncementRequest) (*models.Announcement, error) {
	if !actor.IsAdmin() {
		return nil, denied("only admins can publish announcements")
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, invalid("title and content are required")
	}

	now := time.Now()
	announcement := models.Announcement{
		ID:           primitive.NewObjectID().Hex(),
		AuthorUserID: actor.UserID,
		Title:        strings.TrimSpace(req.Title),
		Content:      req.Content,
		Images:       nonNil(req.Images),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.stores.Announcements.InsertOne(ctx, announcement); err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}

	recipients, err := s.stores.Users.FindAllIDs(ctx, actor.UserID)
	if err != nil {
		zap.S().Errorw("failed to get announcement recipients", "announcementId", announcement.ID, "error", err)
		return &announcement, nil
	}
	delivered := s.notifications.FanOut(ctx, models.ActionNewAnnouncement, actor.UserID, recipients, models.TargetRefs{AnnouncementID: announcement.ID})
	zap.S().Infow("announcement published", "announcementId", announcement.ID, "notified", delivered)
	return &announcement, nil
}

// CreateCategory adds a forum category
func (s *Content) CreateCategory(ctx context.Context, actor Actor, req models.CreateCategoryRequest) (*models.Category, error) {
	if !actor.IsAdmin() {
		return nil, denied("only admins can create categories")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	category := models.Category{
		ID:        primitive.NewObjectID().Hex(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.stores.Categories.InsertOne(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
