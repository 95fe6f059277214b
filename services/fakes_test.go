package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/forum-api/databases"
	"github.com/linesmerrill/forum-api/models"
)

// memStore is an in-memory document store answering the typed filters the
// services issue
type memStore struct {
	mu            sync.Mutex
	users         map[string]*models.User
	forums        map[string]*models.Forum
	comments      map[string]*models.Comment
	announcements map[string]*models.Announcement
	categories    map[string]*models.Category
	notifications []*models.Notification
	reports       []*models.Report
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]*models.User{},
		forums:        map[string]*models.Forum{},
		comments:      map[string]*models.Comment{},
		announcements: map[string]*models.Announcement{},
		categories:    map[string]*models.Category{},
	}
}

func (m *memStore) stores() Stores {
	return Stores{
		Users:         memUsers{m},
		Forums:        memForums{m},
		Comments:      memComments{m},
		Announcements: memAnnouncements{m},
		Categories:    memCategories{m},
		Notifications: memNotifications{m},
		Reports:       memReports{m},
	}
}

var duplicateKey = mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "duplicate key"}}}

func clone(s []string) []string {
	return append([]string{}, s...)
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func addTo(s *[]string, v string) bool {
	if contains(*s, v) {
		return false
	}
	*s = append(*s, v)
	return true
}

func pullFrom(s *[]string, v string) bool {
	out := (*s)[:0:0]
	for _, x := range *s {
		if x != v {
			out = append(out, x)
		}
	}
	changed := len(out) != len(*s)
	*s = out
	return changed
}

func paginate[T any](items []T, p databases.Pagination) []T {
	if p.Limit == 0 {
		return items
	}
	skip := p.Skip()
	if skip >= len(items) {
		return []T{}
	}
	end := skip + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

// users

type memUsers struct{ m *memStore }

func cloneUser(u *models.User) *models.User {
	c := *u
	c.FollowerUserIDs = clone(u.FollowerUserIDs)
	c.FollowingUserIDs = clone(u.FollowingUserIDs)
	c.NotifyUserIDs = clone(u.NotifyUserIDs)
	return &c
}

func userSet(u *models.User, field databases.SetField) *[]string {
	switch field {
	case databases.FollowerUserIDs:
		return &u.FollowerUserIDs
	case databases.FollowingUserIDs:
		return &u.FollowingUserIDs
	case databases.NotifyUserIDs:
		return &u.NotifyUserIDs
	}
	panic(fmt.Sprintf("unexpected user set %s", field))
}

func (s memUsers) FindOne(ctx context.Context, id string) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return cloneUser(u), nil
}

func (s memUsers) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := s.m.users[id]; ok {
			out = append(out, *cloneUser(u))
		}
	}
	return out, nil
}

func (s memUsers) FindAllIDs(ctx context.Context, excludeID string) ([]string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []string{}
	for id := range s.m.users {
		if id != excludeID {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s memUsers) InsertOne(ctx context.Context, user models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.users[user.ID]; ok {
		return duplicateKey
	}
	s.m.users[user.ID] = cloneUser(&user)
	return nil
}

func (s memUsers) UpdateProfile(ctx context.Context, id string, fields bson.M) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	for k, v := range fields {
		switch k {
		case "displayName":
			u.DisplayName = v.(string)
		case "studentId":
			u.StudentID = v.(string)
		case "avatar":
			u.Avatar = v.(string)
		}
	}
	u.UpdatedAt = time.Now()
	return cloneUser(u), nil
}

func (s memUsers) DeleteOne(ctx context.Context, id string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.users[id]; !ok {
		return 0, nil
	}
	delete(s.m.users, id)
	return 1, nil
}

func (s memUsers) AddToSet(ctx context.Context, id string, field databases.SetField, value string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return false, nil
	}
	return addTo(userSet(u, field), value), nil
}

func (s memUsers) PullFromSet(ctx context.Context, id string, field databases.SetField, value string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return false, nil
	}
	return pullFrom(userSet(u, field), value), nil
}

func (s memUsers) PullFromAll(ctx context.Context, field databases.SetField, value string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var n int64
	for _, u := range s.m.users {
		if pullFrom(userSet(u, field), value) {
			n++
		}
	}
	return n, nil
}

// forums

type memForums struct{ m *memStore }

func cloneForum(f *models.Forum) *models.Forum {
	c := *f
	c.CategoryIDs = clone(f.CategoryIDs)
	c.Images = clone(f.Images)
	c.LikeUserIDs = clone(f.LikeUserIDs)
	c.FavoriteUserIDs = clone(f.FavoriteUserIDs)
	return &c
}

func forumSet(f *models.Forum, field databases.SetField) *[]string {
	switch field {
	case databases.LikeUserIDs:
		return &f.LikeUserIDs
	case databases.FavoriteUserIDs:
		return &f.FavoriteUserIDs
	case databases.CategoryIDs:
		return &f.CategoryIDs
	}
	panic(fmt.Sprintf("unexpected forum set %s", field))
}

func matchForum(filter databases.ForumFilter, f *models.Forum) bool {
	switch x := filter.(type) {
	case databases.ForumsByIDs:
		return contains(x.IDs, f.ID)
	case databases.ForumsByAuthor:
		return f.AuthorUserID == x.AuthorUserID
	case databases.ForumsLikedBy:
		return contains(f.LikeUserIDs, x.UserID)
	case databases.ForumsByCategory:
		if x.Exclusive {
			return len(f.CategoryIDs) == 1 && f.CategoryIDs[0] == x.CategoryID
		}
		return contains(f.CategoryIDs, x.CategoryID) && len(f.CategoryIDs) > 1
	}
	panic(fmt.Sprintf("unexpected forum filter %T", filter))
}

func (s memForums) FindOne(ctx context.Context, id string) (*models.Forum, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	f, ok := s.m.forums[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return cloneForum(f), nil
}

func (s memForums) Find(ctx context.Context, filter databases.ForumFilter) ([]models.Forum, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []models.Forum{}
	for _, f := range s.m.forums {
		if matchForum(filter, f) {
			out = append(out, *cloneForum(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memForums) InsertOne(ctx context.Context, forum models.Forum) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.forums[forum.ID]; ok {
		return duplicateKey
	}
	s.m.forums[forum.ID] = cloneForum(&forum)
	return nil
}

func (s memForums) DeleteOne(ctx context.Context, id string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.forums[id]; !ok {
		return 0, nil
	}
	delete(s.m.forums, id)
	return 1, nil
}

func (s memForums) AddToSet(ctx context.Context, id string, field databases.SetField, value string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	f, ok := s.m.forums[id]
	if !ok {
		return false, nil
	}
	return addTo(forumSet(f, field), value), nil
}

func (s memForums) PullFromSet(ctx context.Context, id string, field databases.SetField, value string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	f, ok := s.m.forums[id]
	if !ok {
		return false, nil
	}
	return pullFrom(forumSet(f, field), value), nil
}

func (s memForums) PullFromAll(ctx context.Context, field databases.SetField, value string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var n int64
	for _, f := range s.m.forums {
		if pullFrom(forumSet(f, field), value) {
			n++
		}
	}
	return n, nil
}

// comments

type memComments struct{ m *memStore }

func cloneComment(c *models.Comment) *models.Comment {
	o := *c
	o.Images = clone(c.Images)
	o.LikeUserIDs = clone(c.LikeUserIDs)
	return &o
}

func matchComment(filter databases.CommentFilter, c *models.Comment) bool {
	switch x := filter.(type) {
	case databases.CommentsByForums:
		return contains(x.ForumIDs, c.ForumID)
	case databases.CommentsByAuthor:
		return c.AuthorUserID == x.AuthorUserID
	case databases.CommentsByAuthorInForum:
		return c.AuthorUserID == x.AuthorUserID && c.ForumID == x.ForumID &&
			(x.ParentCommentID == "" || c.ParentCommentID == x.ParentCommentID)
	case databases.CommentsByParents:
		return c.ParentCommentID != "" && contains(x.ParentIDs, c.ParentCommentID)
	case databases.CommentsLikedBy:
		return contains(c.LikeUserIDs, x.UserID)
	case databases.CommentsByIDs:
		return contains(x.IDs, c.ID)
	}
	panic(fmt.Sprintf("unexpected comment filter %T", filter))
}

func (s memComments) FindOne(ctx context.Context, id string) (*models.Comment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.comments[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return cloneComment(c), nil
}

func (s memComments) Find(ctx context.Context, filter databases.CommentFilter) ([]models.Comment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []models.Comment{}
	for _, c := range s.m.comments {
		if matchComment(filter, c) {
			out = append(out, *cloneComment(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memComments) InsertOne(ctx context.Context, comment models.Comment) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.comments[comment.ID]; ok {
		return duplicateKey
	}
	s.m.comments[comment.ID] = cloneComment(&comment)
	return nil
}

func (s memComments) DeleteMany(ctx context.Context, filter databases.CommentFilter) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var n int64
	for id, c := range s.m.comments {
		if matchComment(filter, c) {
			delete(s.m.comments, id)
			n++
		}
	}
	return n, nil
}

func (s memComments) AddToSet(ctx context.Context, id string, field databases.SetField, value string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.comments[id]
	if !ok || field != databases.LikeUserIDs {
		return false, nil
	}
	return addTo(&c.LikeUserIDs, value), nil
}

func (s memComments) PullFromSet(ctx context.Context, id string, field databases.SetField, value string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.comments[id]
	if !ok || field != databases.LikeUserIDs {
		return false, nil
	}
	return pullFrom(&c.LikeUserIDs, value), nil
}

// announcements

type memAnnouncements struct{ m *memStore }

func (s memAnnouncements) FindOne(ctx context.Context, id string) (*models.Announcement, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.announcements[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	c := *a
	return &c, nil
}

func (s memAnnouncements) FindByAuthor(ctx context.Context, authorUserID string) ([]models.Announcement, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []models.Announcement{}
	for _, a := range s.m.announcements {
		if a.AuthorUserID == authorUserID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s memAnnouncements) InsertOne(ctx context.Context, announcement models.Announcement) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.announcements[announcement.ID] = &announcement
	return nil
}

func (s memAnnouncements) DeleteOne(ctx context.Context, id string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.announcements[id]; !ok {
		return 0, nil
	}
	delete(s.m.announcements, id)
	return 1, nil
}

// categories

type memCategories struct{ m *memStore }

func (s memCategories) FindOne(ctx context.Context, id string) (*models.Category, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.categories[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	o := *c
	return &o, nil
}

func (s memCategories) InsertOne(ctx context.Context, category models.Category) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.categories[category.ID] = &category
	return nil
}

func (s memCategories) DeleteOne(ctx context.Context, id string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.categories[id]; !ok {
		return 0, nil
	}
	delete(s.m.categories, id)
	return 1, nil
}

// notifications

type memNotifications struct{ m *memStore }

func cloneNotification(n *models.Notification) *models.Notification {
	c := *n
	c.ActorUserIDs = clone(n.ActorUserIDs)
	c.ReadUserIDs = clone(n.ReadUserIDs)
	return &c
}

func matchNotification(filter databases.NotificationFilter, n *models.Notification) bool {
	switch x := filter.(type) {
	case databases.NotificationByID:
		return n.ID == x.ID && (x.RecipientUserID == "" || n.RecipientUserID == x.RecipientUserID)
	case databases.NotificationByTarget:
		return n.RecipientUserID == x.RecipientUserID && n.Action == x.Action && n.TargetRefs == x.Target
	case databases.NotificationsByRecipient:
		return n.RecipientUserID == x.RecipientUserID && (!x.UnreadOnly || !n.IsRead())
	case databases.NotificationsByForum:
		return n.ForumID == x.ForumID
	case databases.NotificationsByComments:
		return (n.CommentID != "" && contains(x.CommentIDs, n.CommentID)) ||
			(n.ReplyCommentID != "" && contains(x.CommentIDs, n.ReplyCommentID))
	case databases.NotificationsByAnnouncement:
		return n.AnnouncementID == x.AnnouncementID
	case databases.NotificationsByFollower:
		return n.Action == models.ActionNewFollower && contains(n.ActorUserIDs, x.FollowerUserID)
	case databases.NotificationsByIDs:
		return contains(x.IDs, n.ID)
	}
	panic(fmt.Sprintf("unexpected notification filter %T", filter))
}

func (s memNotifications) FindOne(ctx context.Context, filter databases.NotificationFilter) (*models.Notification, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, n := range s.m.notifications {
		if matchNotification(filter, n) {
			return cloneNotification(n), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s memNotifications) Find(ctx context.Context, filter databases.NotificationFilter, p databases.Pagination) ([]models.Notification, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []models.Notification{}
	for _, n := range s.m.notifications {
		if matchNotification(filter, n) {
			out = append(out, *cloneNotification(n))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return paginate(out, p), nil
}

func (s memNotifications) CountDocuments(ctx context.Context, filter databases.NotificationFilter) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var n int64
	for _, x := range s.m.notifications {
		if matchNotification(filter, x) {
			n++
		}
	}
	return n, nil
}

func (s memNotifications) InsertOne(ctx context.Context, notification models.Notification) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.notifications = append(s.m.notifications, cloneNotification(&notification))
	return nil
}

func (s memNotifications) update(id string, fn func(n *models.Notification)) (*models.Notification, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, n := range s.m.notifications {
		if n.ID == id {
			fn(n)
			n.UpdatedAt = time.Now()
			return cloneNotification(n), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s memNotifications) AddActors(ctx context.Context, id string, actorUserIDs ...string) (*models.Notification, error) {
	return s.update(id, func(n *models.Notification) {
		for _, a := range actorUserIDs {
			addTo(&n.ActorUserIDs, a)
		}
	})
}

func (s memNotifications) RemoveActor(ctx context.Context, id string, actorUserID string) (*models.Notification, error) {
	return s.update(id, func(n *models.Notification) {
		pullFrom(&n.ActorUserIDs, actorUserID)
		pullFrom(&n.ReadUserIDs, actorUserID)
	})
}

func (s memNotifications) MarkRead(ctx context.Context, filter databases.NotificationFilter) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var modified int64
	for _, n := range s.m.notifications {
		if matchNotification(filter, n) {
			if !n.IsRead() {
				modified++
			}
			n.ReadUserIDs = clone(n.ActorUserIDs)
		}
	}
	return modified, nil
}

func (s memNotifications) DeleteOne(ctx context.Context, filter databases.NotificationFilter) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for i, n := range s.m.notifications {
		if matchNotification(filter, n) {
			s.m.notifications = append(s.m.notifications[:i], s.m.notifications[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s memNotifications) DeleteMany(ctx context.Context, filter databases.NotificationFilter) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	kept := s.m.notifications[:0:0]
	var n int64
	for _, x := range s.m.notifications {
		if matchNotification(filter, x) {
			n++
			continue
		}
		kept = append(kept, x)
	}
	s.m.notifications = kept
	return n, nil
}

func (s memNotifications) FindDuplicates(ctx context.Context) ([]databases.NotificationDuplicate, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	type key struct {
		recipient string
		action    models.NotificationAction
		target    models.TargetRefs
	}
	groups := map[key]*databases.NotificationDuplicate{}
	var order []key
	for _, n := range s.m.notifications {
		k := key{n.RecipientUserID, n.Action, n.TargetRefs}
		g, ok := groups[k]
		if !ok {
			g = &databases.NotificationDuplicate{RecipientUserID: n.RecipientUserID}
			groups[k] = g
			order = append(order, k)
		}
		g.IDs = append(g.IDs, n.ID)
		for _, a := range n.ActorUserIDs {
			addTo(&g.ActorUserIDs, a)
		}
	}
	out := []databases.NotificationDuplicate{}
	for _, k := range order {
		if len(groups[k].IDs) > 1 {
			out = append(out, *groups[k])
		}
	}
	return out, nil
}

func (s memNotifications) EnsureIndexes(ctx context.Context) error {
	return nil
}

// allNotifications returns every notification record in insertion order
func (m *memStore) allNotifications() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Notification{}
	for _, n := range m.notifications {
		out = append(out, *cloneNotification(n))
	}
	return out
}

// reports

type memReports struct{ m *memStore }

func matchReport(filter databases.ReportFilter, r *models.Report) bool {
	switch x := filter.(type) {
	case databases.ReportByID:
		return r.ID == x.ID && (x.Status == "" || r.Status == x.Status)
	case databases.ReportsByIDs:
		return contains(x.IDs, r.ID)
	case databases.ReportsByStatus:
		return x.Status == "" || r.Status == x.Status
	case databases.ReportsPendingByForum:
		return r.ForumID == x.ForumID && r.Status == models.ReportPending
	case databases.ReportsPendingByComments:
		return r.Status == models.ReportPending &&
			((r.CommentID != "" && contains(x.CommentIDs, r.CommentID)) ||
				(r.ReplyCommentID != "" && contains(x.CommentIDs, r.ReplyCommentID)))
	case databases.ReportsPendingSiblings:
		return r.ID != x.ExcludeID && r.Status == models.ReportPending &&
			r.DefendantUserID == x.DefendantUserID && r.ForumID == x.ForumID &&
			r.CommentID == x.CommentID && r.ReplyCommentID == x.ReplyCommentID
	case databases.ReportsByCodePrefix:
		return strings.HasPrefix(r.ReportCode, x.Prefix)
	}
	panic(fmt.Sprintf("unexpected report filter %T", filter))
}

func (s memReports) FindOne(ctx context.Context, filter databases.ReportFilter) (*models.Report, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, r := range s.m.reports {
		if matchReport(filter, r) {
			c := *r
			return &c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s memReports) Find(ctx context.Context, filter databases.ReportFilter, p databases.Pagination) ([]models.Report, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []models.Report{}
	for _, r := range s.m.reports {
		if matchReport(filter, r) {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, p), nil
}

func (s memReports) CountDocuments(ctx context.Context, filter databases.ReportFilter) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var n int64
	for _, r := range s.m.reports {
		if matchReport(filter, r) {
			n++
		}
	}
	return n, nil
}

func (s memReports) LastCode(ctx context.Context, prefix string) (string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	last := ""
	for _, r := range s.m.reports {
		if strings.HasPrefix(r.ReportCode, prefix) && r.ReportCode > last {
			last = r.ReportCode
		}
	}
	return last, nil
}

func (s memReports) InsertOne(ctx context.Context, report models.Report) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, r := range s.m.reports {
		if r.ReportCode == report.ReportCode {
			return duplicateKey
		}
	}
	s.m.reports = append(s.m.reports, &report)
	return nil
}

func (s memReports) UpdateStatus(ctx context.Context, filter databases.ReportFilter, status models.ReportStatus) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var n int64
	for _, r := range s.m.reports {
		if matchReport(filter, r) && r.Status != status {
			r.Status = status
			r.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (s memReports) DeleteMany(ctx context.Context, filter databases.ReportFilter) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	kept := s.m.reports[:0:0]
	var n int64
	for _, r := range s.m.reports {
		if matchReport(filter, r) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	s.m.reports = kept
	return n, nil
}

func (s memReports) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (m *memStore) report(id string) models.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ID == id {
			return *r
		}
	}
	return models.Report{}
}

// push channel and file host

type pushed struct {
	UserID  string
	Room    string
	Event   string
	Payload interface{}
}

type fakePusher struct {
	mu     sync.Mutex
	events []pushed
}

func (p *fakePusher) EmitToUser(userID, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, pushed{UserID: userID, Event: event, Payload: payload})
}

func (p *fakePusher) EmitToRoom(room, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, pushed{Room: room, Event: event, Payload: payload})
}

func (p *fakePusher) find(event string) []pushed {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []pushed
	for _, e := range p.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (p *fakePusher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type fakeFiles struct {
	mu      sync.Mutex
	deleted []string
	failing map[string]bool
}

func (f *fakeFiles) SignedURL(ref string) (string, error) {
	return "https://files.test/signed/" + ref, nil
}

func (f *fakeFiles) DeleteFile(ctx context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[ref] {
		return fmt.Errorf("mocked-error deleting %s", ref)
	}
	f.deleted = append(f.deleted, ref)
	return nil
}

type fakeRoster struct {
	updates []rosterUpdate
}

type rosterUpdate struct {
	UserID, DisplayName, Avatar, StudentID string
}

func (r *fakeRoster) Update(userID, displayName, avatar, studentID string) {
	r.updates = append(r.updates, rosterUpdate{userID, displayName, avatar, studentID})
}

// fixture wires every service over one memStore

type fixture struct {
	store         *memStore
	pusher        *fakePusher
	files         *fakeFiles
	roster        *fakeRoster
	notifications *Notifications
	reports       *Reports
	moderation    *Moderation
	social        *Social
	content       *Content
}

func newFixture() *fixture {
	f := &fixture{
		store:  newMemStore(),
		pusher: &fakePusher{},
		files:  &fakeFiles{failing: map[string]bool{}},
		roster: &fakeRoster{},
	}
	stores := f.store.stores()
	f.notifications = NewNotifications(stores, f.files, f.pusher)
	f.reports = NewReports(stores)
	f.moderation = NewModeration(stores, f.notifications, f.reports, f.files, f.pusher)
	f.social = NewSocial(stores, f.notifications, f.pusher)
	f.content = NewContent(stores, f.notifications, f.files, f.pusher, f.roster)
	return f
}

func (f *fixture) user(id, name string) *models.User {
	u := &models.User{
		ID:               id,
		DisplayName:      name,
		Role:             models.RoleUser,
		Avatar:           "avatars/" + id,
		FollowerUserIDs:  []string{},
		FollowingUserIDs: []string{},
		NotifyUserIDs:    []string{},
	}
	f.store.users[id] = u
	return u
}

func (f *fixture) forum(id, author string, categories ...string) *models.Forum {
	fo := &models.Forum{
		ID:              id,
		AuthorUserID:    author,
		Title:           "forum " + id,
		CategoryIDs:     categories,
		Images:          []string{"forums/" + id},
		LikeUserIDs:     []string{},
		FavoriteUserIDs: []string{},
		CreatedAt:       time.Now(),
	}
	f.store.forums[id] = fo
	return fo
}

func (f *fixture) comment(id, forumID, author, parent string) *models.Comment {
	c := &models.Comment{
		ID:              id,
		ForumID:         forumID,
		AuthorUserID:    author,
		ParentCommentID: parent,
		Images:          []string{},
		LikeUserIDs:     []string{},
		CreatedAt:       time.Now(),
	}
	f.store.comments[id] = c
	return c
}

func (f *fixture) pendingReport(id, reporter, defendant, forumID, commentID string) *models.Report {
	r := &models.Report{
		ID:              id,
		ReporterUserID:  reporter,
		DefendantUserID: defendant,
		Reason:          "spam",
		Status:          models.ReportPending,
		ForumID:         forumID,
		CommentID:       commentID,
		ReportCode:      "RP-TEST-" + id,
		CreatedAt:       time.Now(),
	}
	f.store.reports = append(f.store.reports, r)
	return r
}

func actor(id string) Actor {
	return Actor{UserID: id, Role: models.RoleUser}
}

func admin(id string) Actor {
	return Actor{UserID: id, Role: models.RoleAdmin}
}
