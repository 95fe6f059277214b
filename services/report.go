package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/forum-api/databases"
	"github.com/linesmerrill/forum-api/models"
)

const (
	reportCodePrefix   = "RP-"
	reportCodeAttempts = 3
)

// Reports runs the report state machine. Pending is the only state a report
// leaves.
type Reports struct {
	stores Stores
	now    func() time.Time
}

// NewReports returns the report lifecycle service
func NewReports(stores Stores) *Reports {
	return &Reports{stores: stores, now: time.Now}
}

// Create files a report against a forum, a comment or a reply. Reporting your
// own content is rejected before anything is written.
func (s *Reports) Create(ctx context.Context, reporter Actor, req models.CreateReportRequest) (*models.Report, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		return nil, invalid("reason is required")
	}
	if req.ForumID == "" {
		return nil, invalid("forumId is required")
	}
	if req.ReplyCommentID != "" && req.CommentID == "" {
		return nil, invalid("commentId is required with replyCommentId")
	}

	defendant, err := s.defendant(ctx, req)
	if err != nil {
		return nil, err
	}
	if defendant == reporter.UserID {
		return nil, invalid("you cannot report your own content")
	}

	now := s.now()
	report := models.Report{
		ID:              primitive.NewObjectID().Hex(),
		ReporterUserID:  reporter.UserID,
		DefendantUserID: defendant,
		Reason:          req.Reason,
		Status:          models.ReportPending,
		ForumID:         req.ForumID,
		CommentID:       req.CommentID,
		ReplyCommentID:  req.ReplyCommentID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	prefix := reportCodePrefix + now.Format("20060102")
	for attempt := 0; attempt < reportCodeAttempts; attempt++ {
		last, err := s.stores.Reports.LastCode(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to read last report code: %w", err)
		}
		seq, err := reportSequence(last, prefix)
		if err != nil {
			return nil, err
		}
		report.ReportCode = fmt.Sprintf("%s%05d", prefix, seq+1)
		err = s.stores.Reports.InsertOne(ctx, report)
		if err == nil {
			zap.S().Infow("report created",
				"reportId", report.ID,
				"reportCode", report.ReportCode,
				"forumId", report.ForumID)
			return &report, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to create report: %w", err)
		}
		zap.S().Warnw("report code taken, retrying", "reportCode", report.ReportCode, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("failed to allocate a report code after %d attempts", reportCodeAttempts)
}

// reportSequence parses the daily sequence number out of a report code. An
// empty code means no report was filed under the prefix yet.
func reportSequence(code, prefix string) (int64, error) {
	if code == "" {
		return 0, nil
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(code, prefix), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed report code %q: %w", code, err)
	}
	return seq, nil
}

// defendant returns the author of the most specific reported content
func (s *Reports) defendant(ctx context.Context, req models.CreateReportRequest) (string, error) {
	forum, err := s.stores.Forums.FindOne(ctx, req.ForumID)
	if err != nil {
		return "", lookupErr(err, "forum", req.ForumID)
	}
	if req.CommentID == "" {
		return forum.AuthorUserID, nil
	}

	comment, err := s.stores.Comments.FindOne(ctx, req.CommentID)
	if err != nil {
		return "", lookupErr(err, "comment", req.CommentID)
	}
	if comment.ForumID != forum.ID {
		return "", invalid("comment %s does not belong to forum %s", comment.ID, forum.ID)
	}
	if req.ReplyCommentID == "" {
		return comment.AuthorUserID, nil
	}

	reply, err := s.stores.Comments.FindOne(ctx, req.ReplyCommentID)
	if err != nil {
		return "", lookupErr(err, "reply", req.ReplyCommentID)
	}
	if reply.ParentCommentID != comment.ID {
		return "", invalid("reply %s does not answer comment %s", reply.ID, comment.ID)
	}
	return reply.AuthorUserID, nil
}

// UpdateStatus moves a pending report to a terminal status
func (s *Reports) UpdateStatus(ctx context.Context, admin Actor, id string, status models.ReportStatus) (*models.Report, error) {
	if !admin.IsAdmin() {
		return nil, denied("only admins can change report status")
	}
	if !status.Terminal() {
		return nil, invalid("status %q is not a terminal status", status)
	}
	report, err := s.stores.Reports.FindOne(ctx, databases.ReportByID{ID: id})
	if err != nil {
		return nil, lookupErr(err, "report", id)
	}
	if err := s.transition(ctx, report, status); err != nil {
		return nil, err
	}
	return report, nil
}

// transition applies status to a report that must still be pending and
// updates report in place
func (s *Reports) transition(ctx context.Context, report *models.Report, status models.ReportStatus) error {
	if report.Status != models.ReportPending {
		return invalid("report %s is already %s", report.ID, report.Status)
	}
	changed, err := s.stores.Reports.UpdateStatus(ctx, databases.ReportByID{ID: report.ID, Status: models.ReportPending}, status)
	if err != nil {
		return fmt.Errorf("failed to update report %s: %w", report.ID, err)
	}
	if changed == 0 {
		return invalid("report %s is no longer pending", report.ID)
	}
	report.Status = status
	report.UpdatedAt = s.now()
	return nil
}

// Invalidate moves every pending report on the forums or the comments to Invalid
func (s *Reports) Invalidate(ctx context.Context, forumIDs, commentIDs []string) (int64, error) {
	var total int64
	for _, forumID := range dedupe(forumIDs) {
		n, err := s.stores.Reports.UpdateStatus(ctx, databases.ReportsPendingByForum{ForumID: forumID}, models.ReportInvalid)
		if err != nil {
			return total, fmt.Errorf("failed to invalidate reports on forum %s: %w", forumID, err)
		}
		total += n
	}
	if commentIDs = dedupe(commentIDs); len(commentIDs) > 0 {
		n, err := s.stores.Reports.UpdateStatus(ctx, databases.ReportsPendingByComments{CommentIDs: commentIDs}, models.ReportInvalid)
		if err != nil {
			return total, fmt.Errorf("failed to invalidate reports on comments: %w", err)
		}
		total += n
	}
	return total, nil
}

// List returns a page of reports in status, or of every report when status is empty
func (s *Reports) List(ctx context.Context, admin Actor, status models.ReportStatus, page databases.Pagination) (models.ReportPage, error) {
	if !admin.IsAdmin() {
		return models.ReportPage{}, denied("only admins can list reports")
	}
	filter := databases.ReportsByStatus{Status: status}
	reports, err := s.stores.Reports.Find(ctx, filter, page)
	if err != nil {
		return models.ReportPage{}, fmt.Errorf("failed to list reports: %w", err)
	}
	total, err := s.stores.Reports.CountDocuments(ctx, filter)
	if err != nil {
		return models.ReportPage{}, fmt.Errorf("failed to count reports: %w", err)
	}
	return models.ReportPage{
		Reports:    reports,
		Pagination: models.NewPaginationInfo(page.Page, page.Limit, total),
	}, nil
}

// Get returns a report to an admin or to the user who filed it
func (s *Reports) Get(ctx context.Context, viewer Actor, id string) (*models.Report, error) {
	report, err := s.stores.Reports.FindOne(ctx, databases.ReportByID{ID: id})
	if err != nil {
		return nil, lookupErr(err, "report", id)
	}
	if !viewer.IsAdmin() && viewer.UserID != report.ReporterUserID {
		return nil, denied("report %s belongs to another user", id)
	}
	return report, nil
}
