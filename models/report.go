package models

import "time"

// ReportStatus is the lifecycle state of a report
type ReportStatus string

// Report statuses. Pending is the only non-terminal state.
const (
	ReportPending  ReportStatus = "pending"
	ReportResolved ReportStatus = "resolved"
	ReportRejected ReportStatus = "rejected"
	ReportInvalid  ReportStatus = "invalid"
	ReportClosed   ReportStatus = "closed"
)

// Terminal reports whether no transition leaves s
func (s ReportStatus) Terminal() bool {
	switch s {
	case ReportResolved, ReportRejected, ReportInvalid, ReportClosed:
		return true
	}
	return false
}

// Report represents a complaint against a forum or a comment
type Report struct {
	ID              string       `json:"_id" bson:"_id"`
	ReporterUserID  string       `json:"reporterUserId" bson:"reporterUserId"`
	DefendantUserID string       `json:"defendantUserId" bson:"defendantUserId"`
	Reason          string       `json:"reason" bson:"reason"`
	Status          ReportStatus `json:"status" bson:"status"`
	ForumID         string       `json:"forumId" bson:"forumId"`
	CommentID       string       `json:"commentId,omitempty" bson:"commentId,omitempty"`
	ReplyCommentID  string       `json:"replyCommentId,omitempty" bson:"replyCommentId,omitempty"`
	ReportCode      string       `json:"reportCode" bson:"reportCode"`
	CreatedAt       time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// ReportPage is a paginated list of reports
type ReportPage struct {
	Reports    []Report       `json:"reports"`
	Pagination PaginationInfo `json:"pagination"`
}

// CreateReportRequest holds the structure for submitting a report
type CreateReportRequest struct {
	Reason         string `json:"reason" validate:"required,min=1,max=1000"`
	ForumID        string `json:"forumId" validate:"required"`
	CommentID      string `json:"commentId,omitempty" validate:"required_with=ReplyCommentID"`
	ReplyCommentID string `json:"replyCommentId,omitempty"`
}

// UpdateReportStatusRequest holds the structure for an admin status change
type UpdateReportStatusRequest struct {
	Status ReportStatus `json:"status" validate:"required,oneof=resolved rejected invalid closed"`
}

// ResolveReportRequest holds the structure for resolving a report
type ResolveReportRequest struct {
	RemoveContent bool `json:"removeContent"`
}

// BulkDeleteRequest holds a list of ids for admin bulk actions
type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}
