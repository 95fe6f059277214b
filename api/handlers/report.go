package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/forum-api/api"
	"github.com/linesmerrill/forum-api/config"
	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/services"
)

// Report exported for testing purposes
type Report struct {
	Reports    *services.Reports
	Moderation *services.Moderation
}

// CreateReportHandler files a report against a forum, a comment or a reply
func (re Report) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CreateReportRequest
	if !decodeBody(w, r, &req) {
		return
	}

	report, err := re.Reports.Create(r.Context(), actor, req)
	if err != nil {
		serviceError("failed to create report", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// ReportByIDHandler returns a report to its reporter or to an admin
func (re Report) ReportByIDHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := re.Reports.Get(ctx, actor, mux.Vars(r)["reportId"])
	if err != nil {
		serviceError("failed to get report", w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ReportsHandler lists reports, optionally filtered by ?status=
func (re Report) ReportsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")
	if err := validate.Var(status, "omitempty,oneof=pending resolved rejected invalid closed"); err != nil {
		config.ErrorStatus("invalid status", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	page, err := re.Reports.List(ctx, actor, models.ReportStatus(status), paginationFrom(r))
	if err != nil {
		serviceError("failed to get reports", w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// UpdateReportStatusHandler moves a pending report to a terminal status
func (re Report) UpdateReportStatusHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.UpdateReportStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	report, err := re.Reports.UpdateStatus(r.Context(), actor, mux.Vars(r)["reportId"], req.Status)
	if err != nil {
		serviceError("failed to update report status", w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ResolveReportHandler resolves a report, closing its siblings and optionally
// removing the reported content
func (re Report) ResolveReportHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.ResolveReportRequest
	if !decodeBody(w, r, &req) {
		return
	}

	report, err := re.Moderation.ResolveReport(r.Context(), actor, mux.Vars(r)["reportId"], req.RemoveContent)
	if err != nil {
		serviceError("failed to resolve report", w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// BulkDeleteReportsHandler removes reports by id
func (re Report) BulkDeleteReportsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.BulkDeleteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	deleted, err := re.Moderation.BulkDeleteReports(r.Context(), actor, req.IDs)
	if err != nil {
		serviceError("failed to delete reports", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CountResponse{Count: deleted})
}
