package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/scholarhub/scholarship-review/internal/application/command"
	"github.com/scholarhub/scholarship-review/internal/application/query"
	"github.com/scholarhub/scholarship-review/internal/domain/access"
	"github.com/scholarhub/scholarship-review/internal/domain/shared"
	"github.com/scholarhub/scholarship-review/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeRaw(w, http.StatusOK, map[string]any{"healthy": true, "uptime": s.Uptime().String()})
		return
	}
	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeRaw(w, code, status)
}

// handleLive handles GET /health/live
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady handles GET /health/ready
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil && !s.deps.HealthChecker.Check(r.Context()).Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("NOT READY"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("READY"))
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

// handleUnseenCount handles GET /api/v1/admin/notifications/count
//
// The body is a bare integer. Any caller that is not an admin gets 403.
func (s *Server) handleUnseenCount(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	id := access.FromContext(r.Context())
	if !id.IsAdmin() {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Forbidden"))
		return
	}

	result, err := s.deps.GetUnseenCount.Handle(r.Context(), query.GetUnseenCountQuery{Actor: id})
	if err != nil {
		status, _ := errorStatus(err)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(http.StatusText(status)))
		return
	}

	if result.Degraded {
		w.Header().Set("X-Degraded", "true")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(strconv.Itoa(result.Count)))
}

// handleAcknowledge handles POST /api/v1/admin/notifications/ack
func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id := access.FromContext(r.Context())

	result, err := s.deps.AcknowledgeNotifications.Handle(r.Context(), command.AcknowledgeNotificationsCommand{Actor: id})
	if err != nil {
		status, _ := errorStatus(err)
		if status >= http.StatusInternalServerError {
			logger.FromContext(r.Context()).Error("acknowledge failed", logger.Err(err))
		}
		writeRaw(w, status, AcknowledgeResponse{Success: false, Error: errorMessage(status, err)})
		return
	}

	writeRaw(w, http.StatusOK, AcknowledgeResponse{Success: true, UpdatedCount: result.UpdatedCount})
}

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW
// ══════════════════════════════════════════════════════════════════════════════

// handleQuickAction handles POST /api/v1/admin/applications/{id}/action
func (s *Server) handleQuickAction(w http.ResponseWriter, r *http.Request) {
	id := access.FromContext(r.Context())
	if err := id.RequireAdmin("QuickAction"); err != nil {
		writeDomainError(w, r, err)
		return
	}

	var req QuickActionRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.QuickAction.Handle(r.Context(), command.QuickActionCommand{
		Actor:         id,
		ApplicationID: r.PathValue("id"),
		Action:        req.Action,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toTransitionResponse(*result), false)
}

// handleEditApplication handles PUT /api/v1/admin/applications/{id}
func (s *Server) handleEditApplication(w http.ResponseWriter, r *http.Request) {
	id := access.FromContext(r.Context())
	if err := id.RequireAdmin("EditApplication"); err != nil {
		writeDomainError(w, r, err)
		return
	}

	var req EditApplicationRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.EditApplication.Handle(r.Context(), command.EditApplicationCommand{
		Actor:         id,
		ApplicationID: r.PathValue("id"),
		Status:        req.Status,
		Remarks:       req.Remarks,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := toTransitionResponse(result.TransitionResult)
	resp.Remarks = &result.Remarks
	writeJSON(w, r, http.StatusOK, resp, false)
}

// handleListApplications handles GET /api/v1/admin/applications
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	q := query.ListApplicationsQuery{Actor: access.FromContext(r.Context())}

	var err error
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if q.Offset, err = queryInt(r, "offset"); err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.ListApplications.Handle(r.Context(), q)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toReviewRowResponses(result.Items), result.Degraded)
}

// handleDashboard handles GET /api/v1/admin/dashboard
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetDashboard.Handle(r.Context(), query.GetDashboardQuery{Actor: access.FromContext(r.Context())})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result, len(result.Degraded) > 0)
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG AND SUBMISSION
// ══════════════════════════════════════════════════════════════════════════════

// handleOpenScholarships handles GET /api/v1/scholarships/open
func (s *Server) handleOpenScholarships(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.ListOpenScholarships.Handle(r.Context(), query.ListOpenScholarshipsQuery{Actor: access.FromContext(r.Context())})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toScholarshipResponses(result.Items), result.Degraded)
}

// handleSubmitApplication handles POST /api/v1/student/applications
func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	id := access.FromContext(r.Context())
	if err := id.RequireStudent("SubmitApplication"); err != nil {
		writeDomainError(w, r, err)
		return
	}

	var req SubmitApplicationRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	documents := req.Documents
	if !s.config.AcceptDocuments {
		documents = nil
	}

	result, err := s.deps.SubmitApplication.Handle(r.Context(), command.SubmitApplicationCommand{
		Actor:         id,
		ScholarshipID: req.ScholarshipID,
		FamilyIncome:  req.FamilyIncome,
		AcademicScore: req.AcademicScore,
		Documents:     documents,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	app := result.Application
	writeJSON(w, r, http.StatusCreated, SubmissionResponse{
		ID:            app.ID,
		ScholarshipID: app.ScholarshipID,
		Status:        app.Status,
		DateApplied:   app.DateApplied,
		Documents:     app.Documents,
		Message:       "Application submitted successfully.",
	}, false)
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		if err == nil {
			err = errors.New("negative value")
		}
		return 0, shared.WrapError("http", "Query", shared.ErrInvalidInput, key+" must be a non-negative integer", err)
	}
	return n, nil
}
