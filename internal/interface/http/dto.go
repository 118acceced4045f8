package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/scholarhub/scholarship-review/internal/application/command"
	"github.com/scholarhub/scholarship-review/internal/application/query"
	"github.com/scholarhub/scholarship-review/internal/domain/application"
	"github.com/scholarhub/scholarship-review/internal/domain/scholarship"
	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

// QuickActionRequest is the body of POST /admin/applications/{id}/action.
type QuickActionRequest struct {
	Action string `json:"action" validate:"required,max=32"`
}

// EditApplicationRequest is the body of PUT /admin/applications/{id}.
type EditApplicationRequest struct {
	Status  string `json:"status" validate:"required,max=32"`
	Remarks string `json:"remarks" validate:"max=2000"`
}

// SubmitApplicationRequest is the body of POST /student/applications.
type SubmitApplicationRequest struct {
	ScholarshipID string   `json:"scholarship_id" validate:"required"`
	FamilyIncome  float64  `json:"family_income" validate:"gt=0"`
	AcademicScore float64  `json:"academic_score" validate:"gte=1,lte=5"`
	Documents     []string `json:"documents" validate:"max=10,dive,max=512"`
}

// decodeAndValidate reads a JSON body into dst and runs the struct tags.
// Every failure is a validation error so it maps to 400.
func (s *Server) decodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return shared.NewDomainError("http", "Decode", shared.ErrValidation, "request body is required")
		}
		return shared.WrapError("http", "Decode", shared.ErrValidation, "malformed JSON body", err)
	}

	if err := s.validate.Struct(dst); err != nil {
		return shared.WrapError("http", "Validate", shared.ErrValidation, describeValidation(err), err)
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		default:
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(parts, "; ")
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSES
// ══════════════════════════════════════════════════════════════════════════════

// AcknowledgeResponse is the exact body of the acknowledge endpoint.
type AcknowledgeResponse struct {
	Success      bool   `json:"success"`
	UpdatedCount int64  `json:"updated_count"`
	Error        string `json:"error,omitempty"`
}

// TransitionResponse describes a status write.
type TransitionResponse struct {
	ApplicationID string             `json:"application_id"`
	From          application.Status `json:"from"`
	Status        application.Status `json:"status"`
	Changed       bool               `json:"changed"`
	Remarks       *string            `json:"remarks,omitempty"`
}

func toTransitionResponse(r command.TransitionResult) TransitionResponse {
	return TransitionResponse{
		ApplicationID: r.ApplicationID,
		From:          r.From,
		Status:        r.To,
		Changed:       r.Changed,
	}
}

// ReviewRowResponse is one row of the admin listing.
type ReviewRowResponse struct {
	ID              string               `json:"id"`
	Status          application.Status   `json:"status"`
	Remarks         string               `json:"remarks"`
	AdminSeen       bool                 `json:"admin_seen"`
	DateApplied     time.Time            `json:"date_applied"`
	Documents       []string             `json:"documents"`
	StudentID       string               `json:"student_id"`
	StudentName     string               `json:"student_name"`
	FamilyIncome    float64              `json:"family_income"`
	AcademicScore   float64              `json:"academic_score"`
	ScholarshipID   string               `json:"scholarship_id"`
	ScholarshipName string               `json:"scholarship_name"`
	Actions         []application.Action `json:"actions"`
}

func toReviewRowResponses(rows []query.ReviewRowDTO) []ReviewRowResponse {
	out := make([]ReviewRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, ReviewRowResponse{
			ID:              row.Application.ID,
			Status:          row.Application.Status,
			Remarks:         row.Application.Remarks,
			AdminSeen:       row.Application.AdminSeen,
			DateApplied:     row.Application.DateApplied,
			Documents:       row.Application.Documents,
			StudentID:       row.Student.ID,
			StudentName:     row.Student.FullName(),
			FamilyIncome:    row.Student.FamilyIncome,
			AcademicScore:   row.Student.AcademicScore,
			ScholarshipID:   row.Scholarship.ID,
			ScholarshipName: row.Scholarship.Name,
			Actions:         row.Actions,
		})
	}
	return out
}

// SubmissionResponse is returned after a successful submission.
type SubmissionResponse struct {
	ID            string             `json:"id"`
	ScholarshipID string             `json:"scholarship_id"`
	Status        application.Status `json:"status"`
	DateApplied   time.Time          `json:"date_applied"`
	Documents     []string           `json:"documents"`
	Message       string             `json:"message"`
}

// ScholarshipResponse is one open scholarship.
type ScholarshipResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Sponsor   string    `json:"sponsor"`
	Amount    float64   `json:"amount"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

func toScholarshipResponses(items []*scholarship.Scholarship) []ScholarshipResponse {
	out := make([]ScholarshipResponse, 0, len(items))
	for _, s := range items {
		out = append(out, ScholarshipResponse{
			ID:        s.ID,
			Name:      s.Name,
			Sponsor:   s.Sponsor,
			Amount:    s.Amount,
			StartDate: s.StartDate,
			EndDate:   s.EndDate,
		})
	}
	return out
}
