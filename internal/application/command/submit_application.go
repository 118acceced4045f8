package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/scholarhub/scholarship-review/internal/domain/access"
	"github.com/scholarhub/scholarship-review/internal/domain/application"
	"github.com/scholarhub/scholarship-review/internal/domain/eligibility"
	"github.com/scholarhub/scholarship-review/internal/domain/scholarship"
	"github.com/scholarhub/scholarship-review/internal/domain/shared"
	"github.com/scholarhub/scholarship-review/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT APPLICATION COMMAND
// A student applies for an open scholarship, declaring current family income
// and academic score. The declared values overwrite the student's profile.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitApplicationCommand contains the submission data.
type SubmitApplicationCommand struct {
	Actor         access.Identity
	ScholarshipID string
	FamilyIncome  float64
	AcademicScore float64

	// Documents are opaque stored-document paths.
	Documents []string
}

// Validate checks the role and the declared profile.
func (c SubmitApplicationCommand) Validate() (eligibility.Profile, error) {
	if err := c.Actor.RequireStudent("SubmitApplication"); err != nil {
		return eligibility.Profile{}, err
	}
	if strings.TrimSpace(c.ScholarshipID) == "" {
		return eligibility.Profile{}, shared.NewDomainError("application", "SubmitApplication", shared.ErrEmptyValue, "Please select a scholarship.")
	}
	return student.NewProfile(c.FamilyIncome, c.AcademicScore)
}

// SubmitApplicationResult contains the stored application.
type SubmitApplicationResult struct {
	Application *application.Application

	// Qualifies tells whether the application will show up for admins.
	Qualifies bool
}

// SubmitApplicationHandler handles SubmitApplicationCommand.
type SubmitApplicationHandler struct {
	store        application.Store
	scholarships scholarship.Repository
	filter       eligibility.Filter
	publisher    shared.EventPublisher
	logger       *slog.Logger
	now          func() time.Time
}

// NewSubmitApplicationHandler creates a new SubmitApplicationHandler.
func NewSubmitApplicationHandler(
	store application.Store,
	scholarships scholarship.Repository,
	filter eligibility.Filter,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *SubmitApplicationHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitApplicationHandler{
		store:        store,
		scholarships: scholarships,
		filter:       filter,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

// Handle executes the submission.
func (h *SubmitApplicationHandler) Handle(ctx context.Context, cmd SubmitApplicationCommand) (*SubmitApplicationResult, error) {
	profile, err := cmd.Validate()
	if err != nil {
		return nil, fmt.Errorf("submit_application: %w", err)
	}

	sch, err := h.scholarships.GetByID(ctx, cmd.ScholarshipID)
	if err != nil {
		return nil, fmt.Errorf("submit_application: find scholarship: %w", storeError("GetScholarship", err))
	}
	if !sch.IsOpen() {
		return nil, fmt.Errorf("submit_application: %w", shared.ErrScholarshipClosed)
	}

	app, err := application.New(cmd.Actor.UserID, sch.ID, cmd.Documents, h.now())
	if err != nil {
		return nil, fmt.Errorf("submit_application: %w", err)
	}

	if err := h.store.Submit(ctx, application.Submission{Application: app, Profile: profile}); err != nil {
		if !shared.IsAlreadyExists(err) {
			h.logger.Error("submission write failed",
				"student_id", cmd.Actor.UserID,
				"scholarship_id", sch.ID,
				"error", err,
			)
		}
		return nil, fmt.Errorf("submit_application: %w", storeError("Submit", err))
	}

	qualifies := h.filter.Qualifies(profile)
	h.logger.Info("application submitted",
		"application_id", app.ID,
		"student_id", app.StudentID,
		"scholarship_id", app.ScholarshipID,
		"qualifies", qualifies,
	)

	publish(h.publisher, h.logger, shared.NewApplicationSubmittedEvent(app.ID, app.StudentID, app.ScholarshipID, qualifies))

	return &SubmitApplicationResult{Application: app, Qualifies: qualifies}, nil
}
