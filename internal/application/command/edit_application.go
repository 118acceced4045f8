package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/scholarhub/scholarship-review/internal/domain/access"
	"github.com/scholarhub/scholarship-review/internal/domain/application"
	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EDIT APPLICATION COMMAND
// Full edit form: any known status plus replacement remarks.
// ══════════════════════════════════════════════════════════════════════════════

// EditApplicationCommand sets status and remarks in one write.
type EditApplicationCommand struct {
	Actor         access.Identity
	ApplicationID string
	Status        string
	Remarks       string
}

// Validate checks the role, the status value and the remarks length.
func (c EditApplicationCommand) Validate() (application.Status, error) {
	if err := c.Actor.RequireAdmin("EditApplication"); err != nil {
		return "", err
	}
	if strings.TrimSpace(c.ApplicationID) == "" {
		return "", shared.NewDomainError("application", "EditApplication", shared.ErrEmptyValue, "application_id is required")
	}
	if strings.TrimSpace(c.Status) == "" {
		return "", shared.NewDomainError("application", "EditApplication", shared.ErrEmptyValue, "status is required")
	}
	status, err := application.ParseStatus(c.Status)
	if err != nil {
		return "", err
	}
	if err := application.ValidateRemarks(c.Remarks); err != nil {
		return "", err
	}
	return status, nil
}

// EditApplicationResult contains the outcome of the edit.
type EditApplicationResult struct {
	TransitionResult
	Remarks string
}

// EditApplicationHandler handles EditApplicationCommand.
type EditApplicationHandler struct {
	store     application.Store
	lifecycle application.Lifecycle
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewEditApplicationHandler creates a new EditApplicationHandler.
func NewEditApplicationHandler(store application.Store, publisher shared.EventPublisher, logger *slog.Logger) *EditApplicationHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EditApplicationHandler{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the edit. Status and remarks are always written together,
// even when the status does not change.
func (h *EditApplicationHandler) Handle(ctx context.Context, cmd EditApplicationCommand) (*EditApplicationResult, error) {
	target, err := cmd.Validate()
	if err != nil {
		return nil, fmt.Errorf("edit_application: %w", err)
	}

	app, err := h.store.FindApplication(ctx, cmd.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("edit_application: find application: %w", storeError("FindApplication", err))
	}

	transition, err := h.lifecycle.Edit(app.Status, target)
	if err != nil {
		return nil, fmt.Errorf("edit_application: %w", err)
	}

	rows, err := h.store.UpdateStatusAndRemarks(ctx, app.ID, transition.To, cmd.Remarks)
	if err != nil {
		h.logger.Error("edit write failed",
			"application_id", app.ID,
			"status", transition.To.String(),
			"error", err,
		)
		return nil, fmt.Errorf("edit_application: update: %w", storeError("UpdateStatusAndRemarks", err))
	}
	if rows == 0 {
		return nil, fmt.Errorf("edit_application: %w", shared.ErrApplicationNotFound)
	}

	if !transition.NoOp {
		publish(h.publisher, h.logger, shared.NewApplicationStatusChangedEvent(
			app.ID, transition.From.String(), transition.To.String(), string(transition.Trigger), cmd.Actor.UserID,
		))
	}

	return &EditApplicationResult{
		TransitionResult: TransitionResult{
			ApplicationID: app.ID,
			From:          transition.From,
			To:            transition.To,
			Changed:       !transition.NoOp,
		},
		Remarks: cmd.Remarks,
	}, nil
}
