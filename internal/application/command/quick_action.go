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
// QUICK ACTION COMMAND
// Single-click approve/reject from the review list.
// ══════════════════════════════════════════════════════════════════════════════

// QuickActionCommand applies approve or reject to one application.
type QuickActionCommand struct {
	Actor         access.Identity
	ApplicationID string
	Action        string
}

// Validate checks the role first, then the input.
func (c QuickActionCommand) Validate() (application.Action, error) {
	if err := c.Actor.RequireAdmin("QuickAction"); err != nil {
		return "", err
	}
	if strings.TrimSpace(c.ApplicationID) == "" {
		return "", shared.NewDomainError("application", "QuickAction", shared.ErrEmptyValue, "application_id is required")
	}
	return application.ParseAction(c.Action)
}

// TransitionResult describes the outcome of a status write.
type TransitionResult struct {
	ApplicationID string
	From          application.Status
	To            application.Status

	// Changed is false when the application already had the target status.
	Changed bool
}

// QuickActionHandler handles QuickActionCommand.
type QuickActionHandler struct {
	store     application.Store
	lifecycle application.Lifecycle
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewQuickActionHandler creates a new QuickActionHandler.
func NewQuickActionHandler(store application.Store, publisher shared.EventPublisher, logger *slog.Logger) *QuickActionHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QuickActionHandler{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the quick action.
func (h *QuickActionHandler) Handle(ctx context.Context, cmd QuickActionCommand) (*TransitionResult, error) {
	action, err := cmd.Validate()
	if err != nil {
		return nil, fmt.Errorf("quick_action: %w", err)
	}

	app, err := h.store.FindApplication(ctx, cmd.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("quick_action: find application: %w", storeError("FindApplication", err))
	}

	transition, err := h.lifecycle.Quick(app.Status, action)
	if err != nil {
		return nil, fmt.Errorf("quick_action: %s from %q: %w", action, app.Status, err)
	}

	result := &TransitionResult{
		ApplicationID: app.ID,
		From:          transition.From,
		To:            transition.To,
	}
	if transition.NoOp {
		return result, nil
	}

	rows, err := h.store.UpdateStatus(ctx, app.ID, transition.To)
	if err != nil {
		h.logger.Error("quick action write failed",
			"application_id", app.ID,
			"action", string(action),
			"error", err,
		)
		return nil, fmt.Errorf("quick_action: update status: %w", storeError("UpdateStatus", err))
	}
	if rows == 0 {
		return nil, fmt.Errorf("quick_action: %w", shared.ErrApplicationNotFound)
	}
	result.Changed = true

	publish(h.publisher, h.logger, shared.NewApplicationStatusChangedEvent(
		app.ID, transition.From.String(), transition.To.String(), string(transition.Trigger), cmd.Actor.UserID,
	))

	return result, nil
}

func publish(p shared.EventPublisher, logger *slog.Logger, event shared.Event) {
	if err := p.Publish(event); err != nil {
		logger.Warn("failed to publish event",
			"event_type", string(event.EventType()),
			"aggregate_id", event.AggregateID(),
			"error", err,
		)
	}
}
