package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scholarhub/scholarship-review/internal/domain/access"
	"github.com/scholarhub/scholarship-review/internal/domain/application"
	"github.com/scholarhub/scholarship-review/internal/domain/eligibility"
	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACKNOWLEDGE NOTIFICATIONS COMMAND
// Marks every qualifying pending application the admin has not seen yet as
// seen. Uses the same eligibility filter as the unseen count, so after a
// successful call the count drops to zero for everything that existed then.
// ══════════════════════════════════════════════════════════════════════════════

// AcknowledgeNotificationsCommand has no parameters besides the caller.
type AcknowledgeNotificationsCommand struct {
	Actor access.Identity
}

// Validate checks the role.
func (c AcknowledgeNotificationsCommand) Validate() error {
	return c.Actor.RequireAdmin("AcknowledgeNotifications")
}

// AcknowledgeNotificationsResult reports how many rows were marked.
// Zero is a successful result.
type AcknowledgeNotificationsResult struct {
	UpdatedCount int64
}

// AcknowledgeNotificationsHandler handles AcknowledgeNotificationsCommand.
type AcknowledgeNotificationsHandler struct {
	store     application.Store
	filter    eligibility.Filter
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewAcknowledgeNotificationsHandler creates a new AcknowledgeNotificationsHandler.
func NewAcknowledgeNotificationsHandler(
	store application.Store,
	filter eligibility.Filter,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *AcknowledgeNotificationsHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AcknowledgeNotificationsHandler{
		store:     store,
		filter:    filter,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the acknowledgment as a single store update.
func (h *AcknowledgeNotificationsHandler) Handle(ctx context.Context, cmd AcknowledgeNotificationsCommand) (*AcknowledgeNotificationsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("acknowledge_notifications: %w", err)
	}

	updated, err := h.store.MarkAllPendingSeen(ctx, h.filter)
	if err != nil {
		h.logger.Error("acknowledge failed", "admin_id", cmd.Actor.UserID, "error", err)
		return nil, fmt.Errorf("acknowledge_notifications: %w", storeError("MarkAllPendingSeen", err))
	}

	h.logger.Info("notifications acknowledged",
		"admin_id", cmd.Actor.UserID,
		"updated_count", updated,
	)

	if updated > 0 {
		publish(h.publisher, h.logger, shared.NewNotificationsAcknowledgedEvent(cmd.Actor.UserID, updated))
	}

	return &AcknowledgeNotificationsResult{UpdatedCount: updated}, nil
}
