// Package jobs contains the scheduled jobs run by cmd/poller.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/scholarhub/scholarship-review/internal/domain/notification"
	"github.com/scholarhub/scholarship-review/internal/infrastructure/external/reviewapi"
)

// NotificationAPI is the part of the review API the poll job needs.
type NotificationAPI interface {
	Count(ctx context.Context) (reviewapi.CountResult, error)
	Acknowledge(ctx context.Context) (int64, error)
}

// PollNotificationsJob polls the unseen count and drives the admin badge.
// A failed poll leaves the badge as it was.
type PollNotificationsJob struct {
	api     NotificationAPI
	logger  *slog.Logger
	autoAck bool

	mu       sync.Mutex
	badge    notification.Badge
	onChange func(notification.Change)
}

// PollNotificationsConfig contains configuration for the poll job.
type PollNotificationsConfig struct {
	// AutoAck acknowledges as soon as the badge becomes visible, the way an
	// admin opening the panel would.
	AutoAck bool

	// OnChange is called for every badge change.
	OnChange func(notification.Change)
}

// NewPollNotificationsJob creates the poll job.
func NewPollNotificationsJob(api NotificationAPI, config PollNotificationsConfig, logger *slog.Logger) *PollNotificationsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PollNotificationsJob{
		api:      api,
		logger:   logger.With("job", "poll_notifications"),
		autoAck:  config.AutoAck,
		onChange: config.OnChange,
	}
}

// Name implements scheduler.Job.
func (j *PollNotificationsJob) Name() string { return "poll_notifications" }

// Description implements scheduler.Job.
func (j *PollNotificationsJob) Description() string {
	return "Polls the unseen qualified application count and updates the badge"
}

// Badge returns the badge after the last successful poll.
func (j *PollNotificationsJob) Badge() notification.Badge {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.badge
}

// Run implements scheduler.Job.
func (j *PollNotificationsJob) Run(ctx context.Context) error {
	result, err := j.api.Count(ctx)
	if err != nil {
		return fmt.Errorf("poll count: %w", err)
	}
	if result.Degraded {
		j.logger.Warn("server answered with a degraded count", "count", result.Count)
	}

	j.mu.Lock()
	badge, change := j.badge.Observe(result.Count)
	j.badge = badge
	j.mu.Unlock()
	j.report(change)

	if !j.autoAck || badge.State() != notification.BadgeVisible {
		return nil
	}

	updated, err := j.api.Acknowledge(ctx)
	if err != nil {
		return fmt.Errorf("acknowledge: %w", err)
	}

	j.mu.Lock()
	badge, change = j.badge.Acknowledge()
	j.badge = badge
	j.mu.Unlock()

	j.logger.Info("notifications acknowledged", "updated_count", updated)
	j.report(change)
	return nil
}

func (j *PollNotificationsJob) report(change notification.Change) {
	if !change.Changed() {
		return
	}

	switch {
	case change.Appeared():
		j.logger.Info("new qualified applications", "badge", change.To.String())
	case change.Cleared():
		j.logger.Info("badge cleared")
	default:
		j.logger.Info("badge updated", "from", change.From.String(), "to", change.To.String())
	}

	if j.onChange != nil {
		j.onChange(change)
	}
}
