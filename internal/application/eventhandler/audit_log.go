package eventhandler

import (
	"log/slog"

	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

// AuditLogHandler пишет каждое доменное событие в журнал
// с полезной нагрузкой. Подписывается на все события.
type AuditLogHandler struct {
	logger *slog.Logger
}

// NewAuditLogHandler создаёт обработчик.
func NewAuditLogHandler(logger *slog.Logger) *AuditLogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogHandler{logger: logger.With("component", "audit")}
}

// Handle обрабатывает событие.
func (h *AuditLogHandler) Handle(event shared.Event) error {
	attrs := []any{
		"event_type", string(event.EventType()),
		"aggregate_id", event.AggregateID(),
		"occurred_at", event.OccurredAt(),
	}
	for k, v := range event.Payload() {
		attrs = append(attrs, k, v)
	}
	h.logger.Info("domain event", attrs...)
	return nil
}
