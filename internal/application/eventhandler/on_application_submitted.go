package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scholarhub/scholarship-review/internal/application/query"
	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON APPLICATION SUBMITTED HANDLER
// Подача заявки перезаписывает доход и балл студента, а они видны в панели
// новых студентов на дашборде. Поэтому кеш справочных панелей сбрасывается.
// ═══════════════════════════════════════════════════════════════════════════

// OnApplicationSubmittedHandler сбрасывает кеш дашборда.
type OnApplicationSubmittedHandler struct {
	cache   query.Cache
	logger  *slog.Logger
	timeout time.Duration
}

// NewOnApplicationSubmittedHandler создаёт обработчик. cache может быть nil.
func NewOnApplicationSubmittedHandler(cache query.Cache, logger *slog.Logger) *OnApplicationSubmittedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnApplicationSubmittedHandler{
		cache:   cache,
		logger:  logger,
		timeout: 2 * time.Second,
	}
}

// Handle обрабатывает событие.
func (h *OnApplicationSubmittedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.ApplicationSubmittedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: %T", event)
	}
	if h.cache == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.cache.Delete(ctx, query.CacheKeyDashboardReference); err != nil {
		return fmt.Errorf("invalidate dashboard cache: %w", err)
	}

	h.logger.Debug("dashboard cache invalidated",
		"application_id", e.AggregateID(),
		"student_id", e.StudentID,
	)
	return nil
}

// EventType возвращает тип обрабатываемого события.
func (h *OnApplicationSubmittedHandler) EventType() shared.EventType {
	return shared.EventApplicationSubmitted
}
