package query

import (
	"context"
	"fmt"

	"github.com/scholarhub/scholarship-review/internal/domain/access"
	"github.com/scholarhub/scholarship-review/internal/domain/application"
	"github.com/scholarhub/scholarship-review/internal/domain/eligibility"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET UNSEEN COUNT QUERY
// Счётчик квалифицированных заявок Pending, которые администратор ещё не видел.
// Вызывается опросом каждые несколько секунд, побочных эффектов нет.
// ══════════════════════════════════════════════════════════════════════════════

// GetUnseenCountQuery содержит только вызывающего.
type GetUnseenCountQuery struct {
	Actor access.Identity
}

// UnseenCountResult - результат опроса.
type UnseenCountResult struct {
	Count int

	// Degraded - хранилище недоступно, Count равен нулю.
	Degraded bool
}

// GetUnseenCountHandler обрабатывает GetUnseenCountQuery.
type GetUnseenCountHandler struct {
	store    application.Store
	filter   eligibility.Filter
	degrader *Degrader
}

// NewGetUnseenCountHandler создаёт обработчик.
func NewGetUnseenCountHandler(store application.Store, filter eligibility.Filter, degrader *Degrader) *GetUnseenCountHandler {
	if degrader == nil {
		degrader = NewDegrader(nil, nil)
	}
	return &GetUnseenCountHandler{store: store, filter: filter, degrader: degrader}
}

// Handle возвращает счётчик. Ошибка только при отсутствии роли admin.
func (h *GetUnseenCountHandler) Handle(ctx context.Context, q GetUnseenCountQuery) (*UnseenCountResult, error) {
	if err := q.Actor.RequireAdmin("GetUnseenCount"); err != nil {
		return nil, fmt.Errorf("get_unseen_count: %w", err)
	}

	count, ok := readOrZero(ctx, h.degrader, "CountUnseenQualifyingPending", func(ctx context.Context) (int, error) {
		return h.store.CountUnseenQualifyingPending(ctx, h.filter)
	})

	return &UnseenCountResult{Count: count, Degraded: !ok}, nil
}
