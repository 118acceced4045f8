package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scholarhub/scholarship-review/internal/domain/access"
	"github.com/scholarhub/scholarship-review/internal/domain/scholarship"
	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

// ListOpenScholarshipsQuery - открытые программы для формы подачи.
type ListOpenScholarshipsQuery struct {
	Actor access.Identity
}

// ListOpenScholarshipsResult - результат запроса.
type ListOpenScholarshipsResult struct {
	Items    []*scholarship.Scholarship
	Degraded bool
}

// ListOpenScholarshipsHandler обрабатывает ListOpenScholarshipsQuery.
type ListOpenScholarshipsHandler struct {
	scholarships scholarship.Repository
	cache        Cache
	degrader     *Degrader
	logger       *slog.Logger
}

// NewListOpenScholarshipsHandler создаёт обработчик. cache может быть nil.
func NewListOpenScholarshipsHandler(scholarships scholarship.Repository, cache Cache, degrader *Degrader, logger *slog.Logger) *ListOpenScholarshipsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if degrader == nil {
		degrader = NewDegrader(nil, logger)
	}
	return &ListOpenScholarshipsHandler{
		scholarships: scholarships,
		cache:        cache,
		degrader:     degrader,
		logger:       logger,
	}
}

// Handle возвращает открытые программы, новые первыми.
func (h *ListOpenScholarshipsHandler) Handle(ctx context.Context, q ListOpenScholarshipsQuery) (*ListOpenScholarshipsResult, error) {
	if q.Actor.IsAnonymous() {
		return nil, fmt.Errorf("list_open_scholarships: %w",
			shared.NewDomainError("access", "ListOpenScholarships", shared.ErrUnauthorized, "authentication required"))
	}

	items, ok := cachedRead(ctx, h.cache, h.logger, CacheKeyOpenScholarships, func(ctx context.Context) ([]*scholarship.Scholarship, bool) {
		return readOrZero(ctx, h.degrader, "ListOpenScholarships", func(ctx context.Context) ([]*scholarship.Scholarship, error) {
			return h.scholarships.ListOpen(ctx, scholarship.NewestFirst, 0)
		})
	})

	return &ListOpenScholarshipsResult{Items: nonNil(items), Degraded: !ok}, nil
}
