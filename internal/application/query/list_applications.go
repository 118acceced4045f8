package query

import (
	"context"
	"fmt"

	"github.com/scholarhub/scholarship-review/internal/domain/access"
	"github.com/scholarhub/scholarship-review/internal/domain/application"
	"github.com/scholarhub/scholarship-review/internal/domain/eligibility"
	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST APPLICATIONS QUERY
// Список квалифицированных заявок для рассмотрения, новые первыми.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MaxListLimit - верхняя граница размера страницы.
	MaxListLimit = 500
)

// ListApplicationsQuery содержит параметры списка.
type ListApplicationsQuery struct {
	Actor access.Identity

	// Limit - 0 означает MaxListLimit.
	Limit  int
	Offset int
}

// Validate проверяет роль и пагинацию.
func (q *ListApplicationsQuery) Validate() error {
	if err := q.Actor.RequireAdmin("ListApplications"); err != nil {
		return err
	}
	if q.Limit < 0 || q.Offset < 0 {
		return shared.NewDomainError("application", "ListApplications", shared.ErrNegativeValue, "limit and offset cannot be negative")
	}
	if q.Limit == 0 || q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	return nil
}

// ReviewRowDTO - строка списка с доступными быстрыми действиями.
type ReviewRowDTO struct {
	application.Review
	Actions []application.Action `json:"actions"`
}

// ListApplicationsResult - результат запроса.
type ListApplicationsResult struct {
	Items    []ReviewRowDTO
	Degraded bool
}

// ListApplicationsHandler обрабатывает ListApplicationsQuery.
type ListApplicationsHandler struct {
	store     application.Store
	filter    eligibility.Filter
	lifecycle application.Lifecycle
	degrader  *Degrader
}

// NewListApplicationsHandler создаёт обработчик.
func NewListApplicationsHandler(store application.Store, filter eligibility.Filter, degrader *Degrader) *ListApplicationsHandler {
	if degrader == nil {
		degrader = NewDegrader(nil, nil)
	}
	return &ListApplicationsHandler{store: store, filter: filter, degrader: degrader}
}

// Handle возвращает список.
func (h *ListApplicationsHandler) Handle(ctx context.Context, q ListApplicationsQuery) (*ListApplicationsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("list_applications: %w", err)
	}

	opts := application.DefaultListOptions().WithLimit(q.Limit).WithOffset(q.Offset)
	reviews, ok := readOrZero(ctx, h.degrader, "ListQualifyingApplications", func(ctx context.Context) ([]application.Review, error) {
		return h.store.ListQualifyingApplications(ctx, h.filter, opts)
	})

	return &ListApplicationsResult{
		Items:    toReviewRows(h.lifecycle, reviews),
		Degraded: !ok,
	}, nil
}

func toReviewRows(lc application.Lifecycle, reviews []application.Review) []ReviewRowDTO {
	rows := make([]ReviewRowDTO, 0, len(reviews))
	for _, r := range reviews {
		rows = append(rows, ReviewRowDTO{Review: r, Actions: lc.Offered(r.Application.Status)})
	}
	return rows
}
