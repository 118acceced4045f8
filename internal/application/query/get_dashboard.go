package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scholarhub/scholarship-review/internal/domain/access"
	"github.com/scholarhub/scholarship-review/internal/domain/application"
	"github.com/scholarhub/scholarship-review/internal/domain/eligibility"
	"github.com/scholarhub/scholarship-review/internal/domain/scholarship"
	"github.com/scholarhub/scholarship-review/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// Сводка для главной страницы администратора. Каждая цифра и каждый список
// деградируют независимо: отказ одного не ломает остальные.
// ══════════════════════════════════════════════════════════════════════════════

const dashboardPanelSize = 5

// GetDashboardQuery содержит только вызывающего.
type GetDashboardQuery struct {
	Actor access.Identity
}

// DashboardDTO - данные дашборда.
type DashboardDTO struct {
	TotalStudents         int `json:"total_students"`
	TotalScholarships     int `json:"total_scholarships"`
	QualifiedApplications int `json:"qualified_applications"`
	UnseenPending         int `json:"unseen_pending"`

	LatestApplications []ReviewRowDTO              `json:"latest_applications"`
	NewestStudents     []*student.Student         `json:"newest_students"`
	OpenScholarships   []*scholarship.Scholarship `json:"open_scholarships"`

	// Degraded - имена панелей, которые не удалось загрузить.
	Degraded []string `json:"degraded,omitempty"`
}

// referencePanels - часть дашборда, не зависящая от заявок; кешируется.
type referencePanels struct {
	TotalStudents     int                        `json:"total_students"`
	TotalScholarships int                        `json:"total_scholarships"`
	NewestStudents    []*student.Student         `json:"newest_students"`
	OpenScholarships  []*scholarship.Scholarship `json:"open_scholarships"`
	Degraded          []string                   `json:"-"`
}

// GetDashboardHandler обрабатывает GetDashboardQuery.
type GetDashboardHandler struct {
	applications application.Store
	students     student.Repository
	scholarships scholarship.Repository
	filter       eligibility.Filter
	lifecycle    application.Lifecycle
	cache        Cache
	degrader     *Degrader
	logger       *slog.Logger
}

// NewGetDashboardHandler создаёт обработчик. cache может быть nil.
func NewGetDashboardHandler(
	applications application.Store,
	students student.Repository,
	scholarships scholarship.Repository,
	filter eligibility.Filter,
	cache Cache,
	degrader *Degrader,
	logger *slog.Logger,
) *GetDashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if degrader == nil {
		degrader = NewDegrader(nil, logger)
	}
	return &GetDashboardHandler{
		applications: applications,
		students:     students,
		scholarships: scholarships,
		filter:       filter,
		cache:        cache,
		degrader:     degrader,
		logger:       logger,
	}
}

// Handle собирает дашборд.
func (h *GetDashboardHandler) Handle(ctx context.Context, q GetDashboardQuery) (*DashboardDTO, error) {
	if err := q.Actor.RequireAdmin("GetDashboard"); err != nil {
		return nil, fmt.Errorf("get_dashboard: %w", err)
	}

	dto := &DashboardDTO{}
	degraded := func(panel string, ok bool) {
		if !ok {
			dto.Degraded = append(dto.Degraded, panel)
		}
	}

	var ok bool
	dto.QualifiedApplications, ok = readOrZero(ctx, h.degrader, "CountQualifyingApplications", func(ctx context.Context) (int, error) {
		return h.applications.CountQualifyingApplications(ctx, h.filter)
	})
	degraded("qualified_applications", ok)

	dto.UnseenPending, ok = readOrZero(ctx, h.degrader, "CountUnseenQualifyingPending", func(ctx context.Context) (int, error) {
		return h.applications.CountUnseenQualifyingPending(ctx, h.filter)
	})
	degraded("unseen_pending", ok)

	latest, ok := readOrZero(ctx, h.degrader, "ListQualifyingApplications", func(ctx context.Context) ([]application.Review, error) {
		return h.applications.ListQualifyingApplications(ctx, h.filter, application.DefaultListOptions().WithLimit(dashboardPanelSize))
	})
	degraded("latest_applications", ok)
	dto.LatestApplications = toReviewRows(h.lifecycle, latest)

	ref, _ := cachedRead(ctx, h.cache, h.logger, CacheKeyDashboardReference, h.loadReference)
	dto.TotalStudents = ref.TotalStudents
	dto.TotalScholarships = ref.TotalScholarships
	dto.NewestStudents = nonNil(ref.NewestStudents)
	dto.OpenScholarships = nonNil(ref.OpenScholarships)
	dto.Degraded = append(dto.Degraded, ref.Degraded...)

	return dto, nil
}

// loadReference reports the panels as cacheable only if all of them loaded.
func (h *GetDashboardHandler) loadReference(ctx context.Context) (referencePanels, bool) {
	var (
		ref referencePanels
		ok  bool
	)
	mark := func(panel string, loaded bool) {
		if !loaded {
			ref.Degraded = append(ref.Degraded, panel)
		}
	}

	ref.TotalStudents, ok = readOrZero(ctx, h.degrader, "CountStudents", h.students.Count)
	mark("total_students", ok)

	ref.TotalScholarships, ok = readOrZero(ctx, h.degrader, "CountScholarships", h.scholarships.Count)
	mark("total_scholarships", ok)

	ref.NewestStudents, ok = readOrZero(ctx, h.degrader, "ListNewestStudents", func(ctx context.Context) ([]*student.Student, error) {
		return h.students.ListNewest(ctx, dashboardPanelSize)
	})
	mark("newest_students", ok)

	ref.OpenScholarships, ok = readOrZero(ctx, h.degrader, "ListOpenScholarships", func(ctx context.Context) ([]*scholarship.Scholarship, error) {
		return h.scholarships.ListOpen(ctx, scholarship.ClosingSoonFirst, dashboardPanelSize)
	})
	mark("open_scholarships", ok)

	return ref, len(ref.Degraded) == 0
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
