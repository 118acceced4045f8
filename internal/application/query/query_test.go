package query

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarhub/scholarship-review/internal/domain/access"
	"github.com/scholarhub/scholarship-review/internal/domain/application"
	"github.com/scholarhub/scholarship-review/internal/domain/eligibility"
	"github.com/scholarhub/scholarship-review/internal/domain/scholarship"
	"github.com/scholarhub/scholarship-review/internal/domain/shared"
	"github.com/scholarhub/scholarship-review/internal/domain/student"
	"github.com/scholarhub/scholarship-review/internal/infrastructure/persistence/memory"
	"github.com/scholarhub/scholarship-review/pkg/circuitbreaker"
)

var admin = access.Identity{UserID: "admin-1", Role: access.RoleAdmin}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// mapCache is a Cache that JSON-encodes values like the Redis cache does.
type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	gets    int
	sets    int
	deletes []string
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	raw, ok := c.data[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.sets++
	c.data[key] = raw
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deletes = append(c.deletes, k)
	}
	return nil
}

type seedApp struct {
	id      string
	student string
	income  float64
	score   float64
	status  application.Status
	seen    bool
}

// seedStore creates one student and one application per row.
func seedStore(t *testing.T, rows ...seedApp) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	store.PutScholarship(scholarship.Scholarship{
		ID: "sch-1", Name: "Merit Grant", Status: scholarship.StatusOpen,
		StartDate: base, EndDate: base.AddDate(0, 6, 0),
	})
	for i, r := range rows {
		store.PutStudent(student.Student{
			ID:            r.student,
			FirstName:     "Student",
			LastName:      r.student,
			Email:         r.student + "@example.com",
			SchoolName:    "North High",
			Course:        "Grade 12",
			FamilyIncome:  r.income,
			AcademicScore: r.score,
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, store.PutApplication(application.Application{
			ID:            r.id,
			StudentID:     r.student,
			ScholarshipID: "sch-1",
			Status:        r.status,
			AdminSeen:     r.seen,
			DateApplied:   base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:     base.Add(time.Duration(i) * time.Minute),
		}))
	}
	return store
}

func mixedRows() []seedApp {
	return []seedApp{
		{id: "a-1", student: "s-1", income: 15000, score: 2.00, status: application.StatusPending},
		{id: "a-2", student: "s-2", income: 20000, score: 2.50, status: application.StatusPending},
		{id: "a-3", student: "s-3", income: 25000, score: 2.00, status: application.StatusPending},
		{id: "a-4", student: "s-4", income: 10000, score: 2.75, status: application.StatusPending},
		{id: "a-5", student: "s-5", income: 12000, score: 1.50, status: application.StatusApproved},
		{id: "a-6", student: "s-6", income: 18000, score: 1.75, status: application.StatusPending, seen: true},
		{id: "a-7", student: "s-7", income: 19000, score: 2.25, status: application.StatusForInterview},
	}
}

func ids(rows []ReviewRowDTO) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Application.ID)
	}
	sort.Strings(out)
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// VIEW AGREEMENT
// ══════════════════════════════════════════════════════════════════════════════

func TestViewsAgreeOnQualifyingApplications(t *testing.T) {
	store := seedStore(t, mixedRows()...)
	filter := eligibility.Default()
	ctx := context.Background()

	list, err := NewListApplicationsHandler(store, filter, nil).Handle(ctx, ListApplicationsQuery{Actor: admin})
	require.NoError(t, err)
	dash, err := NewGetDashboardHandler(store, store.Students(), store.Scholarships(), filter, nil, nil, nil).Handle(ctx, GetDashboardQuery{Actor: admin})
	require.NoError(t, err)
	unseen, err := NewGetUnseenCountHandler(store, filter, nil).Handle(ctx, GetUnseenCountQuery{Actor: admin})
	require.NoError(t, err)

	assert.Equal(t, []string{"a-1", "a-2", "a-5", "a-6", "a-7"}, ids(list.Items))
	assert.Equal(t, len(list.Items), dash.QualifiedApplications)

	var pendingUnseen int
	for _, row := range list.Items {
		if row.Application.IsPendingUnseen() {
			pendingUnseen++
		}
	}
	assert.Equal(t, pendingUnseen, unseen.Count)
	assert.Equal(t, unseen.Count, dash.UnseenPending)
	assert.Equal(t, 2, unseen.Count)
	assert.Empty(t, dash.Degraded)
}

func TestViewsFollowConfiguredFilter(t *testing.T) {
	store := seedStore(t, mixedRows()...)
	ctx := context.Background()

	strict, err := eligibility.New(16000, 2.00)
	require.NoError(t, err)

	list, err := NewListApplicationsHandler(store, strict, nil).Handle(ctx, ListApplicationsQuery{Actor: admin})
	require.NoError(t, err)
	unseen, err := NewGetUnseenCountHandler(store, strict, nil).Handle(ctx, GetUnseenCountQuery{Actor: admin})
	require.NoError(t, err)

	assert.Equal(t, []string{"a-1", "a-5"}, ids(list.Items))
	assert.Equal(t, 1, unseen.Count)
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST
// ══════════════════════════════════════════════════════════════════════════════

func TestListApplications(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, mixedRows()...)
	h := NewListApplicationsHandler(store, eligibility.Default(), nil)

	t.Run("newest first with offered actions", func(t *testing.T) {
		res, err := h.Handle(ctx, ListApplicationsQuery{Actor: admin})
		require.NoError(t, err)
		require.Len(t, res.Items, 5)
		assert.False(t, res.Degraded)

		assert.Equal(t, "a-7", res.Items[0].Application.ID)
		assert.Empty(t, res.Items[0].Actions)
		assert.Equal(t, "Merit Grant", res.Items[0].Scholarship.Name)

		byID := map[string]ReviewRowDTO{}
		for _, r := range res.Items {
			byID[r.Application.ID] = r
		}
		assert.ElementsMatch(t, []application.Action{application.ActionApprove, application.ActionReject}, byID["a-1"].Actions)
		assert.Equal(t, []application.Action{application.ActionReject}, byID["a-5"].Actions)
	})

	t.Run("pagination", func(t *testing.T) {
		res, err := h.Handle(ctx, ListApplicationsQuery{Actor: admin, Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, res.Items, 2)
		assert.Equal(t, "a-6", res.Items[0].Application.ID)

		res, err = h.Handle(ctx, ListApplicationsQuery{Actor: admin, Offset: 100})
		require.NoError(t, err)
		assert.NotNil(t, res.Items)
		assert.Empty(t, res.Items)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		q := ListApplicationsQuery{Actor: admin, Limit: MaxListLimit * 10}
		require.NoError(t, q.Validate())
		assert.Equal(t, MaxListLimit, q.Limit)
	})

	t.Run("negative paging is invalid", func(t *testing.T) {
		_, err := h.Handle(ctx, ListApplicationsQuery{Actor: admin, Offset: -1})
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("admin only", func(t *testing.T) {
		_, err := h.Handle(ctx, ListApplicationsQuery{Actor: access.Identity{UserID: "s-1", Role: access.RoleStudent}})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// UNSEEN COUNT
// ══════════════════════════════════════════════════════════════════════════════

func TestGetUnseenCount(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous and student callers are refused", func(t *testing.T) {
		h := NewGetUnseenCountHandler(seedStore(t), eligibility.Default(), nil)
		_, err := h.Handle(ctx, GetUnseenCountQuery{Actor: access.Anonymous})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
		_, err = h.Handle(ctx, GetUnseenCountQuery{Actor: access.Identity{UserID: "s-1", Role: access.RoleStudent}})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("outage degrades to zero", func(t *testing.T) {
		store := seedStore(t, mixedRows()...)
		store.SetFailure(shared.ErrStoreUnavailable)

		res, err := NewGetUnseenCountHandler(store, eligibility.Default(), nil).Handle(ctx, GetUnseenCountQuery{Actor: admin})
		require.NoError(t, err)
		assert.Zero(t, res.Count)
		assert.True(t, res.Degraded)
	})

	t.Run("recovers after outage", func(t *testing.T) {
		store := seedStore(t, mixedRows()...)
		h := NewGetUnseenCountHandler(store, eligibility.Default(), nil)

		store.SetFailure(errors.New("timeout"))
		res, err := h.Handle(ctx, GetUnseenCountQuery{Actor: admin})
		require.NoError(t, err)
		assert.True(t, res.Degraded)

		store.SetFailure(nil)
		res, err = h.Handle(ctx, GetUnseenCountQuery{Actor: admin})
		require.NoError(t, err)
		assert.False(t, res.Degraded)
		assert.Equal(t, 2, res.Count)
	})
}

func TestDegrader_OpenBreakerSkipsStore(t *testing.T) {
	store := seedStore(t, mixedRows()...)
	store.SetFailure(shared.ErrStoreUnavailable)

	breaker := circuitbreaker.New("test", circuitbreaker.WithFailureThreshold(2), circuitbreaker.WithTimeout(time.Hour))
	h := NewGetUnseenCountHandler(store, eligibility.Default(), NewDegrader(breaker, nil))

	for i := 0; i < 3; i++ {
		res, err := h.Handle(context.Background(), GetUnseenCountQuery{Actor: admin})
		require.NoError(t, err)
		assert.True(t, res.Degraded)
	}
	assert.Equal(t, circuitbreaker.StateOpen, breaker.State())
	assert.Equal(t, 2, breaker.Counts().Requests)
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD
// ══════════════════════════════════════════════════════════════════════════════

func TestGetDashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("panels", func(t *testing.T) {
		store := seedStore(t, mixedRows()...)
		store.PutScholarship(scholarship.Scholarship{
			ID: "sch-2", Name: "Closing Soon", Status: scholarship.StatusOpen,
			StartDate: base, EndDate: base.AddDate(0, 1, 0),
		})
		store.PutScholarship(scholarship.Scholarship{
			ID: "sch-3", Name: "Closed", Status: scholarship.StatusClosed,
			StartDate: base, EndDate: base.AddDate(0, 1, 0),
		})

		h := NewGetDashboardHandler(store, store.Students(), store.Scholarships(), eligibility.Default(), nil, nil, nil)
		dto, err := h.Handle(ctx, GetDashboardQuery{Actor: admin})
		require.NoError(t, err)

		assert.Equal(t, 7, dto.TotalStudents)
		assert.Equal(t, 3, dto.TotalScholarships)
		assert.Equal(t, 5, dto.QualifiedApplications)
		assert.Equal(t, 2, dto.UnseenPending)
		assert.Len(t, dto.LatestApplications, dashboardPanelSize)
		assert.Len(t, dto.NewestStudents, dashboardPanelSize)
		assert.Equal(t, "s-7", dto.NewestStudents[0].ID)
		assert.Equal(t, "North High", dto.NewestStudents[0].SchoolName)
		assert.Equal(t, "Grade 12", dto.NewestStudents[0].Course)
		require.Len(t, dto.OpenScholarships, 2)
		assert.Equal(t, "sch-2", dto.OpenScholarships[0].ID)
	})

	t.Run("outage degrades every panel", func(t *testing.T) {
		store := seedStore(t, mixedRows()...)
		store.SetFailure(shared.ErrStoreUnavailable)

		h := NewGetDashboardHandler(store, store.Students(), store.Scholarships(), eligibility.Default(), nil, nil, nil)
		dto, err := h.Handle(ctx, GetDashboardQuery{Actor: admin})
		require.NoError(t, err)

		assert.Zero(t, dto.QualifiedApplications)
		assert.Zero(t, dto.UnseenPending)
		assert.NotNil(t, dto.LatestApplications)
		assert.NotNil(t, dto.NewestStudents)
		assert.NotNil(t, dto.OpenScholarships)
		assert.ElementsMatch(t, []string{
			"qualified_applications", "unseen_pending", "latest_applications",
			"total_students", "total_scholarships", "newest_students", "open_scholarships",
		}, dto.Degraded)
	})

	t.Run("reference panels are cached, application figures are not", func(t *testing.T) {
		store := seedStore(t, mixedRows()...)
		cache := newMapCache()
		h := NewGetDashboardHandler(store, store.Students(), store.Scholarships(), eligibility.Default(), cache, nil, nil)

		_, err := h.Handle(ctx, GetDashboardQuery{Actor: admin})
		require.NoError(t, err)
		assert.Equal(t, 1, cache.sets)

		require.NoError(t, store.PutApplication(application.Application{
			ID: "a-8", StudentID: "s-1", ScholarshipID: "sch-9", Status: application.StatusPending,
			DateApplied: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour),
		}))
		store.PutStudent(student.Student{ID: "s-8", FamilyIncome: 1, AcademicScore: 1, CreatedAt: base.AddDate(0, 0, 1)})

		dto, err := h.Handle(ctx, GetDashboardQuery{Actor: admin})
		require.NoError(t, err)
		assert.Equal(t, 1, cache.sets)
		assert.Equal(t, 7, dto.TotalStudents)
		assert.Equal(t, 6, dto.QualifiedApplications)
		assert.Equal(t, 3, dto.UnseenPending)
	})

	t.Run("degraded reference panels are not cached", func(t *testing.T) {
		store := seedStore(t, mixedRows()...)
		store.SetFailure(shared.ErrStoreUnavailable)
		cache := newMapCache()

		h := NewGetDashboardHandler(store, store.Students(), store.Scholarships(), eligibility.Default(), cache, nil, nil)
		_, err := h.Handle(ctx, GetDashboardQuery{Actor: admin})
		require.NoError(t, err)
		assert.Zero(t, cache.sets)
	})

	t.Run("admin only", func(t *testing.T) {
		store := seedStore(t)
		h := NewGetDashboardHandler(store, store.Students(), store.Scholarships(), eligibility.Default(), nil, nil, nil)
		_, err := h.Handle(ctx, GetDashboardQuery{Actor: access.Anonymous})
		assert.True(t, shared.IsAuthorization(err))
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// OPEN SCHOLARSHIPS
// ══════════════════════════════════════════════════════════════════════════════

func TestListOpenScholarships(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	store.PutScholarship(scholarship.Scholarship{
		ID: "sch-new", Name: "Newest", Status: scholarship.StatusOpen,
		StartDate: base.AddDate(0, 1, 0), EndDate: base.AddDate(0, 2, 0),
	})
	store.PutScholarship(scholarship.Scholarship{
		ID: "sch-closed", Name: "Closed", Status: scholarship.StatusClosed,
		StartDate: base, EndDate: base.AddDate(0, 2, 0),
	})
	stu := access.Identity{UserID: "s-1", Role: access.RoleStudent}

	t.Run("newest first for any signed-in caller", func(t *testing.T) {
		h := NewListOpenScholarshipsHandler(store.Scholarships(), nil, nil, nil)
		res, err := h.Handle(ctx, ListOpenScholarshipsQuery{Actor: stu})
		require.NoError(t, err)
		require.Len(t, res.Items, 2)
		assert.Equal(t, "sch-new", res.Items[0].ID)
		assert.Equal(t, "sch-1", res.Items[1].ID)
	})

	t.Run("anonymous refused", func(t *testing.T) {
		h := NewListOpenScholarshipsHandler(store.Scholarships(), nil, nil, nil)
		_, err := h.Handle(ctx, ListOpenScholarshipsQuery{Actor: access.Anonymous})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("served from cache", func(t *testing.T) {
		cache := newMapCache()
		h := NewListOpenScholarshipsHandler(store.Scholarships(), cache, nil, nil)
		_, err := h.Handle(ctx, ListOpenScholarshipsQuery{Actor: stu})
		require.NoError(t, err)

		broken := seedStore(t)
		broken.SetFailure(shared.ErrStoreUnavailable)
		cached := NewListOpenScholarshipsHandler(broken.Scholarships(), cache, nil, nil)
		res, err := cached.Handle(ctx, ListOpenScholarshipsQuery{Actor: stu})
		require.NoError(t, err)
		assert.False(t, res.Degraded)
		assert.Len(t, res.Items, 2)
	})

	t.Run("outage degrades to empty", func(t *testing.T) {
		broken := seedStore(t)
		broken.SetFailure(shared.ErrStoreUnavailable)
		h := NewListOpenScholarshipsHandler(broken.Scholarships(), nil, nil, nil)
		res, err := h.Handle(ctx, ListOpenScholarshipsQuery{Actor: admin})
		require.NoError(t, err)
		assert.True(t, res.Degraded)
		assert.NotNil(t, res.Items)
		assert.Empty(t, res.Items)
	})
}
