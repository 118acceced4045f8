// Package memory implements the application, student and scholarship stores
// in process memory. It backs STORAGE_DRIVER=memory and the handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/scholarhub/scholarship-review/internal/domain/application"
	"github.com/scholarhub/scholarship-review/internal/domain/eligibility"
	"github.com/scholarhub/scholarship-review/internal/domain/scholarship"
	"github.com/scholarhub/scholarship-review/internal/domain/shared"
	"github.com/scholarhub/scholarship-review/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store keeps every table behind one lock so that multi-row writes are atomic.
type Store struct {
	mu sync.RWMutex

	students     map[string]*student.Student
	scholarships map[string]*scholarship.Scholarship
	applications map[string]*application.Application

	// pairs enforces one application per (student, scholarship).
	pairs map[pairKey]string

	// failure, when set, is returned by every call. Used to simulate an outage.
	failure error

	now func() time.Time
}

type pairKey struct {
	studentID     string
	scholarshipID string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		students:     make(map[string]*student.Student),
		scholarships: make(map[string]*scholarship.Scholarship),
		applications: make(map[string]*application.Application),
		pairs:        make(map[pairKey]string),
		now:          time.Now,
	}
}

var (
	_ application.Store      = (*Store)(nil)
	_ student.Repository     = (*Store)(nil)
	_ scholarship.Repository = scholarshipView{}
)

// Students returns a student.Repository view of the store.
func (s *Store) Students() student.Repository { return s }

// Scholarships returns a scholarship.Repository view of the store.
func (s *Store) Scholarships() scholarship.Repository { return scholarshipView{s} }

// SetFailure makes every subsequent call fail with err. nil restores service.
func (s *Store) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

func (s *Store) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return shared.WrapError("store", op, shared.ErrTimeout, "context done", err)
	}
	if s.failure != nil {
		return shared.WrapError("store", op, shared.ErrServiceUnavailable, "store unavailable", s.failure)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SEEDING
// ══════════════════════════════════════════════════════════════════════════════

// PutStudent inserts or replaces a student.
func (s *Store) PutStudent(st student.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = s.now().UTC()
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = st.CreatedAt
	}
	s.students[st.ID] = &st
}

// PutScholarship inserts or replaces a scholarship.
func (s *Store) PutScholarship(sc scholarship.Scholarship) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scholarships[sc.ID] = &sc
}

// PutApplication inserts an application as is, bypassing submission rules.
func (s *Store) PutApplication(app application.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{app.StudentID, app.ScholarshipID}
	if _, exists := s.pairs[key]; exists {
		return shared.ErrApplicationAlreadyExists
	}
	app.Documents = append([]string(nil), app.Documents...)
	s.applications[app.ID] = &app
	s.pairs[key] = app.ID
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// application.Store
// ══════════════════════════════════════════════════════════════════════════════

// FindApplication returns a copy of the stored application.
func (s *Store) FindApplication(ctx context.Context, id string) (*application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "FindApplication"); err != nil {
		return nil, err
	}

	app, ok := s.applications[id]
	if !ok {
		return nil, shared.ErrApplicationNotFound
	}
	cp := copyApplication(app)
	return &cp, nil
}

// UpdateStatus changes the status and leaves admin_seen alone.
func (s *Store) UpdateStatus(ctx context.Context, id string, status application.Status) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "UpdateStatus"); err != nil {
		return 0, err
	}

	app, ok := s.applications[id]
	if !ok {
		return 0, nil
	}
	app.Status = status
	app.UpdatedAt = s.now().UTC()
	return 1, nil
}

// UpdateStatusAndRemarks changes status and remarks under one lock.
func (s *Store) UpdateStatusAndRemarks(ctx context.Context, id string, status application.Status, remarks string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "UpdateStatusAndRemarks"); err != nil {
		return 0, err
	}

	app, ok := s.applications[id]
	if !ok {
		return 0, nil
	}
	app.Status = status
	app.Remarks = remarks
	app.UpdatedAt = s.now().UTC()
	return 1, nil
}

// qualifying returns applications whose student passes the filter. Caller holds mu.
func (s *Store) qualifying(filter eligibility.Filter) []*application.Application {
	out := make([]*application.Application, 0, len(s.applications))
	for _, app := range s.applications {
		st, ok := s.students[app.StudentID]
		if !ok || !filter.Qualifies(st.Profile()) {
			continue
		}
		out = append(out, app)
	}
	return out
}

// ListQualifyingApplications returns qualifying applications, newest first.
func (s *Store) ListQualifyingApplications(ctx context.Context, filter eligibility.Filter, opts application.ListOptions) ([]application.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "ListQualifyingApplications"); err != nil {
		return nil, err
	}

	apps := s.qualifying(filter)
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].DateApplied.Equal(apps[j].DateApplied) {
			return apps[i].DateApplied.After(apps[j].DateApplied)
		}
		return apps[i].ID > apps[j].ID
	})

	if opts.Offset >= len(apps) {
		return []application.Review{}, nil
	}
	apps = apps[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(apps) {
		apps = apps[:opts.Limit]
	}

	reviews := make([]application.Review, 0, len(apps))
	for _, app := range apps {
		st := s.students[app.StudentID]
		rv := application.Review{
			Application: copyApplication(app),
			Student: application.StudentSummary{
				ID:            st.ID,
				FirstName:     st.FirstName,
				LastName:      st.LastName,
				FamilyIncome:  st.FamilyIncome,
				AcademicScore: st.AcademicScore,
			},
			Scholarship: application.ScholarshipSummary{ID: app.ScholarshipID},
		}
		if sc, ok := s.scholarships[app.ScholarshipID]; ok {
			rv.Scholarship.Name = sc.Name
		}
		reviews = append(reviews, rv)
	}
	return reviews, nil
}

// CountQualifyingApplications counts qualifying applications.
func (s *Store) CountQualifyingApplications(ctx context.Context, filter eligibility.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "CountQualifyingApplications"); err != nil {
		return 0, err
	}
	return len(s.qualifying(filter)), nil
}

// CountUnseenQualifyingPending counts qualifying Pending applications not yet seen.
func (s *Store) CountUnseenQualifyingPending(ctx context.Context, filter eligibility.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "CountUnseenQualifyingPending"); err != nil {
		return 0, err
	}

	n := 0
	for _, app := range s.qualifying(filter) {
		if app.IsPendingUnseen() {
			n++
		}
	}
	return n, nil
}

// MarkAllPendingSeen marks every counted application as seen.
func (s *Store) MarkAllPendingSeen(ctx context.Context, filter eligibility.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "MarkAllPendingSeen"); err != nil {
		return 0, err
	}

	var n int64
	for _, app := range s.qualifying(filter) {
		if app.IsPendingUnseen() {
			app.AdminSeen = true
			n++
		}
	}
	return n, nil
}

// Submit applies the profile and stores the application atomically.
func (s *Store) Submit(ctx context.Context, sub application.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "Submit"); err != nil {
		return err
	}

	app := sub.Application
	if app == nil {
		return shared.NewDomainError("application", "Submit", shared.ErrEmptyValue, "application is required")
	}
	st, ok := s.students[app.StudentID]
	if !ok {
		return shared.ErrStudentNotFound
	}
	if _, ok := s.scholarships[app.ScholarshipID]; !ok {
		return shared.ErrScholarshipNotFound
	}
	key := pairKey{app.StudentID, app.ScholarshipID}
	if _, exists := s.pairs[key]; exists {
		return shared.ErrApplicationAlreadyExists
	}

	st.ApplyProfile(sub.Profile, s.now())
	stored := copyApplication(app)
	s.applications[stored.ID] = &stored
	s.pairs[key] = stored.ID
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// student.Repository
// ══════════════════════════════════════════════════════════════════════════════

// GetByID returns a student by ID.
func (s *Store) GetByID(ctx context.Context, id string) (*student.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "GetStudent"); err != nil {
		return nil, err
	}
	st, ok := s.students[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	cp := *st
	return &cp, nil
}

// Count returns the number of students.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "CountStudents"); err != nil {
		return 0, err
	}
	return len(s.students), nil
}

// ListNewest returns the most recently registered students.
func (s *Store) ListNewest(ctx context.Context, limit int) ([]*student.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "ListNewestStudents"); err != nil {
		return nil, err
	}

	out := make([]*student.Student, 0, len(s.students))
	for _, st := range s.students {
		cp := *st
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// scholarship.Repository
// ══════════════════════════════════════════════════════════════════════════════

// scholarshipView exposes the scholarship table. GetByID and Count clash
// with the student methods on Store.
type scholarshipView struct{ s *Store }

func (v scholarshipView) GetByID(ctx context.Context, id string) (*scholarship.Scholarship, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if err := v.s.check(ctx, "GetScholarship"); err != nil {
		return nil, err
	}
	sc, ok := v.s.scholarships[id]
	if !ok {
		return nil, shared.ErrScholarshipNotFound
	}
	cp := *sc
	return &cp, nil
}

func (v scholarshipView) Count(ctx context.Context) (int, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if err := v.s.check(ctx, "CountScholarships"); err != nil {
		return 0, err
	}
	return len(v.s.scholarships), nil
}

func (v scholarshipView) ListOpen(ctx context.Context, order scholarship.SortOrder, limit int) ([]*scholarship.Scholarship, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if err := v.s.check(ctx, "ListOpenScholarships"); err != nil {
		return nil, err
	}

	out := make([]*scholarship.Scholarship, 0)
	for _, sc := range v.s.scholarships {
		if !sc.IsOpen() {
			continue
		}
		cp := *sc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if order == scholarship.ClosingSoonFirst {
			if !out[i].EndDate.Equal(out[j].EndDate) {
				return out[i].EndDate.Before(out[j].EndDate)
			}
		} else if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func copyApplication(app *application.Application) application.Application {
	cp := *app
	cp.Documents = append([]string{}, app.Documents...)
	return cp
}
