package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarhub/scholarship-review/internal/application/command"
	"github.com/scholarhub/scholarship-review/internal/application/query"
	"github.com/scholarhub/scholarship-review/internal/domain/access"
	"github.com/scholarhub/scholarship-review/internal/domain/eligibility"
	"github.com/scholarhub/scholarship-review/internal/domain/shared"
	"github.com/scholarhub/scholarship-review/internal/infrastructure/auth"
	"github.com/scholarhub/scholarship-review/internal/infrastructure/persistence/memory"
	"github.com/scholarhub/scholarship-review/internal/interface/http/handlers"
	"github.com/scholarhub/scholarship-review/pkg/logger"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	store   *memory.Store
	demo    memory.Demo
	gate    *auth.JWTGate

	adminToken   string
	studentToken string
}

func newTestServer(t *testing.T, mutate func(*Config)) *testServer {
	t.Helper()

	store := memory.NewStore()
	demo := memory.SeedDemo(store, time.Now())
	filter := eligibility.Default()

	gate, err := auth.NewJWTGate("test-secret", "scholarship-review")
	require.NoError(t, err)

	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	srv := NewServer(cfg, Dependencies{
		QuickAction:              command.NewQuickActionHandler(store, nil, nil),
		EditApplication:          command.NewEditApplicationHandler(store, nil, nil),
		AcknowledgeNotifications: command.NewAcknowledgeNotificationsHandler(store, filter, nil, nil),
		SubmitApplication:        command.NewSubmitApplicationHandler(store, store.Scholarships(), filter, nil, nil),
		GetUnseenCount:           query.NewGetUnseenCountHandler(store, filter, nil),
		ListApplications:         query.NewListApplicationsHandler(store, filter, nil),
		GetDashboard:             query.NewGetDashboardHandler(store, store.Students(), store.Scholarships(), filter, nil, nil, nil),
		ListOpenScholarships:     query.NewListOpenScholarshipsHandler(store.Scholarships(), nil, nil, nil),
		Gate:                     gate,
		Limiter:                  handlers.NewMemoryLimiter(),
		Logger:                   logger.Nop(),
	})

	ts := &testServer{t: t, handler: srv.Handler(), store: store, demo: demo, gate: gate}
	ts.adminToken = ts.token("admin-1", access.RoleAdmin)
	ts.studentToken = ts.token(demo.StudentIDs[0], access.RoleStudent)
	return ts
}

func (ts *testServer) token(userID string, role access.Role) string {
	ts.t.Helper()
	tok, err := ts.gate.Issue(userID, role, time.Hour)
	require.NoError(ts.t, err)
	return tok
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) submit(token, scholarshipID string, income, score float64) *httptest.ResponseRecorder {
	ts.t.Helper()
	body, err := json.Marshal(SubmitApplicationRequest{
		ScholarshipID: scholarshipID,
		FamilyIncome:  income,
		AcademicScore: score,
		Documents:     []string{"uploads/transcript.pdf"},
	})
	require.NoError(ts.t, err)
	return ts.do(http.MethodPost, "/api/v1/student/applications", token, string(body))
}

func (ts *testServer) submitID(token, scholarshipID string, income, score float64) string {
	ts.t.Helper()
	rec := ts.submit(token, scholarshipID, income, score)
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Data SubmissionResponse `json:"data"`
	}
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data.ID
}

func (ts *testServer) count() string {
	ts.t.Helper()
	rec := ts.do(http.MethodGet, "/api/v1/admin/notifications/count", ts.adminToken, "")
	require.Equal(ts.t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Degraded bool            `json:"degraded"`
	Error    *APIError       `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION POLL
// ══════════════════════════════════════════════════════════════════════════════

func TestUnseenCount(t *testing.T) {
	ts := newTestServer(t, nil)

	t.Run("bare integer for admins", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/v1/admin/notifications/count", ts.adminToken, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "0", rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
		assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
		assert.Empty(t, rec.Header().Get("X-Degraded"))
	})

	t.Run("403 for everyone else", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/v1/admin/notifications/count", ts.studentToken, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Forbidden", rec.Body.String())

		rec = ts.do(http.MethodGet, "/api/v1/admin/notifications/count", "", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("bad token is 401", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/v1/admin/notifications/count", "not-a-jwt", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("outage reads as zero", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.submitID(ts.studentToken, ts.demo.ScholarshipIDs[0], 15000, 2.00)
		ts.store.SetFailure(shared.ErrStoreUnavailable)

		rec := ts.do(http.MethodGet, "/api/v1/admin/notifications/count", ts.adminToken, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "0", rec.Body.String())
		assert.Equal(t, "true", rec.Header().Get("X-Degraded"))
	})

	t.Run("rate limited per admin", func(t *testing.T) {
		ts := newTestServer(t, func(c *Config) { c.PollRateLimit = 2 })
		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/v1/admin/notifications/count", ts.adminToken, "").Code)
		}
		rec := ts.do(http.MethodGet, "/api/v1/admin/notifications/count", ts.adminToken, "")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		other := ts.token("admin-2", access.RoleAdmin)
		assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/v1/admin/notifications/count", other, "").Code)
	})
}

func TestAcknowledge(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.submitID(ts.studentToken, ts.demo.ScholarshipIDs[0], 15000, 2.00)
	assert.Equal(t, "1", ts.count())

	rec := ts.do(http.MethodPost, "/api/v1/admin/notifications/ack", ts.adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"updated_count":1}`, rec.Body.String())
	assert.Equal(t, "0", ts.count())

	rec = ts.do(http.MethodPost, "/api/v1/admin/notifications/ack", ts.adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"updated_count":0}`, rec.Body.String())

	rec = ts.do(http.MethodPost, "/api/v1/admin/notifications/ack", ts.studentToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	var resp AcknowledgeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)

	ts.store.SetFailure(shared.ErrStoreUnavailable)
	rec = ts.do(http.MethodPost, "/api/v1/admin/notifications/ack", ts.adminToken, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW
// ══════════════════════════════════════════════════════════════════════════════

func TestQuickActionEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.submitID(ts.studentToken, ts.demo.ScholarshipIDs[0], 15000, 2.00)
	path := "/api/v1/admin/applications/" + id + "/action"

	rec := ts.do(http.MethodPost, path, ts.adminToken, `{"action":"approve"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tr TransitionResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &tr))
	assert.Equal(t, "Approved", string(tr.Status))
	assert.True(t, tr.Changed)

	rec = ts.do(http.MethodPost, path, ts.adminToken, `{"action":"reject"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, path, ts.adminToken, `{"action":"archive"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, path, ts.adminToken, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, path, ts.adminToken, `{"action":"approve","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/v1/admin/applications/missing/action", ts.adminToken, `{"action":"approve"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, path, ts.studentToken, `{"action":"approve"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodPost, path, "", `{"action":"approve"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEditEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.submitID(ts.studentToken, ts.demo.ScholarshipIDs[0], 15000, 2.00)
	path := "/api/v1/admin/applications/" + id

	rec := ts.do(http.MethodPut, path, ts.adminToken, `{"status":"For Interview","remarks":"Thursday 10:00"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tr TransitionResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &tr))
	assert.Equal(t, "For Interview", string(tr.Status))
	require.NotNil(t, tr.Remarks)
	assert.Equal(t, "Thursday 10:00", *tr.Remarks)

	// Quick actions are not offered from For Interview.
	rec = ts.do(http.MethodPost, path+"/action", ts.adminToken, `{"action":"approve"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_transition", env.Error.Code)

	rec = ts.do(http.MethodPut, path, ts.adminToken, `{"status":"Pending","remarks":"Reopened"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	app, err := ts.store.FindApplication(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Pending", app.Status.String())
	assert.Equal(t, "Reopened", app.Remarks)

	rec = ts.do(http.MethodPut, path, ts.adminToken, `{"status":"Archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPut, path, ts.adminToken, `{"status":"Approved","remarks":"`+strings.Repeat("x", 2001)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListApplicationsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.submitID(ts.studentToken, ts.demo.ScholarshipIDs[0], 15000, 2.00)
	other := ts.token(ts.demo.StudentIDs[1], access.RoleStudent)
	ts.submitID(other, ts.demo.ScholarshipIDs[0], 25000, 2.00)

	rec := ts.do(http.MethodGet, "/api/v1/admin/applications", ts.adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []ReviewRowResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, ts.demo.StudentIDs[0], rows[0].StudentID)
	assert.Equal(t, "Aigerim Sadykova", rows[0].StudentName)
	assert.ElementsMatch(t, []string{"approve", "reject"}, []string{string(rows[0].Actions[0]), string(rows[0].Actions[1])})

	rec = ts.do(http.MethodGet, "/api/v1/admin/applications?limit=abc", ts.adminToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/admin/applications", ts.studentToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDashboardEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.submitID(ts.studentToken, ts.demo.ScholarshipIDs[0], 15000, 2.00)

	rec := ts.do(http.MethodGet, "/api/v1/admin/dashboard", ts.adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var dto query.DashboardDTO
	env := decode(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.False(t, env.Degraded)
	assert.Equal(t, 2, dto.TotalStudents)
	assert.Equal(t, 1, dto.QualifiedApplications)
	assert.Equal(t, 1, dto.UnseenPending)

	ts.store.SetFailure(shared.ErrStoreUnavailable)
	rec = ts.do(http.MethodGet, "/api/v1/admin/dashboard", ts.adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Degraded)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION
// ══════════════════════════════════════════════════════════════════════════════

func TestSubmitEndpoint(t *testing.T) {
	t.Run("created then conflict", func(t *testing.T) {
		ts := newTestServer(t, nil)
		rec := ts.submit(ts.studentToken, ts.demo.ScholarshipIDs[0], 15000, 2.00)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Data SubmissionResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Pending", string(resp.Data.Status))
		assert.Equal(t, []string{"uploads/transcript.pdf"}, resp.Data.Documents)

		rec = ts.submit(ts.studentToken, ts.demo.ScholarshipIDs[0], 15000, 2.00)
		assert.Equal(t, http.StatusConflict, rec.Code)
		env := decode(t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, "You have already applied for this scholarship.", env.Error.Message)
	})

	t.Run("validation", func(t *testing.T) {
		ts := newTestServer(t, nil)
		assert.Equal(t, http.StatusBadRequest, ts.submit(ts.studentToken, ts.demo.ScholarshipIDs[0], 0, 2.00).Code)
		assert.Equal(t, http.StatusBadRequest, ts.submit(ts.studentToken, ts.demo.ScholarshipIDs[0], 15000, 2.10).Code)
		assert.Equal(t, http.StatusBadRequest, ts.submit(ts.studentToken, "", 15000, 2.00).Code)
		assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/v1/student/applications", ts.studentToken, "{").Code)
		assert.Equal(t, http.StatusNotFound, ts.submit(ts.studentToken, "missing", 15000, 2.00).Code)
	})

	t.Run("admins cannot submit", func(t *testing.T) {
		ts := newTestServer(t, nil)
		assert.Equal(t, http.StatusForbidden, ts.submit(ts.adminToken, ts.demo.ScholarshipIDs[0], 15000, 2.00).Code)
	})

	t.Run("documents dropped when disabled", func(t *testing.T) {
		ts := newTestServer(t, func(c *Config) { c.AcceptDocuments = false })
		rec := ts.submit(ts.studentToken, ts.demo.ScholarshipIDs[0], 15000, 2.00)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Data SubmissionResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Data.Documents)
	})
}

func TestOpenScholarshipsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/scholarships/open", ts.studentToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []ScholarshipResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Merit Grant", items[0].Name)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/v1/scholarships/open", "", "").Code)
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = ts.do(http.MethodGet, "/health/ready", "garbage-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+ts.adminToken)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	var env struct {
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "req-42", env.RequestID)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, func(c *Config) { c.AllowedOrigins = []string{"https://admin.example"} })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/admin/notifications/count", nil)
	req.Header.Set("Origin", "https://admin.example")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://admin.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
