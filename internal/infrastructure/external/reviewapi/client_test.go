package reviewapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(DefaultClientConfig(srv.URL+"/", "admin-token"), nil)
}

func TestCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, countPath, r.URL.Path)
		assert.Equal(t, "Bearer admin-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("3"))
	})

	res, err := client.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	assert.False(t, res.Degraded)
}

func TestCountDegraded(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Degraded", "true")
		_, _ = w.Write([]byte("0"))
	})

	res, err := client.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.True(t, res.Degraded)
}

func TestCountErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "forbidden", status: http.StatusForbidden, body: "Forbidden", wantErr: ErrForbidden},
		{name: "unauthorized", status: http.StatusUnauthorized, body: "{}", wantErr: ErrUnauthorized},
		{name: "not a number", status: http.StatusOK, body: "<html>", wantErr: ErrMalformedResponse},
		{name: "negative", status: http.StatusOK, body: "-1", wantErr: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Count(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAcknowledgeSecondCallReturnsZero(t *testing.T) {
	var pending int64 = 2
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ackPath, r.URL.Path)
		n := atomic.SwapInt64(&pending, 0)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"updated_count":` + strconv.FormatInt(n, 10) + `}`))
	})

	n, err := client.Acknowledge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = client.Acknowledge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestAcknowledgeRetriesUnavailable(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"success":false,"error":"application store is unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"updated_count":1}`))
	})

	n, err := client.Acknowledge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAcknowledgeDoesNotRetryForbidden(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.Acknowledge(context.Background())
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAcknowledgeFailureBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"boom"}`))
	})

	_, err := client.Acknowledge(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Contains(t, err.Error(), "boom")
}
