package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStore = errors.New("store down")

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func fail(context.Context) error    { return errStore }
func succeed(context.Context) error { return nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	var transitions []string
	cb := New("test",
		WithFailureThreshold(3),
		WithOnStateChange(func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, fail), errStore)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, IsRejected(err))
	assert.False(t, called)
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestBreaker_SuccessResetsConsecutiveFailures(t *testing.T) {
	cb := New("test", WithFailureThreshold(2))
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	require.NoError(t, cb.Execute(ctx, succeed))
	_ = cb.Execute(ctx, fail)

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, Counts{Requests: 3, TotalSuccesses: 1, TotalFailures: 2, ConsecutiveFailures: 1}, cb.Counts())
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	clk := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	ctx := context.Background()

	t.Run("probe success closes", func(t *testing.T) {
		cb := New("test", WithFailureThreshold(1), WithSuccessThreshold(1), WithTimeout(10*time.Second), WithClock(clk.Now))
		_ = cb.Execute(ctx, fail)
		require.Equal(t, StateOpen, cb.State())

		clk.Advance(11 * time.Second)
		require.NoError(t, cb.Execute(ctx, succeed))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("probe failure reopens", func(t *testing.T) {
		cb := New("test", WithFailureThreshold(1), WithTimeout(10*time.Second), WithClock(clk.Now))
		_ = cb.Execute(ctx, fail)

		clk.Advance(11 * time.Second)
		assert.ErrorIs(t, cb.Execute(ctx, fail), errStore)
		assert.Equal(t, StateOpen, cb.State())
		assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrCircuitOpen)
	})
}

func TestBreaker_IsFailureFilter(t *testing.T) {
	notFound := errors.New("not found")
	cb := New("test",
		WithFailureThreshold(1),
		WithIsFailure(func(err error) bool { return !errors.Is(err, notFound) }),
	)

	_ = cb.Execute(context.Background(), func(context.Context) error { return notFound })
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecuteWithData(t *testing.T) {
	cb := StoreBreaker(nil)
	n, err := ExecuteWithData(context.Background(), cb, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, "application-store", cb.Name())
}

func TestExecuteWithFallback(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	ctx := context.Background()
	_ = cb.Execute(ctx, fail)

	err := cb.ExecuteWithFallback(ctx, succeed, func(err error) error {
		assert.ErrorIs(t, err, ErrCircuitOpen)
		return nil
	})
	assert.NoError(t, err)

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Zero(t, cb.Counts().Requests)
}
