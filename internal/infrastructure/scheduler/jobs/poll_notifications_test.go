package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarhub/scholarship-review/internal/domain/notification"
	"github.com/scholarhub/scholarship-review/internal/infrastructure/external/reviewapi"
)

type fakeAPI struct {
	counts   []int
	countErr error
	ackErr   error
	acks     int
}

func (f *fakeAPI) Count(context.Context) (reviewapi.CountResult, error) {
	if f.countErr != nil {
		return reviewapi.CountResult{}, f.countErr
	}
	n := f.counts[0]
	if len(f.counts) > 1 {
		f.counts = f.counts[1:]
	}
	return reviewapi.CountResult{Count: n}, nil
}

func (f *fakeAPI) Acknowledge(context.Context) (int64, error) {
	if f.ackErr != nil {
		return 0, f.ackErr
	}
	f.acks++
	return 1, nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestPollDrivesBadge(t *testing.T) {
	api := &fakeAPI{counts: []int{0, 1, 3, 0}}
	var changes []notification.Change
	job := NewPollNotificationsJob(api, PollNotificationsConfig{
		OnChange: func(c notification.Change) { changes = append(changes, c) },
	}, discard())

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, job.Run(ctx))
	}

	assert.Equal(t, notification.BadgeHidden, job.Badge().State())
	require.Len(t, changes, 3)
	assert.True(t, changes[0].Appeared())
	assert.Equal(t, 3, changes[1].To.Count)
	assert.True(t, changes[2].Cleared())
}

func TestPollFailureKeepsBadge(t *testing.T) {
	api := &fakeAPI{counts: []int{2}}
	job := NewPollNotificationsJob(api, PollNotificationsConfig{}, discard())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 2, job.Badge().Count)

	api.countErr = reviewapi.ErrForbidden
	err := job.Run(context.Background())
	assert.ErrorIs(t, err, reviewapi.ErrForbidden)
	assert.Equal(t, 2, job.Badge().Count)
}

func TestAutoAckHidesBadge(t *testing.T) {
	api := &fakeAPI{counts: []int{1, 0}}
	job := NewPollNotificationsJob(api, PollNotificationsConfig{AutoAck: true}, discard())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, api.acks)
	assert.Equal(t, notification.BadgeHidden, job.Badge().State())

	// Nothing visible, nothing to acknowledge.
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, api.acks)
}

func TestAutoAckFailureLeavesBadgeVisible(t *testing.T) {
	api := &fakeAPI{counts: []int{4}, ackErr: errors.New("unavailable")}
	job := NewPollNotificationsJob(api, PollNotificationsConfig{AutoAck: true}, discard())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 4, job.Badge().Count)
}
