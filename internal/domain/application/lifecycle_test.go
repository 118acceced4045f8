package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

func TestQuickTransitions(t *testing.T) {
	var lc Lifecycle

	tests := []struct {
		from    Status
		action  Action
		to      Status
		noop    bool
		wantErr error
	}{
		{StatusPending, ActionApprove, StatusApproved, false, nil},
		{StatusRejected, ActionApprove, StatusApproved, false, nil},
		{StatusApproved, ActionApprove, StatusApproved, true, nil},
		{StatusForInterview, ActionApprove, "", false, shared.ErrActionNotOffered},

		{StatusPending, ActionReject, StatusRejected, false, nil},
		{StatusApproved, ActionReject, StatusRejected, false, nil},
		{StatusRejected, ActionReject, StatusRejected, true, nil},
		{StatusForInterview, ActionReject, "", false, shared.ErrActionNotOffered},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			tr, err := lc.Quick(tt.from, tt.action)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, shared.IsStateTransition(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.from, tr.From)
			assert.Equal(t, tt.to, tr.To)
			assert.Equal(t, tt.noop, tr.NoOp)
		})
	}
}

func TestQuickRejectsUnknownInput(t *testing.T) {
	var lc Lifecycle

	_, err := lc.Quick("Archived", ActionApprove)
	assert.ErrorIs(t, err, shared.ErrUnknownStatus)

	_, err = lc.Quick(StatusPending, Action("escalate"))
	assert.ErrorIs(t, err, shared.ErrUnknownAction)
}

func TestEditAcceptsAnyKnownStatus(t *testing.T) {
	var lc Lifecycle

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			tr, err := lc.Edit(from, to)
			require.NoError(t, err)
			assert.Equal(t, to, tr.To)
			assert.Equal(t, TriggerEdit, tr.Trigger)
			assert.Equal(t, from == to, tr.NoOp)
		}
	}

	_, err := lc.Edit(StatusPending, "Waitlisted")
	assert.ErrorIs(t, err, shared.ErrUnknownStatus)
}

func TestOffered(t *testing.T) {
	var lc Lifecycle
	assert.Equal(t, []Action{ActionApprove, ActionReject}, lc.Offered(StatusPending))
	assert.Equal(t, []Action{ActionReject}, lc.Offered(StatusApproved))
	assert.Equal(t, []Action{ActionApprove}, lc.Offered(StatusRejected))
	assert.Empty(t, lc.Offered(StatusForInterview))
}

func TestParseStatus(t *testing.T) {
	for raw, want := range map[string]Status{
		"Pending":       StatusPending,
		" approved ":    StatusApproved,
		"REJECTED":      StatusRejected,
		"For Interview": StatusForInterview,
		"for_interview": StatusForInterview,
		"ForInterview":  StatusForInterview,
	} {
		got, err := ParseStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseStatus("maybe")
	assert.ErrorIs(t, err, shared.ErrUnknownStatus)
	assert.True(t, shared.IsValidation(err))
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Approve")
	require.NoError(t, err)
	assert.Equal(t, ActionApprove, a)

	_, err = ParseAction("delete")
	assert.ErrorIs(t, err, shared.ErrUnknownAction)
}

func TestNewApplication(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	app, err := New("student-1", "scholarship-1", []string{" a.pdf ", "", "b.pdf"}, now)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, app.Status)
	assert.False(t, app.AdminSeen)
	assert.True(t, app.IsPendingUnseen())
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, app.Documents)
	assert.Equal(t, now, app.DateApplied)
	assert.NotEmpty(t, app.ID)

	_, err = New("", "scholarship-1", nil, now)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	docs := make([]string, MaxDocuments+1)
	for i := range docs {
		docs[i] = "doc.pdf"
	}
	_, err = New("student-1", "scholarship-1", docs, now)
	assert.ErrorIs(t, err, shared.ErrTooManyDocuments)
}

func TestValidateRemarks(t *testing.T) {
	assert.NoError(t, ValidateRemarks(""))

	long := make([]rune, MaxRemarksLength+1)
	for i := range long {
		long[i] = 'ж'
	}
	assert.ErrorIs(t, ValidateRemarks(string(long)), shared.ErrRemarksTooLong)
	assert.NoError(t, ValidateRemarks(string(long[:MaxRemarksLength])))
}
