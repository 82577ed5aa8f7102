package leave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/leave-portal/leave"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, leave.CanTransition(leave.StatusPending, leave.StatusApproved))
	assert.True(t, leave.CanTransition(leave.StatusPending, leave.StatusRejected))

	assert.False(t, leave.CanTransition(leave.StatusApproved, leave.StatusRejected))
	assert.False(t, leave.CanTransition(leave.StatusRejected, leave.StatusApproved))
	assert.False(t, leave.CanTransition(leave.StatusPending, leave.StatusPending))
	assert.False(t, leave.CanTransition(leave.StatusApproved, leave.StatusPending))
}

func TestReview_Check(t *testing.T) {
	// GIVEN: A pending record
	// WHEN: Rejecting without notes
	// THEN: ErrReviewNotesRequired; approving needs no notes

	err := leave.Review{Status: leave.StatusRejected, Notes: "   "}.Check(leave.StatusPending)
	assert.ErrorIs(t, err, leave.ErrReviewNotesRequired)
	assert.True(t, leave.IsReviewError(err))

	assert.NoError(t, leave.Review{Status: leave.StatusRejected, Notes: "Overlaps exams"}.Check(leave.StatusPending))
	assert.NoError(t, leave.Review{Status: leave.StatusApproved}.Check(leave.StatusPending))
}

func TestReview_Check_TerminalStatus(t *testing.T) {
	err := leave.Review{Status: leave.StatusRejected, Notes: "late"}.Check(leave.StatusApproved)

	assert.ErrorIs(t, err, leave.ErrInvalidTransition)
}

func TestReviewMessage(t *testing.T) {
	assert.Equal(t, "Leave approved successfully.", leave.ReviewMessage(leave.StatusApproved))
	assert.Equal(t, "Leave rejected successfully.", leave.ReviewMessage(leave.StatusRejected))
}
