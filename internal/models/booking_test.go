package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	// The happy path, end to end.
	assert.True(t, StatusRequested.CanTransitionTo(StatusAwaitingPayment))
	assert.True(t, StatusAwaitingPayment.CanTransitionTo(StatusPaid))
	assert.True(t, StatusPaid.CanTransitionTo(StatusCheckedIn))
	assert.True(t, StatusCheckedIn.CanTransitionTo(StatusReleased))

	// Decisions and expiry.
	assert.True(t, StatusRequested.CanTransitionTo(StatusRejected))
	assert.True(t, StatusRequested.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusRequested.CanTransitionTo(StatusExpired))
	assert.True(t, StatusAwaitingPayment.CanTransitionTo(StatusExpired))

	// No skipping forward.
	assert.False(t, StatusRequested.CanTransitionTo(StatusPaid))
	assert.False(t, StatusRequested.CanTransitionTo(StatusCheckedIn))
	assert.False(t, StatusAwaitingPayment.CanTransitionTo(StatusCheckedIn))
	assert.False(t, StatusPaid.CanTransitionTo(StatusReleased))

	// No moving backward.
	assert.False(t, StatusPaid.CanTransitionTo(StatusAwaitingPayment))
	assert.False(t, StatusCheckedIn.CanTransitionTo(StatusPaid))

	// Paid money never silently evaporates.
	assert.False(t, StatusPaid.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusPaid.CanTransitionTo(StatusExpired))
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []BookingStatus{StatusReleased, StatusRejected, StatusCancelled, StatusExpired} {
		assert.True(t, s.Terminal(), "%s should be terminal", s)
		for _, next := range []BookingStatus{
			StatusRequested, StatusApproved, StatusAwaitingPayment,
			StatusPaid, StatusCheckedIn, StatusReleased,
			StatusRejected, StatusCancelled, StatusExpired,
		} {
			assert.False(t, s.CanTransitionTo(next), "%s -> %s should be illegal", s, next)
		}
	}

	assert.False(t, StatusRequested.Terminal())
	assert.False(t, StatusPaid.Terminal())
}

func TestBlockingStatuses(t *testing.T) {
	assert.True(t, StatusAwaitingPayment.Blocking())
	assert.True(t, StatusPaid.Blocking())
	assert.True(t, StatusCheckedIn.Blocking())

	assert.False(t, StatusRequested.Blocking())
	assert.False(t, StatusRejected.Blocking())
	assert.False(t, StatusCancelled.Blocking())
	assert.False(t, StatusExpired.Blocking())
}

func TestNights(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)

	withDates := &Booking{DurationDays: 7, StartDate: &start, EndDate: &end}
	assert.Equal(t, 3, withDates.Nights(), "confirmed dates win over requested duration")

	pending := &Booking{DurationDays: 7}
	assert.Equal(t, 7, pending.Nights())

	inverted := &Booking{StartDate: &end, EndDate: &start}
	assert.Equal(t, 0, inverted.Nights())
}

func TestDateProposalValid(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)

	assert.True(t, (&DateProposal{StartDate: start, EndDate: end}).Valid())
	assert.False(t, (&DateProposal{StartDate: end, EndDate: start}).Valid())
	assert.False(t, (&DateProposal{StartDate: start, EndDate: start}).Valid())
	assert.False(t, (&DateProposal{EndDate: end}).Valid())
}
