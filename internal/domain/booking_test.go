package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		aStart   time.Time
		aEnd     time.Time
		bStart   time.Time
		bEnd     time.Time
		expected bool
	}{
		{
			name:   "fully inside",
			aStart: date("2026-03-02 08:00"), aEnd: date("2026-03-02 12:00"),
			bStart: date("2026-03-01 00:00"), bEnd: date("2026-03-05 00:00"),
			expected: true,
		},
		{
			name:   "partial overlap at end",
			aStart: date("2026-03-04 00:00"), aEnd: date("2026-03-06 00:00"),
			bStart: date("2026-03-01 00:00"), bEnd: date("2026-03-05 00:00"),
			expected: true,
		},
		{
			name:   "touching boundaries do not overlap",
			aStart: date("2026-03-05 00:00"), aEnd: date("2026-03-07 00:00"),
			bStart: date("2026-03-01 00:00"), bEnd: date("2026-03-05 00:00"),
			expected: false,
		},
		{
			name:   "disjoint",
			aStart: date("2026-03-10 00:00"), aEnd: date("2026-03-12 00:00"),
			bStart: date("2026-03-01 00:00"), bEnd: date("2026-03-05 00:00"),
			expected: false,
		},
		{
			name:   "identical windows",
			aStart: date("2026-03-01 00:00"), aEnd: date("2026-03-05 00:00"),
			bStart: date("2026-03-01 00:00"), bEnd: date("2026-03-05 00:00"),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			assert.Equal(t, tt.expected, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func TestBooking_CanTransition(t *testing.T) {
	tests := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingRejected, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingInProgress, false},
		{BookingConfirmed, BookingInProgress, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingRejected, false},
		{BookingInProgress, BookingCompleted, true},
		{BookingInProgress, BookingCancelled, false},
		{BookingCompleted, BookingInProgress, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingRejected, BookingConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			b := &Booking{Status: tt.from}
			assert.Equal(t, tt.allowed, b.CanTransition(tt.to))
		})
	}
}

func TestBooking_IsActiveAndOverdue(t *testing.T) {
	now := date("2026-03-03 12:00")
	b := &Booking{
		Status:    BookingConfirmed,
		StartDate: date("2026-03-02 08:00"),
		EndDate:   date("2026-03-04 18:00"),
	}
	assert.True(t, b.IsActive(now))
	assert.False(t, b.IsOverdue(now))

	b.Status = BookingInProgress
	assert.True(t, b.IsActive(now))
	assert.True(t, b.IsOverdue(date("2026-03-05 00:00")))

	b.Status = BookingCompleted
	assert.False(t, b.IsActive(now))
	assert.False(t, b.IsOverdue(date("2026-03-05 00:00")))
}

func TestBooking_TotalWithFeesCents(t *testing.T) {
	b := &Booking{
		TotalAmountCents: 500000,
		DeliveryFeeCents: 15000,
		OperatorFeeCents: 80000,
	}
	assert.Equal(t, int64(595000), b.TotalWithFeesCents())
}

func TestNewBookingNumber(t *testing.T) {
	now := date("2026-03-03 12:00")
	number := NewBookingNumber(now)
	assert.True(t, strings.HasPrefix(number, "AGH-20260303-"))
	assert.Len(t, number, len("AGH-20260303-0000"))
}
