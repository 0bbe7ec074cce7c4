package domain

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
	BookingRejected   BookingStatus = "rejected"
)

// ConflictStatuses are the booking statuses that block other bookings of the
// same equipment from overlapping in time.
var ConflictStatuses = []BookingStatus{BookingConfirmed, BookingInProgress}

type Booking struct {
	Tracked
	BookingNumber      string        `db:"booking_number"`
	UserID             uuid.UUID     `db:"user_id"`
	EquipmentID        uuid.UUID     `db:"equipment_id"`
	StartDate          time.Time     `db:"start_date"`
	EndDate            time.Time     `db:"end_date"`
	ActualStartDate    *time.Time    `db:"actual_start_date"`
	ActualEndDate      *time.Time    `db:"actual_end_date"`
	DurationHours      int           `db:"duration_hours"`
	TotalAmountCents   int64         `db:"total_amount_cents"`
	DepositAmountCents int64         `db:"deposit_amount_cents"`
	Status             BookingStatus `db:"status"`
	Approved           bool          `db:"approved"`
	ApprovedBy         *uuid.UUID    `db:"approved_by"`
	ApprovedAt         *time.Time    `db:"approved_at"`
	PickupLocation     string        `db:"pickup_location"`
	DeliveryLocation   string        `db:"delivery_location"`
	RequiresDelivery   bool          `db:"requires_delivery"`
	DeliveryFeeCents   int64         `db:"delivery_fee_cents"`
	OperatorRequired   bool          `db:"operator_required"`
	OperatorFeeCents   int64         `db:"operator_fee_cents"`
	CustomerNotes      string        `db:"customer_notes"`
	OwnerNotes         string        `db:"owner_notes"`
}

// Overlaps reports whether two half-open rental windows intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func (b *Booking) IsActive(now time.Time) bool {
	if b.Status != BookingConfirmed && b.Status != BookingInProgress {
		return false
	}
	return !now.Before(b.StartDate) && !now.After(b.EndDate)
}

func (b *Booking) IsOverdue(now time.Time) bool {
	return b.Status == BookingInProgress && now.After(b.EndDate)
}

func (b *Booking) DurationDays() int {
	return int(b.EndDate.Sub(b.StartDate).Hours() / 24)
}

func (b *Booking) TotalWithFeesCents() int64 {
	return b.TotalAmountCents + b.DeliveryFeeCents + b.OperatorFeeCents
}

// CanTransition reports whether the booking may move to the target status.
//
//	pending    -> confirmed | rejected | cancelled
//	confirmed  -> in_progress | cancelled
//	in_progress -> completed
func (b *Booking) CanTransition(target BookingStatus) bool {
	switch target {
	case BookingConfirmed, BookingRejected:
		return b.Status == BookingPending
	case BookingCancelled:
		return b.Status == BookingPending || b.Status == BookingConfirmed
	case BookingInProgress:
		return b.Status == BookingConfirmed
	case BookingCompleted:
		return b.Status == BookingInProgress
	}
	return false
}

// NewBookingNumber generates a candidate booking number in the form
// AGH-YYYYMMDD-XXXX. Uniqueness is enforced by the database; callers retry
// on collision.
func NewBookingNumber(now time.Time) string {
	return fmt.Sprintf("AGH-%s-%04d", now.Format("20060102"), rand.Intn(10000))
}
