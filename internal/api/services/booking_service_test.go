package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrohire/internal/api/ws"
	"agrohire/internal/domain"
	"agrohire/internal/repository"
)

func newTestBookingService(t *testing.T) *BookingService {
	t.Helper()

	bookingRepo := repository.NewBookingRepository(testDB)
	equipmentRepo := repository.NewEquipmentRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	pricingRepo := repository.NewPricingRepository(testDB)

	pricing := NewPricingService(pricingRepo, equipmentRepo, bookingRepo, userRepo)
	notifications := newTestNotificationService(testDB, nil)

	return NewBookingService(testDB, bookingRepo, equipmentRepo, userRepo, pricing, notifications, ws.GetHub())
}

func bookingWindow(daysFromNow, days int) (time.Time, time.Time) {
	start := time.Now().Add(time.Duration(daysFromNow) * 24 * time.Hour).Truncate(time.Hour)
	return start, start.Add(time.Duration(days) * 24 * time.Hour)
}

func TestBookingService_Create(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}
	service := newTestBookingService(t)

	owner := createTestUser(t, testDB, domain.RoleEquipmentOwner)
	farmer := createTestUser(t, testDB, domain.RoleFarmer)
	_, eq := createTestEquipment(t, testDB, owner.ID)

	t.Run("successful booking", func(t *testing.T) {
		start, end := bookingWindow(10, 2)
		booking, err := service.Create(context.Background(), farmer.ID, CreateBookingInput{
			EquipmentID: eq.ID,
			StartDate:   start,
			EndDate:     end,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.BookingPending, booking.Status)
		assert.Equal(t, 48, booking.DurationHours)
		assert.Regexp(t, `^AGH-\d{8}-\d{4}$`, booking.BookingNumber)
		assert.Positive(t, booking.TotalAmountCents)
	})

	t.Run("pending bookings do not block", func(t *testing.T) {
		start, end := bookingWindow(20, 2)
		input := CreateBookingInput{EquipmentID: eq.ID, StartDate: start, EndDate: end}

		_, err := service.Create(context.Background(), farmer.ID, input)
		require.NoError(t, err)

		// Same window again: the first booking is still pending, so no conflict.
		_, err = service.Create(context.Background(), farmer.ID, input)
		assert.NoError(t, err)
	})

	t.Run("confirmed booking conflicts", func(t *testing.T) {
		start, end := bookingWindow(30, 2)
		first, err := service.Create(context.Background(), farmer.ID, CreateBookingInput{
			EquipmentID: eq.ID, StartDate: start, EndDate: end,
		})
		require.NoError(t, err)

		_, err = service.Approve(context.Background(), owner.ID, first.ID, "")
		require.NoError(t, err)

		// Overlapping window fails.
		_, err = service.Create(context.Background(), farmer.ID, CreateBookingInput{
			EquipmentID: eq.ID, StartDate: start.Add(24 * time.Hour), EndDate: end.Add(24 * time.Hour),
		})
		assert.ErrorIs(t, err, ErrBookingConflict)

		// Back-to-back window starting exactly at the other end is fine.
		_, err = service.Create(context.Background(), farmer.ID, CreateBookingInput{
			EquipmentID: eq.ID, StartDate: end, EndDate: end.Add(24 * time.Hour),
		})
		assert.NoError(t, err)
	})

	t.Run("window validation", func(t *testing.T) {
		start, end := bookingWindow(5, 1)

		_, err := service.Create(context.Background(), farmer.ID, CreateBookingInput{
			EquipmentID: eq.ID, StartDate: start.Add(-10 * 24 * time.Hour), EndDate: end,
		})
		assert.ErrorIs(t, err, ErrWindowInPast)

		_, err = service.Create(context.Background(), farmer.ID, CreateBookingInput{
			EquipmentID: eq.ID, StartDate: start, EndDate: start,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)

		// Equipment requires at least 4 hours.
		_, err = service.Create(context.Background(), farmer.ID, CreateBookingInput{
			EquipmentID: eq.ID, StartDate: start, EndDate: start.Add(2 * time.Hour),
		})
		assert.ErrorIs(t, err, ErrWindowTooShort)

		// And at most 30 days.
		_, err = service.Create(context.Background(), farmer.ID, CreateBookingInput{
			EquipmentID: eq.ID, StartDate: start, EndDate: start.Add(40 * 24 * time.Hour),
		})
		assert.ErrorIs(t, err, ErrWindowTooLong)
	})

	t.Run("unavailable equipment", func(t *testing.T) {
		_, down := createTestEquipment(t, testDB, owner.ID)
		equipmentRepo := repository.NewEquipmentRepository(testDB)
		require.NoError(t, equipmentRepo.UpdateStatus(down.ID, domain.EquipmentMaintenance))

		start, end := bookingWindow(3, 1)
		_, err := service.Create(context.Background(), farmer.ID, CreateBookingInput{
			EquipmentID: down.ID, StartDate: start, EndDate: end,
		})
		assert.ErrorIs(t, err, ErrEquipmentNotAvailable)
	})
}

func TestBookingService_CheckAvailability(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}
	service := newTestBookingService(t)

	owner := createTestUser(t, testDB, domain.RoleEquipmentOwner)
	farmer := createTestUser(t, testDB, domain.RoleFarmer)
	_, eq := createTestEquipment(t, testDB, owner.ID)

	start, end := bookingWindow(10, 3)

	available, err := service.CheckAvailability(context.Background(), eq.ID, start, end)
	require.NoError(t, err)
	assert.True(t, available)

	booking, err := service.Create(context.Background(), farmer.ID, CreateBookingInput{
		EquipmentID: eq.ID, StartDate: start, EndDate: end,
	})
	require.NoError(t, err)
	_, err = service.Approve(context.Background(), owner.ID, booking.ID, "")
	require.NoError(t, err)

	available, err = service.CheckAvailability(context.Background(), eq.ID, start.Add(time.Hour), end.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, available)
}

func TestBookingService_Transitions(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}
	service := newTestBookingService(t)

	owner := createTestUser(t, testDB, domain.RoleEquipmentOwner)
	farmer := createTestUser(t, testDB, domain.RoleFarmer)
	stranger := createTestUser(t, testDB, domain.RoleEquipmentOwner)
	_, eq := createTestEquipment(t, testDB, owner.ID)

	create := func(t *testing.T, daysFromNow int) *domain.Booking {
		t.Helper()
		start, end := bookingWindow(daysFromNow, 1)
		booking, err := service.Create(context.Background(), farmer.ID, CreateBookingInput{
			EquipmentID: eq.ID, StartDate: start, EndDate: end,
		})
		require.NoError(t, err)
		return booking
	}

	t.Run("approve and complete lifecycle", func(t *testing.T) {
		booking := create(t, 10)

		approved, err := service.Approve(context.Background(), owner.ID, booking.ID, "bring fuel")
		require.NoError(t, err)
		assert.Equal(t, domain.BookingConfirmed, approved.Status)
		assert.True(t, approved.Approved)
		require.NotNil(t, approved.ApprovedBy)
		assert.Equal(t, owner.ID, *approved.ApprovedBy)

		started, err := service.Start(context.Background(), owner.ID, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingInProgress, started.Status)
		assert.NotNil(t, started.ActualStartDate)

		completed, err := service.Complete(context.Background(), owner.ID, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingCompleted, completed.Status)
		assert.NotNil(t, completed.ActualEndDate)
	})

	t.Run("approve twice fails", func(t *testing.T) {
		booking := create(t, 20)
		_, err := service.Approve(context.Background(), owner.ID, booking.ID, "")
		require.NoError(t, err)

		_, err = service.Approve(context.Background(), owner.ID, booking.ID, "")
		assert.ErrorIs(t, err, repository.ErrInvalidTransition)
	})

	t.Run("only the owner approves", func(t *testing.T) {
		booking := create(t, 30)
		_, err := service.Approve(context.Background(), stranger.ID, booking.ID, "")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("reject records reason", func(t *testing.T) {
		booking := create(t, 40)
		rejected, err := service.Reject(context.Background(), owner.ID, booking.ID, "under repair")
		require.NoError(t, err)
		assert.Equal(t, domain.BookingRejected, rejected.Status)
		assert.Contains(t, rejected.OwnerNotes, "under repair")
	})

	t.Run("customer cancels pending", func(t *testing.T) {
		booking := create(t, 50)
		cancelled, err := service.Cancel(context.Background(), farmer.ID, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	})

	t.Run("cancel after start fails", func(t *testing.T) {
		booking := create(t, 60)
		_, err := service.Approve(context.Background(), owner.ID, booking.ID, "")
		require.NoError(t, err)
		_, err = service.Start(context.Background(), owner.ID, booking.ID)
		require.NoError(t, err)

		_, err = service.Cancel(context.Background(), farmer.ID, booking.ID)
		assert.ErrorIs(t, err, repository.ErrInvalidTransition)
	})
}

func TestBookingService_ExpireStalePending(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}
	service := newTestBookingService(t)

	owner := createTestUser(t, testDB, domain.RoleEquipmentOwner)
	farmer := createTestUser(t, testDB, domain.RoleFarmer)
	_, eq := createTestEquipment(t, testDB, owner.ID)

	start, end := bookingWindow(10, 1)
	booking, err := service.Create(context.Background(), farmer.ID, CreateBookingInput{
		EquipmentID: eq.ID, StartDate: start, EndDate: end,
	})
	require.NoError(t, err)

	// Backdate the booking so the expiry cutoff catches it.
	_, err = testDB.Exec(
		`UPDATE bookings SET created_at = CURRENT_TIMESTAMP - INTERVAL '8 days' WHERE id = $1`,
		booking.ID)
	require.NoError(t, err)

	expired, err := service.ExpireStalePending(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, expired, 1)

	reloaded, err := repository.NewBookingRepository(testDB).FindByID(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, reloaded.Status)
}
