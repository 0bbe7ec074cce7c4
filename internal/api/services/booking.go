package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"agrohire/internal/api/ws"
	"agrohire/internal/domain"
	"agrohire/internal/metrics"
	"agrohire/internal/repository"
)

var (
	ErrBookingConflict       = errors.New("booking conflicts with an existing booking")
	ErrEquipmentNotAvailable = errors.New("equipment not available for booking")
	ErrWindowTooShort        = errors.New("booking shorter than the equipment minimum")
	ErrWindowTooLong         = errors.New("booking longer than the equipment maximum")
	ErrWindowInPast          = errors.New("booking window starts in the past")
)

const bookingNumberRetries = 3

type CreateBookingInput struct {
	EquipmentID      uuid.UUID
	StartDate        time.Time
	EndDate          time.Time
	PickupLocation   string
	DeliveryLocation string
	RequiresDelivery bool
	OperatorRequired bool
	CustomerNotes    string
}

type BookingService struct {
	db             *sqlx.DB
	bookingRepo    *repository.BookingRepository
	equipmentRepo  *repository.EquipmentRepository
	userRepo       *repository.UserRepository
	pricingService *PricingService
	notifications  *NotificationService
	hub            *ws.Hub
}

func NewBookingService(
	db *sqlx.DB,
	bookingRepo *repository.BookingRepository,
	equipmentRepo *repository.EquipmentRepository,
	userRepo *repository.UserRepository,
	pricingService *PricingService,
	notifications *NotificationService,
	hub *ws.Hub,
) *BookingService {
	return &BookingService{
		db:             db,
		bookingRepo:    bookingRepo,
		equipmentRepo:  equipmentRepo,
		userRepo:       userRepo,
		pricingService: pricingService,
		notifications:  notifications,
		hub:            hub,
	}
}

// Create books equipment for a window. The equipment row is locked for the
// duration of the transaction so two concurrent requests for the same window
// serialize; the conflict count then decides which one wins.
func (s *BookingService) Create(ctx context.Context, userID uuid.UUID, input CreateBookingInput) (*domain.Booking, error) {
	now := time.Now()
	if input.StartDate.Before(now) {
		return nil, ErrWindowInPast
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, repository.ErrUserNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	eq, err := s.equipmentRepo.FindByIDWithExt(tx, input.EquipmentID, true)
	if err != nil {
		return nil, err
	}
	if !eq.IsAvailable() {
		return nil, ErrEquipmentNotAvailable
	}

	durationHours := int(input.EndDate.Sub(input.StartDate).Hours())
	if durationHours < 1 {
		durationHours = 1
	}
	if durationHours < eq.MinBookingHours {
		return nil, ErrWindowTooShort
	}
	if eq.MaxBookingDays > 0 && durationHours > eq.MaxBookingDays*24 {
		return nil, ErrWindowTooLong
	}

	conflicts, err := s.bookingRepo.CountConflicting(tx, eq.ID, input.StartDate, input.EndDate, nil)
	if err != nil {
		return nil, err
	}
	if conflicts > 0 {
		return nil, ErrBookingConflict
	}

	quote, err := s.pricingService.QuoteForEquipment(ctx, eq, input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		UserID:           userID,
		EquipmentID:      eq.ID,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		DurationHours:    durationHours,
		TotalAmountCents: quote.TotalCents,
		Status:           domain.BookingPending,
		PickupLocation:   input.PickupLocation,
		DeliveryLocation: input.DeliveryLocation,
		RequiresDelivery: input.RequiresDelivery,
		OperatorRequired: input.OperatorRequired,
		CustomerNotes:    input.CustomerNotes,
	}

	for attempt := 0; ; attempt++ {
		booking.BookingNumber = domain.NewBookingNumber(now)
		err = s.bookingRepo.CreateWithExt(tx, booking)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrBookingNumberTaken) || attempt >= bookingNumberRetries {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	metrics.CountBookingCreated()

	_ = s.notifications.Publish(ctx, Event{
		RecipientID: eq.OwnerID,
		Category:    domain.CategoryBooking,
		Subject:     "New booking request",
		Message: fmt.Sprintf("%s requested %s from %s to %s.",
			user.DisplayName(), eq.Name,
			input.StartDate.Format("2006-01-02 15:04"), input.EndDate.Format("2006-01-02 15:04")),
		SMSMessage: fmt.Sprintf("AgroHire: new booking request %s for %s", booking.BookingNumber, eq.Name),
		Metadata:   map[string]string{"booking_id": booking.ID.String()},
	})

	return booking, nil
}

func (s *BookingService) GetByID(ctx context.Context, userID, bookingID uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookingRepo.FindByID(bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireParticipant(userID, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) ListForUser(ctx context.Context, userID uuid.UUID, status domain.BookingStatus, limit, offset int) ([]domain.Booking, error) {
	return s.bookingRepo.List(repository.BookingFilter{
		UserID: &userID,
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
}

// ListForOwner returns bookings against any equipment the owner rents out.
func (s *BookingService) ListForOwner(ctx context.Context, ownerID uuid.UUID, status domain.BookingStatus, limit, offset int) ([]domain.Booking, error) {
	return s.bookingRepo.List(repository.BookingFilter{
		OwnerID: &ownerID,
		Status:  status,
		Limit:   limit,
		Offset:  offset,
	})
}

// CheckAvailability reports whether a window is free of blocking bookings.
func (s *BookingService) CheckAvailability(ctx context.Context, equipmentID uuid.UUID, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, ErrInvalidInput
	}
	eq, err := s.equipmentRepo.FindByID(equipmentID)
	if err != nil {
		return false, err
	}
	if !eq.IsAvailable() {
		return false, nil
	}
	conflicts, err := s.bookingRepo.CountConflicting(s.db, equipmentID, start, end, nil)
	if err != nil {
		return false, err
	}
	return conflicts == 0, nil
}

// Approve confirms a pending booking. Only the equipment owner (or an admin)
// may approve.
func (s *BookingService) Approve(ctx context.Context, ownerID, bookingID uuid.UUID, ownerNotes string) (*domain.Booking, error) {
	booking, eq, err := s.loadForOwner(ownerID, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.CanTransition(domain.BookingConfirmed) {
		return nil, repository.ErrInvalidTransition
	}

	if err := s.bookingRepo.Approve(s.db, bookingID, ownerID, ownerNotes); err != nil {
		return nil, err
	}

	s.notifyRenter(ctx, booking, eq, "Booking confirmed",
		fmt.Sprintf("Your booking %s for %s has been confirmed.", booking.BookingNumber, eq.Name))
	_ = s.hub.SendBookingUpdate(booking.UserID, booking.ID, booking.BookingNumber, string(domain.BookingConfirmed))

	return s.bookingRepo.FindByID(bookingID)
}

func (s *BookingService) Reject(ctx context.Context, ownerID, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	booking, eq, err := s.loadForOwner(ownerID, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.CanTransition(domain.BookingRejected) {
		return nil, repository.ErrInvalidTransition
	}

	if err := s.bookingRepo.UpdateStatus(bookingID, booking.Status, domain.BookingRejected); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Your booking %s for %s was rejected by the owner.", booking.BookingNumber, eq.Name)
	if reason != "" {
		message += " Reason: " + reason
	}
	s.notifyRenter(ctx, booking, eq, "Booking rejected", message)
	_ = s.hub.SendBookingUpdate(booking.UserID, booking.ID, booking.BookingNumber, string(domain.BookingRejected))

	return s.bookingRepo.FindByID(bookingID)
}

// Cancel lets the renter back out of a pending or confirmed booking.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookingRepo.FindByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrForbidden
	}
	if !booking.CanTransition(domain.BookingCancelled) {
		return nil, repository.ErrInvalidTransition
	}

	if err := s.bookingRepo.UpdateStatus(bookingID, booking.Status, domain.BookingCancelled); err != nil {
		return nil, err
	}

	eq, err := s.equipmentRepo.FindByID(booking.EquipmentID)
	if err == nil {
		user, uerr := s.userRepo.FindByID(userID)
		name := "the renter"
		if uerr == nil {
			name = user.DisplayName()
		}
		_ = s.notifications.Publish(ctx, Event{
			RecipientID: eq.OwnerID,
			Category:    domain.CategoryBooking,
			Subject:     "Booking cancelled",
			Message: fmt.Sprintf("Booking %s for %s was cancelled by %s.",
				booking.BookingNumber, eq.Name, name),
			Metadata: map[string]string{"booking_id": booking.ID.String()},
		})
	}

	return s.bookingRepo.FindByID(bookingID)
}

// Start marks the handover: booking goes in_progress and the equipment shows
// as booked.
func (s *BookingService) Start(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error) {
	booking, eq, err := s.loadForOwner(ownerID, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.bookingRepo.MarkStarted(bookingID, time.Now()); err != nil {
		return nil, err
	}
	if err := s.equipmentRepo.UpdateStatus(eq.ID, domain.EquipmentBooked); err != nil {
		return nil, err
	}

	s.notifyRenter(ctx, booking, eq, "Rental started",
		fmt.Sprintf("Your rental %s for %s has started.", booking.BookingNumber, eq.Name))
	_ = s.hub.SendBookingUpdate(booking.UserID, booking.ID, booking.BookingNumber, string(domain.BookingInProgress))

	return s.bookingRepo.FindByID(bookingID)
}

// Complete marks the return: booking completes and the equipment is available
// again.
func (s *BookingService) Complete(ctx context.Context, ownerID, bookingID uuid.UUID) (*domain.Booking, error) {
	booking, eq, err := s.loadForOwner(ownerID, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.bookingRepo.MarkCompleted(bookingID, time.Now()); err != nil {
		return nil, err
	}
	if err := s.equipmentRepo.UpdateStatus(eq.ID, domain.EquipmentAvailable); err != nil {
		return nil, err
	}

	s.notifyRenter(ctx, booking, eq, "Rental completed",
		fmt.Sprintf("Your rental %s for %s is complete. Thanks for using AgroHire.", booking.BookingNumber, eq.Name))
	_ = s.hub.SendBookingUpdate(booking.UserID, booking.ID, booking.BookingNumber, string(domain.BookingCompleted))

	return s.bookingRepo.FindByID(bookingID)
}

// ExpireStalePending cancels bookings that sat unapproved past the cutoff and
// notifies their renters. The scheduler runs it daily.
func (s *BookingService) ExpireStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	expired, err := s.bookingRepo.ExpireStalePending(cutoff)
	if err != nil {
		return 0, err
	}

	for i := range expired {
		booking := &expired[i]
		_ = s.notifications.Publish(ctx, Event{
			RecipientID: booking.UserID,
			Category:    domain.CategoryBooking,
			Subject:     "Booking expired",
			Message: fmt.Sprintf("Your booking %s expired because the owner did not respond in time.",
				booking.BookingNumber),
			Metadata: map[string]string{"booking_id": booking.ID.String()},
		})
	}
	return len(expired), nil
}

// SendReminders notifies renters whose confirmed bookings start within the
// next day.
func (s *BookingService) SendReminders(ctx context.Context, now time.Time) (int, error) {
	upcoming, err := s.bookingRepo.FindStartingBetween(now, now.Add(24*time.Hour))
	if err != nil {
		return 0, err
	}

	for i := range upcoming {
		booking := &upcoming[i]
		eq, err := s.equipmentRepo.FindByID(booking.EquipmentID)
		if err != nil {
			continue
		}
		_ = s.notifications.Publish(ctx, Event{
			RecipientID: booking.UserID,
			Category:    domain.CategoryBooking,
			Subject:     "Upcoming rental reminder",
			Message: fmt.Sprintf("Reminder: your rental %s for %s starts at %s.",
				booking.BookingNumber, eq.Name, booking.StartDate.Format("2006-01-02 15:04")),
			SMSMessage: fmt.Sprintf("AgroHire reminder: rental %s starts %s",
				booking.BookingNumber, booking.StartDate.Format("Jan 2 15:04")),
			Metadata: map[string]string{"booking_id": booking.ID.String()},
		})
	}
	return len(upcoming), nil
}

// NotifyOverdue flags in-progress bookings past their end date to the
// equipment owner. The rental is not completed automatically; the owner
// closes it out after the equipment is returned.
func (s *BookingService) NotifyOverdue(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.bookingRepo.FindOverdueInProgress(now)
	if err != nil {
		return 0, err
	}

	for i := range overdue {
		booking := &overdue[i]
		eq, err := s.equipmentRepo.FindByID(booking.EquipmentID)
		if err != nil {
			continue
		}
		_ = s.notifications.Publish(ctx, Event{
			RecipientID: eq.OwnerID,
			Category:    domain.CategoryBooking,
			Priority:    domain.PriorityHigh,
			Subject:     "Rental overdue",
			Message: fmt.Sprintf("Rental %s for %s ended %s and has not been completed.",
				booking.BookingNumber, eq.Name, booking.EndDate.Format("2006-01-02 15:04")),
			Metadata: map[string]string{"booking_id": booking.ID.String()},
		})
	}
	return len(overdue), nil
}

func (s *BookingService) loadForOwner(ownerID, bookingID uuid.UUID) (*domain.Booking, *domain.Equipment, error) {
	booking, err := s.bookingRepo.FindByID(bookingID)
	if err != nil {
		return nil, nil, err
	}
	eq, err := s.equipmentRepo.FindByID(booking.EquipmentID)
	if err != nil {
		return nil, nil, err
	}
	if eq.OwnerID != ownerID {
		user, err := s.userRepo.FindByID(ownerID)
		if err != nil || !user.IsAdmin() {
			return nil, nil, ErrForbidden
		}
	}
	return booking, eq, nil
}

func (s *BookingService) requireParticipant(userID uuid.UUID, booking *domain.Booking) error {
	if booking.UserID == userID {
		return nil
	}
	eq, err := s.equipmentRepo.FindByID(booking.EquipmentID)
	if err == nil && eq.OwnerID == userID {
		return nil
	}
	user, err := s.userRepo.FindByID(userID)
	if err == nil && user.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

func (s *BookingService) notifyRenter(ctx context.Context, booking *domain.Booking, eq *domain.Equipment, subject, message string) {
	_ = s.notifications.Publish(ctx, Event{
		RecipientID: booking.UserID,
		Category:    domain.CategoryBooking,
		Subject:     subject,
		Message:     message,
		SMSMessage:  fmt.Sprintf("AgroHire: %s (%s)", subject, booking.BookingNumber),
		Metadata:    map[string]string{"booking_id": booking.ID.String()},
	})
}
