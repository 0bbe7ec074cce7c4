package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"agrohire/internal/domain"
)

var (
	ErrBookingNotFound    = errors.New("booking not found")
	ErrBookingNumberTaken = errors.New("booking number taken")
	ErrInvalidTransition  = errors.New("invalid booking status transition")
)

const bookingColumns = `
	id, created_at, updated_at, deleted_at, booking_number, user_id, equipment_id,
	start_date, end_date, actual_start_date, actual_end_date, duration_hours,
	total_amount_cents, deposit_amount_cents, status, approved, approved_by,
	approved_at, pickup_location, delivery_location, requires_delivery,
	delivery_fee_cents, operator_required, operator_fee_cents, customer_notes, owner_notes
`

// BookingFilter narrows List results. Zero values mean "no filter".
type BookingFilter struct {
	UserID      *uuid.UUID
	OwnerID     *uuid.UUID
	EquipmentID *uuid.UUID
	Status      domain.BookingStatus
	Limit       int
	Offset      int
}

type BookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(booking *domain.Booking) error {
	return r.CreateWithExt(r.db, booking)
}

func (r *BookingRepository) CreateWithExt(h ExtHandle, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (
			booking_number, user_id, equipment_id, start_date, end_date, duration_hours,
			total_amount_cents, deposit_amount_cents, status, pickup_location,
			delivery_location, requires_delivery, delivery_fee_cents,
			operator_required, operator_fee_cents, customer_notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
		RETURNING id, created_at, updated_at
	`
	err := h.QueryRow(query,
		booking.BookingNumber, booking.UserID, booking.EquipmentID,
		booking.StartDate, booking.EndDate, booking.DurationHours,
		booking.TotalAmountCents, booking.DepositAmountCents, booking.Status,
		booking.PickupLocation, booking.DeliveryLocation, booking.RequiresDelivery,
		booking.DeliveryFeeCents, booking.OperatorRequired, booking.OperatorFeeCents,
		booking.CustomerNotes,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrBookingNumberTaken
		}
		return err
	}
	return nil
}

func (r *BookingRepository) FindByID(id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND deleted_at IS NULL`

	booking := &domain.Booking{}
	err := r.db.Get(booking, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (r *BookingRepository) FindByNumber(number string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_number = $1 AND deleted_at IS NULL`

	booking := &domain.Booking{}
	err := r.db.Get(booking, query, number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (r *BookingRepository) List(filter BookingFilter) ([]domain.Booking, error) {
	var (
		conds = []string{"bookings.deleted_at IS NULL"}
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != nil {
		add("bookings.user_id = $%d", *filter.UserID)
	}
	if filter.OwnerID != nil {
		add("equipment.owner_id = $%d", *filter.OwnerID)
	}
	if filter.EquipmentID != nil {
		add("bookings.equipment_id = $%d", *filter.EquipmentID)
	}
	if filter.Status != "" {
		add("bookings.status = $%d", filter.Status)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	cols := make([]string, 0, 26)
	for _, c := range strings.Split(bookingColumns, ",") {
		cols = append(cols, "bookings."+strings.TrimSpace(c))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		JOIN equipment ON equipment.id = bookings.equipment_id
		WHERE %s
		ORDER BY bookings.created_at DESC
		LIMIT $%d OFFSET $%d
	`, strings.Join(cols, ", "), strings.Join(conds, " AND "), len(args)-1, len(args))

	bookings := []domain.Booking{}
	err := r.db.Select(&bookings, query, args...)
	return bookings, err
}

// CountConflicting counts bookings of the same equipment in a blocking status
// whose windows overlap [start, end). Run inside a transaction that holds the
// equipment row lock.
func (r *BookingRepository) CountConflicting(h ExtHandle, equipmentID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE equipment_id = $1
		  AND status IN ($2, $3)
		  AND start_date < $4
		  AND end_date > $5
		  AND deleted_at IS NULL
	`
	args := []interface{}{equipmentID, domain.BookingConfirmed, domain.BookingInProgress, end, start}
	if exclude != nil {
		query += ` AND id != $6`
		args = append(args, *exclude)
	}

	count := 0
	err := h.Get(&count, query, args...)
	return count, err
}

func (r *BookingRepository) UpdateStatus(id uuid.UUID, from, to domain.BookingStatus) error {
	return r.UpdateStatusWithExt(r.db, id, from, to)
}

// UpdateStatusWithExt moves a booking between statuses. The previous status is
// part of the WHERE clause so concurrent transitions cannot double-apply.
func (r *BookingRepository) UpdateStatusWithExt(h ExtHandle, id uuid.UUID, from, to domain.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status = $3 AND deleted_at IS NULL
	`
	result, err := h.Exec(query, to, id, from)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *BookingRepository) Approve(h ExtHandle, id uuid.UUID, approverID uuid.UUID, ownerNotes string) error {
	query := `
		UPDATE bookings
		SET status = $1,
		    approved = TRUE,
		    approved_by = $2,
		    approved_at = CURRENT_TIMESTAMP,
		    owner_notes = $3,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND status = $5 AND deleted_at IS NULL
	`
	result, err := h.Exec(query, domain.BookingConfirmed, approverID, ownerNotes, id, domain.BookingPending)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *BookingRepository) MarkStarted(id uuid.UUID, at time.Time) error {
	query := `
		UPDATE bookings
		SET status = $1, actual_start_date = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND status = $4 AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query, domain.BookingInProgress, at, id, domain.BookingConfirmed)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *BookingRepository) MarkCompleted(id uuid.UUID, at time.Time) error {
	query := `
		UPDATE bookings
		SET status = $1, actual_end_date = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND status = $4 AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query, domain.BookingCompleted, at, id, domain.BookingInProgress)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// ExpireStalePending cancels pending bookings older than the cutoff that were
// never approved. Returns the cancelled bookings so callers can notify.
func (r *BookingRepository) ExpireStalePending(cutoff time.Time) ([]domain.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE status = $2 AND created_at < $3 AND deleted_at IS NULL
		RETURNING ` + bookingColumns

	bookings := []domain.Booking{}
	err := r.db.Select(&bookings, query, domain.BookingCancelled, domain.BookingPending, cutoff)
	return bookings, err
}

// FindStartingBetween returns confirmed bookings whose rental window opens
// inside [from, to), used for reminder notifications.
func (r *BookingRepository) FindStartingBetween(from, to time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1 AND start_date >= $2 AND start_date < $3 AND deleted_at IS NULL
		ORDER BY start_date
	`
	bookings := []domain.Booking{}
	err := r.db.Select(&bookings, query, domain.BookingConfirmed, from, to)
	return bookings, err
}

// FindOverdueInProgress returns in-progress bookings whose window closed
// before now. Completion stays manual; these feed owner notifications.
func (r *BookingRepository) FindOverdueInProgress(now time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1 AND end_date < $2 AND deleted_at IS NULL
		ORDER BY end_date
	`
	bookings := []domain.Booking{}
	err := r.db.Select(&bookings, query, domain.BookingInProgress, now)
	return bookings, err
}

// CountUpcomingByType counts confirmed and in-progress bookings against an
// equipment type that start within [from, to]. Feeds demand pricing; pending
// bookings and rentals that merely run through the window do not count.
func (r *BookingRepository) CountUpcomingByType(equipmentTypeID uuid.UUID, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		JOIN equipment ON equipment.id = bookings.equipment_id
		WHERE equipment.equipment_type_id = $1
		  AND bookings.status IN ($2, $3)
		  AND bookings.start_date >= $4
		  AND bookings.start_date <= $5
		  AND bookings.deleted_at IS NULL
	`
	count := 0
	err := r.db.Get(&count, query,
		equipmentTypeID,
		domain.BookingConfirmed, domain.BookingInProgress,
		from, to,
	)
	return count, err
}
