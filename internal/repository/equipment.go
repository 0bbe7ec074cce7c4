package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"agrohire/internal/domain"
)

var (
	ErrEquipmentNotFound     = errors.New("equipment not found")
	ErrEquipmentTypeNotFound = errors.New("equipment type not found")
	ErrReviewExists          = errors.New("review already exists")
)

const equipmentColumns = `
	id, created_at, updated_at, deleted_at, name, equipment_type_id, owner_id,
	description, model_name, year_manufactured, condition, status, city, country,
	daily_rate_cents, hourly_rate_cents, weekly_rate_cents, monthly_rate_cents,
	active, min_booking_hours, max_booking_days
`

// EquipmentFilter narrows List results. Zero values mean "no filter".
type EquipmentFilter struct {
	Category        domain.EquipmentCategory
	EquipmentTypeID *uuid.UUID
	OwnerID         *uuid.UUID
	City            string
	Status          domain.EquipmentStatus
	MaxDailyCents   int64
	Limit           int
	Offset          int
}

type EquipmentRepository struct {
	db *sqlx.DB
}

func NewEquipmentRepository(db *sqlx.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

func (r *EquipmentRepository) CreateType(t *domain.EquipmentType) error {
	query := `
		INSERT INTO equipment_types (name, description, category, base_daily_rate_cents, base_hourly_rate_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(query,
		t.Name, t.Description, t.Category, t.BaseDailyRateCents, t.BaseHourlyRateCents,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *EquipmentRepository) FindTypeByID(id uuid.UUID) (*domain.EquipmentType, error) {
	query := `
		SELECT id, created_at, updated_at, deleted_at, name, description, category,
			base_daily_rate_cents, base_hourly_rate_cents
		FROM equipment_types
		WHERE id = $1 AND deleted_at IS NULL
	`
	t := &domain.EquipmentType{}
	err := r.db.Get(t, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEquipmentTypeNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *EquipmentRepository) ListTypes() ([]domain.EquipmentType, error) {
	query := `
		SELECT id, created_at, updated_at, deleted_at, name, description, category,
			base_daily_rate_cents, base_hourly_rate_cents
		FROM equipment_types
		WHERE deleted_at IS NULL
		ORDER BY name
	`
	types := []domain.EquipmentType{}
	err := r.db.Select(&types, query)
	return types, err
}

func (r *EquipmentRepository) Create(eq *domain.Equipment) error {
	query := `
		INSERT INTO equipment (
			name, equipment_type_id, owner_id, description, model_name, year_manufactured,
			condition, status, city, country, daily_rate_cents, hourly_rate_cents,
			weekly_rate_cents, monthly_rate_cents, active, min_booking_hours, max_booking_days
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(query,
		eq.Name, eq.EquipmentTypeID, eq.OwnerID, eq.Description, eq.ModelName, eq.YearManufactured,
		eq.Condition, eq.Status, eq.City, eq.Country, eq.DailyRateCents, eq.HourlyRateCents,
		eq.WeeklyRateCents, eq.MonthlyRateCents, eq.Active, eq.MinBookingHours, eq.MaxBookingDays,
	).Scan(&eq.ID, &eq.CreatedAt, &eq.UpdatedAt)
}

func (r *EquipmentRepository) FindByID(id uuid.UUID) (*domain.Equipment, error) {
	return r.FindByIDWithExt(r.db, id, false)
}

// FindByIDWithExt loads one equipment row, optionally taking a row lock so
// callers inside a transaction can serialize conflicting bookings.
func (r *EquipmentRepository) FindByIDWithExt(h ExtHandle, id uuid.UUID, forUpdate bool) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1 AND deleted_at IS NULL`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	eq := &domain.Equipment{}
	err := h.Get(eq, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEquipmentNotFound
		}
		return nil, err
	}
	return eq, nil
}

func (r *EquipmentRepository) List(filter EquipmentFilter) ([]domain.Equipment, error) {
	var (
		conds = []string{"equipment.deleted_at IS NULL", "equipment.active = TRUE"}
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Category != "" {
		add("equipment_types.category = $%d", filter.Category)
	}
	if filter.EquipmentTypeID != nil {
		add("equipment.equipment_type_id = $%d", *filter.EquipmentTypeID)
	}
	if filter.OwnerID != nil {
		add("equipment.owner_id = $%d", *filter.OwnerID)
	}
	if filter.City != "" {
		add("LOWER(equipment.city) = LOWER($%d)", filter.City)
	}
	if filter.Status != "" {
		add("equipment.status = $%d", filter.Status)
	}
	if filter.MaxDailyCents > 0 {
		add("equipment.daily_rate_cents <= $%d", filter.MaxDailyCents)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	query := fmt.Sprintf(`
		SELECT equipment.id, equipment.created_at, equipment.updated_at, equipment.deleted_at,
			equipment.name, equipment.equipment_type_id, equipment.owner_id, equipment.description,
			equipment.model_name, equipment.year_manufactured, equipment.condition, equipment.status,
			equipment.city, equipment.country, equipment.daily_rate_cents, equipment.hourly_rate_cents,
			equipment.weekly_rate_cents, equipment.monthly_rate_cents, equipment.active,
			equipment.min_booking_hours, equipment.max_booking_days
		FROM equipment
		JOIN equipment_types ON equipment_types.id = equipment.equipment_type_id
		WHERE %s
		ORDER BY equipment.created_at DESC
		LIMIT $%d OFFSET $%d
	`, strings.Join(conds, " AND "), len(args)-1, len(args))

	items := []domain.Equipment{}
	err := r.db.Select(&items, query, args...)
	return items, err
}

// ListAllActive returns every active equipment item, for batch jobs.
func (r *EquipmentRepository) ListAllActive() ([]domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + `
		FROM equipment
		WHERE active = TRUE AND deleted_at IS NULL
		ORDER BY created_at
	`
	items := []domain.Equipment{}
	err := r.db.Select(&items, query)
	return items, err
}

func (r *EquipmentRepository) Update(eq *domain.Equipment) error {
	query := `
		UPDATE equipment
		SET name = $1, description = $2, model_name = $3, year_manufactured = $4,
		    condition = $5, city = $6, country = $7,
		    daily_rate_cents = $8, hourly_rate_cents = $9, weekly_rate_cents = $10,
		    monthly_rate_cents = $11, active = $12, min_booking_hours = $13,
		    max_booking_days = $14, updated_at = CURRENT_TIMESTAMP
		WHERE id = $15 AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query,
		eq.Name, eq.Description, eq.ModelName, eq.YearManufactured,
		eq.Condition, eq.City, eq.Country,
		eq.DailyRateCents, eq.HourlyRateCents, eq.WeeklyRateCents,
		eq.MonthlyRateCents, eq.Active, eq.MinBookingHours,
		eq.MaxBookingDays, eq.ID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrEquipmentNotFound
	}
	return nil
}

func (r *EquipmentRepository) UpdateStatus(id uuid.UUID, status domain.EquipmentStatus) error {
	return r.UpdateStatusWithExt(r.db, id, status)
}

func (r *EquipmentRepository) UpdateStatusWithExt(h ExtHandle, id uuid.UUID, status domain.EquipmentStatus) error {
	query := `UPDATE equipment SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND deleted_at IS NULL`
	_, err := h.Exec(query, status, id)
	return err
}

func (r *EquipmentRepository) Delete(id uuid.UUID) error {
	query := `UPDATE equipment SET deleted_at = CURRENT_TIMESTAMP WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrEquipmentNotFound
	}
	return nil
}

func (r *EquipmentRepository) CreateReview(review *domain.EquipmentReview) error {
	query := `
		INSERT INTO equipment_reviews (equipment_id, user_id, booking_id, rating, comment, verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(query,
		review.EquipmentID, review.UserID, review.BookingID,
		review.Rating, review.Comment, review.Verified,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrReviewExists
		}
		return err
	}
	return nil
}

func (r *EquipmentRepository) ListReviews(equipmentID uuid.UUID) ([]domain.EquipmentReview, error) {
	query := `
		SELECT id, created_at, deleted_at, equipment_id, user_id, booking_id, rating, comment, verified
		FROM equipment_reviews
		WHERE equipment_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	reviews := []domain.EquipmentReview{}
	err := r.db.Select(&reviews, query, equipmentID)
	return reviews, err
}

func (r *EquipmentRepository) AverageRating(equipmentID uuid.UUID) (float64, int, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count
		FROM equipment_reviews
		WHERE equipment_id = $1 AND deleted_at IS NULL
	`
	var stats struct {
		Avg   float64 `db:"avg"`
		Count int     `db:"count"`
	}
	err := r.db.Get(&stats, query, equipmentID)
	return stats.Avg, stats.Count, err
}
