package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"agrohire/internal/domain"
)

var ErrPricingRuleNotFound = errors.New("pricing rule not found")

type PricingRepository struct {
	db *sqlx.DB
}

func NewPricingRepository(db *sqlx.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

func (r *PricingRepository) CreateRule(rule *domain.PricingRule) error {
	query := `
		INSERT INTO pricing_rules (
			name, rule_type, description, equipment_type_id, equipment_id,
			start_date, end_date, days_of_week,
			hourly_multiplier, daily_multiplier, weekly_multiplier, monthly_multiplier,
			fixed_hourly_rate_cents, fixed_daily_rate_cents, fixed_weekly_rate_cents,
			fixed_monthly_rate_cents, priority, active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(query,
		rule.Name, rule.RuleType, rule.Description, rule.EquipmentTypeID, rule.EquipmentID,
		rule.StartDate, rule.EndDate, rule.DaysOfWeek,
		rule.HourlyMultiplier, rule.DailyMultiplier, rule.WeeklyMultiplier, rule.MonthlyMultiplier,
		rule.FixedHourlyRateCents, rule.FixedDailyRateCents, rule.FixedWeeklyRateCents,
		rule.FixedMonthlyRateCents, rule.Priority, rule.Active,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
}

func (r *PricingRepository) FindRuleByID(id uuid.UUID) (*domain.PricingRule, error) {
	query := `
		SELECT id, created_at, updated_at, deleted_at, name, rule_type, description,
			equipment_type_id, equipment_id, start_date, end_date, days_of_week,
			hourly_multiplier, daily_multiplier, weekly_multiplier, monthly_multiplier,
			fixed_hourly_rate_cents, fixed_daily_rate_cents, fixed_weekly_rate_cents,
			fixed_monthly_rate_cents, priority, active
		FROM pricing_rules
		WHERE id = $1 AND deleted_at IS NULL
	`
	rule := &domain.PricingRule{}
	err := r.db.Get(rule, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPricingRuleNotFound
		}
		return nil, err
	}
	return rule, nil
}

// ActiveRulesFor returns active rules that could apply to the equipment item,
// highest priority first. Date and day-of-week checks run in Go via
// PricingRule.IsApplicable.
func (r *PricingRepository) ActiveRulesFor(equipmentID, equipmentTypeID uuid.UUID) ([]domain.PricingRule, error) {
	query := `
		SELECT id, created_at, updated_at, deleted_at, name, rule_type, description,
			equipment_type_id, equipment_id, start_date, end_date, days_of_week,
			hourly_multiplier, daily_multiplier, weekly_multiplier, monthly_multiplier,
			fixed_hourly_rate_cents, fixed_daily_rate_cents, fixed_weekly_rate_cents,
			fixed_monthly_rate_cents, priority, active
		FROM pricing_rules
		WHERE active = TRUE
		  AND deleted_at IS NULL
		  AND (equipment_id = $1 OR equipment_id IS NULL)
		  AND (equipment_type_id = $2 OR equipment_type_id IS NULL)
		ORDER BY priority DESC, created_at
	`
	rules := []domain.PricingRule{}
	err := r.db.Select(&rules, query, equipmentID, equipmentTypeID)
	return rules, err
}

func (r *PricingRepository) DeleteRule(id uuid.UUID) error {
	query := `UPDATE pricing_rules SET deleted_at = CURRENT_TIMESTAMP WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPricingRuleNotFound
	}
	return nil
}

func (r *PricingRepository) CreateSeasonal(s *domain.SeasonalPricing) error {
	query := `
		INSERT INTO seasonal_pricing (
			name, season, equipment_type_id, start_date, end_date,
			hourly_multiplier, daily_multiplier, fixed_hourly_rate_cents,
			fixed_daily_rate_cents, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(query,
		s.Name, s.Season, s.EquipmentTypeID, s.StartDate, s.EndDate,
		s.HourlyMultiplier, s.DailyMultiplier, s.FixedHourlyRateCents,
		s.FixedDailyRateCents, s.Active,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// SeasonalFor returns the active seasonal adjustment covering the date for an
// equipment type, or nil when none applies.
func (r *PricingRepository) SeasonalFor(equipmentTypeID uuid.UUID, date time.Time) (*domain.SeasonalPricing, error) {
	query := `
		SELECT id, created_at, updated_at, deleted_at, name, season, equipment_type_id,
			start_date, end_date, hourly_multiplier, daily_multiplier,
			fixed_hourly_rate_cents, fixed_daily_rate_cents, active
		FROM seasonal_pricing
		WHERE equipment_type_id = $1
		  AND active = TRUE
		  AND start_date <= $2
		  AND end_date >= $2
		  AND deleted_at IS NULL
		ORDER BY start_date DESC
		LIMIT 1
	`
	s := &domain.SeasonalPricing{}
	err := r.db.Get(s, query, equipmentTypeID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *PricingRepository) CreateDemand(d *domain.DemandPricing) error {
	query := `
		INSERT INTO demand_pricing (
			equipment_type_id, low_threshold, high_threshold,
			low_multiplier, normal_multiplier, high_multiplier, window_days, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(query,
		d.EquipmentTypeID, d.LowThreshold, d.HighThreshold,
		d.LowMultiplier, d.NormalMultiplier, d.HighMultiplier, d.WindowDays, d.Active,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

// DemandFor returns the demand config for an equipment type, or nil when
// demand pricing is not configured.
func (r *PricingRepository) DemandFor(equipmentTypeID uuid.UUID) (*domain.DemandPricing, error) {
	query := `
		SELECT id, created_at, updated_at, deleted_at, equipment_type_id,
			low_threshold, high_threshold, low_multiplier, normal_multiplier,
			high_multiplier, window_days, active
		FROM demand_pricing
		WHERE equipment_type_id = $1 AND active = TRUE AND deleted_at IS NULL
		LIMIT 1
	`
	d := &domain.DemandPricing{}
	err := r.db.Get(d, query, equipmentTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

// RecordHistory upserts the day's computed price for an equipment item. One
// row per equipment per effective date; recomputation overwrites.
func (r *PricingRepository) RecordHistory(h *domain.PricingHistory) error {
	query := `
		INSERT INTO pricing_history (
			equipment_id, pricing_rule_id, base_rate_cents, adjusted_rate_cents,
			multiplier, rate_type, demand_level, effective_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (equipment_id, effective_date) DO UPDATE
		SET pricing_rule_id = EXCLUDED.pricing_rule_id,
		    base_rate_cents = EXCLUDED.base_rate_cents,
		    adjusted_rate_cents = EXCLUDED.adjusted_rate_cents,
		    multiplier = EXCLUDED.multiplier,
		    rate_type = EXCLUDED.rate_type,
		    demand_level = EXCLUDED.demand_level
		RETURNING id, created_at
	`
	return r.db.QueryRow(query,
		h.EquipmentID, h.PricingRuleID, h.BaseRateCents, h.AdjustedRateCents,
		h.Multiplier, h.RateType, h.DemandLevel, h.EffectiveDate,
	).Scan(&h.ID, &h.CreatedAt)
}

func (r *PricingRepository) HistoryFor(equipmentID uuid.UUID, limit int) ([]domain.PricingHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	query := `
		SELECT id, created_at, deleted_at, equipment_id, pricing_rule_id,
			base_rate_cents, adjusted_rate_cents, multiplier, rate_type,
			demand_level, effective_date
		FROM pricing_history
		WHERE equipment_id = $1 AND deleted_at IS NULL
		ORDER BY effective_date DESC
		LIMIT $2
	`
	history := []domain.PricingHistory{}
	err := r.db.Select(&history, query, equipmentID, limit)
	return history, err
}

// PurgeHistoryBefore deletes history rows older than the cutoff date.
func (r *PricingRepository) PurgeHistoryBefore(cutoff time.Time) (int64, error) {
	query := `DELETE FROM pricing_history WHERE effective_date < $1`
	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
