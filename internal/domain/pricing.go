package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PricingRuleType string

const (
	RuleSeasonal      PricingRuleType = "seasonal"
	RuleDemand        PricingRuleType = "demand"
	RuleDuration      PricingRuleType = "duration"
	RuleLocation      PricingRuleType = "location"
	RuleEquipmentType PricingRuleType = "equipment_type"
	RuleCustom        PricingRuleType = "custom"
)

type DemandLevel string

const (
	DemandLow    DemandLevel = "low"
	DemandNormal DemandLevel = "normal"
	DemandHigh   DemandLevel = "high"
)

// PricingRule is an owner- or admin-defined price adjustment. Rules attach to
// a single equipment item or to a whole equipment type; the highest-priority
// applicable rule wins.
type PricingRule struct {
	Tracked
	Name                  string          `db:"name"`
	RuleType              PricingRuleType `db:"rule_type"`
	Description           string          `db:"description"`
	EquipmentTypeID       *uuid.UUID      `db:"equipment_type_id"`
	EquipmentID           *uuid.UUID      `db:"equipment_id"`
	StartDate             *time.Time      `db:"start_date"`
	EndDate               *time.Time      `db:"end_date"`
	DaysOfWeek            pq.Int64Array   `db:"days_of_week"`
	HourlyMultiplier      float64         `db:"hourly_multiplier"`
	DailyMultiplier       float64         `db:"daily_multiplier"`
	WeeklyMultiplier      float64         `db:"weekly_multiplier"`
	MonthlyMultiplier     float64         `db:"monthly_multiplier"`
	FixedHourlyRateCents  int64           `db:"fixed_hourly_rate_cents"`
	FixedDailyRateCents   int64           `db:"fixed_daily_rate_cents"`
	FixedWeeklyRateCents  int64           `db:"fixed_weekly_rate_cents"`
	FixedMonthlyRateCents int64           `db:"fixed_monthly_rate_cents"`
	Priority              int             `db:"priority"`
	Active                bool            `db:"active"`
}

// weekday converts Go's Sunday-first weekday to the Monday=0 convention the
// rule rows use.
func weekday(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// IsApplicable checks the rule against a concrete equipment item and date.
func (r *PricingRule) IsApplicable(eq *Equipment, date time.Time) bool {
	if r.EquipmentID != nil && *r.EquipmentID != eq.ID {
		return false
	}
	if r.EquipmentTypeID != nil && *r.EquipmentTypeID != eq.EquipmentTypeID {
		return false
	}
	if r.StartDate != nil && date.Before(*r.StartDate) {
		return false
	}
	if r.EndDate != nil && date.After(*r.EndDate) {
		return false
	}
	if len(r.DaysOfWeek) > 0 {
		found := false
		for _, d := range r.DaysOfWeek {
			if int(d) == weekday(date) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Multiplier returns the adjustment factor for the given rate type.
func (r *PricingRule) Multiplier(rateType RateType) float64 {
	switch rateType {
	case RateHourly:
		return r.HourlyMultiplier
	case RateWeekly:
		return r.WeeklyMultiplier
	case RateMonthly:
		return r.MonthlyMultiplier
	default:
		return r.DailyMultiplier
	}
}

// FixedRateCents returns the fixed-rate override for the rate type, or 0
// when the rule has none.
func (r *PricingRule) FixedRateCents(rateType RateType) int64 {
	switch rateType {
	case RateHourly:
		return r.FixedHourlyRateCents
	case RateWeekly:
		return r.FixedWeeklyRateCents
	case RateMonthly:
		return r.FixedMonthlyRateCents
	default:
		return r.FixedDailyRateCents
	}
}

type Season string

const (
	SeasonPlanting   Season = "planting"
	SeasonGrowing    Season = "growing"
	SeasonHarvesting Season = "harvesting"
	SeasonOff        Season = "off_season"
	SeasonPeak       Season = "peak"
	SeasonLow        Season = "low"
)

type SeasonalPricing struct {
	Tracked
	Name                 string    `db:"name"`
	Season               Season    `db:"season"`
	EquipmentTypeID      uuid.UUID `db:"equipment_type_id"`
	StartDate            time.Time `db:"start_date"`
	EndDate              time.Time `db:"end_date"`
	HourlyMultiplier     float64   `db:"hourly_multiplier"`
	DailyMultiplier      float64   `db:"daily_multiplier"`
	FixedHourlyRateCents int64     `db:"fixed_hourly_rate_cents"`
	FixedDailyRateCents  int64     `db:"fixed_daily_rate_cents"`
	Active               bool      `db:"active"`
}

func (s *SeasonalPricing) ActiveForDate(date time.Time) bool {
	return s.Active && !date.Before(s.StartDate) && !date.After(s.EndDate)
}

// Multiplier returns the seasonal adjustment for the rate type. Seasons carry
// hourly and daily factors only; the daily factor covers the derived bands.
func (s *SeasonalPricing) Multiplier(rateType RateType) float64 {
	if rateType == RateHourly {
		return s.HourlyMultiplier
	}
	return s.DailyMultiplier
}

// FixedRateCents returns the seasonal fixed-rate override for the rate type,
// or 0 when the season has none. Weekly and monthly bands scale the fixed
// daily rate the same way the equipment rate fallbacks do.
func (s *SeasonalPricing) FixedRateCents(rateType RateType) int64 {
	switch rateType {
	case RateHourly:
		return s.FixedHourlyRateCents
	case RateWeekly:
		if s.FixedDailyRateCents > 0 {
			return s.FixedDailyRateCents * 7
		}
		return 0
	case RateMonthly:
		if s.FixedDailyRateCents > 0 {
			return s.FixedDailyRateCents * 30
		}
		return 0
	default:
		return s.FixedDailyRateCents
	}
}

type DemandPricing struct {
	Tracked
	EquipmentTypeID  uuid.UUID `db:"equipment_type_id"`
	LowThreshold     int       `db:"low_threshold"`
	HighThreshold    int       `db:"high_threshold"`
	LowMultiplier    float64   `db:"low_multiplier"`
	NormalMultiplier float64   `db:"normal_multiplier"`
	HighMultiplier   float64   `db:"high_multiplier"`
	WindowDays       int       `db:"window_days"`
	Active           bool      `db:"active"`
}

// Level buckets a booking count into a demand level.
func (d *DemandPricing) Level(bookingCount int) DemandLevel {
	switch {
	case bookingCount <= d.LowThreshold:
		return DemandLow
	case bookingCount >= d.HighThreshold:
		return DemandHigh
	default:
		return DemandNormal
	}
}

func (d *DemandPricing) Multiplier(level DemandLevel) float64 {
	switch level {
	case DemandLow:
		return d.LowMultiplier
	case DemandHigh:
		return d.HighMultiplier
	default:
		return d.NormalMultiplier
	}
}

// PricingHistory records the multiplier applied to an equipment item on a
// given date. One row per equipment per effective date.
type PricingHistory struct {
	Model
	EquipmentID       uuid.UUID   `db:"equipment_id"`
	PricingRuleID     *uuid.UUID  `db:"pricing_rule_id"`
	BaseRateCents     int64       `db:"base_rate_cents"`
	AdjustedRateCents int64       `db:"adjusted_rate_cents"`
	Multiplier        float64     `db:"multiplier"`
	RateType          RateType    `db:"rate_type"`
	DemandLevel       DemandLevel `db:"demand_level"`
	EffectiveDate     time.Time   `db:"effective_date"`
}

// AdjustCents applies a multiplier to an amount in cents, rounding half up.
func AdjustCents(amountCents int64, multiplier float64) int64 {
	return int64(float64(amountCents)*multiplier + 0.5)
}
