package domain

import (
	"github.com/google/uuid"
)

type EquipmentCategory string

const (
	CategoryTractor    EquipmentCategory = "tractor"
	CategoryHarvester  EquipmentCategory = "harvester"
	CategoryPlanter    EquipmentCategory = "planter"
	CategoryIrrigation EquipmentCategory = "irrigation"
	CategorySprayer    EquipmentCategory = "sprayer"
	CategoryTillage    EquipmentCategory = "tillage"
	CategoryTransport  EquipmentCategory = "transport"
	CategoryOther      EquipmentCategory = "other"
)

type EquipmentCondition string

const (
	ConditionExcellent EquipmentCondition = "excellent"
	ConditionGood      EquipmentCondition = "good"
	ConditionFair      EquipmentCondition = "fair"
	ConditionPoor      EquipmentCondition = "poor"
)

type EquipmentStatus string

const (
	EquipmentAvailable    EquipmentStatus = "available"
	EquipmentBooked       EquipmentStatus = "booked"
	EquipmentMaintenance  EquipmentStatus = "maintenance"
	EquipmentOutOfService EquipmentStatus = "out_of_service"
)

// RateType selects which of the equipment rates a price is derived from.
type RateType string

const (
	RateHourly  RateType = "hourly"
	RateDaily   RateType = "daily"
	RateWeekly  RateType = "weekly"
	RateMonthly RateType = "monthly"
)

type EquipmentType struct {
	Tracked
	Name                string            `db:"name"`
	Description         string            `db:"description"`
	Category            EquipmentCategory `db:"category"`
	BaseDailyRateCents  int64             `db:"base_daily_rate_cents"`
	BaseHourlyRateCents int64             `db:"base_hourly_rate_cents"`
}

type Equipment struct {
	Tracked
	Name             string             `db:"name"`
	EquipmentTypeID  uuid.UUID          `db:"equipment_type_id"`
	OwnerID          uuid.UUID          `db:"owner_id"`
	Description      string             `db:"description"`
	ModelName        string             `db:"model_name"`
	YearManufactured int                `db:"year_manufactured"`
	Condition        EquipmentCondition `db:"condition"`
	Status           EquipmentStatus    `db:"status"`
	City             string             `db:"city"`
	Country          string             `db:"country"`
	DailyRateCents   int64              `db:"daily_rate_cents"`
	HourlyRateCents  int64              `db:"hourly_rate_cents"`
	WeeklyRateCents  int64              `db:"weekly_rate_cents"`
	MonthlyRateCents int64              `db:"monthly_rate_cents"`
	Active           bool               `db:"active"`
	MinBookingHours  int                `db:"min_booking_hours"`
	MaxBookingDays   int                `db:"max_booking_days"`
}

func (e *Equipment) IsAvailable() bool {
	return e.Status == EquipmentAvailable && e.Active
}

// BaseRateCents returns the undiscounted rate for the given rate type.
// Weekly and monthly rates fall back to multiples of the daily rate when
// the owner has not set them.
func (e *Equipment) BaseRateCents(rateType RateType) int64 {
	switch rateType {
	case RateHourly:
		return e.HourlyRateCents
	case RateWeekly:
		if e.WeeklyRateCents > 0 {
			return e.WeeklyRateCents
		}
		return e.DailyRateCents * 7
	case RateMonthly:
		if e.MonthlyRateCents > 0 {
			return e.MonthlyRateCents
		}
		return e.DailyRateCents * 30
	default:
		return e.DailyRateCents
	}
}

// RateTypeForDuration picks the billing band for a rental window.
func RateTypeForDuration(durationHours int) RateType {
	switch {
	case durationHours <= 8:
		return RateDaily
	case durationHours <= 168:
		return RateWeekly
	default:
		return RateMonthly
	}
}

type EquipmentReview struct {
	Model
	EquipmentID uuid.UUID  `db:"equipment_id"`
	UserID      uuid.UUID  `db:"user_id"`
	BookingID   *uuid.UUID `db:"booking_id"`
	Rating      int        `db:"rating"`
	Comment     string     `db:"comment"`
	Verified    bool       `db:"verified"`
}
