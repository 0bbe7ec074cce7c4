package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestPricingRule_IsApplicable(t *testing.T) {
	typeID := uuid.New()
	otherTypeID := uuid.New()
	eq := &Equipment{EquipmentTypeID: typeID}
	eq.ID = uuid.New()

	start := date("2026-03-01 00:00")
	end := date("2026-03-31 00:00")

	tests := []struct {
		name     string
		rule     PricingRule
		date     time.Time
		expected bool
	}{
		{
			name:     "no constraints always applies",
			rule:     PricingRule{},
			date:     date("2026-03-15 00:00"),
			expected: true,
		},
		{
			name:     "matching equipment type",
			rule:     PricingRule{EquipmentTypeID: &typeID},
			date:     date("2026-03-15 00:00"),
			expected: true,
		},
		{
			name:     "other equipment type",
			rule:     PricingRule{EquipmentTypeID: &otherTypeID},
			date:     date("2026-03-15 00:00"),
			expected: false,
		},
		{
			name:     "date inside range",
			rule:     PricingRule{StartDate: &start, EndDate: &end},
			date:     date("2026-03-15 00:00"),
			expected: true,
		},
		{
			name:     "date before range",
			rule:     PricingRule{StartDate: &start, EndDate: &end},
			date:     date("2026-02-15 00:00"),
			expected: false,
		},
		{
			name: "weekday match (monday=0)",
			// 2026-03-16 is a Monday
			rule:     PricingRule{DaysOfWeek: pq.Int64Array{0, 1}},
			date:     date("2026-03-16 00:00"),
			expected: true,
		},
		{
			name: "weekday mismatch",
			// 2026-03-21 is a Saturday (=5)
			rule:     PricingRule{DaysOfWeek: pq.Int64Array{0, 1}},
			date:     date("2026-03-21 00:00"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.rule.IsApplicable(eq, tt.date))
		})
	}
}

func TestPricingRule_SpecificEquipmentOnly(t *testing.T) {
	eq := &Equipment{}
	eq.ID = uuid.New()
	otherID := uuid.New()

	rule := PricingRule{EquipmentID: &eq.ID}
	assert.True(t, rule.IsApplicable(eq, date("2026-03-15 00:00")))

	rule.EquipmentID = &otherID
	assert.False(t, rule.IsApplicable(eq, date("2026-03-15 00:00")))
}

func TestDemandPricing_Level(t *testing.T) {
	d := &DemandPricing{
		LowThreshold:     2,
		HighThreshold:    10,
		LowMultiplier:    0.8,
		NormalMultiplier: 1.0,
		HighMultiplier:   1.3,
	}

	assert.Equal(t, DemandLow, d.Level(0))
	assert.Equal(t, DemandLow, d.Level(2))
	assert.Equal(t, DemandNormal, d.Level(3))
	assert.Equal(t, DemandNormal, d.Level(9))
	assert.Equal(t, DemandHigh, d.Level(10))
	assert.Equal(t, DemandHigh, d.Level(50))

	assert.Equal(t, 0.8, d.Multiplier(DemandLow))
	assert.Equal(t, 1.0, d.Multiplier(DemandNormal))
	assert.Equal(t, 1.3, d.Multiplier(DemandHigh))
}

func TestEquipment_BaseRateCents(t *testing.T) {
	eq := &Equipment{
		HourlyRateCents: 150000,
		DailyRateCents:  800000,
	}

	assert.Equal(t, int64(150000), eq.BaseRateCents(RateHourly))
	assert.Equal(t, int64(800000), eq.BaseRateCents(RateDaily))
	// fallbacks when weekly/monthly unset
	assert.Equal(t, int64(5600000), eq.BaseRateCents(RateWeekly))
	assert.Equal(t, int64(24000000), eq.BaseRateCents(RateMonthly))

	eq.WeeklyRateCents = 5000000
	eq.MonthlyRateCents = 20000000
	assert.Equal(t, int64(5000000), eq.BaseRateCents(RateWeekly))
	assert.Equal(t, int64(20000000), eq.BaseRateCents(RateMonthly))
}

func TestRateTypeForDuration(t *testing.T) {
	assert.Equal(t, RateDaily, RateTypeForDuration(1))
	assert.Equal(t, RateDaily, RateTypeForDuration(8))
	assert.Equal(t, RateWeekly, RateTypeForDuration(9))
	assert.Equal(t, RateWeekly, RateTypeForDuration(168))
	assert.Equal(t, RateMonthly, RateTypeForDuration(169))
}

func TestAdjustCents(t *testing.T) {
	assert.Equal(t, int64(130000), AdjustCents(100000, 1.3))
	assert.Equal(t, int64(80000), AdjustCents(100000, 0.8))
	assert.Equal(t, int64(100000), AdjustCents(100000, 1.0))
	// rounds half up
	assert.Equal(t, int64(13), AdjustCents(10, 1.25))
}

func TestSeasonalPricing_ActiveForDate(t *testing.T) {
	s := &SeasonalPricing{
		Active:    true,
		StartDate: date("2026-03-01 00:00"),
		EndDate:   date("2026-05-31 00:00"),
	}

	assert.True(t, s.ActiveForDate(date("2026-03-01 00:00")))
	assert.True(t, s.ActiveForDate(date("2026-04-15 00:00")))
	assert.True(t, s.ActiveForDate(date("2026-05-31 00:00")))
	assert.False(t, s.ActiveForDate(date("2026-06-01 00:00")))

	s.Active = false
	assert.False(t, s.ActiveForDate(date("2026-04-15 00:00")))
}
