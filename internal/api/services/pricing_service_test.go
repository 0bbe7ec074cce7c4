package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrohire/internal/domain"
	"agrohire/internal/repository"
)

func newTestPricingService(t *testing.T) *PricingService {
	t.Helper()
	return NewPricingService(
		repository.NewPricingRepository(testDB),
		repository.NewEquipmentRepository(testDB),
		repository.NewBookingRepository(testDB),
		repository.NewUserRepository(testDB),
	)
}

func TestPricingService_QuoteFor(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}
	service := newTestPricingService(t)
	pricingRepo := repository.NewPricingRepository(testDB)

	owner := createTestUser(t, testDB, domain.RoleEquipmentOwner)

	t.Run("base rate with no adjustments", func(t *testing.T) {
		_, eq := createTestEquipment(t, testDB, owner.ID)
		start := time.Now().AddDate(0, 0, 5)

		quote, err := service.QuoteFor(context.Background(), eq.ID, start, start.Add(6*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, domain.RateDaily, quote.RateType)
		assert.Equal(t, 1, quote.Units)
		assert.Equal(t, eq.DailyRateCents, quote.BaseRateCents)
		assert.Equal(t, 1.0, quote.FinalMultiplier)
		assert.Equal(t, eq.DailyRateCents, quote.TotalCents)
		assert.Equal(t, domain.DemandNormal, quote.DemandLevel)
	})

	t.Run("weekly band falls back to seven daily rates", func(t *testing.T) {
		_, eq := createTestEquipment(t, testDB, owner.ID)
		start := time.Now().AddDate(0, 0, 5)

		quote, err := service.QuoteFor(context.Background(), eq.ID, start, start.Add(5*24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, domain.RateWeekly, quote.RateType)
		assert.Equal(t, 1, quote.Units)
		assert.Equal(t, eq.DailyRateCents*7, quote.BaseRateCents)
	})

	t.Run("seasonal multiplier applies", func(t *testing.T) {
		eqType, eq := createTestEquipment(t, testDB, owner.ID)
		start := time.Now().AddDate(0, 0, 5)

		require.NoError(t, pricingRepo.CreateSeasonal(&domain.SeasonalPricing{
			Name:            "planting",
			Season:          domain.SeasonPlanting,
			EquipmentTypeID: eqType.ID,
			StartDate:       start.AddDate(0, 0, -1),
			EndDate:         start.AddDate(0, 0, 30),
			DailyMultiplier: 1.25,
			Active:          true,
		}))

		quote, err := service.QuoteFor(context.Background(), eq.ID, start, start.Add(6*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1.25, quote.SeasonalMultiplier)
		assert.Equal(t, domain.AdjustCents(eq.DailyRateCents, 1.25), quote.TotalCents)
	})

	t.Run("seasonal fixed rate overrides base", func(t *testing.T) {
		eqType, eq := createTestEquipment(t, testDB, owner.ID)
		start := time.Now().AddDate(0, 0, 5)

		require.NoError(t, pricingRepo.CreateSeasonal(&domain.SeasonalPricing{
			Name:                "harvest",
			Season:              domain.SeasonHarvesting,
			EquipmentTypeID:     eqType.ID,
			StartDate:           start.AddDate(0, 0, -1),
			EndDate:             start.AddDate(0, 0, 30),
			DailyMultiplier:     1.5,
			FixedDailyRateCents: 600000,
			Active:              true,
		}))

		quote, err := service.QuoteFor(context.Background(), eq.ID, start, start.Add(6*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1.0, quote.SeasonalMultiplier)
		assert.Equal(t, int64(600000), quote.AdjustedRateCents)
		assert.Equal(t, int64(600000), quote.TotalCents)
	})

	t.Run("highest priority rule wins", func(t *testing.T) {
		eqType, eq := createTestEquipment(t, testDB, owner.ID)
		start := time.Now().AddDate(0, 0, 5)

		low := &domain.PricingRule{
			Name:            "type discount",
			RuleType:        domain.RuleEquipmentType,
			EquipmentTypeID: &eqType.ID,
			DailyMultiplier: 0.9,
			Priority:        1,
			Active:          true,
		}
		require.NoError(t, pricingRepo.CreateRule(low))

		high := &domain.PricingRule{
			Name:            "item surcharge",
			RuleType:        domain.RuleCustom,
			EquipmentID:     &eq.ID,
			DailyMultiplier: 1.2,
			Priority:        10,
			Active:          true,
		}
		require.NoError(t, pricingRepo.CreateRule(high))

		quote, err := service.QuoteFor(context.Background(), eq.ID, start, start.Add(6*time.Hour))
		require.NoError(t, err)
		require.NotNil(t, quote.AppliedRuleID)
		assert.Equal(t, high.ID, *quote.AppliedRuleID)
		assert.Equal(t, 1.2, quote.RuleMultiplier)
	})

	t.Run("fixed rate replaces the base", func(t *testing.T) {
		_, eq := createTestEquipment(t, testDB, owner.ID)
		start := time.Now().AddDate(0, 0, 5)

		rule := &domain.PricingRule{
			Name:                "flat promo",
			RuleType:            domain.RuleCustom,
			EquipmentID:         &eq.ID,
			FixedDailyRateCents: 500000,
			DailyMultiplier:     1.0,
			Priority:            5,
			Active:              true,
		}
		require.NoError(t, pricingRepo.CreateRule(rule))

		quote, err := service.QuoteFor(context.Background(), eq.ID, start, start.Add(6*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1.0, quote.RuleMultiplier)
		assert.Equal(t, int64(500000), quote.AdjustedRateCents)
	})

	t.Run("low demand discounts", func(t *testing.T) {
		eqType, eq := createTestEquipment(t, testDB, owner.ID)
		start := time.Now().AddDate(0, 0, 5)

		require.NoError(t, pricingRepo.CreateDemand(&domain.DemandPricing{
			EquipmentTypeID:  eqType.ID,
			LowThreshold:     2,
			HighThreshold:    8,
			LowMultiplier:    0.8,
			NormalMultiplier: 1.0,
			HighMultiplier:   1.3,
			WindowDays:       7,
			Active:           true,
		}))

		// No bookings for this fresh type, so demand is low.
		quote, err := service.QuoteFor(context.Background(), eq.ID, start, start.Add(6*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, domain.DemandLow, quote.DemandLevel)
		assert.Equal(t, 0.8, quote.DemandMultiplier)
		assert.Equal(t, domain.AdjustCents(eq.DailyRateCents, 0.8), quote.TotalCents)
	})

	t.Run("rejects empty window", func(t *testing.T) {
		_, eq := createTestEquipment(t, testDB, owner.ID)
		start := time.Now().AddDate(0, 0, 5)
		_, err := service.QuoteFor(context.Background(), eq.ID, start, start)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestPricingService_DemandCounting(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}
	service := newTestPricingService(t)
	pricingRepo := repository.NewPricingRepository(testDB)
	bookingRepo := repository.NewBookingRepository(testDB)

	owner := createTestUser(t, testDB, domain.RoleEquipmentOwner)
	farmer := createTestUser(t, testDB, domain.RoleFarmer)
	eqType, eq := createTestEquipment(t, testDB, owner.ID)

	require.NoError(t, pricingRepo.CreateDemand(&domain.DemandPricing{
		EquipmentTypeID:  eqType.ID,
		LowThreshold:     0,
		HighThreshold:    2,
		LowMultiplier:    0.8,
		NormalMultiplier: 1.0,
		HighMultiplier:   1.3,
		WindowDays:       7,
		Active:           true,
	}))

	quoteStart := time.Now().AddDate(0, 0, 10)

	insertBooking := func(t *testing.T, status domain.BookingStatus, start, end time.Time) {
		t.Helper()
		booking := &domain.Booking{
			BookingNumber: domain.NewBookingNumber(time.Now()),
			UserID:        farmer.ID,
			EquipmentID:   eq.ID,
			StartDate:     start,
			EndDate:       end,
			DurationHours: int(end.Sub(start).Hours()),
			Status:        status,
		}
		require.NoError(t, bookingRepo.Create(booking))
	}

	t.Run("pending bookings do not raise demand", func(t *testing.T) {
		insertBooking(t, domain.BookingPending, quoteStart.AddDate(0, 0, -1), quoteStart.AddDate(0, 0, 1))
		insertBooking(t, domain.BookingPending, quoteStart.AddDate(0, 0, -3), quoteStart.AddDate(0, 0, -2))

		quote, err := service.QuoteFor(context.Background(), eq.ID, quoteStart, quoteStart.Add(6*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, domain.DemandLow, quote.DemandLevel)
		assert.Equal(t, 0.8, quote.DemandMultiplier)
	})

	t.Run("rentals merely running through the window do not count", func(t *testing.T) {
		// Started three weeks before the demand window, still running.
		insertBooking(t, domain.BookingInProgress, quoteStart.AddDate(0, 0, -21), quoteStart.AddDate(0, 0, 2))

		quote, err := service.QuoteFor(context.Background(), eq.ID, quoteStart, quoteStart.Add(6*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, domain.DemandLow, quote.DemandLevel)
	})

	t.Run("confirmed starts inside the window count", func(t *testing.T) {
		insertBooking(t, domain.BookingConfirmed, quoteStart.AddDate(0, 0, -5), quoteStart.AddDate(0, 0, -4))
		insertBooking(t, domain.BookingConfirmed, quoteStart.AddDate(0, 0, -1), quoteStart.Add(-12*time.Hour))

		quote, err := service.QuoteFor(context.Background(), eq.ID, quoteStart, quoteStart.Add(6*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, domain.DemandHigh, quote.DemandLevel)
		assert.Equal(t, 1.3, quote.DemandMultiplier)
	})
}

func TestPricingService_AdminGuards(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}
	service := newTestPricingService(t)

	farmer := createTestUser(t, testDB, domain.RoleFarmer)
	admin := createTestUser(t, testDB, domain.RoleAdmin)
	eqType, _ := createTestEquipment(t, testDB, createTestUser(t, testDB, domain.RoleEquipmentOwner).ID)

	rule := func() *domain.PricingRule {
		return &domain.PricingRule{
			Name:            "surcharge",
			RuleType:        domain.RuleCustom,
			EquipmentTypeID: &eqType.ID,
			DailyMultiplier: 1.1,
			Active:          true,
		}
	}

	err := service.CreateRule(context.Background(), farmer.ID, rule())
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, service.CreateRule(context.Background(), admin.ID, rule()))

	err = service.CreateDemand(context.Background(), admin.ID, &domain.DemandPricing{
		EquipmentTypeID: eqType.ID,
		LowThreshold:    5,
		HighThreshold:   3,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPricingService_RecomputeDailyRates(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}
	service := newTestPricingService(t)

	owner := createTestUser(t, testDB, domain.RoleEquipmentOwner)
	_, eq := createTestEquipment(t, testDB, owner.ID)

	updated, err := service.RecomputeDailyRates(context.Background(), time.Now())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, updated, 1)

	history, err := service.History(context.Background(), eq.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, eq.DailyRateCents, history[0].BaseRateCents)

	// Running again on the same day upserts instead of duplicating.
	_, err = service.RecomputeDailyRates(context.Background(), time.Now())
	require.NoError(t, err)
	again, err := service.History(context.Background(), eq.ID, 10)
	require.NoError(t, err)
	assert.Len(t, again, len(history))
}
