package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"agrohire/internal/domain"
	"agrohire/internal/repository"
)

// Quote is the price breakdown for renting one equipment item over a window.
// All money is KES cents.
type Quote struct {
	EquipmentID        uuid.UUID          `json:"equipmentId"`
	RateType           domain.RateType    `json:"rateType"`
	Units              int                `json:"units"`
	BaseRateCents      int64              `json:"baseRateCents"`
	AdjustedRateCents  int64              `json:"adjustedRateCents"`
	TotalCents         int64              `json:"totalCents"`
	DemandMultiplier   float64            `json:"demandMultiplier"`
	SeasonalMultiplier float64            `json:"seasonalMultiplier"`
	RuleMultiplier     float64            `json:"ruleMultiplier"`
	FinalMultiplier    float64            `json:"finalMultiplier"`
	DemandLevel        domain.DemandLevel `json:"demandLevel"`
	AppliedRuleID      *uuid.UUID         `json:"appliedRuleId,omitempty"`
}

type PricingService struct {
	pricingRepo   *repository.PricingRepository
	equipmentRepo *repository.EquipmentRepository
	bookingRepo   *repository.BookingRepository
	userRepo      *repository.UserRepository
}

func NewPricingService(
	pricingRepo *repository.PricingRepository,
	equipmentRepo *repository.EquipmentRepository,
	bookingRepo *repository.BookingRepository,
	userRepo *repository.UserRepository,
) *PricingService {
	return &PricingService{
		pricingRepo:   pricingRepo,
		equipmentRepo: equipmentRepo,
		bookingRepo:   bookingRepo,
		userRepo:      userRepo,
	}
}

// QuoteFor prices a rental window. The three multipliers compose: demand for
// the type's recent booking volume, the active season, and the highest
// priority matching rule. A fixed-rate rule replaces the base rate instead of
// multiplying it.
func (s *PricingService) QuoteFor(ctx context.Context, equipmentID uuid.UUID, start, end time.Time) (*Quote, error) {
	eq, err := s.equipmentRepo.FindByID(equipmentID)
	if err != nil {
		return nil, err
	}
	return s.QuoteForEquipment(ctx, eq, start, end)
}

func (s *PricingService) QuoteForEquipment(ctx context.Context, eq *domain.Equipment, start, end time.Time) (*Quote, error) {
	if !end.After(start) {
		return nil, ErrInvalidInput
	}

	durationHours := int(end.Sub(start).Hours())
	if durationHours < 1 {
		durationHours = 1
	}
	rateType := domain.RateTypeForDuration(durationHours)
	units := rateUnits(rateType, durationHours)

	quote := &Quote{
		EquipmentID:        eq.ID,
		RateType:           rateType,
		Units:              units,
		BaseRateCents:      eq.BaseRateCents(rateType),
		DemandMultiplier:   1.0,
		SeasonalMultiplier: 1.0,
		RuleMultiplier:     1.0,
		DemandLevel:        domain.DemandNormal,
	}

	demandMult, level, err := s.demandMultiplier(ctx, eq.EquipmentTypeID, start)
	if err != nil {
		return nil, err
	}
	quote.DemandMultiplier = demandMult
	quote.DemandLevel = level

	base := quote.BaseRateCents

	seasonal, err := s.pricingRepo.SeasonalFor(eq.EquipmentTypeID, start)
	if err != nil {
		return nil, err
	}
	if seasonal != nil {
		if fixed := seasonal.FixedRateCents(rateType); fixed > 0 {
			base = fixed
		} else {
			quote.SeasonalMultiplier = seasonal.Multiplier(rateType)
		}
	}

	rule, err := s.winningRule(eq, start)
	if err != nil {
		return nil, err
	}

	if rule != nil {
		quote.AppliedRuleID = &rule.ID
		if fixed := rule.FixedRateCents(rateType); fixed > 0 {
			base = fixed
		} else {
			quote.RuleMultiplier = rule.Multiplier(rateType)
		}
	}

	quote.FinalMultiplier = quote.DemandMultiplier * quote.SeasonalMultiplier * quote.RuleMultiplier
	quote.AdjustedRateCents = domain.AdjustCents(base, quote.FinalMultiplier)
	quote.TotalCents = quote.AdjustedRateCents * int64(units)

	return quote, nil
}

func (s *PricingService) demandMultiplier(ctx context.Context, equipmentTypeID uuid.UUID, date time.Time) (float64, domain.DemandLevel, error) {
	demand, err := s.pricingRepo.DemandFor(equipmentTypeID)
	if err != nil {
		return 1.0, domain.DemandNormal, err
	}
	if demand == nil {
		return 1.0, domain.DemandNormal, nil
	}

	windowDays := demand.WindowDays
	if windowDays <= 0 {
		windowDays = 7
	}
	from := date.AddDate(0, 0, -windowDays)
	count, err := s.bookingRepo.CountUpcomingByType(equipmentTypeID, from, date)
	if err != nil {
		return 1.0, domain.DemandNormal, err
	}

	level := demand.Level(count)
	return demand.Multiplier(level), level, nil
}

func (s *PricingService) winningRule(eq *domain.Equipment, date time.Time) (*domain.PricingRule, error) {
	rules, err := s.pricingRepo.ActiveRulesFor(eq.ID, eq.EquipmentTypeID)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		if rules[i].IsApplicable(eq, date) {
			return &rules[i], nil
		}
	}
	return nil, nil
}

// rateUnits converts a duration into billing units for the chosen band,
// rounding partial units up.
func rateUnits(rateType domain.RateType, durationHours int) int {
	switch rateType {
	case domain.RateHourly:
		return durationHours
	case domain.RateWeekly:
		return ceilDiv(durationHours, 168)
	case domain.RateMonthly:
		return ceilDiv(durationHours, 720)
	default:
		return ceilDiv(durationHours, 24)
	}
}

func ceilDiv(a, b int) int {
	n := (a + b - 1) / b
	if n < 1 {
		return 1
	}
	return n
}

func (s *PricingService) CreateRule(ctx context.Context, adminID uuid.UUID, rule *domain.PricingRule) error {
	if err := s.requireAdmin(adminID); err != nil {
		return err
	}
	if rule.Priority <= 0 {
		rule.Priority = 1
	}
	return s.pricingRepo.CreateRule(rule)
}

func (s *PricingService) DeleteRule(ctx context.Context, adminID, ruleID uuid.UUID) error {
	if err := s.requireAdmin(adminID); err != nil {
		return err
	}
	return s.pricingRepo.DeleteRule(ruleID)
}

func (s *PricingService) CreateSeasonal(ctx context.Context, adminID uuid.UUID, sp *domain.SeasonalPricing) error {
	if err := s.requireAdmin(adminID); err != nil {
		return err
	}
	if !sp.EndDate.After(sp.StartDate) {
		return ErrInvalidInput
	}
	return s.pricingRepo.CreateSeasonal(sp)
}

func (s *PricingService) CreateDemand(ctx context.Context, adminID uuid.UUID, d *domain.DemandPricing) error {
	if err := s.requireAdmin(adminID); err != nil {
		return err
	}
	if d.HighThreshold <= d.LowThreshold {
		return ErrInvalidInput
	}
	if d.WindowDays <= 0 {
		d.WindowDays = 7
	}
	return s.pricingRepo.CreateDemand(d)
}

func (s *PricingService) History(ctx context.Context, equipmentID uuid.UUID, limit int) ([]domain.PricingHistory, error) {
	return s.pricingRepo.HistoryFor(equipmentID, limit)
}

// ActiveRules returns the active rules that could apply to an equipment
// item, highest priority first.
func (s *PricingService) ActiveRules(ctx context.Context, equipmentID uuid.UUID) ([]domain.PricingRule, error) {
	eq, err := s.equipmentRepo.FindByID(equipmentID)
	if err != nil {
		return nil, err
	}
	return s.pricingRepo.ActiveRulesFor(eq.ID, eq.EquipmentTypeID)
}

// RecomputeDailyRates refreshes the pricing history row for every active
// equipment item for today. The scheduler runs it hourly.
func (s *PricingService) RecomputeDailyRates(ctx context.Context, now time.Time) (int, error) {
	items, err := s.equipmentRepo.ListAllActive()
	if err != nil {
		return 0, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	updated := 0
	for i := range items {
		eq := &items[i]
		// An 8 hour window keeps the quote in the daily band; history rows
		// track the daily rate.
		quote, err := s.QuoteForEquipment(ctx, eq, today, today.Add(8*time.Hour))
		if err != nil {
			continue
		}

		history := &domain.PricingHistory{
			EquipmentID:       eq.ID,
			PricingRuleID:     quote.AppliedRuleID,
			BaseRateCents:     quote.BaseRateCents,
			AdjustedRateCents: quote.AdjustedRateCents,
			Multiplier:        quote.FinalMultiplier,
			RateType:          quote.RateType,
			DemandLevel:       quote.DemandLevel,
			EffectiveDate:     today,
		}
		if err := s.pricingRepo.RecordHistory(history); err != nil {
			continue
		}
		updated++
	}
	return updated, nil
}

// PurgeOldHistory drops pricing history older than 90 days.
func (s *PricingService) PurgeOldHistory(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.AddDate(0, 0, -90)
	return s.pricingRepo.PurgeHistoryBefore(cutoff)
}

func (s *PricingService) requireAdmin(userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return repository.ErrUserNotFound
	}
	if !user.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
