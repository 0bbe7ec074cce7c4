package dto

import (
	"time"

	"agrohire/internal/domain"
)

type PricingRule struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	RuleType          string     `json:"ruleType"`
	Description       string     `json:"description,omitempty"`
	EquipmentTypeID   *string    `json:"equipmentTypeId,omitempty"`
	EquipmentID       *string    `json:"equipmentId,omitempty"`
	StartDate         *time.Time `json:"startDate,omitempty"`
	EndDate           *time.Time `json:"endDate,omitempty"`
	DaysOfWeek        []int      `json:"daysOfWeek,omitempty"`
	HourlyMultiplier  float64    `json:"hourlyMultiplier"`
	DailyMultiplier   float64    `json:"dailyMultiplier"`
	WeeklyMultiplier  float64    `json:"weeklyMultiplier"`
	MonthlyMultiplier float64    `json:"monthlyMultiplier"`
	Priority          int        `json:"priority"`
	Active            bool       `json:"active"`
	CreatedAt         time.Time  `json:"createdAt"`
}

func PricingRuleFromDomain(rule *domain.PricingRule) *PricingRule {
	if rule == nil {
		return nil
	}
	result := &PricingRule{
		ID:                rule.ID.String(),
		Name:              rule.Name,
		RuleType:          string(rule.RuleType),
		Description:       rule.Description,
		StartDate:         rule.StartDate,
		EndDate:           rule.EndDate,
		HourlyMultiplier:  rule.HourlyMultiplier,
		DailyMultiplier:   rule.DailyMultiplier,
		WeeklyMultiplier:  rule.WeeklyMultiplier,
		MonthlyMultiplier: rule.MonthlyMultiplier,
		Priority:          rule.Priority,
		Active:            rule.Active,
		CreatedAt:         rule.CreatedAt,
	}
	if rule.EquipmentTypeID != nil {
		id := rule.EquipmentTypeID.String()
		result.EquipmentTypeID = &id
	}
	if rule.EquipmentID != nil {
		id := rule.EquipmentID.String()
		result.EquipmentID = &id
	}
	for _, d := range rule.DaysOfWeek {
		result.DaysOfWeek = append(result.DaysOfWeek, int(d))
	}
	return result
}

type PricingHistoryEntry struct {
	EquipmentID       string    `json:"equipmentId"`
	BaseRateCents     int64     `json:"baseRateCents"`
	AdjustedRateCents int64     `json:"adjustedRateCents"`
	Multiplier        float64   `json:"multiplier"`
	RateType          string    `json:"rateType"`
	DemandLevel       string    `json:"demandLevel"`
	EffectiveDate     time.Time `json:"effectiveDate"`
}

func PricingHistoryFromDomain(entries []domain.PricingHistory) []*PricingHistoryEntry {
	result := make([]*PricingHistoryEntry, len(entries))
	for i := range entries {
		e := &entries[i]
		result[i] = &PricingHistoryEntry{
			EquipmentID:       e.EquipmentID.String(),
			BaseRateCents:     e.BaseRateCents,
			AdjustedRateCents: e.AdjustedRateCents,
			Multiplier:        e.Multiplier,
			RateType:          string(e.RateType),
			DemandLevel:       string(e.DemandLevel),
			EffectiveDate:     e.EffectiveDate,
		}
	}
	return result
}
