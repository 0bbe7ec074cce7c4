package dto

import (
	"time"

	"agrohire/internal/domain"
)

type EquipmentType struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	Category            string    `json:"category"`
	BaseDailyRateCents  int64     `json:"baseDailyRateCents"`
	BaseHourlyRateCents int64     `json:"baseHourlyRateCents"`
	CreatedAt           time.Time `json:"createdAt"`
}

type Equipment struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	EquipmentTypeID  string    `json:"equipmentTypeId"`
	OwnerID          string    `json:"ownerId"`
	Description      string    `json:"description,omitempty"`
	ModelName        string    `json:"modelName,omitempty"`
	YearManufactured int       `json:"yearManufactured,omitempty"`
	Condition        string    `json:"condition"`
	Status           string    `json:"status"`
	City             string    `json:"city"`
	Country          string    `json:"country"`
	DailyRateCents   int64     `json:"dailyRateCents"`
	HourlyRateCents  int64     `json:"hourlyRateCents"`
	WeeklyRateCents  int64     `json:"weeklyRateCents,omitempty"`
	MonthlyRateCents int64     `json:"monthlyRateCents,omitempty"`
	MinBookingHours  int       `json:"minBookingHours"`
	MaxBookingDays   int       `json:"maxBookingDays"`
	CreatedAt        time.Time `json:"createdAt"`
}

type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	BookingID *string   `json:"bookingId,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

type ReviewList struct {
	Reviews       []*Review `json:"reviews"`
	AverageRating float64   `json:"averageRating"`
	Count         int       `json:"count"`
}

func EquipmentTypeFromDomain(t *domain.EquipmentType) *EquipmentType {
	if t == nil {
		return nil
	}
	return &EquipmentType{
		ID:                  t.ID.String(),
		Name:                t.Name,
		Description:         t.Description,
		Category:            string(t.Category),
		BaseDailyRateCents:  t.BaseDailyRateCents,
		BaseHourlyRateCents: t.BaseHourlyRateCents,
		CreatedAt:           t.CreatedAt,
	}
}

func EquipmentTypesFromDomain(types []domain.EquipmentType) []*EquipmentType {
	result := make([]*EquipmentType, len(types))
	for i := range types {
		result[i] = EquipmentTypeFromDomain(&types[i])
	}
	return result
}

func EquipmentFromDomain(eq *domain.Equipment) *Equipment {
	if eq == nil {
		return nil
	}
	return &Equipment{
		ID:               eq.ID.String(),
		Name:             eq.Name,
		EquipmentTypeID:  eq.EquipmentTypeID.String(),
		OwnerID:          eq.OwnerID.String(),
		Description:      eq.Description,
		ModelName:        eq.ModelName,
		YearManufactured: eq.YearManufactured,
		Condition:        string(eq.Condition),
		Status:           string(eq.Status),
		City:             eq.City,
		Country:          eq.Country,
		DailyRateCents:   eq.DailyRateCents,
		HourlyRateCents:  eq.HourlyRateCents,
		WeeklyRateCents:  eq.WeeklyRateCents,
		MonthlyRateCents: eq.MonthlyRateCents,
		MinBookingHours:  eq.MinBookingHours,
		MaxBookingDays:   eq.MaxBookingDays,
		CreatedAt:        eq.CreatedAt,
	}
}

func EquipmentListFromDomain(items []domain.Equipment) []*Equipment {
	result := make([]*Equipment, len(items))
	for i := range items {
		result[i] = EquipmentFromDomain(&items[i])
	}
	return result
}

func ReviewFromDomain(review *domain.EquipmentReview) *Review {
	if review == nil {
		return nil
	}
	result := &Review{
		ID:        review.ID.String(),
		UserID:    review.UserID.String(),
		Rating:    review.Rating,
		Comment:   review.Comment,
		Verified:  review.Verified,
		CreatedAt: review.CreatedAt,
	}
	if review.BookingID != nil {
		id := review.BookingID.String()
		result.BookingID = &id
	}
	return result
}

func ReviewsFromDomain(reviews []domain.EquipmentReview) []*Review {
	result := make([]*Review, len(reviews))
	for i := range reviews {
		result[i] = ReviewFromDomain(&reviews[i])
	}
	return result
}
