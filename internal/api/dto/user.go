package dto

import (
	"time"

	"agrohire/internal/domain"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PhoneNumber  string    `json:"phoneNumber"`
	BusinessName string    `json:"businessName,omitempty"`
	City         string    `json:"city,omitempty"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"createdAt"`
}

func UserFromDomain(user *domain.User) *User {
	if user == nil {
		return nil
	}
	return &User{
		ID:           user.ID.String(),
		Username:     user.Username,
		Email:        user.Email,
		Name:         user.Name,
		Role:         string(user.Role),
		PhoneNumber:  user.PhoneNumber,
		BusinessName: user.BusinessName,
		City:         user.City,
		Verified:     user.Verified,
		CreatedAt:    user.CreatedAt,
	}
}
