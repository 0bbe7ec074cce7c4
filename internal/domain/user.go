package domain

import (
	"strings"
)

type Role string

const (
	RoleFarmer         Role = "farmer"
	RoleEquipmentOwner Role = "equipment_owner"
	RoleAdmin          Role = "admin"
)

type User struct {
	Tracked
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	Password     string    `db:"password"`
	Name         string    `db:"name"`
	Role         Role      `db:"role"`
	PhoneNumber  string    `db:"phone_number"`
	BusinessName string    `db:"business_name"`
	City         string    `db:"city"`
	Verified     bool      `db:"verified"`
}

func (u *User) IsFarmer() bool {
	return u.Role == RoleFarmer
}

func (u *User) IsEquipmentOwner() bool {
	return u.Role == RoleEquipmentOwner
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName prefers the business name for owners that set one.
func (u *User) DisplayName() string {
	if u.BusinessName != "" {
		return u.BusinessName
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// NormalizeMSISDN converts a Kenyan phone number into the 2547XXXXXXXX form
// expected by the Daraja API and SMS providers. Returns "" when the input
// cannot be normalized.
func NormalizeMSISDN(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n := digits.String()

	switch {
	case strings.HasPrefix(n, "254") && len(n) == 12:
		return n
	case strings.HasPrefix(n, "0") && len(n) == 10:
		return "254" + n[1:]
	case (strings.HasPrefix(n, "7") || strings.HasPrefix(n, "1")) && len(n) == 9:
		return "254" + n
	}
	return ""
}
