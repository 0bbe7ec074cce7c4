package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMSISDN(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		expected string
	}{
		{"already normalized", "254712345678", "254712345678"},
		{"plus prefix", "+254712345678", "254712345678"},
		{"leading zero", "0712345678", "254712345678"},
		{"bare subscriber", "712345678", "254712345678"},
		{"spaces and dashes", "0712-345 678", "254712345678"},
		{"safaricom 1xx range", "0110345678", "254110345678"},
		{"too short", "12345", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeMSISDN(tt.phone))
		})
	}
}

func TestUser_DisplayName(t *testing.T) {
	u := &User{Username: "jkamau"}
	assert.Equal(t, "jkamau", u.DisplayName())

	u.Name = "James Kamau"
	assert.Equal(t, "James Kamau", u.DisplayName())

	u.BusinessName = "Kamau Agri Services"
	assert.Equal(t, "Kamau Agri Services", u.DisplayName())
}

func TestUser_Roles(t *testing.T) {
	assert.True(t, (&User{Role: RoleFarmer}).IsFarmer())
	assert.True(t, (&User{Role: RoleEquipmentOwner}).IsEquipmentOwner())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleFarmer}).IsAdmin())
}
