package services

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"agrohire/internal/domain"
	"agrohire/internal/notify"
	"agrohire/internal/repository"
	"agrohire/internal/testutil"
	"agrohire/internal/util"
)

var testDB *sqlx.DB

func TestMain(m *testing.M) {
	db, err := testutil.SetupTestDB("../../../.env.test", "../../../migrations")
	if err != nil {
		fmt.Printf("test database unavailable, DB-backed tests will be skipped: %v\n", err)
	} else {
		testDB = db
	}

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

func newTestNotificationService(db *sqlx.DB, senders notify.Registry) *NotificationService {
	if senders == nil {
		senders = notify.Registry{}
	}
	return NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		senders,
		time.UTC,
	)
}

func createTestUser(t *testing.T, db *sqlx.DB, role domain.Role) *domain.User {
	t.Helper()

	hashed, err := util.HashPassword("password123")
	require.NoError(t, err)

	ts := time.Now().UnixNano()
	user := &domain.User{
		Username:    fmt.Sprintf("u%d", ts),
		Email:       fmt.Sprintf("u%d@test.com", ts),
		Password:    hashed,
		Name:        "Test User",
		Role:        role,
		PhoneNumber: "254712345678",
		City:        "Nakuru",
	}
	require.NoError(t, repository.NewUserRepository(db).Create(user))
	return user
}

func createTestEquipment(t *testing.T, db *sqlx.DB, ownerID uuid.UUID) (*domain.EquipmentType, *domain.Equipment) {
	t.Helper()
	equipmentRepo := repository.NewEquipmentRepository(db)

	ts := time.Now().UnixNano()
	eqType := &domain.EquipmentType{
		Name:                fmt.Sprintf("Tractor %d", ts),
		Category:            domain.CategoryTractor,
		BaseDailyRateCents:  800000,
		BaseHourlyRateCents: 150000,
	}
	require.NoError(t, equipmentRepo.CreateType(eqType))

	eq := &domain.Equipment{
		Name:            fmt.Sprintf("MF 375 %d", ts),
		EquipmentTypeID: eqType.ID,
		OwnerID:         ownerID,
		Condition:       domain.ConditionGood,
		Status:          domain.EquipmentAvailable,
		City:            "Nakuru",
		Country:         "Kenya",
		DailyRateCents:  850000,
		HourlyRateCents: 160000,
		Active:          true,
		MinBookingHours: 4,
		MaxBookingDays:  30,
	}
	require.NoError(t, equipmentRepo.Create(eq))
	return eqType, eq
}
