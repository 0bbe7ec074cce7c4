package main

import (
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"agrohire/internal/config"
	"agrohire/internal/domain"
	"agrohire/internal/repository"
	"agrohire/internal/util"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded, relying on environment")
	}

	cfg := config.Load()
	db, err := repository.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Println("Starting seed process...")

	if err := truncateTables(db.DB()); err != nil {
		log.Fatalf("Failed to truncate tables: %v", err)
	}

	users, err := seedUsers(db.DB())
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}
	types, err := seedEquipmentTypes(db.DB())
	if err != nil {
		log.Fatalf("Failed to seed equipment types: %v", err)
	}
	if err := seedEquipment(db.DB(), users, types); err != nil {
		log.Fatalf("Failed to seed equipment: %v", err)
	}
	if err := seedPricing(db.DB(), types); err != nil {
		log.Fatalf("Failed to seed pricing: %v", err)
	}
	if err := seedNotificationTemplates(db.DB()); err != nil {
		log.Fatalf("Failed to seed notification templates: %v", err)
	}

	log.Println("Seed process completed!")
}

func truncateTables(db *sqlx.DB) error {
	log.Println("Truncating all seed tables...")

	tables := []string{
		"transaction_logs",
		"refunds",
		"payments",
		"bookings",
		"equipment_reviews",
		"pricing_history",
		"demand_pricing",
		"seasonal_pricing",
		"pricing_rules",
		"equipment",
		"equipment_types",
		"notifications",
		"notification_preferences",
		"notification_templates",
		"users",
	}

	for _, table := range tables {
		query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}

	log.Println("All tables truncated successfully")
	return nil
}

func seedUsers(db *sqlx.DB) (map[string]*domain.User, error) {
	log.Println("Seeding users...")
	userRepo := repository.NewUserRepository(db)

	hashed, err := util.HashPassword("password123")
	if err != nil {
		return nil, err
	}

	users := []*domain.User{
		{
			Username:    "admin",
			Email:       "admin@agrohire.co.ke",
			Name:        "Platform Admin",
			Role:        domain.RoleAdmin,
			PhoneNumber: "254700000001",
			City:        "Nairobi",
		},
		{
			Username:     "kamau_machinery",
			Email:        "kamau@agrohire.co.ke",
			Name:         "James Kamau",
			Role:         domain.RoleEquipmentOwner,
			PhoneNumber:  "254722000002",
			BusinessName: "Kamau Machinery Ltd",
			City:         "Nakuru",
		},
		{
			Username:     "rift_agritech",
			Email:        "info@riftagritech.co.ke",
			Name:         "Sarah Chebet",
			Role:         domain.RoleEquipmentOwner,
			PhoneNumber:  "254733000003",
			BusinessName: "Rift Valley Agritech",
			City:         "Eldoret",
		},
		{
			Username:    "wanjiku_farm",
			Email:       "wanjiku@example.com",
			Name:        "Grace Wanjiku",
			Role:        domain.RoleFarmer,
			PhoneNumber: "254711000004",
			City:        "Kiambu",
		},
		{
			Username:    "otieno_farm",
			Email:       "otieno@example.com",
			Name:        "David Otieno",
			Role:        domain.RoleFarmer,
			PhoneNumber: "254712000005",
			City:        "Kisumu",
		},
	}

	byUsername := make(map[string]*domain.User, len(users))
	for _, user := range users {
		user.Password = hashed
		if err := userRepo.Create(user); err != nil {
			return nil, fmt.Errorf("create user %s: %w", user.Username, err)
		}
		if err := userRepo.SetVerified(user.ID, true); err != nil {
			return nil, err
		}
		byUsername[user.Username] = user
	}

	log.Printf("Seeded %d users", len(users))
	return byUsername, nil
}

func seedEquipmentTypes(db *sqlx.DB) (map[string]*domain.EquipmentType, error) {
	log.Println("Seeding equipment types...")
	equipmentRepo := repository.NewEquipmentRepository(db)

	types := []*domain.EquipmentType{
		{
			Name:                "Tractor 50-75HP",
			Description:         "Mid-size tractor suitable for ploughing and harrowing",
			Category:            domain.CategoryTractor,
			BaseDailyRateCents:  800000,
			BaseHourlyRateCents: 150000,
		},
		{
			Name:                "Combine Harvester",
			Description:         "Self-propelled combine for wheat and maize",
			Category:            domain.CategoryHarvester,
			BaseDailyRateCents:  2500000,
			BaseHourlyRateCents: 400000,
		},
		{
			Name:                "Seed Planter",
			Description:         "Tractor-mounted precision planter",
			Category:            domain.CategoryPlanter,
			BaseDailyRateCents:  500000,
			BaseHourlyRateCents: 90000,
		},
		{
			Name:                "Boom Sprayer",
			Description:         "Trailed boom sprayer for crop protection",
			Category:            domain.CategorySprayer,
			BaseDailyRateCents:  350000,
			BaseHourlyRateCents: 60000,
		},
		{
			Name:                "Water Pump",
			Description:         "Diesel irrigation pump with hoses",
			Category:            domain.CategoryIrrigation,
			BaseDailyRateCents:  150000,
			BaseHourlyRateCents: 30000,
		},
	}

	byName := make(map[string]*domain.EquipmentType, len(types))
	for _, t := range types {
		if err := equipmentRepo.CreateType(t); err != nil {
			return nil, fmt.Errorf("create equipment type %s: %w", t.Name, err)
		}
		byName[t.Name] = t
	}

	log.Printf("Seeded %d equipment types", len(types))
	return byName, nil
}

func seedEquipment(db *sqlx.DB, users map[string]*domain.User, types map[string]*domain.EquipmentType) error {
	log.Println("Seeding equipment...")
	equipmentRepo := repository.NewEquipmentRepository(db)

	kamau := users["kamau_machinery"]
	rift := users["rift_agritech"]

	items := []*domain.Equipment{
		{
			Name:             "Massey Ferguson 375",
			EquipmentTypeID:  types["Tractor 50-75HP"].ID,
			OwnerID:          kamau.ID,
			Description:      "75HP tractor with plough and harrow attachments",
			ModelName:        "MF 375",
			YearManufactured: 2019,
			Condition:        domain.ConditionGood,
			Status:           domain.EquipmentAvailable,
			City:             "Nakuru",
			Country:          "Kenya",
			DailyRateCents:   850000,
			HourlyRateCents:  160000,
			Active:           true,
			MinBookingHours:  4,
			MaxBookingDays:   30,
		},
		{
			Name:             "John Deere 5075E",
			EquipmentTypeID:  types["Tractor 50-75HP"].ID,
			OwnerID:          rift.ID,
			Description:      "75HP utility tractor, cab model",
			ModelName:        "5075E",
			YearManufactured: 2021,
			Condition:        domain.ConditionExcellent,
			Status:           domain.EquipmentAvailable,
			City:             "Eldoret",
			Country:          "Kenya",
			DailyRateCents:   950000,
			HourlyRateCents:  180000,
			WeeklyRateCents:  6000000,
			Active:           true,
			MinBookingHours:  4,
			MaxBookingDays:   60,
		},
		{
			Name:             "New Holland TC5.30",
			EquipmentTypeID:  types["Combine Harvester"].ID,
			OwnerID:          rift.ID,
			Description:      "Combine harvester with wheat and maize headers",
			ModelName:        "TC5.30",
			YearManufactured: 2020,
			Condition:        domain.ConditionGood,
			Status:           domain.EquipmentAvailable,
			City:             "Eldoret",
			Country:          "Kenya",
			DailyRateCents:   2600000,
			HourlyRateCents:  420000,
			Active:           true,
			MinBookingHours:  8,
			MaxBookingDays:   14,
		},
		{
			Name:             "Monosem 4-Row Planter",
			EquipmentTypeID:  types["Seed Planter"].ID,
			OwnerID:          kamau.ID,
			Description:      "4-row precision planter for maize and beans",
			ModelName:        "NG Plus 4",
			YearManufactured: 2018,
			Condition:        domain.ConditionFair,
			Status:           domain.EquipmentAvailable,
			City:             "Nakuru",
			Country:          "Kenya",
			DailyRateCents:   520000,
			HourlyRateCents:  95000,
			Active:           true,
			MinBookingHours:  4,
			MaxBookingDays:   21,
		},
	}

	for _, eq := range items {
		if err := equipmentRepo.Create(eq); err != nil {
			return fmt.Errorf("create equipment %s: %w", eq.Name, err)
		}
	}

	log.Printf("Seeded %d equipment items", len(items))
	return nil
}

func seedPricing(db *sqlx.DB, types map[string]*domain.EquipmentType) error {
	log.Println("Seeding pricing configuration...")
	pricingRepo := repository.NewPricingRepository(db)

	year := time.Now().Year()
	plantingStart := time.Date(year, time.March, 1, 0, 0, 0, 0, time.UTC)
	plantingEnd := time.Date(year, time.May, 31, 0, 0, 0, 0, time.UTC)
	harvestStart := time.Date(year, time.October, 1, 0, 0, 0, 0, time.UTC)
	harvestEnd := time.Date(year, time.December, 15, 0, 0, 0, 0, time.UTC)

	tractorType := types["Tractor 50-75HP"].ID
	harvesterType := types["Combine Harvester"].ID
	planterType := types["Seed Planter"].ID

	seasonal := []*domain.SeasonalPricing{
		{
			Name:             "Planting season tractors",
			Season:           domain.SeasonPlanting,
			EquipmentTypeID:  tractorType,
			StartDate:        plantingStart,
			EndDate:          plantingEnd,
			HourlyMultiplier: 1.25,
			DailyMultiplier:  1.25,
			Active:           true,
		},
		{
			Name:             "Planting season planters",
			Season:           domain.SeasonPlanting,
			EquipmentTypeID:  planterType,
			StartDate:        plantingStart,
			EndDate:          plantingEnd,
			HourlyMultiplier: 1.4,
			DailyMultiplier:  1.4,
			Active:           true,
		},
		{
			Name:             "Harvest season combines",
			Season:           domain.SeasonHarvesting,
			EquipmentTypeID:  harvesterType,
			StartDate:        harvestStart,
			EndDate:          harvestEnd,
			HourlyMultiplier: 1.5,
			DailyMultiplier:  1.5,
			Active:           true,
		},
	}
	for _, sp := range seasonal {
		if err := pricingRepo.CreateSeasonal(sp); err != nil {
			return fmt.Errorf("create seasonal pricing %s: %w", sp.Name, err)
		}
	}

	demand := []*domain.DemandPricing{
		{
			EquipmentTypeID:  tractorType,
			LowThreshold:     2,
			HighThreshold:    8,
			LowMultiplier:    0.9,
			NormalMultiplier: 1.0,
			HighMultiplier:   1.3,
			WindowDays:       7,
			Active:           true,
		},
		{
			EquipmentTypeID:  harvesterType,
			LowThreshold:     1,
			HighThreshold:    4,
			LowMultiplier:    0.95,
			NormalMultiplier: 1.0,
			HighMultiplier:   1.5,
			WindowDays:       7,
			Active:           true,
		},
	}
	for _, d := range demand {
		if err := pricingRepo.CreateDemand(d); err != nil {
			return fmt.Errorf("create demand pricing: %w", err)
		}
	}

	weekend := &domain.PricingRule{
		Name:             "Weekend surcharge",
		RuleType:         domain.RuleCustom,
		Description:      "Saturdays and Sundays rent above the weekday rate",
		DaysOfWeek:       []int64{5, 6},
		HourlyMultiplier: 1.1,
		DailyMultiplier:  1.1,
		Priority:         10,
		Active:           true,
	}
	if err := pricingRepo.CreateRule(weekend); err != nil {
		return fmt.Errorf("create pricing rule %s: %w", weekend.Name, err)
	}

	log.Printf("Seeded %d seasonal, %d demand configs and 1 rule", len(seasonal), len(demand))
	return nil
}

func seedNotificationTemplates(db *sqlx.DB) error {
	log.Println("Seeding notification templates...")
	notificationRepo := repository.NewNotificationRepository(db)

	templates := []*domain.NotificationTemplate{
		{
			Name:     "booking_confirmed_email",
			Type:     domain.NotifyEmail,
			Category: domain.CategoryBooking,
			Subject:  "Booking {{booking_number}} confirmed",
			Body:     "Hello {{name}}, your booking {{booking_number}} for {{equipment}} is confirmed. Pickup: {{start_date}}.",
			Priority: domain.PriorityHigh,
			Active:   true,
		},
		{
			Name:     "booking_reminder_sms",
			Type:     domain.NotifySMS,
			Category: domain.CategoryBooking,
			Subject:  "Upcoming rental",
			Body:     "Reminder: your rental {{booking_number}} starts {{start_date}}.",
			SMSBody:  "AgroHire: rental {{booking_number}} starts {{start_date}}",
			Priority: domain.PriorityNormal,
			Active:   true,
		},
		{
			Name:     "payment_received_email",
			Type:     domain.NotifyEmail,
			Category: domain.CategoryPayment,
			Subject:  "Payment received for {{booking_number}}",
			Body:     "We received KES {{amount}} for booking {{booking_number}}. Receipt: {{receipt}}.",
			Priority: domain.PriorityHigh,
			Active:   true,
		},
		{
			Name:     "maintenance_due_email",
			Type:     domain.NotifyEmail,
			Category: domain.CategoryMaintenance,
			Subject:  "Maintenance due for {{equipment}}",
			Body:     "Your equipment {{equipment}} is due for scheduled maintenance.",
			Priority: domain.PriorityLow,
			Active:   true,
		},
	}

	for _, t := range templates {
		if err := notificationRepo.CreateTemplate(t); err != nil {
			return fmt.Errorf("create template %s: %w", t.Name, err)
		}
	}

	log.Printf("Seeded %d notification templates", len(templates))
	return nil
}
