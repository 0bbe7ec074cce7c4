package testutil

import (
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"agrohire/internal/config"
)

// SetupTestDB connects to the database named in the environment and brings it
// up to date with the migrations under migrationsRelPath. Tests that need a
// database call RequireDB with the result and skip when it is nil.
func SetupTestDB(envRelPath, migrationsRelPath string) (*sqlx.DB, error) {
	_ = godotenv.Load(envRelPath)
	cfg := config.Load()

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to test db: %w", err)
	}

	if err = goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set dialect: %w", err)
	}

	if err = goose.Up(db.DB, migrationsRelPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return db, nil
}

func RequireDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	if db == nil {
		t.Skip("Test database not initialized")
	}
}

// TruncateAll wipes every table between tests. Order does not matter because
// of CASCADE.
func TruncateAll(t *testing.T, db *sqlx.DB) {
	t.Helper()
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
		if _, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}
