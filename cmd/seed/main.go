package main

import (
	"fmt"
	"log"

	"dejair/internal/actors"
	"dejair/internal/fleet"
	"dejair/internal/shared/config"
	"dejair/internal/shared/database"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting DejAir Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"payments",
		"negotiation_history",
		"bookings",
		"helicopters",
		"clients",
		"admins",
	}

	for _, table := range tables {
		if err := s.db.PostgreSQL.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

// SeedAll creates the default admin accounts and the helicopter fleet
func (s *Seeder) SeedAll() error {
	if err := s.seedAdmins(); err != nil {
		return err
	}
	if err := s.seedClients(); err != nil {
		return err
	}
	return s.seedFleet()
}

func (s *Seeder) seedAdmins() error {
	password, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admins := []actors.Admin{
		{
			ID:           uuid.New(),
			Name:         "DejAir Operations",
			PhoneNumber:  "254700000001",
			Email:        "ops@dejair.co.ke",
			Password:     string(password),
			IsSuperadmin: true,
		},
		{
			ID:           uuid.New(),
			Name:         "DejAir Sales",
			PhoneNumber:  "254700000002",
			Email:        "sales@dejair.co.ke",
			Password:     string(password),
			IsSuperadmin: false,
		},
	}

	for _, admin := range admins {
		if err := s.db.PostgreSQL.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to seed admin %s: %w", admin.Email, err)
		}
		fmt.Printf("  👤 Admin: %s\n", admin.Email)
	}
	return nil
}

func (s *Seeder) seedClients() error {
	password, err := bcrypt.GenerateFromPassword([]byte("client123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	client := actors.Client{
		ID:          uuid.New(),
		Name:        "Test Client",
		PhoneNumber: "254712345678",
		Email:       "client@example.com",
		Password:    string(password),
	}

	if err := s.db.PostgreSQL.Create(&client).Error; err != nil {
		return fmt.Errorf("failed to seed client: %w", err)
	}
	fmt.Printf("  👤 Client: %s\n", client.Email)
	return nil
}

func (s *Seeder) seedFleet() error {
	helicopters := []fleet.Helicopter{
		{ID: uuid.New(), Model: "Airbus H125", Capacity: 5, ImageURL: "/static/fleet/h125.jpg"},
		{ID: uuid.New(), Model: "Bell 407GXi", Capacity: 6, ImageURL: "/static/fleet/bell407.jpg"},
		{ID: uuid.New(), Model: "Robinson R44", Capacity: 3, ImageURL: "/static/fleet/r44.jpg"},
		{ID: uuid.New(), Model: "Agusta AW109", Capacity: 7, ImageURL: "/static/fleet/aw109.jpg"},
	}

	for _, helicopter := range helicopters {
		if err := s.db.PostgreSQL.Create(&helicopter).Error; err != nil {
			return fmt.Errorf("failed to seed helicopter %s: %w", helicopter.Model, err)
		}
		fmt.Printf("  🚁 Helicopter: %s (%d seats)\n", helicopter.Model, helicopter.Capacity)
	}
	return nil
}
