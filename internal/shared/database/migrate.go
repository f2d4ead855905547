package database

import (
	"dejair/internal/actors"
	"dejair/internal/bookings"
	"dejair/internal/fleet"
	"dejair/internal/payments"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&actors.Client{},
		&actors.Admin{},
		&fleet.Helicopter{},
		&bookings.Booking{},
		&bookings.NegotiationHistory{},
		&payments.Payment{},
	)
	if err != nil {
		return err
	}
	return MigrateConstraints(db)
}
