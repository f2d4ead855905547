package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the constraints AutoMigrate cannot express.
func MigrateConstraints(db *gorm.DB) error {
	// At most one pending payment per booking; terminal rows stay around
	// as audit history.
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_one_pending_payment_per_booking
		ON payments (booking_id)
		WHERE status = 'pending';
	`).Error
	if err != nil {
		return err
	}

	// Negotiation never raises the price above the original quote.
	err = db.Exec(`
		ALTER TABLE bookings
		DROP CONSTRAINT IF EXISTS chk_final_amount_le_original;
	`).Error
	if err != nil {
		return err
	}
	err = db.Exec(`
		ALTER TABLE bookings
		ADD CONSTRAINT chk_final_amount_le_original
		CHECK (final_amount IS NULL OR final_amount <= original_amount);
	`).Error
	if err != nil {
		return err
	}

	// The ledger is read oldest first per booking.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_negotiation_history_booking_created
		ON negotiation_history (booking_id, created_at);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
