package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking defines the main charter reservation structure. Amounts are
// integers in the minor currency unit (KES cents).
type Booking struct {
	ID             uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ClientID       uuid.UUID         `gorm:"type:uuid;index;not null" json:"client_id"`
	HelicopterID   uuid.UUID         `gorm:"type:uuid;index;not null" json:"helicopter_id"`
	FlightDate     time.Time         `gorm:"not null" json:"flight_date"`
	FlightTime     string            `gorm:"type:varchar(10);not null" json:"flight_time"`
	Purpose        string            `gorm:"type:text" json:"purpose"`
	NumPassengers  int               `gorm:"not null" json:"num_passengers"`
	OriginalAmount int64             `gorm:"not null" json:"original_amount"`
	FinalAmount    *int64            `json:"final_amount,omitempty"`
	Status         Status            `gorm:"type:varchar(30);index;default:'pending'" json:"status"`
	NegStatus      NegotiationStatus `gorm:"column:negotiation_status;type:varchar(30);default:'none'" json:"negotiation_status"`
	PaymentID      *uuid.UUID        `gorm:"type:uuid" json:"payment_id,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`

	// Relationships
	History []NegotiationHistory `json:"history,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

// NegotiationHistory is one append-only ledger entry. Rows are never
// updated or deleted once written.
type NegotiationHistory struct {
	ID        uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID uuid.UUID         `gorm:"type:uuid;index;not null" json:"booking_id"`
	ActorID   uuid.UUID         `gorm:"type:uuid;not null" json:"actor_id"`
	ActorRole string            `gorm:"type:varchar(10);not null" json:"actor_role"`
	Action    NegotiationAction `gorm:"type:varchar(10);not null" json:"action"`
	OldAmount int64             `gorm:"not null" json:"old_amount"`
	NewAmount *int64            `json:"new_amount,omitempty"`
	Notes     string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// TableName sets the table name for NegotiationHistory
func (NegotiationHistory) TableName() string {
	return "negotiation_history"
}

// CurrentAmount is the price a payment would collect: the negotiated
// final amount when one exists, the original quote otherwise.
func (b *Booking) CurrentAmount() int64 {
	if b.FinalAmount != nil {
		return *b.FinalAmount
	}
	return b.OriginalAmount
}
