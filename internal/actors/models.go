package actors

import (
	"time"

	"github.com/google/uuid"
)

// Client is a customer account that can create bookings and pay for them.
type Client struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	Name        string    `json:"name" gorm:"not null"`
	PhoneNumber string    `json:"phone_number" gorm:"uniqueIndex;not null"`
	Email       string    `json:"email" gorm:"uniqueIndex"`
	Password    string    `json:"-" gorm:"not null"` // hide in json
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Admin is an operator account that negotiates prices and manages the fleet.
type Admin struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	Name         string    `json:"name" gorm:"not null"`
	PhoneNumber  string    `json:"phone_number" gorm:"uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex"`
	Password     string    `json:"-" gorm:"not null"`
	IsSuperadmin bool      `json:"is_superadmin" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Client) TableName() string {
	return "clients"
}

func (Admin) TableName() string {
	return "admins"
}
