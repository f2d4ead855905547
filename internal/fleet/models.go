package fleet

import (
	"time"

	"github.com/google/uuid"
)

// Helicopter is the chartered resource a booking reserves.
type Helicopter struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Model     string    `gorm:"uniqueIndex;not null" json:"model"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Helicopter) TableName() string {
	return "helicopters"
}

// CreateHelicopterRequest represents the admin payload for adding a helicopter
type CreateHelicopterRequest struct {
	Model    string `json:"model" binding:"required"`
	Capacity int    `json:"capacity" binding:"required,gt=0"`
	ImageURL string `json:"image_url"`
}

// UpdateHelicopterRequest represents a partial update
type UpdateHelicopterRequest struct {
	Model    *string `json:"model"`
	Capacity *int    `json:"capacity" binding:"omitempty,gt=0"`
	ImageURL *string `json:"image_url"`
}
