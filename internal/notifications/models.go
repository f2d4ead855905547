package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BookingNotification is the envelope published to the event topic for
// every booking and payment lifecycle event. The consumer turns it into
// a client-facing email.
type BookingNotification struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	BookingID uuid.UUID  `json:"booking_id"`
	ClientID  uuid.UUID  `json:"client_id"`
	PaymentID *uuid.UUID `json:"payment_id,omitempty"`
	Amount    *int64     `json:"amount,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToJSON serializes the notification for the wire
func (n *BookingNotification) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

// FromJSON deserializes a notification from the wire
func FromJSON(data []byte) (*BookingNotification, error) {
	var n BookingNotification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// GetPartitionKey routes all events for one booking to the same partition
// so per-booking ordering survives the broker.
func (n *BookingNotification) GetPartitionKey() string {
	return n.BookingID.String()
}
