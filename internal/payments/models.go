package payments

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// IsTerminal reports whether the payment can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

func (s Status) String() string {
	return string(s)
}

// Payment is one attempt to collect money for a booking through the
// gateway. At most one pending row may exist per booking; terminal rows
// are immutable.
type Payment struct {
	ID                uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID         uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	Amount            int64     `gorm:"not null" json:"amount"`
	PhoneNumber       string    `gorm:"type:varchar(15);not null" json:"phone_number"`
	MerchantRequestID string    `gorm:"type:varchar(100)" json:"merchant_request_id"`
	CheckoutRequestID string    `gorm:"type:varchar(100);uniqueIndex" json:"checkout_request_id"`
	Status            Status    `gorm:"type:varchar(10);index;default:'pending'" json:"status"`
	FailureReason     string    `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName sets the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

type PayRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
}

type PaymentResponse struct {
	ID                string    `json:"id"`
	BookingID         string    `json:"booking_id"`
	Amount            int64     `json:"amount"`
	PhoneNumber       string    `json:"phone_number"`
	MerchantRequestID string    `json:"merchant_request_id,omitempty"`
	CheckoutRequestID string    `json:"checkout_request_id,omitempty"`
	Status            string    `json:"status"`
	FailureReason     string    `json:"failure_reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func ToPaymentResponse(p *Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID.String(),
		BookingID:         p.BookingID.String(),
		Amount:            p.Amount,
		PhoneNumber:       p.PhoneNumber,
		MerchantRequestID: p.MerchantRequestID,
		CheckoutRequestID: p.CheckoutRequestID,
		Status:            p.Status.String(),
		FailureReason:     p.FailureReason,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func ToPaymentListResponse(records []Payment) []PaymentResponse {
	responses := make([]PaymentResponse, 0, len(records))
	for i := range records {
		responses = append(responses, ToPaymentResponse(&records[i]))
	}
	return responses
}
