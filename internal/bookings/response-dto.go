package bookings

import "time"

type BookingResponse struct {
	ID                string    `json:"id"`
	ClientID          string    `json:"client_id"`
	HelicopterID      string    `json:"helicopter_id"`
	FlightDate        string    `json:"flight_date"`
	FlightTime        string    `json:"flight_time"`
	Purpose           string    `json:"purpose,omitempty"`
	NumPassengers     int       `json:"num_passengers"`
	OriginalAmount    int64     `json:"original_amount"`
	FinalAmount       *int64    `json:"final_amount,omitempty"`
	Status            string    `json:"status"`
	NegotiationStatus string    `json:"negotiation_status"`
	PaymentID         *string   `json:"payment_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type NegotiationHistoryResponse struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	ActorID   string    `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	Action    string    `json:"action"`
	OldAmount int64     `json:"old_amount"`
	NewAmount *int64    `json:"new_amount,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusSnapshot is the lightweight payload clients poll while waiting on
// a negotiation decision or payment outcome.
type StatusSnapshot struct {
	BookingID         string  `json:"booking_id"`
	Status            string  `json:"status"`
	NegotiationStatus string  `json:"negotiation_status"`
	FinalAmount       *int64  `json:"final_amount,omitempty"`
	PaymentStatus     *string `json:"payment_status,omitempty"`
	CheckoutRequestID *string `json:"checkout_request_id,omitempty"`
}

type BookingListResponse struct {
	Bookings   []BookingResponse `json:"bookings"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

func ToBookingResponse(b *Booking) BookingResponse {
	resp := BookingResponse{
		ID:                b.ID.String(),
		ClientID:          b.ClientID.String(),
		HelicopterID:      b.HelicopterID.String(),
		FlightDate:        b.FlightDate.Format("2006-01-02"),
		FlightTime:        b.FlightTime,
		Purpose:           b.Purpose,
		NumPassengers:     b.NumPassengers,
		OriginalAmount:    b.OriginalAmount,
		FinalAmount:       b.FinalAmount,
		Status:            b.Status.String(),
		NegotiationStatus: b.NegStatus.String(),
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
	if b.PaymentID != nil {
		id := b.PaymentID.String()
		resp.PaymentID = &id
	}
	return resp
}

func ToBookingListResponse(records []Booking, totalCount int64, page, limit int) BookingListResponse {
	responses := make([]BookingResponse, 0, len(records))
	for i := range records {
		responses = append(responses, ToBookingResponse(&records[i]))
	}
	return BookingListResponse{
		Bookings:   responses,
		TotalCount: totalCount,
		Page:       page,
		Limit:      limit,
	}
}

func ToHistoryResponse(entries []NegotiationHistory) []NegotiationHistoryResponse {
	responses := make([]NegotiationHistoryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, NegotiationHistoryResponse{
			ID:        e.ID.String(),
			BookingID: e.BookingID.String(),
			ActorID:   e.ActorID.String(),
			ActorRole: e.ActorRole,
			Action:    string(e.Action),
			OldAmount: e.OldAmount,
			NewAmount: e.NewAmount,
			Notes:     e.Notes,
			CreatedAt: e.CreatedAt,
		})
	}
	return responses
}
