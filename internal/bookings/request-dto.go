package bookings

type CreateBookingRequest struct {
	HelicopterID   string `json:"helicopter_id" binding:"required,uuid"`
	Date           string `json:"date" binding:"required"`
	Time           string `json:"time" binding:"required"`
	Purpose        string `json:"purpose"`
	NumPassengers  int    `json:"num_passengers" binding:"required,gt=0"`
	OriginalAmount int64  `json:"original_amount" binding:"required,gt=0"`
}

type NegotiationRequest struct {
	NegotiatedAmount int64  `json:"negotiated_amount" binding:"required,gt=0"`
	Notes            string `json:"notes"`
}

type CounterOfferRequest struct {
	CounterOffer int64  `json:"counter_offer" binding:"required,gt=0"`
	Notes        string `json:"notes"`
}

// DecisionRequest carries an admin's accept/reject verdict. FinalAmount is
// required for accept and ignored for reject.
type DecisionRequest struct {
	NegotiationAction string `json:"negotiation_action" binding:"required,oneof=accept reject"`
	FinalAmount       *int64 `json:"final_amount,omitempty"`
	Notes             string `json:"notes"`
}

type BookingListQuery struct {
	Status string `form:"status"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}
