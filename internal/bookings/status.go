package bookings

type Status string

const (
	StatusPending              Status = "pending"
	StatusNegotiation          Status = "negotiation"
	StatusNegotiationRequested Status = "negotiation_requested"
	StatusPendingPayment       Status = "pending_payment"
	StatusPaid                 Status = "paid"
	StatusCancelled            Status = "cancelled"
	StatusExpired              Status = "expired"
)

// IsValid checks if the booking status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusNegotiation, StatusNegotiationRequested,
		StatusPendingPayment, StatusPaid, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsPayable reports whether a booking in this status may start a payment.
// Terminal states (paid, cancelled, expired) are excluded.
func (s Status) IsPayable() bool {
	switch s {
	case StatusPaid, StatusCancelled, StatusExpired:
		return false
	}
	return true
}

// IsTerminal reports whether no further automatic transition can occur.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPaid, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

type NegotiationStatus string

const (
	NegotiationNone         NegotiationStatus = "none"
	NegotiationRequested    NegotiationStatus = "requested"
	NegotiationCounterOffer NegotiationStatus = "counter_offer"
	NegotiationAccepted     NegotiationStatus = "accepted"
	NegotiationRejected     NegotiationStatus = "rejected"
)

// IsValid checks if the negotiation status is valid
func (n NegotiationStatus) IsValid() bool {
	switch n {
	case NegotiationNone, NegotiationRequested, NegotiationCounterOffer,
		NegotiationAccepted, NegotiationRejected:
		return true
	}
	return false
}

// String returns the string representation of NegotiationStatus
func (n NegotiationStatus) String() string {
	return string(n)
}

// IsOpen reports whether the negotiation is awaiting a decision, i.e. a
// counter-offer, accept or reject is allowed.
func (n NegotiationStatus) IsOpen() bool {
	return n == NegotiationRequested || n == NegotiationCounterOffer
}

// NegotiationAction identifies a ledger entry's action.
type NegotiationAction string

const (
	ActionRequest NegotiationAction = "request"
	ActionCounter NegotiationAction = "counter"
	ActionAccept  NegotiationAction = "accept"
	ActionReject  NegotiationAction = "reject"
)
