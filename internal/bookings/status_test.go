package bookings

import "testing"

func TestStatusIsPayable(t *testing.T) {
	payable := []Status{StatusPending, StatusNegotiation, StatusNegotiationRequested, StatusPendingPayment}
	for _, s := range payable {
		if !s.IsPayable() {
			t.Errorf("%s should be payable", s)
		}
	}

	closed := []Status{StatusPaid, StatusCancelled, StatusExpired}
	for _, s := range closed {
		if s.IsPayable() {
			t.Errorf("%s should not be payable", s)
		}
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusNegotiation, StatusNegotiationRequested,
		StatusPendingPayment, StatusPaid, StatusCancelled, StatusExpired} {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("confirmed").IsValid() {
		t.Error("unknown status should be invalid")
	}
}

func TestNegotiationStatusIsOpen(t *testing.T) {
	open := []NegotiationStatus{NegotiationRequested, NegotiationCounterOffer}
	for _, n := range open {
		if !n.IsOpen() {
			t.Errorf("%s should be open", n)
		}
	}

	settled := []NegotiationStatus{NegotiationNone, NegotiationAccepted, NegotiationRejected}
	for _, n := range settled {
		if n.IsOpen() {
			t.Errorf("%s should not be open", n)
		}
	}
}

func TestCurrentAmount(t *testing.T) {
	b := &Booking{OriginalAmount: 10000}
	if b.CurrentAmount() != 10000 {
		t.Errorf("current amount = %d, want original 10000", b.CurrentAmount())
	}

	final := int64(8500)
	b.FinalAmount = &final
	if b.CurrentAmount() != 8500 {
		t.Errorf("current amount = %d, want final 8500", b.CurrentAmount())
	}
}
