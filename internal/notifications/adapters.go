package notifications

import (
	"context"
	"time"

	"dejair/internal/bookings"
	"dejair/internal/payments"

	"github.com/google/uuid"
)

// EventAdapter translates the narrow publisher interfaces the bookings and
// payments services expect into notification envelopes on the event topic.
type EventAdapter struct {
	producer EventProducer
}

func NewEventAdapter(producer EventProducer) *EventAdapter {
	return &EventAdapter{producer: producer}
}

// PublishBookingEvent implements bookings.EventPublisher
func (a *EventAdapter) PublishBookingEvent(ctx context.Context, event bookings.BookingEvent) error {
	return a.producer.Publish(ctx, &BookingNotification{
		ID:        uuid.New(),
		Type:      event.Type,
		BookingID: event.BookingID,
		ClientID:  event.ClientID,
		Amount:    event.Amount,
		Notes:     event.Notes,
		CreatedAt: time.Now(),
	})
}

// PublishPaymentEvent implements payments.EventPublisher
func (a *EventAdapter) PublishPaymentEvent(ctx context.Context, event payments.PaymentEvent) error {
	amount := event.Amount
	paymentID := event.PaymentID
	return a.producer.Publish(ctx, &BookingNotification{
		ID:        uuid.New(),
		Type:      event.Type,
		BookingID: event.BookingID,
		PaymentID: &paymentID,
		Amount:    &amount,
		Reason:    event.Reason,
		CreatedAt: time.Now(),
	})
}
