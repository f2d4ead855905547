package payments

import (
	"context"
	"fmt"
	"time"

	"dejair/internal/actors"
	"dejair/internal/bookings"
	"dejair/internal/mpesa"
	"dejair/internal/shared/apperrors"
	"dejair/internal/shared/config"
	"dejair/internal/shared/constants"
	"dejair/pkg/cache"
	"dejair/pkg/logger"

	"github.com/google/uuid"
)

// Payment event types
const (
	EventPaymentSuccess = "PAYMENT_SUCCESS"
	EventPaymentFailed  = "PAYMENT_FAILED"
)

// PaymentEvent is the payload handed to the event publisher once a payment
// reaches a terminal state.
type PaymentEvent struct {
	Type      string    `json:"type"`
	BookingID uuid.UUID `json:"booking_id"`
	PaymentID uuid.UUID `json:"payment_id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason,omitempty"`
}

// EventPublisher publishes payment lifecycle events (to avoid circular dependency)
type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event PaymentEvent) error
}

// Service orchestrates payment collection: a durable initiation against
// the gateway followed by a bounded confirmation loop. Confirmation keys
// off the persisted checkout request id, never in-memory state, so a
// crash between the two steps loses nothing.
type Service interface {
	// Pay is the blocking flow: initiate, then confirm in the same call.
	Pay(ctx context.Context, actor actors.Actor, bookingID uuid.UUID, req PayRequest) (*PaymentResponse, error)

	// Initiate starts a payment and returns immediately with the
	// correlation id; confirmation arrives via callback or Confirm.
	Initiate(ctx context.Context, actor actors.Actor, bookingID uuid.UUID, req PayRequest) (*PaymentResponse, error)

	// Confirm polls the gateway until the payment is terminal or the
	// attempt budget runs out.
	Confirm(ctx context.Context, checkoutRequestID string) (*PaymentResponse, error)

	// HandleCallback applies the asynchronous confirmation Daraja posts to
	// the callback URL.
	HandleCallback(ctx context.Context, payload mpesa.CallbackPayload) error

	ListForBooking(ctx context.Context, actor actors.Actor, bookingID uuid.UUID) ([]PaymentResponse, error)
	ListAll(ctx context.Context) ([]PaymentResponse, error)

	// LatestPaymentStatus feeds the booking status snapshot.
	LatestPaymentStatus(ctx context.Context, bookingID uuid.UUID) (*bookings.PaymentStatusInfo, error)

	SetEventPublisher(publisher EventPublisher)
}

type service struct {
	repo        Repository
	bookingRepo bookings.Repository
	gateway     mpesa.Client
	publisher   EventPublisher
	cache       cache.Service
	log         *logger.Logger

	verifyAttempts int
	verifyInterval time.Duration
}

func NewService(repo Repository, bookingRepo bookings.Repository, gateway mpesa.Client, cacheService cache.Service, cfg config.MpesaConfig) Service {
	return &service{
		repo:           repo,
		bookingRepo:    bookingRepo,
		gateway:        gateway,
		cache:          cacheService,
		log:            logger.GetDefault(),
		verifyAttempts: cfg.VerifyAttempts,
		verifyInterval: cfg.VerifyInterval,
	}
}

func (s *service) SetEventPublisher(publisher EventPublisher) {
	s.publisher = publisher
}

func (s *service) Pay(ctx context.Context, actor actors.Actor, bookingID uuid.UUID, req PayRequest) (*PaymentResponse, error) {
	payment, err := s.initiate(ctx, actor, bookingID, req)
	if err != nil {
		return nil, err
	}
	return s.Confirm(ctx, payment.CheckoutRequestID)
}

func (s *service) Initiate(ctx context.Context, actor actors.Actor, bookingID uuid.UUID, req PayRequest) (*PaymentResponse, error) {
	payment, err := s.initiate(ctx, actor, bookingID, req)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

func (s *service) initiate(ctx context.Context, actor actors.Actor, bookingID uuid.UUID, req PayRequest) (*Payment, error) {
	booking, err := s.bookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !actor.IsClient() || booking.ClientID != actor.ID {
		return nil, apperrors.Authorization("only the booking client can pay for it")
	}

	if booking.Status == bookings.StatusPaid {
		return nil, apperrors.StateConflict("booking %s is already paid", bookingID)
	}
	if !booking.Status.IsPayable() {
		return nil, apperrors.StateConflict("booking %s is not payable in status %s", bookingID, booking.Status)
	}

	pending, err := s.repo.GetPendingForBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending payments: %w", err)
	}
	if pending != nil {
		return nil, apperrors.StateConflict("a payment is already pending for booking %s", bookingID)
	}

	phone := mpesa.FormatPhone(req.PhoneNumber)
	if len(phone) != 12 {
		return nil, apperrors.Validation("invalid phone number %q", req.PhoneNumber)
	}

	amount := booking.CurrentAmount()

	// No state mutation happens unless the gateway acknowledges the push;
	// the client retries transport failures internally.
	result, err := s.gateway.Initiate(ctx, amount, phone)
	if err != nil {
		return nil, err
	}

	payment := &Payment{
		ID:                uuid.New(),
		BookingID:         bookingID,
		Amount:            amount,
		PhoneNumber:       phone,
		MerchantRequestID: result.MerchantRequestID,
		CheckoutRequestID: result.CheckoutRequestID,
		Status:            StatusPending,
	}

	// Durability boundary: after this commit a crash loses nothing, the
	// checkout request id is enough to finish confirmation.
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}

	// Reflect the in-flight charge on the booking. The payment row is
	// already durable, so a failure here only delays the status change.
	_, err = s.bookingRepo.Transition(ctx, bookingID, func(b *bookings.Booking) (*bookings.NegotiationHistory, error) {
		if !b.Status.IsPayable() {
			return nil, apperrors.StateConflict("booking %s is no longer payable", bookingID)
		}
		b.Status = bookings.StatusPendingPayment
		return nil, nil
	})
	if err != nil {
		// The booking turned terminal between the pre-checks and the push;
		// the fresh payment must not be confirmed against it.
		if apperrors.IsStateConflict(err) {
			if _, failErr := s.repo.MarkFailed(ctx, payment.ID, "booking no longer payable"); failErr != nil {
				s.log.Error("failed to void payment for unpayable booking", "payment_id", payment.ID.String(), "error", failErr)
			}
			s.invalidateStatusCache(ctx, bookingID)
			return nil, err
		}
		s.log.Warn("failed to move booking to pending_payment", "booking_id", bookingID.String(), "error", err)
	}

	s.invalidateStatusCache(ctx, bookingID)
	s.log.LogPaymentInitiated(ctx, bookingID.String(), payment.ID.String(), payment.CheckoutRequestID)
	return payment, nil
}

func (s *service) Confirm(ctx context.Context, checkoutRequestID string) (*PaymentResponse, error) {
	payment, err := s.repo.GetPaymentByCheckoutRequestID(ctx, checkoutRequestID)
	if err != nil {
		return nil, err
	}

	// Terminal payments are immutable; re-confirming returns the recorded
	// outcome.
	if payment.Status.IsTerminal() {
		resp := ToPaymentResponse(payment)
		return &resp, nil
	}

	for attempt := 1; attempt <= s.verifyAttempts; attempt++ {
		result, err := s.gateway.Verify(ctx, checkoutRequestID)
		if err != nil {
			return nil, err
		}

		switch result.Outcome {
		case mpesa.OutcomeSuccess:
			return s.applySuccess(ctx, payment)
		case mpesa.OutcomeFailed:
			return s.applyFailure(ctx, payment, result.ResultDesc)
		case mpesa.OutcomePending, mpesa.OutcomeError:
			// Still processing, or a transient problem: spend one attempt
			// and wait.
			if attempt < s.verifyAttempts {
				if err := sleepCtx(ctx, s.verifyInterval); err != nil {
					return nil, err
				}
			}
		}
	}

	return s.applyFailure(ctx, payment, "confirmation timed out")
}

func (s *service) HandleCallback(ctx context.Context, payload mpesa.CallbackPayload) error {
	cb := payload.Body.StkCallback
	payment, err := s.repo.GetPaymentByCheckoutRequestID(ctx, cb.CheckoutRequestID)
	if err != nil {
		return err
	}

	if payment.Status.IsTerminal() {
		return nil
	}

	if cb.ResultCode == 0 {
		_, err = s.applySuccess(ctx, payment)
	} else {
		_, err = s.applyFailure(ctx, payment, cb.ResultDesc)
	}
	return err
}

func (s *service) applySuccess(ctx context.Context, payment *Payment) (*PaymentResponse, error) {
	updated, err := s.repo.MarkSuccess(ctx, payment.ID)
	if err != nil {
		// A concurrent callback won the race; the recorded outcome stands.
		if apperrors.IsStateConflict(err) {
			return s.reload(ctx, payment.ID)
		}
		return nil, err
	}

	s.invalidateStatusCache(ctx, updated.BookingID)
	s.log.LogPaymentConfirmed(ctx, updated.ID.String(), updated.Status.String(), "")
	s.publishEvent(ctx, PaymentEvent{
		Type:      EventPaymentSuccess,
		BookingID: updated.BookingID,
		PaymentID: updated.ID,
		Amount:    updated.Amount,
	})

	resp := ToPaymentResponse(updated)
	return &resp, nil
}

func (s *service) applyFailure(ctx context.Context, payment *Payment, reason string) (*PaymentResponse, error) {
	updated, err := s.repo.MarkFailed(ctx, payment.ID, reason)
	if err != nil {
		if apperrors.IsStateConflict(err) {
			return s.reload(ctx, payment.ID)
		}
		return nil, err
	}

	s.invalidateStatusCache(ctx, updated.BookingID)
	s.log.LogPaymentConfirmed(ctx, updated.ID.String(), updated.Status.String(), reason)
	s.publishEvent(ctx, PaymentEvent{
		Type:      EventPaymentFailed,
		BookingID: updated.BookingID,
		PaymentID: updated.ID,
		Amount:    updated.Amount,
		Reason:    reason,
	})

	resp := ToPaymentResponse(updated)
	return &resp, nil
}

func (s *service) reload(ctx context.Context, paymentID uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

func (s *service) ListForBooking(ctx context.Context, actor actors.Actor, bookingID uuid.UUID) ([]PaymentResponse, error) {
	booking, err := s.bookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && booking.ClientID != actor.ID {
		return nil, apperrors.Authorization("booking belongs to another client")
	}

	records, err := s.repo.ListForBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return ToPaymentListResponse(records), nil
}

func (s *service) ListAll(ctx context.Context) ([]PaymentResponse, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return ToPaymentListResponse(records), nil
}

func (s *service) LatestPaymentStatus(ctx context.Context, bookingID uuid.UUID) (*bookings.PaymentStatusInfo, error) {
	payment, err := s.repo.GetLatestForBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, nil
	}
	return &bookings.PaymentStatusInfo{
		Status:            payment.Status.String(),
		CheckoutRequestID: payment.CheckoutRequestID,
	}, nil
}

func (s *service) invalidateStatusCache(ctx context.Context, bookingID uuid.UUID) {
	if err := s.cache.Delete(ctx, constants.BuildBookingStatusKey(bookingID.String())); err != nil {
		s.log.Warn("failed to invalidate booking status cache", "booking_id", bookingID.String(), "error", err)
	}
}

func (s *service) publishEvent(ctx context.Context, event PaymentEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPaymentEvent(ctx, event); err != nil {
		s.log.Warn("failed to publish payment event", "type", event.Type, "payment_id", event.PaymentID.String(), "error", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
