package bookings

import (
	"context"
	"fmt"
	"time"

	"dejair/internal/actors"
	"dejair/internal/fleet"
	"dejair/internal/shared/apperrors"
	"dejair/internal/shared/constants"
	"dejair/pkg/cache"
	"dejair/pkg/logger"

	"github.com/google/uuid"
)

// FleetCatalog is the slice of the fleet service the booking flow needs
// (to avoid a hard dependency on the full fleet surface)
type FleetCatalog interface {
	Get(ctx context.Context, id uuid.UUID) (*fleet.Helicopter, error)
}

// EventPublisher publishes booking lifecycle events (to avoid circular dependency)
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event BookingEvent) error
}

// BookingEvent is the payload handed to the event publisher after a
// successful state transition.
type BookingEvent struct {
	Type      string     `json:"type"`
	BookingID uuid.UUID  `json:"booking_id"`
	ClientID  uuid.UUID  `json:"client_id"`
	Amount    *int64     `json:"amount,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	ActorID   *uuid.UUID `json:"actor_id,omitempty"`
}

// Booking event types
const (
	EventBookingCreated       = "BOOKING_CREATED"
	EventNegotiationRequested = "NEGOTIATION_REQUESTED"
	EventNegotiationCountered = "NEGOTIATION_COUNTERED"
	EventNegotiationAccepted  = "NEGOTIATION_ACCEPTED"
	EventNegotiationRejected  = "NEGOTIATION_REJECTED"
)

// PaymentStatusInfo is the payment slice exposed in the status snapshot.
type PaymentStatusInfo struct {
	Status            string `json:"status"`
	CheckoutRequestID string `json:"checkout_request_id"`
}

// PaymentStatusReader reports the latest payment attempt for a booking
// (to avoid circular dependency with the payments package). A nil result
// means no payment has been attempted.
type PaymentStatusReader interface {
	LatestPaymentStatus(ctx context.Context, bookingID uuid.UUID) (*PaymentStatusInfo, error)
}

// Service interface defines the contract for booking business logic
type Service interface {
	CreateBooking(ctx context.Context, actor actors.Actor, req CreateBookingRequest) (*BookingResponse, error)
	GetBooking(ctx context.Context, actor actors.Actor, bookingID uuid.UUID) (*BookingResponse, error)
	ListBookings(ctx context.Context, actor actors.Actor, query BookingListQuery) (*BookingListResponse, error)

	// Negotiation state machine
	RequestNegotiation(ctx context.Context, actor actors.Actor, bookingID uuid.UUID, req NegotiationRequest) (*BookingResponse, error)
	CounterOffer(ctx context.Context, actor actors.Actor, bookingID uuid.UUID, req CounterOfferRequest) (*BookingResponse, error)
	Decide(ctx context.Context, actor actors.Actor, bookingID uuid.UUID, req DecisionRequest) (*BookingResponse, error)

	// Audit ledger
	GetNegotiationHistory(ctx context.Context, actor actors.Actor, bookingID uuid.UUID) ([]NegotiationHistoryResponse, error)

	// Status polling
	GetStatus(ctx context.Context, actor actors.Actor, bookingID uuid.UUID) (*StatusSnapshot, error)

	// Admin triage
	ListByKind(ctx context.Context, kind string) ([]BookingResponse, error)

	// Late wiring hooks; payments and notifications depend on this package
	// so they cannot be constructor arguments.
	SetPaymentStatusReader(reader PaymentStatusReader)
	SetEventPublisher(publisher EventPublisher)
}

// service implements the Service interface
type service struct {
	repo          Repository
	fleetCatalog  FleetCatalog
	paymentReader PaymentStatusReader
	publisher     EventPublisher
	cache         cache.Service
	log           *logger.Logger
}

// NewService creates a new booking service instance. publisher and
// paymentReader may be nil; the related features degrade gracefully.
func NewService(repo Repository, fleetCatalog FleetCatalog, cacheService cache.Service) Service {
	return &service{
		repo:         repo,
		fleetCatalog: fleetCatalog,
		cache:        cacheService,
		log:          logger.GetDefault(),
	}
}

// SetPaymentStatusReader wires the payment lookup used by status snapshots.
// Called after construction because payments depends on bookings.
func (s *service) SetPaymentStatusReader(reader PaymentStatusReader) {
	s.paymentReader = reader
}

// SetEventPublisher wires the lifecycle event publisher.
func (s *service) SetEventPublisher(publisher EventPublisher) {
	s.publisher = publisher
}

func (s *service) CreateBooking(ctx context.Context, actor actors.Actor, req CreateBookingRequest) (*BookingResponse, error) {
	if !actor.IsClient() {
		return nil, apperrors.Authorization("only clients can create bookings")
	}

	helicopterID, err := uuid.Parse(req.HelicopterID)
	if err != nil {
		return nil, apperrors.Validation("invalid helicopter id")
	}

	flightDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, apperrors.Validation("date must be in YYYY-MM-DD format")
	}

	if req.OriginalAmount <= 0 {
		return nil, apperrors.Validation("original amount must be positive")
	}

	helicopter, err := s.fleetCatalog.Get(ctx, helicopterID)
	if err != nil {
		return nil, err
	}
	if req.NumPassengers > helicopter.Capacity {
		return nil, apperrors.Validation("helicopter %s seats %d passengers, requested %d",
			helicopter.Model, helicopter.Capacity, req.NumPassengers)
	}

	booking := &Booking{
		ID:             uuid.New(),
		ClientID:       actor.ID,
		HelicopterID:   helicopterID,
		FlightDate:     flightDate,
		FlightTime:     req.Time,
		Purpose:        req.Purpose,
		NumPassengers:  req.NumPassengers,
		OriginalAmount: req.OriginalAmount,
		Status:         StatusPending,
		NegStatus:      NegotiationNone,
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.log.LogBookingCreated(ctx, booking.ID.String(), helicopterID.String(), actor.ID.String())
	s.publishEvent(ctx, BookingEvent{
		Type:      EventBookingCreated,
		BookingID: booking.ID,
		ClientID:  booking.ClientID,
		Amount:    &booking.OriginalAmount,
	})

	resp := ToBookingResponse(booking)
	return &resp, nil
}

func (s *service) GetBooking(ctx context.Context, actor actors.Actor, bookingID uuid.UUID) (*BookingResponse, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(actor, booking); err != nil {
		return nil, err
	}
	resp := ToBookingResponse(booking)
	return &resp, nil
}

func (s *service) ListBookings(ctx context.Context, actor actors.Actor, query BookingListQuery) (*BookingListResponse, error) {
	var (
		records    []Booking
		totalCount int64
		err        error
	)

	if actor.IsAdmin() {
		records, totalCount, err = s.repo.GetAllBookings(ctx, query)
	} else {
		records, totalCount, err = s.repo.GetClientBookings(ctx, actor.ID, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	resp := ToBookingListResponse(records, totalCount, query.Page, query.Limit)
	return &resp, nil
}

func (s *service) RequestNegotiation(ctx context.Context, actor actors.Actor, bookingID uuid.UUID, req NegotiationRequest) (*BookingResponse, error) {
	if !actor.IsClient() {
		return nil, apperrors.Authorization("only the booking client can request negotiation")
	}

	booking, err := s.repo.Transition(ctx, bookingID, func(b *Booking) (*NegotiationHistory, error) {
		if b.ClientID != actor.ID {
			return nil, apperrors.Authorization("booking belongs to another client")
		}
		if b.Status != StatusPending || b.NegStatus != NegotiationNone {
			return nil, apperrors.StateConflict("negotiation cannot be requested in status %s/%s", b.Status, b.NegStatus)
		}
		if req.NegotiatedAmount >= b.OriginalAmount {
			return nil, apperrors.Validation("negotiated amount must be less than the original amount")
		}

		oldAmount := b.OriginalAmount
		b.FinalAmount = &req.NegotiatedAmount
		b.Status = StatusNegotiationRequested
		b.NegStatus = NegotiationRequested

		return &NegotiationHistory{
			ActorID:   actor.ID,
			ActorRole: string(actor.Role),
			Action:    ActionRequest,
			OldAmount: oldAmount,
			NewAmount: &req.NegotiatedAmount,
			Notes:     req.Notes,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, booking, "request", booking.OriginalAmount, booking.FinalAmount)
	s.publishEvent(ctx, BookingEvent{
		Type:      EventNegotiationRequested,
		BookingID: booking.ID,
		ClientID:  booking.ClientID,
		Amount:    booking.FinalAmount,
		Notes:     req.Notes,
		ActorID:   &actor.ID,
	})

	resp := ToBookingResponse(booking)
	return &resp, nil
}

func (s *service) CounterOffer(ctx context.Context, actor actors.Actor, bookingID uuid.UUID, req CounterOfferRequest) (*BookingResponse, error) {
	if !actor.IsClient() {
		return nil, apperrors.Authorization("only the booking client can counter-offer")
	}

	var oldAmount int64
	booking, err := s.repo.Transition(ctx, bookingID, func(b *Booking) (*NegotiationHistory, error) {
		if b.ClientID != actor.ID {
			return nil, apperrors.Authorization("booking belongs to another client")
		}
		if !b.NegStatus.IsOpen() {
			return nil, apperrors.StateConflict("no open negotiation to counter in status %s/%s", b.Status, b.NegStatus)
		}
		// Price only moves down: a counter must undercut the amount it
		// counters, equality included.
		oldAmount = b.CurrentAmount()
		if req.CounterOffer >= oldAmount {
			return nil, apperrors.Validation("counter offer must be less than the current amount %d", oldAmount)
		}

		b.FinalAmount = &req.CounterOffer
		b.Status = StatusNegotiation
		b.NegStatus = NegotiationCounterOffer

		return &NegotiationHistory{
			ActorID:   actor.ID,
			ActorRole: string(actor.Role),
			Action:    ActionCounter,
			OldAmount: oldAmount,
			NewAmount: &req.CounterOffer,
			Notes:     req.Notes,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, booking, "counter", oldAmount, booking.FinalAmount)
	s.publishEvent(ctx, BookingEvent{
		Type:      EventNegotiationCountered,
		BookingID: booking.ID,
		ClientID:  booking.ClientID,
		Amount:    booking.FinalAmount,
		Notes:     req.Notes,
		ActorID:   &actor.ID,
	})

	resp := ToBookingResponse(booking)
	return &resp, nil
}

func (s *service) Decide(ctx context.Context, actor actors.Actor, bookingID uuid.UUID, req DecisionRequest) (*BookingResponse, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Authorization("only admins can decide a negotiation")
	}

	switch req.NegotiationAction {
	case "accept":
		return s.accept(ctx, actor, bookingID, req)
	case "reject":
		return s.reject(ctx, actor, bookingID, req)
	default:
		return nil, apperrors.Validation("negotiation action must be accept or reject")
	}
}

func (s *service) accept(ctx context.Context, actor actors.Actor, bookingID uuid.UUID, req DecisionRequest) (*BookingResponse, error) {
	if req.FinalAmount == nil || *req.FinalAmount <= 0 {
		return nil, apperrors.Validation("final amount is required to accept a negotiation")
	}
	finalAmount := *req.FinalAmount

	var oldAmount int64
	booking, err := s.repo.Transition(ctx, bookingID, func(b *Booking) (*NegotiationHistory, error) {
		if !b.NegStatus.IsOpen() {
			return nil, apperrors.StateConflict("no open negotiation to accept in status %s/%s", b.Status, b.NegStatus)
		}
		if finalAmount > b.OriginalAmount {
			return nil, apperrors.Validation("final amount cannot exceed the original amount %d", b.OriginalAmount)
		}

		oldAmount = b.CurrentAmount()
		b.FinalAmount = &finalAmount
		b.Status = StatusPendingPayment
		b.NegStatus = NegotiationAccepted

		return &NegotiationHistory{
			ActorID:   actor.ID,
			ActorRole: string(actor.Role),
			Action:    ActionAccept,
			OldAmount: oldAmount,
			NewAmount: &finalAmount,
			Notes:     req.Notes,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, booking, "accept", oldAmount, booking.FinalAmount)
	s.publishEvent(ctx, BookingEvent{
		Type:      EventNegotiationAccepted,
		BookingID: booking.ID,
		ClientID:  booking.ClientID,
		Amount:    booking.FinalAmount,
		Notes:     req.Notes,
		ActorID:   &actor.ID,
	})

	resp := ToBookingResponse(booking)
	return &resp, nil
}

func (s *service) reject(ctx context.Context, actor actors.Actor, bookingID uuid.UUID, req DecisionRequest) (*BookingResponse, error) {
	var oldAmount int64
	booking, err := s.repo.Transition(ctx, bookingID, func(b *Booking) (*NegotiationHistory, error) {
		if !b.NegStatus.IsOpen() {
			return nil, apperrors.StateConflict("no open negotiation to reject in status %s/%s", b.Status, b.NegStatus)
		}

		oldAmount = b.CurrentAmount()
		b.Status = StatusCancelled
		b.NegStatus = NegotiationRejected

		return &NegotiationHistory{
			ActorID:   actor.ID,
			ActorRole: string(actor.Role),
			Action:    ActionReject,
			OldAmount: oldAmount,
			NewAmount: nil,
			Notes:     req.Notes,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, booking, "reject", oldAmount, nil)
	s.publishEvent(ctx, BookingEvent{
		Type:      EventNegotiationRejected,
		BookingID: booking.ID,
		ClientID:  booking.ClientID,
		Notes:     req.Notes,
		ActorID:   &actor.ID,
	})

	resp := ToBookingResponse(booking)
	return &resp, nil
}

func (s *service) GetNegotiationHistory(ctx context.Context, actor actors.Actor, bookingID uuid.UUID) ([]NegotiationHistoryResponse, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(actor, booking); err != nil {
		return nil, err
	}

	entries, err := s.repo.GetNegotiationHistory(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load negotiation history: %w", err)
	}
	return ToHistoryResponse(entries), nil
}

func (s *service) GetStatus(ctx context.Context, actor actors.Actor, bookingID uuid.UUID) (*StatusSnapshot, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(actor, booking); err != nil {
		return nil, err
	}

	cacheKey := constants.BuildBookingStatusKey(bookingID.String())
	var snapshot StatusSnapshot
	err = s.cache.GetOrSet(ctx, cacheKey, constants.TTL_BOOKING_STATUS, func() (interface{}, error) {
		return s.buildSnapshot(ctx, booking)
	}, &snapshot)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *service) buildSnapshot(ctx context.Context, booking *Booking) (*StatusSnapshot, error) {
	snapshot := &StatusSnapshot{
		BookingID:         booking.ID.String(),
		Status:            booking.Status.String(),
		NegotiationStatus: booking.NegStatus.String(),
		FinalAmount:       booking.FinalAmount,
	}

	if s.paymentReader != nil {
		info, err := s.paymentReader.LatestPaymentStatus(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		if info != nil {
			snapshot.PaymentStatus = &info.Status
			snapshot.CheckoutRequestID = &info.CheckoutRequestID
		}
	}
	return snapshot, nil
}

// ListByKind serves the admin triage buckets: bookings in an open
// negotiation, bookings stuck before payment, and settled ones.
func (s *service) ListByKind(ctx context.Context, kind string) ([]BookingResponse, error) {
	var (
		records []Booking
		err     error
	)

	switch kind {
	case "negotiated":
		records, err = s.repo.GetBookingsByNegotiationStatuses(ctx, []NegotiationStatus{NegotiationRequested, NegotiationCounterOffer})
	case "incomplete":
		records, err = s.repo.GetBookingsByStatuses(ctx, []Status{StatusPending, StatusNegotiationRequested})
	case "completed":
		records, err = s.repo.GetBookingsByStatuses(ctx, []Status{StatusPaid})
	default:
		return nil, apperrors.Validation("unknown booking kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s bookings: %w", kind, err)
	}

	responses := make([]BookingResponse, 0, len(records))
	for i := range records {
		responses = append(responses, ToBookingResponse(&records[i]))
	}
	return responses, nil
}

func (s *service) authorizeRead(actor actors.Actor, booking *Booking) error {
	if actor.IsAdmin() || booking.ClientID == actor.ID {
		return nil
	}
	return apperrors.Authorization("booking belongs to another client")
}

func (s *service) afterTransition(ctx context.Context, booking *Booking, action string, oldAmount int64, newAmount *int64) {
	s.log.LogNegotiationAction(ctx, booking.ID.String(), action, oldAmount, newAmount)
	s.invalidateStatusCache(ctx, booking.ID)
}

func (s *service) invalidateStatusCache(ctx context.Context, bookingID uuid.UUID) {
	if err := s.cache.Delete(ctx, constants.BuildBookingStatusKey(bookingID.String())); err != nil {
		s.log.Warn("failed to invalidate booking status cache", "booking_id", bookingID.String(), "error", err)
	}
}

func (s *service) publishEvent(ctx context.Context, event BookingEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBookingEvent(ctx, event); err != nil {
		s.log.Warn("failed to publish booking event", "type", event.Type, "booking_id", event.BookingID.String(), "error", err)
	}
}
