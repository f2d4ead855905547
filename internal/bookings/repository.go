package bookings

import (
	"context"
	"errors"
	"fmt"

	"dejair/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Core booking operations
	CreateBooking(ctx context.Context, booking *Booking) error
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// Transition runs mutate against the booking under a row-level lock and
	// persists the result together with the returned ledger entry in one
	// transaction. A losing concurrent writer observes the winner's state
	// inside mutate and can reject with StateConflict.
	Transition(ctx context.Context, id uuid.UUID, mutate func(booking *Booking) (*NegotiationHistory, error)) (*Booking, error)

	// Client booking operations
	GetClientBookings(ctx context.Context, clientID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)

	// Admin operations
	GetAllBookings(ctx context.Context, query BookingListQuery) ([]Booking, int64, error)
	GetBookingsByStatuses(ctx context.Context, statuses []Status) ([]Booking, error)
	GetBookingsByNegotiationStatuses(ctx context.Context, statuses []NegotiationStatus) ([]Booking, error)

	// Audit ledger: append happens inside Transition, reads are ordered
	// oldest first to match commit order.
	GetNegotiationHistory(ctx context.Context, bookingID uuid.UUID) ([]NegotiationHistory, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBooking(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("booking %s not found", id)
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, mutate func(booking *Booking) (*NegotiationHistory, error)) (*Booking, error) {
	var booking Booking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the booking row so concurrent operations on the same
		// booking serialize here.
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&booking).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("booking %s not found", id)
			}
			return fmt.Errorf("failed to lock booking: %w", err)
		}

		// 2. Apply the state transition. Guard failures abort the
		// transaction before any write.
		entry, err := mutate(&booking)
		if err != nil {
			return err
		}

		// 3. Persist the mutated booking.
		if err := tx.Save(&booking).Error; err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}

		// 4. Append the ledger entry, if the transition produced one.
		if entry != nil {
			entry.BookingID = booking.ID
			if err := tx.Create(entry).Error; err != nil {
				return fmt.Errorf("failed to append negotiation history: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetClientBookings(ctx context.Context, clientID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	baseQuery := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("client_id = ?", clientID)
	return r.paginate(baseQuery, query)
}

func (r *repository) GetAllBookings(ctx context.Context, query BookingListQuery) ([]Booking, int64, error) {
	baseQuery := r.db.WithContext(ctx).Model(&Booking{})
	return r.paginate(baseQuery, query)
}

func (r *repository) GetBookingsByStatuses(ctx context.Context, statuses []Status) ([]Booking, error) {
	var records []Booking
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

func (r *repository) GetBookingsByNegotiationStatuses(ctx context.Context, statuses []NegotiationStatus) ([]Booking, error) {
	var records []Booking
	err := r.db.WithContext(ctx).
		Where("negotiation_status IN ?", statuses).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

func (r *repository) GetNegotiationHistory(ctx context.Context, bookingID uuid.UUID) ([]NegotiationHistory, error) {
	var entries []NegotiationHistory
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) paginate(baseQuery *gorm.DB, query BookingListQuery) ([]Booking, int64, error) {
	var records []Booking
	var totalCount int64

	// Set defaults
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	if query.Status != "" {
		baseQuery = baseQuery.Where("status = ?", query.Status)
	}

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&records).Error

	return records, totalCount, err
}
