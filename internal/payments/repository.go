package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dejair/internal/bookings"
	"dejair/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	CreatePayment(ctx context.Context, payment *Payment) error
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetPaymentByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*Payment, error)

	// GetPendingForBooking returns the booking's pending payment, or nil
	// when none exists.
	GetPendingForBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error)
	GetLatestForBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error)
	ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error)
	ListAll(ctx context.Context) ([]Payment, error)

	// MarkSuccess flips the payment to success, marks the booking paid and
	// links the payment to it, all in one transaction.
	MarkSuccess(ctx context.Context, paymentID uuid.UUID) (*Payment, error)

	// MarkFailed flips the payment to failed with a reason. The booking is
	// left untouched so the caller can retry payment.
	MarkFailed(ctx context.Context, paymentID uuid.UUID, reason string) (*Payment, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePayment(ctx context.Context, payment *Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) GetPaymentByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("payment %s not found", id)
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) GetPaymentByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).Where("checkout_request_id = ?", checkoutRequestID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("payment with checkout request %s not found", checkoutRequestID)
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) GetPendingForBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status = ?", bookingID, StatusPending).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) GetLatestForBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	var records []Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

func (r *repository) ListAll(ctx context.Context) ([]Payment, error) {
	var records []Payment
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

func (r *repository) MarkSuccess(ctx context.Context, paymentID uuid.UUID) (*Payment, error) {
	var payment Payment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the payment row; a concurrent callback and poll loop must
		// not both apply the terminal state.
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", paymentID).
			First(&payment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("payment %s not found", paymentID)
			}
			return fmt.Errorf("failed to lock payment: %w", err)
		}

		// Terminal payments are immutable.
		if payment.Status.IsTerminal() {
			return apperrors.StateConflict("payment %s is already %s", paymentID, payment.Status)
		}

		payment.Status = StatusSuccess
		payment.FailureReason = ""
		if err := tx.Save(&payment).Error; err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}

		// 2. Mark the booking paid and link the payment in the same commit.
		err = tx.Model(&bookings.Booking{}).
			Where("id = ?", payment.BookingID).
			Updates(map[string]interface{}{
				"status":     bookings.StatusPaid,
				"payment_id": payment.ID,
				"updated_at": time.Now(),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to mark booking paid: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) MarkFailed(ctx context.Context, paymentID uuid.UUID, reason string) (*Payment, error) {
	var payment Payment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", paymentID).
			First(&payment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("payment %s not found", paymentID)
			}
			return fmt.Errorf("failed to lock payment: %w", err)
		}

		if payment.Status.IsTerminal() {
			return apperrors.StateConflict("payment %s is already %s", paymentID, payment.Status)
		}

		payment.Status = StatusFailed
		payment.FailureReason = reason
		if err := tx.Save(&payment).Error; err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
