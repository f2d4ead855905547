package bookings

import (
	"context"
	"testing"
	"time"

	"dejair/internal/shared/apperrors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open gorm: %v", err)
	}

	return NewRepository(gormDB), mock
}

func bookingRows(b *Booking) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "client_id", "helicopter_id", "flight_date", "flight_time",
		"purpose", "num_passengers", "original_amount", "final_amount",
		"status", "negotiation_status", "payment_id", "created_at", "updated_at",
	}).AddRow(
		b.ID.String(), b.ClientID.String(), b.HelicopterID.String(), b.FlightDate, b.FlightTime,
		b.Purpose, b.NumPassengers, b.OriginalAmount, b.FinalAmount,
		string(b.Status), string(b.NegStatus), nil, b.CreatedAt, b.UpdatedAt,
	)
}

func sampleBooking() *Booking {
	return &Booking{
		ID:             uuid.New(),
		ClientID:       uuid.New(),
		HelicopterID:   uuid.New(),
		FlightDate:     time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
		FlightTime:     "09:30",
		Purpose:        "Charter",
		NumPassengers:  4,
		OriginalAmount: 10000,
		Status:         StatusPending,
		NegStatus:      NegotiationNone,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

func TestGetBookingByID(t *testing.T) {
	repo, mock := setupMockDB(t)
	b := sampleBooking()

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id =`).
		WillReturnRows(bookingRows(b))

	got, err := repo.GetBookingByID(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.ID != b.ID || got.OriginalAmount != 10000 || got.Status != StatusPending {
		t.Errorf("booking = %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetBookingByIDNotFound(t *testing.T) {
	repo, mock := setupMockDB(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetBookingByID(context.Background(), id)
	if !apperrors.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTransitionSavesBookingAndLedgerEntry(t *testing.T) {
	repo, mock := setupMockDB(t)
	b := sampleBooking()
	actorID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = .+ FOR UPDATE`).
		WillReturnRows(bookingRows(b))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "negotiation_history"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	amount := int64(8000)
	updated, err := repo.Transition(context.Background(), b.ID, func(booking *Booking) (*NegotiationHistory, error) {
		booking.FinalAmount = &amount
		booking.Status = StatusNegotiationRequested
		booking.NegStatus = NegotiationRequested
		return &NegotiationHistory{
			ActorID:   actorID,
			ActorRole: "CLIENT",
			Action:    ActionRequest,
			OldAmount: booking.OriginalAmount,
			NewAmount: &amount,
		}, nil
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != StatusNegotiationRequested || *updated.FinalAmount != 8000 {
		t.Errorf("booking = %+v, want negotiation_requested/8000", updated)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTransitionGuardFailureRollsBack(t *testing.T) {
	repo, mock := setupMockDB(t)
	b := sampleBooking()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = .+ FOR UPDATE`).
		WillReturnRows(bookingRows(b))
	mock.ExpectRollback()

	_, err := repo.Transition(context.Background(), b.ID, func(booking *Booking) (*NegotiationHistory, error) {
		return nil, apperrors.StateConflict("negotiation cannot be requested in status %s/%s", booking.Status, booking.NegStatus)
	})
	if !apperrors.IsStateConflict(err) {
		t.Fatalf("err = %v, want state conflict", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetNegotiationHistoryOrderedOldestFirst(t *testing.T) {
	repo, mock := setupMockDB(t)
	bookingID := uuid.New()
	amount := int64(8000)

	rows := sqlmock.NewRows([]string{
		"id", "booking_id", "actor_id", "actor_role", "action",
		"old_amount", "new_amount", "notes", "created_at",
	}).
		AddRow(uuid.New().String(), bookingID.String(), uuid.New().String(), "CLIENT", "request", 10000, amount, "", time.Now().Add(-time.Hour)).
		AddRow(uuid.New().String(), bookingID.String(), uuid.New().String(), "ADMIN", "accept", 8000, amount, "", time.Now())

	mock.ExpectQuery(`SELECT \* FROM "negotiation_history" WHERE booking_id = .+ ORDER BY created_at ASC`).
		WillReturnRows(rows)

	entries, err := repo.GetNegotiationHistory(context.Background(), bookingID)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Action != ActionRequest || entries[1].Action != ActionAccept {
		t.Errorf("entry order = %s, %s; want request, accept", entries[0].Action, entries[1].Action)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
