package notifications

import (
	"context"
	"fmt"

	"dejair/internal/actors"
	"dejair/internal/bookings"

	"github.com/google/uuid"
)

// bookingReader and clientReader are the storage slices the resolver needs
// (to avoid circular dependency)
type bookingReader interface {
	GetBookingByID(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
}

type clientReader interface {
	GetClientByID(ctx context.Context, id string) (*actors.Client, error)
}

// RepoRecipientResolver resolves notification recipients through the
// booking and client repositories.
type RepoRecipientResolver struct {
	bookings bookingReader
	clients  clientReader
}

func NewRepoRecipientResolver(bookingRepo bookingReader, clientRepo clientReader) *RepoRecipientResolver {
	return &RepoRecipientResolver{
		bookings: bookingRepo,
		clients:  clientRepo,
	}
}

func (r *RepoRecipientResolver) ResolveBookingClient(ctx context.Context, bookingID uuid.UUID) (string, string, error) {
	booking, err := r.bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		return "", "", err
	}

	client, err := r.clients.GetClientByID(ctx, booking.ClientID.String())
	if err != nil {
		return "", "", fmt.Errorf("failed to load client %s: %w", booking.ClientID, err)
	}

	return client.Name, client.Email, nil
}
