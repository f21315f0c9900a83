package ports

import (
	"context"
	"time"

	"github.com/vidly/rental-system/internal/core/domain"
)

// RentalRepository owns rental records.
type RentalRepository interface {
	Create(ctx context.Context, r *domain.Rental) (*domain.Rental, error)

	// FindForReturn matches on the embedded customer and movie snapshot ids.
	// It prefers the most recent active rental for the pair and falls back to
	// the most recent returned one, so callers can tell "never rented" from
	// "already returned". Returns domain.ErrRentalNotFound when nothing matches.
	FindForReturn(ctx context.Context, customerID, movieID string) (*domain.Rental, error)

	// MarkReturned sets dateReturned and rentalFee only if dateReturned is
	// still null, and returns the updated record. A lost race yields
	// domain.ErrReturnAlreadyProcessed.
	MarkReturned(ctx context.Context, rentalID string, returnedAt time.Time, fee float64) (*domain.Rental, error)
}
