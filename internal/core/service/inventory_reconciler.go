package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vidly/rental-system/internal/core/ports"
)

// StockLedger remembers which rentals already credited stock (Redis).
type StockLedger interface {
	// Claim returns false when the rental was already credited.
	Claim(ctx context.Context, rentalID string) (bool, error)
	Release(ctx context.Context, rentalID string) error
}

// releaseTimeout bounds the ledger release, which runs detached from the
// caller's context so a cancelled request cannot leave a stale claim.
const releaseTimeout = 5 * time.Second

type inventoryReconciler struct {
	movies ports.MovieRepository
	ledger StockLedger
	log    zerolog.Logger
}

// NewInventoryReconciler returns an InventoryReconciler. ledger may be nil;
// the increment is then guarded only by the caller's at-most-once check.
func NewInventoryReconciler(movies ports.MovieRepository, ledger StockLedger, log zerolog.Logger) ports.InventoryReconciler {
	return &inventoryReconciler{movies: movies, ledger: ledger, log: log}
}

// IncrementStock adds one to the movie's stock for the given rental. A
// rental already recorded in the ledger is skipped, so retries of the same
// credit never double-count.
func (r *inventoryReconciler) IncrementStock(ctx context.Context, credit ports.StockCredit) error {
	claimed := false
	if r.ledger != nil {
		ok, err := r.ledger.Claim(ctx, credit.RentalID)
		switch {
		case err != nil:
			r.log.Warn().Err(err).Str("rental_id", credit.RentalID).Msg("stock ledger unavailable, crediting anyway")
		case !ok:
			r.log.Debug().Str("rental_id", credit.RentalID).Msg("stock already credited")
			return nil
		default:
			claimed = true
		}
	}

	if err := r.movies.IncrementStock(ctx, credit.MovieID, 1); err != nil {
		if claimed {
			r.release(ctx, credit.RentalID)
		}
		return fmt.Errorf("increment stock for movie %s: %w", credit.MovieID, err)
	}

	r.log.Debug().
		Str("rental_id", credit.RentalID).
		Str("movie_id", credit.MovieID).
		Int("attempt", credit.Attempt).
		Msg("stock credited")
	return nil
}

// release drops a claim whose increment did not land. A claim left behind
// would make every retry skip the credit, so this is logged at error level.
func (r *inventoryReconciler) release(ctx context.Context, rentalID string) {
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := r.ledger.Release(relCtx, rentalID); err != nil {
		r.log.Error().Err(err).Str("rental_id", rentalID).Msg("failed to release stock ledger claim, retries will skip this credit")
	}
}
