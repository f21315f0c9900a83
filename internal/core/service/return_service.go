package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vidly/rental-system/internal/core/domain"
	"github.com/vidly/rental-system/internal/core/ports"
	"github.com/vidly/rental-system/internal/pkg/validation"
)

// ReturnService runs the rental return workflow.
type ReturnService struct {
	rentals  ports.RentalRepository
	stock    ports.InventoryReconciler
	retries  ports.StockCreditQueue
	validate *validator.Validate
	now      func() time.Time
	log      zerolog.Logger
}

// NewReturnService wires the workflow. retries may be nil, in which case a
// failed stock credit is only reported.
func NewReturnService(
	rentals ports.RentalRepository,
	stock ports.InventoryReconciler,
	retries ports.StockCreditQueue,
	log zerolog.Logger,
) *ReturnService {
	return &ReturnService{
		rentals:  rentals,
		stock:    stock,
		retries:  retries,
		validate: validation.New(),
		now:      time.Now,
		log:      log,
	}
}

// Return transitions the rental for (customer, movie) to returned, persists
// the fee and credits the movie's stock by one.
func (s *ReturnService) Return(ctx context.Context, in ports.ReturnRentalInput) (*domain.Rental, error) {
	// 1. Shape validation happens before any store access.
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, validation.Message(err))
	}

	// 2. Lookup.
	rental, err := s.rentals.FindForReturn(ctx, in.CustomerID, in.MovieID)
	if err != nil {
		if errors.Is(err, domain.ErrRentalNotFound) {
			return nil, err
		}
		return nil, persistenceError("find rental", err)
	}

	// 3 + 4. Terminal check and in-memory transition.
	if err := rental.Return(s.now()); err != nil {
		s.log.Debug().Str("rental_id", rental.ID).Msg("return already processed")
		return nil, err
	}

	// 5. Conditional write: only one concurrent caller wins.
	saved, err := s.rentals.MarkReturned(ctx, rental.ID, *rental.DateReturned, *rental.RentalFee)
	if err != nil {
		if errors.Is(err, domain.ErrReturnAlreadyProcessed) {
			s.log.Debug().Str("rental_id", rental.ID).Msg("return lost race to concurrent request")
			return nil, err
		}
		return nil, persistenceError("save rental", err)
	}

	// 6. Exactly one stock credit per successful transition. The rental is
	// already returned, so a client disconnect must not abort the credit.
	credit := ports.StockCredit{
		JobID:    uuid.NewString(),
		RentalID: saved.ID,
		MovieID:  saved.Movie.ID,
		Attempt:  1,
	}
	if err := s.stock.IncrementStock(context.WithoutCancel(ctx), credit); err != nil {
		retrying := s.retries != nil && !errors.Is(err, domain.ErrMovieNotFound)
		if retrying {
			s.retries.Enqueue(credit)
		}
		s.log.Error().Err(err).
			Str("rental_id", saved.ID).
			Str("movie_id", saved.Movie.ID).
			Bool("retry_scheduled", retrying).
			Msg("rental returned but stock credit failed")
		return nil, persistenceError("credit stock", err)
	}

	s.log.Info().
		Str("rental_id", saved.ID).
		Str("customer_id", saved.Customer.ID).
		Str("movie_id", saved.Movie.ID).
		Str("requested_by", in.RequestedBy).
		Float64("rental_fee", *saved.RentalFee).
		Msg("rental returned")

	return saved, nil
}

func persistenceError(step string, err error) error {
	if errors.Is(err, domain.ErrPersistence) {
		return fmt.Errorf("%s: %w", step, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, step, err)
}
