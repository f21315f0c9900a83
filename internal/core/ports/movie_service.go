package ports

import (
	"context"

	"github.com/vidly/rental-system/internal/core/domain"
)

// CreateMovieInput carries the data needed to add a movie to the catalog.
// Update takes the same fields.
type CreateMovieInput struct {
	Title           string
	GenreID         string
	NumberInStock   int
	DailyRentalRate float64
}

// MovieService defines catalog operations for movies.
type MovieService interface {
	List(ctx context.Context) ([]*domain.Movie, error)
	Get(ctx context.Context, id string) (*domain.Movie, error)
	Create(ctx context.Context, in CreateMovieInput) (*domain.Movie, error)
	Update(ctx context.Context, id string, in CreateMovieInput) (*domain.Movie, error)
	Delete(ctx context.Context, id string) (*domain.Movie, error)
}
