package ports

import (
	"context"

	"github.com/vidly/rental-system/internal/core/domain"
)

// MovieRepository handles movie persistence and atomic stock updates.
type MovieRepository interface {
	List(ctx context.Context) ([]*domain.Movie, error)
	FindByID(ctx context.Context, id string) (*domain.Movie, error)
	Create(ctx context.Context, m *domain.Movie) (*domain.Movie, error)
	Delete(ctx context.Context, id string) (*domain.Movie, error)

	// Update replaces title, genre, stock and rate of the movie with m.ID
	// and returns the stored result.
	Update(ctx context.Context, m *domain.Movie) (*domain.Movie, error)

	// IncrementStock atomically adds by to numberInStock. It is not
	// idempotent; returns domain.ErrMovieNotFound when no movie matches.
	IncrementStock(ctx context.Context, movieID string, by int) error
}

// GenreRepository is the read side of the genre catalog used when creating movies.
type GenreRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Genre, error)
}
