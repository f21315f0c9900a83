package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vidly/rental-system/internal/core/domain"
	"github.com/vidly/rental-system/internal/core/ports"
)

type MovieService struct {
	movies ports.MovieRepository
	genres ports.GenreRepository
	logger zerolog.Logger
}

func NewMovieService(movies ports.MovieRepository, genres ports.GenreRepository, logger zerolog.Logger) *MovieService {
	return &MovieService{movies: movies, genres: genres, logger: logger}
}

func (s *MovieService) List(ctx context.Context) ([]*domain.Movie, error) {
	return s.movies.List(ctx)
}

func (s *MovieService) Get(ctx context.Context, id string) (*domain.Movie, error) {
	return s.movies.FindByID(ctx, id)
}

// Create adds a movie, embedding the referenced genre's current name.
func (s *MovieService) Create(ctx context.Context, in ports.CreateMovieInput) (*domain.Movie, error) {
	movie, err := s.resolve(ctx, in)
	if err != nil {
		return nil, err
	}

	created, err := s.movies.Create(ctx, movie)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create movie")
		return nil, err
	}

	s.logger.Info().Str("movie_id", created.ID).Str("title", created.Title).Msg("movie created")
	return created, nil
}

// Update overwrites a movie's fields. The genre is re-read so the embedded
// name follows the catalog.
func (s *MovieService) Update(ctx context.Context, id string, in ports.CreateMovieInput) (*domain.Movie, error) {
	movie, err := s.resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	movie.ID = id

	updated, err := s.movies.Update(ctx, movie)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("movie_id", updated.ID).Str("title", updated.Title).Msg("movie updated")
	return updated, nil
}

func (s *MovieService) Delete(ctx context.Context, id string) (*domain.Movie, error) {
	removed, err := s.movies.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("movie_id", removed.ID).Msg("movie deleted")
	return removed, nil
}

func (s *MovieService) resolve(ctx context.Context, in ports.CreateMovieInput) (*domain.Movie, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || in.NumberInStock < 0 || in.DailyRentalRate <= 0 {
		return nil, fmt.Errorf("%w: title, non-negative stock and positive rate are required", domain.ErrInvalidRequest)
	}

	genre, err := s.genres.FindByID(ctx, in.GenreID)
	if err != nil {
		return nil, err
	}

	return &domain.Movie{
		Title:           title,
		Genre:           *genre,
		NumberInStock:   in.NumberInStock,
		DailyRentalRate: in.DailyRentalRate,
	}, nil
}
