package domain

import "errors"

var (
	ErrMovieNotFound = errors.New("movie not found")
	ErrGenreNotFound = errors.New("genre not found")
)

// Genre is the catalog category a movie belongs to.
type Genre struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Movie is the live inventory record. NumberInStock is only ever changed
// through atomic increments at the storage layer.
type Movie struct {
	ID              string  `json:"_id"`
	Title           string  `json:"title"`
	Genre           Genre   `json:"genre"`
	NumberInStock   int     `json:"numberInStock"`
	DailyRentalRate float64 `json:"dailyRentalRate"`
}

// Snapshot returns the denormalized copy embedded into rentals.
func (m *Movie) Snapshot() MovieSnapshot {
	return MovieSnapshot{
		ID:              m.ID,
		Title:           m.Title,
		DailyRentalRate: m.DailyRentalRate,
	}
}
