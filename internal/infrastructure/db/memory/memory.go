// Package memory implements the repository ports in process memory for
// local runs and end-to-end tests. All repositories share one mutex, so
// conditional updates behave like their MongoDB counterparts.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidly/rental-system/internal/core/domain"
	"github.com/vidly/rental-system/internal/core/ports"
)

// DB holds every collection.
type DB struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	genres  map[string]*domain.Genre
	movies  map[string]*domain.Movie
	rentals map[string]*domain.Rental
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{
		users:   make(map[string]*domain.User),
		genres:  make(map[string]*domain.Genre),
		movies:  make(map[string]*domain.Movie),
		rentals: make(map[string]*domain.Rental),
	}
}

type (
	UserRepo   struct{ db *DB }
	GenreRepo  struct{ db *DB }
	MovieRepo  struct{ db *DB }
	RentalRepo struct{ db *DB }
)

// Ensure interfaces are met.
var (
	_ ports.UserRepository   = (*UserRepo)(nil)
	_ ports.GenreRepository  = (*GenreRepo)(nil)
	_ ports.MovieRepository  = (*MovieRepo)(nil)
	_ ports.RentalRepository = (*RentalRepo)(nil)
)

func (db *DB) Users() *UserRepo     { return &UserRepo{db: db} }
func (db *DB) Genres() *GenreRepo   { return &GenreRepo{db: db} }
func (db *DB) Movies() *MovieRepo   { return &MovieRepo{db: db} }
func (db *DB) Rentals() *RentalRepo { return &RentalRepo{db: db} }

// newID returns an ObjectID-shaped hex id so the same validation rules apply
// regardless of the store.
func newID() string {
	return primitive.NewObjectID().Hex()
}

// --- UserRepository ---

func (r *UserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.users {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	c := *u
	c.ID = newID()
	r.db.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// --- GenreRepository ---

func (r *GenreRepo) Create(_ context.Context, name string) (*domain.Genre, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	g := &domain.Genre{ID: newID(), Name: name}
	r.db.genres[g.ID] = g
	c := *g
	return &c, nil
}

func (r *GenreRepo) FindByID(_ context.Context, id string) (*domain.Genre, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	g, ok := r.db.genres[id]
	if !ok {
		return nil, domain.ErrGenreNotFound
	}
	c := *g
	return &c, nil
}

// --- MovieRepository ---

func (r *MovieRepo) List(_ context.Context) ([]*domain.Movie, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]*domain.Movie, 0, len(r.db.movies))
	for _, m := range r.db.movies {
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *MovieRepo) FindByID(_ context.Context, id string) (*domain.Movie, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.movies[id]
	if !ok {
		return nil, domain.ErrMovieNotFound
	}
	c := *m
	return &c, nil
}

func (r *MovieRepo) Create(_ context.Context, m *domain.Movie) (*domain.Movie, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c := *m
	c.ID = newID()
	r.db.movies[c.ID] = &c
	out := c
	return &out, nil
}

func (r *MovieRepo) Delete(_ context.Context, id string) (*domain.Movie, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.movies[id]
	if !ok {
		return nil, domain.ErrMovieNotFound
	}
	delete(r.db.movies, id)
	c := *m
	return &c, nil
}

func (r *MovieRepo) Update(_ context.Context, m *domain.Movie) (*domain.Movie, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.movies[m.ID]; !ok {
		return nil, domain.ErrMovieNotFound
	}
	c := *m
	r.db.movies[m.ID] = &c
	out := c
	return &out, nil
}

func (r *MovieRepo) IncrementStock(_ context.Context, movieID string, by int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.movies[movieID]
	if !ok {
		return domain.ErrMovieNotFound
	}
	m.NumberInStock += by
	return nil
}

// --- RentalRepository ---

func cloneRental(r *domain.Rental) *domain.Rental {
	c := *r
	if r.DateReturned != nil {
		t := *r.DateReturned
		c.DateReturned = &t
	}
	if r.RentalFee != nil {
		f := *r.RentalFee
		c.RentalFee = &f
	}
	return &c
}

func (r *RentalRepo) Create(_ context.Context, rental *domain.Rental) (*domain.Rental, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c := cloneRental(rental)
	c.ID = newID()
	c.DateOut = c.DateOut.UTC()
	r.db.rentals[c.ID] = c
	return cloneRental(c), nil
}

func (r *RentalRepo) FindForReturn(_ context.Context, customerID, movieID string) (*domain.Rental, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var active, latest *domain.Rental
	for _, rental := range r.db.rentals {
		if rental.Customer.ID != customerID || rental.Movie.ID != movieID {
			continue
		}
		if latest == nil || rental.DateOut.After(latest.DateOut) {
			latest = rental
		}
		if !rental.IsReturned() && (active == nil || rental.DateOut.After(active.DateOut)) {
			active = rental
		}
	}

	switch {
	case active != nil:
		return cloneRental(active), nil
	case latest != nil:
		return cloneRental(latest), nil
	default:
		return nil, domain.ErrRentalNotFound
	}
}

func (r *RentalRepo) MarkReturned(_ context.Context, rentalID string, returnedAt time.Time, fee float64) (*domain.Rental, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rental, ok := r.db.rentals[rentalID]
	if !ok {
		return nil, domain.ErrRentalNotFound
	}
	if rental.IsReturned() {
		return nil, domain.ErrReturnAlreadyProcessed
	}
	at := returnedAt.UTC()
	rental.DateReturned = &at
	rental.RentalFee = &fee
	return cloneRental(rental), nil
}
