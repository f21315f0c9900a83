package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vidly/rental-system/internal/core/domain"
	"github.com/vidly/rental-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

var idSeq atomic.Int64

// newID returns a fresh 24-hex-character id, shaped like a Mongo ObjectID.
func newID() string {
	return fmt.Sprintf("%024x", idSeq.Add(1))
}

type stubRentalRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Rental
	findErr   error
	markErr   error
	findCalls int
	marked    int // successful conditional writes
}

func newStubRentalRepo() *stubRentalRepo {
	return &stubRentalRepo{byID: make(map[string]*domain.Rental)}
}

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

func (r *stubRentalRepo) Create(_ context.Context, rental *domain.Rental) (*domain.Rental, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := cloneRental(rental)
	if c.ID == "" {
		c.ID = newID()
	}
	r.byID[c.ID] = c
	return cloneRental(c), nil
}

func (r *stubRentalRepo) FindForReturn(_ context.Context, customerID, movieID string) (*domain.Rental, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	if r.findErr != nil {
		return nil, r.findErr
	}

	var matches []*domain.Rental
	for _, rental := range r.byID {
		if rental.Customer.ID == customerID && rental.Movie.ID == movieID {
			matches = append(matches, rental)
		}
	}
	if len(matches) == 0 {
		return nil, domain.ErrRentalNotFound
	}
	// Active first, then newest dateOut.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].IsReturned() != matches[j].IsReturned() {
			return !matches[i].IsReturned()
		}
		return matches[i].DateOut.After(matches[j].DateOut)
	})
	return cloneRental(matches[0]), nil
}

func (r *stubRentalRepo) MarkReturned(_ context.Context, id string, returnedAt time.Time, fee float64) (*domain.Rental, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return nil, r.markErr
	}
	rental, ok := r.byID[id]
	if !ok || rental.IsReturned() {
		return nil, domain.ErrReturnAlreadyProcessed
	}
	rental.DateReturned = &returnedAt
	rental.RentalFee = &fee
	r.marked++
	return cloneRental(rental), nil
}

func (r *stubRentalRepo) get(id string) *domain.Rental {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneRental(r.byID[id])
}

type stubMovieRepo struct {
	mu         sync.Mutex
	movies     map[string]*domain.Movie
	incErr     error
	increments int
	createErr  error
}

func newStubMovieRepo(movies ...*domain.Movie) *stubMovieRepo {
	repo := &stubMovieRepo{movies: make(map[string]*domain.Movie)}
	for _, m := range movies {
		c := *m
		repo.movies[m.ID] = &c
	}
	return repo
}

func (r *stubMovieRepo) List(_ context.Context) ([]*domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Movie, 0, len(r.movies))
	for _, m := range r.movies {
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *stubMovieRepo) FindByID(_ context.Context, id string) (*domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movies[id]
	if !ok {
		return nil, domain.ErrMovieNotFound
	}
	c := *m
	return &c, nil
}

func (r *stubMovieRepo) Create(_ context.Context, m *domain.Movie) (*domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	c := *m
	c.ID = newID()
	r.movies[c.ID] = &c
	out := c
	return &out, nil
}

func (r *stubMovieRepo) Delete(_ context.Context, id string) (*domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movies[id]
	if !ok {
		return nil, domain.ErrMovieNotFound
	}
	delete(r.movies, id)
	return m, nil
}

func (r *stubMovieRepo) Update(_ context.Context, m *domain.Movie) (*domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.movies[m.ID]; !ok {
		return nil, domain.ErrMovieNotFound
	}
	c := *m
	r.movies[m.ID] = &c
	out := c
	return &out, nil
}

// IncrementStock fails on a done context like the real driver does.
func (r *stubMovieRepo) IncrementStock(ctx context.Context, id string, by int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incErr != nil {
		return r.incErr
	}
	m, ok := r.movies[id]
	if !ok {
		return domain.ErrMovieNotFound
	}
	m.NumberInStock += by
	r.increments++
	return nil
}

func (r *stubMovieRepo) stock(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.movies[id].NumberInStock
}

type stubGenreRepo struct {
	genres map[string]*domain.Genre
}

func (r *stubGenreRepo) FindByID(_ context.Context, id string) (*domain.Genre, error) {
	g, ok := r.genres[id]
	if !ok {
		return nil, domain.ErrGenreNotFound
	}
	c := *g
	return &c, nil
}

type stubLedger struct {
	mu       sync.Mutex
	claimed  map[string]bool
	claimErr error
	released []string
}

func newStubLedger() *stubLedger {
	return &stubLedger{claimed: make(map[string]bool)}
}

func (l *stubLedger) Claim(_ context.Context, rentalID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.claimErr != nil {
		return false, l.claimErr
	}
	if l.claimed[rentalID] {
		return false, nil
	}
	l.claimed[rentalID] = true
	return true, nil
}

// Release rejects a done context like go-redis does.
func (l *stubLedger) Release(ctx context.Context, rentalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claimed, rentalID)
	l.released = append(l.released, rentalID)
	return nil
}

type stubQueue struct {
	mu      sync.Mutex
	credits []ports.StockCredit
}

func (q *stubQueue) Enqueue(c ports.StockCredit) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.credits = append(q.credits, c)
}
