package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidly/rental-system/internal/core/domain"
	"github.com/vidly/rental-system/internal/core/ports"
)

func newReconcilerFixture(stock int) (*stubMovieRepo, *stubLedger, ports.InventoryReconciler, string) {
	movieID := newID()
	movies := newStubMovieRepo(&domain.Movie{ID: movieID, Title: "movie1", NumberInStock: stock, DailyRentalRate: 2})
	ledger := newStubLedger()
	return movies, ledger, NewInventoryReconciler(movies, ledger, zerolog.Nop()), movieID
}

func Test_InventoryReconciler_IncrementsByOne(t *testing.T) {
	movies, ledger, r, movieID := newReconcilerFixture(5)

	err := r.IncrementStock(context.Background(), ports.StockCredit{RentalID: "r1", MovieID: movieID, Attempt: 1})
	require.NoError(t, err)

	assert.Equal(t, 6, movies.stock(movieID))
	assert.True(t, ledger.claimed["r1"])
}

func Test_InventoryReconciler_SkipsAlreadyCreditedRental(t *testing.T) {
	movies, _, r, movieID := newReconcilerFixture(5)
	credit := ports.StockCredit{RentalID: "r1", MovieID: movieID}

	require.NoError(t, r.IncrementStock(context.Background(), credit))
	require.NoError(t, r.IncrementStock(context.Background(), credit))

	assert.Equal(t, 6, movies.stock(movieID))
	assert.Equal(t, 1, movies.increments)
}

func Test_InventoryReconciler_ReleasesClaimOnFailure(t *testing.T) {
	movies, ledger, r, movieID := newReconcilerFixture(5)
	movies.incErr = errors.New("socket closed")

	err := r.IncrementStock(context.Background(), ports.StockCredit{RentalID: "r1", MovieID: movieID})
	require.Error(t, err)
	assert.False(t, ledger.claimed["r1"])
	assert.Equal(t, []string{"r1"}, ledger.released)

	movies.incErr = nil
	require.NoError(t, r.IncrementStock(context.Background(), ports.StockCredit{RentalID: "r1", MovieID: movieID, Attempt: 2}))
	assert.Equal(t, 6, movies.stock(movieID))
}

func Test_InventoryReconciler_CancelledCallerStillReleasesClaim(t *testing.T) {
	movies, ledger, r, movieID := newReconcilerFixture(5)
	credit := ports.StockCredit{RentalID: "r1", MovieID: movieID, Attempt: 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.IncrementStock(ctx, credit)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, ledger.claimed["r1"])
	assert.Equal(t, []string{"r1"}, ledger.released)
	assert.Equal(t, 5, movies.stock(movieID))

	credit.Attempt = 2
	require.NoError(t, r.IncrementStock(context.Background(), credit))
	assert.Equal(t, 6, movies.stock(movieID))
}

func Test_InventoryReconciler_LedgerOutageStillCredits(t *testing.T) {
	movies, ledger, r, movieID := newReconcilerFixture(0)
	ledger.claimErr = errors.New("redis: connection refused")

	require.NoError(t, r.IncrementStock(context.Background(), ports.StockCredit{RentalID: "r1", MovieID: movieID}))
	assert.Equal(t, 1, movies.stock(movieID))
	assert.Empty(t, ledger.released)
}

func Test_InventoryReconciler_MissingMovie(t *testing.T) {
	_, _, r, _ := newReconcilerFixture(0)

	err := r.IncrementStock(context.Background(), ports.StockCredit{RentalID: "r1", MovieID: newID()})
	require.ErrorIs(t, err, domain.ErrMovieNotFound)
}

func Test_InventoryReconciler_WithoutLedger(t *testing.T) {
	movieID := newID()
	movies := newStubMovieRepo(&domain.Movie{ID: movieID, NumberInStock: 2})
	r := NewInventoryReconciler(movies, nil, zerolog.Nop())

	require.NoError(t, r.IncrementStock(context.Background(), ports.StockCredit{RentalID: "r1", MovieID: movieID}))
	assert.Equal(t, 3, movies.stock(movieID))
}
