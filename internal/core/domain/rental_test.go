package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidly/rental-system/internal/core/domain"
)

func Test_RentalDays(t *testing.T) {
	out := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		returned time.Time
		want     int
	}{
		{name: "same_instant", returned: out, want: 0},
		{name: "same_day", returned: out.Add(13 * time.Hour), want: 0},
		{name: "just_under_one_day", returned: out.Add(24*time.Hour - time.Second), want: 0},
		{name: "exactly_one_day", returned: out.Add(24 * time.Hour), want: 1},
		{name: "seven_days_and_change", returned: out.AddDate(0, 0, 7).Add(5 * time.Minute), want: 7},
		{name: "returned_before_out", returned: out.Add(-time.Hour), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.RentalDays(out, tt.returned))
		})
	}
}

func Test_RentalFee(t *testing.T) {
	assert.InDelta(t, 14.0, domain.RentalFee(7, 2), 0.0001)
	assert.InDelta(t, 0.0, domain.RentalFee(0, 2), 0.0001)
	assert.InDelta(t, 0.0, domain.RentalFee(-3, 2), 0.0001)
	assert.InDelta(t, 7.5, domain.RentalFee(3, 2.5), 0.0001)
}

func Test_Rental_Return_SetsDateAndFee(t *testing.T) {
	now := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)
	r := &domain.Rental{
		DateOut: now.AddDate(0, 0, -7),
		Movie:   domain.MovieSnapshot{ID: "m1", Title: "movie1", DailyRentalRate: 2},
	}

	require.NoError(t, r.Return(now))

	require.NotNil(t, r.DateReturned)
	require.NotNil(t, r.RentalFee)
	assert.Equal(t, now, *r.DateReturned)
	assert.InDelta(t, 14.0, *r.RentalFee, 0.0001)
	assert.True(t, r.IsReturned())
}

func Test_Rental_Return_SameDayIsFree(t *testing.T) {
	now := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)
	r := &domain.Rental{
		DateOut: now.Add(-2 * time.Hour),
		Movie:   domain.MovieSnapshot{DailyRentalRate: 2},
	}

	require.NoError(t, r.Return(now))
	assert.InDelta(t, 0.0, *r.RentalFee, 0.0001)
}

func Test_Rental_Return_ClampsToDateOut(t *testing.T) {
	out := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)
	r := &domain.Rental{DateOut: out, Movie: domain.MovieSnapshot{DailyRentalRate: 2}}

	require.NoError(t, r.Return(out.Add(-time.Minute)))
	assert.Equal(t, out, *r.DateReturned)
	assert.InDelta(t, 0.0, *r.RentalFee, 0.0001)
}

func Test_Rental_Return_IsTerminal(t *testing.T) {
	now := time.Now().UTC()
	r := &domain.Rental{DateOut: now.AddDate(0, 0, -2), Movie: domain.MovieSnapshot{DailyRentalRate: 3}}

	require.NoError(t, r.Return(now))
	firstReturned, firstFee := *r.DateReturned, *r.RentalFee

	err := r.Return(now.AddDate(0, 0, 5))
	require.ErrorIs(t, err, domain.ErrReturnAlreadyProcessed)
	assert.Equal(t, firstReturned, *r.DateReturned)
	assert.InDelta(t, firstFee, *r.RentalFee, 0.0001)
}

func Test_Movie_Snapshot(t *testing.T) {
	m := &domain.Movie{ID: "m1", Title: "Alien", NumberInStock: 4, DailyRentalRate: 1.5}
	assert.Equal(t, domain.MovieSnapshot{ID: "m1", Title: "Alien", DailyRentalRate: 1.5}, m.Snapshot())
}
