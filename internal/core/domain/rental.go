package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrRentalNotFound         = errors.New("rental not found")
	ErrReturnAlreadyProcessed = errors.New("return already processed")
	ErrPersistence            = errors.New("persistence failure")
)

// CustomerSnapshot is the customer data copied into a rental at checkout.
type CustomerSnapshot struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// MovieSnapshot is the movie data copied into a rental at checkout. It is
// never refreshed from the live Movie record.
type MovieSnapshot struct {
	ID              string  `json:"_id"`
	Title           string  `json:"title"`
	DailyRentalRate float64 `json:"dailyRentalRate"`
}

// Rental is the aggregate tracking a single checkout. It starts active
// (DateReturned == nil) and is transitioned exactly once to returned.
type Rental struct {
	ID           string           `json:"_id"`
	Customer     CustomerSnapshot `json:"customer"`
	Movie        MovieSnapshot    `json:"movie"`
	DateOut      time.Time        `json:"dateOut"`
	DateReturned *time.Time       `json:"dateReturned"`
	RentalFee    *float64         `json:"rentalFee"`
}

// IsReturned reports whether the rental reached its terminal state.
func (r *Rental) IsReturned() bool {
	return r.DateReturned != nil
}

// Return applies the active → returned transition in memory. It sets
// DateReturned to now (never earlier than DateOut) and computes the fee.
func (r *Rental) Return(now time.Time) error {
	if r.IsReturned() {
		return ErrReturnAlreadyProcessed
	}

	returnedAt := now.UTC()
	if returnedAt.Before(r.DateOut) {
		returnedAt = r.DateOut
	}

	fee := RentalFee(RentalDays(r.DateOut, returnedAt), r.Movie.DailyRentalRate)
	r.DateReturned = &returnedAt
	r.RentalFee = &fee
	return nil
}

// RentalDays returns the number of whole 24-hour days elapsed between out
// and returned. Partial days are truncated, so a same-day return yields 0.
func RentalDays(out, returned time.Time) int {
	elapsed := returned.Sub(out)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

// RentalFee is days × dailyRate.
func RentalFee(days int, dailyRate float64) float64 {
	if days <= 0 {
		return 0
	}
	return float64(days) * dailyRate
}
