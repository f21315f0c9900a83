package handler

import "time"

// --- Requests ---

// returnRequest ids are checked by the return workflow itself so malformed
// ids surface as the same invalid-request error whatever the transport.
type returnRequest struct {
	CustomerID string `json:"customerId"`
	MovieID    string `json:"movieId"`
}

type registerRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=50"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=255"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createMovieRequest struct {
	Title           string  `json:"title"           validate:"required,min=1,max=255"`
	GenreID         string  `json:"genreId"         validate:"required,mongodb"`
	NumberInStock   int     `json:"numberInStock"   validate:"gte=0"`
	DailyRentalRate float64 `json:"dailyRentalRate" validate:"gt=0"`
}

// --- Responses ---

type customerResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type rentalMovieResponse struct {
	ID              string  `json:"_id"`
	Title           string  `json:"title"`
	DailyRentalRate float64 `json:"dailyRentalRate"`
}

type rentalResponse struct {
	ID           string              `json:"_id"`
	Customer     customerResponse    `json:"customer"`
	Movie        rentalMovieResponse `json:"movie"`
	DateOut      time.Time           `json:"dateOut"`
	DateReturned *time.Time          `json:"dateReturned"`
	RentalFee    *float64            `json:"rentalFee"`
}

type genreResponse struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type movieResponse struct {
	ID              string        `json:"_id"`
	Title           string        `json:"title"`
	Genre           genreResponse `json:"genre"`
	NumberInStock   int           `json:"numberInStock"`
	DailyRentalRate float64       `json:"dailyRentalRate"`
}

type userResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type tokenResponse struct {
	Token string `json:"token"`
}
