package handler

import "github.com/vidly/rental-system/internal/core/domain"

// --- Domain → Response ---

func toRentalResponse(r *domain.Rental) rentalResponse {
	return rentalResponse{
		ID: r.ID,
		Customer: customerResponse{
			ID:    r.Customer.ID,
			Name:  r.Customer.Name,
			Phone: r.Customer.Phone,
		},
		Movie: rentalMovieResponse{
			ID:              r.Movie.ID,
			Title:           r.Movie.Title,
			DailyRentalRate: r.Movie.DailyRentalRate,
		},
		DateOut:      r.DateOut,
		DateReturned: r.DateReturned,
		RentalFee:    r.RentalFee,
	}
}

func toMovieResponse(m *domain.Movie) movieResponse {
	return movieResponse{
		ID:              m.ID,
		Title:           m.Title,
		Genre:           genreResponse{ID: m.Genre.ID, Name: m.Genre.Name},
		NumberInStock:   m.NumberInStock,
		DailyRentalRate: m.DailyRentalRate,
	}
}

func toMovieResponses(movies []*domain.Movie) []movieResponse {
	out := make([]movieResponse, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResponse(m))
	}
	return out
}

// toUserResponse never exposes the password hash or the admin flag.
func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}
