// Command devseed fills a development database with one genre, one movie,
// an admin account and an active rental, then prints what is needed to call
// POST /api/returns against it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidly/rental-system/internal/core/domain"
	"github.com/vidly/rental-system/internal/core/service"
	mongostore "github.com/vidly/rental-system/internal/infrastructure/db/mongo"
	"github.com/vidly/rental-system/internal/pkg/config"
	"github.com/vidly/rental-system/pkg/logger"
)

func main() {
	email := flag.String("email", "admin@vidly.local", "admin account email")
	password := flag.String("password", "admin123", "admin account password")
	daysOut := flag.Int("days", 3, "how many days ago the seeded rental started")
	flag.Parse()

	cfg := config.MustLoad()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "devseed"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("connect")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	users := mongostore.NewUserRepository(db)
	genres := mongostore.NewGenreRepository(db)
	movies := mongostore.NewMovieRepository(db)
	rentals := mongostore.NewRentalRepository(db)
	if err := mongostore.EnsureIndexes(ctx, users, movies, rentals); err != nil {
		log.Fatal().Err(err).Msg("indexes")
	}

	genre, err := genres.Create(ctx, "Sci-Fi")
	if err != nil {
		log.Fatal().Err(err).Msg("seed genre")
	}
	movie, err := movies.Create(ctx, &domain.Movie{
		Title:           "Alien",
		Genre:           *genre,
		NumberInStock:   5,
		DailyRentalRate: 2,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seed movie")
	}

	admin, err := users.FindByEmail(ctx, *email)
	if errors.Is(err, domain.ErrUserNotFound) {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if hashErr != nil {
			log.Fatal().Err(hashErr).Msg("hash password")
		}
		admin, err = users.Create(ctx, &domain.User{
			Name:         "Admin",
			Email:        *email,
			PasswordHash: string(hash),
			IsAdmin:      true,
			CreatedAt:    time.Now().UTC(),
		})
	}
	if err != nil {
		log.Fatal().Err(err).Msg("seed admin")
	}

	customerID := primitive.NewObjectID().Hex()
	rental, err := rentals.Create(ctx, &domain.Rental{
		Customer: domain.CustomerSnapshot{ID: customerID, Name: "Dev Customer", Phone: "555-0100"},
		Movie:    movie.Snapshot(),
		DateOut:  time.Now().UTC().Add(-time.Duration(*daysOut) * 24 * time.Hour),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seed rental")
	}

	token, err := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL).Issue(admin.ID, admin.IsAdmin)
	if err != nil {
		log.Fatal().Err(err).Msg("issue token")
	}

	log.Info().
		Str("rental_id", rental.ID).
		Str("movie_id", movie.ID).
		Str("customer_id", customerID).
		Msg("seeded")

	fmt.Fprintf(os.Stdout, "x-auth-token: %s\n", token)
	fmt.Fprintf(os.Stdout, "curl -X POST localhost:%s/api/returns -H 'content-type: application/json' -H 'x-auth-token: %s' -d '{\"customerId\":\"%s\",\"movieId\":\"%s\"}'\n",
		cfg.Port, token, customerID, movie.ID)
}
