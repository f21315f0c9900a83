// @title                       Vidly Rental API
// @version                     1.0
// @description                 Movie rental backend: catalog, accounts and the rental return workflow.
// @BasePath                    /
// @securityDefinitions.apikey  AuthToken
// @in                          header
// @name                        x-auth-token
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/vidly/rental-system/internal/api"
	"github.com/vidly/rental-system/internal/core/ports"
	"github.com/vidly/rental-system/internal/core/service"
	"github.com/vidly/rental-system/internal/infrastructure/db/memory"
	mongostore "github.com/vidly/rental-system/internal/infrastructure/db/mongo"
	redisstore "github.com/vidly/rental-system/internal/infrastructure/db/redis"
	"github.com/vidly/rental-system/internal/infrastructure/http/handlers"
	"github.com/vidly/rental-system/internal/infrastructure/queue"
	"github.com/vidly/rental-system/internal/pkg/config"
	"github.com/vidly/rental-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// stores groups the repository ports for whichever driver is configured.
type stores struct {
	users   ports.UserRepository
	genres  ports.GenreRepository
	movies  ports.MovieRepository
	rentals ports.RentalRepository
	probes  map[string]handlers.Probe
	close   func(context.Context)
}

func main() {
	cfg := config.MustLoad()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "rental-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close(context.Background())

	var ledger service.StockLedger
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		ledger = redisstore.NewStockCreditLedger(rdb, 0)
		st.probes["redis"] = handlers.RedisProbe(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("stock credit ledger enabled")
	} else {
		log.Warn().Msg("REDIS_ADDR empty, stock credit retries run without a ledger")
	}

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	reconciler := service.NewInventoryReconciler(st.movies, ledger, log)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(queue.Options{
		Workers:     cfg.Reconciler.Workers,
		MaxAttempts: cfg.Reconciler.MaxAttempts,
		Backoff:     cfg.Reconciler.Backoff,
	}, reconciler, log)
	dispatcher.Start(workerCtx)
	defer func() {
		cancelWorkers()
		dispatcher.Wait()
	}()

	e := api.NewRouter(api.Deps{
		Log:            log,
		Tokens:         tokens,
		Auth:           service.NewAuthService(st.users, tokens),
		Movies:         service.NewMovieService(st.movies, st.genres, log),
		Returns:        service.NewReturnService(st.rentals, reconciler, dispatcher, log),
		Probes:         st.probes,
		MetricsEnabled: cfg.MetricsEnabled,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn().Msg("using in-memory store, data is lost on exit")
		db := memory.New()
		return &stores{
			users:   db.Users(),
			genres:  db.Genres(),
			movies:  db.Movies(),
			rentals: db.Rentals(),
			probes:  map[string]handlers.Probe{},
			close:   func(context.Context) {},
		}, nil
	}

	client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}

	users := mongostore.NewUserRepository(db)
	movies := mongostore.NewMovieRepository(db)
	rentals := mongostore.NewRentalRepository(db)
	if err := mongostore.EnsureIndexes(ctx, users, movies, rentals); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	return &stores{
		users:   users,
		genres:  mongostore.NewGenreRepository(db),
		movies:  movies,
		rentals: rentals,
		probes:  map[string]handlers.Probe{"mongodb": handlers.MongoProbe(db)},
		close: func(ctx context.Context) {
			if err := client.Disconnect(ctx); err != nil {
				log.Error().Err(err).Msg("mongo disconnect")
			}
		},
	}, nil
}
