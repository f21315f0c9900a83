package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/vidly/rental-system/docs"
	"github.com/vidly/rental-system/internal/api/handler"
	"github.com/vidly/rental-system/internal/api/middleware"
	"github.com/vidly/rental-system/internal/core/ports"
	"github.com/vidly/rental-system/internal/infrastructure/http/handlers"
)

// Deps is everything the HTTP layer needs from the composition root.
type Deps struct {
	Log     zerolog.Logger
	Tokens  ports.TokenVerifier
	Auth    ports.AuthService
	Movies  ports.MovieService
	Returns ports.ReturnService

	// Probes are pinged by the readiness endpoint, keyed by dependency name.
	Probes map[string]handlers.Probe
	// MetricsEnabled mounts the Prometheus middleware and GET /metrics.
	// Collectors register globally, so enable it once per process.
	MetricsEnabled bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(d.Log))
	if d.MetricsEnabled {
		e.Use(echoprometheus.NewMiddleware("vidly"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Dependencies ---
	authMiddleware := middleware.Auth(d.Tokens)
	authHandler := handler.NewAuthHandler(d.Auth)
	movieHandler := handler.NewMovieHandler(d.Movies)
	returnHandler := handler.NewReturnHandler(d.Returns)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Probes)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// --- Users & auth ---
	api.POST("/users", authHandler.Register)
	api.GET("/users/me", authHandler.Me, authMiddleware)
	api.POST("/auth", authHandler.Login)

	// --- Movies ---
	api.GET("/movies", movieHandler.List)
	api.GET("/movies/:id", movieHandler.Get)
	api.POST("/movies", movieHandler.Create, authMiddleware)
	api.PUT("/movies/:id", movieHandler.Update, authMiddleware)
	api.DELETE("/movies/:id", movieHandler.Delete, authMiddleware, middleware.RequireAdmin())

	// --- Returns ---
	api.POST("/returns", returnHandler.Return, authMiddleware)

	return e
}

// requestLogger writes one zerolog event per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			var evt *zerolog.Event
			switch {
			case v.Status >= 500:
				evt = log.Error().Err(v.Error)
			case v.Status >= 400:
				evt = log.Warn().Err(v.Error)
			default:
				evt = log.Info()
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
