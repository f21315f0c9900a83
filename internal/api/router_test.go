package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidly/rental-system/internal/api/middleware"
	"github.com/vidly/rental-system/internal/core/domain"
	"github.com/vidly/rental-system/internal/core/service"
	"github.com/vidly/rental-system/internal/infrastructure/db/memory"
)

type testApp struct {
	e      *echo.Echo
	db     *memory.DB
	tokens *service.TokenService
	movie  *domain.Movie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()
	log := zerolog.Nop()

	db := memory.New()
	tokens := service.NewTokenService("test-secret", 0)
	reconciler := service.NewInventoryReconciler(db.Movies(), nil, log)

	genre, err := db.Genres().Create(ctx, "Sci-Fi")
	require.NoError(t, err)
	movie, err := db.Movies().Create(ctx, &domain.Movie{Title: "Alien", Genre: *genre, NumberInStock: 2, DailyRentalRate: 2})
	require.NoError(t, err)

	e := NewRouter(Deps{
		Log:     log,
		Tokens:  tokens,
		Auth:    service.NewAuthService(db.Users(), tokens),
		Movies:  service.NewMovieService(db.Movies(), db.Genres(), log),
		Returns: service.NewReturnService(db.Rentals(), reconciler, nil, log),
	})
	return &testApp{e: e, db: db, tokens: tokens, movie: movie}
}

func (a *testApp) rent(t *testing.T, customerID string, out time.Time) *domain.Rental {
	t.Helper()
	r, err := a.db.Rentals().Create(context.Background(), &domain.Rental{
		Customer: domain.CustomerSnapshot{ID: customerID, Name: "Ana", Phone: "555-0100"},
		Movie:    a.movie.Snapshot(),
		DateOut:  out,
	})
	require.NoError(t, err)
	return r
}

func (a *testApp) token(t *testing.T, admin bool) string {
	t.Helper()
	tok, err := a.tokens.Issue(primitive.NewObjectID().Hex(), admin)
	require.NoError(t, err)
	return tok
}

func (a *testApp) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(middleware.HeaderAuthToken, token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) stock(t *testing.T) int {
	t.Helper()
	m, err := a.db.Movies().FindByID(context.Background(), a.movie.ID)
	require.NoError(t, err)
	return m.NumberInStock
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func returnBody(customerID, movieID string) string {
	return `{"customerId":"` + customerID + `","movieId":"` + movieID + `"}`
}

func TestRouter_ReturnLifecycle(t *testing.T) {
	app := newTestApp(t)
	customer := primitive.NewObjectID().Hex()
	app.rent(t, customer, time.Now().Add(-7*24*time.Hour-time.Minute))
	token := app.token(t, false)

	rec := app.do(http.MethodPost, "/api/returns", token, returnBody(customer, app.movie.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rental struct {
		ID           string    `json:"_id"`
		DateReturned time.Time `json:"dateReturned"`
		RentalFee    float64   `json:"rentalFee"`
		Movie        struct {
			ID string `json:"_id"`
		} `json:"movie"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rental))
	assert.Equal(t, 14.0, rental.RentalFee)
	assert.Equal(t, app.movie.ID, rental.Movie.ID)
	assert.WithinDuration(t, time.Now(), rental.DateReturned, 10*time.Second)
	assert.Equal(t, 3, app.stock(t))

	rec = app.do(http.MethodPost, "/api/returns", token, returnBody(customer, app.movie.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "return already processed", errorMessage(t, rec))
	assert.Equal(t, 3, app.stock(t), "second return must not credit stock")
}

func TestRouter_ReturnErrors(t *testing.T) {
	app := newTestApp(t)
	customer := primitive.NewObjectID().Hex()
	app.rent(t, customer, time.Now().Add(-time.Hour))
	token := app.token(t, false)

	tests := []struct {
		name    string
		token   string
		body    string
		status  int
		message string
	}{
		{"no token", "", returnBody(customer, app.movie.ID), http.StatusUnauthorized, "access denied"},
		{"bad token", "abc.def.ghi", returnBody(customer, app.movie.ID), http.StatusUnauthorized, "invalid token"},
		{"missing movie", token, `{"customerId":"` + customer + `"}`, http.StatusBadRequest, ""},
		{"malformed id", token, returnBody("123", app.movie.ID), http.StatusBadRequest, ""},
		{"unknown pair", token, returnBody(primitive.NewObjectID().Hex(), app.movie.ID), http.StatusNotFound, "rental not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPost, "/api/returns", tt.token, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.message != "" {
				assert.Equal(t, tt.message, errorMessage(t, rec))
			}
		})
	}

	assert.Equal(t, 2, app.stock(t), "failed requests must not touch stock")
}

func TestRouter_SameDayReturnIsFree(t *testing.T) {
	app := newTestApp(t)
	customer := primitive.NewObjectID().Hex()
	app.rent(t, customer, time.Now().Add(-3*time.Hour))

	rec := app.do(http.MethodPost, "/api/returns", app.token(t, false), returnBody(customer, app.movie.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0.0, body["rentalFee"])
}

func TestRouter_ConcurrentDoubleSubmission(t *testing.T) {
	app := newTestApp(t)
	customer := primitive.NewObjectID().Hex()
	app.rent(t, customer, time.Now().Add(-48*time.Hour))
	token := app.token(t, false)

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = app.do(http.MethodPost, "/api/returns", token, returnBody(customer, app.movie.ID)).Code
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, code := range codes {
		if code == http.StatusOK {
			ok++
		} else {
			assert.Equal(t, http.StatusBadRequest, code)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 3, app.stock(t))
}

func TestRouter_UsersAndLogin(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/api/users", "", `{"name":"Ana","email":"ana@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := rec.Header().Get(middleware.HeaderAuthToken)
	require.NotEmpty(t, token)

	rec = app.do(http.MethodPost, "/api/users", "", `{"name":"Ana","email":"ana@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "user already registered", errorMessage(t, rec))

	rec = app.do(http.MethodPost, "/api/users", "", `{"name":"","email":"bo@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(http.MethodGet, "/api/users/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ana@example.com")

	rec = app.do(http.MethodPost, "/api/auth", "", `{"email":"ana@example.com","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(http.MethodPost, "/api/auth", "", `{"email":"ana@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.Equal(t, token, login["token"], "tokens carry no issue time, so they are identical")
}

func TestRouter_Movies(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/api/movies", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alien")

	rec = app.do(http.MethodGet, "/api/movies/not-an-id", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(http.MethodPost, "/api/movies", "", `{"title":"Heat"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body := `{"title":"Heat","genreId":"` + app.movie.Genre.ID + `","numberInStock":1,"dailyRentalRate":3}`
	rec = app.do(http.MethodPost, "/api/movies", app.token(t, false), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	unknownGenre := `{"title":"Heat","genreId":"` + primitive.NewObjectID().Hex() + `","numberInStock":1,"dailyRentalRate":3}`
	rec = app.do(http.MethodPost, "/api/movies", app.token(t, false), unknownGenre)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(http.MethodDelete, "/api/movies/"+app.movie.ID, app.token(t, false), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(http.MethodDelete, "/api/movies/"+app.movie.ID, app.token(t, true), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(http.MethodGet, "/api/movies/"+app.movie.ID, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_MovieUpdate(t *testing.T) {
	app := newTestApp(t)
	path := "/api/movies/" + app.movie.ID
	body := `{"title":"Aliens","genreId":"` + app.movie.Genre.ID + `","numberInStock":7,"dailyRentalRate":3}`

	rec := app.do(http.MethodPut, path, "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(http.MethodPut, path, app.token(t, false), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Aliens")
	assert.Equal(t, 7, app.stock(t))

	rec = app.do(http.MethodPut, "/api/movies/"+primitive.NewObjectID().Hex(), app.token(t, false), body)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	unknownGenre := `{"title":"Aliens","genreId":"` + primitive.NewObjectID().Hex() + `","numberInStock":7,"dailyRentalRate":3}`
	rec = app.do(http.MethodPut, path, app.token(t, false), unknownGenre)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(http.MethodPut, path, app.token(t, false), `{"title":"","genreId":"`+app.movie.Genre.ID+`","dailyRentalRate":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	got, err := app.db.Movies().FindByID(context.Background(), app.movie.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aliens", got.Title)
}

func TestRouter_Health(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/health/ready", "", "").Code)
}

func TestRouter_RequestIDHeader(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/health", "", "")
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}
