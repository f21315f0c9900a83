package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vidly/rental-system/internal/core/ports"
)

type MovieHandler struct {
	service ports.MovieService
}

func NewMovieHandler(service ports.MovieService) *MovieHandler {
	return &MovieHandler{service: service}
}

// List handles GET /api/movies.
//
// @Summary      List movies
// @Tags         movies
// @Produce      json
// @Success      200  {array}   movieResponse
// @Failure      500  {object}  map[string]string
// @Router       /api/movies [get]
func (h *MovieHandler) List(c echo.Context) error {
	movies, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMovieResponses(movies))
}

// Get handles GET /api/movies/:id.
//
// @Summary      Get a movie
// @Tags         movies
// @Produce      json
// @Param        id   path      string  true  "Movie id"
// @Success      200  {object}  movieResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/movies/{id} [get]
func (h *MovieHandler) Get(c echo.Context) error {
	movie, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMovieResponse(movie))
}

// Create handles POST /api/movies.
//
// @Summary      Add a movie
// @Tags         movies
// @Accept       json
// @Produce      json
// @Security     AuthToken
// @Param        body  body      createMovieRequest  true  "Movie"
// @Success      201   {object}  movieResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/movies [post]
func (h *MovieHandler) Create(c echo.Context) error {
	var req createMovieRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	movie, err := h.service.Create(c.Request().Context(), ports.CreateMovieInput{
		Title:           req.Title,
		GenreID:         req.GenreID,
		NumberInStock:   req.NumberInStock,
		DailyRentalRate: req.DailyRentalRate,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toMovieResponse(movie))
}

// Update handles PUT /api/movies/:id.
//
// @Summary      Update a movie
// @Tags         movies
// @Accept       json
// @Produce      json
// @Security     AuthToken
// @Param        id    path      string              true  "Movie id"
// @Param        body  body      createMovieRequest  true  "Movie"
// @Success      200   {object}  movieResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/movies/{id} [put]
func (h *MovieHandler) Update(c echo.Context) error {
	var req createMovieRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	movie, err := h.service.Update(c.Request().Context(), c.Param("id"), ports.CreateMovieInput{
		Title:           req.Title,
		GenreID:         req.GenreID,
		NumberInStock:   req.NumberInStock,
		DailyRentalRate: req.DailyRentalRate,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMovieResponse(movie))
}

// Delete handles DELETE /api/movies/:id. Admin only.
//
// @Summary      Delete a movie
// @Tags         movies
// @Produce      json
// @Security     AuthToken
// @Param        id   path      string  true  "Movie id"
// @Success      200  {object}  movieResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/movies/{id} [delete]
func (h *MovieHandler) Delete(c echo.Context) error {
	movie, err := h.service.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMovieResponse(movie))
}
