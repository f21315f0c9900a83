package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vidly/rental-system/internal/api/metrics"
	"github.com/vidly/rental-system/internal/core/domain"
	"github.com/vidly/rental-system/internal/core/ports"
)

// ReturnHandler handles POST /api/returns.
type ReturnHandler struct {
	service ports.ReturnService
}

func NewReturnHandler(service ports.ReturnService) *ReturnHandler {
	return &ReturnHandler{service: service}
}

// Return closes the caller-identified rental and credits the movie's stock.
//
// @Summary      Return a rented movie
// @Tags         returns
// @Accept       json
// @Produce      json
// @Security     AuthToken
// @Param        body  body      returnRequest  true  "Customer and movie ids"
// @Success      200   {object}  rentalResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/returns [post]
func (h *ReturnHandler) Return(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req returnRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	start := time.Now()
	rental, err := h.service.Return(c.Request().Context(), ports.ReturnRentalInput{
		CustomerID:  req.CustomerID,
		MovieID:     req.MovieID,
		RequestedBy: claims.SubjectID,
	})
	if err != nil {
		reason := returnErrorReason(err)
		metrics.ReturnErrorsTotal.WithLabelValues(reason).Inc()
		metrics.ReturnDuration.WithLabelValues(reason).Observe(time.Since(start).Seconds())
		return err
	}

	metrics.RentalsReturnedTotal.Inc()
	metrics.ReturnDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	if rental.RentalFee != nil {
		metrics.RentalFeeAmount.Observe(*rental.RentalFee)
	}

	return c.JSON(http.StatusOK, toRentalResponse(rental))
}

func returnErrorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, domain.ErrRentalNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrReturnAlreadyProcessed):
		return "already_processed"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence"
	default:
		return "unknown"
	}
}
