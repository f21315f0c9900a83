package ports

import (
	"context"

	"github.com/vidly/rental-system/internal/core/domain"
)

// ReturnRentalInput is the DTO passed from the transport layer to ReturnService.
type ReturnRentalInput struct {
	CustomerID string `validate:"required,mongodb"`
	MovieID    string `validate:"required,mongodb"`
	// RequestedBy is the authenticated subject, used for audit logging only.
	RequestedBy string
}

// ReturnService processes rental returns.
type ReturnService interface {
	Return(ctx context.Context, in ReturnRentalInput) (*domain.Rental, error)
}
