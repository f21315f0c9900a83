package handler

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/vidly/rental-system/internal/core/domain"
	"github.com/vidly/rental-system/internal/pkg/validation"
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{v: validation.New()}
}

// Validate satisfies the echo.Validator interface. Failures wrap
// domain.ErrInvalidRequest so the error handler answers 400.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, validation.Message(err))
	}
	return nil
}
