package ports

import (
	"context"

	"github.com/vidly/rental-system/internal/core/domain"
)

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(subjectID string, isAdmin bool) (string, error)
}

// TokenVerifier checks identity tokens and returns their claims.
type TokenVerifier interface {
	Verify(token string) (*domain.Claims, error)
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Me(ctx context.Context, subjectID string) (*domain.User, error)
}
