package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vidly/rental-system/internal/core/domain"
)

// identityClaims is the wire form of an identity token: {"_id", "isAdmin"}.
type identityClaims struct {
	SubjectID string `json:"_id"`
	IsAdmin   bool   `json:"isAdmin,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 identity tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a TokenService signing with secret. A ttl of zero
// issues tokens without an expiry, and Issue is then deterministic.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs an HS256 token carrying the subject id and admin flag.
func (s *TokenService) Issue(subjectID string, isAdmin bool) (string, error) {
	if subjectID == "" {
		return "", fmt.Errorf("issue token: %w", domain.ErrInvalidRequest)
	}

	claims := identityClaims{SubjectID: subjectID, IsAdmin: isAdmin}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(s.now().Add(s.ttl))
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature (and expiry when present) and returns the
// claims exactly as issued.
func (s *TokenService) Verify(token string) (*domain.Claims, error) {
	var claims identityClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.SubjectID == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}

	return &domain.Claims{SubjectID: claims.SubjectID, IsAdmin: claims.IsAdmin}, nil
}
