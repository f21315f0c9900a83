package domain

import "errors"

var (
	ErrUnauthenticated = errors.New("access denied")
	ErrInvalidToken    = errors.New("invalid token")
	ErrForbidden       = errors.New("access forbidden")
)

// Claims is the verified payload of an identity token. It is trusted as-is
// for the lifetime of a request; revoking admin rights requires the token
// to expire or the signing key to rotate.
type Claims struct {
	SubjectID string
	IsAdmin   bool
}
