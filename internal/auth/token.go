package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Roles carried in the token "role" claim.
const (
	RoleCustomer = "user"
	RoleCourier  = "driver"
)

// ErrUnauthorized is returned for a missing, malformed or expired token.
var ErrUnauthorized = errors.New("unauthorized")

// Identity is the verified caller.
type Identity struct {
	ID    uuid.UUID
	Email string
	Role  string
}

// IsCourier reports whether the caller acts as a courier.
func (i Identity) IsCourier() bool { return i.Role == RoleCourier }

// IsCustomer reports whether the caller acts as a customer.
func (i Identity) IsCustomer() bool { return i.Role == RoleCustomer }

type claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens issued by the identity service.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses token and returns the caller identity.
func (v *Verifier) Verify(token string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	id, err := uuid.Parse(c.ID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad subject: %w", ErrUnauthorized, err)
	}
	if c.Role != RoleCustomer && c.Role != RoleCourier {
		return Identity{}, fmt.Errorf("%w: unknown role %q", ErrUnauthorized, c.Role)
	}
	return Identity{ID: id, Email: c.Email, Role: c.Role}, nil
}

// Sign issues a token for id valid for ttl. Used by tests and local tooling.
func (v *Verifier) Sign(id Identity, ttl time.Duration, now time.Time) (string, error) {
	c := claims{
		ID:    id.ID.String(),
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}
