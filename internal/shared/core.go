package shared

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is the closed set of authorization roles a donor account can hold.
type Role string

const (
	RoleDonor Role = "donor"
	RoleAdmin Role = "admin"
)

// IsAdmin reports whether the role grants access to admin operations.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	return r == RoleDonor || r == RoleAdmin
}

// Donor is the sanitized donor identity attached to authenticated requests.
// It never carries the password hash.
type Donor struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	BloodGroup       string     `json:"bloodGroup"`
	City             string     `json:"city"`
	Phone            string     `json:"phone"`
	Status           string     `json:"status"`
	IsAvailable      bool       `json:"isAvailable"`
	Role             Role       `json:"role"`
	IsVerified       bool       `json:"isVerified"`
	LastDonationDate *time.Time `json:"lastDonationDate,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// DonorProvider exposes the live donor lookup the auth middleware performs on
// every protected request. Implemented by the donor service.
type DonorProvider interface {
	GetDonorByID(ctx context.Context, id uuid.UUID) (*Donor, error)
}

// DonorDataForToken abstracts the donor fields needed to mint a token.
type DonorDataForToken interface {
	GetID() uuid.UUID
	GetEmail() string
	GetRole() Role
}

// TokenService defines the interface for JWT operations.
type TokenService interface {
	GenerateAccessToken(donorData DonorDataForToken) (string, time.Time, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the JWT claims structure.
type Claims struct {
	DonorID uuid.UUID `json:"donor_id"`
	Email   string    `json:"email"`
	Role    Role      `json:"role"`
	jwt.RegisteredClaims
}
