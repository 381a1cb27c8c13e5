package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is the coarse actor classification carried in access tokens. The back
// office is admin; customer tokens exist for the self-service surfaces.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCustomer:
		return true
	}
	return false
}

// AccessTokenPayload is the input for minting a token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   Role
	JTI    string
}

// AccessTokenClaims is the JWT claim set the API trusts after verification.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"uid"`
	Role   Role      `json:"role"`
	jwt.RegisteredClaims
}
