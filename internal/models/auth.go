package models

import "github.com/golang-jwt/jwt/v5"

// Role is the platform role carried in access tokens.
type Role string

const (
	RoleDonor     Role = "DONOR"
	RoleRecipient Role = "RECIPIENT"
	RoleAdmin     Role = "ADMIN"
)

// JWTClaims are the verified claims of an access token. Token issuance lives
// in the identity service; this core only validates and reads them.
type JWTClaims struct {
	UserID string `json:"uid"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}
