package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the authenticated identity the core receives; the core never
// mutates it beyond reading UserID for row-level isolation (§6: "the core
// receives a verified user_id").
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UserClaims are the JWT claims extracted from the bearer token presented
// at the HTTP boundary (§6). Only the fields the core consumes are kept;
// tenant/billing attributes are the HTTP layer's concern, not the core's.
type UserClaims struct {
	jwt.RegisteredClaims
	Sub      string `json:"sub"`
	Email    string `json:"email"`
	TokenUse string `json:"token_use"`
}

// ToUser projects claims down to the User identity the core operates on.
func (uc *UserClaims) ToUser() *User {
	return &User{ID: uc.Sub, Email: uc.Email}
}

// IsAccessToken reports whether the token is an OAuth access token.
func (uc *UserClaims) IsAccessToken() bool {
	return uc.TokenUse == "access"
}

// IsIDToken reports whether the token is an OIDC ID token.
func (uc *UserClaims) IsIDToken() bool {
	return uc.TokenUse == "id"
}

// IsExpired reports whether the token's exp claim has passed.
func (uc *UserClaims) IsExpired() bool {
	if uc.ExpiresAt == nil {
		return false
	}
	return uc.ExpiresAt.Before(time.Now())
}
