package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/animathic/backend/internal/domain"
)

// Context keys for storing auth information in the Gin context.
const (
	UserClaimsKey = "user_claims"
	UserIDKey     = "user_id"
	UserKey       = "user"
)

// SetUserClaims stores user claims in the Gin context.
func SetUserClaims(c *gin.Context, claims *domain.UserClaims) {
	c.Set(UserClaimsKey, claims)
	c.Set(UserIDKey, claims.Sub)
	c.Set(UserKey, claims.ToUser())
}

// GetUserClaims retrieves user claims from the Gin context.
func GetUserClaims(c *gin.Context) (*domain.UserClaims, bool) {
	claims, exists := c.Get(UserClaimsKey)
	if !exists {
		return nil, false
	}
	userClaims, ok := claims.(*domain.UserClaims)
	return userClaims, ok
}

// GetUserID retrieves the authenticated user id from the Gin context.
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}

// MustGetUserID retrieves the user id or panics if not found. Only safe to
// call after JWTAuthMiddleware has run.
func MustGetUserID(c *gin.Context) string {
	id, ok := GetUserID(c)
	if !ok {
		panic("user ID not found in context")
	}
	return id
}

// GetUser retrieves the domain.User derived from the request's claims.
func GetUser(c *gin.Context) (*domain.User, bool) {
	user, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	u, ok := user.(*domain.User)
	return u, ok
}
