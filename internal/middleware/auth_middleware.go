package middleware

import (
	"context"
	"strings"

	"github.com/Baaaki/storefront/internal/apperror"
	"github.com/Baaaki/storefront/internal/models"
	"github.com/gin-gonic/gin"
)

const currentUserKey = "current_user"

var (
	errInvalidToken = apperror.Unauthorized("Invalid token.")
	errSigninNeeded = apperror.Unauthorized("You have to signin to complete this action.")
)

// UserResolver turns a bearer token into the user it was issued for.
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// Identify resolves the Authorization header into the current user when it
// is present. Requests without the header pass through anonymously.
func Identify(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			_ = c.Error(errInvalidToken)
			c.Abort()
			return
		}

		user, err := resolver.CurrentUser(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireUser aborts with 401 unless Identify resolved a user.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			_ = c.Error(errSigninNeeded)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user resolved by Identify.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
