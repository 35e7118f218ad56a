package handler

import (
	"net/http"

	"github.com/Baaaki/storefront/internal/apperror"
	"github.com/Baaaki/storefront/internal/middleware"
	"github.com/Baaaki/storefront/internal/validation"
	"github.com/gin-gonic/gin"
)

// HandlerFunc returns the JSON response body or an error.
type HandlerFunc func(c *gin.Context) (any, error)

// Wrap writes 200 with the JSON result, or records the error for
// middleware.ErrorHandler.
func Wrap(h HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := h(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func idParam(c *gin.Context) (int64, error) {
	return validation.ParseID(c.Param("id"))
}

// currentUserID returns the id set by middleware.Identify. Routes using it
// sit behind middleware.RequireUser.
func currentUserID(c *gin.Context) (int64, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return 0, apperror.Unauthorized("You have to signin to complete this action.")
	}
	return user.ID, nil
}
