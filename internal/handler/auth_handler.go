package handler

import (
	"github.com/Baaaki/storefront/internal/models"
	"github.com/Baaaki/storefront/internal/service"
	"github.com/Baaaki/storefront/internal/validation"
	"github.com/Baaaki/storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Signup(c *gin.Context) (any, error) {
	var req models.CreateUser
	if err := validation.Bind(c, &req); err != nil {
		return nil, err
	}

	logger.Log.Info("Signup attempt",
		zap.String("username", req.Username),
		zap.String("ip", c.ClientIP()),
	)
	return h.authService.Signup(c.Request.Context(), req)
}

func (h *AuthHandler) Signin(c *gin.Context) (any, error) {
	var req models.Signin
	if err := validation.Bind(c, &req); err != nil {
		return nil, err
	}

	logger.Log.Info("Signin attempt",
		zap.String("username", req.Username),
		zap.String("ip", c.ClientIP()),
	)
	return h.authService.Signin(c.Request.Context(), req)
}
