package handler

import (
	"github.com/Baaaki/storefront/internal/models"
	"github.com/Baaaki/storefront/internal/repository"
	"github.com/Baaaki/storefront/internal/validation"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users *repository.UserRepository
}

func NewUserHandler(users *repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Index(c *gin.Context) (any, error) {
	return h.users.Index(c.Request.Context())
}

func (h *UserHandler) Show(c *gin.Context) (any, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	return h.users.Show(c.Request.Context(), id)
}

func (h *UserHandler) Create(c *gin.Context) (any, error) {
	var req models.CreateUser
	if err := validation.Bind(c, &req); err != nil {
		return nil, err
	}
	return h.users.Create(c.Request.Context(), req)
}

func (h *UserHandler) Update(c *gin.Context) (any, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	var req models.UpdateUser
	if err := validation.Bind(c, &req); err != nil {
		return nil, err
	}
	return h.users.Update(c.Request.Context(), id, req)
}

func (h *UserHandler) Delete(c *gin.Context) (any, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	return h.users.Delete(c.Request.Context(), id)
}
