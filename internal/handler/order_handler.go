package handler

import (
	"github.com/Baaaki/storefront/internal/models"
	"github.com/Baaaki/storefront/internal/service"
	"github.com/Baaaki/storefront/internal/validation"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) Index(c *gin.Context) (any, error) {
	return h.orders.Index(c.Request.Context())
}

func (h *OrderHandler) Mine(c *gin.Context) (any, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return nil, err
	}
	return h.orders.ShowByUser(c.Request.Context(), userID)
}

func (h *OrderHandler) MineComplete(c *gin.Context) (any, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return nil, err
	}
	return h.orders.ShowCompleteByUser(c.Request.Context(), userID)
}

func (h *OrderHandler) Show(c *gin.Context) (any, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	return h.orders.Show(c.Request.Context(), id)
}

// Create places an order owned by the caller.
func (h *OrderHandler) Create(c *gin.Context) (any, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return nil, err
	}
	var req models.CreateOrder
	if err := validation.Bind(c, &req); err != nil {
		return nil, err
	}
	return h.orders.Create(c.Request.Context(), userID, req)
}

func (h *OrderHandler) Update(c *gin.Context) (any, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	var req models.UpdateOrder
	if err := validation.Bind(c, &req); err != nil {
		return nil, err
	}
	return h.orders.Update(c.Request.Context(), id, req)
}

func (h *OrderHandler) Delete(c *gin.Context) (any, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	return h.orders.Delete(c.Request.Context(), id)
}
