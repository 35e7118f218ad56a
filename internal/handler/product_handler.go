package handler

import (
	"github.com/Baaaki/storefront/internal/models"
	"github.com/Baaaki/storefront/internal/repository"
	"github.com/Baaaki/storefront/internal/validation"
	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	products *repository.ProductRepository
}

func NewProductHandler(products *repository.ProductRepository) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) Index(c *gin.Context) (any, error) {
	return h.products.Index(c.Request.Context())
}

func (h *ProductHandler) TopFive(c *gin.Context) (any, error) {
	return h.products.ShowTopFive(c.Request.Context())
}

func (h *ProductHandler) ByCategory(c *gin.Context) (any, error) {
	return h.products.ShowByCategory(c.Request.Context(), c.Param("category"))
}

func (h *ProductHandler) Show(c *gin.Context) (any, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	return h.products.Show(c.Request.Context(), id)
}

func (h *ProductHandler) Create(c *gin.Context) (any, error) {
	var req models.CreateProduct
	if err := validation.Bind(c, &req); err != nil {
		return nil, err
	}
	return h.products.Create(c.Request.Context(), req)
}

func (h *ProductHandler) Update(c *gin.Context) (any, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	var req models.UpdateProduct
	if err := validation.Bind(c, &req); err != nil {
		return nil, err
	}
	return h.products.Update(c.Request.Context(), id, req)
}

func (h *ProductHandler) Delete(c *gin.Context) (any, error) {
	id, err := idParam(c)
	if err != nil {
		return nil, err
	}
	return h.products.Delete(c.Request.Context(), id)
}
