package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	handler "pattibytes-backend/internal/services/catalog/handler"
)

type CatalogHTTPHandler struct {
	catalog *handler.CatalogHandler
}

func NewCatalogHTTPHandler(catalog *handler.CatalogHandler) *CatalogHTTPHandler {
	return &CatalogHTTPHandler{catalog: catalog}
}

func (h *CatalogHTTPHandler) GetMerchant(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	merchant, err := h.catalog.GetMerchant(ctx, c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Merchant retrieved successfully", merchant))
}

func (h *CatalogHTTPHandler) ListMenuItems(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	items, err := h.catalog.GetMenuItems(ctx, c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}
	if c.Query("veg") == "true" {
		items = handler.VegOnly(items)
	}
	c.JSON(http.StatusOK, successResponse("Menu retrieved successfully", items))
}

func (h *CatalogHTTPHandler) GetMenuItem(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	item, err := h.catalog.GetMenuItem(ctx, c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Menu item retrieved successfully", item))
}

func (h *CatalogHTTPHandler) ListCategories(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	categories, err := h.catalog.ListCategories(ctx, c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Categories retrieved successfully", categories))
}
