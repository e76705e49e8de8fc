package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pattibytes-backend/internal/promo"
	cataloghandler "pattibytes-backend/internal/services/catalog/handler"
	promohandler "pattibytes-backend/internal/services/promotions/handler"
)

type PromotionsHTTPHandler struct {
	catalog *cataloghandler.CatalogHandler
	promos  *promohandler.PromotionsHandler
}

func NewPromotionsHTTPHandler(catalog *cataloghandler.CatalogHandler, promos *promohandler.PromotionsHandler) *PromotionsHTTPHandler {
	return &PromotionsHTTPHandler{catalog: catalog, promos: promos}
}

type CartItemRequest struct {
	MenuItemID string `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
}

type ValidateCodeRequest struct {
	Code       string            `json:"code" binding:"required"`
	MerchantID string            `json:"merchant_id" binding:"required"`
	UserID     string            `json:"user_id,omitempty"`
	Items      []CartItemRequest `json:"items" binding:"required,min=1"`
}

type ValidateCodeResponse struct {
	Code           string `json:"code"`
	Discount       string `json:"discount"`
	RequiresChoice bool   `json:"requires_choice"`
	// EligibleItems is populated for buy-x-get-y deals where the customer
	// picks their free items.
	EligibleItems []string `json:"eligible_items,omitempty"`
	FreeUnits     int      `json:"free_units,omitempty"`
}

// ValidateCode prices a manually entered promo code against a cart before
// checkout, so apps can show the discount (or the refusal reason) live.
func (h *PromotionsHTTPHandler) ValidateCode(c *gin.Context) {
	var req ValidateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lines, err := h.catalog.SnapshotLines(ctx, req.MerchantID, toLineRequests(req.Items))
	if err != nil {
		handleDomainError(c, err)
		return
	}

	resolution, err := h.promos.ValidateCode(ctx, req.Code, req.UserID, promo.Cart{MerchantID: req.MerchantID, Lines: lines})
	if err != nil {
		handleDomainError(c, err)
		return
	}

	resp := ValidateCodeResponse{Discount: resolution.Discount.StringFixed(2)}
	if resolution.Applied != nil {
		resp.Code = resolution.Applied.Code
	}
	if resolution.Bxgy != nil && resolution.Bxgy.RequiresSelection {
		resp.RequiresChoice = true
		resp.EligibleItems = resolution.Bxgy.EligibleGetIDs
		resp.FreeUnits = resolution.Bxgy.RequiredUnits
	}
	c.JSON(http.StatusOK, successResponse("Promo code is valid", resp))
}

// ListPromotions returns the candidate promotions for a merchant, for the
// storefront's offers strip.
func (h *PromotionsHTTPHandler) ListPromotions(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	promos, err := h.promos.ListCandidatePromos(ctx, c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Promotions retrieved successfully", promos))
}

func toLineRequests(items []CartItemRequest) []cataloghandler.LineRequest {
	out := make([]cataloghandler.LineRequest, 0, len(items))
	for _, it := range items {
		out = append(out, cataloghandler.LineRequest{MenuItemID: it.MenuItemID, Quantity: it.Quantity})
	}
	return out
}
