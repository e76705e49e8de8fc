package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pattibytes-backend/internal/order"
	"pattibytes-backend/internal/promo"
	ordershandler "pattibytes-backend/internal/services/orders/handler"
)

type OrdersHTTPHandler struct {
	orders *ordershandler.OrdersHandler
}

func NewOrdersHTTPHandler(orders *ordershandler.OrdersHandler) *OrdersHTTPHandler {
	return &OrdersHTTPHandler{orders: orders}
}

type GiftSelectionRequest struct {
	MenuItemID string `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
}

type CreateOrderRequest struct {
	CustomerID *string           `json:"customer_id,omitempty"`
	MerchantID string            `json:"merchant_id" binding:"required"`
	Items      []CartItemRequest `json:"items" binding:"required,min=1"`

	PromoCode     string                 `json:"promo_code,omitempty"`
	BxgySelection []GiftSelectionRequest `json:"bxgy_selection,omitempty"`

	ManualDiscount string `json:"manual_discount,omitempty"`
	ExtraCharges   string `json:"extra_charges,omitempty"`
	ManualTax      string `json:"manual_tax,omitempty"`

	PaymentMethod string `json:"payment_method,omitempty"`

	DeliveryAddress string  `json:"delivery_address" binding:"required"`
	DeliveryLat     float64 `json:"delivery_lat" binding:"required"`
	DeliveryLng     float64 `json:"delivery_lng" binding:"required"`

	SpecialInstruction string `json:"special_instruction,omitempty"`
}

type UpdateStatusRequest struct {
	Status   string `json:"status" binding:"required"`
	Actor    string `json:"actor" binding:"required"`
	DriverID string `json:"driver_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type CorrectOrderRequest struct {
	PaymentStatus         *string    `json:"payment_status,omitempty"`
	PreparationMinutes    *int       `json:"preparation_minutes,omitempty"`
	EstimatedDeliveryTime *time.Time `json:"estimated_delivery_time,omitempty"`
	ActualDeliveryTime    *time.Time `json:"actual_delivery_time,omitempty"`
}

func (h *OrdersHTTPHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	manualDiscount, err := optionalAmount(req.ManualDiscount)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid manual_discount"))
		return
	}
	extraCharges, err := optionalAmount(req.ExtraCharges)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid extra_charges"))
		return
	}
	manualTax, err := optionalAmount(req.ManualTax)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid manual_tax"))
		return
	}

	selection := make([]promo.GiftSelection, 0, len(req.BxgySelection))
	for _, s := range req.BxgySelection {
		selection = append(selection, promo.GiftSelection{MenuItemID: s.MenuItemID, Quantity: s.Quantity})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ord, err := h.orders.CreateOrder(ctx, ordershandler.CreateOrderInput{
		CustomerID:         req.CustomerID,
		MerchantID:         req.MerchantID,
		Items:              toLineRequests(req.Items),
		PromoCode:          req.PromoCode,
		BxgySelection:      selection,
		ManualDiscount:     manualDiscount,
		ExtraCharges:       extraCharges,
		ManualTax:          manualTax,
		PaymentMethod:      req.PaymentMethod,
		DeliveryAddress:    req.DeliveryAddress,
		DeliveryLat:        req.DeliveryLat,
		DeliveryLng:        req.DeliveryLng,
		SpecialInstruction: req.SpecialInstruction,
	})
	if err != nil {
		handleDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Order placed successfully", ord))
}

func (h *OrdersHTTPHandler) GetOrder(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ord, err := h.orders.GetOrder(ctx, c.Param("id"))
	if err != nil {
		handleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Order retrieved successfully", ord))
}

func (h *OrdersHTTPHandler) ListOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx, ordershandler.ListFilter{
		Role:   order.ActorRole(c.DefaultQuery("role", string(order.ActorAdmin))),
		UserID: c.Query("user_id"),
		Status: c.Query("status"),
	})
	if err != nil {
		handleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Orders retrieved successfully", orders))
}

func (h *OrdersHTTPHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ord, err := h.orders.UpdateStatus(ctx, c.Param("id"), order.Transition{
		To:       order.Status(req.Status),
		Actor:    order.ActorRole(req.Actor),
		DriverID: req.DriverID,
		Reason:   req.Reason,
	})
	if err != nil {
		handleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Order status updated", ord))
}

func (h *OrdersHTTPHandler) CorrectOrder(c *gin.Context) {
	var req CorrectOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := h.orders.CorrectOperational(ctx, c.Param("id"), ordershandler.OperationalCorrection{
		PaymentStatus:         req.PaymentStatus,
		PreparationMinutes:    req.PreparationMinutes,
		EstimatedDeliveryTime: req.EstimatedDeliveryTime,
		ActualDeliveryTime:    req.ActualDeliveryTime,
	})
	if err != nil {
		handleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Order updated", nil))
}

func optionalAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
