package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pattibytes-backend/internal/database/models"
	"pattibytes-backend/internal/schedule"
	handler "pattibytes-backend/internal/services/delivery/handler"
)

type DeliveryHTTPHandler struct {
	delivery *handler.DeliveryHandler
}

func NewDeliveryHTTPHandler(delivery *handler.DeliveryHandler) *DeliveryHTTPHandler {
	return &DeliveryHTTPHandler{delivery: delivery}
}

type QuoteFeeQuery struct {
	Lat float64 `form:"lat" binding:"required"`
	Lng float64 `form:"lng" binding:"required"`
}

type DayRuleRequest struct {
	Enabled bool   `json:"enabled"`
	Fee     string `json:"fee"`
}

type UpsertScheduleRequest struct {
	Timezone        string                    `json:"timezone" binding:"required"`
	Weekly          map[string]DayRuleRequest `json:"weekly" binding:"required"`
	Overrides       map[string]DayRuleRequest `json:"overrides,omitempty"`
	BaseRadiusKm    string                    `json:"base_radius_km" binding:"required"`
	PerKmBeyondBase string                    `json:"per_km_beyond_base" binding:"required"`
	ShowToCustomer  *bool                     `json:"show_to_customer,omitempty"`
}

type AcceptAssignmentRequest struct {
	DriverID string `json:"driver_id" binding:"required"`
}

type ReassignRequest struct {
	DriverID string `json:"driver_id" binding:"required"`
}

// QuoteFee returns what delivery to the given point costs right now.
func (h *DeliveryHTTPHandler) QuoteFee(c *gin.Context) {
	var query QuoteFeeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("lat and lng query parameters are required"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	quote, err := h.delivery.QuoteFee(ctx, c.Param("id"), query.Lat, query.Lng)
	if err != nil {
		handleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Delivery fee quoted", quoteBody(quote)))
}

// quoteBody always carries the fee; the fee is charged whether or not it is
// itemized. itemized=false tells clients to fold it into the item total line
// instead of showing a separate delivery row.
func quoteBody(q schedule.Quote) gin.H {
	return gin.H{
		"distance_km": strconv.FormatFloat(q.DistanceKm, 'f', 1, 64),
		"fee":         q.Fee.StringFixed(2),
		"itemized":    q.ShowToCustomer,
	}
}

func (h *DeliveryHTTPHandler) UpsertSchedule(c *gin.Context) {
	var req UpsertScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	weeklyJSON, err := json.Marshal(req.Weekly)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid weekly schedule"))
		return
	}
	overrides := req.Overrides
	if overrides == nil {
		overrides = map[string]DayRuleRequest{}
	}
	overridesJSON, err := json.Marshal(overrides)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid overrides"))
		return
	}

	row := models.DeliveryFeeSchedule{
		MerchantID:      c.Param("id"),
		Timezone:        req.Timezone,
		WeeklyJSON:      string(weeklyJSON),
		OverridesJSON:   string(overridesJSON),
		BaseRadiusKm:    req.BaseRadiusKm,
		PerKmBeyondBase: req.PerKmBeyondBase,
		ShowToCustomer:  true,
	}
	if req.ShowToCustomer != nil {
		row.ShowToCustomer = *req.ShowToCustomer
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.delivery.UpsertSchedule(ctx, row); err != nil {
		handleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Delivery schedule saved", nil))
}

// AcceptAssignment is the driver's accept on a broadcast offer. First accept
// wins; later accepts get a conflict.
func (h *DeliveryHTTPHandler) AcceptAssignment(c *gin.Context) {
	var req AcceptAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.delivery.AcceptAssignment(ctx, c.Param("id"), req.DriverID); err != nil {
		handleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Delivery accepted", nil))
}

func (h *DeliveryHTTPHandler) ReassignDriver(c *gin.Context) {
	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.delivery.ReassignDriver(ctx, c.Param("id"), req.DriverID); err != nil {
		handleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Driver reassigned", nil))
}
