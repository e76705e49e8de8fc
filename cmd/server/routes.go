package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pattibytes-backend/config"
	"pattibytes-backend/internal/gateway/handlers"
	"pattibytes-backend/internal/gateway/middleware"
)

func setupRouter(cfg config.Config,
	catalog *handlers.CatalogHTTPHandler,
	promotions *handlers.PromotionsHTTPHandler,
	orders *handlers.OrdersHTTPHandler,
	delivery *handlers.DeliveryHTTPHandler,
) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(cfg.HTTP.RateLimit))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		merchants := api.Group("/merchants")
		{
			merchants.GET("/:id", catalog.GetMerchant)
			merchants.GET("/:id/menu", catalog.ListMenuItems)
			merchants.GET("/:id/categories", catalog.ListCategories)
			merchants.GET("/:id/promotions", promotions.ListPromotions)
			merchants.GET("/:id/delivery-quote", delivery.QuoteFee)
			merchants.PUT("/:id/delivery-schedule", delivery.UpsertSchedule)
		}

		menu := api.Group("/menu-items")
		{
			menu.GET("/:id", catalog.GetMenuItem)
		}

		promos := api.Group("/promotions")
		{
			promos.POST("/validate", promotions.ValidateCode)
		}

		ordersGroup := api.Group("/orders")
		{
			ordersGroup.POST("", orders.CreateOrder)
			ordersGroup.GET("", orders.ListOrders)
			ordersGroup.GET("/:id", orders.GetOrder)
			ordersGroup.PATCH("/:id/status", orders.UpdateStatus)
			ordersGroup.PATCH("/:id", orders.CorrectOrder)
			ordersGroup.POST("/:id/accept", delivery.AcceptAssignment)
			ordersGroup.POST("/:id/reassign", delivery.ReassignDriver)
		}
	}

	return r
}
