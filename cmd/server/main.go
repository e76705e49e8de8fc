package main

import (
	"log"

	"pattibytes-backend/config"
	"pattibytes-backend/internal/clock"
	"pattibytes-backend/internal/database"
	"pattibytes-backend/internal/gateway/handlers"
	"pattibytes-backend/internal/notify"
	"pattibytes-backend/internal/routing"
	cataloghandler "pattibytes-backend/internal/services/catalog/handler"
	deliveryhandler "pattibytes-backend/internal/services/delivery/handler"
	ordershandler "pattibytes-backend/internal/services/orders/handler"
	promohandler "pattibytes-backend/internal/services/promotions/handler"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	rdb := config.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	clk := clock.Real()
	router := routing.NewClient(cfg.Routing.BaseURL, cfg.Routing.APIKey)
	notifier := notify.NewRedisNotifier(rdb)

	catalog := cataloghandler.NewCatalogHandler(db, rdb)
	promos := promohandler.NewPromotionsHandler(db, rdb, clk)
	delivery := deliveryhandler.NewDeliveryHandler(db, rdb, router, notifier, clk)
	orders := ordershandler.NewOrdersHandler(db, catalog, promos, delivery, notifier, clk)

	r := setupRouter(cfg,
		handlers.NewCatalogHTTPHandler(catalog),
		handlers.NewPromotionsHTTPHandler(catalog, promos),
		handlers.NewOrdersHTTPHandler(orders),
		handlers.NewDeliveryHTTPHandler(delivery),
	)

	log.Printf("Server listening on :%s", cfg.HTTP.Port)
	if err := r.Run(":" + cfg.HTTP.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
