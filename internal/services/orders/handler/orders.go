package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pattibytes-backend/internal/apperrors"
	"pattibytes-backend/internal/clock"
	"pattibytes-backend/internal/database/models"
	"pattibytes-backend/internal/notify"
	"pattibytes-backend/internal/order"
	"pattibytes-backend/internal/pricing"
	"pattibytes-backend/internal/promo"
	cataloghandler "pattibytes-backend/internal/services/catalog/handler"
	deliveryhandler "pattibytes-backend/internal/services/delivery/handler"
	promohandler "pattibytes-backend/internal/services/promotions/handler"
)

type OrdersHandler struct {
	db       *gorm.DB
	catalog  *cataloghandler.CatalogHandler
	promos   *promohandler.PromotionsHandler
	delivery *deliveryhandler.DeliveryHandler
	notifier notify.Notifier
	clk      clock.Clock
}

func NewOrdersHandler(db *gorm.DB, catalog *cataloghandler.CatalogHandler, promos *promohandler.PromotionsHandler, delivery *deliveryhandler.DeliveryHandler, notifier notify.Notifier, clk clock.Clock) *OrdersHandler {
	return &OrdersHandler{db: db, catalog: catalog, promos: promos, delivery: delivery, notifier: notifier, clk: clk}
}

// CreateOrderInput is everything checkout sends. CustomerID is nil for walk-in
// orders placed by merchant staff.
type CreateOrderInput struct {
	CustomerID *string
	MerchantID string
	Items      []cataloghandler.LineRequest

	PromoCode     string
	BxgySelection []promo.GiftSelection

	ManualDiscount decimal.Decimal
	ExtraCharges   decimal.Decimal
	ManualTax      decimal.Decimal

	PaymentMethod string

	DeliveryAddress string
	DeliveryLat     float64
	DeliveryLng     float64

	SpecialInstruction string
}

// CreateOrder runs the full checkout pipeline: snapshot the cart at today's
// catalog prices, resolve promotions, quote delivery, compute totals, and
// persist the order with its promo redemption in one transaction. The stored
// amounts are final; nothing about a placed order is ever re-priced.
func (h *OrdersHandler) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if in.MerchantID == "" {
		return nil, apperrors.NewValidation("merchant_id", "required")
	}
	if len(in.Items) == 0 {
		return nil, apperrors.NewValidation("items", "cart is empty")
	}

	merchant, err := h.catalog.GetMerchant(ctx, in.MerchantID)
	if err != nil {
		return nil, err
	}

	lines, err := h.catalog.SnapshotLines(ctx, in.MerchantID, in.Items)
	if err != nil {
		return nil, err
	}
	cart := promo.Cart{MerchantID: in.MerchantID, Lines: lines}

	candidates, err := h.promos.ListCandidatePromos(ctx, in.MerchantID)
	if err != nil {
		return nil, err
	}
	userID := ""
	if in.CustomerID != nil {
		userID = *in.CustomerID
	}
	perUserUsed, err := h.promos.PerUserUsage(ctx, userID, candidates)
	if err != nil {
		return nil, err
	}
	resolution, err := promo.Resolve(cart, candidates, in.PromoCode, perUserUsed, h.clk.Now())
	if err != nil {
		return nil, err
	}

	// customer_choice deals price to zero until the customer names the units.
	if resolution.Bxgy != nil && resolution.Bxgy.RequiresSelection {
		if len(in.BxgySelection) == 0 {
			return nil, apperrors.NewValidation("bxgy_selection", "this deal requires choosing your free items")
		}
		match, err := promo.ValidateSelection(promo.FromCartLines(lines), *resolution.Applied.Bxgy, in.BxgySelection)
		if err != nil {
			return nil, err
		}
		resolution.Bxgy = &match
		resolution.Discount = match.Discount
	}

	quote, err := h.delivery.QuoteFee(ctx, in.MerchantID, in.DeliveryLat, in.DeliveryLng)
	if err != nil {
		return nil, err
	}

	gstPct, err := decimal.NewFromString(merchant.GstPercentage)
	if err != nil {
		return nil, fmt.Errorf("merchant %s: bad gst percentage: %w", merchant.ID, err)
	}
	gst := pricing.GSTRule{AutoApply: merchant.GstEnabled, Percentage: gstPct, ManualTax: in.ManualTax}

	totals, err := pricing.ComputeTotals(lines, resolution.Discount, quote.Fee, in.ManualDiscount, in.ExtraCharges, gst)
	if err != nil {
		return nil, err
	}

	now := h.clk.Now()
	ord := models.Order{
		CustomerID:    in.CustomerID,
		MerchantID:    in.MerchantID,
		Status:        string(order.StatusPending),
		PaymentMethod: paymentMethodOrDefault(in.PaymentMethod),
		PaymentStatus: string(order.PaymentPending),

		Subtotal:          totals.Subtotal.StringFixed(2),
		ItemDiscountTotal: totals.ItemDiscountTotal.StringFixed(2),
		ManualDiscount:    totals.ManualDiscount.StringFixed(2),
		PromoDiscount:     totals.PromoDiscount.StringFixed(2),
		DeliveryFee:       totals.DeliveryFee.StringFixed(2),
		Tax:               totals.Tax.StringFixed(2),
		ExtraCharges:      totals.ExtraCharges.StringFixed(2),
		TotalAmount:       totals.TotalAmount.StringFixed(2),

		DeliveryAddress: in.DeliveryAddress,
		DeliveryLat:     in.DeliveryLat,
		DeliveryLng:     in.DeliveryLng,
		DistanceKm:      quote.DistanceKm,
	}
	if in.SpecialInstruction != "" {
		instruction := in.SpecialInstruction
		ord.SpecialInstruction = &instruction
	}
	if resolution.Applied != nil {
		promoID := resolution.Applied.ID
		promoCode := resolution.Applied.Code
		ord.PromoCodeID = &promoID
		ord.PromoCodeApplied = &promoCode
	}

	freeUnits := bxgyUnitsByItem(resolution.Bxgy)

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := nextOrderNumber(tx, now)
		if err != nil {
			return err
		}
		ord.OrderNumber = number

		if err := tx.Create(&ord).Error; err != nil {
			if isUniqueViolation(err) {
				return apperrors.ErrConflict
			}
			return err
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, models.OrderItem{
				OrderID:            ord.ID,
				MenuItemID:         l.MenuItemID,
				Name:               l.Name,
				Quantity:           l.Quantity,
				UnitPrice:          l.UnitPrice.StringFixed(2),
				DiscountPercentage: l.DiscountPercentage.StringFixed(2),
				LineTotal:          l.LineTotal().Round(2).StringFixed(2),
				BxgyFreeUnits:      freeUnits[l.MenuItemID],
			})
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		ord.Items = items

		if resolution.Applied != nil {
			return h.promos.RecordUsageTx(tx, resolution.Applied.ID, ord.ID, userID, resolution.Discount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !h.notifier.Notify(ctx, in.MerchantID, "New order",
		fmt.Sprintf("Order %s for %s", ord.OrderNumber, ord.TotalAmount),
		map[string]interface{}{"order_id": ord.ID, "type": "order_placed"}) {
		log.Printf("orders: could not notify merchant %s about order %s", in.MerchantID, ord.OrderNumber)
	}

	return &ord, nil
}

// UpdateStatus advances the lifecycle. The write is conditional on the status
// the caller read, so two racing transitions cannot both land; the loser gets
// a conflict and must re-read.
func (h *OrdersHandler) UpdateStatus(ctx context.Context, orderID string, t order.Transition) (*models.Order, error) {
	var ord models.Order
	if err := h.db.WithContext(ctx).Where("id = ?", orderID).First(&ord).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewValidation("order_id", "order not found")
		}
		return nil, err
	}

	current := order.Status(ord.Status)
	fx, err := order.Plan(current, ord.DriverID != nil, t)
	if err != nil {
		return nil, err
	}

	updates := statusUpdates(t, fx, h.clk.Now())

	q := h.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, ord.Status)
	if fx.SetDriverID != "" {
		q = q.Where("driver_id IS NULL")
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrConflict
	}

	if fx.BroadcastDrivers {
		go func() {
			bctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := h.delivery.BroadcastOrder(bctx, orderID); err != nil {
				log.Printf("orders: broadcast for order %s failed: %v", ord.OrderNumber, err)
			}
		}()
	}

	h.notifyTransition(ctx, ord, t.To)
	return h.GetOrder(ctx, orderID)
}

// statusUpdates builds the column writes a planned transition entails.
// Delivery settles payment for every method, so an order can never arrive and
// stay unpaid.
func statusUpdates(t order.Transition, fx order.Effects, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"status":     string(t.To),
		"updated_at": now,
	}
	if fx.StampActualDelivery {
		updates["actual_delivery_time"] = now
	}
	if fx.ForcePaid {
		updates["payment_status"] = string(order.PaymentPaid)
	}
	if fx.SetDriverID != "" {
		updates["driver_id"] = fx.SetDriverID
	}
	if t.To == order.StatusCancelled {
		updates["cancellation_reason"] = t.Reason
		updates["cancelled_by"] = string(t.Actor)
	}
	return updates
}

func (h *OrdersHandler) notifyTransition(ctx context.Context, ord models.Order, to order.Status) {
	if ord.CustomerID == nil {
		return
	}
	titles := map[order.Status]string{
		order.StatusConfirmed: "Order confirmed",
		order.StatusPreparing: "Your food is being prepared",
		order.StatusReady:     "Order ready",
		order.StatusPickedUp:  "Order picked up",
		order.StatusDelivered: "Order delivered",
		order.StatusCancelled: "Order cancelled",
		order.StatusRejected:  "Order could not be accepted",
	}
	title, ok := titles[to]
	if !ok {
		return
	}
	if !h.notifier.Notify(ctx, *ord.CustomerID, title,
		fmt.Sprintf("Order %s is now %s", ord.OrderNumber, to),
		map[string]interface{}{"order_id": ord.ID, "status": string(to), "type": "order_status"}) {
		log.Printf("orders: could not notify customer %s about order %s", *ord.CustomerID, ord.OrderNumber)
	}
}

// OperationalCorrection adjusts bookkeeping fields that do not advance the
// lifecycle. Nil fields are left untouched.
type OperationalCorrection struct {
	PaymentStatus         *string
	PreparationMinutes    *int
	EstimatedDeliveryTime *time.Time
	ActualDeliveryTime    *time.Time
}

// CorrectOperational applies an operational correction on any non-terminal
// order. The guard repeats in the WHERE clause so a concurrent delivery or
// cancellation cannot be overwritten.
func (h *OrdersHandler) CorrectOperational(ctx context.Context, orderID string, c OperationalCorrection) error {
	updates := map[string]interface{}{"updated_at": h.clk.Now()}
	if c.PaymentStatus != nil {
		if !order.ValidPaymentStatus(order.PaymentStatus(*c.PaymentStatus)) {
			return apperrors.NewValidation("payment_status", "unknown payment status "+*c.PaymentStatus)
		}
		updates["payment_status"] = *c.PaymentStatus
	}
	if c.PreparationMinutes != nil {
		if *c.PreparationMinutes < 0 {
			return apperrors.NewValidation("preparation_minutes", "must not be negative")
		}
		updates["preparation_minutes"] = *c.PreparationMinutes
	}
	if c.EstimatedDeliveryTime != nil {
		updates["estimated_delivery_time"] = *c.EstimatedDeliveryTime
	}
	if c.ActualDeliveryTime != nil {
		updates["actual_delivery_time"] = *c.ActualDeliveryTime
	}
	if len(updates) == 1 {
		return apperrors.NewValidation("correction", "nothing to update")
	}

	res := h.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status NOT IN ?", orderID,
			[]string{string(order.StatusDelivered), string(order.StatusCancelled), string(order.StatusRejected)}).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var current models.Order
		if err := h.db.WithContext(ctx).Where("id = ?", orderID).First(&current).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NewValidation("order_id", "order not found")
			}
			return err
		}
		return apperrors.NewInvalidTransition(current.Status, current.Status)
	}
	return nil
}

// ListFilter scopes a listing to one party's orders, optionally by status.
type ListFilter struct {
	Role   order.ActorRole
	UserID string
	Status string
	Limit  int
}

func (h *OrdersHandler) ListOrders(ctx context.Context, f ListFilter) ([]models.Order, error) {
	q := h.db.WithContext(ctx).Model(&models.Order{})
	switch f.Role {
	case order.ActorCustomer:
		q = q.Where("customer_id = ?", f.UserID)
	case order.ActorMerchant:
		q = q.Where("merchant_id = ?", f.UserID)
	case order.ActorDriver:
		q = q.Where("driver_id = ?", f.UserID)
	case order.ActorAdmin:
	default:
		return nil, apperrors.NewValidation("role", "unknown role "+string(f.Role))
	}
	if f.Status != "" {
		if !order.Valid(order.Status(f.Status)) {
			return nil, apperrors.NewValidation("status", "unknown status "+f.Status)
		}
		q = q.Where("status = ?", f.Status)
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var orders []models.Order
	err := q.Preload("Items").Order("created_at DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

func (h *OrdersHandler) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var ord models.Order
	err := h.db.WithContext(ctx).Preload("Items").Where("id = ?", orderID).First(&ord).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewValidation("order_id", "order not found")
		}
		return nil, err
	}
	return &ord, nil
}

// nextOrderNumber issues PB-YYYYMMDD-NNNN, resetting the sequence each day.
// Counting inside the checkout transaction keeps the number gapless enough for
// receipts; the unique index on order_number catches the rare same-instant
// collision, which isUniqueViolation turns into a retryable conflict.
func nextOrderNumber(tx *gorm.DB, now time.Time) (string, error) {
	day := now.Format("20060102")
	var count int64
	if err := tx.Model(&models.Order{}).
		Where("order_number LIKE ?", "PB-"+day+"-%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("PB-%s-%04d", day, count+1), nil
}

// isUniqueViolation reports a postgres unique-constraint failure (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func bxgyUnitsByItem(match *promo.MatchResult) map[string]int {
	units := make(map[string]int)
	if match == nil {
		return units
	}
	for _, g := range match.Gifts {
		units[g.MenuItemID] += g.Quantity
	}
	return units
}

func paymentMethodOrDefault(method string) string {
	method = strings.ToLower(strings.TrimSpace(method))
	switch method {
	case "cod", "upi", "card", "online":
		return method
	case "":
		return "cod"
	}
	return "cod"
}
