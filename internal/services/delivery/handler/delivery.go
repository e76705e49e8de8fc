package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pattibytes-backend/internal/apperrors"
	"pattibytes-backend/internal/clock"
	"pattibytes-backend/internal/database/models"
	"pattibytes-backend/internal/geo"
	"pattibytes-backend/internal/notify"
	"pattibytes-backend/internal/order"
	"pattibytes-backend/internal/routing"
	"pattibytes-backend/internal/schedule"
)

type DeliveryHandler struct {
	db       *gorm.DB
	redis    *redis.Client
	router   routing.Provider
	notifier notify.Notifier
	clk      clock.Clock
}

func NewDeliveryHandler(db *gorm.DB, redisClient *redis.Client, router routing.Provider, notifier notify.Notifier, clk clock.Clock) *DeliveryHandler {
	return &DeliveryHandler{db: db, redis: redisClient, router: router, notifier: notifier, clk: clk}
}

// dayRuleJSON is one day's entry in the stored weekly/overrides JSON, keyed
// sun..sat (weekly) or 2006-01-02 (overrides).
type dayRuleJSON struct {
	Enabled bool   `json:"enabled"`
	Fee     string `json:"fee"`
}

var weekdayKeys = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// GetSchedule loads and translates a merchant's fee schedule into the
// canonical form. Merchants without a stored schedule deliver free.
func (h *DeliveryHandler) GetSchedule(ctx context.Context, merchantID string) (schedule.Schedule, error) {
	var row models.DeliveryFeeSchedule
	err := h.db.WithContext(ctx).Where("merchant_id = ?", merchantID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return schedule.Schedule{Timezone: "UTC", ShowToCustomer: true}, nil
	}
	if err != nil {
		return schedule.Schedule{}, err
	}
	return toSchedule(row)
}

func toSchedule(row models.DeliveryFeeSchedule) (schedule.Schedule, error) {
	var weeklyRaw map[string]dayRuleJSON
	if err := json.Unmarshal([]byte(row.WeeklyJSON), &weeklyRaw); err != nil {
		return schedule.Schedule{}, fmt.Errorf("schedule for merchant %s: bad weekly json: %w", row.MerchantID, err)
	}
	var overridesRaw map[string]dayRuleJSON
	if err := json.Unmarshal([]byte(row.OverridesJSON), &overridesRaw); err != nil {
		return schedule.Schedule{}, fmt.Errorf("schedule for merchant %s: bad overrides json: %w", row.MerchantID, err)
	}

	weekly := make(map[time.Weekday]schedule.DayRule, len(weeklyRaw))
	for key, rule := range weeklyRaw {
		wd, ok := weekdayKeys[key]
		if !ok {
			continue
		}
		fee, err := decimal.NewFromString(rule.Fee)
		if err != nil {
			return schedule.Schedule{}, fmt.Errorf("schedule for merchant %s: bad fee on %s: %w", row.MerchantID, key, err)
		}
		weekly[wd] = schedule.DayRule{Enabled: rule.Enabled, Fee: fee}
	}
	overrides := make(map[string]schedule.DayRule, len(overridesRaw))
	for date, rule := range overridesRaw {
		fee, err := decimal.NewFromString(rule.Fee)
		if err != nil {
			return schedule.Schedule{}, fmt.Errorf("schedule for merchant %s: bad fee on %s: %w", row.MerchantID, date, err)
		}
		overrides[date] = schedule.DayRule{Enabled: rule.Enabled, Fee: fee}
	}

	baseRadius, err := decimal.NewFromString(row.BaseRadiusKm)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("schedule for merchant %s: bad base radius: %w", row.MerchantID, err)
	}
	perKm, err := decimal.NewFromString(row.PerKmBeyondBase)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("schedule for merchant %s: bad per-km fee: %w", row.MerchantID, err)
	}

	return schedule.Schedule{
		Timezone:        row.Timezone,
		Weekly:          weekly,
		Overrides:       overrides,
		BaseRadiusKm:    baseRadius,
		PerKmBeyondBase: perKm,
		ShowToCustomer:  row.ShowToCustomer,
	}, nil
}

// QuoteFee computes the fee to deliver from the merchant to the destination
// right now. Road distance comes from the routing provider; when routing
// fails the aerial distance is used instead, logged, so a quote is never
// built on a silently-zero distance.
func (h *DeliveryHandler) QuoteFee(ctx context.Context, merchantID string, destLat, destLng float64) (schedule.Quote, error) {
	var merchant models.Merchant
	if err := h.db.WithContext(ctx).Where("id = ?", merchantID).First(&merchant).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return schedule.Quote{}, apperrors.NewValidation("merchant_id", "merchant not found")
		}
		return schedule.Quote{}, err
	}

	distanceKm, err := h.router.RoadDistanceKm(ctx, merchant.Latitude, merchant.Longitude, destLat, destLng)
	if err != nil {
		distanceKm = geo.Haversine(merchant.Latitude, merchant.Longitude, destLat, destLng)
		log.Printf("delivery: road routing failed for merchant %s, using aerial distance %.1f km: %v", merchantID, distanceKm, err)
	}

	sched, err := h.GetSchedule(ctx, merchantID)
	if err != nil {
		return schedule.Quote{}, err
	}
	return schedule.QuoteFee(sched, distanceKm, h.clk.Now())
}

// UpsertSchedule replaces a merchant's fee schedule after validating that it
// translates cleanly.
func (h *DeliveryHandler) UpsertSchedule(ctx context.Context, row models.DeliveryFeeSchedule) error {
	if _, err := toSchedule(row); err != nil {
		return apperrors.NewValidation("schedule", err.Error())
	}
	var existing models.DeliveryFeeSchedule
	err := h.db.WithContext(ctx).Where("merchant_id = ?", row.MerchantID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return h.db.WithContext(ctx).Create(&row).Error
	}
	if err != nil {
		return err
	}
	row.ID = existing.ID
	return h.db.WithContext(ctx).Save(&row).Error
}

// BroadcastOrder notifies every active, available driver that an order is
// ready for pickup. One pending assignment row is created per driver; this is
// a broadcast, not a lock, and notification failures are advisory only.
func (h *DeliveryHandler) BroadcastOrder(ctx context.Context, orderID string) error {
	var ord models.Order
	if err := h.db.WithContext(ctx).Where("id = ?", orderID).First(&ord).Error; err != nil {
		return err
	}
	if ord.DriverID != nil {
		return nil
	}

	var drivers []models.Driver
	if err := h.db.WithContext(ctx).
		Where("is_active = ? AND is_available = ?", true, true).
		Find(&drivers).Error; err != nil {
		return err
	}
	if len(drivers) == 0 {
		log.Printf("delivery: no available drivers for order %s", ord.OrderNumber)
		return nil
	}

	for _, d := range drivers {
		assignment := models.DeliveryAssignment{
			OrderID:  ord.ID,
			DriverID: d.ID,
			Status:   models.AssignmentPending,
		}
		if err := h.db.WithContext(ctx).Create(&assignment).Error; err != nil {
			return err
		}
		if !h.notifier.Notify(ctx, d.ID, "New delivery available",
			fmt.Sprintf("Order %s is ready for pickup", ord.OrderNumber),
			map[string]interface{}{"order_id": ord.ID, "type": "delivery_offer"}) {
			log.Printf("delivery: could not notify driver %s for order %s", d.ID, ord.OrderNumber)
		}
	}
	return nil
}

// AcceptAssignment is the first-accept-wins step of a broadcast. The claim is
// a single conditional write on driver_id IS NULL; a late accept by a second
// driver therefore fails with a conflict instead of silently stealing the
// order. An order claimed while ready auto-advances to assigned.
func (h *DeliveryHandler) AcceptAssignment(ctx context.Context, orderID, driverID string) error {
	if driverID == "" {
		return apperrors.NewValidation("driver_id", "required")
	}

	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`UPDATE orders
			 SET driver_id = ?,
			     status = CASE WHEN status = ? THEN ? ELSE status END,
			     updated_at = ?
			 WHERE id = ? AND driver_id IS NULL AND status IN ?`,
			driverID, string(order.StatusReady), string(order.StatusAssigned), h.clk.Now(),
			orderID, []string{string(order.StatusConfirmed), string(order.StatusPreparing), string(order.StatusReady)},
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var current models.Order
			if err := tx.Where("id = ?", orderID).First(&current).Error; err != nil {
				return err
			}
			if current.DriverID != nil {
				return apperrors.ErrConflict
			}
			return apperrors.NewInvalidTransition(current.Status, string(order.StatusAssigned))
		}

		if err := tx.Model(&models.DeliveryAssignment{}).
			Where("order_id = ? AND driver_id = ?", orderID, driverID).
			Update("status", models.AssignmentAccepted).Error; err != nil {
			return err
		}
		return tx.Model(&models.DeliveryAssignment{}).
			Where("order_id = ? AND driver_id <> ? AND status = ?", orderID, driverID, models.AssignmentPending).
			Update("status", models.AssignmentSuperseded).Error
	})
}

// ReassignDriver is an administrative override outside the broadcast flow. It
// re-validates that the order has not progressed to picked_up or later.
func (h *DeliveryHandler) ReassignDriver(ctx context.Context, orderID, driverID string) error {
	if driverID == "" {
		return apperrors.NewValidation("driver_id", "required")
	}

	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`UPDATE orders SET driver_id = ?, updated_at = ?
			 WHERE id = ? AND status IN ?`,
			driverID, h.clk.Now(), orderID,
			[]string{string(order.StatusConfirmed), string(order.StatusPreparing), string(order.StatusReady), string(order.StatusAssigned)},
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var current models.Order
			if err := tx.Where("id = ?", orderID).First(&current).Error; err != nil {
				return err
			}
			return apperrors.NewInvalidTransition(current.Status, string(order.StatusAssigned))
		}

		if err := tx.Model(&models.DeliveryAssignment{}).
			Where("order_id = ? AND status = ?", orderID, models.AssignmentPending).
			Update("status", models.AssignmentSuperseded).Error; err != nil {
			return err
		}

		if !h.notifier.Notify(ctx, driverID, "Delivery assigned to you",
			"An order has been assigned to you by an administrator",
			map[string]interface{}{"order_id": orderID, "type": "delivery_reassigned"}) {
			log.Printf("delivery: could not notify driver %s about reassignment of order %s", driverID, orderID)
		}
		return nil
	})
}
