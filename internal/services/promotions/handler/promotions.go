package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pattibytes-backend/internal/apperrors"
	"pattibytes-backend/internal/clock"
	"pattibytes-backend/internal/database/models"
	"pattibytes-backend/internal/promo"
)

const (
	PROMO_CACHE_PREFIX = "promo:candidates:"
	PROMO_CACHE_TTL    = 5 * time.Minute
	candidateLimit     = 50
)

type PromotionsHandler struct {
	db    *gorm.DB
	redis *redis.Client
	clk   clock.Clock
}

func NewPromotionsHandler(db *gorm.DB, redisClient *redis.Client, clk clock.Clock) *PromotionsHandler {
	return &PromotionsHandler{db: db, redis: redisClient, clk: clk}
}

// ListCandidatePromos returns the active promotions a cart at this merchant
// could use: global ones plus this merchant's own, highest priority first.
// Fine-grained eligibility (days, windows, limits) is the resolver's job.
func (h *PromotionsHandler) ListCandidatePromos(ctx context.Context, merchantID string) ([]promo.PromoCode, error) {
	cacheKey := PROMO_CACHE_PREFIX + merchantID
	if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var out []promo.PromoCode
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			return out, nil
		}
	}

	now := h.clk.Now()
	var rows []models.PromoCode
	err := h.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("valid_until IS NULL OR valid_until >= ?", now).
		Where("scope = ? OR merchant_id = ?", promo.ScopeGlobal, merchantID).
		Order("priority DESC").
		Limit(candidateLimit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]promo.PromoCode, 0, len(rows))
	for _, row := range rows {
		p, err := toDomain(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	if raw, err := json.Marshal(out); err == nil {
		_ = h.redis.Set(ctx, cacheKey, raw, PROMO_CACHE_TTL).Err()
	}
	return out, nil
}

// PerUserUsage returns how many times the user has redeemed each promo.
func (h *PromotionsHandler) PerUserUsage(ctx context.Context, userID string, promos []promo.PromoCode) (map[string]int, error) {
	used := make(map[string]int, len(promos))
	if userID == "" || len(promos) == 0 {
		return used, nil
	}
	ids := make([]string, 0, len(promos))
	for _, p := range promos {
		ids = append(ids, p.ID)
	}
	var rows []models.PromoUsage
	if err := h.db.WithContext(ctx).
		Where("user_id = ? AND promo_code_id IN ?", userID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		used[row.PromoCodeID] += row.UsageCount
	}
	return used, nil
}

// ValidateCode prices a manually entered code against a cart, surfacing the
// reason when it cannot apply.
func (h *PromotionsHandler) ValidateCode(ctx context.Context, code, userID string, cart promo.Cart) (promo.Resolution, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return promo.Resolution{}, apperrors.NewValidation("code", "promo code is required")
	}

	var row models.PromoCode
	err := h.db.WithContext(ctx).
		Where("UPPER(code) = ? AND is_active = ?", code, true).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return promo.Resolution{}, apperrors.NewIneligiblePromotion(code, "Invalid promo code")
		}
		return promo.Resolution{}, err
	}

	p, err := toDomain(row)
	if err != nil {
		return promo.Resolution{}, err
	}

	usage, err := h.PerUserUsage(ctx, userID, []promo.PromoCode{p})
	if err != nil {
		return promo.Resolution{}, err
	}

	return promo.Resolve(cart, []promo.PromoCode{p}, code, usage, h.clk.Now())
}

// RecordUsage consumes one redemption atomically. Both counters are
// conditional writes: the global counter increments only under usage_limit,
// and the per-user row is an upsert whose increment only lands under
// max_uses_per_user, so a check-then-apply race cannot oversell a promotion.
func (h *PromotionsHandler) RecordUsage(ctx context.Context, promoID, orderID, userID string, discount decimal.Decimal) error {
	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return h.RecordUsageTx(tx, promoID, orderID, userID, discount)
	})
}

// RecordUsageTx is RecordUsage inside a caller-owned transaction, so checkout
// can fail the whole order when the promotion sells out underneath it.
func (h *PromotionsHandler) RecordUsageTx(tx *gorm.DB, promoID, orderID, userID string, discount decimal.Decimal) error {
	res := tx.Exec(
		`UPDATE promo_codes SET used_count = used_count + 1, updated_at = ?
		 WHERE id = ? AND (usage_limit = 0 OR used_count < usage_limit)`,
		h.clk.Now(), promoID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NewIneligiblePromotion(promoID, promo.ReasonUsageLimit)
	}

	if userID == "" {
		return nil
	}

	var perUserCap int
	if err := tx.Model(&models.PromoCode{}).
		Where("id = ?", promoID).
		Pluck("max_uses_per_user", &perUserCap).Error; err != nil {
		return err
	}

	// One statement against the unique (promo_code_id, user_id) index: first
	// use inserts, later uses increment only while under the cap. Concurrent
	// first uses collapse into insert-then-increment instead of two rows.
	now := h.clk.Now()
	res = tx.Exec(
		`INSERT INTO promo_usages (promo_code_id, user_id, order_id, discount, usage_count, last_used_at, created_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT (promo_code_id, user_id) DO UPDATE
		 SET usage_count  = promo_usages.usage_count + 1,
		     order_id     = EXCLUDED.order_id,
		     discount     = EXCLUDED.discount,
		     last_used_at = EXCLUDED.last_used_at
		 WHERE ? = 0 OR promo_usages.usage_count < ?`,
		promoID, userID, orderID, discount.StringFixed(2), now, now,
		perUserCap, perUserCap,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NewIneligiblePromotion(promoID, promo.ReasonAlreadyUsed)
	}
	return nil
}

// InvalidateCandidateCache drops the cached candidate list after promo edits.
func (h *PromotionsHandler) InvalidateCandidateCache(ctx context.Context, merchantID string) {
	_ = h.redis.Del(ctx, PROMO_CACHE_PREFIX+merchantID).Err()
}

// dealJSON mirrors the shape the merchant tooling stores in the deal_json
// column for bxgy promotions.
type dealJSON struct {
	Buy struct {
		Qty   int      `json:"qty"`
		Items []string `json:"items"`
	} `json:"buy"`
	Get struct {
		Qty      int      `json:"qty"`
		Items    []string `json:"items"`
		Discount string   `json:"discount"`
		Value    string   `json:"value"`
	} `json:"get"`
	MaxSetsPerOrder int    `json:"max_sets_per_order"`
	Selection       string `json:"selection"`
}

// toDomain translates a stored row into the canonical promotion type. All
// shape quirks of the stored representation are absorbed here.
func toDomain(row models.PromoCode) (promo.PromoCode, error) {
	value, err := decimal.NewFromString(orZero(row.DiscountValue))
	if err != nil {
		return promo.PromoCode{}, fmt.Errorf("promo %s: bad discount_value: %w", row.ID, err)
	}
	minOrder, err := decimal.NewFromString(orZero(row.MinOrderAmount))
	if err != nil {
		return promo.PromoCode{}, fmt.Errorf("promo %s: bad min_order_amount: %w", row.ID, err)
	}
	maxDisc, err := decimal.NewFromString(orZero(row.MaxDiscountAmount))
	if err != nil {
		return promo.PromoCode{}, fmt.Errorf("promo %s: bad max_discount_amount: %w", row.ID, err)
	}

	p := promo.PromoCode{
		ID:                row.ID,
		Code:              strings.ToUpper(strings.TrimSpace(row.Code)),
		Scope:             promo.Scope(row.Scope),
		DealType:          promo.DealType(row.DealType),
		DiscountType:      promo.DiscountType(row.DiscountType),
		DiscountValue:     value,
		MinOrderAmount:    minOrder,
		MaxDiscountAmount: maxDisc,
		UsageLimit:        row.UsageLimit,
		UsedCount:         row.UsedCount,
		MaxUsesPerUser:    row.MaxUsesPerUser,
		ValidFrom:         row.ValidFrom,
		ValidUntil:        row.ValidUntil,
		ValidDays:         parseDays(row.ValidDays),
		AutoApply:         row.AutoApply,
		Priority:          row.Priority,
		IsActive:          row.IsActive,
		TargetItemIDs:     row.TargetItemIDs,
	}
	if row.Description != nil {
		p.Description = *row.Description
	}
	if row.MerchantID != nil {
		p.MerchantID = *row.MerchantID
	}
	if row.StartTime != nil {
		p.StartTime = *row.StartTime
	}
	if row.EndTime != nil {
		p.EndTime = *row.EndTime
	}

	if p.DealType == promo.DealBxgy {
		if row.DealJSON == nil {
			return promo.PromoCode{}, apperrors.NewValidation("deal_json", fmt.Sprintf("promo %s: bxgy deal without a rule", row.ID))
		}
		var dj dealJSON
		if err := json.Unmarshal([]byte(*row.DealJSON), &dj); err != nil {
			return promo.PromoCode{}, fmt.Errorf("promo %s: bad deal_json: %w", row.ID, err)
		}
		rule := promo.BxgyRule{
			BuyQuantity:     defaultInt(dj.Buy.Qty, 1),
			GetQuantity:     defaultInt(dj.Get.Qty, 1),
			MaxSetsPerOrder: defaultInt(dj.MaxSetsPerOrder, 1),
			BuyTargets:      dj.Buy.Items,
			GetTargets:      dj.Get.Items,
			Selection:       promo.SelectAutoCheapest,
			GetDiscount:     promo.GetFree,
		}
		if dj.Selection == string(promo.SelectCustomerChoice) {
			rule.Selection = promo.SelectCustomerChoice
		}
		switch dj.Get.Discount {
		case "", string(promo.GetFree):
		case string(promo.GetPercentage), string(promo.GetFixed):
			rule.GetDiscount = promo.GetDiscountKind(dj.Get.Discount)
			v, err := decimal.NewFromString(orZero(dj.Get.Value))
			if err != nil {
				return promo.PromoCode{}, fmt.Errorf("promo %s: bad get discount value: %w", row.ID, err)
			}
			rule.GetDiscountValue = v
		default:
			return promo.PromoCode{}, apperrors.NewValidation("deal_json", fmt.Sprintf("promo %s: unknown get discount %q", row.ID, dj.Get.Discount))
		}
		p.Bxgy = &rule
	}

	if err := p.Validate(); err != nil {
		return promo.PromoCode{}, err
	}
	return p, nil
}

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func parseDays(days []string) []time.Weekday {
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		key := strings.ToLower(strings.TrimSpace(d))
		if len(key) > 3 {
			key = key[:3]
		}
		if wd, ok := dayNames[key]; ok {
			out = append(out, wd)
		}
	}
	return out
}

func orZero(s string) string {
	if strings.TrimSpace(s) == "" {
		return "0"
	}
	return s
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
