package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pattibytes-backend/internal/apperrors"
	"pattibytes-backend/internal/database/models"
	"pattibytes-backend/internal/pricing"
)

const (
	MENU_CACHE_PREFIX     = "catalog:menu:"
	MERCHANT_CACHE_PREFIX = "catalog:merchant:"
	CACHE_TTL_SHORT       = 5 * time.Minute
	CACHE_TTL_MEDIUM      = 30 * time.Minute
)

type CatalogHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCatalogHandler(db *gorm.DB, redisClient *redis.Client) *CatalogHandler {
	return &CatalogHandler{db: db, redis: redisClient}
}

// GetMenuItems returns a merchant's available items, cached briefly since the
// catalog changes far less often than it is read.
func (h *CatalogHandler) GetMenuItems(ctx context.Context, merchantID string) ([]models.MenuItem, error) {
	cacheKey := MENU_CACHE_PREFIX + merchantID
	if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var items []models.MenuItem
		if err := json.Unmarshal([]byte(cached), &items); err == nil {
			return items, nil
		}
	}

	var items []models.MenuItem
	if err := h.db.WithContext(ctx).
		Where("merchant_id = ? AND is_available = ?", merchantID, true).
		Order("category, name").
		Find(&items).Error; err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(items); err == nil {
		_ = h.redis.Set(ctx, cacheKey, raw, CACHE_TTL_MEDIUM).Err()
	}
	return items, nil
}

func (h *CatalogHandler) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := h.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewValidation("menu_item_id", "menu item not found")
		}
		return nil, err
	}
	return &item, nil
}

// VegOnly narrows a menu to vegetarian items.
func VegOnly(items []models.MenuItem) []models.MenuItem {
	out := make([]models.MenuItem, 0, len(items))
	for _, it := range items {
		if it.IsVeg {
			out = append(out, it)
		}
	}
	return out
}

// ListCategories returns the distinct categories a merchant sells under.
func (h *CatalogHandler) ListCategories(ctx context.Context, merchantID string) ([]string, error) {
	var categories []string
	err := h.db.WithContext(ctx).Model(&models.MenuItem{}).
		Where("merchant_id = ? AND is_available = ?", merchantID, true).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	return categories, err
}

func (h *CatalogHandler) GetMerchant(ctx context.Context, id string) (*models.Merchant, error) {
	cacheKey := MERCHANT_CACHE_PREFIX + id
	if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var m models.Merchant
		if err := json.Unmarshal([]byte(cached), &m); err == nil {
			return &m, nil
		}
	}

	var m models.Merchant
	if err := h.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewValidation("merchant_id", "merchant not found")
		}
		return nil, err
	}

	if raw, err := json.Marshal(m); err == nil {
		_ = h.redis.Set(ctx, cacheKey, raw, CACHE_TTL_SHORT).Err()
	}
	return &m, nil
}

// InvalidateMenuCache is called after merchant-side catalog edits.
func (h *CatalogHandler) InvalidateMenuCache(ctx context.Context, merchantID string) {
	_ = h.redis.Del(ctx, MENU_CACHE_PREFIX+merchantID, MERCHANT_CACHE_PREFIX+merchantID).Err()
}

// LineRequest is a requested quantity of one menu item.
type LineRequest struct {
	MenuItemID string
	Quantity   int
}

// SnapshotLines converts requested quantities into priced cart lines, copying
// price and markdown at order time so later catalog edits cannot alter them.
func (h *CatalogHandler) SnapshotLines(ctx context.Context, merchantID string, wanted []LineRequest) ([]pricing.CartLine, error) {
	items, err := h.GetMenuItems(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.MenuItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	lines := make([]pricing.CartLine, 0, len(wanted))
	for _, req := range wanted {
		item, ok := byID[req.MenuItemID]
		if !ok {
			return nil, apperrors.NewValidation("items", fmt.Sprintf("item %s is not available from this merchant", req.MenuItemID))
		}
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return nil, fmt.Errorf("bad price on menu item %s: %w", item.ID, err)
		}
		disc, err := decimal.NewFromString(item.DiscountPercentage)
		if err != nil {
			return nil, fmt.Errorf("bad discount on menu item %s: %w", item.ID, err)
		}
		lines = append(lines, pricing.CartLine{
			MenuItemID:         item.ID,
			Name:               item.Name,
			UnitPrice:          price,
			DiscountPercentage: disc,
			Quantity:           req.Quantity,
		})
	}
	return lines, nil
}
