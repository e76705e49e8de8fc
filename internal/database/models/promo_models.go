package models

import "time"

// PromoCode rows keep the deal configuration in DealJSON exactly as the
// merchant tooling writes it; the promotions service translates it into the
// canonical promo types at the storage boundary.
type PromoCode struct {
	ID                string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code              string  `gorm:"type:varchar(64);uniqueIndex"`
	Description       *string `gorm:"type:text"`
	Scope             string  `gorm:"type:varchar(16);not null;default:'merchant'"`
	MerchantID        *string `gorm:"type:uuid;index"`
	DealType          string  `gorm:"type:varchar(16);not null;default:'cart_discount'"`
	DiscountType      string  `gorm:"type:varchar(16);not null;default:'percentage'"`
	DiscountValue     string  `gorm:"type:varchar(32);not null;default:'0'"`
	MinOrderAmount    string  `gorm:"type:varchar(32);not null;default:'0'"`
	MaxDiscountAmount string  `gorm:"type:varchar(32);not null;default:'0'"`
	UsageLimit        int     `gorm:"not null;default:0"`
	UsedCount         int     `gorm:"not null;default:0"`
	MaxUsesPerUser    int     `gorm:"not null;default:0"`
	ValidFrom         *time.Time
	ValidUntil        *time.Time
	ValidDays         StringArray `gorm:"type:text"`
	StartTime         *string     `gorm:"type:varchar(8)"`
	EndTime           *string     `gorm:"type:varchar(8)"`
	AutoApply         bool        `gorm:"not null;default:false"`
	Priority          int         `gorm:"not null;default:0"`
	IsActive          bool        `gorm:"not null;default:true"`
	DealJSON          *string     `gorm:"type:text"`
	TargetItemIDs     StringArray `gorm:"type:text"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Merchant *Merchant `gorm:"foreignKey:MerchantID"`
}

// PromoUsage holds one row per promo and user. The unique index is what lets
// the per-user cap be enforced as a single conditional upsert instead of a
// racy check-then-create.
type PromoUsage struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	PromoCodeID string    `gorm:"type:uuid;uniqueIndex:idx_promo_user,priority:1;not null"`
	UserID      string    `gorm:"type:uuid;uniqueIndex:idx_promo_user,priority:2;not null"`
	OrderID     *string   `gorm:"type:uuid"`
	Discount    string    `gorm:"type:varchar(32);not null;default:'0'"`
	UsageCount  int       `gorm:"not null;default:0"`
	LastUsedAt  time.Time `gorm:"not null"`
	CreatedAt   time.Time

	PromoCode *PromoCode `gorm:"foreignKey:PromoCodeID"`
}
