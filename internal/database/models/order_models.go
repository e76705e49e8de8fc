package models

import "time"

// Order is a fully computed pricing snapshot plus lifecycle state. Amounts are
// derived, recomputed-on-write values; the items are immutable once created so
// later catalog edits never alter a placed order.
type Order struct {
	ID          string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderNumber string  `gorm:"type:varchar(32);uniqueIndex;not null"`
	CustomerID  *string `gorm:"type:uuid;index"` // null for walk-in orders
	MerchantID  string  `gorm:"type:uuid;index;not null"`
	DriverID    *string `gorm:"type:uuid;index"`
	Status      string  `gorm:"type:varchar(16);index;not null;default:'pending'"`

	Subtotal          string `gorm:"type:varchar(32);not null"`
	ItemDiscountTotal string `gorm:"type:varchar(32);not null;default:'0'"`
	ManualDiscount    string `gorm:"type:varchar(32);not null;default:'0'"`
	PromoDiscount     string `gorm:"type:varchar(32);not null;default:'0'"`
	DeliveryFee       string `gorm:"type:varchar(32);not null;default:'0'"`
	Tax               string `gorm:"type:varchar(32);not null;default:'0'"`
	ExtraCharges      string `gorm:"type:varchar(32);not null;default:'0'"`
	TotalAmount       string `gorm:"type:varchar(32);not null"`

	PaymentMethod string `gorm:"type:varchar(32);not null;default:'cod'"`
	PaymentStatus string `gorm:"type:varchar(16);not null;default:'pending'"`

	DeliveryAddress string  `gorm:"type:text"`
	DeliveryLat     float64
	DeliveryLng     float64
	DistanceKm      float64

	PromoCodeID        *string `gorm:"type:uuid"`
	PromoCodeApplied   *string `gorm:"type:varchar(64)"`
	SpecialInstruction *string `gorm:"type:text"`

	PreparationMinutes    *int
	EstimatedDeliveryTime *time.Time
	ActualDeliveryTime    *time.Time

	CancellationReason *string `gorm:"type:text"`
	CancelledBy        *string `gorm:"type:varchar(16)"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Items    []OrderItem `gorm:"foreignKey:OrderID"`
	Merchant *Merchant   `gorm:"foreignKey:MerchantID"`
}

// OrderItem is a snapshot line: price and markdown are copied at order time.
type OrderItem struct {
	ID                 int64  `gorm:"primaryKey;autoIncrement"`
	OrderID            string `gorm:"type:uuid;index;not null"`
	MenuItemID         string `gorm:"type:uuid;not null"`
	Name               string `gorm:"type:varchar(128);not null"`
	Quantity           int    `gorm:"not null"`
	UnitPrice          string `gorm:"type:varchar(32);not null"`
	DiscountPercentage string `gorm:"type:varchar(32);not null;default:'0'"`
	LineTotal          string `gorm:"type:varchar(32);not null"`
	BxgyFreeUnits      int    `gorm:"not null;default:0"`
	CreatedAt          time.Time
}
