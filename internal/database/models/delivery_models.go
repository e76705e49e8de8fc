package models

import "time"

// DeliveryFeeSchedule holds one merchant's weekly fee configuration. The
// weekly map and date overrides are stored as JSON text and translated by the
// delivery service.
type DeliveryFeeSchedule struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	MerchantID      string `gorm:"type:uuid;uniqueIndex;not null"`
	Timezone        string `gorm:"type:varchar(64);not null;default:'Asia/Kolkata'"`
	WeeklyJSON      string `gorm:"type:text;not null;default:'{}'"`
	OverridesJSON   string `gorm:"type:text;not null;default:'{}'"`
	BaseRadiusKm    string `gorm:"type:varchar(32);not null;default:'3'"`
	PerKmBeyondBase string `gorm:"type:varchar(32);not null;default:'15'"`
	ShowToCustomer  bool   `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Merchant *Merchant `gorm:"foreignKey:MerchantID"`
}

type Driver struct {
	ID          string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string `gorm:"type:varchar(128);not null"`
	Phone       string `gorm:"type:varchar(32)"`
	IsActive    bool   `gorm:"not null;default:false"`
	IsAvailable bool   `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DeliveryAssignment is one driver's pending offer for one order. A broadcast
// creates a row per notified driver; the first accept supersedes the rest.
type DeliveryAssignment struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	OrderID   string `gorm:"type:uuid;index;not null"`
	DriverID  string `gorm:"type:uuid;index;not null"`
	Status    string `gorm:"type:varchar(16);not null;default:'pending'"` // pending | accepted | superseded
	CreatedAt time.Time
	UpdatedAt time.Time

	Order  *Order  `gorm:"foreignKey:OrderID"`
	Driver *Driver `gorm:"foreignKey:DriverID"`
}

const (
	AssignmentPending    = "pending"
	AssignmentAccepted   = "accepted"
	AssignmentSuperseded = "superseded"
)
