package models

import "time"

type Merchant struct {
	ID            string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessName  string `gorm:"type:varchar(128);not null"`
	Phone         string `gorm:"type:varchar(32)"`
	Address       string `gorm:"type:text"`
	Latitude      float64
	Longitude     float64
	GstEnabled    bool   `gorm:"not null;default:false"`
	GstPercentage string `gorm:"type:varchar(32);not null;default:'0'"`
	IsActive      bool   `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	MenuItems []MenuItem `gorm:"foreignKey:MerchantID"`
}

type MenuItem struct {
	ID                 string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MerchantID         string `gorm:"type:uuid;index;not null"`
	Name               string `gorm:"type:varchar(128);not null"`
	Description        string `gorm:"type:text"`
	Price              string `gorm:"type:varchar(32);not null"`
	Category           string `gorm:"type:varchar(64);index"`
	IsVeg              bool   `gorm:"not null;default:false"`
	DiscountPercentage string `gorm:"type:varchar(32);not null;default:'0'"`
	IsAvailable        bool   `gorm:"not null;default:true"`
	ImageURL           *string `gorm:"type:varchar(512)"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Merchant *Merchant `gorm:"foreignKey:MerchantID"`
}
