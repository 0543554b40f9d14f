package models

import "github.com/google/uuid"

// Restaurant is a partner kitchen serving sub-orders. Its ID is the
// partnerId used in service-fee maps and partner payment scopes.
type Restaurant struct {
	BaseModel
	Name         string  `json:"name"`
	ContactName  string  `json:"contact_name"`
	ContactPhone string  `json:"contact_phone"`
	Address      string  `json:"address"`
	ServiceFee   float64 `json:"service_fee"`
	IsActive     bool    `gorm:"default:true" json:"is_active"`
	Foods        []Food  `gorm:"foreignKey:RestaurantID" json:"foods,omitempty"`
}

// Food is a dish on a restaurant's menu. Sub-orders carry snapshots of
// these, so later menu edits never rewrite historical pricing.
type Food struct {
	BaseModel
	RestaurantID uuid.UUID `gorm:"type:uuid;index" json:"restaurant_id"`
	Name         string    `json:"name"`
	Price        int64     `json:"price"`
	Description  string    `json:"description"`
	IsAvailable  bool      `gorm:"default:true" json:"is_available"`
}
