package model

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a product owned by a user, carrying the cost and
// market attributes the pricing strategies work from.
type Product struct {
	ID              uint           `json:"id" gorm:"primarykey"`
	Name            string         `json:"name" gorm:"type:varchar(255);not null"`
	Description     string         `json:"description" gorm:"type:text"`
	CompetitorPrice float64        `json:"competitor_price" gorm:"not null"`
	ProductionCost  float64        `json:"production_cost" gorm:"not null"`
	DesiredMargin   float64        `json:"desired_margin"`
	Category        string         `json:"category" gorm:"type:varchar(100)"`
	Type            string         `json:"type" gorm:"type:varchar(100)"`
	Stock           int            `json:"stock" gorm:"default:0"`
	LaunchDate      *time.Time     `json:"launch_date,omitempty"`
	UserID          uint           `json:"user_id" gorm:"index;not null"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
