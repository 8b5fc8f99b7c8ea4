package model

import "time"

// OptimalPriceResult records one optimal price computation for a product.
// Rows are immutable: they are inserted once and only ever removed when
// the owning user account is deleted.
type OptimalPriceResult struct {
	ID               uint      `json:"id" gorm:"primarykey"`
	ProductID        uint      `json:"product_id" gorm:"index;not null"`
	ProductName      string    `json:"product_name" gorm:"type:varchar(255)"`
	CompetitorPrice  float64   `json:"competitor_price"`
	OptimalPrice     float64   `json:"optimal_price"`
	PotentialRevenue float64   `json:"potential_revenue"`
	Margin           float64   `json:"margin"`
	UserID           uint      `json:"user_id" gorm:"index;not null"`
	CalculatedAt     time.Time `json:"calculated_at" gorm:"autoCreateTime"`
}

// TarificationResult records one tarification strategy computation.
// Same immutability rules as OptimalPriceResult, with the elapsed time
// since product launch captured at computation.
type TarificationResult struct {
	ID                uint      `json:"id" gorm:"primarykey"`
	ProductID         uint      `json:"product_id" gorm:"index;not null"`
	ProductName       string    `json:"product_name" gorm:"type:varchar(255)"`
	CompetitorPrice   float64   `json:"competitor_price"`
	TarificationPrice float64   `json:"tarification_price"`
	PotentialRevenue  float64   `json:"potential_revenue"`
	Margin            float64   `json:"margin"`
	UserID            uint      `json:"user_id" gorm:"index;not null"`
	TimeInMonths      float64   `json:"time_in_months"`
	CalculatedAt      time.Time `json:"calculated_at" gorm:"autoCreateTime"`
}
