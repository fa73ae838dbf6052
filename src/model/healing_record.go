package model

import "time"

// HealingRecord is the audit row persisted for every completed healing
// attempt. The full per-stage outcome lives in the service layer; this row
// keeps what is worth querying later.
type HealingRecord struct {
	ID uint `gorm:"primaryKey" json:"id"`

	HealingID     string `gorm:"size:64;uniqueIndex" json:"healing_id"`
	CalculationID string `gorm:"size:64;index" json:"calculation_id,omitempty"`
	ErrorMessage  string `gorm:"type:text" json:"error_message"`
	Patterns      string `gorm:"type:text" json:"patterns"` // comma-separated matched pattern ids
	Success       bool   `gorm:"index" json:"success"`
	AutoFixed     bool   `json:"auto_fixed"`

	Recommendation string    `gorm:"type:text" json:"recommendation,omitempty"`
	ElapsedMs      float64   `json:"elapsed_ms"`
	CreatedAt      time.Time `json:"created_at"`
}
