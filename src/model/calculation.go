package model

import "time"

// CalculationRecord is the audit row persisted for every calculation that
// goes through the service, successful or not.
type CalculationRecord struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CalculationID string `gorm:"size:64;uniqueIndex" json:"calculation_id"`
	Operation     string `gorm:"size:20;index" json:"operation"`
	Operand1      string `gorm:"size:128" json:"operand1"`
	Operand2      string `gorm:"size:128" json:"operand2,omitempty"`
	CurrencyFrom  string `gorm:"size:6;index" json:"currency_from"`
	CurrencyTo    string `gorm:"size:6;index" json:"currency_to"`

	Result       string `gorm:"type:text" json:"result,omitempty"`
	Success      bool   `gorm:"index" json:"success"`
	ErrorMessage string `gorm:"type:text" json:"error_message,omitempty"`
	HealingID    string `gorm:"size:64" json:"healing_id,omitempty"`

	ExecutionTimeMs float64   `json:"execution_time_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// CalculationMetadata mirrors what the calculation produced, returned to
// the caller alongside the result string.
type CalculationMetadata struct {
	CalculationID   string        `json:"calculation_id"`
	Operation       string        `json:"operation"`
	Operand1        string        `json:"operand1"`
	Operand2        string        `json:"operand2,omitempty"`
	CurrencyFrom    string        `json:"currency_from"`
	CurrencyTo      string        `json:"currency_to"`
	ExchangeRate    string        `json:"exchange_rate,omitempty"`
	RateMetadata    *RateMetadata `json:"rate_metadata,omitempty"`
	PrecisionUsed   int32         `json:"precision_used"`
	Timestamp       time.Time     `json:"timestamp"`
	ExecutionTimeMs float64       `json:"execution_time_ms"`
}
