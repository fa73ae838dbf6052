package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateMetadata carries provenance for a fetched exchange rate.
type RateMetadata struct {
	Source          string    `json:"source"`
	Timestamp       time.Time `json:"timestamp"`
	ResponseTimeMs  float64   `json:"response_time_ms"`
	SameCurrency    bool      `json:"same_currency,omitempty"`
	FromCache       bool      `json:"from_cache,omitempty"`
	CacheAgeSeconds float64   `json:"cache_age_seconds,omitempty"`
	Derived         string    `json:"derived,omitempty"` // "inverse" or "cross" when not a direct quote
}

// ExchangeRate is one quoted pair. A newer fetch supersedes it in the
// aggregator cache; the struct itself is never mutated.
type ExchangeRate struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Rate     decimal.Decimal `json:"rate"`
	Metadata RateMetadata    `json:"metadata"`
}
