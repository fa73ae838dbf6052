package service

import (
	"time"

	"precisioncalc/src/healing"
	"precisioncalc/src/model"
	"precisioncalc/src/rates"
)

// Request is one calculation to perform. Operands are decimal-literal
// strings; native floats would lose precision at the boundary.
type Request struct {
	Operation    string `json:"operation"`
	Operand1     string `json:"operand1"`
	Operand2     string `json:"operand2,omitempty"`
	CurrencyFrom string `json:"currency_from,omitempty"`
	CurrencyTo   string `json:"currency_to,omitempty"`
}

// OutcomeError describes the failure inside an unsuccessful outcome.
type OutcomeError struct {
	Message  string                `json:"message"`
	Type     string                `json:"type"`
	Category healing.ErrorCategory `json:"category,omitempty"`
}

// Outcome is what every Calculate call returns. A raw fault never escapes:
// failures carry the healing result and, when a correction made a retry
// possible, the retried result.
type Outcome struct {
	Success       bool                       `json:"success"`
	Result        string                     `json:"result,omitempty"`
	Metadata      *model.CalculationMetadata `json:"metadata,omitempty"`
	Error         *OutcomeError              `json:"error,omitempty"`
	Healing       *healing.Result            `json:"healing_result,omitempty"`
	RetriedResult string                     `json:"retried_result,omitempty"`
}

// Metrics is the service's self-report.
type Metrics struct {
	CalculationsPerformed int64          `json:"calculations_performed"`
	ErrorsEncountered     int64          `json:"errors_encountered"`
	SuccessRate           float64        `json:"success_rate"`
	UptimeSeconds         float64        `json:"uptime_seconds"`
	StartedAt             time.Time      `json:"started_at"`
	Rates                 rates.Stats    `json:"rates"`
	Healing               healing.Status `json:"healing"`
}
