package healing

// ErrorCategory buckets a failure for strategy dispatch.
type ErrorCategory string

const (
	CategoryCalculation ErrorCategory = "calculation"
	CategoryValidation  ErrorCategory = "validation"
	CategoryNetwork     ErrorCategory = "network"
	CategorySystem      ErrorCategory = "system"
	CategoryDatabase    ErrorCategory = "database"
	CategoryCache       ErrorCategory = "cache"
	CategoryCurrency    ErrorCategory = "currency"
	CategoryPrecision   ErrorCategory = "precision"
)

// Severity orders failures for impact scoring.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// impactWeight maps a severity to its impact-score contribution.
func impactWeight(s Severity) int {
	switch s {
	case SeverityCritical:
		return 10
	case SeverityHigh:
		return 5
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// severityRank orders severities so the worst match can be reported.
func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}
