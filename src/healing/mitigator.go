package healing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"
)

const maxNetworkRetries = 3

// AppliedStrategy records one mitigation strategy run for one pattern.
type AppliedStrategy struct {
	Pattern    string `json:"pattern"`
	Strategy   string `json:"strategy"`
	Suggestion string `json:"suggestion,omitempty"`
	AutoFix    string `json:"auto_fix,omitempty"`
	Success    bool   `json:"success"`
	Reason     string `json:"reason,omitempty"`
}

// MitigationResult is the outcome of the mitigation stage.
type MitigationResult struct {
	StrategiesApplied []AppliedStrategy `json:"strategies_applied"`
	Success           bool              `json:"success"`
	FallbackUsed      bool              `json:"fallback_used"`
}

// Mitigator dispatches per-category containment strategies. Network failures
// get a real, ctx-cancellable exponential backoff; storage failures switch to
// in-process fallbacks; calculation failures only suggest a transformation,
// the corrector applies it.
type Mitigator struct {
	mu          sync.Mutex
	retryCounts map[string]int

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewMitigator() *Mitigator {
	return &Mitigator{
		retryCounts: make(map[string]int),
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Mitigate runs the strategy for each matched pattern's category, stopping at
// the first success.
func (m *Mitigator) Mitigate(ctx context.Context, patterns []Pattern, mctx Context) MitigationResult {
	var result MitigationResult

	for _, pattern := range patterns {
		applied, err := m.dispatch(ctx, pattern, mctx)
		if err != nil {
			logger.WithError(err).WithField("pattern", pattern.PatternID).Error("mitigation strategy aborted")
			applied.Success = false
			applied.Reason = err.Error()
		}

		result.StrategiesApplied = append(result.StrategiesApplied, applied)

		if applied.Strategy == "fallback_mechanism" || applied.Strategy == "memory_fallback" {
			result.FallbackUsed = true
		}
		if applied.Success {
			result.Success = true
			break
		}
	}

	return result
}

func (m *Mitigator) dispatch(ctx context.Context, pattern Pattern, mctx Context) (AppliedStrategy, error) {
	switch pattern.Category {
	case CategoryCalculation:
		return m.mitigateCalculation(pattern), nil
	case CategoryValidation:
		return m.mitigateValidation(pattern), nil
	case CategoryNetwork:
		return m.mitigateNetwork(ctx, pattern, mctx)
	case CategoryCache:
		return m.mitigateCache(pattern), nil
	case CategoryDatabase:
		return m.mitigateDatabase(pattern), nil
	case CategoryPrecision:
		return m.mitigatePrecision(pattern), nil
	default:
		return AppliedStrategy{
			Pattern: pattern.PatternID,
			Reason:  "no mitigation strategy for category " + string(pattern.Category),
		}, nil
	}
}

func (m *Mitigator) mitigateCalculation(pattern Pattern) AppliedStrategy {
	lower := strings.ToLower(pattern.RegexPattern)

	if strings.Contains(lower, "division by zero") {
		return AppliedStrategy{
			Pattern:    pattern.PatternID,
			Strategy:   "epsilon_replacement",
			Suggestion: "Replace zero with small epsilon value",
			AutoFix:    "substitute divisor 1e-60 when operand2 is zero",
			Success:    true,
		}
	}
	if strings.Contains(lower, "overflow") {
		return AppliedStrategy{
			Pattern:    pattern.PatternID,
			Strategy:   "precision_adjustment",
			Suggestion: "Reduce precision or break into smaller calculations",
			Success:    true,
		}
	}

	return AppliedStrategy{
		Pattern: pattern.PatternID,
		Reason:  "no specific mitigation available",
	}
}

func (m *Mitigator) mitigateValidation(pattern Pattern) AppliedStrategy {
	return AppliedStrategy{
		Pattern:    pattern.PatternID,
		Strategy:   "input_sanitization",
		Suggestion: "Apply input cleaning and validation",
		AutoFix:    "strip whitespace, validate format, convert to proper decimal",
		Success:    true,
	}
}

func (m *Mitigator) mitigateNetwork(ctx context.Context, pattern Pattern, mctx Context) (AppliedStrategy, error) {
	key := mctx.endpointKey()

	m.mu.Lock()
	m.retryCounts[key]++
	attempt := m.retryCounts[key]
	if attempt > maxNetworkRetries {
		m.mu.Unlock()
		return AppliedStrategy{
			Pattern:    pattern.PatternID,
			Strategy:   "fallback_mechanism",
			Suggestion: "Use cached data or alternative endpoint",
			Success:    true,
		}, nil
	}
	m.mu.Unlock()

	delay := time.Duration(1<<uint(attempt)) * time.Second
	if err := m.sleep(ctx, delay); err != nil {
		return AppliedStrategy{Pattern: pattern.PatternID, Strategy: "exponential_backoff_retry"}, err
	}

	return AppliedStrategy{
		Pattern:    pattern.PatternID,
		Strategy:   "exponential_backoff_retry",
		Suggestion: fmt.Sprintf("Retry %d/%d with backoff", attempt, maxNetworkRetries),
		Success:    true,
	}, nil
}

func (m *Mitigator) mitigateCache(pattern Pattern) AppliedStrategy {
	return AppliedStrategy{
		Pattern:    pattern.PatternID,
		Strategy:   "memory_fallback",
		Suggestion: "Use in-memory cache as fallback",
		Success:    true,
	}
}

func (m *Mitigator) mitigateDatabase(pattern Pattern) AppliedStrategy {
	return AppliedStrategy{
		Pattern:    pattern.PatternID,
		Strategy:   "connection_pool_refresh",
		Suggestion: "Refresh connection pool and retry",
		AutoFix:    "recreate database connection",
		Success:    true,
	}
}

func (m *Mitigator) mitigatePrecision(pattern Pattern) AppliedStrategy {
	return AppliedStrategy{
		Pattern:    pattern.PatternID,
		Strategy:   "adaptive_precision",
		Suggestion: "Dynamically adjust precision based on operand size",
		Success:    true,
	}
}

// ResetRetries clears the per-endpoint retry counter, typically after a
// successful request to that endpoint.
func (m *Mitigator) ResetRetries(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.retryCounts, endpoint)
}
