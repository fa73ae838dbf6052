package healing

// Test index:
//  1. TestMitigateNetworkBackoffThenFallback walks the retry counter to the fallback.
//  2. TestMitigateNetworkCancelled aborts the backoff on ctx cancellation.
//  3. TestMitigateCalculationSuggestsOnly returns a suggestion without applying it.
//  4. TestMitigateCacheUsesMemoryFallback flags fallbackUsed.
//  5. TestMitigateStopsAtFirstSuccess only runs strategies until one succeeds.
//  6. TestResetRetriesRestartsBackoff clears one endpoint without touching others.

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noSleep() func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	}
}

func testPattern(id string, category ErrorCategory, regex string) Pattern {
	return Pattern{
		PatternID:    id,
		RegexPattern: regex,
		Category:     category,
		Severity:     SeverityMedium,
	}
}

// TestMitigateNetworkBackoffThenFallback walks the retry counter to the fallback.
func TestMitigateNetworkBackoffThenFallback(t *testing.T) {
	mitigator := NewMitigator()

	var delays []time.Duration
	mitigator.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	pattern := testPattern("network_timeout", CategoryNetwork, "(timeout)")
	mctx := Context{Endpoint: "exchangerate-api"}

	for attempt := 1; attempt <= maxNetworkRetries; attempt++ {
		result := mitigator.Mitigate(context.Background(), []Pattern{pattern}, mctx)
		if !result.Success {
			t.Fatalf("attempt %d: expected success", attempt)
		}
		if result.FallbackUsed {
			t.Fatalf("attempt %d: fallback should not be used yet", attempt)
		}
		if result.StrategiesApplied[0].Strategy != "exponential_backoff_retry" {
			t.Fatalf("attempt %d: unexpected strategy %s", attempt, result.StrategiesApplied[0].Strategy)
		}
	}

	expected := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(delays) != len(expected) {
		t.Fatalf("expected %d backoff delays, got %d", len(expected), len(delays))
	}
	for i, d := range expected {
		if delays[i] != d {
			t.Fatalf("delay %d: expected %v, got %v", i, d, delays[i])
		}
	}

	// Fourth failure on the same endpoint switches to the fallback.
	result := mitigator.Mitigate(context.Background(), []Pattern{pattern}, mctx)
	if !result.Success || !result.FallbackUsed {
		t.Fatalf("expected fallback after %d retries, got %+v", maxNetworkRetries, result)
	}

	// A different endpoint starts its own counter.
	other := mitigator.Mitigate(context.Background(), []Pattern{pattern}, Context{Endpoint: "coingecko"})
	if other.FallbackUsed {
		t.Fatalf("fresh endpoint should retry, not fall back")
	}
}

// TestResetRetriesRestartsBackoff clears one endpoint's counter without
// touching others.
func TestResetRetriesRestartsBackoff(t *testing.T) {
	mitigator := NewMitigator()

	var delays []time.Duration
	mitigator.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	pattern := testPattern("network_timeout", CategoryNetwork, "(timeout)")
	usdEur := Context{Endpoint: "USD_EUR"}
	usdJpy := Context{Endpoint: "USD_JPY"}

	for attempt := 1; attempt <= maxNetworkRetries+1; attempt++ {
		mitigator.Mitigate(context.Background(), []Pattern{pattern}, usdEur)
		mitigator.Mitigate(context.Background(), []Pattern{pattern}, usdJpy)
	}

	result := mitigator.Mitigate(context.Background(), []Pattern{pattern}, usdEur)
	if !result.FallbackUsed {
		t.Fatalf("expected fallback on the exhausted endpoint, got %+v", result)
	}

	mitigator.ResetRetries("USD_EUR")

	result = mitigator.Mitigate(context.Background(), []Pattern{pattern}, usdEur)
	if result.FallbackUsed {
		t.Fatalf("reset endpoint should back off again, got %+v", result)
	}
	if result.StrategiesApplied[0].Strategy != "exponential_backoff_retry" {
		t.Fatalf("expected a fresh backoff retry, got %s", result.StrategiesApplied[0].Strategy)
	}
	if got := delays[len(delays)-1]; got != 2*time.Second {
		t.Fatalf("expected the first-attempt delay after reset, got %v", got)
	}

	// The other endpoint's counter is untouched and still falls back.
	result = mitigator.Mitigate(context.Background(), []Pattern{pattern}, usdJpy)
	if !result.FallbackUsed {
		t.Fatalf("expected the untouched endpoint to keep falling back, got %+v", result)
	}
}

// TestMitigateNetworkCancelled aborts the backoff on ctx cancellation.
func TestMitigateNetworkCancelled(t *testing.T) {
	mitigator := NewMitigator()
	mitigator.sleep = noSleep()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pattern := testPattern("network_timeout", CategoryNetwork, "(timeout)")
	result := mitigator.Mitigate(ctx, []Pattern{pattern}, Context{Endpoint: "rates"})

	if result.Success {
		t.Fatalf("cancelled mitigation must not report success")
	}
	if len(result.StrategiesApplied) != 1 || result.StrategiesApplied[0].Reason == "" {
		t.Fatalf("expected recorded cancellation reason, got %+v", result.StrategiesApplied)
	}
}

// TestMitigateCalculationSuggestsOnly returns a suggestion without applying it.
func TestMitigateCalculationSuggestsOnly(t *testing.T) {
	mitigator := NewMitigator()

	pattern := testPattern("div_by_zero", CategoryCalculation, "(division by zero|divide by zero)")
	result := mitigator.Mitigate(context.Background(), []Pattern{pattern}, Context{Operand2: "0"})

	if !result.Success {
		t.Fatalf("expected success")
	}
	applied := result.StrategiesApplied[0]
	if applied.Strategy != "epsilon_replacement" {
		t.Fatalf("expected epsilon_replacement, got %s", applied.Strategy)
	}
	if applied.AutoFix == "" {
		t.Fatalf("expected an auto-fix suggestion, got none")
	}

	// Calculation patterns without a recognized shape report no mitigation.
	generic := testPattern("auto_x_5", CategoryCalculation, "whatever")
	result = mitigator.Mitigate(context.Background(), []Pattern{generic}, Context{})
	if result.Success {
		t.Fatalf("expected no mitigation for unrecognized calculation pattern")
	}
}

// TestMitigateCacheUsesMemoryFallback flags fallbackUsed.
func TestMitigateCacheUsesMemoryFallback(t *testing.T) {
	mitigator := NewMitigator()

	pattern := testPattern("cache_connection", CategoryCache, "(cache)")
	result := mitigator.Mitigate(context.Background(), []Pattern{pattern}, Context{})

	if !result.Success || !result.FallbackUsed {
		t.Fatalf("expected memory fallback, got %+v", result)
	}
}

// TestMitigateStopsAtFirstSuccess only runs strategies until one succeeds.
func TestMitigateStopsAtFirstSuccess(t *testing.T) {
	mitigator := NewMitigator()
	mitigator.sleep = func(ctx context.Context, d time.Duration) error {
		return errors.New("sleep should not be reached")
	}

	patterns := []Pattern{
		testPattern("invalid_decimal", CategoryValidation, "(invalid)"),
		testPattern("network_timeout", CategoryNetwork, "(timeout)"),
	}

	result := mitigator.Mitigate(context.Background(), patterns, Context{})
	if !result.Success {
		t.Fatalf("expected success")
	}
	if len(result.StrategiesApplied) != 1 {
		t.Fatalf("expected a single strategy run, got %d", len(result.StrategiesApplied))
	}
}
