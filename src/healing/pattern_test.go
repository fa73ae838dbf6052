package healing

// Test index:
//  1. TestSeedInstallsDefaultPatterns verifies the five default patterns load.
//  2. TestDetectMatchesSeededPattern checks matching plus occurrence updates.
//  3. TestDetectSynthesizesPattern covers the keyword heuristics for new patterns.
//  4. TestDetectSynthesizedPatternMatchesRecurrence ensures learned patterns stick.
//  5. TestAdjustSuccessRate verifies the multiplicative clamp.
//  6. TestRecentErrorsBounded keeps the rolling window at its limit.

import (
	"errors"
	"fmt"
	"testing"

	"precisioncalc/src/precision"
)

func seededRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry()
	if err := registry.Seed(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return registry
}

// TestSeedInstallsDefaultPatterns verifies the five default patterns load.
func TestSeedInstallsDefaultPatterns(t *testing.T) {
	registry := seededRegistry(t)

	patterns := registry.Patterns()
	if len(patterns) != 5 {
		t.Fatalf("expected 5 seeded patterns, got %d", len(patterns))
	}

	expected := []string{"div_by_zero", "invalid_decimal", "overflow", "network_timeout", "cache_connection"}
	for i, id := range expected {
		if patterns[i].PatternID != id {
			t.Fatalf("pattern %d: expected %s, got %s", i, id, patterns[i].PatternID)
		}
	}

	if err := registry.Seed(); err == nil {
		t.Fatalf("expected duplicate seed to fail")
	}
}

// TestDetectMatchesSeededPattern checks matching plus occurrence updates.
func TestDetectMatchesSeededPattern(t *testing.T) {
	registry := seededRegistry(t)

	engine := precision.NewEngine(precision.DefaultPrecision)
	_, calcErr := engine.Calculate("divide", "10", "0")
	if calcErr == nil {
		t.Fatalf("expected division error")
	}

	matched := registry.Detect(calcErr, Context{Operation: "divide", Operand1: "10", Operand2: "0"})
	if len(matched) != 1 || matched[0].PatternID != "div_by_zero" {
		t.Fatalf("expected div_by_zero match, got %+v", matched)
	}
	if matched[0].Occurrences != 1 {
		t.Fatalf("expected occurrence 1, got %d", matched[0].Occurrences)
	}

	registry.Detect(calcErr, Context{})
	p, _ := registry.Get("div_by_zero")
	if p.Occurrences != 2 {
		t.Fatalf("expected occurrence 2, got %d", p.Occurrences)
	}
	if p.LastSeen.IsZero() {
		t.Fatalf("expected last-seen to be set")
	}
}

// TestDetectSynthesizesPattern covers the keyword heuristics for new patterns.
func TestDetectSynthesizesPattern(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		category ErrorCategory
		severity Severity
		autoFix  bool
	}{
		{
			name:     "database keyword",
			err:      errors.New("sql: database is locked"),
			category: CategoryDatabase,
			severity: SeverityHigh,
			autoFix:  false,
		},
		{
			name:     "unclassified",
			err:      errors.New("something odd happened"),
			category: CategorySystem,
			severity: SeverityMedium,
			autoFix:  false,
		},
		{
			name:     "arithmetic kind",
			err:      &precision.Error{Kind: precision.KindNegativeRadicand, Op: "sqrt", Detail: "cannot take root of -4"},
			category: CategoryCalculation,
			severity: SeverityHigh,
			autoFix:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			registry := seededRegistry(t)
			matched := registry.Detect(tc.err, Context{})
			if len(matched) != 1 {
				t.Fatalf("expected one synthesized pattern, got %d", len(matched))
			}
			p := matched[0]
			if p.Category != tc.category {
				t.Fatalf("expected category %s, got %s", tc.category, p.Category)
			}
			if p.Severity != tc.severity {
				t.Fatalf("expected severity %s, got %s", tc.severity, p.Severity)
			}
			if p.AutoFixAvailable != tc.autoFix {
				t.Fatalf("expected auto-fix %v, got %v", tc.autoFix, p.AutoFixAvailable)
			}
			if p.Occurrences != 1 {
				t.Fatalf("expected occurrence 1, got %d", p.Occurrences)
			}
		})
	}
}

// TestDetectSynthesizedPatternMatchesRecurrence ensures learned patterns stick.
func TestDetectSynthesizedPatternMatchesRecurrence(t *testing.T) {
	registry := seededRegistry(t)

	odd := errors.New("something odd happened")
	first := registry.Detect(odd, Context{})
	second := registry.Detect(odd, Context{})

	if first[0].PatternID != second[0].PatternID {
		t.Fatalf("recurrence matched %s, expected %s", second[0].PatternID, first[0].PatternID)
	}
	if second[0].Occurrences != 2 {
		t.Fatalf("expected occurrence 2 on recurrence, got %d", second[0].Occurrences)
	}
	if len(registry.Patterns()) != 6 {
		t.Fatalf("expected 6 patterns after one synthesis, got %d", len(registry.Patterns()))
	}
}

// TestAdjustSuccessRate verifies the multiplicative clamp.
func TestAdjustSuccessRate(t *testing.T) {
	registry := seededRegistry(t)

	registry.AdjustSuccessRate("div_by_zero", true)
	p, _ := registry.Get("div_by_zero")
	if p.SuccessRate < 0.98 || p.SuccessRate > 1.0 {
		t.Fatalf("expected bootstrap rate near 0.99, got %f", p.SuccessRate)
	}

	for i := 0; i < 10; i++ {
		registry.AdjustSuccessRate("div_by_zero", true)
	}
	p, _ = registry.Get("div_by_zero")
	if p.SuccessRate != 1.0 {
		t.Fatalf("expected rate clamped to 1.0, got %f", p.SuccessRate)
	}

	for i := 0; i < 50; i++ {
		registry.AdjustSuccessRate("div_by_zero", false)
	}
	p, _ = registry.Get("div_by_zero")
	if p.SuccessRate != 0.1 {
		t.Fatalf("expected rate clamped to 0.1, got %f", p.SuccessRate)
	}
}

// TestRecentErrorsBounded keeps the rolling window at its limit.
func TestRecentErrorsBounded(t *testing.T) {
	registry := seededRegistry(t)

	for i := 0; i < recentErrorsLimit+50; i++ {
		registry.Detect(fmt.Errorf("timeout while fetching rate %d", i), Context{Endpoint: "rates"})
	}

	recent := registry.RecentErrors(0)
	if len(recent) != recentErrorsLimit {
		t.Fatalf("expected window of %d, got %d", recentErrorsLimit, len(recent))
	}

	last := registry.RecentErrors(1)
	expected := fmt.Sprintf("timeout while fetching rate %d", recentErrorsLimit+49)
	if last[0].Message != expected {
		t.Fatalf("expected newest entry %q, got %q", expected, last[0].Message)
	}
}
