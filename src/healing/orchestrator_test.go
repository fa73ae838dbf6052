package healing

// Test index:
//  1. TestHealDivisionByZero walks the full pipeline to an applied auto-fix.
//  2. TestHealStageCompleteness returns all stage outcomes on a failed healing.
//  3. TestHealLearningAdjustsRates raises and lowers pattern success rates.
//  4. TestHealWhenDisabled short-circuits without running stages.
//  5. TestHealHistoryBounded keeps the history at its limit.
//  6. TestStatusReport aggregates counters and recent activity.

import (
	"context"
	"errors"
	"testing"
	"time"

	"precisioncalc/src/precision"
)

func testOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(seededRegistry(t))
	o.mitigator.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	o.processor.snapshotEnv = func() EnvironmentState {
		return EnvironmentState{Timestamp: time.Now().UTC()}
	}
	return o
}

// TestHealDivisionByZero walks the full pipeline to an applied auto-fix.
func TestHealDivisionByZero(t *testing.T) {
	o := testOrchestrator(t)

	engine := precision.NewEngine(precision.DefaultPrecision)
	_, calcErr := engine.Calculate("divide", "10", "0")

	result := o.Heal(context.Background(), calcErr, Context{
		Operation: "divide",
		Operand1:  "10",
		Operand2:  "0",
	})

	if !result.Success {
		t.Fatalf("expected healing success, got %+v", result)
	}
	if !result.AutoFixApplied {
		t.Fatalf("expected auto-fix applied")
	}
	if result.Stages.Detection.PatternsFound != 1 || result.Stages.Detection.Patterns[0] != "div_by_zero" {
		t.Fatalf("unexpected detection: %+v", result.Stages.Detection)
	}
	if result.Stages.Correction.CorrectedData.Operand2 != Epsilon {
		t.Fatalf("expected epsilon substitution, got %+v", result.Stages.Correction.CorrectedData)
	}
	if result.FinalRecommendation.Action != "auto_fix_applied" {
		t.Fatalf("unexpected recommendation: %+v", result.FinalRecommendation)
	}
	if result.HealingID == "" {
		t.Fatalf("expected a healing id")
	}

	stats := o.Stats()
	if stats.TotalErrorsProcessed != 1 || stats.SuccessfulHealings != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

// TestHealStageCompleteness returns all stage outcomes on a failed healing.
func TestHealStageCompleteness(t *testing.T) {
	o := testOrchestrator(t)

	// A synthesized system pattern has no mitigation strategy and no auto-fix,
	// so every stage runs and the healing still fails.
	result := o.Heal(context.Background(), errors.New("mystery failure"), Context{Component: "engine"})

	if result.Success {
		t.Fatalf("expected failed healing")
	}
	if result.Stages.Detection.PatternsFound != 1 {
		t.Fatalf("expected synthesized pattern, got %+v", result.Stages.Detection)
	}
	if result.Stages.Processing.ErrorID == "" {
		t.Fatalf("processing stage must still run")
	}
	if result.FinalRecommendation.Action != "manual_intervention_required" {
		t.Fatalf("unexpected recommendation: %+v", result.FinalRecommendation)
	}

	stats := o.Stats()
	if stats.FailedHealings != 1 {
		t.Fatalf("expected one failed healing, got %+v", stats)
	}
}

// TestHealLearningAdjustsRates raises and lowers pattern success rates.
func TestHealLearningAdjustsRates(t *testing.T) {
	o := testOrchestrator(t)

	engine := precision.NewEngine(precision.DefaultPrecision)
	_, calcErr := engine.Calculate("divide", "10", "0")

	o.Heal(context.Background(), calcErr, Context{Operand2: "0"})
	p, _ := o.registry.Get("div_by_zero")
	if p.SuccessRate <= 0 {
		t.Fatalf("expected success rate raised after auto-fix, got %f", p.SuccessRate)
	}

	// A failed healing of an unknown system error lowers the learned pattern.
	mystery := errors.New("mystery failure")
	o.Heal(context.Background(), mystery, Context{})
	o.Heal(context.Background(), mystery, Context{})
	patterns := o.registry.Patterns()
	learned := patterns[len(patterns)-1]
	if learned.SuccessRate != 0.1 {
		t.Fatalf("expected failed pattern clamped to 0.1, got %f", learned.SuccessRate)
	}
}

// TestHealWhenDisabled short-circuits without running stages.
func TestHealWhenDisabled(t *testing.T) {
	o := testOrchestrator(t)
	o.SetActive(false)

	result := o.Heal(context.Background(), errors.New("division by zero"), Context{})
	if result.Success {
		t.Fatalf("disabled pipeline must not succeed")
	}
	if result.FinalRecommendation.Action != "healing_disabled" {
		t.Fatalf("unexpected recommendation: %+v", result.FinalRecommendation)
	}
	if result.Stages.Detection.PatternsFound != 0 {
		t.Fatalf("stages must not run while disabled")
	}
	if o.Stats().TotalErrorsProcessed != 0 {
		t.Fatalf("disabled healings must not count")
	}
}

// TestHealHistoryBounded keeps the history at its limit.
func TestHealHistoryBounded(t *testing.T) {
	o := testOrchestrator(t)

	for i := 0; i < historyLimit+25; i++ {
		o.Heal(context.Background(), errors.New("division by zero"), Context{Operand2: "0"})
	}

	o.mu.Lock()
	n := len(o.history)
	o.mu.Unlock()
	if n != historyLimit {
		t.Fatalf("expected history of %d, got %d", historyLimit, n)
	}
}

// TestStatusReport aggregates counters and recent activity.
func TestStatusReport(t *testing.T) {
	o := testOrchestrator(t)

	for i := 0; i < 12; i++ {
		o.Heal(context.Background(), errors.New("division by zero"), Context{Operand2: "0"})
	}

	status := o.Status()
	if !status.Active {
		t.Fatalf("expected active pipeline")
	}
	if status.Statistics.TotalErrorsProcessed != 12 {
		t.Fatalf("expected 12 processed, got %d", status.Statistics.TotalErrorsProcessed)
	}
	if len(status.RecentActivity) != 10 {
		t.Fatalf("expected 10 recent entries, got %d", len(status.RecentActivity))
	}
	if status.PatternsLearned != 5 {
		t.Fatalf("expected 5 patterns, got %d", status.PatternsLearned)
	}
	if status.AutoFixSuccessRate != 1.0 {
		t.Fatalf("expected perfect auto-fix rate, got %f", status.AutoFixSuccessRate)
	}
	if status.Components["corrector"] != "active" {
		t.Fatalf("expected component report, got %+v", status.Components)
	}
}
