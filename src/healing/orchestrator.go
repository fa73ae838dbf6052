package healing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

const historyLimit = 1000

// DetectionResult is the outcome of the detection stage.
type DetectionResult struct {
	PatternsFound int      `json:"patterns_found"`
	Patterns      []string `json:"patterns"`
}

// LearningData summarizes the learning stage.
type LearningData struct {
	PatternsUpdated      int `json:"patterns_updated"`
	NewStrategiesLearned int `json:"new_strategies_learned"`
	SuccessRatesAdjusted int `json:"success_rates_adjusted"`
}

// FinalRecommendation is the single headline answer for the caller.
type FinalRecommendation struct {
	Action        string         `json:"action"`
	Description   string         `json:"description"`
	Strategy      string         `json:"strategy,omitempty"`
	Priority      string         `json:"priority,omitempty"`
	Confidence    float64        `json:"confidence"`
	CorrectedData *CorrectedData `json:"corrected_data,omitempty"`
}

// Stages collects every stage outcome. All five are present on every result,
// even when a stage failed.
type Stages struct {
	Detection  DetectionResult  `json:"detection"`
	Mitigation MitigationResult `json:"mitigation"`
	Processing ProcessingResult `json:"processing"`
	Correction CorrectionResult `json:"correction"`
	// StageFailures maps a stage name to its recovered panic, if any.
	StageFailures map[string]string `json:"stage_failures,omitempty"`
}

// Result is one complete healing attempt.
type Result struct {
	HealingID           string              `json:"healing_id"`
	Timestamp           time.Time           `json:"timestamp"`
	Success             bool                `json:"success"`
	Stages              Stages              `json:"stages"`
	LearningData        LearningData        `json:"learning_data"`
	AutoFixApplied      bool                `json:"auto_fix_applied"`
	FinalRecommendation FinalRecommendation `json:"final_recommendation"`
	HealingTimeMs       float64             `json:"healing_time_ms"`
}

// HistoryEntry is the compact per-healing record kept in the bounded history.
type HistoryEntry struct {
	HealingID      string    `json:"healing_id"`
	Timestamp      time.Time `json:"timestamp"`
	Success        bool      `json:"success"`
	ErrorType      string    `json:"error_type"`
	Patterns       []string  `json:"patterns"`
	AutoFixApplied bool      `json:"auto_fix_applied"`
}

// OrchestratorStats aggregates healing counters.
type OrchestratorStats struct {
	TotalErrorsProcessed     int64   `json:"total_errors_processed"`
	SuccessfulHealings       int64   `json:"successful_healings"`
	FailedHealings           int64   `json:"failed_healings"`
	AvgHealingTimeMs         float64 `json:"avg_healing_time_ms"`
	SelfLearningImprovements int64   `json:"self_learning_improvements"`
}

// Status is the orchestrator's self-report.
type Status struct {
	Active                 bool              `json:"active"`
	Statistics             OrchestratorStats `json:"statistics"`
	RecentActivity         []HistoryEntry    `json:"recent_activity"`
	PatternsLearned        int               `json:"patterns_learned"`
	ErrorCategoriesTracked int               `json:"error_categories_tracked"`
	AutoFixSuccessRate     float64           `json:"auto_fix_success_rate"`
	Components             map[string]string `json:"components"`
}

// Orchestrator runs the five-stage pipeline: detect, mitigate, process,
// correct, learn. Stages are strictly sequential and non-skippable; a panic
// inside one is recorded as that stage's failure and the pipeline continues.
type Orchestrator struct {
	registry  *Registry
	mitigator *Mitigator
	processor *Processor
	corrector *Corrector

	mu      sync.Mutex
	active  bool
	history []HistoryEntry
	stats   OrchestratorStats
}

func NewOrchestrator(registry *Registry) *Orchestrator {
	return &Orchestrator{
		registry:  registry,
		mitigator: NewMitigator(),
		processor: NewProcessor(),
		corrector: NewCorrector(),
		active:    true,
	}
}

// SetActive enables or disables healing. When disabled, Heal reports an
// unsuccessful result without running the pipeline.
func (o *Orchestrator) SetActive(active bool) {
	o.mu.Lock()
	o.active = active
	o.mu.Unlock()
	logger.WithField("active", active).Info("healing pipeline toggled")
}

// Registry exposes the injected pattern registry.
func (o *Orchestrator) Registry() *Registry { return o.registry }

// Mitigator exposes the mitigator, mainly for retry-counter resets.
func (o *Orchestrator) Mitigator() *Mitigator { return o.mitigator }

// Heal runs the full pipeline for one failure. It never returns an error;
// the Result carries every stage's outcome whether or not healing worked.
func (o *Orchestrator) Heal(ctx context.Context, failure error, hctx Context) *Result {
	start := time.Now()

	result := &Result{
		HealingID: uuid.NewString(),
		Timestamp: start.UTC(),
		Stages:    Stages{StageFailures: map[string]string{}},
	}

	o.mu.Lock()
	active := o.active
	o.mu.Unlock()
	if !active {
		result.FinalRecommendation = FinalRecommendation{
			Action:      "healing_disabled",
			Description: "Healing pipeline is disabled",
			Confidence:  0,
		}
		return result
	}

	var patterns []Pattern
	o.runStage(result, "detection", func() {
		patterns = o.registry.Detect(failure, hctx)
		result.Stages.Detection = DetectionResult{
			PatternsFound: len(patterns),
			Patterns:      patternIDs(patterns),
		}
	})

	o.runStage(result, "mitigation", func() {
		result.Stages.Mitigation = o.mitigator.Mitigate(ctx, patterns, hctx)
	})

	o.runStage(result, "processing", func() {
		result.Stages.Processing = o.processor.Process(failure, hctx, patterns)
	})

	o.runStage(result, "correction", func() {
		result.Stages.Correction = o.corrector.Correct(patterns, hctx)
	})

	o.runStage(result, "learning", func() {
		result.LearningData = o.learn(patterns, result.Stages.Mitigation, result.Stages.Correction)
	})

	result.Success = result.Stages.Correction.OverallSuccess || result.Stages.Mitigation.Success
	result.AutoFixApplied = result.Stages.Correction.OverallSuccess
	result.FinalRecommendation = finalRecommendation(result.Stages.Mitigation, result.Stages.Correction, result.Stages.Processing)

	if len(result.Stages.StageFailures) == 0 {
		result.Stages.StageFailures = nil
	}

	result.HealingTimeMs = float64(time.Since(start).Microseconds()) / 1000
	o.record(result, typeName(failure), patternIDs(patterns))

	logger.WithFields(logger.Fields{
		"healing_id": result.HealingID,
		"success":    result.Success,
		"auto_fix":   result.AutoFixApplied,
		"patterns":   result.Stages.Detection.Patterns,
	}).Info("healing attempt completed")

	return result
}

// runStage executes one stage, converting a panic into a recorded stage
// failure so the pipeline always completes.
func (o *Orchestrator) runStage(result *Result, name string, stage func()) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("%v", r)
			result.Stages.StageFailures[name] = msg
			logger.WithFields(logger.Fields{
				"stage":      name,
				"healing_id": result.HealingID,
			}).WithError(fmt.Errorf("%s", msg)).Error("healing stage panicked")
		}
	}()
	stage()
}

func (o *Orchestrator) learn(patterns []Pattern, mitigation MitigationResult, correction CorrectionResult) LearningData {
	var data LearningData

	for _, pattern := range patterns {
		if correction.OverallSuccess {
			o.registry.AdjustSuccessRate(pattern.PatternID, true)
			data.SuccessRatesAdjusted++
			data.PatternsUpdated++
		} else if !mitigation.Success {
			o.registry.AdjustSuccessRate(pattern.PatternID, false)
			data.SuccessRatesAdjusted++
			data.PatternsUpdated++
		}
	}

	if mitigation.Success {
		for _, applied := range mitigation.StrategiesApplied {
			if applied.Success {
				data.NewStrategiesLearned++
			}
		}
	}

	o.mu.Lock()
	o.stats.SelfLearningImprovements += int64(data.NewStrategiesLearned)
	o.mu.Unlock()

	return data
}

func finalRecommendation(mitigation MitigationResult, correction CorrectionResult, processing ProcessingResult) FinalRecommendation {
	if correction.OverallSuccess {
		return FinalRecommendation{
			Action:        "auto_fix_applied",
			Description:   "Error was automatically corrected",
			Confidence:    0.9,
			CorrectedData: correction.CorrectedData,
		}
	}

	if mitigation.Success {
		strategy := ""
		if len(mitigation.StrategiesApplied) > 0 {
			strategy = mitigation.StrategiesApplied[0].Strategy
		}
		return FinalRecommendation{
			Action:      "mitigation_applied",
			Description: "Error was mitigated with fallback strategy",
			Strategy:    strategy,
			Confidence:  0.7,
		}
	}

	if len(processing.Recommendations) > 0 {
		top := processing.Recommendations[0]
		for _, rec := range processing.Recommendations[1:] {
			if rec.SuccessRate > top.SuccessRate {
				top = rec
			}
		}
		return FinalRecommendation{
			Action:      "manual_intervention_required",
			Description: top.Action,
			Priority:    top.Priority,
			Confidence:  top.SuccessRate,
		}
	}

	return FinalRecommendation{
		Action:      "escalate",
		Description: "Unable to heal error automatically, escalation required",
		Priority:    "high",
		Confidence:  0.1,
	}
}

func (o *Orchestrator) record(result *Result, errType string, patterns []string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stats.TotalErrorsProcessed++
	if result.Success {
		o.stats.SuccessfulHealings++
	} else {
		o.stats.FailedHealings++
	}
	o.stats.AvgHealingTimeMs = (o.stats.AvgHealingTimeMs*float64(o.stats.TotalErrorsProcessed-1) + result.HealingTimeMs) /
		float64(o.stats.TotalErrorsProcessed)

	o.history = append(o.history, HistoryEntry{
		HealingID:      result.HealingID,
		Timestamp:      result.Timestamp,
		Success:        result.Success,
		ErrorType:      errType,
		Patterns:       patterns,
		AutoFixApplied: result.AutoFixApplied,
	})
	if len(o.history) > historyLimit {
		o.history = o.history[len(o.history)-historyLimit:]
	}
}

// Stats returns a copy of the aggregate counters.
func (o *Orchestrator) Stats() OrchestratorStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// Status reports the pipeline's health and recent activity.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	stats := o.stats
	active := o.active
	recent := make([]HistoryEntry, 0, 10)
	startIdx := len(o.history) - 10
	if startIdx < 0 {
		startIdx = 0
	}
	recent = append(recent, o.history[startIdx:]...)
	o.mu.Unlock()

	total := stats.TotalErrorsProcessed
	if total == 0 {
		total = 1
	}

	return Status{
		Active:                 active,
		Statistics:             stats,
		RecentActivity:         recent,
		PatternsLearned:        len(o.registry.Patterns()),
		ErrorCategoriesTracked: len(o.registry.Categories()),
		AutoFixSuccessRate:     float64(stats.SuccessfulHealings) / float64(total),
		Components: map[string]string{
			"detector":  "active",
			"mitigator": "active",
			"processor": "active",
			"corrector": "active",
		},
	}
}

func patternIDs(patterns []Pattern) []string {
	ids := make([]string, 0, len(patterns))
	for _, p := range patterns {
		ids = append(ids, p.PatternID)
	}
	return ids
}
