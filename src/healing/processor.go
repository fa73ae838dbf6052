package healing

import (
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	logger "github.com/sirupsen/logrus"
)

// ImpactAssessment scores the blast radius of a failure.
type ImpactAssessment struct {
	ImpactScore        int      `json:"impact_score"`
	UserImpact         string   `json:"user_impact"`
	AffectedComponents []string `json:"affected_components"`
	EstimatedDowntime  string   `json:"estimated_downtime"`
	Priority           string   `json:"priority"`
}

// Recommendation is one actionable follow-up for a matched pattern.
type Recommendation struct {
	PatternID      string  `json:"pattern_id"`
	Priority       string  `json:"priority"`
	Action         string  `json:"action"`
	AutoApplicable bool    `json:"auto_applicable"`
	EffortEstimate string  `json:"effort_estimate"`
	SuccessRate    float64 `json:"success_rate"`
}

// EnvironmentState is a point-in-time resource snapshot.
type EnvironmentState struct {
	MemoryUsagePercent float64   `json:"memory_usage_percent"`
	CPUUsagePercent    float64   `json:"cpu_usage_percent"`
	Timestamp          time.Time `json:"timestamp"`
}

// Diagnostics is the structured bundle handed to external logging.
type Diagnostics struct {
	Stacktrace       string           `json:"stacktrace"`
	ContextVariables Context          `json:"context_variables"`
	Environment      EnvironmentState `json:"environment_state"`
	DebuggingHints   []string         `json:"debugging_hints"`
	SearchKeywords   []string         `json:"search_keywords"`
}

// ProcessingResult is the outcome of the processing stage. The stage always
// succeeds; a failure here is a pipeline defect, not a user error.
type ProcessingResult struct {
	ErrorID          string           `json:"error_id"`
	Timestamp        time.Time        `json:"timestamp"`
	ErrorType        string           `json:"error_type"`
	ErrorMessage     string           `json:"error_message"`
	PatternsMatched  []string         `json:"patterns_matched"`
	Severity         Severity         `json:"severity"`
	ProcessingSteps  []string         `json:"processing_steps"`
	Impact           ImpactAssessment `json:"impact_assessment"`
	Recommendations  []Recommendation `json:"recommendations"`
	AutoFixAvailable bool             `json:"auto_fix_available"`
	Diagnostics      Diagnostics      `json:"actionable_logs"`
	ProcessingTimeMs float64          `json:"processing_time_ms"`
}

// ProcessorStats tracks aggregate processing counters.
type ProcessorStats struct {
	TotalProcessed      int64   `json:"total_processed"`
	AvgProcessingTimeMs float64 `json:"avg_processing_time_ms"`
}

// Processor triages failures into impact scores, recommendations, and a
// diagnostic bundle.
type Processor struct {
	mu          sync.Mutex
	total       int64
	avgTimeMs   float64
	snapshotEnv func() EnvironmentState
}

func NewProcessor() *Processor {
	return &Processor{snapshotEnv: snapshotEnvironment}
}

func snapshotEnvironment() EnvironmentState {
	state := EnvironmentState{Timestamp: time.Now().UTC()}

	if vm, err := mem.VirtualMemory(); err == nil {
		state.MemoryUsagePercent = vm.UsedPercent
	} else {
		logger.WithError(err).Debug("memory snapshot unavailable")
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		state.CPUUsagePercent = percents[0]
	} else if err != nil {
		logger.WithError(err).Debug("cpu snapshot unavailable")
	}

	return state
}

// Process analyses the failure. It never returns an error.
func (p *Processor) Process(err error, pctx Context, patterns []Pattern) ProcessingResult {
	start := time.Now()

	result := ProcessingResult{
		ErrorID:      uuid.NewString(),
		Timestamp:    start.UTC(),
		ErrorType:    typeName(err),
		ErrorMessage: err.Error(),
		Severity:     SeverityLow,
	}

	for _, pattern := range patterns {
		result.PatternsMatched = append(result.PatternsMatched, pattern.PatternID)
		if severityRank(pattern.Severity) > severityRank(result.Severity) {
			result.Severity = pattern.Severity
		}
		if pattern.AutoFixAvailable {
			result.AutoFixAvailable = true
		}
	}

	result.ProcessingSteps = append(result.ProcessingSteps, "error categorized and indexed")

	result.Impact = assessImpact(patterns)
	result.ProcessingSteps = append(result.ProcessingSteps, "impact assessment completed")

	result.Recommendations = generateRecommendations(patterns, result.Impact)
	result.ProcessingSteps = append(result.ProcessingSteps, "recommendations generated")

	result.Diagnostics = p.buildDiagnostics(pctx, patterns, result.ErrorType)
	result.ProcessingSteps = append(result.ProcessingSteps, "diagnostic bundle created")

	elapsed := time.Since(start)
	result.ProcessingTimeMs = float64(elapsed.Microseconds()) / 1000

	p.mu.Lock()
	p.total++
	p.avgTimeMs = (p.avgTimeMs*float64(p.total-1) + result.ProcessingTimeMs) / float64(p.total)
	p.mu.Unlock()

	return result
}

// Stats returns the aggregate processing counters.
func (p *Processor) Stats() ProcessorStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProcessorStats{TotalProcessed: p.total, AvgProcessingTimeMs: p.avgTimeMs}
}

func assessImpact(patterns []Pattern) ImpactAssessment {
	score := 0
	userImpact := "low"
	componentSet := make(map[string]bool)

	for _, pattern := range patterns {
		score += impactWeight(pattern.Severity)

		switch pattern.Severity {
		case SeverityCritical:
			userImpact = "high"
		case SeverityHigh:
			if userImpact == "low" {
				userImpact = "medium"
			}
		}

		switch pattern.Category {
		case CategoryCalculation, CategoryPrecision:
			componentSet["calculation_engine"] = true
		case CategoryDatabase:
			componentSet["persistence_layer"] = true
		case CategoryNetwork:
			componentSet["external_apis"] = true
		case CategoryCache:
			componentSet["rate_cache"] = true
		}
	}

	var components []string
	for c := range componentSet {
		components = append(components, c)
	}

	downtime := "none"
	if score >= 10 {
		downtime = "significant"
	} else if score >= 5 {
		downtime = "minimal"
	}

	priority := "medium"
	if score >= 10 {
		priority = "critical"
	} else if score >= 5 {
		priority = "high"
	}

	return ImpactAssessment{
		ImpactScore:        score,
		UserImpact:         userImpact,
		AffectedComponents: components,
		EstimatedDowntime:  downtime,
		Priority:           priority,
	}
}

func generateRecommendations(patterns []Pattern, impact ImpactAssessment) []Recommendation {
	var recs []Recommendation

	for _, pattern := range patterns {
		effort := "medium"
		if pattern.AutoFixAvailable {
			effort = "low"
		}
		successRate := pattern.SuccessRate
		if successRate == 0 {
			successRate = 0.8
		}

		recs = append(recs, Recommendation{
			PatternID:      pattern.PatternID,
			Priority:       impact.Priority,
			Action:         pattern.FixStrategy,
			AutoApplicable: pattern.AutoFixAvailable,
			EffortEstimate: effort,
			SuccessRate:    successRate,
		})
	}

	if impact.ImpactScore >= 10 {
		recs = append(recs, Recommendation{
			PatternID:      "system_level",
			Priority:       "critical",
			Action:         "Implement circuit breaker and fallback mechanisms",
			AutoApplicable: false,
			EffortEstimate: "high",
			SuccessRate:    0.9,
		})
	}

	return recs
}

func (p *Processor) buildDiagnostics(pctx Context, patterns []Pattern, errType string) Diagnostics {
	keywordSet := make(map[string]bool)
	var keywords []string
	for _, pattern := range patterns {
		if !keywordSet[pattern.ErrorType] {
			keywordSet[pattern.ErrorType] = true
			keywords = append(keywords, pattern.ErrorType)
		}
	}
	if !keywordSet[errType] {
		keywords = append(keywords, errType)
	}

	return Diagnostics{
		Stacktrace:       string(debug.Stack()),
		ContextVariables: pctx,
		Environment:      p.snapshotEnv(),
		DebuggingHints: []string{
			"Check input validation for calculation parameters",
			"Verify network connectivity to external rate providers",
			"Validate database connection pool status",
			"Review recent system resource usage patterns",
		},
		SearchKeywords: keywords,
	}
}
