package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"precisioncalc/src/healing"
	"precisioncalc/src/model"
	"precisioncalc/src/precision"
	"precisioncalc/src/rates"
)

// CalculationService is the single entry point for calculations. It runs the
// precision engine, converts across currencies through the rate aggregator,
// and routes every failure through the healing pipeline before answering.
type CalculationService struct {
	engine       *precision.Engine
	rates        *rates.Aggregator
	orchestrator *healing.Orchestrator
	currencies   *model.CurrencySet
	audit        AuditSink
	events       EventSink

	mu           sync.Mutex
	calculations int64
	errors       int64
	startedAt    time.Time
}

// NewCalculationService wires the service. Sinks default to no-ops; use
// WithAuditSink and WithEventSink to attach real ones.
func NewCalculationService(engine *precision.Engine, aggregator *rates.Aggregator, orchestrator *healing.Orchestrator, currencies *model.CurrencySet) *CalculationService {
	return &CalculationService{
		engine:       engine,
		rates:        aggregator,
		orchestrator: orchestrator,
		currencies:   currencies,
		audit:        noopAudit{},
		events:       noopEvents{},
		startedAt:    time.Now(),
	}
}

func (s *CalculationService) WithAuditSink(sink AuditSink) *CalculationService {
	if sink != nil {
		s.audit = sink
	}
	return s
}

func (s *CalculationService) WithEventSink(sink EventSink) *CalculationService {
	if sink != nil {
		s.events = sink
	}
	return s
}

// Healing exposes the orchestrator for status reporting.
func (s *CalculationService) Healing() *healing.Orchestrator { return s.orchestrator }

// Calculate performs one calculation. It never returns a raw engine or
// provider error: a failure comes back as an unsuccessful Outcome carrying
// the healing result and, when a correction produced usable replacement
// inputs, the result of one retry with those inputs.
func (s *CalculationService) Calculate(ctx context.Context, req Request) Outcome {
	start := time.Now()
	calcID := uuid.New().String()
	endpoint := requestEndpoint(req)

	result, rate, precisionUsed, err := s.compute(ctx, req, s.engine)
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	if err == nil {
		if rate != nil {
			s.orchestrator.Mitigator().ResetRetries(endpoint)
		}
		outcome := Outcome{
			Success:  true,
			Result:   result.String(),
			Metadata: s.metadata(calcID, req, rate, precisionUsed, start, elapsed),
		}
		s.finish(ctx, calcID, req, outcome, "", elapsed)
		return outcome
	}

	logger.WithError(err).WithFields(logger.Fields{
		"calculation_id": calcID,
		"operation":      req.Operation,
	}).Warn("Calculation failed, starting healing")

	healed := s.orchestrator.Heal(ctx, err, healing.Context{
		Operation:    req.Operation,
		Operand1:     req.Operand1,
		Operand2:     req.Operand2,
		CurrencyFrom: req.CurrencyFrom,
		CurrencyTo:   req.CurrencyTo,
		Endpoint:     endpoint,
		Component:    "calculation_engine",
	})

	outcome := Outcome{
		Success: false,
		Error:   s.outcomeError(err, healed),
		Healing: healed,
	}

	if corrected := healed.Stages.Correction.CorrectedData; healed.Stages.Correction.OverallSuccess && corrected != nil {
		if retried, retryErr := s.retry(ctx, req, *corrected); retryErr == nil {
			outcome.RetriedResult = retried.String()
		} else {
			logger.WithError(retryErr).WithField("calculation_id", calcID).Debug("Retry with corrected inputs failed")
		}
	}

	elapsed = float64(time.Since(start).Microseconds()) / 1000
	s.finish(ctx, calcID, req, outcome, err.Error(), elapsed)
	return outcome
}

// compute runs the engine and, when the request crosses currencies, converts
// the raw result. precisionUsed reports the digits the engine worked at.
func (s *CalculationService) compute(ctx context.Context, req Request, eng *precision.Engine) (decimal.Decimal, *model.ExchangeRate, int32, error) {
	result, err := eng.Calculate(req.Operation, req.Operand1, req.Operand2)
	if err != nil {
		return decimal.Zero, nil, eng.Precision(), err
	}
	from := strings.ToUpper(strings.TrimSpace(req.CurrencyFrom))
	to := strings.ToUpper(strings.TrimSpace(req.CurrencyTo))
	if from == "" || to == "" || from == to {
		return result, nil, eng.Precision(), nil
	}
	converted, rate, err := s.rates.Convert(ctx, result, from, to)
	if err != nil {
		return decimal.Zero, nil, eng.Precision(), err
	}
	return converted, rate, eng.Precision(), nil
}

// retry reruns the request exactly once with the corrected inputs applied.
func (s *CalculationService) retry(ctx context.Context, req Request, corrected healing.CorrectedData) (decimal.Decimal, error) {
	if corrected.Operand1 != "" {
		req.Operand1 = corrected.Operand1
	}
	if corrected.Operand2 != "" {
		req.Operand2 = corrected.Operand2
	}
	eng := s.engine
	if corrected.PrecisionOverride > 0 {
		eng = eng.WithPrecision(corrected.PrecisionOverride)
	}
	result, _, _, err := s.compute(ctx, req, eng)
	return result, err
}

func (s *CalculationService) metadata(calcID string, req Request, rate *model.ExchangeRate, precisionUsed int32, start time.Time, elapsedMs float64) *model.CalculationMetadata {
	md := &model.CalculationMetadata{
		CalculationID:   calcID,
		Operation:       req.Operation,
		Operand1:        req.Operand1,
		Operand2:        req.Operand2,
		CurrencyFrom:    req.CurrencyFrom,
		CurrencyTo:      req.CurrencyTo,
		PrecisionUsed:   precisionUsed,
		Timestamp:       start.UTC(),
		ExecutionTimeMs: elapsedMs,
	}
	if rate != nil {
		md.ExchangeRate = rate.Rate.String()
		meta := rate.Metadata
		md.RateMetadata = &meta
	}
	return md
}

func (s *CalculationService) outcomeError(err error, healed *healing.Result) *OutcomeError {
	oe := &OutcomeError{
		Message: err.Error(),
		Type:    errorType(err),
	}
	if len(healed.Stages.Detection.Patterns) > 0 {
		if p, ok := s.orchestrator.Registry().Get(healed.Stages.Detection.Patterns[0]); ok {
			oe.Category = p.Category
		}
	}
	return oe
}

// finish updates counters, persists the audit rows, and publishes events.
func (s *CalculationService) finish(ctx context.Context, calcID string, req Request, outcome Outcome, errMsg string, elapsedMs float64) {
	s.mu.Lock()
	s.calculations++
	if !outcome.Success {
		s.errors++
	}
	s.mu.Unlock()

	record := &model.CalculationRecord{
		CalculationID:   calcID,
		Operation:       req.Operation,
		Operand1:        req.Operand1,
		Operand2:        req.Operand2,
		CurrencyFrom:    req.CurrencyFrom,
		CurrencyTo:      req.CurrencyTo,
		Result:          outcome.Result,
		Success:         outcome.Success,
		ErrorMessage:    errMsg,
		ExecutionTimeMs: elapsedMs,
		CreatedAt:       time.Now().UTC(),
	}
	if outcome.Healing != nil {
		record.HealingID = outcome.Healing.HealingID
	}
	if err := s.audit.RecordCalculation(ctx, record); err != nil {
		logger.WithError(err).Warn("Failed to persist calculation record")
	}

	if outcome.Healing != nil {
		hr := &model.HealingRecord{
			HealingID:      outcome.Healing.HealingID,
			CalculationID:  calcID,
			ErrorMessage:   errMsg,
			Patterns:       strings.Join(outcome.Healing.Stages.Detection.Patterns, ","),
			Success:        outcome.Healing.Success,
			AutoFixed:      outcome.Healing.AutoFixApplied,
			Recommendation: outcome.Healing.FinalRecommendation.Action,
			ElapsedMs:      outcome.Healing.HealingTimeMs,
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.audit.RecordHealing(ctx, hr); err != nil {
			logger.WithError(err).Warn("Failed to persist healing record")
		}
	}

	s.events.Publish(Event{
		Type:      "calculation_result",
		Timestamp: time.Now().UTC(),
		Payload:   outcome,
	})
}

// GetRate returns the exchange rate for a pair, refreshing past the cache
// when forceRefresh is set.
func (s *CalculationService) GetRate(ctx context.Context, from, to string, forceRefresh bool) (*model.ExchangeRate, error) {
	if forceRefresh {
		return s.rates.RefreshRate(ctx, from, to)
	}
	return s.rates.GetRate(ctx, from, to)
}

// SupportedCurrencies lists every currency the service accepts.
func (s *CalculationService) SupportedCurrencies() []model.Currency {
	return s.currencies.All()
}

// Metrics reports the service's counters together with the rate and healing
// subsystems' own.
func (s *CalculationService) Metrics() Metrics {
	s.mu.Lock()
	calcs, errCount := s.calculations, s.errors
	started := s.startedAt
	s.mu.Unlock()

	successRate := 1.0
	if calcs > 0 {
		successRate = float64(calcs-errCount) / float64(calcs)
	}
	return Metrics{
		CalculationsPerformed: calcs,
		ErrorsEncountered:     errCount,
		SuccessRate:           successRate,
		UptimeSeconds:         time.Since(started).Seconds(),
		StartedAt:             started.UTC(),
		Rates:                 s.rates.Stats(),
		Healing:               s.orchestrator.Status(),
	}
}

// requestEndpoint names the external dependency a cross-currency request
// touches. The mitigator keys its retry counters on it, so backoff state for
// one pair never bleeds into another.
func requestEndpoint(req Request) string {
	from := strings.ToUpper(strings.TrimSpace(req.CurrencyFrom))
	to := strings.ToUpper(strings.TrimSpace(req.CurrencyTo))
	if from == "" || to == "" || from == to {
		return ""
	}
	return from + "_" + to
}

func errorType(err error) string {
	var pe *precision.Error
	if errors.As(err, &pe) {
		return string(pe.Kind)
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}
