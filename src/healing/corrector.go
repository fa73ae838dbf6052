package healing

import (
	"regexp"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

// Epsilon substituted for a zero divisor. One unit in the last place of the
// default 60-digit precision.
const Epsilon = "1e-60"

const reducedPrecision = 40

var (
	invalidLiteralChars = regexp.MustCompile(`[^0-9.\-+eE]`)
	numericFragment     = regexp.MustCompile(`[\d.\-+eE]+`)
)

// CorrectedData carries replacement inputs produced by a correction. The
// caller decides what to do with them; the corrector never re-runs anything.
type CorrectedData struct {
	Operand1          string `json:"operand1,omitempty"`
	Operand2          string `json:"operand2,omitempty"`
	PrecisionOverride int32  `json:"precision_override,omitempty"`
	UseCache          bool   `json:"use_cache,omitempty"`
	UseMemoryCache    bool   `json:"use_memory_cache,omitempty"`
}

// AppliedCorrection records one successful correction.
type AppliedCorrection struct {
	Pattern        string        `json:"pattern"`
	CorrectionType string        `json:"correction_type"`
	OriginalValue  string        `json:"original_value,omitempty"`
	Explanation    string        `json:"explanation"`
	Data           CorrectedData `json:"corrected_data"`
}

// FailedCorrection records one correction attempt that did not apply.
type FailedCorrection struct {
	Pattern string `json:"pattern"`
	Reason  string `json:"reason"`
}

// CorrectionResult is the outcome of the correction stage.
type CorrectionResult struct {
	CorrectionsAttempted []string            `json:"corrections_attempted"`
	Successful           []AppliedCorrection `json:"successful_corrections"`
	Failed               []FailedCorrection  `json:"failed_corrections"`
	OverallSuccess       bool                `json:"overall_success"`
	CorrectedData        *CorrectedData      `json:"corrected_data,omitempty"`
}

// CorrectorStats tracks aggregate correction counters.
type CorrectorStats struct {
	TotalAttempts         int64 `json:"total_attempts"`
	SuccessfulCorrections int64 `json:"successful_corrections"`
	FailedCorrections     int64 `json:"failed_corrections"`
}

// Corrector applies concrete auto-fixes for the patterns that define one.
// The first pattern whose correction succeeds wins; every attempt is
// recorded either way.
type Corrector struct {
	mu    sync.Mutex
	stats CorrectorStats
}

func NewCorrector() *Corrector {
	return &Corrector{}
}

// Correct attempts an auto-fix for each matched pattern that has one.
func (c *Corrector) Correct(patterns []Pattern, cctx Context) CorrectionResult {
	var result CorrectionResult

	for _, pattern := range patterns {
		if !pattern.AutoFixAvailable {
			continue
		}
		fix := c.strategyFor(pattern.PatternID)
		if fix == nil {
			continue
		}

		c.countAttempt()
		result.CorrectionsAttempted = append(result.CorrectionsAttempted, pattern.PatternID)

		applied, reason := fix(cctx)
		if applied == nil {
			c.countFailure()
			result.Failed = append(result.Failed, FailedCorrection{
				Pattern: pattern.PatternID,
				Reason:  reason,
			})
			continue
		}

		applied.Pattern = pattern.PatternID
		result.Successful = append(result.Successful, *applied)
		result.CorrectedData = &applied.Data
		result.OverallSuccess = true
		c.countSuccess()

		logger.WithFields(logger.Fields{
			"pattern":    pattern.PatternID,
			"correction": applied.CorrectionType,
		}).Info("auto-fix applied")
		break
	}

	return result
}

// Stats returns the aggregate correction counters.
func (c *Corrector) Stats() CorrectorStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

type fixFunc func(Context) (*AppliedCorrection, string)

func (c *Corrector) strategyFor(patternID string) fixFunc {
	switch patternID {
	case "div_by_zero":
		return correctDivisionByZero
	case "invalid_decimal":
		return correctInvalidDecimal
	case "overflow":
		return correctOverflow
	case "network_timeout":
		return correctNetworkTimeout
	case "cache_connection":
		return correctCacheConnection
	default:
		return nil
	}
}

func correctDivisionByZero(cctx Context) (*AppliedCorrection, string) {
	operand2 := cctx.Operand2
	if operand2 == "" {
		operand2 = "0"
	}

	d, err := decimal.NewFromString(operand2)
	if err != nil || !d.IsZero() {
		return nil, "no zero divisor found"
	}

	return &AppliedCorrection{
		CorrectionType: "epsilon_replacement",
		OriginalValue:  operand2,
		Explanation:    "Replaced zero divisor with epsilon value for mathematical continuity",
		Data:           CorrectedData{Operand2: Epsilon},
	}, ""
}

func correctInvalidDecimal(cctx Context) (*AppliedCorrection, string) {
	data := CorrectedData{}
	fixedAny := false

	sanitize := func(raw string) (string, bool) {
		if raw == "" {
			return "", false
		}

		// Commas read as thousands separators first, decimal points second.
		stripped := invalidLiteralChars.ReplaceAllString(raw, "")
		if _, err := decimal.NewFromString(stripped); err == nil {
			return stripped, true
		}
		withDot := invalidLiteralChars.ReplaceAllString(strings.ReplaceAll(raw, ",", "."), "")
		if _, err := decimal.NewFromString(withDot); err == nil {
			return withDot, true
		}
		// Fall back to the first valid numeric fragment.
		for _, fragment := range numericFragment.FindAllString(stripped, -1) {
			if _, err := decimal.NewFromString(fragment); err == nil {
				return fragment, true
			}
		}
		return "", false
	}

	if fixed, ok := sanitize(cctx.Operand1); ok {
		data.Operand1 = fixed
		fixedAny = true
	}
	if fixed, ok := sanitize(cctx.Operand2); ok {
		data.Operand2 = fixed
		fixedAny = true
	}

	if !fixedAny {
		return nil, "could not sanitize decimal input"
	}

	return &AppliedCorrection{
		CorrectionType: "input_sanitization",
		Explanation:    "Cleaned and validated decimal input format",
		Data:           data,
	}, ""
}

func correctOverflow(Context) (*AppliedCorrection, string) {
	return &AppliedCorrection{
		CorrectionType: "precision_adjustment",
		Explanation:    "Reduced precision to prevent overflow",
		Data:           CorrectedData{PrecisionOverride: reducedPrecision},
	}, ""
}

func correctNetworkTimeout(Context) (*AppliedCorrection, string) {
	return &AppliedCorrection{
		CorrectionType: "cached_fallback",
		Explanation:    "Using cached exchange rates due to network timeout",
		Data:           CorrectedData{UseCache: true},
	}, ""
}

func correctCacheConnection(Context) (*AppliedCorrection, string) {
	return &AppliedCorrection{
		CorrectionType: "memory_fallback",
		Explanation:    "Switched to in-memory caching due to cache unavailability",
		Data:           CorrectedData{UseMemoryCache: true},
	}, ""
}

func (c *Corrector) countAttempt() {
	c.mu.Lock()
	c.stats.TotalAttempts++
	c.mu.Unlock()
}

func (c *Corrector) countSuccess() {
	c.mu.Lock()
	c.stats.SuccessfulCorrections++
	c.mu.Unlock()
}

func (c *Corrector) countFailure() {
	c.mu.Lock()
	c.stats.FailedCorrections++
	c.mu.Unlock()
}
