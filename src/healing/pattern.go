package healing

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"precisioncalc/src/precision"

	logger "github.com/sirupsen/logrus"
)

const recentErrorsLimit = 1000

// Pattern is one reusable error-classification rule. Occurrences, LastSeen
// and SuccessRate are owned by the registry; everything else is fixed at
// creation.
type Pattern struct {
	PatternID        string        `json:"pattern_id"`
	RegexPattern     string        `json:"regex_pattern"`
	ErrorType        string        `json:"error_type"`
	Category         ErrorCategory `json:"category"`
	Severity         Severity      `json:"severity"`
	AutoFixAvailable bool          `json:"auto_fix_available"`
	FixStrategy      string        `json:"fix_strategy"`
	Occurrences      int64         `json:"occurrences"`
	LastSeen         time.Time     `json:"last_seen,omitempty"`
	SuccessRate      float64       `json:"success_rate"`

	matcher *regexp.Regexp
}

// RecentError is one entry in the registry's rolling error window.
type RecentError struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Context   Context   `json:"context"`
}

// Registry holds the pattern catalogue. Matching scans a snapshot; counter
// and success-rate updates take the write lock.
type Registry struct {
	mu           sync.RWMutex
	patterns     map[string]*Pattern
	order        []string
	recentErrors []RecentError
	errorStats   map[string]int64
	now          func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		patterns:   make(map[string]*Pattern),
		errorStats: make(map[string]int64),
		now:        time.Now,
	}
}

// Seed installs the default pattern catalogue. Safe to call once at startup.
func (r *Registry) Seed() error {
	defaults := []Pattern{
		{
			PatternID:        "div_by_zero",
			RegexPattern:     `(division by zero|divide by zero|DivisionByZero)`,
			ErrorType:        "DivisionByZero",
			Category:         CategoryCalculation,
			Severity:         SeverityHigh,
			AutoFixAvailable: true,
			FixStrategy:      "Use epsilon value or limit calculation",
		},
		{
			PatternID:        "invalid_decimal",
			RegexPattern:     `(invalid literal|InvalidNumericLiteral|invalid decimal)`,
			ErrorType:        "InvalidNumericLiteral",
			Category:         CategoryValidation,
			Severity:         SeverityMedium,
			AutoFixAvailable: true,
			FixStrategy:      "Sanitize and validate input format",
		},
		{
			PatternID:        "overflow",
			RegexPattern:     `(overflow|too large|exceeds maximum)`,
			ErrorType:        "Overflow",
			Category:         CategoryPrecision,
			Severity:         SeverityHigh,
			AutoFixAvailable: true,
			FixStrategy:      "Break into smaller calculations or increase precision",
		},
		{
			PatternID:        "network_timeout",
			RegexPattern:     `(timeout|connection|network|unreachable)`,
			ErrorType:        "NetworkError",
			Category:         CategoryNetwork,
			Severity:         SeverityMedium,
			AutoFixAvailable: true,
			FixStrategy:      "Retry with exponential backoff",
		},
		{
			PatternID:        "cache_connection",
			RegexPattern:     `(redis|connection pool|cache)`,
			ErrorType:        "CacheError",
			Category:         CategoryCache,
			Severity:         SeverityMedium,
			AutoFixAvailable: true,
			FixStrategy:      "Use fallback storage mechanism",
		},
	}

	for i := range defaults {
		if err := r.Learn(defaults[i]); err != nil {
			return err
		}
	}
	return nil
}

// Learn registers a pattern. The matcher is compiled case-insensitively.
func (r *Registry) Learn(p Pattern) error {
	matcher, err := regexp.Compile(`(?i)` + p.RegexPattern)
	if err != nil {
		return fmt.Errorf("pattern %s: %w", p.PatternID, err)
	}
	p.matcher = matcher

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.patterns[p.PatternID]; exists {
		return fmt.Errorf("pattern %s already registered", p.PatternID)
	}
	r.patterns[p.PatternID] = &p
	r.order = append(r.order, p.PatternID)
	return nil
}

// Detect matches the error against every registered pattern and records it in
// the rolling window. When nothing matches, a new pattern is synthesized from
// the error and registered so recurrences match. Returned patterns are copies.
func (r *Registry) Detect(err error, dctx Context) []Pattern {
	message := err.Error()
	errType := typeName(err)
	scanned := message + " " + errType

	r.mu.Lock()
	defer r.mu.Unlock()

	r.errorStats[errType]++
	r.recentErrors = append(r.recentErrors, RecentError{
		Timestamp: r.now().UTC(),
		Type:      errType,
		Message:   message,
		Context:   dctx,
	})
	if len(r.recentErrors) > recentErrorsLimit {
		r.recentErrors = r.recentErrors[len(r.recentErrors)-recentErrorsLimit:]
	}

	var matched []Pattern
	for _, id := range r.order {
		p := r.patterns[id]
		if p.matcher.MatchString(scanned) {
			p.Occurrences++
			p.LastSeen = r.now().UTC()
			matched = append(matched, *p)
		}
	}

	if len(matched) == 0 {
		synthesized := r.synthesize(message, errType)
		r.patterns[synthesized.PatternID] = synthesized
		r.order = append(r.order, synthesized.PatternID)
		matched = append(matched, *synthesized)

		logger.WithFields(logger.Fields{
			"pattern":  synthesized.PatternID,
			"category": synthesized.Category,
			"severity": synthesized.Severity,
		}).Info("synthesized new error pattern")
	}

	return matched
}

// synthesize builds a pattern from an unmatched error using keyword
// heuristics. Caller holds the write lock.
func (r *Registry) synthesize(message, errType string) *Pattern {
	patternID := fmt.Sprintf("auto_%s_%d", strings.ToLower(errType), len(r.patterns))
	lower := strings.ToLower(message)

	category := CategorySystem
	severity := SeverityMedium
	autoFix := false
	fixStrategy := "Manual investigation required"

	switch {
	case strings.Contains(lower, "calculation") || isArithmeticType(errType):
		category = CategoryCalculation
		severity = SeverityHigh
		autoFix = true
		fixStrategy = "Validate inputs and adjust calculation"
	case strings.Contains(lower, "network") || strings.Contains(lower, "connection"):
		category = CategoryNetwork
		fixStrategy = "Retry with backoff strategy"
		autoFix = true
	case strings.Contains(lower, "database") || strings.Contains(lower, "sql"):
		category = CategoryDatabase
		severity = SeverityHigh
		fixStrategy = "Check database connection and retry"
	}

	snippet := message
	if len(snippet) > 50 {
		snippet = snippet[:50]
	}

	return &Pattern{
		PatternID:        patternID,
		RegexPattern:     regexp.QuoteMeta(snippet),
		ErrorType:        errType,
		Category:         category,
		Severity:         severity,
		AutoFixAvailable: autoFix,
		FixStrategy:      fixStrategy,
		Occurrences:      1,
		LastSeen:         r.now().UTC(),
		matcher:          regexp.MustCompile(`(?i)` + regexp.QuoteMeta(snippet)),
	}
}

// AdjustSuccessRate applies the learning rule: x1.1 on success, x0.9 on
// failure, clamped to [0.1, 1.0]. First-ever success bootstraps from 0.9.
func (r *Registry) AdjustSuccessRate(patternID string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patterns[patternID]
	if !ok {
		return
	}

	if success {
		if p.SuccessRate == 0 {
			p.SuccessRate = 0.9
		}
		p.SuccessRate = min(1.0, p.SuccessRate*1.1)
	} else {
		p.SuccessRate = max(0.1, p.SuccessRate*0.9)
	}
}

// Get returns a copy of the pattern, if registered.
func (r *Registry) Get(patternID string) (Pattern, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patterns[patternID]
	if !ok {
		return Pattern{}, false
	}
	return *p, true
}

// Patterns returns copies of every registered pattern in insertion order.
func (r *Registry) Patterns() []Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Pattern, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.patterns[id])
	}
	return out
}

// Categories returns the distinct categories currently tracked.
func (r *Registry) Categories() []ErrorCategory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[ErrorCategory]bool)
	var out []ErrorCategory
	for _, id := range r.order {
		c := r.patterns[id].Category
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// RecentErrors returns the newest n entries of the rolling window.
func (r *Registry) RecentErrors(n int) []RecentError {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n <= 0 || n > len(r.recentErrors) {
		n = len(r.recentErrors)
	}
	out := make([]RecentError, n)
	copy(out, r.recentErrors[len(r.recentErrors)-n:])
	return out
}

// typeName labels the error for statistics and pattern matching. Typed
// calculation failures report their kind, everything else its Go type.
func typeName(err error) string {
	var pe *precision.Error
	if errors.As(err, &pe) {
		return string(pe.Kind)
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}

// isArithmeticType reports whether the error type belongs to the calculation
// engine's failure kinds.
func isArithmeticType(errType string) bool {
	switch errType {
	case string(precision.KindDivisionByZero),
		string(precision.KindOverflow),
		string(precision.KindNegativeRadicand),
		string(precision.KindMissingOperand),
		string(precision.KindInvalidLiteral),
		string(precision.KindUnsupportedOperation):
		return true
	}
	return false
}
