package connectors

import (
	"context"
	"errors"
	"sync"
	"time"

	"precisioncalc/src/model"
	"precisioncalc/src/security"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

var (
	// ErrPairUnsupported means the provider cannot quote this pair at all.
	// The aggregator treats it as a soft failure and moves to the next provider.
	ErrPairUnsupported = errors.New("currency pair not supported by provider")

	// ErrRateUnavailable means the provider answered but had no usable quote.
	ErrRateUnavailable = errors.New("rate unavailable")
)

// RateProvider is one upstream source of exchange rates. Implementations must
// be safe for concurrent use and must honour ctx cancellation on network calls.
type RateProvider interface {
	Name() string
	FetchRate(ctx context.Context, from, to model.Currency) (*model.ExchangeRate, error)
	Stats() ProviderStats
}

// ProviderStats is a snapshot of a provider's request counters.
type ProviderStats struct {
	Name              string  `json:"name"`
	Requests          int64   `json:"requests"`
	Errors            int64   `json:"errors"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}

// providerMetrics accumulates counters shared by all connectors.
type providerMetrics struct {
	mu          sync.Mutex
	name        string
	requests    int64
	errors      int64
	totalTimeMs float64
}

func newProviderMetrics(name string) *providerMetrics {
	return &providerMetrics{name: name}
}

func (m *providerMetrics) recordSuccess(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	m.totalTimeMs += float64(elapsed.Milliseconds())
}

func (m *providerMetrics) recordFailure(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	m.errors++
	m.totalTimeMs += float64(elapsed.Milliseconds())
}

func (m *providerMetrics) snapshot() ProviderStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	avg := 0.0
	if m.requests > 0 {
		avg = m.totalTimeMs / float64(m.requests)
	}
	return ProviderStats{
		Name:              m.name,
		Requests:          m.requests,
		Errors:            m.errors,
		AvgResponseTimeMs: avg,
	}
}

// DefaultProviders wires the connectors in lookup order. The static table
// comes last so a quote is always available when the network ones are down.
func DefaultProviders() []RateProvider {
	config := GetConfig()

	return []RateProvider{
		NewExchangeRatesAPIConnector(config.ExchangeRatesBaseURL, unsealKey(config.ExchangeRatesAPIKey)),
		NewCoinGeckoConnector(config.CoinGeckoBaseURL, unsealKey(config.CoinGeckoAPIKey)),
		NewBinanceTickerConnector(),
		MustNewStaticConnector(),
	}
}

func unsealKey(sealed string) string {
	if sealed == "" {
		return ""
	}
	key, err := security.DecryptString(sealed)
	if err != nil {
		logger.WithError(err).Warn("Failed to unseal provider API key, continuing without it")
		return ""
	}
	return key
}

// sameCurrencyRate short-circuits FROM==TO without touching the network.
func sameCurrencyRate(source, code string) *model.ExchangeRate {
	return &model.ExchangeRate{
		From: code,
		To:   code,
		Rate: decimal.NewFromInt(1),
		Metadata: model.RateMetadata{
			Source:       source,
			Timestamp:    time.Now().UTC(),
			SameCurrency: true,
		},
	}
}
