package rates

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"precisioncalc/src/connectors"
	"precisioncalc/src/model"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

var (
	// ErrUnknownCurrency means a requested code is not in the currency set.
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrAllProvidersExhausted means every provider in the chain failed.
	ErrAllProvidersExhausted = errors.New("all rate providers exhausted")
)

type cachedRate struct {
	rate     model.ExchangeRate
	fetched  time.Time
}

// Stats is a snapshot of aggregator counters plus per-provider breakdowns.
type Stats struct {
	Requests         int64                      `json:"requests"`
	CacheHits        int64                      `json:"cache_hits"`
	CacheMisses      int64                      `json:"cache_misses"`
	ProviderFailures int64                      `json:"provider_failures"`
	Conversions      int64                      `json:"conversions"`
	CacheEntries     int                        `json:"cache_entries"`
	Providers        []connectors.ProviderStats `json:"providers"`
}

// Aggregator serves exchange rates from an ordered provider chain with a TTL
// cache in front. The first provider that answers wins; later providers are
// only consulted when earlier ones fail.
type Aggregator struct {
	providers  []connectors.RateProvider
	currencies *model.CurrencySet
	ttl        time.Duration
	now        func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedRate

	statsMu          sync.Mutex
	requests         int64
	cacheHits        int64
	cacheMisses      int64
	providerFailures int64
	conversions      int64
}

func NewAggregator(currencies *model.CurrencySet, providers ...connectors.RateProvider) *Aggregator {
	config := GetConfig()
	return &Aggregator{
		providers:  providers,
		currencies: currencies,
		ttl:        config.CacheTTL,
		now:        time.Now,
		cache:      make(map[string]cachedRate),
	}
}

// WithTTL overrides the cache TTL. Zero disables caching.
func (a *Aggregator) WithTTL(ttl time.Duration) *Aggregator {
	a.ttl = ttl
	return a
}

// WithNow injects a clock. Tests use it to age cache entries.
func (a *Aggregator) WithNow(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// GetRate returns the cached rate when fresh, otherwise walks the provider
// chain in order.
func (a *Aggregator) GetRate(ctx context.Context, from, to string) (*model.ExchangeRate, error) {
	return a.getRate(ctx, from, to, false)
}

// RefreshRate bypasses the cache and always asks the providers.
func (a *Aggregator) RefreshRate(ctx context.Context, from, to string) (*model.ExchangeRate, error) {
	return a.getRate(ctx, from, to, true)
}

func (a *Aggregator) getRate(ctx context.Context, from, to string, forceRefresh bool) (*model.ExchangeRate, error) {
	a.count(&a.requests)

	// Supports also rejects currencies that are seeded but deactivated.
	if !a.currencies.Supports(from) {
		return nil, fmt.Errorf("%s: %w", from, ErrUnknownCurrency)
	}
	if !a.currencies.Supports(to) {
		return nil, fmt.Errorf("%s: %w", to, ErrUnknownCurrency)
	}
	fromCur, _ := a.currencies.Get(from)
	toCur, _ := a.currencies.Get(to)

	// Canonical codes from the set, so "usd" and "USD" share a cache entry.
	from, to = fromCur.Code, toCur.Code

	if from == to {
		return &model.ExchangeRate{
			From: from,
			To:   to,
			Rate: decimal.NewFromInt(1),
			Metadata: model.RateMetadata{
				Source:       "aggregator",
				Timestamp:    a.now().UTC(),
				SameCurrency: true,
			},
		}, nil
	}

	key := from + "_" + to

	if !forceRefresh {
		if hit, age, ok := a.lookup(key); ok {
			a.count(&a.cacheHits)
			hit.Metadata.FromCache = true
			hit.Metadata.CacheAgeSeconds = age.Seconds()
			return &hit, nil
		}
		a.count(&a.cacheMisses)
	}

	var failures []error
	for _, provider := range a.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rate, err := provider.FetchRate(ctx, fromCur, toCur)
		if err != nil {
			a.count(&a.providerFailures)
			logger.WithError(err).WithFields(logger.Fields{
				"provider": provider.Name(),
				"from":     from,
				"to":       to,
			}).Warn("rate provider failed, trying next")
			failures = append(failures, fmt.Errorf("%s: %w", provider.Name(), err))
			continue
		}

		a.store(key, *rate)
		return rate, nil
	}

	// A cancellation during the last fetch is a cancellation, not exhaustion.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return nil, fmt.Errorf("%s/%s: %w: %w", from, to, ErrAllProvidersExhausted, errors.Join(failures...))
}

// Convert applies the current rate to an amount and banker's-rounds the
// result to the target currency's decimal places.
func (a *Aggregator) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, *model.ExchangeRate, error) {
	rate, err := a.GetRate(ctx, from, to)
	if err != nil {
		return decimal.Zero, nil, err
	}

	toCur, _ := a.currencies.Get(to)
	converted := amount.Mul(rate.Rate).RoundBank(toCur.DecimalPlaces)

	a.count(&a.conversions)
	return converted, rate, nil
}

// ClearCache drops every cached quote.
func (a *Aggregator) ClearCache() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache = make(map[string]cachedRate)
}

// Stats returns current counters and every provider's own stats.
func (a *Aggregator) Stats() Stats {
	a.mu.RLock()
	entries := len(a.cache)
	a.mu.RUnlock()

	a.statsMu.Lock()
	s := Stats{
		Requests:         a.requests,
		CacheHits:        a.cacheHits,
		CacheMisses:      a.cacheMisses,
		ProviderFailures: a.providerFailures,
		Conversions:      a.conversions,
		CacheEntries:     entries,
	}
	a.statsMu.Unlock()

	for _, p := range a.providers {
		s.Providers = append(s.Providers, p.Stats())
	}
	return s
}

func (a *Aggregator) lookup(key string) (model.ExchangeRate, time.Duration, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entry, ok := a.cache[key]
	if !ok {
		return model.ExchangeRate{}, 0, false
	}

	age := a.now().Sub(entry.fetched)
	if a.ttl <= 0 || age >= a.ttl {
		return model.ExchangeRate{}, 0, false
	}
	return entry.rate, age, true
}

func (a *Aggregator) store(key string, rate model.ExchangeRate) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache[key] = cachedRate{rate: rate, fetched: a.now()}
}

func (a *Aggregator) count(field *int64) {
	a.statsMu.Lock()
	*field++
	a.statsMu.Unlock()
}
