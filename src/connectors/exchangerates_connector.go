package connectors

// REST CLIENT FOR THE EXCHANGERATE-API v4 PUBLIC FEED
// RESTY ONLY + INTERNAL RETRY

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"precisioncalc/src/model"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

const (
	// Default retry configuration
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second

	defaultExchangeRatesBaseURL = "https://api.exchangerate-api.com/v4"
)

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	if r == nil {
		return false
	}

	if r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() == http.StatusRequestTimeout {
		return true
	}

	if r.StatusCode() >= http.StatusInternalServerError {
		return true
	}
	return false
}

type exchangeRatesLatestResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// ExchangeRatesAPIConnector quotes fiat pairs from the exchangerate-api v4
// latest endpoint. One request returns every quote for a base currency, so a
// direct quote is always a single call.
type ExchangeRatesAPIConnector struct {
	baseURL string
	apiKey  string
	http    *resty.Client
	metrics *providerMetrics
}

func NewExchangeRatesAPIConnector(baseURL, apiKey string) *ExchangeRatesAPIConnector {
	retryCount := defaultRetryAttempts - 1

	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultExchangeRatesBaseURL
		logger.Warnf("No base URL provided, using default: %s", baseURL)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(GetConfig().RequestTimeout()).
		SetRetryCount(retryCount).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &ExchangeRatesAPIConnector{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpClient,
		metrics: newProviderMetrics("exchangerate-api"),
	}
}

func (c *ExchangeRatesAPIConnector) Name() string { return "exchangerate-api" }

func (c *ExchangeRatesAPIConnector) Stats() ProviderStats { return c.metrics.snapshot() }

func (c *ExchangeRatesAPIConnector) FetchRate(ctx context.Context, from, to model.Currency) (*model.ExchangeRate, error) {
	if from.Code == to.Code {
		return sameCurrencyRate(c.Name(), from.Code), nil
	}

	// The v4 feed only lists fiat quotes.
	if from.Kind != model.KindFiat || to.Kind != model.KindFiat {
		return nil, fmt.Errorf("%s/%s: %w", from.Code, to.Code, ErrPairUnsupported)
	}

	start := time.Now()

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json")
	if c.apiKey != "" {
		req = req.SetHeader("Authorization", "Bearer "+c.apiKey)
	}

	var out exchangeRatesLatestResponse
	resp, err := req.SetResult(&out).Get("/latest/" + from.Code)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.recordFailure(elapsed)
		return nil, fmt.Errorf("exchangerate-api request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		c.metrics.recordFailure(elapsed)
		return nil, fmt.Errorf("exchangerate-api HTTP %d (%s): %s",
			resp.StatusCode(), GetErrorMsg(resp.StatusCode()), resp.String())
	}

	raw, ok := out.Rates[to.Code]
	if !ok || raw <= 0 {
		c.metrics.recordFailure(elapsed)
		return nil, fmt.Errorf("%s/%s not in %s feed: %w", from.Code, to.Code, out.Base, ErrRateUnavailable)
	}

	c.metrics.recordSuccess(elapsed)

	logger.WithFields(logger.Fields{
		"from": from.Code,
		"to":   to.Code,
		"rate": raw,
	}).Debug("exchangerate-api quote fetched")

	return &model.ExchangeRate{
		From: from.Code,
		To:   to.Code,
		Rate: decimal.NewFromFloat(raw),
		Metadata: model.RateMetadata{
			Source:         c.Name(),
			Timestamp:      time.Now().UTC(),
			ResponseTimeMs: float64(elapsed.Milliseconds()),
		},
	}, nil
}
