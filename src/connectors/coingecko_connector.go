package connectors

// REST CLIENT FOR THE COINGECKO simple/price ENDPOINT

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

const defaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// coinGeckoIDs maps ticker codes to CoinGecko coin ids.
var coinGeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"USDT":  "tether",
	"USDC":  "usd-coin",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"SOL":   "solana",
	"DOT":   "polkadot",
	"DOGE":  "dogecoin",
	"LTC":   "litecoin",
	"MATIC": "matic-network",
}

// CoinGeckoConnector quotes crypto pairs. Fiat-to-crypto is derived by
// inverting the crypto-to-fiat quote; crypto-to-crypto crosses through USD.
type CoinGeckoConnector struct {
	baseURL string
	apiKey  string
	http    *resty.Client
	metrics *providerMetrics
}

func NewCoinGeckoConnector(baseURL, apiKey string) *CoinGeckoConnector {
	retryCount := defaultRetryAttempts - 1

	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultCoinGeckoBaseURL
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

	return &CoinGeckoConnector{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpClient,
		metrics: newProviderMetrics("coingecko"),
	}
}

func (c *CoinGeckoConnector) Name() string { return "coingecko" }

func (c *CoinGeckoConnector) Stats() ProviderStats { return c.metrics.snapshot() }

func (c *CoinGeckoConnector) FetchRate(ctx context.Context, from, to model.Currency) (*model.ExchangeRate, error) {
	if from.Code == to.Code {
		return sameCurrencyRate(c.Name(), from.Code), nil
	}

	switch {
	case from.Kind == model.KindCrypto && to.Kind == model.KindFiat:
		rate, elapsed, err := c.cryptoToFiat(ctx, from.Code, to.Code)
		if err != nil {
			return nil, err
		}
		return c.quote(from.Code, to.Code, rate, elapsed, ""), nil

	case from.Kind == model.KindFiat && to.Kind == model.KindCrypto:
		rate, elapsed, err := c.cryptoToFiat(ctx, to.Code, from.Code)
		if err != nil {
			return nil, err
		}
		if rate.IsZero() {
			return nil, fmt.Errorf("%s/%s zero quote: %w", from.Code, to.Code, ErrRateUnavailable)
		}
		inverse := decimal.NewFromInt(1).DivRound(rate, 30)
		return c.quote(from.Code, to.Code, inverse, elapsed, "inverse"), nil

	case from.Kind == model.KindCrypto && to.Kind == model.KindCrypto:
		fromUSD, e1, err := c.cryptoToFiat(ctx, from.Code, "USD")
		if err != nil {
			return nil, err
		}
		toUSD, e2, err := c.cryptoToFiat(ctx, to.Code, "USD")
		if err != nil {
			return nil, err
		}
		if toUSD.IsZero() {
			return nil, fmt.Errorf("%s/%s zero quote: %w", from.Code, to.Code, ErrRateUnavailable)
		}
		cross := fromUSD.DivRound(toUSD, 30)
		return c.quote(from.Code, to.Code, cross, e1+e2, "cross"), nil

	default:
		return nil, fmt.Errorf("%s/%s: %w", from.Code, to.Code, ErrPairUnsupported)
	}
}

func (c *CoinGeckoConnector) quote(from, to string, rate decimal.Decimal, elapsed time.Duration, derived string) *model.ExchangeRate {
	return &model.ExchangeRate{
		From: from,
		To:   to,
		Rate: rate,
		Metadata: model.RateMetadata{
			Source:         c.Name(),
			Timestamp:      time.Now().UTC(),
			ResponseTimeMs: float64(elapsed.Milliseconds()),
			Derived:        derived,
		},
	}
}

func (c *CoinGeckoConnector) cryptoToFiat(ctx context.Context, cryptoCode, fiatCode string) (decimal.Decimal, time.Duration, error) {
	coinID, ok := coinGeckoIDs[cryptoCode]
	if !ok {
		return decimal.Zero, 0, fmt.Errorf("%s has no coingecko id: %w", cryptoCode, ErrPairUnsupported)
	}
	vs := strings.ToLower(fiatCode)

	start := time.Now()

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("ids", coinID).
		SetQueryParam("vs_currencies", vs)
	if c.apiKey != "" {
		req = req.SetHeader("x-cg-demo-api-key", c.apiKey)
	}

	var out map[string]map[string]float64
	resp, err := req.SetResult(&out).Get("/simple/price")
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.recordFailure(elapsed)
		return decimal.Zero, elapsed, fmt.Errorf("coingecko request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		c.metrics.recordFailure(elapsed)
		return decimal.Zero, elapsed, fmt.Errorf("coingecko HTTP %d (%s): %s",
			resp.StatusCode(), GetErrorMsg(resp.StatusCode()), resp.String())
	}

	raw, ok := out[coinID][vs]
	if !ok || raw <= 0 {
		c.metrics.recordFailure(elapsed)
		return decimal.Zero, elapsed, fmt.Errorf("%s/%s not quoted: %w", cryptoCode, fiatCode, ErrRateUnavailable)
	}

	c.metrics.recordSuccess(elapsed)

	logger.WithFields(logger.Fields{
		"coin": coinID,
		"vs":   vs,
		"rate": raw,
	}).Debug("coingecko quote fetched")

	return decimal.NewFromFloat(raw), elapsed, nil
}
