package connectors

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"precisioncalc/src/model"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

// tickerSource is the slice of goex.API the connector needs. Tests swap in a
// stub here instead of hitting Binance.
type tickerSource interface {
	GetTicker(currency goex.CurrencyPair) (*goex.Ticker, error)
}

// BinanceTickerConnector quotes crypto pairs from Binance spot tickers.
// USDT is treated as the USD leg, so only USD and crypto codes are supported.
type BinanceTickerConnector struct {
	exchange tickerSource
	metrics  *providerMetrics
}

func NewBinanceTickerConnector() *BinanceTickerConnector {
	apiConfig := &goex.APIConfig{
		HttpClient: http.DefaultClient,
		Endpoint:   binance.GLOBAL_API_BASE_URL,
	}
	return &BinanceTickerConnector{
		exchange: binance.NewWithConfig(apiConfig),
		metrics:  newProviderMetrics("binance"),
	}
}

func (c *BinanceTickerConnector) Name() string { return "binance" }

func (c *BinanceTickerConnector) Stats() ProviderStats { return c.metrics.snapshot() }

func (c *BinanceTickerConnector) FetchRate(ctx context.Context, from, to model.Currency) (*model.ExchangeRate, error) {
	if from.Code == to.Code {
		return sameCurrencyRate(c.Name(), from.Code), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case from.Kind == model.KindCrypto && isUSDLeg(to):
		rate, elapsed, err := c.lastUSDT(from.Code)
		if err != nil {
			return nil, err
		}
		return c.quote(from.Code, to.Code, rate, elapsed, ""), nil

	case isUSDLeg(from) && to.Kind == model.KindCrypto:
		rate, elapsed, err := c.lastUSDT(to.Code)
		if err != nil {
			return nil, err
		}
		if rate.IsZero() {
			return nil, fmt.Errorf("%s/%s zero ticker: %w", from.Code, to.Code, ErrRateUnavailable)
		}
		inverse := decimal.NewFromInt(1).DivRound(rate, 30)
		return c.quote(from.Code, to.Code, inverse, elapsed, "inverse"), nil

	case from.Kind == model.KindCrypto && to.Kind == model.KindCrypto:
		fromUSDT, e1, err := c.lastUSDT(from.Code)
		if err != nil {
			return nil, err
		}
		toUSDT, e2, err := c.lastUSDT(to.Code)
		if err != nil {
			return nil, err
		}
		if toUSDT.IsZero() {
			return nil, fmt.Errorf("%s/%s zero ticker: %w", from.Code, to.Code, ErrRateUnavailable)
		}
		cross := fromUSDT.DivRound(toUSDT, 30)
		return c.quote(from.Code, to.Code, cross, e1+e2, "cross"), nil

	default:
		return nil, fmt.Errorf("%s/%s: %w", from.Code, to.Code, ErrPairUnsupported)
	}
}

func isUSDLeg(c model.Currency) bool {
	return c.Code == "USD" || c.Code == "USDT"
}

func (c *BinanceTickerConnector) quote(from, to string, rate decimal.Decimal, elapsed time.Duration, derived string) *model.ExchangeRate {
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

func (c *BinanceTickerConnector) lastUSDT(cryptoCode string) (decimal.Decimal, time.Duration, error) {
	if cryptoCode == "USDT" {
		return decimal.NewFromInt(1), 0, nil
	}

	pair := goex.NewCurrencyPair(goex.Currency{Symbol: cryptoCode}, goex.Currency{Symbol: "USDT"})

	start := time.Now()
	ticker, err := c.exchange.GetTicker(pair)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.recordFailure(elapsed)
		return decimal.Zero, elapsed, fmt.Errorf("binance ticker %s/USDT failed: %w", cryptoCode, err)
	}
	if ticker == nil || ticker.Last <= 0 {
		c.metrics.recordFailure(elapsed)
		return decimal.Zero, elapsed, fmt.Errorf("binance ticker %s/USDT empty: %w", cryptoCode, ErrRateUnavailable)
	}

	c.metrics.recordSuccess(elapsed)

	logger.WithFields(logger.Fields{
		"symbol": cryptoCode + "_USDT",
		"last":   ticker.Last,
	}).Debug("binance ticker fetched")

	return decimal.NewFromFloat(ticker.Last), elapsed, nil
}
