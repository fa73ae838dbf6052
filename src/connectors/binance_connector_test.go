package connectors

// Test index:
//  1. TestBinanceCryptoToUSD checks the direct USDT ticker path.
//  2. TestBinanceUSDToCrypto validates the inverted quote.
//  3. TestBinanceCryptoCross covers the USDT cross between two coins.
//  4. TestBinanceRejectsFiatPair refuses non-USD fiat legs.
//  5. TestBinanceTickerFailure records failures and propagates the error.

import (
	"context"
	"errors"
	"testing"

	"github.com/nntaoli-project/goex"
	"github.com/shopspring/decimal"
)

type stubTickerSource struct {
	last map[string]float64
	err  error
}

func (s *stubTickerSource) GetTicker(currency goex.CurrencyPair) (*goex.Ticker, error) {
	if s.err != nil {
		return nil, s.err
	}
	last, ok := s.last[currency.CurrencyA.Symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	return &goex.Ticker{Pair: currency, Last: last}, nil
}

func newTestBinanceConnector(stub *stubTickerSource) *BinanceTickerConnector {
	return &BinanceTickerConnector{
		exchange: stub,
		metrics:  newProviderMetrics("binance"),
	}
}

// TestBinanceCryptoToUSD checks the direct USDT ticker path.
func TestBinanceCryptoToUSD(t *testing.T) {
	connector := newTestBinanceConnector(&stubTickerSource{last: map[string]float64{"BTC": 45000}})

	rate, err := connector.FetchRate(context.Background(), crypto("BTC"), fiat("USD"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rate.Rate.String() != "45000" {
		t.Fatalf("expected rate 45000, got %s", rate.Rate.String())
	}
}

// TestBinanceUSDToCrypto validates the inverted quote.
func TestBinanceUSDToCrypto(t *testing.T) {
	connector := newTestBinanceConnector(&stubTickerSource{last: map[string]float64{"BTC": 45000}})

	rate, err := connector.FetchRate(context.Background(), fiat("USD"), crypto("BTC"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	expected := decimal.NewFromInt(1).DivRound(decimal.NewFromInt(45000), 30)
	if !rate.Rate.Equal(expected) {
		t.Fatalf("expected inverse rate %s, got %s", expected.String(), rate.Rate.String())
	}
	if rate.Metadata.Derived != "inverse" {
		t.Fatalf("expected derived=inverse, got %q", rate.Metadata.Derived)
	}
}

// TestBinanceCryptoCross covers the USDT cross between two coins.
func TestBinanceCryptoCross(t *testing.T) {
	connector := newTestBinanceConnector(&stubTickerSource{last: map[string]float64{"BTC": 45000, "ETH": 2500}})

	rate, err := connector.FetchRate(context.Background(), crypto("BTC"), crypto("ETH"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	expected := decimal.NewFromInt(45000).DivRound(decimal.NewFromInt(2500), 30)
	if !rate.Rate.Equal(expected) {
		t.Fatalf("expected cross rate %s, got %s", expected.String(), rate.Rate.String())
	}
	if rate.Metadata.Derived != "cross" {
		t.Fatalf("expected derived=cross, got %q", rate.Metadata.Derived)
	}
}

// TestBinanceRejectsFiatPair refuses non-USD fiat legs.
func TestBinanceRejectsFiatPair(t *testing.T) {
	connector := newTestBinanceConnector(&stubTickerSource{})

	_, err := connector.FetchRate(context.Background(), fiat("EUR"), crypto("BTC"))
	if !errors.Is(err, ErrPairUnsupported) {
		t.Fatalf("expected ErrPairUnsupported, got %v", err)
	}
}

// TestBinanceTickerFailure records failures and propagates the error.
func TestBinanceTickerFailure(t *testing.T) {
	connector := newTestBinanceConnector(&stubTickerSource{err: errors.New("exchange down")})

	if _, err := connector.FetchRate(context.Background(), crypto("BTC"), fiat("USD")); err == nil {
		t.Fatalf("expected error when ticker fails")
	}

	stats := connector.Stats()
	if stats.Errors != 1 || stats.Requests != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
