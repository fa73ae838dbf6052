package connectors

// Test index:
//  1. TestStaticDirectAndDerived validates direct, inverse, and cross quotes.
//  2. TestStaticSameCurrency ensures FROM==TO always returns one.
//  3. TestStaticUnknownCurrency errors on codes outside the table.
//  4. TestStaticRejectsBadTable ensures malformed tables fail construction.

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// TestStaticDirectAndDerived validates direct, inverse, and cross quotes.
func TestStaticDirectAndDerived(t *testing.T) {
	connector, err := NewStaticConnector(map[string]string{
		"USD": "1",
		"EUR": "1.25",
		"GBP": "2.5",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	cases := []struct {
		name    string
		from    string
		to      string
		rate    string
		derived string
	}{
		{name: "direct to USD", from: "EUR", to: "USD", rate: "1.25", derived: ""},
		{name: "inverse from USD", from: "USD", to: "EUR", rate: "0.8", derived: "inverse"},
		{name: "cross", from: "GBP", to: "EUR", rate: "2", derived: "cross"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rate, err := connector.FetchRate(context.Background(), fiat(tc.from), fiat(tc.to))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected, _ := decimal.NewFromString(tc.rate)
			if !rate.Rate.Equal(expected) {
				t.Fatalf("expected rate %s, got %s", tc.rate, rate.Rate.String())
			}
			if rate.Metadata.Derived != tc.derived {
				t.Fatalf("expected derived %q, got %q", tc.derived, rate.Metadata.Derived)
			}
			if rate.Metadata.Source != "static" {
				t.Fatalf("unexpected source: %s", rate.Metadata.Source)
			}
		})
	}
}

// TestStaticSameCurrency ensures FROM==TO always returns one.
func TestStaticSameCurrency(t *testing.T) {
	connector := MustNewStaticConnector()

	rate, err := connector.FetchRate(context.Background(), crypto("BTC"), crypto("BTC"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rate.Rate.String() != "1" {
		t.Fatalf("expected rate 1, got %s", rate.Rate.String())
	}
}

// TestStaticUnknownCurrency errors on codes outside the table.
func TestStaticUnknownCurrency(t *testing.T) {
	connector := MustNewStaticConnector()

	_, err := connector.FetchRate(context.Background(), fiat("ZZZ"), fiat("USD"))
	if !errors.Is(err, ErrPairUnsupported) {
		t.Fatalf("expected ErrPairUnsupported, got %v", err)
	}
}

// TestStaticRejectsBadTable ensures malformed tables fail construction.
func TestStaticRejectsBadTable(t *testing.T) {
	if _, err := NewStaticConnector(map[string]string{"USD": "not-a-number"}); err == nil {
		t.Fatalf("expected error for malformed rate")
	}
	if _, err := NewStaticConnector(map[string]string{"USD": "-1"}); err == nil {
		t.Fatalf("expected error for negative rate")
	}
}
