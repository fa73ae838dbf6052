package model

import (
	"fmt"
	"strings"
)

// CurrencyKind classifies a currency.
type CurrencyKind string

const (
	KindFiat      CurrencyKind = "fiat"
	KindCrypto    CurrencyKind = "crypto"
	KindCommodity CurrencyKind = "commodity"
)

// Currency describes one supported currency. The set is seeded once at
// startup and never mutated afterwards.
type Currency struct {
	Code          string       `json:"code"` // 3-6 chars, unique
	Name          string       `json:"name"`
	Symbol        string       `json:"symbol"`
	Kind          CurrencyKind `json:"kind"`
	DecimalPlaces int32        `json:"decimal_places"` // display rounding granularity
	Active        bool         `json:"is_active"`
	Country       string       `json:"country,omitempty"`
}

// CurrencySet is a read-only lookup over the seeded currencies.
type CurrencySet struct {
	byCode map[string]Currency
	order  []string
}

// NewCurrencySet validates and indexes the given currencies.
func NewCurrencySet(currencies []Currency) (*CurrencySet, error) {
	set := &CurrencySet{byCode: make(map[string]Currency, len(currencies))}

	for _, c := range currencies {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if len(code) < 3 || len(code) > 6 {
			return nil, fmt.Errorf("invalid currency code %q: must be 3-6 characters", c.Code)
		}
		if _, exists := set.byCode[code]; exists {
			return nil, fmt.Errorf("duplicate currency code %q", code)
		}
		c.Code = code
		set.byCode[code] = c
		set.order = append(set.order, code)
	}

	return set, nil
}

// Get returns the currency for code (case-insensitive) if it is supported.
func (s *CurrencySet) Get(code string) (Currency, bool) {
	c, ok := s.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// Supports reports whether code belongs to the set and is active.
func (s *CurrencySet) Supports(code string) bool {
	c, ok := s.Get(code)
	return ok && c.Active
}

// All returns the active currencies in seed order.
func (s *CurrencySet) All() []Currency {
	out := make([]Currency, 0, len(s.order))
	for _, code := range s.order {
		if c := s.byCode[code]; c.Active {
			out = append(out, c)
		}
	}
	return out
}

// Fiat returns the active fiat currency codes in seed order.
func (s *CurrencySet) Fiat() []string {
	return s.codesOfKind(KindFiat)
}

// Crypto returns the active cryptocurrency codes in seed order.
func (s *CurrencySet) Crypto() []string {
	return s.codesOfKind(KindCrypto)
}

func (s *CurrencySet) codesOfKind(kind CurrencyKind) []string {
	var out []string
	for _, code := range s.order {
		if c := s.byCode[code]; c.Active && c.Kind == kind {
			out = append(out, code)
		}
	}
	return out
}

// SeedCurrencies returns the built-in currency list: the major fiat
// currencies plus the large-cap cryptocurrencies the crypto connectors
// can quote.
func SeedCurrencies() []Currency {
	return []Currency{
		{Code: "USD", Name: "US Dollar", Symbol: "$", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "United States"},
		{Code: "EUR", Name: "Euro", Symbol: "€", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "European Union"},
		{Code: "GBP", Name: "British Pound", Symbol: "£", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "United Kingdom"},
		{Code: "JPY", Name: "Japanese Yen", Symbol: "¥", Kind: KindFiat, DecimalPlaces: 0, Active: true, Country: "Japan"},
		{Code: "CHF", Name: "Swiss Franc", Symbol: "CHF", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "Switzerland"},
		{Code: "CAD", Name: "Canadian Dollar", Symbol: "C$", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "Canada"},
		{Code: "AUD", Name: "Australian Dollar", Symbol: "A$", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "Australia"},
		{Code: "NZD", Name: "New Zealand Dollar", Symbol: "NZ$", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "New Zealand"},
		{Code: "SEK", Name: "Swedish Krona", Symbol: "kr", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "Sweden"},
		{Code: "NOK", Name: "Norwegian Krone", Symbol: "kr", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "Norway"},
		{Code: "DKK", Name: "Danish Krone", Symbol: "kr", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "Denmark"},
		{Code: "PLN", Name: "Polish Zloty", Symbol: "zł", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "Poland"},
		{Code: "CZK", Name: "Czech Koruna", Symbol: "Kč", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "Czech Republic"},
		{Code: "HUF", Name: "Hungarian Forint", Symbol: "Ft", Kind: KindFiat, DecimalPlaces: 0, Active: true, Country: "Hungary"},
		{Code: "BGN", Name: "Bulgarian Lev", Symbol: "лв", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "Bulgaria"},
		{Code: "RON", Name: "Romanian Leu", Symbol: "lei", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "Romania"},
		{Code: "CNY", Name: "Chinese Yuan", Symbol: "¥", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "China"},
		{Code: "INR", Name: "Indian Rupee", Symbol: "₹", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "India"},
		{Code: "BRL", Name: "Brazilian Real", Symbol: "R$", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "Brazil"},
		{Code: "MXN", Name: "Mexican Peso", Symbol: "$", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "Mexico"},
		{Code: "ZAR", Name: "South African Rand", Symbol: "R", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "South Africa"},
		{Code: "SGD", Name: "Singapore Dollar", Symbol: "S$", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "Singapore"},
		{Code: "HKD", Name: "Hong Kong Dollar", Symbol: "HK$", Kind: KindFiat, DecimalPlaces: 2, Active: true, Country: "Hong Kong"},

		{Code: "BTC", Name: "Bitcoin", Symbol: "₿", Kind: KindCrypto, DecimalPlaces: 8, Active: true},
		{Code: "ETH", Name: "Ethereum", Symbol: "Ξ", Kind: KindCrypto, DecimalPlaces: 8, Active: true},
		{Code: "ADA", Name: "Cardano", Symbol: "₳", Kind: KindCrypto, DecimalPlaces: 8, Active: true},
		{Code: "DOT", Name: "Polkadot", Symbol: "DOT", Kind: KindCrypto, DecimalPlaces: 8, Active: true},
		{Code: "SOL", Name: "Solana", Symbol: "SOL", Kind: KindCrypto, DecimalPlaces: 8, Active: true},
		{Code: "MATIC", Name: "Polygon", Symbol: "MATIC", Kind: KindCrypto, DecimalPlaces: 8, Active: true},
		{Code: "AVAX", Name: "Avalanche", Symbol: "AVAX", Kind: KindCrypto, DecimalPlaces: 8, Active: true},
		{Code: "LINK", Name: "Chainlink", Symbol: "LINK", Kind: KindCrypto, DecimalPlaces: 8, Active: true},
		{Code: "UNI", Name: "Uniswap", Symbol: "UNI", Kind: KindCrypto, DecimalPlaces: 8, Active: true},
		{Code: "LTC", Name: "Litecoin", Symbol: "Ł", Kind: KindCrypto, DecimalPlaces: 8, Active: true},
	}
}

// MustSeedCurrencySet builds the default set. Panics only on a broken seed
// table, which is a programming error.
func MustSeedCurrencySet() *CurrencySet {
	set, err := NewCurrencySet(SeedCurrencies())
	if err != nil {
		panic(fmt.Errorf("invalid currency seed: %w", err))
	}
	return set
}
