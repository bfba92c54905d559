package models

import (
	"strings"
	"time"
)

// DefaultSupportedCurrencies is used when SUPPORTED_CURRENCIES is not configured.
var DefaultSupportedCurrencies = []string{
	"SAR", "EGP", "USD", "EUR", "GBP", "AED", "KWD", "QAR", "BHD", "OMR", "JOD", "TRY",
}

// CurrencySet is a set of recognized ISO-4217 codes.
type CurrencySet map[string]struct{}

// NewCurrencySet builds a set from a list of codes, normalizing case.
func NewCurrencySet(codes []string) CurrencySet {
	set := make(CurrencySet, len(codes))
	for _, c := range codes {
		c = NormalizeCurrency(c)
		if c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}

// Contains reports whether code is a recognized currency.
func (s CurrencySet) Contains(code string) bool {
	_, ok := s[NormalizeCurrency(code)]
	return ok
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ExchangeRateTable maps target currency codes to multipliers relative to Base.
type ExchangeRateTable struct {
	Base      string             `bson:"_id" json:"base"`
	Rates     map[string]float64 `bson:"rates" json:"rates"`
	Provider  string             `bson:"provider,omitempty" json:"provider,omitempty"`
	FetchedAt time.Time          `bson:"fetched_at" json:"fetched_at"`
}

// RateStatus distinguishes live data from fallback data.
type RateStatus string

const (
	RateStatusOK       RateStatus = "ok"
	RateStatusDegraded RateStatus = "degraded"
)

// RateSource tells where a rate table came from.
type RateSource string

const (
	RateSourceCache    RateSource = "cache"
	RateSourceProvider RateSource = "provider"
	RateSourceStored   RateSource = "stored"
	RateSourceNone     RateSource = "none"
)

// RateResult is the response of a rate table lookup.
type RateResult struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	Status    RateStatus         `json:"status"`
	Source    RateSource         `json:"source"`
	Reason    string             `json:"reason,omitempty"`
	FetchedAt *time.Time         `json:"fetched_at,omitempty"`
}

// Degraded reports whether the result is fallback data.
func (r *RateResult) Degraded() bool {
	return r.Status == RateStatusDegraded
}

// ConvertResult is the response of a currency conversion.
type ConvertResult struct {
	From      string     `json:"from"`
	To        string     `json:"to"`
	Amount    float64    `json:"amount"`
	Converted float64    `json:"converted"`
	Rate      float64    `json:"rate"`
	Status    RateStatus `json:"status"`
}
