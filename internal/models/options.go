package models

import (
	"time"
)

// ContractType is call or put.
type ContractType string

const (
	ContractCall ContractType = "call"
	ContractPut  ContractType = "put"
)

// Greeks are the option sensitivities reported by the provider.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

// OptionsContract is immutable once fetched.
type OptionsContract struct {
	Ticker            string       `json:"ticker" validate:"required"`
	Underlying        string       `json:"underlying" validate:"required"`
	Expiration        time.Time    `json:"expiration" validate:"required"`
	Strike            float64      `json:"strike" validate:"gt=0"`
	Type              ContractType `json:"type" validate:"oneof=call put"`
	OpenInterest      *int64       `json:"open_interest,omitempty"`
	ImpliedVolatility *float64     `json:"implied_volatility,omitempty"`
	Greeks            *Greeks      `json:"greeks,omitempty"`
}

// ChainKey returns the (underlying, expiration) grouping key.
func (c OptionsContract) ChainKey() string {
	return c.Underlying + "|" + c.Expiration.Format(DateLayout)
}

// OptionsChain holds every contract for one underlying and expiration,
// each side sorted by strike ascending.
type OptionsChain struct {
	Underlying  string            `json:"underlying"`
	Expiration  string            `json:"expiration"`
	Calls       []OptionsContract `json:"calls"`
	Puts        []OptionsContract `json:"puts"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Key returns the storage key UNDERLYING|YYYY-MM-DD.
func (c OptionsChain) Key() string {
	return c.Underlying + "|" + c.Expiration
}
