package model

import "time"

// PriceSnapshot records one resolved token price for dashboard history.
type PriceSnapshot struct {
	ChainID    uint64    `json:"chain_id"`
	Token      string    `json:"token"`
	PriceUSD   float64   `json:"price_usd"`
	ResolvedAt time.Time `json:"resolved_at"`
}
