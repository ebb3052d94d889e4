package domain

import "time"

// TokenCandidate is an immutable snapshot of a token launch at detection time.
// Created once per launch event, scored, and discarded. Duplicate mints for
// in-flight positions are treated as no-ops by the engine.
type TokenCandidate struct {
	Mint             string      // token mint address (candidate identity)
	Name             string      // token name as published by the creator
	Symbol           string      // token symbol
	Creator          string      // creator wallet address
	InitialLiquidity float64     // quote units in the pool at detection
	Curve            CurveParams // bonding-curve parameters at launch
	DetectedAt       time.Time   // when the launch event was observed
}

// CurveParams holds the bonding-curve shape parameters published at launch.
// Price at supply s is BasePrice + Slope*s; a non-positive slope is not a
// tradeable curve.
type CurveParams struct {
	BasePrice float64 // price at zero supply, quote units
	Slope     float64 // price increase per unit of supply
}
