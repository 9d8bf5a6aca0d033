package monitor

import (
	"errors"
	"time"
)

var (
	// ErrInvalidPrice rejects ingestion of non-positive or non-finite prices.
	ErrInvalidPrice = errors.New("monitor: price must be positive and finite")
	// ErrInvalidThreshold rejects rule registration with a non-positive or non-finite threshold.
	ErrInvalidThreshold = errors.New("monitor: threshold must be positive and finite")
)

// Tick is a single price update pushed in by a feed collaborator.
type Tick struct {
	Token      string
	Price      float64
	ObservedAt time.Time
	Volume24h  *float64
	Change24h  *float64
}

// PriceSnapshot is the latest known price record for a token.
// Each ingest replaces the prior snapshot; no history is retained.
type PriceSnapshot struct {
	Token      string
	Price      float64
	ObservedAt time.Time
	Volume24h  *float64
	Change24h  *float64
}

// AlertRule holds a token's percentage-change threshold and its moving baseline.
// A ReferencePrice of zero means the rule is awaiting its first observation.
type AlertRule struct {
	Token            string
	ThresholdPercent float64
	ReferencePrice   float64
	Active           bool
}

// AlertEvent records a threshold breach. Ephemeral: handed to the sink,
// never retained by the engine.
type AlertEvent struct {
	Token             string
	OldReferencePrice float64
	NewPrice          float64
	ChangePercent     float64
	TriggeredAt       time.Time
}
