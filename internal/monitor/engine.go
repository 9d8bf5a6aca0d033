package monitor

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// Options tune the engine's internal sizing.
type Options struct {
	// Shards is the shard count for both the price store and the registry.
	Shards int
	// SubscriberBuffer is the per-subscriber channel capacity of the sink.
	SubscriberBuffer int
}

// Engine is the ingestion orchestrator: every tick updates the price store,
// runs the token's alert rule, and publishes at most one alert event.
// Updates for different tokens proceed in parallel; updates for the same
// token serialize inside the registry.
type Engine struct {
	store    *PriceStore
	registry *AlertRegistry
	sink     *Sink
	logger   zerolog.Logger
}

// NewEngine constructs an engine with its own store, registry, and sink.
func NewEngine(opts Options, logger zerolog.Logger) *Engine {
	return &Engine{
		store:    NewPriceStore(opts.Shards),
		registry: NewAlertRegistry(opts.Shards),
		sink:     NewSink(opts.SubscriberBuffer),
		logger:   logger.With().Str("component", "engine").Logger(),
	}
}

// Ingest is the single write path for price updates. An invalid price is
// rejected without touching the prior snapshot or the rule state; the feed
// should log and continue. Publishing to the sink happens after all locks
// are released and never blocks ingestion.
func (e *Engine) Ingest(tick Tick) error {
	if tick.Price <= 0 || math.IsInf(tick.Price, 0) || math.IsNaN(tick.Price) {
		return fmt.Errorf("%w: got %v for %q", ErrInvalidPrice, tick.Price, tick.Token)
	}

	observed := tick.ObservedAt
	if observed.IsZero() {
		observed = time.Now().UTC()
	}

	e.store.Upsert(PriceSnapshot{
		Token:      tick.Token,
		Price:      tick.Price,
		ObservedAt: observed,
		Volume24h:  tick.Volume24h,
		Change24h:  tick.Change24h,
	})

	eval, fired := e.registry.EvaluateAndAdvance(tick.Token, tick.Price)
	if !fired {
		return nil
	}

	event := AlertEvent{
		Token:             tick.Token,
		OldReferencePrice: eval.OldReference,
		NewPrice:          tick.Price,
		ChangePercent:     eval.ChangePercent,
		TriggeredAt:       observed,
	}

	e.logger.Debug().
		Str("token", tick.Token).
		Float64("price", tick.Price).
		Float64("change_pct", eval.ChangePercent).
		Msg("threshold crossed")

	e.sink.Publish(event)
	return nil
}

// Register creates or replaces the alert rule for a token.
func (e *Engine) Register(token string, thresholdPct float64) error {
	return e.registry.Register(token, thresholdPct)
}

// Unregister removes monitoring for a token. Effective for future
// evaluations immediately; an event already handed to the sink stays.
func (e *Engine) Unregister(token string) {
	e.registry.Unregister(token)
}

// GetPrice returns the latest known price for a token.
func (e *Engine) GetPrice(token string) (float64, bool) {
	snap, ok := e.store.Get(token)
	if !ok {
		return 0, false
	}
	return snap.Price, true
}

// Snapshot returns the full latest snapshot for a token.
func (e *Engine) Snapshot(token string) (PriceSnapshot, bool) {
	return e.store.Get(token)
}

// KnownTokens returns every token the store has seen.
func (e *Engine) KnownTokens() []string {
	return e.store.Tokens()
}

// MonitoredTokens returns the tokens that carry an active alert rule.
func (e *Engine) MonitoredTokens() []string {
	return e.registry.Tokens()
}

// Rule exposes a copy of a token's rule for inspection.
func (e *Engine) Rule(token string) (AlertRule, bool) {
	return e.registry.Rule(token)
}

// Subscribe attaches an alert consumer to the sink.
func (e *Engine) Subscribe() (<-chan AlertEvent, func()) {
	return e.sink.Subscribe()
}

// Dropped reports events discarded by the sink.
func (e *Engine) Dropped() uint64 {
	return e.sink.Dropped()
}

// Close shuts the sink down, closing every subscriber channel.
func (e *Engine) Close() {
	e.sink.Close()
}
