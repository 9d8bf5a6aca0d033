package monitor

import (
	"fmt"
	"math"
	"sync"
)

// AlertRegistry maps tokens to alert rules. Rules for one token always live
// in the same shard, and the shard mutex is held across the whole
// evaluate-and-advance sequence, so evaluation is atomic per token while
// unrelated tokens proceed in parallel.
type AlertRegistry struct {
	shards []ruleShard
}

type ruleShard struct {
	mu    sync.Mutex
	rules map[string]*AlertRule
}

// NewAlertRegistry constructs a registry with the given shard count.
func NewAlertRegistry(shardCount int) *AlertRegistry {
	if shardCount <= 0 {
		shardCount = defaultShardCount
	}
	shards := make([]ruleShard, shardCount)
	for i := range shards {
		shards[i].rules = make(map[string]*AlertRule)
	}
	return &AlertRegistry{shards: shards}
}

func (r *AlertRegistry) shard(token string) *ruleShard {
	return &r.shards[shardIndex(token, len(r.shards))]
}

// Register creates or replaces the rule for a token. Re-registering discards
// the prior reference price, so the next ingest re-seeds the baseline.
func (r *AlertRegistry) Register(token string, thresholdPct float64) error {
	if thresholdPct <= 0 || math.IsInf(thresholdPct, 0) || math.IsNaN(thresholdPct) {
		return fmt.Errorf("%w: got %v for %q", ErrInvalidThreshold, thresholdPct, token)
	}

	shard := r.shard(token)
	shard.mu.Lock()
	shard.rules[token] = &AlertRule{
		Token:            token,
		ThresholdPercent: thresholdPct,
		Active:           true,
	}
	shard.mu.Unlock()
	return nil
}

// Unregister removes the rule for a token. Removing an unknown token is a no-op.
func (r *AlertRegistry) Unregister(token string) {
	shard := r.shard(token)
	shard.mu.Lock()
	delete(shard.rules, token)
	shard.mu.Unlock()
}

// Evaluation describes a threshold breach.
type Evaluation struct {
	ChangePercent float64
	OldReference  float64
}

// EvaluateAndAdvance runs the threshold check for one price update.
// The first observation after registration seeds the reference price and
// never fires. A breach re-baselines the reference to the triggering price,
// so later alerts measure from the last alert point rather than an
// ever-stale origin.
func (r *AlertRegistry) EvaluateAndAdvance(token string, newPrice float64) (Evaluation, bool) {
	shard := r.shard(token)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	rule, ok := shard.rules[token]
	if !ok || !rule.Active {
		return Evaluation{}, false
	}

	if rule.ReferencePrice == 0 {
		rule.ReferencePrice = newPrice
		return Evaluation{}, false
	}

	changePct := (newPrice - rule.ReferencePrice) / rule.ReferencePrice * 100
	if math.Abs(changePct) >= rule.ThresholdPercent {
		oldRef := rule.ReferencePrice
		rule.ReferencePrice = newPrice
		return Evaluation{ChangePercent: changePct, OldReference: oldRef}, true
	}

	return Evaluation{}, false
}

// Tokens returns the tokens that currently carry an active rule.
func (r *AlertRegistry) Tokens() []string {
	tokens := make([]string, 0)
	for i := range r.shards {
		shard := &r.shards[i]
		shard.mu.Lock()
		for token := range shard.rules {
			tokens = append(tokens, token)
		}
		shard.mu.Unlock()
	}
	return tokens
}

// Rule returns a copy of the current rule for a token.
func (r *AlertRegistry) Rule(token string) (AlertRule, bool) {
	shard := r.shard(token)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	rule, ok := shard.rules[token]
	if !ok {
		return AlertRule{}, false
	}
	return *rule, true
}
