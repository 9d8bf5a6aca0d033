package monitor

import (
	"hash/fnv"
	"sync"
)

const defaultShardCount = 16

// PriceStore keeps the latest snapshot per token in a sharded map so that
// updates for different tokens rarely contend on the same mutex.
type PriceStore struct {
	shards []priceShard
}

type priceShard struct {
	mu        sync.RWMutex
	snapshots map[string]PriceSnapshot
}

// NewPriceStore constructs a store with the given shard count.
// A count of zero or less falls back to the default.
func NewPriceStore(shardCount int) *PriceStore {
	if shardCount <= 0 {
		shardCount = defaultShardCount
	}
	shards := make([]priceShard, shardCount)
	for i := range shards {
		shards[i].snapshots = make(map[string]PriceSnapshot)
	}
	return &PriceStore{shards: shards}
}

func shardIndex(token string, count int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(count))
}

func (s *PriceStore) shard(token string) *priceShard {
	return &s.shards[shardIndex(token, len(s.shards))]
}

// Upsert replaces the stored snapshot for the tick's token.
func (s *PriceStore) Upsert(snap PriceSnapshot) {
	shard := s.shard(snap.Token)
	shard.mu.Lock()
	shard.snapshots[snap.Token] = snap
	shard.mu.Unlock()
}

// Get returns the latest snapshot for a token, if one was ever observed.
func (s *PriceStore) Get(token string) (PriceSnapshot, bool) {
	shard := s.shard(token)
	shard.mu.RLock()
	snap, ok := shard.snapshots[token]
	shard.mu.RUnlock()
	return snap, ok
}

// Tokens returns the currently known tokens. The view is weakly consistent:
// it may omit a token added mid-call or include one removed mid-call, but
// never yields a corrupted entry.
func (s *PriceStore) Tokens() []string {
	tokens := make([]string, 0)
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.RLock()
		for token := range shard.snapshots {
			tokens = append(tokens, token)
		}
		shard.mu.RUnlock()
	}
	return tokens
}
