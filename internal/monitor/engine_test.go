package monitor

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(Options{Shards: 8, SubscriberBuffer: 1024}, zerolog.Nop())
}

func TestIngestValidation(t *testing.T) {
	engine := newTestEngine()
	defer engine.Close()

	require.NoError(t, engine.Ingest(Tick{Token: "SOL", Price: 100.0}))

	for _, price := range []float64{0, -1.0, math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := engine.Ingest(Tick{Token: "SOL", Price: price})
		assert.ErrorIs(t, err, ErrInvalidPrice)
	}

	// Rejected ticks leave the prior snapshot intact.
	price, ok := engine.GetPrice("SOL")
	require.True(t, ok)
	assert.Equal(t, 100.0, price)
}

func TestIngestStampsObservationTime(t *testing.T) {
	engine := newTestEngine()
	defer engine.Close()

	before := time.Now().UTC()
	require.NoError(t, engine.Ingest(Tick{Token: "SOL", Price: 100.0}))

	snap, ok := engine.Snapshot("SOL")
	require.True(t, ok)
	assert.False(t, snap.ObservedAt.Before(before))

	observed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, engine.Ingest(Tick{Token: "SOL", Price: 101.0, ObservedAt: observed}))
	snap, _ = engine.Snapshot("SOL")
	assert.Equal(t, observed, snap.ObservedAt)
}

func TestAlertLifecycle(t *testing.T) {
	engine := newTestEngine()
	defer engine.Close()

	events, cancel := engine.Subscribe()
	defer cancel()

	require.NoError(t, engine.Register("SOL", 2.0))
	assert.Equal(t, []string{"SOL"}, engine.MonitoredTokens())

	// Baseline seeding: the first tick never fires, whatever the price.
	require.NoError(t, engine.Ingest(Tick{Token: "SOL", Price: 100.0}))
	price, ok := engine.GetPrice("SOL")
	require.True(t, ok)
	assert.Equal(t, 100.0, price)
	assert.Empty(t, events)

	// 1% move stays below the 2% threshold.
	require.NoError(t, engine.Ingest(Tick{Token: "SOL", Price: 101.0}))
	assert.Empty(t, events)

	// 3% move from the baseline fires exactly once and re-baselines.
	require.NoError(t, engine.Ingest(Tick{Token: "SOL", Price: 103.0}))
	require.Len(t, events, 1)
	ev := <-events
	assert.Equal(t, "SOL", ev.Token)
	assert.Equal(t, 100.0, ev.OldReferencePrice)
	assert.Equal(t, 103.0, ev.NewPrice)
	assert.InDelta(t, 3.0, ev.ChangePercent, 0.0001)
	assert.False(t, ev.TriggeredAt.IsZero())

	// Measured from the new 103 baseline, 104 is below threshold.
	require.NoError(t, engine.Ingest(Tick{Token: "SOL", Price: 104.0}))
	assert.Empty(t, events)

	engine.Unregister("SOL")
	assert.Empty(t, engine.MonitoredTokens())

	// Prices keep flowing into the store after unregistration.
	require.NoError(t, engine.Ingest(Tick{Token: "SOL", Price: 200.0}))
	assert.Empty(t, events)
	price, _ = engine.GetPrice("SOL")
	assert.Equal(t, 200.0, price)
}

func TestIngestWithoutSubscriberCountsDrop(t *testing.T) {
	engine := newTestEngine()
	defer engine.Close()

	require.NoError(t, engine.Register("SOL", 1.0))
	require.NoError(t, engine.Ingest(Tick{Token: "SOL", Price: 100.0}))
	require.NoError(t, engine.Ingest(Tick{Token: "SOL", Price: 110.0}))

	assert.Equal(t, uint64(1), engine.Dropped())
}

func TestKnownVersusMonitoredTokens(t *testing.T) {
	engine := newTestEngine()
	defer engine.Close()

	require.NoError(t, engine.Register("SOL", 2.0))
	require.NoError(t, engine.Ingest(Tick{Token: "BTC", Price: 97234.0}))

	assert.Equal(t, []string{"SOL"}, engine.MonitoredTokens())
	assert.Equal(t, []string{"BTC"}, engine.KnownTokens())
}

// Two concurrent ingests must never both observe the same stale reference
// and both fire. Every goroutine pushes the same crossing price, so a lost
// update would show up as a second alert.
func TestConcurrentIngestFiresOnce(t *testing.T) {
	const workers = 64

	for run := 0; run < 50; run++ {
		engine := newTestEngine()
		events, cancel := engine.Subscribe()

		require.NoError(t, engine.Register("SOL", 2.0))
		require.NoError(t, engine.Ingest(Tick{Token: "SOL", Price: 100.0}))

		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_ = engine.Ingest(Tick{Token: "SOL", Price: 103.0})
			}()
		}
		close(start)
		wg.Wait()
		engine.Close()

		fired := 0
		for range events {
			fired++
		}
		require.Equal(t, 1, fired, "run %d: expected exactly one alert", run)
		assert.Zero(t, engine.Dropped())
		cancel()
	}
}

// Strictly increasing prices where only one tick crosses the threshold:
// small moves stay within 10% of the seed, the outlier doubles it. Whatever
// the interleaving, exactly one alert is correct.
func TestConcurrentIngestIncreasingPrices(t *testing.T) {
	const workers = 100

	for run := 0; run < 20; run++ {
		engine := newTestEngine()
		events, cancel := engine.Subscribe()

		require.NoError(t, engine.Register("SOL", 50.0))
		require.NoError(t, engine.Ingest(Tick{Token: "SOL", Price: 100.0}))

		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				<-start
				_ = engine.Ingest(Tick{Token: "SOL", Price: 100.0 + float64(n+1)/10})
			}(i)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_ = engine.Ingest(Tick{Token: "SOL", Price: 200.0})
		}()
		close(start)
		wg.Wait()
		engine.Close()

		fired := 0
		for range events {
			fired++
		}
		require.Equal(t, 1, fired, "run %d: expected exactly one alert", run)
		cancel()
	}
}

// Independent tokens should not perturb each other's rule state under load.
func TestConcurrentIngestAcrossTokens(t *testing.T) {
	engine := NewEngine(Options{Shards: 8, SubscriberBuffer: 4096}, zerolog.Nop())
	events, cancel := engine.Subscribe()
	defer cancel()

	tokens := []string{"SOL", "BTC", "ETH", "AVAX", "DOT", "LINK"}
	for _, token := range tokens {
		require.NoError(t, engine.Register(token, 5.0))
		require.NoError(t, engine.Ingest(Tick{Token: token, Price: 100.0}))
	}

	var wg sync.WaitGroup
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			// 2% oscillation never crosses the 5% threshold.
			for i := 0; i < 200; i++ {
				price := 100.0
				if i%2 == 0 {
					price = 102.0
				}
				_ = engine.Ingest(Tick{Token: token, Price: price})
			}
			// One 10% jump fires exactly once per token.
			_ = engine.Ingest(Tick{Token: token, Price: 110.0})
		}(token)
	}
	wg.Wait()
	engine.Close()

	perToken := make(map[string]int)
	for ev := range events {
		perToken[ev.Token]++
	}
	for _, token := range tokens {
		assert.Equal(t, 1, perToken[token], "token %s", token)
	}
}
