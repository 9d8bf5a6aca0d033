package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(token string) AlertEvent {
	return AlertEvent{Token: token, NewPrice: 1, TriggeredAt: time.Now().UTC()}
}

func TestSinkDropsWithoutSubscriber(t *testing.T) {
	sink := NewSink(4)
	sink.Publish(testEvent("SOL"))
	assert.Equal(t, uint64(1), sink.Dropped())
}

func TestSinkDeliversToSubscribers(t *testing.T) {
	sink := NewSink(4)
	first, cancelFirst := sink.Subscribe()
	second, cancelSecond := sink.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	sink.Publish(testEvent("SOL"))

	assert.Equal(t, "SOL", (<-first).Token)
	assert.Equal(t, "SOL", (<-second).Token)
	assert.Zero(t, sink.Dropped())
}

func TestSinkDropsWhenSubscriberFull(t *testing.T) {
	sink := NewSink(1)
	events, cancel := sink.Subscribe()
	defer cancel()

	sink.Publish(testEvent("SOL"))
	sink.Publish(testEvent("BTC"))

	assert.Equal(t, uint64(1), sink.Dropped())
	assert.Equal(t, "SOL", (<-events).Token)
}

func TestSinkCancelClosesChannel(t *testing.T) {
	sink := NewSink(4)
	events, cancel := sink.Subscribe()

	cancel()
	_, open := <-events
	assert.False(t, open)

	// Cancel is safe to call twice.
	cancel()

	// A detached subscriber no longer receives; the publish is a drop.
	sink.Publish(testEvent("SOL"))
	assert.Equal(t, uint64(1), sink.Dropped())
}

func TestSinkClose(t *testing.T) {
	sink := NewSink(4)
	events, cancel := sink.Subscribe()
	defer cancel()

	sink.Publish(testEvent("SOL"))
	sink.Close()

	ev, open := <-events
	require.True(t, open)
	assert.Equal(t, "SOL", ev.Token)

	_, open = <-events
	assert.False(t, open)

	// Subscribing after close yields an already-closed channel.
	late, lateCancel := sink.Subscribe()
	defer lateCancel()
	_, open = <-late
	assert.False(t, open)

	sink.Publish(testEvent("BTC"))
	assert.Equal(t, uint64(1), sink.Dropped())
}
