package alerting

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tokenwatch/internal/monitor"
	"tokenwatch/internal/storage"
)

// Dispatcher is the reference alert consumer: it drains the engine's sink,
// journals each event when a store is configured, and pushes notifications.
// Journal or notifier failures are logged and swallowed so a broken delivery
// channel can never stall the event stream.
type Dispatcher struct {
	notifier Notifier
	journal  storage.AlertJournal
	logger   zerolog.Logger
}

// NewDispatcher constructs a dispatcher. Both notifier and journal may be nil.
func NewDispatcher(notifier Notifier, journal storage.AlertJournal, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		journal:  journal,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Run consumes events until the channel closes or the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context, events <-chan monitor.AlertEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.Handle(ctx, ev)
		}
	}
}

// Handle processes a single alert event.
func (d *Dispatcher) Handle(ctx context.Context, ev monitor.AlertEvent) {
	direction := classifyChange(ev.ChangePercent)

	if d.journal != nil {
		record := storage.AlertRecord{
			Token:          ev.Token,
			ReferencePrice: decimal.NewFromFloat(ev.OldReferencePrice),
			NewPrice:       decimal.NewFromFloat(ev.NewPrice),
			ChangePct:      decimal.NewFromFloat(ev.ChangePercent),
			Direction:      direction,
			TriggeredAt:    ev.TriggeredAt,
		}
		if _, err := d.journal.InsertAlert(ctx, record); err != nil {
			d.logger.Error().Err(err).Str("token", ev.Token).Msg("failed to journal alert")
		}
	}

	if d.notifier != nil {
		note := Notification{
			Token:          ev.Token,
			ReferencePrice: decimal.NewFromFloat(ev.OldReferencePrice),
			NewPrice:       decimal.NewFromFloat(ev.NewPrice),
			ChangePct:      decimal.NewFromFloat(ev.ChangePercent),
			Direction:      direction,
			TriggeredAt:    ev.TriggeredAt,
		}
		if err := d.notifier.Notify(ctx, note); err != nil {
			d.logger.Error().Err(err).Str("token", ev.Token).Msg("failed to dispatch alert")
		}
	}
}

func classifyChange(changePct float64) string {
	switch {
	case changePct > 0:
		return "up"
	case changePct < 0:
		return "down"
	default:
		return "flat"
	}
}
