package app

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"tokenwatch/internal/alerting"
	"tokenwatch/internal/monitor"
)

// Simulate drives a synthetic random-walk tick sequence through the full
// pipeline: engine ingest, sink, dispatcher, notifier. It exercises the
// configured rules end to end without any external feed.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	if opts.Token == "" {
		return errors.New("a token to simulate is required")
	}
	if opts.StartPrice <= 0 {
		return errors.New("start price must be greater than zero")
	}
	if opts.Steps <= 0 {
		return errors.New("steps must be greater than zero")
	}
	if opts.MaxStepPct <= 0 {
		opts.MaxStepPct = 1.0
	}

	engine, err := a.newEngine()
	if err != nil {
		return err
	}

	if err := engine.Register(opts.Token, opts.ThresholdPct); err != nil {
		engine.Close()
		return err
	}

	dispatcher := alerting.NewDispatcher(a.newNotifier(), nil, a.Logger)
	events, cancel := engine.Subscribe()
	defer cancel()

	fired := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			fired++
			dispatcher.Handle(ctx, ev)
		}
	}()

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	price := opts.StartPrice
	steps := 0
	for ; steps < opts.Steps; steps++ {
		select {
		case <-ctx.Done():
			engine.Close()
			<-done
			return ctx.Err()
		default:
		}

		// Symmetric random walk bounded by the step size.
		price *= 1 + (rng.Float64()*2-1)*opts.MaxStepPct/100
		if err := engine.Ingest(monitor.Tick{Token: opts.Token, Price: price}); err != nil {
			a.Logger.Error().Err(err).Float64("price", price).Msg("simulated tick rejected")
		}
	}

	engine.Close()
	<-done

	a.Logger.Info().
		Str("token", opts.Token).
		Int("steps", steps).
		Int("alerts", fired).
		Uint64("dropped", engine.Dropped()).
		Float64("final_price", price).
		Int64("seed", seed).
		Msg("simulation finished")
	return nil
}
