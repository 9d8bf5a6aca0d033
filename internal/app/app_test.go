package app

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenwatch/internal/alerting"
	"tokenwatch/internal/config"
	"tokenwatch/internal/monitor"
)

func testApp(cfg *config.Config) *App {
	return NewApp(cfg, zerolog.Nop())
}

func TestNewEngineRegistersConfiguredRules(t *testing.T) {
	cfg := &config.Config{
		Rules: []config.RuleConfig{
			{Token: "SOL", ThresholdPct: 2.0},
			{Token: "BTC", ThresholdPct: 0.5},
		},
	}

	engine, err := testApp(cfg).newEngine()
	require.NoError(t, err)
	defer engine.Close()

	assert.ElementsMatch(t, []string{"SOL", "BTC"}, engine.MonitoredTokens())

	rule, ok := engine.Rule("BTC")
	require.True(t, ok)
	assert.Equal(t, 0.5, rule.ThresholdPercent)
}

func TestNewEngineRejectsInvalidRule(t *testing.T) {
	cfg := &config.Config{
		Rules: []config.RuleConfig{{Token: "SOL", ThresholdPct: -1}},
	}

	_, err := testApp(cfg).newEngine()
	assert.ErrorIs(t, err, monitor.ErrInvalidThreshold)
}

func TestNewNotifierDefaultsToLog(t *testing.T) {
	notifier := testApp(&config.Config{}).newNotifier()
	_, isLog := notifier.(*alerting.LogNotifier)
	assert.True(t, isLog)
}

func TestNewNotifierPrefersTelegram(t *testing.T) {
	cfg := &config.Config{}
	cfg.Alerting.Enabled = true
	cfg.Alerting.Telegram = config.TelegramConfig{Enabled: true, BotToken: "token", ChatID: "chat"}

	notifier := testApp(cfg).newNotifier()
	_, isTelegram := notifier.(*alerting.TelegramNotifier)
	assert.True(t, isTelegram)
}

func TestSimulateValidation(t *testing.T) {
	a := testApp(&config.Config{})
	ctx := context.Background()

	assert.Error(t, a.Simulate(ctx, SimulateOptions{Token: "", ThresholdPct: 2, StartPrice: 100, Steps: 10}))
	assert.Error(t, a.Simulate(ctx, SimulateOptions{Token: "SOL", ThresholdPct: 2, StartPrice: 0, Steps: 10}))
	assert.Error(t, a.Simulate(ctx, SimulateOptions{Token: "SOL", ThresholdPct: 2, StartPrice: 100, Steps: 0}))
	assert.ErrorIs(t,
		a.Simulate(ctx, SimulateOptions{Token: "SOL", ThresholdPct: -2, StartPrice: 100, Steps: 10}),
		monitor.ErrInvalidThreshold)
}

func TestSimulateRunsToCompletion(t *testing.T) {
	a := testApp(&config.Config{})

	opts := SimulateOptions{
		Token:        "SOL",
		ThresholdPct: 1000.0,
		StartPrice:   100.0,
		Steps:        50,
		MaxStepPct:   0.5,
		Seed:         42,
	}
	require.NoError(t, a.Simulate(context.Background(), opts))
}
