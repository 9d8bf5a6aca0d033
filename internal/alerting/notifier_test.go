package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotification() Notification {
	return Notification{
		Token:          "SOL",
		ReferencePrice: decimal.NewFromInt(100),
		NewPrice:       decimal.NewFromInt(103),
		ChangePct:      decimal.NewFromFloat(3.0),
		Direction:      "up",
		TriggeredAt:    time.Now().UTC(),
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "sendMessage")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())
	require.NoError(t, notifier.Notify(context.Background(), testNotification()))

	assert.Equal(t, "chat", received["chat_id"])
	assert.Contains(t, received["text"], "SOL")
	assert.Contains(t, received["text"], "3.000%")
}

func TestTelegramNotifierNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())
	assert.Error(t, notifier.Notify(context.Background(), testNotification()))
}

func TestTelegramNotifierHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())
	err := notifier.Notify(context.Background(), testNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestRenderMessage(t *testing.T) {
	text := renderMessage(testNotification())
	for _, want := range []string{"SOL", "up", "100.0000", "103.0000", "3.000%"} {
		assert.True(t, strings.Contains(text, want), "message should contain %q: %s", want, text)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf strings.Builder
	notifier := NewLogNotifier(zerolog.New(&buf))

	require.NoError(t, notifier.Notify(context.Background(), testNotification()))
	assert.Contains(t, buf.String(), `"token":"SOL"`)
	assert.Contains(t, buf.String(), "price alert")
}
