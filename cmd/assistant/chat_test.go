package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-home-assistant/config"
	"smart-home-assistant/internal/application"
)

// fakeGroq answers every chat completion with a control_device call that
// turns on the kitchen lamp.
func fakeGroq(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []map[string]any{{
						"id":   "call_1",
						"type": "function",
						"function": map[string]string{
							"name":      "control_device",
							"arguments": `{"device_type":"lamp","location":"kitchen","action":"on"}`,
						},
					}},
				},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(server.Close)
	return server
}

func testApp(t *testing.T) *app {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.BaseURL = fakeGroq(t).URL

	a, err := newApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return a
}

func TestRunChat(t *testing.T) {
	a := testApp(t)

	in := strings.NewReader("help\nturn on the kitchen lamp\nstatus\nhistory\nquit\nnever read\n")
	var out bytes.Buffer

	runChat(context.Background(), a.assistant, "auto", in, &out)

	got := out.String()
	assert.Contains(t, got, "Type 'help' for commands")
	assert.Contains(t, got, "history  show recent commands")
	assert.Contains(t, got, "✅ Kitchen Lamp turned on")
	assert.Contains(t, got, "Kitchen Lamp (Kitchen): ON 🟢")
	assert.Contains(t, got, "✅  turn on the kitchen lamp")
	assert.Len(t, a.assistant.History(), 1)

	a.shutdown(context.Background())
	assert.Zero(t, a.assistant.Status().PoweredOn)
}

func TestRunChat_EndOfInput(t *testing.T) {
	a := testApp(t)

	var out bytes.Buffer
	runChat(context.Background(), a.assistant, "en", strings.NewReader("history\n"), &out)

	assert.Contains(t, out.String(), "No commands yet.")
}

func TestNewLLMClient_UnknownProvider(t *testing.T) {
	_, err := newLLMClient(config.LLMConfig{Provider: "ollama"})
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.NotNil(t, newNotifier(cfg))

	cfg.Pushover = config.PushoverConfig{Enabled: true, Token: "t", UserKey: "u"}
	cfg.HomeAssistant = config.HomeAssistantConfig{Enabled: true, URL: "http://ha.local:8123", Token: "t"}
	notifiers, ok := newNotifier(cfg).(application.MultiNotifier)
	require.True(t, ok)
	assert.Len(t, notifiers, 2)
}
