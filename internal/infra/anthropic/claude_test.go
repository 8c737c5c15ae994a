package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"smart-home-assistant/internal/domain"
	"smart-home-assistant/internal/infra/anthropic"
	"smart-home-assistant/internal/intent"
	"smart-home-assistant/internal/registry"
)

func prompt(text string) intent.Prompt {
	return intent.Prompt{
		System:    "You are a smart home assistant.",
		User:      text,
		Functions: intent.Functions(registry.DefaultInventory().Devices()),
	}
}

func TestClaudeClient_CallFunction(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)

		response := map[string]any{
			"stop_reason": "tool_use",
			"content": []map[string]any{
				{"type": "text", "text": "Turning on the kitchen lamp."},
				{
					"type":  "tool_use",
					"id":    "toolu_1",
					"name":  "control_device",
					"input": map[string]any{"device_type": "lamp", "location": "kitchen", "action": "on"},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL)

	reply, err := client.CallFunction(context.Background(), prompt("turn on kitchen lamp"))
	if err != nil {
		t.Fatalf("CallFunction error: %v", err)
	}

	call, ok := reply.(intent.FunctionCall)
	if !ok {
		t.Fatalf("reply: got %T, want FunctionCall", reply)
	}
	if call.Name != intent.FuncControlDevice {
		t.Errorf("Name: got %s, want control_device", call.Name)
	}
	if call.Args["location"] != "kitchen" {
		t.Errorf("location: got %v, want kitchen", call.Args["location"])
	}

	tools, _ := got["tools"].([]any)
	if len(tools) != 3 {
		t.Fatalf("tools: got %d, want 3", len(tools))
	}
	first, _ := tools[0].(map[string]any)
	if _, ok := first["input_schema"]; !ok {
		t.Errorf("tool definition missing input_schema: %v", first)
	}
}

func TestClaudeClient_FreeText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"stop_reason": "end_turn",
			"content": []map[string]any{
				{"type": "text", "text": "I can only help with your devices."},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL)

	reply, err := client.CallFunction(context.Background(), prompt("tell me a joke"))
	if err != nil {
		t.Fatalf("CallFunction error: %v", err)
	}

	text, ok := reply.(intent.FreeText)
	if !ok || text.Text != "I can only help with your devices." {
		t.Errorf("reply: got %#v", reply)
	}
}

func TestClaudeClient_Translate(t *testing.T) {
	var system string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		system, _ = body["system"].(string)

		response := map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "turn on the kitchen lamp"},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL)

	out, err := client.Translate(context.Background(), "چراغ آشپزخانه را روشن کن", domain.LanguagePersian, domain.LanguageEnglish)
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}

	if out != "turn on the kitchen lamp" {
		t.Errorf("Translate: got %q", out)
	}
	if system == "" {
		t.Error("translation request should carry system instructions")
	}
}

func TestClaudeClient_ClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"invalid_request_error"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL)

	if _, err := client.CallFunction(context.Background(), prompt("turn on kitchen lamp")); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestClaudeClient_CallFunctionIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"type":"overloaded_error"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL)

	if _, err := client.CallFunction(context.Background(), prompt("turn on kitchen lamp")); err == nil {
		t.Fatal("expected error for 503 response")
	}
	if calls.Load() != 1 {
		t.Errorf("calls: got %d, want 1", calls.Load())
	}
}
