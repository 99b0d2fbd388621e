package providers

import (
	"context"
	"errors"
	"testing"
)

func TestRegistryFromConfig(t *testing.T) {
	cfg := RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"openrouter": {Type: "openrouter", Model: "test-model", APIKey: "key1", RateLimit: 60, Enabled: true},
			"disabled":   {Type: "openrouter", Model: "test-model", APIKey: "key2", Enabled: false},
			"no-key":     {Type: "openrouter", Model: "test-model", Enabled: true},
			"unknown":    {Type: "carrier-pigeon", APIKey: "key3", Enabled: true},
		},
	}

	r := NewRegistryFromConfig(cfg)

	if !r.Has("openrouter") {
		t.Error("expected openrouter to be registered")
	}
	if r.Has("disabled") {
		t.Error("disabled provider should not be registered")
	}
	if r.Has("no-key") {
		t.Error("provider without API key should not be registered")
	}
	if r.Has("unknown") {
		t.Error("unknown provider type should not be registered")
	}

	client, err := r.Get("openrouter")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if client.Name() != OpenRouterName {
		t.Errorf("expected client name %q, got %q", OpenRouterName, client.Name())
	}

	if _, err := r.Limiter("openrouter"); err != nil {
		t.Errorf("expected limiter for registered client: %v", err)
	}

	if _, err := r.Get("missing"); err == nil {
		t.Error("expected error for missing client")
	}
}

func TestRegistryReload(t *testing.T) {
	r := NewRegistryFromConfig(RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"primary": {Type: "openrouter", Model: "model-a", APIKey: "key", RateLimit: 60, Enabled: true},
		},
	})

	// Change the model and add a second provider.
	r.Reload(RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"primary":   {Type: "openrouter", Model: "model-b", APIKey: "key", RateLimit: 60, Enabled: true},
			"secondary": {Type: "openai", Model: "gpt-4o", APIKey: "key2", RateLimit: 300, Enabled: true},
		},
	})

	client, err := r.Get("primary")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	or, ok := client.(*OpenRouterClient)
	if !ok {
		t.Fatalf("expected *OpenRouterClient, got %T", client)
	}
	if or.defaultModel != "model-b" {
		t.Errorf("expected reloaded model model-b, got %q", or.defaultModel)
	}
	if !r.Has("secondary") {
		t.Error("expected secondary provider after reload")
	}

	// Remove everything.
	r.Reload(RegistryConfig{})
	if len(r.List()) != 0 {
		t.Errorf("expected empty registry after reload, got %v", r.List())
	}
}

func TestRegistryRegisterMock(t *testing.T) {
	r := NewRegistry()
	mock := NewMockClient()
	r.Register("mock", mock)

	client, err := r.Get("mock")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
		Model:    "test",
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if result.Content != "mock response" {
		t.Errorf("unexpected content: %q", result.Content)
	}
}

func TestMockClientScript(t *testing.T) {
	mock := NewMockClient()
	mock.Latency = 0
	mock.Enqueue(
		MockResponse{Err: Transient(errors.New("timeout"))},
		MockResponse{Err: Transient(errors.New("timeout"))},
		MockResponse{Content: `{"ok":true}`},
	)

	ctx := context.Background()
	req := &ChatRequest{Messages: []Message{{Role: "user", Content: "go"}}}

	for i := 0; i < 2; i++ {
		_, err := mock.Chat(ctx, req)
		if !IsTransient(err) {
			t.Fatalf("attempt %d: expected transient error, got %v", i+1, err)
		}
	}

	result, err := mock.Chat(ctx, req)
	if err != nil {
		t.Fatalf("third attempt should succeed: %v", err)
	}
	if result.Content != `{"ok":true}` {
		t.Errorf("unexpected content: %q", result.Content)
	}
	if mock.RequestCount() != 3 {
		t.Errorf("expected 3 requests, got %d", mock.RequestCount())
	}

	// Script exhausted; falls back to ResponseText.
	result, err = mock.Chat(ctx, req)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if result.Content != mock.ResponseText {
		t.Errorf("expected fallback response, got %q", result.Content)
	}
}

func TestRateLimiterContextCancel(t *testing.T) {
	limiter := NewRateLimiter(60)

	// Drain the bucket.
	ctx := context.Background()
	for i := 0; i < 60; i++ {
		if err := limiter.Wait(ctx); err != nil {
			t.Fatalf("Wait failed on warm bucket: %v", err)
		}
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiter.Wait(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
