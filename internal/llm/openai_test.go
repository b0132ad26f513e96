package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider("test-key", server.URL+"/v1", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("NewOpenAIProvider failed: %v", err)
	}
	return p
}

func TestOpenAIGenerate(t *testing.T) {
	var captured map[string]any
	handler := func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-test",
			"model": "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"message":       map[string]any{"role": "assistant", "content": `{"reply":"택배 주소 확인 부탁드립니다."}`},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     40,
				"completion_tokens": 20,
				"total_tokens":      60,
			},
		})
	}

	p := newTestOpenAIProvider(t, handler)
	resp, err := p.Generate(context.Background(), Request{
		System:    "너는 피싱범이다.",
		Messages:  []Message{{Role: RoleUser, Content: "누구세요?"}},
		JSON:      true,
		MaxTokens: 200,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if resp.Content != `{"reply":"택배 주소 확인 부탁드립니다."}` {
		t.Errorf("unexpected content: %s", resp.Content)
	}
	if resp.InputTokens != 40 || resp.OutputTokens != 20 {
		t.Errorf("unexpected usage: %+v", resp)
	}

	// System prompt goes first, then the user turn.
	msgs, _ := captured["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" {
		t.Errorf("expected system role first, got %v", first["role"])
	}
	rf, _ := captured["response_format"].(map[string]any)
	if rf == nil || rf["type"] != "json_object" {
		t.Errorf("expected json_object response format, got %v", captured["response_format"])
	}
}

func TestOpenAIGenerateServerError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}

	p := newTestOpenAIProvider(t, handler)
	_, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var unavailable *ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %T", err)
	}
}

func TestOpenAIRequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIProvider("", "", ""); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestMockProviderFIFO(t *testing.T) {
	m := NewMockProvider(
		MockResponse{Content: "first"},
		MockResponse{Content: "second"},
	)

	for _, want := range []string{"first", "second"} {
		resp, err := m.Generate(context.Background(), Request{})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if resp.Content != want {
			t.Errorf("expected %q, got %q", want, resp.Content)
		}
	}

	if _, err := m.Generate(context.Background(), Request{}); err == nil {
		t.Error("expected error once queue is drained")
	}
	if m.CallCount() != 3 {
		t.Errorf("expected 3 recorded calls, got %d", m.CallCount())
	}
}
