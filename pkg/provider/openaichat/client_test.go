package openaichat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/askframe/askframe/pkg/dataset"
	"github.com/askframe/askframe/pkg/provider"
)

func chatResponse(content string) ChatCompletionResponse {
	return ChatCompletionResponse{
		ID:    "chatcmpl-test",
		Model: "test-model",
		Choices: []ChatChoice{
			{Message: ChatMessage{Role: "assistant", Content: content}, FinishReason: "stop"},
		},
	}
}

func generationRequest() *provider.GenerationRequest {
	return &provider.GenerationRequest{
		Profile: provider.DatasetProfile{
			Name:     "sales",
			Schema:   []dataset.ColumnSpec{{Name: "amount", Type: dataset.TypeNumeric}},
			RowCount: 10,
		},
		Question: "total amount?",
	}
}

func TestGenerateScript(t *testing.T) {
	var captured ChatCompletionRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(chatResponse("```python\nresult = sum(df[\"amount\"])\n```"))
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, APIKey: "sk-test", Model: "test-model"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	code, err := client.GenerateScript(context.Background(), generationRequest())
	if err != nil {
		t.Fatalf("GenerateScript: %v", err)
	}
	if code != `result = sum(df["amount"])` {
		t.Errorf("code = %q, fences not stripped", code)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("authorization = %q", auth)
	}
	if captured.Model != "test-model" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.Temperature == nil || *captured.Temperature != 0.1 {
		t.Errorf("generation temperature = %v, want 0.1", captured.Temperature)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Errorf("messages = %+v, want system then user", captured.Messages)
	}
	if !strings.Contains(captured.Messages[1].Content, "total amount?") {
		t.Error("user prompt does not carry the question")
	}
}

func TestInterpretResult(t *testing.T) {
	var captured ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(chatResponse("  The total is 4500.  "))
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text, err := client.InterpretResult(context.Background(), &provider.InterpretationRequest{
		Question:          "total?",
		Script:            "result = 4500",
		ResultDescription: "4500",
	})
	if err != nil {
		t.Fatalf("InterpretResult: %v", err)
	}
	if text != "The total is 4500." {
		t.Errorf("text = %q, want trimmed explanation", text)
	}
	if captured.Temperature == nil || *captured.Temperature != 0.3 {
		t.Errorf("interpretation temperature = %v, want 0.3", captured.Temperature)
	}
}

func TestBackendErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "rate_limit", "message": "rate limit exceeded"},
		})
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = client.GenerateScript(context.Background(), generationRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "HTTP 429") || !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("error = %v, want status and backend message", err)
	}
}

func TestEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatCompletionResponse{ID: "x"})
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err = client.GenerateScript(context.Background(), generationRequest()); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{Model: "m"}); err == nil {
		t.Error("missing base URL should fail")
	}
	if _, err := New(Config{BaseURL: "http://localhost"}); err == nil {
		t.Error("missing model should fail")
	}
}
