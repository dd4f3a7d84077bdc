package integration

import (
	"net/http"
	"strings"
	"testing"

	"github.com/askframe/askframe/pkg/api"
)

func TestAnalyzeSuccess(t *testing.T) {
	id := createTestSession(t, "sales")

	resp := postJSON(t, testEnv.BaseURL()+"/v1/sessions/"+id+"/analyze", map[string]any{
		"question": "What is the total amount?",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var ar api.AnalyzeResponse
	decodeJSON(t, resp, &ar)

	if ar.Error != nil {
		t.Fatalf("unexpected error: %s: %s", ar.Error.Category, ar.Error.Detail)
	}
	if !strings.HasPrefix(ar.InteractionID, "intr_") {
		t.Errorf("interaction_id = %q, want intr_ prefix", ar.InteractionID)
	}
	if strings.Contains(ar.Script, "```") {
		t.Errorf("script still carries markdown fences: %q", ar.Script)
	}
	if ar.Envelope == nil || ar.Envelope.Scalar == nil {
		t.Fatalf("envelope = %+v, want scalar", ar.Envelope)
	}
	// JSON round-trips the int64 sum as float64.
	if got, ok := ar.Envelope.Scalar.Value.(float64); !ok || got != 65 {
		t.Errorf("scalar value = %v, want 65", ar.Envelope.Scalar.Value)
	}
	if !strings.Contains(ar.Explanation, "65") {
		t.Errorf("explanation = %q, want to mention 65", ar.Explanation)
	}
}

func TestAnalyzeTableResult(t *testing.T) {
	id := createTestSession(t, "sales-table")

	resp := postJSON(t, testEnv.BaseURL()+"/v1/sessions/"+id+"/analyze", map[string]any{
		"question": "Show the first two rows",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var ar api.AnalyzeResponse
	decodeJSON(t, resp, &ar)

	if ar.Envelope == nil || ar.Envelope.Table == nil {
		t.Fatalf("envelope = %+v, want table", ar.Envelope)
	}
	tab := ar.Envelope.Table
	if len(tab.Rows) != 2 {
		t.Errorf("rows = %d, want 2", len(tab.Rows))
	}
	if tab.Shape != [2]int{2, 2} {
		t.Errorf("shape = %v, want [2 2]", tab.Shape)
	}
	if len(tab.Columns) != 2 || tab.Columns[0] != "region" {
		t.Errorf("columns = %v, want [region amount]", tab.Columns)
	}
}

func TestAnalyzeRetryAfterRejection(t *testing.T) {
	id := createTestSession(t, "sales-retry")

	// The mock returns a forbidden script first, then a corrected one
	// when the rejection notice appears in the prompt.
	resp := postJSON(t, testEnv.BaseURL()+"/v1/sessions/"+id+"/analyze", map[string]any{
		"question": "Total with one bad attempt first",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var ar api.AnalyzeResponse
	decodeJSON(t, resp, &ar)

	if ar.Error != nil {
		t.Fatalf("unexpected error after retry: %s: %s", ar.Error.Category, ar.Error.Detail)
	}
	if strings.Contains(ar.Script, "eval") {
		t.Errorf("script = %q, want the corrected attempt", ar.Script)
	}
	if ar.Envelope == nil || ar.Envelope.Scalar == nil {
		t.Fatalf("envelope = %+v, want scalar", ar.Envelope)
	}
}

func TestAnalyzeValidationFailure(t *testing.T) {
	id := createTestSession(t, "sales-reject")

	resp := postJSON(t, testEnv.BaseURL()+"/v1/sessions/"+id+"/analyze", map[string]any{
		"question": "This one is always forbidden",
	})
	defer resp.Body.Close()

	// Pipeline failures are reported in-band, not as HTTP errors.
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var ar api.AnalyzeResponse
	decodeJSON(t, resp, &ar)

	if ar.Error == nil {
		t.Fatal("error is nil, want validation_failed")
	}
	if ar.Error.Category != "validation_failed" {
		t.Errorf("category = %q, want validation_failed", ar.Error.Category)
	}
	if ar.Envelope != nil {
		t.Errorf("envelope = %+v, want nil on rejection", ar.Envelope)
	}
}

func TestAnalyzeExecutionFailure(t *testing.T) {
	id := createTestSession(t, "sales-exec-fail")

	resp := postJSON(t, testEnv.BaseURL()+"/v1/sessions/"+id+"/analyze", map[string]any{
		"question": "Reference a missing column",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var ar api.AnalyzeResponse
	decodeJSON(t, resp, &ar)

	if ar.Error == nil || ar.Error.Category != "execution_failed" {
		t.Fatalf("error = %+v, want execution_failed", ar.Error)
	}
	if ar.Script == "" {
		t.Error("script is empty, want the failing script echoed back")
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	id := createTestSession(t, "sales-timeout")

	resp := postJSON(t, testEnv.BaseURL()+"/v1/sessions/"+id+"/analyze", map[string]any{
		"question": "Spin forever",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var ar api.AnalyzeResponse
	decodeJSON(t, resp, &ar)

	if ar.Error == nil || ar.Error.Category != "timeout" {
		t.Fatalf("error = %+v, want timeout", ar.Error)
	}
}

func TestAnalyzeBackendError(t *testing.T) {
	id := createTestSession(t, "sales-backend-down")

	resp := postJSON(t, testEnv.BaseURL()+"/v1/sessions/"+id+"/analyze", map[string]any{
		"question": "Trigger a backend error",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var errResp api.ErrorResponse
	decodeJSON(t, resp, &errResp)

	if errResp.Error == nil {
		t.Fatal("error object is nil")
	}
	if errResp.Error.Type != api.ErrorTypeGenerationError {
		t.Errorf("error.type = %q, want %q", errResp.Error.Type, api.ErrorTypeGenerationError)
	}
}

func TestAnalyzeContextAccumulates(t *testing.T) {
	id := createTestSession(t, "sales-context")
	url := testEnv.BaseURL() + "/v1/sessions/" + id + "/analyze"

	// Three successful runs in sequence should all succeed with history
	// flowing back into the prompts.
	for i := 0; i < 3; i++ {
		resp := postJSON(t, url, map[string]any{"question": "What is the total amount?"})
		var ar api.AnalyzeResponse
		decodeJSON(t, resp, &ar)
		if ar.Error != nil {
			t.Fatalf("run %d failed: %s: %s", i, ar.Error.Category, ar.Error.Detail)
		}
	}
}
