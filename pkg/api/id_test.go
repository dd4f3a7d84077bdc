package api

import (
	"strings"
	"testing"
)

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()
	if !strings.HasPrefix(id, "sess_") {
		t.Errorf("id = %q, want sess_ prefix", id)
	}
	if len(id) != len("sess_")+24 {
		t.Errorf("id length = %d", len(id))
	}
	if !ValidateSessionID(id) {
		t.Errorf("generated id %q does not validate", id)
	}
}

func TestNewInteractionID(t *testing.T) {
	id := NewInteractionID()
	if !strings.HasPrefix(id, "intr_") {
		t.Errorf("id = %q, want intr_ prefix", id)
	}
	if !ValidateInteractionID(id) {
		t.Errorf("generated id %q does not validate", id)
	}
}

func TestIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewSessionID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid", "sess_" + strings.Repeat("a", 24), true},
		{"empty", "", false},
		{"wrong prefix", "intr_" + strings.Repeat("a", 24), false},
		{"too short", "sess_abc", false},
		{"too long", "sess_" + strings.Repeat("a", 25), false},
		{"bad characters", "sess_" + strings.Repeat("!", 24), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateSessionID(tt.id); got != tt.want {
				t.Errorf("ValidateSessionID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := NewInvalidRequestError("question", "question is required")
	if err.Type != ErrorTypeInvalidRequest || err.Param != "question" {
		t.Errorf("error = %+v", err)
	}
	if !strings.Contains(err.Error(), "question is required") || !strings.Contains(err.Error(), "param: question") {
		t.Errorf("Error() = %q", err.Error())
	}

	plain := NewNotFoundError("session sess_x not found")
	if strings.Contains(plain.Error(), "param") {
		t.Errorf("Error() = %q, should omit empty param", plain.Error())
	}
}
