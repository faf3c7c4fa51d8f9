package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVs(t *testing.T) {
	t.Setenv("LOG_REDACTION_ENABLED", "true")

	out := sanitizeKVs([]interface{}{
		"voice_text", "I ate 2 eggs",
		"owner_id", "7f1c2a56-8f57-4d8e-a2a6-2f1c9b5e3d10",
		"authorization", "Bearer abc",
		"items", 2,
	})
	if len(out) != 8 {
		t.Fatalf("unexpected length: %d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("voice_text not redacted: %v", out[1])
	}
	if s, ok := out[3].(string); !ok || !strings.HasPrefix(s, "hash:") {
		t.Fatalf("owner_id not hashed: %v", out[3])
	}
	if out[5] != "[REDACTED]" {
		t.Fatalf("authorization not redacted: %v", out[5])
	}
	if out[7] != 2 {
		t.Fatalf("plain value changed: %v", out[7])
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("discarded", "k", "v")
	l.With("service", "x").Warn("discarded")
}
