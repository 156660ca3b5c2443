package utils

import (
	"testing"
	"time"
)

func TestParseStrictISO(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{name: "seconds precision", input: "2026-09-01T10:00:00Z", ok: true},
		{name: "millisecond precision", input: "2026-09-01T10:00:00.123Z", ok: true},
		{name: "offset instead of Z", input: "2026-09-01T10:00:00+02:00", ok: false},
		{name: "date only", input: "2026-09-01", ok: false},
		{name: "microseconds", input: "2026-09-01T10:00:00.123456Z", ok: false},
		{name: "lowercase z", input: "2026-09-01T10:00:00z", ok: false},
		{name: "missing seconds", input: "2026-09-01T10:00Z", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseStrictISO(tt.input)

			if ok != tt.ok {
				t.Fatalf("ParseStrictISO(%q) ok=%v, want %v", tt.input, ok, tt.ok)
			}

			if ok && got.Location() != time.UTC {
				t.Fatalf("parsed time must be UTC, got %v", got.Location())
			}
		})
	}
}

func TestIsUUID(t *testing.T) {
	if !IsUUID("a6f7ea08-3c39-4fd0-b1d8-5f1c9e3d2a10") {
		t.Fatal("canonical uuid rejected")
	}

	for _, bad := range []string{"", "42", "not-a-uuid"} {
		if IsUUID(bad) {
			t.Fatalf("IsUUID(%q) accepted", bad)
		}
	}
}
