package timeutil

import (
	"testing"
	"time"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"15s", "15s"},
		{"30m15s", "30m 15s"},
		{"5h0m9s", "5h 0m 9s"},
		{"72h30m15s", "3d 0h 30m 15s"},
		{"not-a-duration", "not-a-duration"},
	}
	for _, tt := range tests {
		if got := FormatUptime(tt.in); got != tt.want {
			t.Errorf("FormatUptime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	if got := FormatTime("garbage"); got != "garbage" {
		t.Errorf("FormatTime(garbage) = %q", got)
	}
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
	if got := FormatTime(ts); got == ts || got == "" {
		t.Errorf("FormatTime(%q) = %q, want local layout", ts, got)
	}
}

func TestFormatLocalZero(t *testing.T) {
	if got := FormatLocal(time.Time{}); got != "-" {
		t.Errorf("FormatLocal(zero) = %q, want -", got)
	}
}
