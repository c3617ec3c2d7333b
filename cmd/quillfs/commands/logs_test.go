package commands

import (
	"testing"
	"time"
)

func TestExtractTimestamp(t *testing.T) {
	tests := []struct {
		name string
		line string
		want time.Time
	}{
		{
			name: "audit trail line",
			line: "[2026-03-01 14:22:05] [INFO] File 'notes.txt' created by user 'alice'",
			want: time.Date(2026, 3, 1, 14, 22, 5, 0, time.Local),
		},
		{
			name: "rfc3339 prefix",
			line: "2026-03-01T14:22:05Z INFO server started",
			want: time.Date(2026, 3, 1, 14, 22, 5, 0, time.UTC),
		},
		{
			name: "json time field",
			line: `{"time":"2026-03-01T14:22:05.123Z","level":"INFO","msg":"server started"}`,
			want: time.Date(2026, 3, 1, 14, 22, 5, 123000000, time.UTC),
		},
		{
			name: "no timestamp",
			line: "plain text without any timestamp",
			want: time.Time{},
		},
		{
			name: "short line",
			line: "[short]",
			want: time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractTimestamp(tt.line)
			if !got.Equal(tt.want) {
				t.Errorf("extractTimestamp(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}
