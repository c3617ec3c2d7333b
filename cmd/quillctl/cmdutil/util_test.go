package cmdutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/quillfs/quillfs/internal/cli/output"
)

// serverRows renders a fixed server listing for output tests.
type serverRows struct{}

func (serverRows) Headers() []string { return []string{"HOST", "PORT", "FILES"} }

func (serverRows) Rows() [][]string {
	return [][]string{
		{"10.0.0.5", "8001", "3"},
		{"10.0.0.6", "8002", "0"},
	}
}

func TestPrintOutputJSON(t *testing.T) {
	Flags.Output = "json"

	var buf bytes.Buffer
	if err := PrintOutput(&buf, []string{"notes.txt", "story.txt"}, false, "none", serverRows{}); err != nil {
		t.Fatalf("PrintOutput() error = %v", err)
	}
	for _, want := range []string{"notes.txt", "story.txt"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("json output %q missing %q", buf.String(), want)
		}
	}
}

func TestPrintOutputYAML(t *testing.T) {
	Flags.Output = "yaml"

	var buf bytes.Buffer
	if err := PrintOutput(&buf, []string{"notes.txt"}, false, "none", serverRows{}); err != nil {
		t.Fatalf("PrintOutput() error = %v", err)
	}
	if got, want := buf.String(), "- notes.txt\n"; got != want {
		t.Errorf("yaml output = %q, want %q", got, want)
	}
}

func TestPrintOutputTableEmpty(t *testing.T) {
	Flags.Output = "table"

	var buf bytes.Buffer
	if err := PrintOutput(&buf, nil, true, "No storage servers registered.", serverRows{}); err != nil {
		t.Fatalf("PrintOutput() error = %v", err)
	}
	if got, want := buf.String(), "No storage servers registered.\n"; got != want {
		t.Errorf("empty table output = %q, want %q", got, want)
	}
}

func TestPrintOutputTable(t *testing.T) {
	Flags.Output = "table"

	var buf bytes.Buffer
	if err := PrintOutput(&buf, nil, false, "none", serverRows{}); err != nil {
		t.Fatalf("PrintOutput() error = %v", err)
	}
	for _, want := range []string{"HOST", "10.0.0.5", "8002"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("table output %q missing %q", buf.String(), want)
		}
	}
}

func TestGetOutputFormatParsed(t *testing.T) {
	tests := []struct {
		flag    string
		want    output.Format
		wantErr bool
	}{
		{"table", output.FormatTable, false},
		{"json", output.FormatJSON, false},
		{"yaml", output.FormatYAML, false},
		{"csv", output.FormatTable, true},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			Flags.Output = tt.flag
			got, err := GetOutputFormatParsed()
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetOutputFormatParsed() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("GetOutputFormatParsed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoolToYesNo(t *testing.T) {
	if got := BoolToYesNo(true); got != "yes" {
		t.Errorf("BoolToYesNo(true) = %q", got)
	}
	if got := BoolToYesNo(false); got != "no" {
		t.Errorf("BoolToYesNo(false) = %q", got)
	}
}

func TestEmptyOr(t *testing.T) {
	if got := EmptyOr("", "-"); got != "-" {
		t.Errorf("EmptyOr(empty) = %q, want -", got)
	}
	if got := EmptyOr("alice", "-"); got != "alice" {
		t.Errorf("EmptyOr(alice) = %q", got)
	}
}
