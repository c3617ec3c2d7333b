package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	err := PrintJSON(&buf, map[string]any{"file": "notes", "owner": "alice"})
	if err != nil {
		t.Fatalf("PrintJSON() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"owner": "alice"`) {
		t.Errorf("PrintJSON() output missing indented field: %q", out)
	}
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	err := PrintYAML(&buf, struct {
		File  string `yaml:"file"`
		Owner string `yaml:"owner"`
	}{"notes", "alice"})
	if err != nil {
		t.Fatalf("PrintYAML() error = %v", err)
	}
	if !strings.Contains(buf.String(), "owner: alice") {
		t.Errorf("PrintYAML() output = %q", buf.String())
	}
}

type fileRows struct{}

func (fileRows) Headers() []string { return []string{"NAME", "OWNER", "SERVER"} }
func (fileRows) Rows() [][]string {
	return [][]string{
		{"notes", "alice", "1"},
		{"story", "bob", "2"},
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintTable(&buf, fileRows{}); err != nil {
		t.Fatalf("PrintTable() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"NAME", "OWNER", "notes", "story", "bob"} {
		if !strings.Contains(out, want) {
			t.Errorf("PrintTable() output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "|") || strings.Contains(out, "+") {
		t.Errorf("PrintTable() output has borders:\n%s", out)
	}
}

func TestPrinterColors(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, FormatTable, true).Success("done")
	if !strings.Contains(buf.String(), "\033[32m") {
		t.Errorf("Success() with color = %q, want green escape", buf.String())
	}

	buf.Reset()
	NewPrinter(&buf, FormatTable, false).Error("failed")
	if got := buf.String(); got != "failed\n" {
		t.Errorf("Error() without color = %q, want plain line", got)
	}
}
