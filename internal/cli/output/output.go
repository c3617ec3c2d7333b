// Package output renders quillctl command results as tables, JSON, or
// YAML, selected by the -o flag.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects how a command result is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func (f Format) String() string { return string(f) }

// ParseFormat maps the -o flag value to a Format. The empty string means
// table, and "yml" is accepted for yaml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("invalid output format: %q (valid: table, json, yaml)", s)
}

// PrintJSON writes data as indented JSON.
func PrintJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintYAML writes data as YAML with two-space indentation.
func PrintYAML(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	err := enc.Encode(data)
	if cerr := enc.Close(); err == nil {
		err = cerr
	}
	return err
}

// Printer writes status lines for table-mode output, coloring them when
// the terminal supports it.
type Printer struct {
	out   io.Writer
	color bool
}

func NewPrinter(out io.Writer, _ Format, color bool) *Printer {
	return &Printer{out: out, color: color}
}

// Success prints msg, green when color is on.
func (p *Printer) Success(msg string) {
	if p.color {
		fmt.Fprintf(p.out, "\033[32m%s\033[0m\n", msg)
		return
	}
	fmt.Fprintln(p.out, msg)
}

// Error prints msg, red when color is on.
func (p *Printer) Error(msg string) {
	if p.color {
		fmt.Fprintf(p.out, "\033[31m%s\033[0m\n", msg)
		return
	}
	fmt.Fprintln(p.out, msg)
}
