// Package output renders command results for the CLI.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json" or "yaml", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use json or yaml)", s)
	}
}

// Printer writes values to w in one format.
type Printer struct {
	w      io.Writer
	format Format
	pretty bool
}

// NewPrinter creates a printer. pretty indents JSON; YAML is always indented.
func NewPrinter(w io.Writer, format Format, pretty bool) *Printer {
	return &Printer{w: w, format: format, pretty: pretty}
}

// Print encodes v followed by a newline.
func (p *Printer) Print(v any) error {
	var (
		data []byte
		err  error
	)
	switch p.format {
	case FormatJSON:
		if p.pretty {
			data, err = sonic.ConfigStd.MarshalIndent(v, "", "  ")
		} else {
			data, err = sonic.ConfigStd.Marshal(v)
		}
		if err != nil {
			return fmt.Errorf("json encode: %w", err)
		}
		data = append(data, '\n')
	case FormatYAML:
		data, err = yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("yaml encode: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output format %q", p.format)
	}
	_, err = p.w.Write(data)
	return err
}
