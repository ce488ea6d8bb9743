// Package export writes run results as CSV, JSON or YAML tables.
package export

import (
	"fmt"
	"strings"
)

// Format is an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the supported encodings.
func Formats() []Format { return []Format{FormatCSV, FormatJSON, FormatYAML} }

// ParseFormat accepts a case-insensitive format name; "yml" is an alias of yaml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Ext returns the file extension of f, including the dot.
func (f Format) Ext() string { return "." + string(f) }
