// Package output serializes harvested review records.
package output

import (
	"fmt"
	"io"

	"reviewharvest/pkg/models"
)

// Format represents output format types.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Writer handles review record serialization.
type Writer interface {
	// Write outputs a single record.
	Write(record models.ReviewRecord) error

	// WriteAll outputs multiple records.
	WriteAll(records []models.ReviewRecord) error

	// Flush ensures all data is written.
	Flush() error

	// Close releases resources.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty bool
	indent string
}

// WithPretty enables pretty-printing for formats that support it.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatCSV:
		return NewCSVWriter(w), nil
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
