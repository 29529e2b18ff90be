package output

import (
	"bufio"
	"encoding/json"
	"io"

	"reviewharvest/pkg/models"
)

// JSONWriter buffers records and writes them as one JSON array on Flush.
// The output is always an array, even for a single record.
type JSONWriter struct {
	w      *bufio.Writer
	pretty bool
	indent string
	items  []models.ReviewRecord
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
		items:  make([]models.ReviewRecord, 0),
	}
}

// Write buffers a single record for array output.
func (w *JSONWriter) Write(record models.ReviewRecord) error {
	w.items = append(w.items, record)
	return nil
}

// WriteAll buffers multiple records.
func (w *JSONWriter) WriteAll(records []models.ReviewRecord) error {
	w.items = append(w.items, records...)
	return nil
}

// Flush writes the buffered records as a JSON array.
func (w *JSONWriter) Flush() error {
	var output []byte
	var err error

	if w.pretty {
		output, err = json.MarshalIndent(w.items, "", w.indent)
	} else {
		output, err = json.Marshal(w.items)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}

	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONWriter) Close() error {
	return w.Flush()
}
