package output

import (
	"encoding/csv"
	"io"

	"reviewharvest/pkg/models"
)

// CSVWriter writes records as CSV rows in the fixed column order. The
// header row is emitted before the first record, and on Flush even when no
// record ever arrived, so an empty harvest still yields a well-formed file.
type CSVWriter struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{
		w: csv.NewWriter(w),
	}
}

// Write outputs a single record.
func (w *CSVWriter) Write(record models.ReviewRecord) error {
	if err := w.ensureHeader(); err != nil {
		return err
	}
	return w.w.Write(record.Values())
}

// WriteAll outputs multiple records.
func (w *CSVWriter) WriteAll(records []models.ReviewRecord) error {
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes any buffered rows through to the underlying writer.
func (w *CSVWriter) Flush() error {
	if err := w.ensureHeader(); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}

// Close flushes the writer.
func (w *CSVWriter) Close() error {
	return w.Flush()
}

func (w *CSVWriter) ensureHeader() error {
	if w.wroteHeader {
		return nil
	}
	w.wroteHeader = true
	return w.w.Write(models.ReviewFieldOrder)
}
