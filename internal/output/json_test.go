package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"reviewharvest/pkg/models"
)

func TestJSONWriter_SingleRecordIsStillAnArray(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf, true, "  ")

	if err := w.Write(sampleRecord()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var records []models.ReviewRecord
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ReviewID != "rev-1" || records[0].Rating != "4.5" {
		t.Errorf("record did not round-trip: %+v", records[0])
	}
}

func TestJSONWriter_EmptyFlushWritesEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf, false, "")

	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("empty flush = %q, want []", got)
	}
}

func TestJSONWriter_PrettyIndentation(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf, true, "  ")

	if err := w.Write(sampleRecord()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if !strings.Contains(buf.String(), "\n  {") {
		t.Errorf("expected two-space indented output, got %q", buf.String())
	}
}

func TestJSONWriter_CompactMode(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf, false, "")

	if err := w.WriteAll([]models.ReviewRecord{sampleRecord(), sampleRecord()}); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	out := strings.TrimSuffix(buf.String(), "\n")
	if strings.Contains(out, "\n") {
		t.Errorf("compact output should be a single line, got %q", out)
	}
}

func TestJSONWriter_UsesSnakeCaseKeys(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf, false, "")

	if err := w.Write(sampleRecord()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	for _, key := range models.ReviewFieldOrder {
		if !strings.Contains(buf.String(), `"`+key+`"`) {
			t.Errorf("output missing key %q", key)
		}
	}
}
