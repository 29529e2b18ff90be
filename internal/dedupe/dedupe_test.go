package dedupe

import (
	"testing"

	"reviewharvest/internal/logging"
	"reviewharvest/pkg/models"
)

func record(reviewer, text, date, id string) models.ReviewRecord {
	return models.ReviewRecord{
		ReviewerName: reviewer,
		ReviewText:   text,
		ReviewDate:   date,
		ReviewID:     id,
	}
}

// --- Add Tests ---

func TestAdd_CollapsesContentDuplicates(t *testing.T) {
	d := New(logging.NewMultiLogger())

	d.Add(record("Linh", "great serum", "2024-01-01", ""))
	d.Add(record("Linh", "great serum", "2024-01-01", ""))
	d.Add(record("Mai", "too sticky for me", "2024-01-02", ""))

	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.Len())
	}
	if d.Overwrites() != 1 {
		t.Errorf("Overwrites() = %d, want 1", d.Overwrites())
	}
}

func TestAdd_ProviderIDWinsOverContent(t *testing.T) {
	d := New(logging.NewMultiLogger())

	// Same provider id, completely different content: still one record.
	d.Add(record("Linh", "great serum", "2024-01-01", "rev-1"))
	d.Add(record("Someone else", "different text entirely", "2024-06-01", "rev-1"))

	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", d.Len())
	}
}

func TestAdd_OverwriteKeepsFirstPosition(t *testing.T) {
	d := New(logging.NewMultiLogger())

	first := record("Linh", "great serum", "2024-01-01", "rev-1")
	first.Rating = "4"
	second := record("Mai", "too sticky for me", "2024-01-02", "rev-2")
	updated := record("Linh", "great serum", "2024-01-01", "rev-1")
	updated.Rating = "5"

	d.Add(first)
	d.Add(second)
	d.Add(updated)

	records := d.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	// The later record's data lands in the earlier record's slot.
	if records[0].ReviewID != "rev-1" || records[0].Rating != "5" {
		t.Errorf("position 0 = %q rating %q, want rev-1 rating 5", records[0].ReviewID, records[0].Rating)
	}
	if records[1].ReviewID != "rev-2" {
		t.Errorf("position 1 = %q, want rev-2", records[1].ReviewID)
	}
}

func TestAdd_AssignsContentHashWhenIDMissing(t *testing.T) {
	d := New(logging.NewMultiLogger())

	d.Add(record("Linh", "great serum", "2024-01-01", ""))

	records := d.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	want := ContentHash("Linh", "great serum", "2024-01-01")
	if records[0].ReviewID != want {
		t.Errorf("ReviewID = %q, want content hash %q", records[0].ReviewID, want)
	}
}

func TestRecords_ReturnsCopy(t *testing.T) {
	d := New(logging.NewMultiLogger())
	d.Add(record("Linh", "great serum", "2024-01-01", "rev-1"))

	out := d.Records()
	out[0].ReviewID = "mutated"

	if d.Records()[0].ReviewID != "rev-1" {
		t.Error("Records() must not expose internal storage")
	}
}

// --- ContentHash Tests ---

func TestContentHash_FullWidthHex(t *testing.T) {
	hash := ContentHash("Linh", "great serum", "2024-01-01")
	if len(hash) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(hash))
	}
}

func TestContentHash_Deterministic(t *testing.T) {
	a := ContentHash("Linh", "great serum", "2024-01-01")
	b := ContentHash("Linh", "great serum", "2024-01-01")
	if a != b {
		t.Error("same inputs must produce the same hash")
	}

	c := ContentHash("Linh", "great serum", "2024-01-02")
	if a == c {
		t.Error("different dates must produce different hashes")
	}
}

func TestContentHash_SentinelDateExcluded(t *testing.T) {
	// A dateless record hashes identically whether the date is empty or
	// already sentinel-filled, so candidates collide across strategies.
	empty := ContentHash("Linh", "great serum", "")
	sentinel := ContentHash("Linh", "great serum", models.SentinelNA)
	if empty != sentinel {
		t.Error("sentinel date must hash the same as an absent date")
	}
}
