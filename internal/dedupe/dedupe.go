package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"reviewharvest/internal/logging"
	"reviewharvest/pkg/models"
)

// Deduplicator merges records from every strategy into one canonical set.
// Records sharing an identity collapse into one; the later-merged record
// wins while keeping the earlier record's position, so output order is
// first-insertion order and deterministic.
type Deduplicator struct {
	index      map[string]int
	records    []models.ReviewRecord
	overwrites int
	logger     logging.Logger
}

func New(logger logging.Logger) *Deduplicator {
	return &Deduplicator{
		index:  make(map[string]int),
		logger: logger,
	}
}

// Add merges one record. A record without a provider id gets the content
// hash as its id first. Merge order is strategy priority order, so a DOM
// candidate sharing an identity with an embedded-data one overwrites it.
func (d *Deduplicator) Add(record models.ReviewRecord) {
	if record.ReviewID == "" {
		record.ReviewID = ContentHash(record.ReviewerName, record.ReviewText, record.ReviewDate)
	}

	if pos, seen := d.index[record.ReviewID]; seen {
		d.records[pos] = record
		d.overwrites++
		d.logger.Debug("Duplicate review overwritten", map[string]interface{}{
			"review_id": record.ReviewID,
		})
		return
	}

	d.index[record.ReviewID] = len(d.records)
	d.records = append(d.records, record)
}

// Records returns the merged set in first-insertion order.
func (d *Deduplicator) Records() []models.ReviewRecord {
	out := make([]models.ReviewRecord, len(d.records))
	copy(out, d.records)
	return out
}

// Len reports the number of unique records merged so far.
func (d *Deduplicator) Len() int {
	return len(d.records)
}

// Overwrites reports how many additions collapsed into existing records.
func (d *Deduplicator) Overwrites() int {
	return d.overwrites
}

// ContentHash derives a stable identity for records without a provider
// id: full-width SHA-256 hex over the identity fields joined with "|".
// A sentinel date is excluded, so dateless records from different
// strategies still collide on reviewer and text alone.
func ContentHash(reviewer, text, date string) string {
	parts := []string{reviewer, text}
	if date != "" && date != models.SentinelNA {
		parts = append(parts, date)
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
