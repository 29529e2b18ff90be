package models

// Strategy names recorded as candidate provenance
const (
	StrategyEmbeddedData = "embedded_data"
	StrategySelector     = "structured_selector"
	StrategyFreeText     = "free_text"
)

// Sentinel values used when a field cannot be resolved. Every ReviewRecord
// field is always populated; absence is expressed through these.
const (
	SentinelNA        = "N/A"
	SentinelAnonymous = "Anonymous"
	SentinelZero      = "0"
	VerifiedYes       = "Yes"
)

// RawCandidate is one unvalidated extraction result produced by a single
// strategy invocation. Transient; never persisted. ProductName is set only
// when the source carries its own product naming, overriding the ref's.
type RawCandidate struct {
	ReviewerName   string
	RatingRaw      string
	TextRaw        string
	DateRaw        string
	HelpfulRaw     string
	VerifiedRaw    string
	CountryRaw     string
	ProductName    string
	ProviderID     string
	SourceStrategy string
}

// ReviewRecord is the canonical, validated output unit. Created by the
// normalizer from an accepted candidate, merged once by the deduplicator,
// then immutable. ReviewID is unique within a run.
type ReviewRecord struct {
	ProductURL       string `json:"product_url"`
	ProductName      string `json:"product_name"`
	ReviewerName     string `json:"reviewer_name"`
	Rating           string `json:"rating"`
	ReviewText       string `json:"review_text"`
	ReviewDate       string `json:"review_date"`
	VerifiedPurchase string `json:"verified_purchase"`
	HelpfulVotes     string `json:"helpful_votes"`
	ReviewID         string `json:"review_id"`
	CountryMarket    string `json:"country_market"`
	ScrapeTimestamp  string `json:"scrape_timestamp"`
}

// ReviewFieldOrder is the fixed column order every tabular sink must emit.
var ReviewFieldOrder = []string{
	"product_url",
	"product_name",
	"reviewer_name",
	"rating",
	"review_text",
	"review_date",
	"verified_purchase",
	"helpful_votes",
	"review_id",
	"country_market",
	"scrape_timestamp",
}

// Values returns the record's fields in ReviewFieldOrder.
func (r *ReviewRecord) Values() []string {
	return []string{
		r.ProductURL,
		r.ProductName,
		r.ReviewerName,
		r.Rating,
		r.ReviewText,
		r.ReviewDate,
		r.VerifiedPurchase,
		r.HelpfulVotes,
		r.ReviewID,
		r.CountryMarket,
		r.ScrapeTimestamp,
	}
}
