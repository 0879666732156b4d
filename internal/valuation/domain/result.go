// Package domain holds the core valuation types shared across the module.
package domain

import "time"

// Source identifies where a price-per-m² value came from.
type Source string

const (
	// SourceCached means the price was served from the freshness cache.
	SourceCached Source = "cached"
	// SourceExternalProvider means the price came from the estimation provider.
	SourceExternalProvider Source = "external_provider"
	// SourceAuthoritativeDataset is reserved for a future dataset lookup.
	// No current code path produces it, but the confidence table keeps its tier.
	SourceAuthoritativeDataset Source = "authoritative_dataset"
	// SourceUnavailable means no price could be determined.
	SourceUnavailable Source = "unavailable"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceCached, SourceExternalProvider, SourceAuthoritativeDataset, SourceUnavailable:
		return true
	}
	return false
}

// Confidence returns the caller-facing trust score for a source.
func (s Source) Confidence() int {
	switch s {
	case SourceCached, SourceExternalProvider:
		return 85
	case SourceAuthoritativeDataset:
		return 60
	default:
		return 0
	}
}

// Result is the outcome of one valuation request. PriceM2 and TotalPrice
// are nil when no usable price was determined.
type Result struct {
	LeadID     string
	PriceM2    *float64
	TotalPrice *float64
	Source     Source
	Confidence int
	ComputedAt time.Time
	Detail     map[string]any
}
