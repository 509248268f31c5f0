package models

import (
	"encoding/json"
	"time"
)

// Freshness describes how a resolved value relates to its TTL window.
// Every caller of the resolver must handle all variants.
type Freshness string

const (
	// Fresh means the value came straight from cache within its TTL.
	Fresh Freshness = "fresh"
	// Refreshed means an upstream call was made and the cache updated.
	Refreshed Freshness = "refreshed"
	// StaleDueToBudget means the provider budget was exhausted and a
	// stale cache entry was served instead.
	StaleDueToBudget Freshness = "stale_due_to_budget"
	// StaleFallbackAfterError means the upstream call failed and a stale
	// cache entry was served instead.
	StaleFallbackAfterError Freshness = "stale_fallback_after_error"
)

// Stale reports whether the value is past its TTL.
func (f Freshness) Stale() bool {
	return f == StaleDueToBudget || f == StaleFallbackAfterError
}

// SectionResult is one section of a research report: either a payload with
// its freshness, or a structured failure. Exactly one of Data / Error is set.
type SectionResult struct {
	Data      json.RawMessage `json:"data,omitempty"`
	Freshness Freshness       `json:"freshness,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
}

// OK reports whether the section carries data.
func (s SectionResult) OK() bool {
	return s.Error == ""
}

// ResearchReport is a best-effort composite: it is valid as long as at least
// one section succeeded, with failed sections explicitly marked.
type ResearchReport struct {
	Ticker      string                   `json:"ticker"`
	GeneratedAt time.Time                `json:"generated_at"`
	Sections    map[string]SectionResult `json:"sections"`
	Complete    bool                     `json:"complete"`
}

// SucceededSections returns the names of sections carrying data.
func (r *ResearchReport) SucceededSections() []string {
	out := make([]string, 0, len(r.Sections))
	for name, s := range r.Sections {
		if s.OK() {
			out = append(out, name)
		}
	}
	return out
}

// CallRecord is one row of the usage audit trail: an upstream call attempt
// or a budget denial.
type CallRecord struct {
	Provider  string    `json:"provider"`
	Endpoint  string    `json:"endpoint"`
	Key       string    `json:"key"`
	Ticker    string    `json:"ticker"`
	Outcome   string    `json:"outcome"` // ok, error, denied
	LatencyMS int64     `json:"latency_ms"`
	At        time.Time `json:"at"`
}

// BudgetSnapshot reports the current window state for one provider.
type BudgetSnapshot struct {
	Provider    string    `json:"provider"`
	Limit       int       `json:"limit"`
	Consumed    int       `json:"consumed"`
	Remaining   int       `json:"remaining"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}
