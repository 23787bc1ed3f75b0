// Package model defines the domain types shared across the sync pipeline.
package model

import "time"

// SecurityRecord is the projection of a record-store row the pipeline reads.
type SecurityRecord struct {
	ID          string     `json:"id"`
	Ticker      string     `json:"ticker"`
	MarketHint  string     `json:"market_hint,omitempty"`
	StoredName  string     `json:"stored_name,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// Filter narrows a record-store query. The zero value matches every record.
type Filter struct {
	// Unverified restricts the query to records whose verification status
	// is not Verified.
	Unverified bool
	// StaleBefore restricts the query to records last updated before this
	// instant (or never updated).
	StaleBefore time.Time
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return !f.Unverified && f.StaleBefore.IsZero()
}

// Page is one page of records returned by the store.
type Page struct {
	Records    []SecurityRecord
	NextCursor string
	HasMore    bool
}
