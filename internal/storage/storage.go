// Package storage archives what a pipeline run learned about each term so
// runs can be compared over time.
package storage

import (
	"context"
	"time"
)

// Record is the outcome of one term within one run.
type Record struct {
	ID          string
	RunID       string
	Term        string
	Points      int     // trend points fetched; 0 when the term had no data
	Latest      float64 // most recent interest value
	Delta       float64 // last-two-period change
	Selected    bool    // chosen for a marketplace search
	ResultFile  string
	ResultCount int
	ListLength  *float64
	Error       string // non-empty if the term failed at any stage
	CreatedAt   time.Time
}

// Filter allows querying for specific Records.
type Filter struct {
	RunID    string
	Term     string
	Selected *bool
	Since    *time.Time
	Limit    int
	Offset   int
}

// Match reports whether r satisfies the field filters. Limit and Offset are
// applied by the caller.
func (f Filter) Match(r *Record) bool {
	if f.RunID != "" && r.RunID != f.RunID {
		return false
	}
	if f.Term != "" && r.Term != f.Term {
		return false
	}
	if f.Selected != nil && r.Selected != *f.Selected {
		return false
	}
	if f.Since != nil && r.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

// Page reverses records stored oldest-first into newest-first order and
// applies Offset and Limit. File backends use it; SQL backends push both
// into the query.
func (f Filter) Page(records []*Record) []*Record {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if f.Offset > 0 {
		if f.Offset >= len(records) {
			return []*Record{}
		}
		records = records[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(records) {
		records = records[:f.Limit]
	}
	return records
}

// Backend defines the interface for storing and querying run records.
type Backend interface {
	Save(ctx context.Context, record *Record) error
	Query(ctx context.Context, filter Filter) ([]*Record, error)
	Close() error
}
