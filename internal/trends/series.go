// Package trends fetches Google Trends interest-over-time series, joins them
// into one date-indexed table and picks the terms that are rising.
package trends

import "time"

// Point is one time bucket of a series.
type Point struct {
	Date    time.Time
	Value   float64
	Partial bool // bucket still accumulating data
}

// RelatedQuery is an entry of the provider's "top" related queries list.
type RelatedQuery struct {
	Query string
	Value int
}

// Series is the interest-over-time of a single term. A series with no
// points means the provider had no data for the term; that is not an error.
type Series struct {
	Term    string
	Points  []Point
	Related []RelatedQuery
}

// Empty reports whether the provider returned no data.
func (s *Series) Empty() bool {
	return s == nil || len(s.Points) == 0
}

// Latest returns the value of the most recent point.
func (s *Series) Latest() (float64, bool) {
	if s.Empty() {
		return 0, false
	}
	return s.Points[len(s.Points)-1].Value, true
}
