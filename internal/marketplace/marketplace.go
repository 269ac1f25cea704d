// Package marketplace drives the external marketplace search tool and reads
// back the result file it leaves in its working directory.
package marketplace

const (
	DefaultBinary   = "amazon-buddy-yitz-version"
	DefaultCount    = 10
	DefaultCountry  = "US"
	DefaultFileType = "csv"
)

// Query is one marketplace search.
type Query struct {
	Term     string
	Count    int
	Country  string
	FileType string // csv or json
}

// Result is what a search produced. A zero Count means no usable result.
type Result struct {
	Term       string
	File       string
	Count      int
	ListLength *float64
}

// Found reports whether the search produced at least one listing.
func (r Result) Found() bool { return r.Count > 0 }

func absent(term string) Result { return Result{Term: term} }
