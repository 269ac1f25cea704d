package terms

import "fmt"

// GenerationError means the language model did not yield a usable term list.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generate search terms: %s: %v", e.Reason, e.Err)
	}
	return "generate search terms: " + e.Reason
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ValidationError means a generated candidate is not a non-empty list of
// non-empty strings.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "search terms must be a list of non-empty strings: " + e.Reason
}
