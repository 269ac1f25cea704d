package terms

import (
	"fmt"
	"strings"
)

// Validate checks that candidate is a non-empty list whose elements are all
// non-blank strings and returns those strings unchanged. It accepts []string
// and the []any produced by decoding a JSON array.
func Validate(candidate any) ([]string, error) {
	var out []string

	switch v := candidate.(type) {
	case []string:
		out = v
	case []any:
		out = make([]string, 0, len(v))
		for i, el := range v {
			s, ok := el.(string)
			if !ok {
				return nil, &ValidationError{Reason: fmt.Sprintf("element %d is %T, not a string", i, el)}
			}
			out = append(out, s)
		}
	case nil:
		return nil, &ValidationError{Reason: "no terms"}
	default:
		return nil, &ValidationError{Reason: fmt.Sprintf("got %T, not a list", candidate)}
	}

	if len(out) == 0 {
		return nil, &ValidationError{Reason: "list is empty"}
	}
	for i, s := range out {
		if strings.TrimSpace(s) == "" {
			return nil, &ValidationError{Reason: fmt.Sprintf("element %d is blank", i)}
		}
	}
	return out, nil
}
