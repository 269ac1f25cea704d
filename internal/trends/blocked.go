package trends

import (
	"bytes"
	"net/http"
	"strings"
)

// response is what the block detectors look at.
type response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FinalURL   string
}

// detector reports whether the provider refused to serve the request.
type detector func(r *response) (blocked bool, reason string)

var blockDetectors = []detector{
	detectRateLimit,
	detectSorryPage,
	detectCaptcha,
}

// blocked runs the response through all detectors and returns the first
// reason found.
func blocked(r *response) (bool, string) {
	for _, d := range blockDetectors {
		if ok, reason := d(r); ok {
			return true, reason
		}
	}
	return false, ""
}

func detectRateLimit(r *response) (bool, string) {
	if r.StatusCode == http.StatusTooManyRequests {
		return true, "rate limited (429)"
	}
	return false, ""
}

// detectSorryPage catches Google's "unusual traffic" interstitial, which is
// served either directly or after a redirect to /sorry/.
func detectSorryPage(r *response) (bool, string) {
	if strings.Contains(r.FinalURL, "/sorry/") {
		return true, "redirected to sorry page"
	}
	if bytes.Contains(r.Body, []byte("unusual traffic from your computer network")) {
		return true, "unusual traffic page"
	}
	return false, ""
}

func detectCaptcha(r *response) (bool, string) {
	if r.StatusCode != http.StatusOK && r.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if bytes.Contains(r.Body, []byte("g-recaptcha")) || bytes.Contains(r.Body, []byte("captcha-form")) {
		return true, "captcha challenge"
	}
	return false, ""
}
