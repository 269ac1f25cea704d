package trends

import (
	"net/http"
	"testing"
)

func TestBlocked(t *testing.T) {
	tests := []struct {
		name string
		resp response
		want bool
	}{
		{"ok json", response{StatusCode: 200, Body: []byte(`)]}'` + "\n{}")}, false},
		{"429", response{StatusCode: http.StatusTooManyRequests}, true},
		{"sorry redirect", response{StatusCode: 200, FinalURL: "https://www.google.com/sorry/index?continue=x"}, true},
		{"unusual traffic", response{StatusCode: 503, Body: []byte("Our systems have detected unusual traffic from your computer network.")}, true},
		{"captcha", response{StatusCode: 200, Body: []byte(`<div class="g-recaptcha"></div>`)}, true},
		{"captcha on 500 ignored", response{StatusCode: 500, Body: []byte(`g-recaptcha`)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := blocked(&tt.resp)
			if got != tt.want {
				t.Errorf("blocked() = %v (%q), want %v", got, reason, tt.want)
			}
			if got && reason == "" {
				t.Error("expected a reason for a blocked response")
			}
		})
	}
}
