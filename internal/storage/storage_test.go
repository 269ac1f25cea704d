package storage

import (
	"testing"
	"time"
)

func TestFilter_Match(t *testing.T) {
	now := time.Now()
	r := &Record{RunID: "run1", Term: "vintage lamp", Selected: true, CreatedAt: now}

	yes, no := true, false
	past, future := now.Add(-time.Minute), now.Add(time.Minute)

	cases := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"run match", Filter{RunID: "run1"}, true},
		{"run mismatch", Filter{RunID: "run2"}, false},
		{"term match", Filter{Term: "vintage lamp"}, true},
		{"term mismatch", Filter{Term: "desk organizer"}, false},
		{"selected", Filter{Selected: &yes}, true},
		{"not selected", Filter{Selected: &no}, false},
		{"since past", Filter{Since: &past}, true},
		{"since future", Filter{Since: &future}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Match(r); got != tc.want {
				t.Errorf("Match() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilter_Page(t *testing.T) {
	mk := func() []*Record {
		return []*Record{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	}

	got := Filter{}.Page(mk())
	if len(got) != 3 || got[0].ID != "c" || got[2].ID != "a" {
		t.Errorf("expected newest first, got %v", ids(got))
	}

	got = Filter{Offset: 1, Limit: 1}.Page(mk())
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("expected [b], got %v", ids(got))
	}

	got = Filter{Offset: 5}.Page(mk())
	if len(got) != 0 {
		t.Errorf("expected empty page, got %v", ids(got))
	}
}

func ids(rs []*Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
