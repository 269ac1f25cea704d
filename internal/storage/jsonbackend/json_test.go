package jsonbackend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/trendscout/internal/storage"
)

func TestJSONBackend(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "archive.ndjson")

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create JSON backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	listLength := 1200.0

	records := []*storage.Record{
		{ID: "j1", RunID: "run-1", Term: "macrame wall", Points: 52, CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "j2", RunID: "run-1", Term: "vintage lamp", Selected: true, ResultCount: 48, ListLength: &listLength, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "j3", RunID: "run-2", Term: "vintage lamp", Error: "fetch failed", CreatedAt: now.Add(-1 * time.Hour)},
	}
	for _, r := range records {
		if err := b.Save(ctx, r); err != nil {
			t.Fatalf("Failed to save %s: %v", r.ID, err)
		}
	}

	byRun, err := b.Query(ctx, storage.Filter{RunID: "run-1"})
	if err != nil {
		t.Fatalf("Failed to query by run: %v", err)
	}
	if len(byRun) != 2 || byRun[0].ID != "j2" {
		t.Fatalf("expected [j2 j1], got %d results", len(byRun))
	}
	if byRun[0].ListLength == nil || *byRun[0].ListLength != 1200 {
		t.Errorf("expected list length to survive round trip")
	}

	byTerm, err := b.Query(ctx, storage.Filter{Term: "vintage lamp"})
	if err != nil {
		t.Fatalf("Failed to query by term: %v", err)
	}
	if len(byTerm) != 2 || byTerm[0].Error != "fetch failed" {
		t.Errorf("expected newest vintage lamp record with error first")
	}

	boolTrue := true
	selected, err := b.Query(ctx, storage.Filter{Selected: &boolTrue})
	if err != nil {
		t.Fatalf("Failed to query selected: %v", err)
	}
	if len(selected) != 1 || selected[0].ID != "j2" {
		t.Errorf("expected only j2 selected")
	}

	limited, err := b.Query(ctx, storage.Filter{Limit: 1})
	if err != nil {
		t.Fatalf("Failed to query limit: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "j3" {
		t.Errorf("expected newest record j3 with limit 1")
	}
}
