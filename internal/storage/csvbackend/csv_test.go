package csvbackend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/trendscout/internal/storage"
)

func TestCSVBackend(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "archive.csv")

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	listLength := 500.0

	res1 := &storage.Record{
		ID:        "csv1",
		RunID:     "run-a",
		Term:      "desk organizer",
		Points:    52,
		Latest:    40,
		Delta:     -5,
		CreatedAt: now.Add(-2 * time.Hour),
	}

	res2 := &storage.Record{
		ID:          "csv2",
		RunID:       "run-a",
		Term:        "vintage lamp, brass",
		Points:      52,
		Latest:      80,
		Delta:       10,
		Selected:    true,
		ResultFile:  "products(vintage lamp)_1700000000.csv",
		ResultCount: 7,
		ListLength:  &listLength,
		CreatedAt:   now.Add(-1 * time.Hour),
	}

	if err := b.Save(ctx, res1); err != nil {
		t.Fatalf("Failed to save record 1: %v", err)
	}
	if err := b.Save(ctx, res2); err != nil {
		t.Fatalf("Failed to save record 2: %v", err)
	}

	// Term filter, including a value that needs CSV quoting
	resultsTerm, err := b.Query(ctx, storage.Filter{Term: "vintage lamp, brass"})
	if err != nil {
		t.Fatalf("Failed to query by term: %v", err)
	}
	if len(resultsTerm) != 1 {
		t.Fatalf("Expected 1 result for term filter, got %d", len(resultsTerm))
	}
	got := resultsTerm[0]
	if got.ID != "csv2" || got.ResultCount != 7 || got.Delta != 10 {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.ListLength == nil || *got.ListLength != 500 {
		t.Errorf("expected list length 500, got %v", got.ListLength)
	}

	boolFalse := false
	resultsNotSelected, err := b.Query(ctx, storage.Filter{Selected: &boolFalse})
	if err != nil {
		t.Fatalf("Failed to query by Selected=false: %v", err)
	}
	if len(resultsNotSelected) != 1 || resultsNotSelected[0].ID != "csv1" {
		t.Fatalf("Expected only csv1 unselected, got %d results", len(resultsNotSelected))
	}
	if resultsNotSelected[0].ListLength != nil {
		t.Errorf("expected nil list length for unselected term")
	}

	past := now.Add(-90 * time.Minute)
	resultsSince, err := b.Query(ctx, storage.Filter{Since: &past})
	if err != nil {
		t.Fatalf("Failed to query by Since: %v", err)
	}
	if len(resultsSince) != 1 || resultsSince[0].ID != "csv2" {
		t.Fatalf("Expected csv2 for Since filter, got %d results", len(resultsSince))
	}

	resultsAll, err := b.Query(ctx, storage.Filter{RunID: "run-a"})
	if err != nil {
		t.Fatalf("Failed to query all: %v", err)
	}
	if len(resultsAll) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(resultsAll))
	}
	// Order should be descending (newest first)
	if resultsAll[0].ID != "csv2" {
		t.Errorf("Expected csv2 first, got %s", resultsAll[0].ID)
	}

	resultsOffset, err := b.Query(ctx, storage.Filter{Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("Failed to query offset: %v", err)
	}
	if len(resultsOffset) != 1 || resultsOffset[0].ID != "csv1" {
		t.Errorf("Expected csv1 for offset 1")
	}
}

func TestCSVBackend_ReopenKeepsHeader(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "archive.csv")
	ctx := context.Background()

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}
	if err := b.Save(ctx, &storage.Record{ID: "first", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	b.Close()

	b, err = New(filePath)
	if err != nil {
		t.Fatalf("Failed to reopen CSV backend: %v", err)
	}
	defer b.Close()
	if err := b.Save(ctx, &storage.Record{ID: "second", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("save: %v", err)
	}

	all, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records after reopen, got %d", len(all))
	}
}
