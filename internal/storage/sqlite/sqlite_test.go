package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/trendscout/internal/storage"
)

func TestSQLiteBackend(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "archive.db")

	b, err := New(dsn)
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	listLength := 500.0

	res1 := &storage.Record{
		ID:        "sq1",
		RunID:     "run-1",
		Term:      "desk organizer",
		Points:    52,
		Latest:    35,
		Delta:     -5,
		CreatedAt: now.Add(-2 * time.Hour),
	}
	res2 := &storage.Record{
		ID:          "sq2",
		RunID:       "run-1",
		Term:        "vintage lamp",
		Points:      52,
		Latest:      90,
		Delta:       10,
		Selected:    true,
		ResultFile:  "products(vintage lamp)_1.csv",
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

	all, err := b.Query(ctx, storage.Filter{RunID: "run-1"})
	if err != nil {
		t.Fatalf("Failed to query run: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(all))
	}
	if all[0].ID != "sq2" {
		t.Errorf("Expected sq2 first, got %s", all[0].ID)
	}
	if all[0].ListLength == nil || *all[0].ListLength != 500 {
		t.Errorf("expected list length 500, got %v", all[0].ListLength)
	}
	if all[1].ListLength != nil {
		t.Errorf("expected NULL list length to scan as nil")
	}

	boolTrue := true
	selected, err := b.Query(ctx, storage.Filter{Selected: &boolTrue})
	if err != nil {
		t.Fatalf("Failed to query selected: %v", err)
	}
	if len(selected) != 1 || selected[0].Term != "vintage lamp" {
		t.Fatalf("Expected vintage lamp selected, got %d results", len(selected))
	}

	offset, err := b.Query(ctx, storage.Filter{Offset: 1})
	if err != nil {
		t.Fatalf("Failed to query offset: %v", err)
	}
	if len(offset) != 1 || offset[0].ID != "sq1" {
		t.Errorf("Expected sq1 for offset 1")
	}
}
