package csvbackend

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/FranksOps/trendscout/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// headers defines the CSV column order
var headers = []string{
	"id",
	"run_id",
	"term",
	"points",
	"latest",
	"delta",
	"selected",
	"result_file",
	"result_count",
	"list_length",
	"error",
	"created_at",
}

// New creates a new CSV-backed storage.Backend, appending to filePath.
func New(filePath string) (storage.Backend, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("context: %w", err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(headers); err != nil {
			f.Close()
			return nil, fmt.Errorf("context: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("context: %w", err)
		}
	}

	return &csvBackend{file: f}, nil
}

func (b *csvBackend) Save(ctx context.Context, r *storage.Record) error {
	listLength := ""
	if r.ListLength != nil {
		listLength = strconv.FormatFloat(*r.ListLength, 'f', -1, 64)
	}

	record := []string{
		r.ID,
		r.RunID,
		r.Term,
		strconv.Itoa(r.Points),
		strconv.FormatFloat(r.Latest, 'f', -1, 64),
		strconv.FormatFloat(r.Delta, 'f', -1, 64),
		strconv.FormatBool(r.Selected),
		r.ResultFile,
		strconv.Itoa(r.ResultCount),
		listLength,
		r.Error,
		r.CreatedAt.Format(time.RFC3339Nano),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("context: %w", err)
	}

	w := csv.NewWriter(b.file)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("context: %w", err)
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("context: %w", err)
	}

	return nil
}

func (b *csvBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	defer func() {
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)

	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return []*storage.Record{}, nil
		}
		return nil, fmt.Errorf("context: %w", err)
	}

	var matched []*storage.Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("context: %w", err)
		}
		if len(row) != len(headers) {
			continue // skip malformed rows
		}

		rec := decode(row)
		if filter.Match(rec) {
			matched = append(matched, rec)
		}
	}

	return filter.Page(matched), nil
}

func decode(row []string) *storage.Record {
	points, _ := strconv.Atoi(row[3])
	latest, _ := strconv.ParseFloat(row[4], 64)
	delta, _ := strconv.ParseFloat(row[5], 64)
	selected, _ := strconv.ParseBool(row[6])
	count, _ := strconv.Atoi(row[8])
	createdAt, _ := time.Parse(time.RFC3339Nano, row[11])

	rec := &storage.Record{
		ID:          row[0],
		RunID:       row[1],
		Term:        row[2],
		Points:      points,
		Latest:      latest,
		Delta:       delta,
		Selected:    selected,
		ResultFile:  row[7],
		ResultCount: count,
		Error:       row[10],
		CreatedAt:   createdAt,
	}
	if v, err := strconv.ParseFloat(row[9], 64); err == nil {
		rec.ListLength = &v
	}
	return rec
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
