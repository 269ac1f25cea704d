package marketplace

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ListLengthField is the column the tool uses for the total listing count.
const ListLengthField = "listLength"

// Load reads a result file and returns its row count and the last row's
// listLength, if present and numeric.
func Load(path, fileType string) (int, *float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("open result file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(fileType) {
	case "csv":
		return loadCSV(f)
	case "json":
		return loadJSON(f)
	default:
		return 0, nil, fmt.Errorf("unsupported result file type %q", fileType)
	}
}

func loadCSV(r io.Reader) (int, *float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("read csv header: %w", err)
	}

	col := -1
	for i, h := range header {
		if strings.TrimSpace(h) == ListLengthField {
			col = i
			break
		}
	}

	var (
		count int
		last  []string
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, nil, fmt.Errorf("read csv row %d: %w", count+1, err)
		}
		count++
		last = rec
	}

	if col < 0 || last == nil || col >= len(last) {
		return count, nil, nil
	}
	return count, parseNumber(last[col]), nil
}

func loadJSON(r io.Reader) (int, *float64, error) {
	var rows []map[string]any
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return 0, nil, fmt.Errorf("decode json results: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil, nil
	}

	var ll *float64
	switch v := rows[len(rows)-1][ListLengthField].(type) {
	case float64:
		ll = &v
	case string:
		ll = parseNumber(v)
	}
	return len(rows), ll, nil
}

func parseNumber(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
