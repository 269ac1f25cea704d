package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"slices"
	"text/template"
	"time"

	"github.com/FranksOps/trendscout/internal/storage"
)

// Summary contains aggregated figures about one pipeline run.
type Summary struct {
	RunID          string
	TermsGenerated int
	TermsFetched   int
	TermsEmpty     int
	TermsFailed    int
	Selected       []string
	SearchesFound  int
	SearchesEmpty  int
	ReportRows     int
	OutputFiles    []string
	Error          string `json:",omitempty"`
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}

// Summarize rebuilds a run summary from archived records of one run.
// Selected terms are ordered by delta, largest first.
func Summarize(records []*storage.Record) Summary {
	var s Summary
	if len(records) == 0 {
		return s
	}

	s.RunID = records[0].RunID
	s.StartTime = records[0].CreatedAt
	s.EndTime = records[0].CreatedAt

	var selected []*storage.Record
	for _, r := range records {
		s.TermsGenerated++
		switch {
		case r.Points > 0:
			s.TermsFetched++
		case r.Error != "":
			s.TermsFailed++
		default:
			s.TermsEmpty++
		}

		if r.Selected {
			selected = append(selected, r)
			if r.ResultCount > 0 {
				s.SearchesFound++
				s.ReportRows++
			} else {
				s.SearchesEmpty++
			}
		}

		if r.CreatedAt.Before(s.StartTime) {
			s.StartTime = r.CreatedAt
		}
		if r.CreatedAt.After(s.EndTime) {
			s.EndTime = r.CreatedAt
		}
	}

	slices.SortStableFunc(selected, func(a, b *storage.Record) int {
		switch {
		case a.Delta > b.Delta:
			return -1
		case a.Delta < b.Delta:
			return 1
		}
		return 0
	})
	for _, r := range selected {
		s.Selected = append(s.Selected, r.Term)
	}

	s.Duration = s.EndTime.Sub(s.StartTime)
	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Trendscout Run Summary
----------------------
Run:           {{.RunID}}
Time:          {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:      {{.Duration}}
Generated:     {{.TermsGenerated}} terms
Trend Data:    {{.TermsFetched}} fetched, {{.TermsEmpty}} empty, {{.TermsFailed}} failed
Searches:      {{.SearchesFound}} found, {{.SearchesEmpty}} empty
Report Rows:   {{.ReportRows}}
{{- if .Error}}
Error:         {{.Error}}
{{- end}}

Selected Terms:
{{- range $i, $term := .Selected}}
  {{$i | inc}}. {{$term}}
{{- else}}
  None
{{- end}}

Output Files:
{{- range .OutputFiles}}
  {{.}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Funcs(template.FuncMap{"inc": inc}).Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse text template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render text summary: %w", err)
	}

	return nil
}

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Trendscout Run Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>Trendscout Run Report</h1>
  <p><strong>Run:</strong> {{.RunID}}</p>
  <p><strong>Time:</strong> {{.StartTime.Format "2006-01-02 15:04:05"}} to {{.EndTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>
  {{- if .Error}}
  <p class="error" style="color: red;"><strong>Error:</strong> {{.Error}}</p>
  {{- end}}

  <div class="stat-card">
    <div>Terms Generated</div>
    <div class="stat-val" id="generated">{{.TermsGenerated}}</div>
  </div>
  <div class="stat-card">
    <div>Trend Data</div>
    <div class="stat-val" id="fetched">{{.TermsFetched}}</div>
  </div>
  <div class="stat-card">
    <div>Fetch Failures</div>
    <div class="stat-val" style="color: {{if gt .TermsFailed 0}}red{{else}}green{{end}};">{{.TermsFailed}}</div>
  </div>
  <div class="stat-card">
    <div>Searches Found</div>
    <div class="stat-val" id="found">{{.SearchesFound}}</div>
  </div>

  <h3>Selected Terms</h3>
  <table id="selected">
    <tr><th>#</th><th>Term</th></tr>
    {{- range $i, $term := .Selected}}
    <tr><td>{{$i | inc}}</td><td>{{$term}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>

  <h3>Output Files</h3>
  <ul id="outputs">
    {{- range .OutputFiles}}
    <li>{{.}}</li>
    {{- end}}
  </ul>
</body>
</html>
`
	t, err := htmltemplate.New("htmlReport").Funcs(htmltemplate.FuncMap{"inc": inc}).Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parse html template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render html summary: %w", err)
	}

	return nil
}

// Write dispatches on format: text, json or html.
func Write(w io.Writer, format string, summary Summary) error {
	switch format {
	case "", "text":
		return WriteText(w, summary)
	case "json":
		return WriteJSON(w, summary)
	case "html":
		return WriteHTML(w, summary)
	default:
		return fmt.Errorf("unknown summary format %q", format)
	}
}

func inc(i int) int { return i + 1 }
