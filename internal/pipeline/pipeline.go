// Package pipeline runs one pass of term generation, trend collection, term
// selection and marketplace search, writing every artifact along the way.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/trendscout/internal/chart"
	"github.com/FranksOps/trendscout/internal/marketplace"
	"github.com/FranksOps/trendscout/internal/metrics"
	"github.com/FranksOps/trendscout/internal/report"
	"github.com/FranksOps/trendscout/internal/storage"
	"github.com/FranksOps/trendscout/internal/terms"
	"github.com/FranksOps/trendscout/internal/trends"
	"github.com/FranksOps/trendscout/pkg/ratelimit"
)

// Generator produces raw candidate terms for prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]any, error)
}

// Fetcher returns the interest-over-time series of one term.
type Fetcher interface {
	Fetch(ctx context.Context, term string) (*trends.Series, error)
}

// Searcher queries the marketplace. It reports failures as absent results.
type Searcher interface {
	Search(ctx context.Context, q marketplace.Query) marketplace.Result
}

// Chart formats for the combined trend chart.
const (
	ChartPNG  = "png"
	ChartHTML = "html"
)

// Config holds the per-run settings.
type Config struct {
	Prompt     string
	OutputDir  string // per-term and combined trend files
	ReportDir  string // final_report.csv and its chart
	TopN       int
	TrendChart string // png or html
	Metric     report.Metric

	// Search carries count, country and file type; Term is filled per term.
	Search marketplace.Query
}

// Pipeline wires the stages together. Pause and Archive are optional.
type Pipeline struct {
	Generator Generator
	Fetcher   Fetcher
	Searcher  Searcher
	Pause     ratelimit.Waiter
	Archive   storage.Backend
	Config    Config

	logger *slog.Logger
	now    func() time.Time
}

// New returns a pipeline with defaults applied to cfg.
func New(cfg Config, gen Generator, fetcher Fetcher, searcher Searcher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = "."
	}
	if cfg.TopN <= 0 {
		cfg.TopN = trends.DefaultTopN
	}
	if cfg.TrendChart == "" {
		cfg.TrendChart = ChartPNG
	}
	if cfg.Metric == "" {
		cfg.Metric = report.MetricResultCount
	}
	return &Pipeline{
		Generator: gen,
		Fetcher:   fetcher,
		Searcher:  searcher,
		Config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Outcome is the result of one run. Err is set when the run was aborted;
// per-term failures never set it.
type Outcome struct {
	RunID    string
	Terms    []string
	Table    *trends.Table
	Selected []string
	Results  []marketplace.Result
	Report   *report.Report
	Files    []string
	Err      error

	StartTime time.Time
	EndTime   time.Time

	fetched, empty, failed int
}

// OK reports whether the run completed.
func (o *Outcome) OK() bool { return o.Err == nil }

// Summary condenses the outcome for printing.
func (o *Outcome) Summary() report.Summary {
	s := report.Summary{
		RunID:          o.RunID,
		TermsGenerated: len(o.Terms),
		TermsFetched:   o.fetched,
		TermsEmpty:     o.empty,
		TermsFailed:    o.failed,
		Selected:       o.Selected,
		OutputFiles:    o.Files,
		StartTime:      o.StartTime,
		EndTime:        o.EndTime,
		Duration:       o.EndTime.Sub(o.StartTime),
	}
	for _, r := range o.Results {
		if r.Found() {
			s.SearchesFound++
		} else {
			s.SearchesEmpty++
		}
	}
	if o.Report != nil {
		s.ReportRows = o.Report.Len()
	}
	if o.Err != nil {
		s.Error = o.Err.Error()
	}
	return s
}

// Run executes the pipeline once. Generation or validation failure and
// context cancellation abort the run; everything else is logged and the
// run carries on with the remaining terms.
func (p *Pipeline) Run(ctx context.Context) *Outcome {
	out := &Outcome{
		RunID:     uuid.NewString(),
		Table:     trends.NewTable(),
		StartTime: p.now(),
	}
	defer func() { out.EndTime = p.now() }()

	log := p.logger.With("run_id", out.RunID)
	log.Info("starting run")

	raw, err := p.Generator.Generate(ctx, p.Config.Prompt)
	if err != nil {
		out.Err = fmt.Errorf("generate search terms: %w", err)
		return out
	}
	termList, err := terms.Validate(raw)
	if err != nil {
		out.Err = fmt.Errorf("validate search terms: %w", err)
		return out
	}
	out.Terms = termList
	metrics.TermsGenerated.Add(float64(len(termList)))
	log.Info("generated search terms", "count", len(termList), "terms", termList)

	records := make([]*storage.Record, 0, len(termList))
	byTerm := make(map[string]*storage.Record, len(termList))
	var fetched []*trends.Series

	for _, term := range termList {
		if err := ctx.Err(); err != nil {
			out.Err = err
			return out
		}
		rec := p.newRecord(out.RunID, term)
		records = append(records, rec)

		s := p.fetch(ctx, log, out, term, rec)
		if s == nil {
			continue
		}
		if err := out.Table.Join(s); err != nil {
			log.Warn("skipping term", "term", term, "err", err)
			rec.Error = err.Error()
			continue
		}
		byTerm[term] = rec
		fetched = append(fetched, s)
		p.writeSeries(log, out, s)
	}

	p.writeCombined(log, out, fetched)

	for _, d := range trends.Deltas(out.Table) {
		if rec, ok := byTerm[d.Term]; ok {
			rec.Delta = d.Value
		}
	}
	out.Selected = trends.Select(out.Table, p.Config.TopN)
	if len(out.Selected) == 0 {
		log.Warn("no rising terms to search")
	} else {
		log.Info("selected rising terms", "terms", out.Selected)
	}

	for i, term := range out.Selected {
		if err := ctx.Err(); err != nil {
			out.Err = err
			break
		}
		q := p.Config.Search
		q.Term = term
		res := p.Searcher.Search(ctx, q)
		out.Results = append(out.Results, res)

		if rec, ok := byTerm[term]; ok {
			rec.Selected = true
			rec.ResultFile = res.File
			rec.ResultCount = res.Count
			rec.ListLength = res.ListLength
		}

		if p.Pause != nil && i < len(out.Selected)-1 {
			if err := p.Pause.Wait(ctx); err != nil {
				out.Err = err
				break
			}
		}
	}

	out.Report = report.Build(out.Results)
	p.writeReport(log, out)
	p.archive(ctx, log, records)

	if out.Err == nil {
		log.Info("run complete", "selected", len(out.Selected), "report_rows", out.Report.Len())
	}
	return out
}

// fetch returns the series for term, or nil when the term is to be skipped.
func (p *Pipeline) fetch(ctx context.Context, log *slog.Logger, out *Outcome, term string, rec *storage.Record) *trends.Series {
	log.Info("processing term", "term", term)
	start := time.Now()

	s, err := p.Fetcher.Fetch(ctx, term)
	switch {
	case err != nil:
		status := "error"
		if errors.Is(err, trends.ErrBlocked) {
			status = "blocked"
		}
		metrics.RecordTrendFetch(status, time.Since(start))
		log.Error("failed to process term", "term", term, "err", err)
		rec.Error = err.Error()
		out.failed++
		return nil
	case s.Empty():
		metrics.RecordTrendFetch("empty", time.Since(start))
		log.Warn("skipping term due to lack of trend data", "term", term)
		out.empty++
		return nil
	}

	metrics.RecordTrendFetch("ok", time.Since(start))
	out.fetched++
	rec.Points = len(s.Points)
	rec.Latest, _ = s.Latest()
	s.Term = term
	return s
}

func (p *Pipeline) newRecord(runID, term string) *storage.Record {
	return &storage.Record{
		ID:        uuid.NewString(),
		RunID:     runID,
		Term:      term,
		CreatedAt: p.now(),
	}
}

func (p *Pipeline) writeSeries(log *slog.Logger, out *Outcome, s *trends.Series) {
	dir := filepath.Join(p.Config.OutputDir, safeName(s.Term))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("error creating term output directory", "term", s.Term, "err", err)
		return
	}

	base := filepath.Join(dir, safeName(s.Term))
	p.writeFile(log, out, base+"_trend_data.csv", s.WriteCSV)
	if len(s.Related) > 0 {
		p.writeFile(log, out, base+"_related_queries.csv", func(w io.Writer) error {
			return trends.WriteRelatedCSV(w, s)
		})
	}
}

func (p *Pipeline) writeCombined(log *slog.Logger, out *Outcome, fetched []*trends.Series) {
	if out.Table.Empty() {
		log.Warn("no trend data collected, skipping combined output")
		return
	}
	if err := os.MkdirAll(p.Config.OutputDir, 0o755); err != nil {
		log.Error("error creating output directory", "err", err)
		return
	}

	p.writeFile(log, out, filepath.Join(p.Config.OutputDir, "combined_trend_data.csv"), out.Table.WriteCSV)
	p.writeFile(log, out, filepath.Join(p.Config.OutputDir, "combined_related_queries.csv"), func(w io.Writer) error {
		return trends.WriteRelatedCSV(w, fetched...)
	})

	path := filepath.Join(p.Config.OutputDir, "combined_trend_chart."+p.Config.TrendChart)
	render := chart.RenderTrendPNG
	if p.Config.TrendChart == ChartHTML {
		render = chart.RenderTrendHTML
	}
	if err := render(out.Table, path); err != nil {
		log.Error("error rendering trend chart", "path", path, "err", err)
		return
	}
	out.Files = append(out.Files, path)
	log.Info("saved combined trend chart", "path", path)
}

func (p *Pipeline) writeReport(log *slog.Logger, out *Outcome) {
	if out.Report.Len() == 0 {
		log.Warn("no marketplace results, skipping final report")
		return
	}
	if err := os.MkdirAll(p.Config.ReportDir, 0o755); err != nil {
		log.Error("error creating report directory", "err", err)
		return
	}

	p.writeFile(log, out, filepath.Join(p.Config.ReportDir, report.FileName), out.Report.WriteCSV)

	path := filepath.Join(p.Config.ReportDir, report.ChartFileName)
	if err := out.Report.RenderChart(p.Config.Metric, path); err != nil {
		log.Error("error rendering report chart", "path", path, "err", err)
		return
	}
	out.Files = append(out.Files, path)
	log.Info("saved final report chart", "path", path)
}

func (p *Pipeline) writeFile(log *slog.Logger, out *Outcome, path string, write func(io.Writer) error) {
	f, err := os.Create(path)
	if err != nil {
		log.Error("error creating output file", "path", path, "err", err)
		return
	}
	if err := write(f); err != nil {
		f.Close()
		log.Error("error writing output file", "path", path, "err", err)
		return
	}
	if err := f.Close(); err != nil {
		log.Error("error closing output file", "path", path, "err", err)
		return
	}
	out.Files = append(out.Files, path)
	log.Info("saved file", "path", path)
}

func (p *Pipeline) archive(ctx context.Context, log *slog.Logger, records []*storage.Record) {
	if p.Archive == nil {
		return
	}
	// Archive even when the run context was cancelled.
	ctx = context.WithoutCancel(ctx)
	for _, rec := range records {
		if err := p.Archive.Save(ctx, rec); err != nil {
			log.Error("error archiving record", "term", rec.Term, "err", err)
		}
	}
}

// safeName keeps a term usable as a single path element.
func safeName(term string) string {
	r := strings.NewReplacer("/", "_", `\`, "_", string(os.PathSeparator), "_")
	name := r.Replace(strings.TrimSpace(term))
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
