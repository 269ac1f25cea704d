package marketplace

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/FranksOps/trendscout/internal/metrics"
)

// Searcher runs marketplace searches. Search never fails: every problem is
// logged and turned into an absent Result.
type Searcher struct {
	Runner  Runner
	Locator Locator
	Dir     string // where the tool writes its files

	logger *slog.Logger
}

// NewSearcher wires the default subprocess runner and locator for binary,
// running in dir.
func NewSearcher(binary, dir string, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		Runner:  ExecRunner{Binary: binary, Dir: dir},
		Locator: PatternLocator{},
		Dir:     dir,
		logger:  logger,
	}
}

// Args builds the tool command line for q.
func Args(q Query) []string {
	return []string{
		"products",
		"-k", q.Term,
		"-n", strconv.Itoa(q.Count),
		"--country", q.Country,
		"--filetype", q.FileType,
		"--random-ua",
	}
}

func (s *Searcher) Search(ctx context.Context, q Query) (res Result) {
	start := time.Now()
	status := "failed"
	defer func() {
		if r := recover(); r != nil {
			s.log().Error("marketplace search panicked", "term", q.Term, "panic", r)
			res = absent(q.Term)
			status = "failed"
		}
		metrics.RecordSearch(status, time.Since(start))
	}()

	q = withDefaults(q)
	s.log().Info("searching marketplace", "term", q.Term, "count", q.Count)

	run, err := s.Runner.Run(ctx, Args(q))
	if err != nil {
		s.log().Error("error running marketplace tool", "term", q.Term, "err", err)
		return absent(q.Term)
	}
	if run.ExitCode != 0 {
		s.log().Error("marketplace tool failed", "term", q.Term, "exit_code", run.ExitCode, "stderr", strings.TrimSpace(run.Stderr))
		return absent(q.Term)
	}

	path, err := s.Locator.Locate(run.Stdout, s.Dir, q.FileType)
	if err != nil {
		s.log().Warn("no marketplace result file", "term", q.Term, "err", err)
		return absent(q.Term)
	}

	count, listLength, err := Load(path, q.FileType)
	if err != nil {
		s.log().Error("error loading marketplace results", "term", q.Term, "file", path, "err", err)
		return absent(q.Term)
	}

	res = Result{Term: q.Term, File: path, Count: count, ListLength: listLength}
	if res.Found() {
		status = "found"
		s.log().Info("marketplace results loaded", "term", q.Term, "file", path, "count", count)
	} else {
		status = "empty"
		s.log().Warn("marketplace result file is empty", "term", q.Term, "file", path)
	}
	return res
}

func (s *Searcher) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

func withDefaults(q Query) Query {
	if q.Count <= 0 {
		q.Count = DefaultCount
	}
	if q.Country == "" {
		q.Country = DefaultCountry
	}
	if q.FileType == "" {
		q.FileType = DefaultFileType
	}
	q.FileType = strings.ToLower(q.FileType)
	return q
}
