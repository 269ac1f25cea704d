package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FranksOps/trendscout/internal/config"
	"github.com/FranksOps/trendscout/internal/marketplace"
	"github.com/FranksOps/trendscout/internal/pipeline"
	"github.com/FranksOps/trendscout/internal/report"
	"github.com/FranksOps/trendscout/internal/storage"
	"github.com/FranksOps/trendscout/internal/storage/csvbackend"
	"github.com/FranksOps/trendscout/internal/storage/jsonbackend"
	"github.com/FranksOps/trendscout/internal/storage/postgres"
	"github.com/FranksOps/trendscout/internal/storage/sqlite"
	"github.com/FranksOps/trendscout/internal/terms"
	"github.com/FranksOps/trendscout/internal/trends"
	"github.com/FranksOps/trendscout/pkg/httpclient"
	"github.com/FranksOps/trendscout/pkg/proxy"
	"github.com/FranksOps/trendscout/pkg/ratelimit"
	"github.com/FranksOps/trendscout/pkg/useragent"
)

// components holds everything a run needs plus what must be released after.
type components struct {
	pipeline *pipeline.Pipeline
	closers  []func()
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*components, error) {
	c := &components{}

	prompt, err := terms.RenderPrompt(cfg.Prompt.Template, terms.PromptData{
		Count:    cfg.Prompt.Count,
		MaxWords: cfg.Prompt.MaxWords,
		Year:     cfg.Prompt.Year,
	})
	if err != nil {
		return nil, err
	}

	gen := terms.NewGenerator(cfg.Ollama.Host, cfg.Ollama.Model, cfg.Ollama.Temperature, cfg.Ollama.Timeout, logger)

	fetcher, err := buildTrendsClient(cfg.Trends, logger, c)
	if err != nil {
		c.Close()
		return nil, err
	}

	searcher := marketplace.NewSearcher(cfg.Marketplace.Binary, cfg.Marketplace.Dir, logger)

	metric, err := report.ParseMetric(cfg.Report.ChartMetric)
	if err != nil {
		c.Close()
		return nil, err
	}

	p := pipeline.New(pipeline.Config{
		Prompt:     prompt,
		OutputDir:  cfg.Output.Dir,
		ReportDir:  cfg.Output.ReportDir,
		TopN:       cfg.Trends.TopN,
		TrendChart: cfg.Output.TrendChart,
		Metric:     metric,
		Search: marketplace.Query{
			Count:    cfg.Marketplace.Count,
			Country:  cfg.Marketplace.Country,
			FileType: cfg.Marketplace.FileType,
		},
	}, gen, fetcher, searcher, logger)
	p.Pause = ratelimit.NewPause(cfg.Marketplace.DelayMin, cfg.Marketplace.DelayMax)

	archive, err := openArchive(ctx, cfg.Archive)
	if err != nil {
		c.Close()
		return nil, err
	}
	if archive != nil {
		p.Archive = archive
		c.closers = append(c.closers, func() {
			if err := archive.Close(); err != nil {
				logger.Error("error closing archive", "err", err)
			}
		})
	}

	c.pipeline = p
	return c, nil
}

func buildTrendsClient(tc config.TrendsConfig, logger *slog.Logger, c *components) (*trends.Client, error) {
	profile, err := httpclient.ParseProfile(tc.TLSProfile)
	if err != nil {
		return nil, err
	}
	hc, err := httpclient.New(httpclient.Config{
		Timeout:      tc.Timeout,
		MaxRedirects: 5,
		UseCookieJar: true,
		Profile:      profile,
		Proxy:        proxy.FromRequest,
	})
	if err != nil {
		return nil, fmt.Errorf("create trends http client: %w", err)
	}

	var proxies *proxy.Pool
	if tc.ProxiesFile != "" {
		proxies = proxy.NewPool(proxy.Config{})
		if err := proxies.LoadFile(tc.ProxiesFile); err != nil {
			return nil, err
		}
		logger.Info("loaded proxies", "count", proxies.Len())
	}

	limiter := ratelimit.NewLimiter(tc.RPS, tc.Jitter)
	c.closers = append(c.closers, limiter.Stop)

	return trends.NewClient(trends.ClientConfig{
		BaseURL:    tc.BaseURL,
		HL:         tc.HL,
		TZ:         tc.TZ,
		Timeframe:  tc.Timeframe,
		Geo:        tc.Geo,
		Related:    tc.Related,
		HTTP:       hc,
		UserAgents: useragent.NewPool(tc.UserAgents),
		Proxies:    proxies,
		Limiter:    limiter,
	}, logger)
}

// openArchive returns nil when no archive backend is configured.
func openArchive(ctx context.Context, ac config.ArchiveConfig) (storage.Backend, error) {
	var (
		b   storage.Backend
		err error
	)
	switch ac.Backend {
	case "":
		return nil, nil
	case "csv":
		b, err = csvbackend.New(ac.DSN)
	case "json":
		b, err = jsonbackend.New(ac.DSN)
	case "sqlite":
		b, err = sqlite.New(ac.DSN)
	case "postgres":
		b, err = postgres.New(ctx, ac.DSN)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", ac.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s archive: %w", ac.Backend, err)
	}
	return b, nil
}
