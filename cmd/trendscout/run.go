package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FranksOps/trendscout/internal/metrics"
	"github.com/FranksOps/trendscout/internal/report"
)

// errRunFailed is returned after the failure has already been logged.
var errRunFailed = errors.New("run failed")

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format := cfg.Output.Summary
	if cmd.Flags().Changed("summary") {
		format = summary
	}
	if format != "" && format != "none" && format != "text" && format != "json" && format != "html" {
		return &configError{err: fmt.Errorf("invalid --summary %q", format)}
	}

	c, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return &configError{err: err}
	}
	defer c.Close()

	ms := metrics.Start(cfg.Metrics.Port, logger)
	defer func() {
		if err := ms.Stop(context.WithoutCancel(ctx)); err != nil {
			logger.Error("error stopping metrics server", "err", err)
		}
	}()

	out := c.pipeline.Run(ctx)

	if format != "" && format != "none" {
		if err := report.Write(cmd.OutOrStdout(), format, out.Summary()); err != nil {
			logger.Error("error writing summary", "err", err)
		}
	}

	if !out.OK() {
		logger.Error("run failed", "run_id", out.RunID, "err", out.Err)
		return fmt.Errorf("%w: %w", errRunFailed, out.Err)
	}
	return nil
}
