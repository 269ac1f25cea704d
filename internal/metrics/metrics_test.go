package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsServer(t *testing.T) {
	srv := Start(8888, nil)
	// Give it a tiny bit of time to start up
	time.Sleep(100 * time.Millisecond)

	defer srv.Stop(context.Background())

	RecordTrendFetch("ok", 2*time.Second)
	RecordSearch("found", 30*time.Second)

	resp, err := http.Get("http://localhost:8888/metrics")
	if err != nil {
		t.Fatalf("failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	output := string(body)
	for _, name := range []string{
		"trendscout_trend_fetches_total",
		"trendscout_trend_fetch_duration_seconds",
		"trendscout_marketplace_searches_total",
		"trendscout_marketplace_search_duration_seconds",
	} {
		if !strings.Contains(output, name) {
			t.Errorf("expected %s metric", name)
		}
	}
}

func TestRecordSearch_Labels(t *testing.T) {
	before := testutil.ToFloat64(MarketplaceSearches.WithLabelValues("empty"))
	RecordSearch("empty", time.Second)
	after := testutil.ToFloat64(MarketplaceSearches.WithLabelValues("empty"))

	if after-before != 1 {
		t.Errorf("expected empty counter to grow by 1, grew by %v", after-before)
	}
}

func TestStart_DisabledPort(t *testing.T) {
	srv := Start(0, nil)
	if err := srv.Stop(context.Background()); err != nil {
		t.Errorf("stopping a disabled server should be a no-op, got %v", err)
	}
}
