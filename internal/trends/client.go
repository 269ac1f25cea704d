package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/FranksOps/trendscout/internal/metrics"
	"github.com/FranksOps/trendscout/pkg/httpclient"
	"github.com/FranksOps/trendscout/pkg/proxy"
	"github.com/FranksOps/trendscout/pkg/ratelimit"
	"github.com/FranksOps/trendscout/pkg/useragent"
)

// ErrBlocked means the provider refused the request (rate limit, captcha,
// unusual-traffic page). It is always wrapped in a *FetchError.
var ErrBlocked = errors.New("trends: request blocked by provider")

// FetchError is a provider-side failure for one term.
type FetchError struct {
	Term  string
	Stage string // explore, multiline
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch trends for %q (%s): %v", e.Term, e.Stage, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

const (
	DefaultBaseURL   = "https://trends.google.com"
	DefaultTimeframe = "today 12-m"
)

// ClientConfig describes the query window and the transport helpers.
type ClientConfig struct {
	BaseURL   string
	HL        string // interface language, e.g. en-US
	TZ        int    // minutes offset, 360 = US Central
	Timeframe string
	Geo       string // empty = worldwide
	Category  int    // 0 = all categories
	Property  string // empty = web search
	// Related enables the follow-up request for top related queries.
	Related bool

	HTTP       *httpclient.Client
	UserAgents *useragent.Pool
	Proxies    *proxy.Pool
	Limiter    ratelimit.Waiter
}

// Client talks to the Google Trends web API the way the trends site does:
// explore to obtain widget tokens, then widgetdata for each widget.
type Client struct {
	cfg    ClientConfig
	logger *slog.Logger

	warmOnce sync.Once
}

// NewClient fills in defaults. A nil HTTP client gets a cookie-jar client
// with the Go TLS profile.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.HL == "" {
		cfg.HL = "en-US"
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = DefaultTimeframe
	}
	if cfg.UserAgents == nil {
		cfg.UserAgents = useragent.NewPool(nil)
	}
	if cfg.HTTP == nil {
		c, err := httpclient.New(httpclient.Config{
			Timeout:      30 * time.Second,
			MaxRedirects: 5,
			UseCookieJar: true,
			Proxy:        proxy.FromRequest,
		})
		if err != nil {
			return nil, fmt.Errorf("create trends http client: %w", err)
		}
		cfg.HTTP = c
	}
	return &Client{cfg: cfg, logger: logger}, nil
}

type widget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type exploreResponse struct {
	Widgets []widget `json:"widgets"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []struct {
			Time      string `json:"time"`
			Value     []int  `json:"value"`
			HasData   []bool `json:"hasData"`
			IsPartial bool   `json:"isPartial"`
		} `json:"timelineData"`
	} `json:"default"`
}

type relatedResponse struct {
	Default struct {
		RankedList []struct {
			RankedKeyword []struct {
				Query string `json:"query"`
				Value int    `json:"value"`
			} `json:"rankedKeyword"`
		} `json:"rankedList"`
	} `json:"default"`
}

// Fetch returns the interest-over-time series for term. A term the
// provider has no data for yields an empty series and a nil error.
func (c *Client) Fetch(ctx context.Context, term string) (*Series, error) {
	c.warmOnce.Do(func() { c.warmUp(ctx) })

	widgets, err := c.explore(ctx, term)
	if err != nil {
		return nil, &FetchError{Term: term, Stage: "explore", Err: err}
	}

	series := &Series{Term: term}

	ts, ok := findWidget(widgets, "TIMESERIES")
	if !ok {
		c.logger.Warn("no timeseries widget in explore response", "term", term)
		return series, nil
	}

	var ml multilineResponse
	if err := c.widgetData(ctx, "/trends/api/widgetdata/multiline", ts, &ml); err != nil {
		return nil, &FetchError{Term: term, Stage: "multiline", Err: err}
	}

	for _, td := range ml.Default.TimelineData {
		if len(td.Value) == 0 {
			continue
		}
		sec, err := strconv.ParseInt(td.Time, 10, 64)
		if err != nil {
			return nil, &FetchError{Term: term, Stage: "multiline", Err: fmt.Errorf("bad timestamp %q: %w", td.Time, err)}
		}
		series.Points = append(series.Points, Point{
			Date:    time.Unix(sec, 0).UTC(),
			Value:   float64(td.Value[0]),
			Partial: td.IsPartial,
		})
	}

	if series.Empty() {
		c.logger.Warn("no trend data found", "term", term)
		return series, nil
	}

	if c.cfg.Related {
		if rq, ok := findWidget(widgets, "RELATED_QUERIES"); ok {
			series.Related, err = c.related(ctx, rq)
			if err != nil {
				c.logger.Error("error fetching related queries", "term", term, "err", err)
			}
		}
		if len(series.Related) == 0 {
			c.logger.Warn("no top related queries found", "term", term)
		}
	}

	return series, nil
}

// warmUp loads the trends home page so the cookie jar holds the NID cookie
// the API expects. Failure only degrades later requests, so it is logged.
func (c *Client) warmUp(ctx context.Context) {
	geo := c.cfg.Geo
	if geo == "" && len(c.cfg.HL) >= 2 {
		geo = strings.ToUpper(c.cfg.HL[len(c.cfg.HL)-2:])
	}
	if _, err := c.get(ctx, "/", url.Values{"geo": {geo}}); err != nil {
		c.logger.Debug("trends warm-up request failed", "err", err)
	}
}

func (c *Client) explore(ctx context.Context, term string) ([]widget, error) {
	req, err := json.Marshal(map[string]any{
		"comparisonItem": []map[string]string{{
			"keyword": term,
			"time":    c.cfg.Timeframe,
			"geo":     c.cfg.Geo,
		}},
		"category": c.cfg.Category,
		"property": c.cfg.Property,
	})
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, "/trends/api/explore", c.params(url.Values{"req": {string(req)}}))
	if err != nil {
		return nil, err
	}

	var er exploreResponse
	if err := decodeGuarded(body, &er); err != nil {
		return nil, fmt.Errorf("decode explore: %w", err)
	}
	return er.Widgets, nil
}

func (c *Client) widgetData(ctx context.Context, path string, w widget, v any) error {
	body, err := c.get(ctx, path, c.params(url.Values{
		"req":   {string(w.Request)},
		"token": {w.Token},
	}))
	if err != nil {
		return err
	}
	if err := decodeGuarded(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) related(ctx context.Context, w widget) ([]RelatedQuery, error) {
	var rr relatedResponse
	if err := c.widgetData(ctx, "/trends/api/widgetdata/relatedsearches", w, &rr); err != nil {
		return nil, err
	}
	if len(rr.Default.RankedList) == 0 {
		return nil, nil
	}
	// rankedList[0] is "top", rankedList[1] is "rising".
	var out []RelatedQuery
	for _, kw := range rr.Default.RankedList[0].RankedKeyword {
		out = append(out, RelatedQuery{Query: kw.Query, Value: kw.Value})
	}
	return out, nil
}

func (c *Client) params(extra url.Values) url.Values {
	v := url.Values{
		"hl": {c.cfg.HL},
		"tz": {strconv.Itoa(c.cfg.TZ)},
	}
	for k, vals := range extra {
		v[k] = vals
	}
	return v
}

// get performs one paced GET through the next proxy and returns the body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.cfg.Limiter != nil {
		if err := c.cfg.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var activeProxy *url.URL
	if c.cfg.Proxies != nil {
		activeProxy = c.cfg.Proxies.Next()
	}
	reqCtx := proxy.WithProxy(ctx, activeProxy)

	target := c.cfg.BaseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgents.Random())
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", c.cfg.HL+",en;q=0.9")

	resp, err := c.cfg.HTTP.Do(reqCtx, req)
	if err != nil {
		c.proxyFailed(activeProxy)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.proxyFailed(activeProxy)
		return nil, err
	}

	if isBlocked, reason := blocked(&response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		FinalURL:   resp.Request.URL.String(),
	}); isBlocked {
		c.proxyFailed(activeProxy)
		return nil, fmt.Errorf("%w: %s", ErrBlocked, reason)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}

	if activeProxy != nil {
		_ = c.cfg.Proxies.MarkSuccess(activeProxy)
	}
	return body, nil
}

func (c *Client) proxyFailed(u *url.URL) {
	if u == nil {
		return
	}
	_ = c.cfg.Proxies.MarkFailure(u)
	metrics.ProxyFailures.WithLabelValues(u.Redacted()).Inc()
}

func findWidget(ws []widget, prefix string) (widget, bool) {
	for _, w := range ws {
		if strings.HasPrefix(w.ID, prefix) {
			return w, true
		}
	}
	return widget{}, false
}

// decodeGuarded strips the anti-XSSI prefix (")]}'" plus an optional comma
// and newline) that the trends API puts in front of every JSON body.
func decodeGuarded(body []byte, v any) error {
	start := bytes.IndexByte(body, '{')
	if start < 0 {
		return errors.New("no JSON object in body")
	}
	return json.Unmarshal(body[start:], v)
}
