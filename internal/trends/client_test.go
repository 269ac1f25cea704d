package trends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FranksOps/trendscout/pkg/proxy"
)

const xssi = ")]}'\n"

type fakeTrends struct {
	timeline string
	related  string
	explore  int32
	warm     int32
}

func (f *fakeTrends) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.warm, 1)
		http.SetCookie(w, &http.Cookie{Name: "NID", Value: "abc", Path: "/"})
		fmt.Fprint(w, "<html></html>")
	})
	mux.HandleFunc("/trends/api/explore", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.explore, 1)
		var req struct {
			ComparisonItem []struct {
				Keyword string `json:"keyword"`
				Time    string `json:"time"`
			} `json:"comparisonItem"`
		}
		assert.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("req")), &req))
		if assert.Len(t, req.ComparisonItem, 1) {
			assert.Equal(t, DefaultTimeframe, req.ComparisonItem[0].Time)
		}
		assert.Equal(t, "en-US", r.URL.Query().Get("hl"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		fmt.Fprint(w, xssi+`{"widgets":[
			{"id":"TIMESERIES","token":"ts-token","request":{"time":"today 12-m"}},
			{"id":"RELATED_QUERIES_0","token":"rq-token","request":{"restriction":{}}}
		]}`)
	})
	mux.HandleFunc("/trends/api/widgetdata/multiline", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ts-token", r.URL.Query().Get("token"))
		assert.JSONEq(t, `{"time":"today 12-m"}`, r.URL.Query().Get("req"))
		fmt.Fprint(w, xssi+`{"default":{"timelineData":`+f.timeline+`}}`)
	})
	mux.HandleFunc("/trends/api/widgetdata/relatedsearches", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rq-token", r.URL.Query().Get("token"))
		fmt.Fprint(w, xssi+`{"default":{"rankedList":`+f.related+`}}`)
	})
	return mux
}

func newTestClient(t *testing.T, url string, related bool) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{BaseURL: url, TZ: 360, Related: related}, nil)
	require.NoError(t, err)
	return c
}

func TestClient_Fetch(t *testing.T) {
	fake := &fakeTrends{
		timeline: `[
			{"time":"1704067200","formattedTime":"Jan 1, 2024","value":[40],"hasData":[true]},
			{"time":"1704672000","formattedTime":"Jan 8, 2024","value":[55],"hasData":[true],"isPartial":true}
		]`,
		related: `[{"rankedKeyword":[{"query":"lamp shade","value":100},{"query":"led lamp","value":40}]},{"rankedKeyword":[]}]`,
	}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := newTestClient(t, srv.URL, true)
	s, err := c.Fetch(context.Background(), "vintage lamp")
	require.NoError(t, err)

	require.Len(t, s.Points, 2)
	assert.Equal(t, "vintage lamp", s.Term)
	assert.Equal(t, "2024-01-01", s.Points[0].Date.Format(DateLayout))
	assert.Equal(t, 40.0, s.Points[0].Value)
	assert.True(t, s.Points[1].Partial)
	assert.Equal(t, []RelatedQuery{{"lamp shade", 100}, {"led lamp", 40}}, s.Related)

	_, err = c.Fetch(context.Background(), "desk organizer")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fake.warm), "warm-up runs once per client")
	assert.EqualValues(t, 2, atomic.LoadInt32(&fake.explore))
}

func TestClient_FetchNoData(t *testing.T) {
	fake := &fakeTrends{timeline: `[]`, related: `[]`}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	s, err := newTestClient(t, srv.URL, true).Fetch(context.Background(), "zzqx")
	require.NoError(t, err)
	assert.True(t, s.Empty())
}

func TestClient_FetchBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, false).Fetch(context.Background(), "lamp")
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "lamp", fe.Term)
	assert.Equal(t, "explore", fe.Stage)
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestClient_FetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, false).Fetch(context.Background(), "lamp")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.NotErrorIs(t, err, ErrBlocked)
}

func TestClient_ProxyMarkedOnFailure(t *testing.T) {
	pool := proxy.NewPool(proxy.Config{MaxFailures: 1})
	// Nothing listens on this port, so every request fails at dial.
	require.NoError(t, pool.Add("http://127.0.0.1:1"))

	c, err := NewClient(ClientConfig{BaseURL: "http://trends.invalid", Proxies: pool}, nil)
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "lamp")
	require.Error(t, err)
	assert.Nil(t, pool.Next(), "failed proxy should be cooling down")
}

func TestDecodeGuarded(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	require.NoError(t, decodeGuarded([]byte(")]}',\n{\"a\":3}"), &v))
	assert.Equal(t, 3, v.A)
	assert.Error(t, decodeGuarded([]byte("<html>"), &v))
}
