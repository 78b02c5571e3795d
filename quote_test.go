package performance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func newQuoteServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote/AAPL":
			fmt.Fprint(w, `{"code":"AAPL","close":170.5,"volume":123}`)
		case "/quote/AIR.PA":
			fmt.Fprint(w, `{"code":"AIR.PA","close":"1 234,56"}`)
		case "/quote/ZERO":
			fmt.Fprint(w, `{"code":"ZERO","close":0}`)
		case "/quote/LIST":
			fmt.Fprint(w, `[{"close":12.25}]`)
		case "/quote/NOPRICE":
			fmt.Fprint(w, `{"code":"NOPRICE"}`)
		case "/quote/DOWN":
			http.Error(w, "down", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestQuoteOracle(t *testing.T) {
	srv := newQuoteServer(t)

	testCases := []struct {
		symbol  string
		path    string
		want    string
		wantErr error
	}{
		{symbol: "AAPL", path: "$.close", want: "170.5"},
		{symbol: "AIR.PA", path: "$.close", want: "1234.56"},
		{symbol: "LIST", path: "$[0].close", want: "12.25"},
		{symbol: "ZERO", path: "$.close", wantErr: ErrPriceUnavailable},
		{symbol: "NOPRICE", path: "$.close", wantErr: ErrPriceUnavailable},
		{symbol: "UNKNOWN", path: "$.close", wantErr: ErrPriceUnavailable},
	}
	for _, tc := range testCases {
		t.Run(tc.symbol, func(t *testing.T) {
			o := &QuoteOracle{URL: srv.URL + "/quote/{symbol}", Path: tc.path, Client: srv.Client()}
			got, err := o.CurrentPrice(context.Background(), tc.symbol)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("CurrentPrice() error = %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr == nil && got.Decimal().String() != tc.want {
				t.Errorf("CurrentPrice() = %v, want %v", got.Decimal(), tc.want)
			}
		})
	}
}

func TestQuoteOracle_ServerError(t *testing.T) {
	srv := newQuoteServer(t)
	o := &QuoteOracle{URL: srv.URL + "/quote/{symbol}", Path: "$.close", Client: srv.Client()}
	_, err := o.CurrentPrice(context.Background(), "DOWN")
	if err == nil || errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("CurrentPrice() error = %v, want a transport error", err)
	}
}

func TestDiskCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"close":1}`)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &diskCache{base: http.DefaultTransport, dir: t.TempDir(), log: zerolog.Nop()}}
	get := func(path string) string {
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", path, err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		return string(body)
	}

	first, second := get("/ok"), get("/ok")
	if first != second || first != `{"close":1}` {
		t.Errorf("bodies = %q, %q", first, second)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}

	// errors are not cached
	get("/missing")
	get("/missing")
	if got := hits.Load(); got != 3 {
		t.Errorf("server hit %d times, want 3", got)
	}
}
