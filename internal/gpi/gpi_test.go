package gpi

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TS404/ragp/internal/fasta"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestFetchPredictions(t *testing.T) {
	response := `{"predictions":[{"id":"a","gpi_anchored":true},{"id":"b","gpi_anchored":false}]}`

	calls := 0
	httpClient = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return &http.Response{
			StatusCode: 200,
			Body:       io.NopCloser(strings.NewReader(response)),
			Header:     make(http.Header),
		}, nil
	})}

	// hermetic cache
	SetCacheFilePath(filepath.Join(t.TempDir(), "gpi_cache.json"))

	records := []fasta.Record{
		{Header: "a desc", Sequence: "APAP"},
		{Header: "b", Sequence: "SPPP"},
	}
	got, err := FetchPredictions(context.Background(), "http://example/api", records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got["a"] || got["b"] {
		t.Fatalf("unexpected verdicts: %v", got)
	}
	if calls != 1 {
		t.Fatalf("expected 1 HTTP call, got %d", calls)
	}

	// second call must be served from cache; fail if the transport runs
	httpClient = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		t.Fatal("unexpected HTTP call, cache should have answered")
		return nil, nil
	})}
	got, err = FetchPredictions(context.Background(), "http://example/api", records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got["a"] || got["b"] {
		t.Fatalf("unexpected cached verdicts: %v", got)
	}
}

func TestFetchPredictionsRetriesOn429(t *testing.T) {
	response := `{"predictions":[{"id":"a","gpi_anchored":true}]}`

	calls := 0
	httpClient = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return &http.Response{
				StatusCode: 429,
				Body:       io.NopCloser(strings.NewReader("slow down")),
				Header:     make(http.Header),
			}, nil
		}
		return &http.Response{
			StatusCode: 200,
			Body:       io.NopCloser(strings.NewReader(response)),
			Header:     make(http.Header),
		}, nil
	})}
	SetCacheFilePath(filepath.Join(t.TempDir(), "gpi_cache.json"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	got, err := FetchPredictions(ctx, "http://example/api", []fasta.Record{{Header: "a", Sequence: "APAP"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected retry after 429, got %d calls", calls)
	}
	if !got["a"] {
		t.Fatalf("unexpected verdicts: %v", got)
	}
}
