package gpi

// Package gpi queries an external GPI-anchor prediction service for protein
// sequences. Verdicts are cached on disk so reruns over the same FASTA do
// not hammer the service.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/TS404/ragp/internal/fasta"
)

// DefaultBaseURL points at the public prediction endpoint. Override via
// config when running against a mirror.
const DefaultBaseURL = "https://services.healthtech.dtu.dk/api/netgpi"

// httpClient performs requests; tests may replace it with a mock transport.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// Cache structures
type cachedEntry struct {
	Anchored    bool  `json:"anchored"`
	RetrievedAt int64 `json:"retrieved_at"`
}

var (
	cacheMu       sync.RWMutex
	cache         map[string]cachedEntry
	cacheLoaded   bool
	cacheFilePath string
	cacheTTLSecs  int64
)

// SetCacheFilePath overrides the on-disk cache location.
func SetCacheFilePath(path string) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cacheFilePath = path
	cacheLoaded = false
	cache = nil
}

// SetCacheTTLSeconds overrides the cache TTL; zero or negative disables expiry.
func SetCacheTTLSeconds(secs int64) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cacheTTLSecs = secs
}

// FlushCache writes the in-memory cache to disk. Safe to call at exit even
// when nothing was fetched.
func FlushCache() {
	saveCache()
}

// cache TTL in seconds (default 7 days)
func cacheTTL() int64 {
	if cacheTTLSecs != 0 {
		return cacheTTLSecs
	}
	if s := os.Getenv("GPI_CACHE_TTL_SECONDS"); s != "" {
		if v, err := time.ParseDuration(s + "s"); err == nil {
			return int64(v.Seconds())
		}
	}
	return int64(7 * 24 * 3600)
}

func defaultCachePath() string {
	if cacheFilePath != "" {
		return cacheFilePath
	}
	if dir, err := os.UserCacheDir(); err == nil {
		p := filepath.Join(dir, "ragp")
		_ = os.MkdirAll(p, 0o755)
		return filepath.Join(p, "gpi_cache.json")
	}
	return filepath.Join(os.TempDir(), "ragp_gpi_cache.json")
}

func loadCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cacheLoaded {
		return
	}
	path := defaultCachePath()
	cache = make(map[string]cachedEntry)
	data, err := os.ReadFile(path)
	if err != nil {
		cacheLoaded = true
		return
	}
	_ = json.Unmarshal(data, &cache)
	cacheLoaded = true
}

func saveCache() {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	if cache == nil {
		return
	}
	path := defaultCachePath()
	b, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(path, b, 0o644)
}

func getCached(acc string) (bool, bool) {
	loadCache()
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	e, ok := cache[acc]
	if !ok {
		return false, false
	}
	ttl := cacheTTL()
	if ttl > 0 && time.Now().Unix()-e.RetrievedAt > ttl {
		return false, false
	}
	return e.Anchored, true
}

func setCached(acc string, anchored bool) {
	if acc == "" {
		return
	}
	loadCache()
	cacheMu.Lock()
	cache[acc] = cachedEntry{Anchored: anchored, RetrievedAt: time.Now().Unix()}
	cacheMu.Unlock()
}

// prediction mirrors one entry of the service's JSON response.
type prediction struct {
	ID       string `json:"id"`
	Anchored bool   `json:"gpi_anchored"`
}

type predictResponse struct {
	Predictions []prediction `json:"predictions"`
	Message     string       `json:"message"`
}

// FetchPredictions submits the given records as a FASTA batch and returns a
// per-accession GPI verdict. Cached verdicts are returned without a network
// round trip; only the misses are submitted.
func FetchPredictions(ctx context.Context, baseURL string, records []fasta.Record) (map[string]bool, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	out := make(map[string]bool, len(records))

	var misses []fasta.Record
	for _, rec := range records {
		acc := fasta.Accession(rec.Header)
		if v, ok := getCached(acc); ok {
			out[acc] = v
			continue
		}
		misses = append(misses, rec)
	}
	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := submit(ctx, baseURL, misses)
	if err != nil {
		return out, err
	}
	for acc, anchored := range fetched {
		out[acc] = anchored
		setCached(acc, anchored)
	}
	saveCache()
	return out, nil
}

// submit posts one multipart FASTA batch and parses the verdicts. Retries
// on 429 with backoff, like any polite API consumer.
func submit(ctx context.Context, baseURL string, records []fasta.Record) (map[string]bool, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile("input_data", "input.fasta")
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		fmt.Fprintf(fw, ">%s\n%s\n", fasta.Accession(rec.Header), rec.Sequence)
	}
	_ = mw.Close()
	body := buf.Bytes()

	url := strings.TrimRight(baseURL, "/") + "/predictions"
	if apiKey := os.Getenv("GPI_API_KEY"); apiKey != "" {
		url += "?api_key=" + apiKey
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("User-Agent", "ragp-gpi/1.0")

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt*300) * time.Millisecond)
			continue
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode == 429 {
			lastErr = fmt.Errorf("gpi service returned 429")
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}
		if resp.StatusCode != 200 {
			return nil, fmt.Errorf("gpi service returned status %d: %s", resp.StatusCode, string(data))
		}
		if readErr != nil {
			return nil, readErr
		}

		var parsed predictResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse gpi response: %v (body: %s)", err, string(data))
		}
		verdicts := make(map[string]bool, len(parsed.Predictions))
		for _, p := range parsed.Predictions {
			verdicts[p.ID] = p.Anchored
		}
		return verdicts, nil
	}
	return nil, lastErr
}
