package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/TS404/ragp/internal/store"
)

// Result mirrors one row of the pipeline's database.json.
type Result struct {
	Name        string  `json:"name"`
	Accession   string  `json:"accession"`
	Sequence    string  `json:"sequence"`
	Length      int     `json:"length"`
	MAABClass   string  `json:"maab_class"`
	ExtSP       int     `json:"ext_sp"`
	Tyr         int     `json:"tyr"`
	Prp         int     `json:"prp"`
	Agp         int     `json:"agp"`
	PastPercent float64 `json:"past_percent"`
	PvykPercent float64 `json:"pvyk_percent"`
	PskyPercent float64 `json:"psky_percent"`
	PPercent    float64 `json:"p_percent"`
	Coverage    float64 `json:"coverage"`
	GpiAnchored *bool   `json:"gpi_anchored,omitempty"`
}

// ResultsPage is used to render the base page and to carry query state
type ResultsPage struct {
	Results []Result
	Query   string
	Sort    string
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>MAAB classification results</title></head>
<body>
<h1>MAAB classification results</h1>
<form method="get">
  <input type="text" name="q" value="{{.Query}}" placeholder="accession or class">
  <select name="sort">
    <option value="id" {{if eq .Sort "id"}}selected{{end}}>by accession</option>
    <option value="class" {{if eq .Sort "class"}}selected{{end}}>by class</option>
    <option value="coverage" {{if eq .Sort "coverage"}}selected{{end}}>by coverage</option>
  </select>
  <button type="submit">Filter</button>
</form>
<table border="1" cellpadding="4">
  <tr><th>Accession</th><th>Class</th><th>Length</th><th>ext</th><th>tyr</th><th>prp</th><th>agp</th><th>Coverage</th></tr>
  {{range .Results}}
  <tr>
    <td><a href="/result/{{.Accession}}">{{.Accession}}</a></td>
    <td>{{.MAABClass}}</td>
    <td>{{.Length}}</td>
    <td>{{.ExtSP}}</td>
    <td>{{.Tyr}}</td>
    <td>{{.Prp}}</td>
    <td>{{.Agp}}</td>
    <td>{{printf "%.3f" .Coverage}}</td>
  </tr>
  {{end}}
</table>
</body>
</html>`))

var detailTemplate = template.Must(template.New("detail").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Accession}}</title></head>
<body>
<h1>{{.Accession}} — MAAB class {{.MAABClass}}</h1>
<p>{{.Name}}</p>
<ul>
  <li>Length: {{.Length}}</li>
  <li>Motif counts: ext {{.ExtSP}}, tyr {{.Tyr}}, prp {{.Prp}}, agp {{.Agp}}</li>
  <li>Composition: PAST {{printf "%.2f" .PastPercent}}%, PVYK {{printf "%.2f" .PvykPercent}}%, PSKY {{printf "%.2f" .PskyPercent}}%, P {{printf "%.2f" .PPercent}}%</li>
  <li>Coverage: {{printf "%.3f" .Coverage}}</li>
</ul>
<pre>{{.Sequence}}</pre>
<p><a href="/">back</a></p>
</body>
</html>`))

// statusResponseWriter captures status and bytes written for logging
type statusResponseWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// loggingMiddleware logs each request with method, path, status, size and duration
func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w}
		next.ServeHTTP(srw, r)
		if srw.status == 0 {
			srw.status = http.StatusOK
		}
		duration := time.Since(start)
		logger.Printf("%s - %s %s %d %dB %s %q",
			r.RemoteAddr, r.Method, r.URL.RequestURI(), srw.status, srw.written, duration, r.UserAgent())
	})
}

// readDatabase reads and unmarshals the JSON file at path
func readDatabase(path string) ([]Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v []Result
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// readSQLite loads results from the sqlite store written by the pipeline.
// Sequences are not persisted there, so the detail view stays count-only.
func readSQLite(path string) ([]Result, error) {
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	rows, err := s.LoadResults()
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(rows))
	for _, r := range rows {
		out = append(out, Result{
			Accession:   r.ID,
			MAABClass:   r.Class,
			Length:      r.SeqLength,
			ExtSP:       r.ExtSP,
			Tyr:         r.Tyr,
			Prp:         r.Prp,
			Agp:         r.Agp,
			PastPercent: r.PastPct,
			PvykPercent: r.PvykPct,
			PskyPercent: r.PskyPct,
			PPercent:    r.PPct,
			Coverage:    r.Coverage,
		})
	}
	return out, nil
}

// filterResults keeps results whose accession, name or class contains q.
func filterResults(results []Result, q string) []Result {
	q = strings.ToLower(strings.TrimSpace(q))
	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		if q == "" {
			filtered = append(filtered, r)
			continue
		}
		if strings.Contains(strings.ToLower(r.Accession), q) ||
			strings.Contains(strings.ToLower(r.Name), q) ||
			strings.Contains(strings.ToLower(r.MAABClass), q) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// sortResults orders results by the requested mode, accession by default.
func sortResults(results []Result, mode string) {
	switch mode {
	case "class":
		sort.Slice(results, func(i, j int) bool { return results[i].MAABClass < results[j].MAABClass })
	case "coverage":
		sort.Slice(results, func(i, j int) bool { return results[i].Coverage > results[j].Coverage })
	default:
		sort.Slice(results, func(i, j int) bool {
			return strings.ToLower(results[i].Accession) < strings.ToLower(results[j].Accession)
		})
	}
}

type loader func() ([]Result, error)

func indexHandler(load loader, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := load()
		if err != nil {
			logger.Printf("warning: failed to read database for index: %v", err)
			results = []Result{}
		}
		q := r.URL.Query().Get("q")
		sortMode := r.URL.Query().Get("sort")
		filtered := filterResults(results, q)
		sortResults(filtered, sortMode)
		page := ResultsPage{Results: filtered, Query: q, Sort: sortMode}
		if err := indexTemplate.Execute(w, page); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func resultHandler(load loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 3 || parts[2] == "" {
			http.Error(w, "missing accession", http.StatusBadRequest)
			return
		}
		acc := parts[2]
		results, err := load()
		if err != nil {
			http.Error(w, "failed to read database", http.StatusInternalServerError)
			return
		}
		for _, res := range results {
			if res.Accession == acc {
				if err := detailTemplate.Execute(w, res); err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
				}
				return
			}
		}
		http.NotFound(w, r)
	}
}

func apiResultsHandler(load loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := load()
		if err != nil {
			http.Error(w, "failed to read database", http.StatusInternalServerError)
			return
		}
		filtered := filterResults(results, r.URL.Query().Get("q"))
		sortResults(filtered, r.URL.Query().Get("sort"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(filtered)
	}
}

func main() {
	dbPath := flag.String("db", "database.json", "path to the pipeline's JSON output")
	sqlitePath := flag.String("sqlite", "", "load results from a sqlite store instead of JSON")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	load := func() ([]Result, error) { return readDatabase(*dbPath) }
	if *sqlitePath != "" {
		load = func() ([]Result, error) { return readSQLite(*sqlitePath) }
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", indexHandler(load, logger))
	mux.HandleFunc("/result/", resultHandler(load))
	mux.HandleFunc("/api/results", apiResultsHandler(load))

	logger.Printf("listening on %s", *addr)
	if err := http.ListenAndServe(*addr, loggingMiddleware(logger, mux)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
