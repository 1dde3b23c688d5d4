package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/TS404/ragp/internal/config"
	"github.com/TS404/ragp/internal/fasta"
	"github.com/TS404/ragp/internal/gpi"
	"github.com/TS404/ragp/internal/maab"
	"github.com/TS404/ragp/internal/motif"
	"github.com/TS404/ragp/internal/store"

	"github.com/charmbracelet/log"
)

// version is the program version. It can be overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

// timestampWriter prefixes each flushed line with an RFC3339 timestamp.
type timestampWriter struct {
	w   io.Writer
	buf bytes.Buffer
	mu  sync.Mutex
}

// Write buffers bytes until a newline is found; for each full line, write a timestamped
// line to the underlying writer. Partial lines are kept in the buffer.
func (t *timestampWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := t.buf.Write(p)
	total := n
	for {
		line, err := t.buf.ReadString('\n')
		if err != nil {
			break
		}
		ts := time.Now().Format(time.RFC3339)
		if _, err := t.w.Write([]byte(ts + " " + line)); err != nil {
			return total, err
		}
	}
	return total, nil
}

// terminalWriter wraps an io.Writer and exposes an Fd method so libraries that
// inspect the file descriptor (for TTY detection) can work with wrapped writers.
type terminalWriter struct {
	w  io.Writer
	fd uintptr
}

func (tw *terminalWriter) Write(p []byte) (int, error) { return tw.w.Write(p) }

// Fd exposes the underlying file descriptor (e.g., os.Stderr.Fd()).
func (tw *terminalWriter) Fd() uintptr { return tw.fd }

// Classified is one output row of the pipeline.
type Classified struct {
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

func main() {
	// CLI flags
	inputFlag := flag.String("in", "proteins.fasta", "input protein FASTA file path")
	outputFlag := flag.String("out", "database.json", "output JSON file path")
	configFlag := flag.String("config", "", "path to config.json (optional)")
	orderFlag := flag.String("order", "", "motif group scan order, comma separated (default ext,tyr,prp,agp)")
	gpiFlag := flag.Bool("gpi", false, "resolve paired MAAB classes with GPI-anchor predictions")
	dbFlag := flag.String("db", "", "optional sqlite results database path")
	dryRun := flag.Bool("dry-run", false, "perform a dry run without writing outputs or calling external services")
	verbose := flag.Bool("verbose", false, "enable verbose (debug) logging")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("ragp", version)
		return
	}

	// load config (optional file)
	cfg, _ := config.LoadConfig(*configFlag)

	// merge CLI flags into config (flags override config when provided)
	if *inputFlag != "" {
		cfg.InputFasta = *inputFlag
	}
	if *outputFlag != "" {
		cfg.OutputJSON = *outputFlag
	}
	if *orderFlag != "" {
		cfg.GroupOrder = *orderFlag
	}
	if *gpiFlag {
		cfg.UseGpi = true
	}
	if *dbFlag != "" {
		cfg.ResultsDB = *dbFlag
	}

	// configure logger output
	var loggerOut io.Writer = os.Stderr
	var logFileHandle *os.File
	if cfg.LogFile != "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			// write to both stderr and file so running interactively still shows logs
			loggerOut = io.MultiWriter(os.Stderr, f)
			logFileHandle = f
			// keep file handle open until program exit
			defer func() { _ = logFileHandle.Close() }()
		}
	}
	// If stderr is a terminal-like device, force colors for libraries that honor FORCE_COLOR.
	if fi, err := os.Stderr.Stat(); err == nil {
		if fi.Mode()&os.ModeCharDevice != 0 {
			_ = os.Setenv("FORCE_COLOR", "1")
		}
	}
	// create logger backed by the timestamping writer and expose Fd so charm.log can detect TTY
	tw := &timestampWriter{w: loggerOut}
	termW := &terminalWriter{w: tw, fd: os.Stderr.Fd()}
	logger := log.New(termW)

	// apply log level from flags/config (flags override config)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		switch strings.ToLower(cfg.LogLevel) {
		case "debug":
			logger.SetLevel(log.DebugLevel)
		case "info", "":
			logger.SetLevel(log.InfoLevel)
		case "warn", "warning":
			logger.SetLevel(log.WarnLevel)
		case "error":
			logger.SetLevel(log.ErrorLevel)
		default:
			logger.SetLevel(log.InfoLevel)
			logger.Warn("unknown log_level in config.json, defaulting to info", "provided", cfg.LogLevel)
		}
	}

	// startup log with non-sensitive config
	logger.Debug("loaded config", "input_fasta", cfg.InputFasta, "output_json", cfg.OutputJSON, "log_file", cfg.LogFile, "log_level", cfg.LogLevel, "group_order", cfg.GroupOrder, "use_gpi", cfg.UseGpi)
	logger.Info("starting ragp", "input_fasta", cfg.InputFasta, "output_json", cfg.OutputJSON, "results_db", cfg.ResultsDB, "gpi_cache_path", cfg.GpiCachePath, "gpi_cache_ttl_secs", cfg.GpiCacheTTLSecs)

	// apply gpi client config
	if cfg.GpiCachePath != "" {
		absPath, aerr := filepath.Abs(cfg.GpiCachePath)
		if aerr == nil {
			gpi.SetCacheFilePath(absPath)
			logger.Info("gpi cache path set from config (absolute)", "path", absPath)
		} else {
			gpi.SetCacheFilePath(cfg.GpiCachePath)
			logger.Info("gpi cache path set from config", "path", cfg.GpiCachePath)
		}
		defer gpi.FlushCache()
	}
	if cfg.GpiApiKey != "" {
		// set the API key directly from config.json (config-only mode)
		os.Setenv("GPI_API_KEY", cfg.GpiApiKey)
		logger.Info("gpi api key set from config.json (value not logged)")
	}
	if cfg.GpiCacheTTLSecs > 0 {
		gpi.SetCacheTTLSeconds(cfg.GpiCacheTTLSecs)
	}

	order, err := motif.ParseOrder(cfg.GroupOrder)
	if err != nil {
		logger.Fatal("invalid group order", "order", cfg.GroupOrder, "err", err)
	}
	logger.Info("motif scan order", "order", fmt.Sprintf("%v", order))

	data, err := os.ReadFile(cfg.InputFasta)
	if err != nil {
		logger.Fatal("failed to read input fasta", "path", cfg.InputFasta, "err", err)
	}

	parsed := fasta.ParseFasta(strings.NewReader(string(data)))
	logger.Info("parsed fasta", "path", cfg.InputFasta, "records", len(parsed))

	// normalize sequences; empty ones cannot be classified and are dropped here
	records := make([]fasta.Record, 0, len(parsed))
	for _, rec := range parsed {
		seq := fasta.Normalize(rec.Sequence)
		if seq == "" {
			logger.Warn("skipping empty sequence", "header", rec.Header)
			continue
		}
		records = append(records, fasta.Record{Header: rec.Header, Sequence: seq})
	}
	if len(records) == 0 {
		logger.Fatal("no usable sequences in input", "path", cfg.InputFasta)
	}

	// classify across a small worker pool; sequences are independent so
	// only input partitioning and output collection need coordination
	concurrency := cfg.GpiConcurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	logger.Info("classifying sequences", "sequences", len(records), "concurrency", concurrency)

	type task struct {
		index  int
		record fasta.Record
	}
	tasks := make(chan task)
	results := make([]maab.Result, len(records))
	errs := make([]error, len(records))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tk := range tasks {
				res, err := maab.ClassifySequence(fasta.Accession(tk.record.Header), tk.record.Sequence, order)
				results[tk.index] = res
				errs[tk.index] = err
			}
		}()
	}
	for i, rec := range records {
		tasks <- task{index: i, record: rec}
	}
	close(tasks)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			logger.Fatal("classification failed", "id", results[i].ID, "err", err)
		}
	}

	// optional GPI-anchor resolution for paired classes
	var verdicts map[string]bool
	if cfg.UseGpi && !*dryRun {
		verdicts = fetchGpiBatches(logger, cfg, records)
		resolved := 0
		for i := range results {
			if v, ok := verdicts[results[i].ID]; ok {
				before := results[i].Label
				results[i].Label = maab.Resolve(results[i].Label, v)
				if results[i].Label != before {
					resolved++
				}
			}
		}
		logger.Info("gpi resolution summary", "verdicts", len(verdicts), "labels_resolved", resolved)
	} else if cfg.UseGpi {
		logger.Info("dry-run: skipping gpi prediction")
	}

	// tally classes for the run summary
	classCounts := map[string]int{}
	for _, r := range results {
		classCounts[string(r.Label)]++
	}
	logger.Info("classification summary", "sequences", len(results), "classes", len(classCounts))
	for class, n := range classCounts {
		logger.Debug("class tally", "class", class, "count", n)
	}

	rows := make([]Classified, 0, len(results))
	for i, r := range results {
		row := Classified{
			Name:        records[i].Header,
			Accession:   r.ID,
			Sequence:    records[i].Sequence,
			Length:      r.Scan.SequenceLength,
			MAABClass:   string(r.Label),
			ExtSP:       r.Scan.Counts[motif.Ext],
			Tyr:         r.Scan.Counts[motif.Tyr],
			Prp:         r.Scan.Counts[motif.Prp],
			Agp:         r.Scan.Counts[motif.Agp],
			PastPercent: r.Composition.PastPercent,
			PvykPercent: r.Composition.PvykPercent,
			PskyPercent: r.Composition.PskyPercent,
			PPercent:    r.Composition.PPercent,
			Coverage:    r.Coverage,
		}
		if verdicts != nil {
			if v, ok := verdicts[r.ID]; ok {
				anchored := v
				row.GpiAnchored = &anchored
			}
		}
		rows = append(rows, row)
	}

	jsonData, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		logger.Fatal("json marshal failed", "err", err)
	}
	outPath := "database.json"
	if cfg.OutputJSON != "" {
		outPath = cfg.OutputJSON
	}

	if *dryRun {
		logger.Info("dry-run: would write output JSON", "path", outPath, "sequences", len(rows))
	} else {
		if err := os.WriteFile(outPath, jsonData, 0o644); err != nil {
			logger.Error("failed to write output JSON", "path", outPath, "err", err)
		} else {
			logger.Info("wrote output JSON", "path", outPath, "sequences", len(rows))
		}
	}

	if cfg.ResultsDB != "" {
		if *dryRun {
			logger.Info("dry-run: would save results to sqlite", "path", cfg.ResultsDB)
		} else {
			s, err := store.Open(cfg.ResultsDB)
			if err != nil {
				logger.Error("failed to open results database", "path", cfg.ResultsDB, "err", err)
			} else {
				defer s.Close()
				if err := s.SaveResults(results); err != nil {
					logger.Error("failed to save results", "path", cfg.ResultsDB, "err", err)
				} else {
					logger.Info("saved results to sqlite", "path", cfg.ResultsDB, "rows", len(results))
				}
			}
		}
	}
}

// fetchGpiBatches queries the GPI prediction service over a rate-limited
// worker pool and merges the per-batch verdict maps.
func fetchGpiBatches(logger *log.Logger, cfg *config.Config, records []fasta.Record) map[string]bool {
	concurrency := cfg.GpiConcurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	qps := cfg.GpiQPS
	if qps <= 0 {
		qps = 3
	}
	batchSize := cfg.GpiBatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	logger.Info("starting gpi batch lookup", "sequences", len(records), "concurrency", concurrency, "qps", qps, "batch_size", batchSize)

	// simple rate limiter: ticker at qps (use NewTicker to avoid leaking goroutine)
	ticker := time.NewTicker(time.Second / time.Duration(qps))
	defer ticker.Stop()

	// worker pool over batches
	tasks := make(chan []fasta.Record)
	results := make(chan map[string]bool)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range tasks {
				<-ticker.C // rate limit per batch
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				m, err := gpi.FetchPredictions(ctx, cfg.GpiBaseURL, batch)
				cancel()
				if err != nil {
					logger.Warn("gpi batch fetch error", "err", err)
				}
				results <- m
			}
		}()
	}

	// dispatch batches
	go func() {
		for i := 0; i < len(records); i += batchSize {
			end := i + batchSize
			if end > len(records) {
				end = len(records)
			}
			tasks <- records[i:end]
		}
		close(tasks)
	}()

	// collect results into one verdict map
	received := 0
	expected := (len(records) + batchSize - 1) / batchSize
	merged := map[string]bool{}
	for received < expected {
		m := <-results
		for k, v := range m {
			merged[k] = v
		}
		received++
	}
	close(results)
	wg.Wait()

	return merged
}
