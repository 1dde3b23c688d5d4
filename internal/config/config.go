package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	InputFasta      string `json:"input_fasta"`
	OutputJSON      string `json:"output_json"`
	ResultsDB       string `json:"results_db"`
	LogFile         string `json:"log_file"`
	LogLevel        string `json:"log_level"`
	GroupOrder      string `json:"group_order"`
	UseGpi          bool   `json:"use_gpi"`
	GpiBaseURL      string `json:"gpi_base_url"`
	GpiApiKey       string `json:"gpi_api_key"`
	GpiCachePath    string `json:"gpi_cache_path"`
	GpiCacheTTLSecs int64  `json:"gpi_cache_ttl_seconds"`
	GpiConcurrency  int    `json:"gpi_concurrency"`
	GpiQPS          int    `json:"gpi_qps"`
	GpiBatchSize    int    `json:"gpi_batch_size"`
}

// LoadConfig loads a JSON config from the given path. If path is empty, looks for ./config.json.
// In config-only mode, secrets must be provided as literal values in config.json.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}
	f, err := os.Open(path)
	if err != nil {
		// not fatal: return defaults
		return &Config{}, nil
	}
	defer f.Close()
	var c Config
	dec := json.NewDecoder(f)
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
