// Package config loads tool configuration from .shakespeare/config.yaml
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oletizi/shakespeare-sub001/internal/types"
)

// Config holds the resolved runtime configuration
type Config struct {
	// LibraryDir is the root directory scanned for markdown documents
	LibraryDir string

	// DatabasePath is the content database file. Relative paths resolve
	// against the working directory.
	DatabasePath string

	// EventLogPath is the sqlite activity log. Empty disables event logging.
	EventLogPath string

	// TargetScore is the per-dimension target stamped onto new entries
	TargetScore float64

	// BatchSize is the number of documents processed concurrently per group
	BatchSize int

	// ReviewPause and ImprovePause are the pauses between batch groups
	ReviewPause  time.Duration
	ImprovePause time.Duration

	// Model selects the assessor model
	Model string

	// InputTokenCost and OutputTokenCost are USD per 1M tokens, used for
	// cost accounting and estimates
	InputTokenCost  float64
	OutputTokenCost float64

	// MaxConcurrentCalls caps simultaneous assessor API calls
	MaxConcurrentCalls int

	// RequestsPerMinute rate-limits assessor API calls. 0 = unlimited.
	RequestsPerMinute int
}

// configFile is the YAML shape of .shakespeare/config.yaml. Durations are
// strings like "3s" or "500ms".
type configFile struct {
	LibraryDir         string   `yaml:"library_dir"`
	DatabasePath       string   `yaml:"database_path"`
	EventLogPath       *string  `yaml:"event_log_path"`
	TargetScore        *float64 `yaml:"target_score"`
	BatchSize          int      `yaml:"batch_size"`
	ReviewPause        string   `yaml:"review_pause"`
	ImprovePause       string   `yaml:"improve_pause"`
	Model              string   `yaml:"model"`
	InputTokenCost     *float64 `yaml:"input_token_cost"`
	OutputTokenCost    *float64 `yaml:"output_token_cost"`
	MaxConcurrentCalls int      `yaml:"max_concurrent_calls"`
	RequestsPerMinute  int      `yaml:"requests_per_minute"`
}

// DefaultConfig returns the defaults used when no config file exists
func DefaultConfig() *Config {
	return &Config{
		LibraryDir:         "docs",
		DatabasePath:       filepath.Join(".shakespeare", "content-db.json"),
		EventLogPath:       filepath.Join(".shakespeare", "events.db"),
		TargetScore:        types.MeetsTargetsThreshold,
		BatchSize:          5,
		ReviewPause:        1 * time.Second,
		ImprovePause:       3 * time.Second,
		Model:              "claude-sonnet-4-5-20250929",
		InputTokenCost:     3.00,
		OutputTokenCost:    15.00,
		MaxConcurrentCalls: 3,
	}
}

// Load reads .shakespeare/config.yaml under projectRoot, falling back to
// defaults when the file does not exist, then applies environment
// overrides and validates the result.
func Load(projectRoot string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := filepath.Join(projectRoot, ".shakespeare", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err == nil {
		var file configFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", configPath, err)
		}
		if err := cfg.applyFile(&file); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", configPath, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile overlays non-empty file settings onto the defaults. Pointer
// fields distinguish "absent" from explicit zero values (an empty
// event_log_path disables event logging).
func (c *Config) applyFile(file *configFile) error {
	if file.LibraryDir != "" {
		c.LibraryDir = file.LibraryDir
	}
	if file.DatabasePath != "" {
		c.DatabasePath = file.DatabasePath
	}
	if file.EventLogPath != nil {
		c.EventLogPath = *file.EventLogPath
	}
	if file.TargetScore != nil {
		c.TargetScore = *file.TargetScore
	}
	if file.BatchSize > 0 {
		c.BatchSize = file.BatchSize
	}
	if file.ReviewPause != "" {
		pause, err := time.ParseDuration(file.ReviewPause)
		if err != nil {
			return fmt.Errorf("invalid review_pause: %w", err)
		}
		c.ReviewPause = pause
	}
	if file.ImprovePause != "" {
		pause, err := time.ParseDuration(file.ImprovePause)
		if err != nil {
			return fmt.Errorf("invalid improve_pause: %w", err)
		}
		c.ImprovePause = pause
	}
	if file.Model != "" {
		c.Model = file.Model
	}
	if file.InputTokenCost != nil {
		c.InputTokenCost = *file.InputTokenCost
	}
	if file.OutputTokenCost != nil {
		c.OutputTokenCost = *file.OutputTokenCost
	}
	if file.MaxConcurrentCalls > 0 {
		c.MaxConcurrentCalls = file.MaxConcurrentCalls
	}
	if file.RequestsPerMinute > 0 {
		c.RequestsPerMinute = file.RequestsPerMinute
	}
	return nil
}

// applyEnv overrides config values from SHAKESPEARE_* environment
// variables. Malformed values are ignored in favor of the file/default
// value.
func (c *Config) applyEnv() {
	if val := os.Getenv("SHAKESPEARE_LIBRARY_DIR"); val != "" {
		c.LibraryDir = val
	}
	if val := os.Getenv("SHAKESPEARE_DB_PATH"); val != "" {
		c.DatabasePath = val
	}
	if val := os.Getenv("SHAKESPEARE_EVENT_LOG_PATH"); val != "" {
		c.EventLogPath = val
	}
	if val := os.Getenv("SHAKESPEARE_MODEL"); val != "" {
		c.Model = val
	}
	if val := os.Getenv("SHAKESPEARE_TARGET_SCORE"); val != "" {
		if score, err := strconv.ParseFloat(val, 64); err == nil {
			c.TargetScore = score
		}
	}
	if val := os.Getenv("SHAKESPEARE_BATCH_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			c.BatchSize = size
		}
	}
	if val := os.Getenv("SHAKESPEARE_MAX_CONCURRENT_CALLS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			c.MaxConcurrentCalls = n
		}
	}
	if val := os.Getenv("SHAKESPEARE_REQUESTS_PER_MINUTE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			c.RequestsPerMinute = n
		}
	}
}

// Validate checks the configuration for values the tool cannot run with
func (c *Config) Validate() error {
	if c.LibraryDir == "" {
		return fmt.Errorf("library_dir must not be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if c.TargetScore < 0 || c.TargetScore > 10 {
		return fmt.Errorf("target_score %.2f out of range [0, 10]", c.TargetScore)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.ReviewPause < 0 || c.ImprovePause < 0 {
		return fmt.Errorf("pauses must not be negative")
	}
	if c.InputTokenCost < 0 || c.OutputTokenCost < 0 {
		return fmt.Errorf("token costs must not be negative")
	}
	return nil
}

// TargetScores expands the scalar target into a per-dimension score map
func (c *Config) TargetScores() types.Scores {
	targets := types.Scores{}
	for _, dim := range types.Dimensions() {
		targets[dim] = c.TargetScore
	}
	return targets
}
