package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Capture   CaptureConfig
	Replay    ReplayConfig
	Detector  DetectorConfig
	Retention RetentionConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8420"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// DataConfig holds storage locations. Automations, pattern data, and
// suggestion snapshots live under Dir; the activity database defaults
// to Dir/tracker.db when DatabasePath is empty.
type DataConfig struct {
	Dir          string `envconfig:"DATA_DIR" default:"./data"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:""`
}

// CaptureConfig holds the polling interval for the optional built-in
// screen sampler. Only used when the host wires a sampler; the capture
// agent can push samples over the ingest API instead.
type CaptureConfig struct {
	SampleInterval time.Duration `envconfig:"SAMPLE_INTERVAL" default:"5s"`
}

// ReplayConfig holds automation playback configuration.
type ReplayConfig struct {
	// DefaultStepDelay paces steps that carry no recorded delay.
	DefaultStepDelay time.Duration `envconfig:"REPLAY_STEP_DELAY" default:"50ms"`
}

// DetectorConfig holds pattern detection configuration.
type DetectorConfig struct {
	AnalysisInterval  time.Duration `envconfig:"ANALYSIS_INTERVAL" default:"5m"`
	TimeCheckInterval time.Duration `envconfig:"TIME_CHECK_INTERVAL" default:"1m"`
	// MinRepetitions is the minimum occurrence count before any
	// pattern becomes a suggestion.
	MinRepetitions    int `envconfig:"MIN_REPETITIONS" default:"3"`
	GridSize          int `envconfig:"CLICK_GRID_SIZE" default:"10"`
	ScreenWidth       int `envconfig:"SCREEN_WIDTH" default:"1920"`
	ScreenHeight      int `envconfig:"SCREEN_HEIGHT" default:"1080"`
	ActivityBuffer    int `envconfig:"ACTIVITY_BUFFER" default:"1000"`
	TransitionHistory int `envconfig:"TRANSITION_HISTORY" default:"100"`
}

// RetentionConfig holds data retention configuration.
type RetentionConfig struct {
	KeepHistoryDays  int           `envconfig:"KEEP_HISTORY_DAYS" default:"7"`
	CleanupInterval  time.Duration `envconfig:"CLEANUP_INTERVAL" default:"1h"`
	ArchiveSnapshots bool          `envconfig:"ARCHIVE_SNAPSHOTS" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("DESKPILOT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8420", Host: "127.0.0.1"},
		Data:    DataConfig{Dir: "./data"},
		Capture: CaptureConfig{SampleInterval: 5 * time.Second},
		Replay:  ReplayConfig{DefaultStepDelay: 50 * time.Millisecond},
		Detector: DetectorConfig{
			AnalysisInterval:  5 * time.Minute,
			TimeCheckInterval: time.Minute,
			MinRepetitions:    3,
			GridSize:          10,
			ScreenWidth:       1920,
			ScreenHeight:      1080,
			ActivityBuffer:    1000,
			TransitionHistory: 100,
		},
		Retention: RetentionConfig{
			KeepHistoryDays:  7,
			CleanupInterval:  time.Hour,
			ArchiveSnapshots: true,
		},
		Logging:   LogConfig{Level: "info", Development: false},
		RateLimit: RateLimitConfig{RequestsPerSecond: 100, Burst: 200, Enabled: true},
	}
}

// Database returns the resolved activity database path.
func (c *Config) Database() string {
	if c.Data.DatabasePath != "" {
		return c.Data.DatabasePath
	}
	return filepath.Join(c.Data.Dir, "tracker.db")
}

// AutomationDir returns the directory holding automation JSON files.
func (c *Config) AutomationDir() string {
	return filepath.Join(c.Data.Dir, "automation")
}

// SuggestionDir returns the directory holding pattern data and
// suggestion snapshots.
func (c *Config) SuggestionDir() string {
	return filepath.Join(c.Data.Dir, "suggestions")
}
