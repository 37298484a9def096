package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Browser     BrowserConfig    `toml:"browser"`
	Execution   ExecutionConfig  `toml:"execution"`
	Regression  RegressionConfig `toml:"regression"`
	Suites      SuitesConfig     `toml:"suites"`
	Logging     LoggingConfig    `toml:"logging"`
	WebSocket   WebSocketConfig  `toml:"websocket"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	Analysis    AnalysisConfig   `toml:"analysis"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger     BadgerConfig     `toml:"badger"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type FilesystemConfig struct {
	Screenshots string `toml:"screenshots"` // Directory for captured screenshot binaries. Empty disables artifact storage.
}

// BrowserConfig contains Chrome automation configuration
type BrowserConfig struct {
	Headless          bool          `toml:"headless"`           // Run Chrome headless (default: true)
	NoSandbox         bool          `toml:"no_sandbox"`         // Disable Chrome sandbox (needed in containers)
	UserAgent         string        `toml:"user_agent"`         // User agent override, empty keeps Chrome default
	NavigationTimeout time.Duration `toml:"navigation_timeout"` // Page navigation timeout (default: 30s)
	VisibilityTimeout time.Duration `toml:"visibility_timeout"` // Element visibility wait timeout (default: 10s)
	ClickTimeout      time.Duration `toml:"click_timeout"`      // Single click attempt timeout (default: 5s)
}

// ExecutionConfig contains scenario execution defaults
type ExecutionConfig struct {
	ScreenshotEveryStep bool              `toml:"screenshot_every_step"` // Capture a screenshot after every step in addition to initial/error/final
	TargetURL           string            `toml:"target_url"`            // Default target URL when a suite does not specify one
	Viewports           map[string]string `toml:"viewports"`             // Named viewport profiles, e.g. mobile = "375x667"
}

// RegressionConfig contains visual comparison defaults
type RegressionConfig struct {
	DefaultThreshold    float64 `toml:"default_threshold"`    // Significance cutoff as a fraction of pixels (default: 0.1 = 10%)
	IncludeAntialiasing bool    `toml:"include_antialiasing"` // Count antialiased pixels as differences (default: false)
}

// SuitesConfig contains configuration for suite definition files
type SuitesConfig struct {
	DefinitionsDir string `toml:"definitions_dir"` // Directory containing suite definition files (YAML)
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// WebSocketConfig contains configuration for WebSocket event broadcasting
type WebSocketConfig struct {
	MinLevel        string   `toml:"min_level"`        // Minimum log level to broadcast ("debug", "info", "warn", "error")
	ExcludePatterns []string `toml:"exclude_patterns"` // Log message patterns to exclude from broadcasting
	// Whitelist of event types to broadcast via WebSocket. Empty list allows all events.
	AllowedEvents []string `toml:"allowed_events"`
	// Throttle intervals for high-frequency events. Map of event type to duration string.
	// Example: {"run_progress": "1s"}
	ThrottleIntervals map[string]string `toml:"throttle_intervals"`
}

// GeminiConfig contains Google Gemini API configuration for scenario analysis
type GeminiConfig struct {
	APIKey    string `toml:"api_key"`    // Google Gemini API key
	Model     string `toml:"model"`      // Model for analysis (default: "gemini-3-flash-preview")
	Timeout   string `toml:"timeout"`    // Operation timeout as duration string (default: "2m")
	RateLimit string `toml:"rate_limit"` // Minimum interval between requests (default: "4s" for 15 RPM)
}

// ClaudeConfig contains Anthropic Claude API configuration for scenario analysis
type ClaudeConfig struct {
	APIKey    string `toml:"api_key"`    // Anthropic API key
	Model     string `toml:"model"`      // Model for analysis (default: "claude-haiku-3-5-20241022")
	MaxTokens int    `toml:"max_tokens"` // Maximum tokens in response (default: 2048)
	Timeout   string `toml:"timeout"`    // Operation timeout as duration string (default: "2m")
	RateLimit string `toml:"rate_limit"` // Minimum interval between requests (default: "1s")
}

// AnalysisProvider represents the AI provider type
type AnalysisProvider string

const (
	// AnalysisProviderGemini uses Google Gemini API
	AnalysisProviderGemini AnalysisProvider = "gemini"
	// AnalysisProviderClaude uses Anthropic Claude API
	AnalysisProviderClaude AnalysisProvider = "claude"
	// AnalysisProviderNone disables post-scenario analysis
	AnalysisProviderNone AnalysisProvider = "none"
)

// AnalysisConfig contains unified configuration for post-scenario AI analysis
type AnalysisConfig struct {
	Provider AnalysisProvider `toml:"provider"` // "claude", "gemini", or "none" (default: "none")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in verity.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
			Filesystem: FilesystemConfig{
				Screenshots: "./data/screenshots",
			},
		},
		Browser: BrowserConfig{
			Headless:          true,
			NoSandbox:         false,
			UserAgent:         "",
			NavigationTimeout: 30 * time.Second,
			VisibilityTimeout: 10 * time.Second,
			ClickTimeout:      5 * time.Second,
		},
		Execution: ExecutionConfig{
			ScreenshotEveryStep: false,
			TargetURL:           "",
			Viewports: map[string]string{
				"mobile":  "375x667",
				"tablet":  "768x1024",
				"desktop": "1920x1080",
			},
		},
		Regression: RegressionConfig{
			DefaultThreshold:    0.1, // 10% of pixels
			IncludeAntialiasing: false,
		},
		Suites: SuitesConfig{
			DefinitionsDir: "./suites",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		WebSocket: WebSocketConfig{
			MinLevel: "info",
			ExcludePatterns: []string{
				"WebSocket client connected",
				"WebSocket client disconnected",
				"HTTP request",
				"HTTP response",
			},
			AllowedEvents: []string{},
			ThrottleIntervals: map[string]string{
				"run_progress": "1s",
			},
		},
		Gemini: GeminiConfig{
			APIKey:    "",
			Model:     "gemini-3-flash-preview",
			Timeout:   "2m",
			RateLimit: "4s",
		},
		Claude: ClaudeConfig{
			APIKey:    "",
			Model:     "claude-haiku-3-5-20241022",
			MaxTokens: 2048,
			Timeout:   "2m",
			RateLimit: "1s",
		},
		Analysis: AnalysisConfig{
			Provider: AnalysisProviderNone,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: VERITY_ENV, fallback: GO_ENV)
	if env := os.Getenv("VERITY_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("VERITY_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("VERITY_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("VERITY_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if screenshots := os.Getenv("VERITY_SCREENSHOTS_DIR"); screenshots != "" {
		config.Storage.Filesystem.Screenshots = screenshots
	}

	// Browser configuration
	if headless := os.Getenv("VERITY_BROWSER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = h
		}
	}
	if noSandbox := os.Getenv("VERITY_BROWSER_NO_SANDBOX"); noSandbox != "" {
		if ns, err := strconv.ParseBool(noSandbox); err == nil {
			config.Browser.NoSandbox = ns
		}
	}
	if userAgent := os.Getenv("VERITY_BROWSER_USER_AGENT"); userAgent != "" {
		config.Browser.UserAgent = userAgent
	}
	if navTimeout := os.Getenv("VERITY_BROWSER_NAVIGATION_TIMEOUT"); navTimeout != "" {
		if nt, err := time.ParseDuration(navTimeout); err == nil {
			config.Browser.NavigationTimeout = nt
		}
	}
	if visTimeout := os.Getenv("VERITY_BROWSER_VISIBILITY_TIMEOUT"); visTimeout != "" {
		if vt, err := time.ParseDuration(visTimeout); err == nil {
			config.Browser.VisibilityTimeout = vt
		}
	}
	if clickTimeout := os.Getenv("VERITY_BROWSER_CLICK_TIMEOUT"); clickTimeout != "" {
		if ct, err := time.ParseDuration(clickTimeout); err == nil {
			config.Browser.ClickTimeout = ct
		}
	}

	// Execution configuration
	if targetURL := os.Getenv("VERITY_EXECUTION_TARGET_URL"); targetURL != "" {
		config.Execution.TargetURL = targetURL
	}
	if everyStep := os.Getenv("VERITY_EXECUTION_SCREENSHOT_EVERY_STEP"); everyStep != "" {
		if es, err := strconv.ParseBool(everyStep); err == nil {
			config.Execution.ScreenshotEveryStep = es
		}
	}

	// Regression configuration
	if threshold := os.Getenv("VERITY_REGRESSION_DEFAULT_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 64); err == nil && t >= 0 {
			config.Regression.DefaultThreshold = t
		}
	}
	if antialiasing := os.Getenv("VERITY_REGRESSION_INCLUDE_ANTIALIASING"); antialiasing != "" {
		if aa, err := strconv.ParseBool(antialiasing); err == nil {
			config.Regression.IncludeAntialiasing = aa
		}
	}

	// Suites configuration
	if suitesDir := os.Getenv("VERITY_SUITES_DIR"); suitesDir != "" {
		config.Suites.DefinitionsDir = suitesDir
	}

	// Logging configuration
	if level := os.Getenv("VERITY_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("VERITY_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// WebSocket configuration
	if minLevel := os.Getenv("VERITY_WEBSOCKET_MIN_LEVEL"); minLevel != "" {
		config.WebSocket.MinLevel = minLevel
	}
	if allowedEvents := os.Getenv("VERITY_WEBSOCKET_ALLOWED_EVENTS"); allowedEvents != "" {
		events := []string{}
		for _, e := range strings.Split(allowedEvents, ",") {
			trimmed := strings.TrimSpace(e)
			if trimmed != "" {
				events = append(events, trimmed)
			}
		}
		if len(events) > 0 {
			config.WebSocket.AllowedEvents = events
		}
	}
	if progressThrottle := os.Getenv("VERITY_WEBSOCKET_THROTTLE_RUN_PROGRESS"); progressThrottle != "" {
		if _, err := time.ParseDuration(progressThrottle); err == nil {
			if config.WebSocket.ThrottleIntervals == nil {
				config.WebSocket.ThrottleIntervals = make(map[string]string)
			}
			config.WebSocket.ThrottleIntervals["run_progress"] = progressThrottle
		}
	}

	// Gemini configuration
	if apiKey := os.Getenv("VERITY_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("VERITY_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if rateLimit := os.Getenv("VERITY_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("VERITY_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // VERITY_ prefix takes priority
	}
	if model := os.Getenv("VERITY_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("VERITY_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if rateLimit := os.Getenv("VERITY_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}

	// Analysis provider configuration
	if provider := os.Getenv("VERITY_ANALYSIS_PROVIDER"); provider != "" {
		config.Analysis.Provider = AnalysisProvider(provider)
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ValidateSchedule validates a cron schedule expression for scheduled suite runs
// and ensures a minimum 5-minute interval.
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]

	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	if strings.HasPrefix(minuteField, "*/") {
		intervalStr := strings.TrimPrefix(minuteField, "*/")
		interval, err := strconv.Atoi(intervalStr)
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// AllowTestURLs returns true if test URLs (localhost, 127.0.0.1, etc.) are allowed.
// Test URLs are only allowed in development mode.
func (c *Config) AllowTestURLs() bool {
	return !c.IsProduction()
}
