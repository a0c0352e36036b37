package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the chart daemon.
type Config struct {
	// HTTP control surface
	BindAddress      string
	BindPort         int
	PortAutoFallback bool

	// Logging
	LogLevel string
	LogFile  string

	// Market data feed
	FeedBaseURL     string
	CacheTTLMinutes int
	RefreshCron     string
	SymbolMapFile   string

	// Saved-layout storage
	DataDir string

	// Chart defaults for a fresh session
	DefaultSymbol string
	DefaultRange  string

	// CDP render backend; when disabled the daemon runs on the in-memory
	// surface (tests, data-only deployments)
	RenderCDP  bool
	CDPAddress string
	CDPPort    int
	CDPPageURL string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BindAddress:      getEnvOrDefault("CHARTD_BIND_ADDRESS", "127.0.0.1"),
		BindPort:         getEnvIntOrDefault("CHARTD_BIND_PORT", 8532),
		PortAutoFallback: getEnvBoolOrDefault("CHARTD_PORT_AUTO_FALLBACK", true),
		LogLevel:         getEnvOrDefault("CHARTD_LOG_LEVEL", "info"),
		LogFile:          getEnvOrDefault("CHARTD_LOG_FILE", "logs/chartd.log"),
		FeedBaseURL:      getEnvOrDefault("CHARTD_FEED_BASE_URL", ""),
		CacheTTLMinutes:  getEnvIntOrDefault("CHARTD_CACHE_TTL_MINUTES", 60),
		RefreshCron:      getEnvOrDefault("CHARTD_REFRESH_CRON", "*/15 * * * *"),
		SymbolMapFile:    getEnvOrDefault("CHARTD_SYMBOL_MAP_FILE", ""),
		DataDir:          getEnvOrDefault("CHARTD_DATA_DIR", "./chart_data"),
		DefaultSymbol:    getEnvOrDefault("CHARTD_DEFAULT_SYMBOL", "AAPL"),
		DefaultRange:     getEnvOrDefault("CHARTD_DEFAULT_RANGE", "1Y"),
		RenderCDP:        getEnvBoolOrDefault("CHARTD_RENDER_CDP", false),
		CDPAddress:       getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:          getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9220),
		CDPPageURL:       getEnvOrDefault("CHARTD_CDP_PAGE_URL", "about:blank"),
	}

	return cfg, nil
}

// BindAddr returns the preferred listen address.
func (c *Config) BindAddr() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.BindPort)
}

// GetCDPURL returns the full CDP HTTP endpoint used by chromedp remote allocator.
func (c *Config) GetCDPURL() string {
	return fmt.Sprintf("http://%s:%d", c.CDPAddress, c.CDPPort)
}

// SymbolMap maps user-facing symbols to feed symbols ("SPX" -> "^GSPC").
// The file is optional; a missing path yields an empty map.
func (c *Config) SymbolMap() (map[string]string, error) {
	if c.SymbolMapFile == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(c.SymbolMapFile)
	if err != nil {
		return nil, fmt.Errorf("config: read symbol map %s: %w", c.SymbolMapFile, err)
	}
	var doc struct {
		Symbols map[string]string `yaml:"symbols"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse symbol map %s: %w", c.SymbolMapFile, err)
	}
	if doc.Symbols == nil {
		doc.Symbols = map[string]string{}
	}
	return doc.Symbols, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
