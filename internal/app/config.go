package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"vn-data/internal/provider"
	"vn-data/internal/provider/cafef"
	"vn-data/internal/provider/tcbs"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Config holds application configuration. Values come from defaults, then the
// optional YAML file named by CONFIG_FILE, then the environment.
type Config struct {
	DataDir    string `yaml:"data_dir" validate:"required"`
	LogLevel   string `yaml:"log_level" validate:"oneof=debug info warn warning error"` // debug | info | warn | error
	SaveFormat string `yaml:"save_format" validate:"oneof=csv json parquet"`
	UserAgent  string `yaml:"user_agent" validate:"required"`
	ProxyURL   string `yaml:"proxy" validate:"omitempty,url"`

	Cafef struct {
		APIURL   string `yaml:"api_url" validate:"required,url"`
		Referer  string `yaml:"referer"`
		PageSize int    `yaml:"page_size" validate:"gte=1,lte=5000"`
		MaxPages int    `yaml:"max_pages" validate:"gte=1"`
	} `yaml:"cafef"`

	TCBS struct {
		BaseURL string `yaml:"base_url" validate:"required,url"`
	} `yaml:"tcbs"`

	Render struct {
		ChromePath string `yaml:"chrome_path"`
		TimeoutSec int    `yaml:"timeout_sec" validate:"gte=1"`
		SettleMS   int    `yaml:"settle_ms" validate:"gte=0"`
	} `yaml:"render"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	cfg := &Config{
		DataDir:    "data",
		LogLevel:   "info",
		SaveFormat: "csv",
		UserAgent:  defaultUserAgent,
	}
	cfg.Cafef.APIURL = cafef.DefaultAPIURL
	cfg.Cafef.Referer = "https://cafef.vn/"
	cfg.Cafef.PageSize = cafef.DefaultPageSize
	cfg.Cafef.MaxPages = cafef.DefaultMaxPages
	cfg.TCBS.BaseURL = tcbs.DefaultBaseURL
	cfg.Render.TimeoutSec = int(cafef.DefaultRenderTimeout / time.Second)
	cfg.Render.SettleMS = int(cafef.DefaultRenderSettle / time.Millisecond)
	return cfg
}

// LoadConfig reads .env (if present), the CONFIG_FILE overlay (if set) and the
// environment, then validates the result.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}
	cfg := DefaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.SaveFormat = getEnv("SAVE_FORMAT", c.SaveFormat)
	c.UserAgent = getEnv("USER_AGENT", c.UserAgent)
	c.ProxyURL = getEnv("HTTP_PROXY_URL", c.ProxyURL)
	c.Cafef.APIURL = getEnv("CAFEF_API_URL", c.Cafef.APIURL)
	c.Cafef.Referer = getEnv("CAFEF_REFERER", c.Cafef.Referer)
	c.TCBS.BaseURL = getEnv("TCBS_BASE_URL", c.TCBS.BaseURL)
	c.Render.ChromePath = getEnv("CHROME_PATH", c.Render.ChromePath)

	ints := []struct {
		key string
		dst *int
	}{
		{"CAFEF_PAGE_SIZE", &c.Cafef.PageSize},
		{"CAFEF_MAX_PAGES", &c.Cafef.MaxPages},
		{"RENDER_TIMEOUT_SEC", &c.Render.TimeoutSec},
		{"RENDER_SETTLE_MS", &c.Render.SettleMS},
	}
	for _, e := range ints {
		v, err := getEnvInt(e.key, *e.dst)
		if err != nil {
			return err
		}
		*e.dst = v
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// Validate checks the struct tags of c.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Headers returns the request headers shared by every client.
func (c *Config) Headers() provider.Headers {
	return provider.Headers{UserAgent: c.UserAgent}
}

// HistoricalDir returns data/historical
func (c *Config) HistoricalDir() string {
	return filepath.Join(c.DataDir, "historical")
}

// FundamentalDir returns data/fundamental
func (c *Config) FundamentalDir() string {
	return filepath.Join(c.DataDir, "fundamental")
}

// RealtimeDir returns data/realtime
func (c *Config) RealtimeDir() string {
	return filepath.Join(c.DataDir, "realtime")
}
