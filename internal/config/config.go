package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/shouni/gemini-video-kit/pkg/domain"
)

// Config は veo-studio の設定です。
type Config struct {
	APIKey              string `toml:"api_key"`
	Model               string `toml:"model"`
	AspectRatio         string `toml:"aspect_ratio"`
	Resolution          string `toml:"resolution"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	MaxPollAttempts     int    `toml:"max_poll_attempts"`
	HTTPTimeoutSeconds  int    `toml:"http_timeout_seconds"`
	OutputDir           string `toml:"output_dir"`
	LogLevel            string `toml:"log_level"`
}

// Default は既定値の設定を返します。
func Default() Config {
	return Config{
		Model:               "veo-3.1-fast-generate-preview",
		AspectRatio:         string(domain.AspectRatioLandscape),
		Resolution:          string(domain.Resolution720p),
		PollIntervalSeconds: 10,
		MaxPollAttempts:     0,
		HTTPTimeoutSeconds:  300,
		OutputDir:           ".",
		LogLevel:            "info",
	}
}

// DefaultConfigPath は既定の設定ファイルの場所を返します。
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "veo-studio", "config.toml"), nil
}

// LoadDotEnv は .env ファイルを環境変数に読み込みます。ファイルがなければ何もしません。
// すでに設定されている環境変数は上書きしません。
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load は設定ファイル、環境変数の順に読み込みます。path が空なら既定の場所を使い、存在しなくてもエラーにしません。
// 戻り値は設定、解決したパス、ファイルが存在したかどうかです。
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, "", false, err
		}
		path = p
	}

	exists := true
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		exists = false
	default:
		return nil, "", false, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, path, exists, nil
}

func (c *Config) applyEnv() error {
	if v := firstEnv("GEMINI_API_KEY", "API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("VEO_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("VEO_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("VEO_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"VEO_POLL_INTERVAL", &c.PollIntervalSeconds},
		{"VEO_MAX_POLL_ATTEMPTS", &c.MaxPollAttempts},
		{"VEO_HTTP_TIMEOUT", &c.HTTPTimeoutSeconds},
	}
	for _, it := range ints {
		v := strings.TrimSpace(os.Getenv(it.env))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", it.env, err)
		}
		*it.dst = n
	}
	return nil
}

func (c *Config) normalize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.Model = strings.TrimSpace(c.Model)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
}

// Validate は設定値が利用可能か検証します。
func (c *Config) Validate() error {
	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	if _, err := domain.ParseAspectRatio(c.AspectRatio); err != nil {
		return err
	}
	if _, err := domain.ParseResolution(c.Resolution); err != nil {
		return err
	}
	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("poll_interval_seconds must be positive (got %d)", c.PollIntervalSeconds)
	}
	if c.MaxPollAttempts < 0 {
		return fmt.Errorf("max_poll_attempts must be zero (unbounded) or positive (got %d)", c.MaxPollAttempts)
	}
	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("http_timeout_seconds must be positive (got %d)", c.HTTPTimeoutSeconds)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log_level: %q", c.LogLevel)
	}
	return nil
}

// PollInterval はポーリング間隔を返します。
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// HTTPTimeout は動画ダウンロードのタイムアウトを返します。
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// Redacted は API キーを伏せたコピーを返します。
func (c Config) Redacted() Config {
	if c.APIKey != "" {
		c.APIKey = "***"
	}
	return c
}

// Encode は設定を TOML で書き出します。
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
