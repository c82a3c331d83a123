package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/kraktus/fen-manim/internal/position"
)

// AppConfig holds the fenscene settings. Environment first, flags override.
type AppConfig struct {
	FEN       string `env:"FENSCENE_FEN"`
	Scene     string `env:"FENSCENE_SCENE" envDefault:"fen"`
	OutputDir string `env:"FENSCENE_OUTPUT_DIR" envDefault:"."`
	Format    string `env:"FENSCENE_FORMAT" envDefault:"yaml"`
	PNG       bool   `env:"FENSCENE_PNG"`
	PNGSize   int    `env:"FENSCENE_PNG_SIZE" envDefault:"400"`
	Font      string `env:"FENSCENE_FONT" envDefault:"Andale Mono"`

	MessagesDir string `env:"FENSCENE_MESSAGES_DIR"`

	LogFile    string `env:"LOG_FILE"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"legacy"`
	LogConsole bool   `env:"LOG_TO_CONSOLE" envDefault:"true"`
	LogToFile  bool   `env:"LOG_TO_FILE" envDefault:"true"`

	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"FENSCENE_CACHE_TTL" envDefault:"24h"`

	HistoryDriver string `env:"FENSCENE_HISTORY_DRIVER" envDefault:"sqlite"`
	HistoryDSN    string `env:"FENSCENE_HISTORY_DSN"`

	DriverURL     string        `env:"FENSCENE_DRIVER_URL"`
	DriverWSURL   string        `env:"FENSCENE_DRIVER_WS_URL"`
	DriverMode    string        `env:"FENSCENE_DRIVER_MODE" envDefault:"http"`
	DriverToken   string        `env:"FENSCENE_DRIVER_TOKEN"`
	DriverTimeout time.Duration `env:"FENSCENE_DRIVER_TIMEOUT" envDefault:"10s"`
}

// Load reads the environment only.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseFlags reads the environment and then overlays command line flags.
func ParseFlags(fs *flag.FlagSet, args []string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.FEN, "fen", cfg.FEN, "position to animate (full FEN)")
	fs.StringVar(&cfg.Scene, "scene", cfg.Scene, "scene to build: fen, dots, ranks")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "directory for svg and storyboard files")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "storyboard format: yaml or json")
	fs.BoolVar(&cfg.PNG, "png", cfg.PNG, "also rasterise board previews to png")
	fs.IntVar(&cfg.PNGSize, "png-size", cfg.PNGSize, "png preview size in pixels")
	fs.StringVar(&cfg.Font, "font", cfg.Font, "monospace font for text nodes")
	fs.StringVar(&cfg.MessagesDir, "messages", cfg.MessagesDir, "directory of caption overrides (yaml)")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file path (default <binary>.log)")
	fs.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "redis url for the artifact cache")
	fs.StringVar(&cfg.HistoryDriver, "history-driver", cfg.HistoryDriver, "history database driver: sqlite, postgres or memory")
	fs.StringVar(&cfg.HistoryDSN, "history", cfg.HistoryDSN, "history database dsn (empty disables history)")
	fs.StringVar(&cfg.DriverURL, "driver", cfg.DriverURL, "rendering driver base url")
	fs.StringVar(&cfg.DriverWSURL, "driver-ws", cfg.DriverWSURL, "rendering driver websocket url")
	fs.StringVar(&cfg.DriverMode, "driver-mode", cfg.DriverMode, "driver transport: http, ws or auto")
	fs.DurationVar(&cfg.DriverTimeout, "driver-timeout", cfg.DriverTimeout, "driver request timeout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) normalize() {
	c.FEN = strings.TrimSpace(c.FEN)
	if c.FEN == "" {
		c.FEN = position.DefaultFEN
	}
	c.Scene = strings.ToLower(strings.TrimSpace(c.Scene))
	if c.Scene == "" {
		c.Scene = "fen"
	}
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format == "" {
		c.Format = "yaml"
	}
	c.OutputDir = strings.TrimSpace(c.OutputDir)
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	c.HistoryDriver = strings.ToLower(strings.TrimSpace(c.HistoryDriver))
	if c.HistoryDriver == "" {
		c.HistoryDriver = "sqlite"
	}
	c.DriverMode = strings.ToLower(strings.TrimSpace(c.DriverMode))
	if c.DriverMode == "" {
		c.DriverMode = "http"
	}
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.DriverURL = strings.TrimSpace(c.DriverURL)
	c.DriverWSURL = strings.TrimSpace(c.DriverWSURL)
}

func (c *AppConfig) Validate() error {
	switch c.Format {
	case "yaml", "json":
	default:
		return fmt.Errorf("unsupported storyboard format %q", c.Format)
	}
	if c.PNGSize <= 0 {
		return fmt.Errorf("png size must be positive, got %d", c.PNGSize)
	}
	switch c.HistoryDriver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported history driver %q", c.HistoryDriver)
	}
	switch c.DriverMode {
	case "http", "ws", "auto":
	default:
		return fmt.Errorf("unsupported driver mode %q", c.DriverMode)
	}
	if c.DriverMode == "ws" && c.DriverWSURL == "" && c.DriverURL != "" {
		return errors.New("driver mode ws needs FENSCENE_DRIVER_WS_URL")
	}
	return nil
}
