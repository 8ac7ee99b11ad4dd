package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Source struct {
		URL           string        `yaml:"url"`
		Title         string        `yaml:"title"`
		UserAgent     string        `yaml:"user_agent"`
		ItemSelector  string        `yaml:"item_selector"`
		NameSelector  string        `yaml:"name_selector"`
		PriceSelector string        `yaml:"price_selector"`
		MaxItems      int           `yaml:"max_items"`
		NameMaxLen    int           `yaml:"name_max_len"`
		Timeout       time.Duration `yaml:"timeout"`
	} `yaml:"source"`
	Store struct {
		BaselineFile string `yaml:"baseline_file"`
	} `yaml:"store"`
	Notify struct {
		Provider       string  `yaml:"provider"` // telegram, line or none
		Mode           string  `yaml:"mode"`     // on_drop or always
		TopN           int     `yaml:"top_n"`
		MinDrop        int64   `yaml:"min_drop"` // minor units
		MinDropPercent float64 `yaml:"min_drop_percent"`
		Currency       string  `yaml:"currency"`
		Timezone       string  `yaml:"timezone"`
		NameMaxLen     int     `yaml:"name_max_len"`
		LinePrefix     string  `yaml:"line_prefix"`
	} `yaml:"notify"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Line struct {
		ChannelToken string `yaml:"channel_token"`
		APIURL       string `yaml:"api_url"`
	} `yaml:"line"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Textfile   string `yaml:"textfile"`
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults and the environment fill in.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SOURCE_URL"); v != "" {
		cfg.Source.URL = v
	}
	if v := os.Getenv("BASELINE_FILE"); v != "" {
		cfg.Store.BaselineFile = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("CHANNEL_TOKEN"); v != "" {
		cfg.Line.ChannelToken = v
	}
	if v := os.Getenv("NOTIFY_PROVIDER"); v != "" {
		cfg.Notify.Provider = v
	}
	if v := os.Getenv("NOTIFY_MODE"); v != "" {
		cfg.Notify.Mode = v
	}
	if v := os.Getenv("NOTIFY_MIN_DROP"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Notify.MinDrop = n
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Source.Title == "" {
		cfg.Source.Title = "MR PORTER"
	}
	if cfg.Source.UserAgent == "" {
		cfg.Source.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if cfg.Source.ItemSelector == "" {
		cfg.Source.ItemSelector = "div.product-tile, div.product, div.item"
	}
	if cfg.Source.NameSelector == "" {
		cfg.Source.NameSelector = "h3, h2, a"
	}
	if cfg.Source.MaxItems == 0 {
		cfg.Source.MaxItems = 30
	}
	if cfg.Source.NameMaxLen == 0 {
		cfg.Source.NameMaxLen = 50
	}
	if cfg.Source.Timeout == 0 {
		cfg.Source.Timeout = 15 * time.Second
	}
	if cfg.Store.BaselineFile == "" {
		cfg.Store.BaselineFile = "data/prices.json"
	}
	if cfg.Notify.Provider == "" {
		switch {
		case cfg.Line.ChannelToken != "":
			cfg.Notify.Provider = "line"
		case cfg.Telegram.BotToken != "":
			cfg.Notify.Provider = "telegram"
		default:
			cfg.Notify.Provider = "none"
		}
	}
	if cfg.Notify.Mode == "" {
		cfg.Notify.Mode = "on_drop"
	}
	if cfg.Notify.TopN == 0 {
		cfg.Notify.TopN = 5
	}
	if cfg.Notify.Currency == "" {
		cfg.Notify.Currency = "$"
	}
	if cfg.Notify.Timezone == "" {
		cfg.Notify.Timezone = "UTC"
	}
	if cfg.Notify.NameMaxLen == 0 {
		cfg.Notify.NameMaxLen = 35
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("source.url is required")
	}
	if c.Source.MaxItems < 0 || c.Source.NameMaxLen < 0 {
		return fmt.Errorf("source.max_items and source.name_max_len must not be negative")
	}
	switch c.Notify.Provider {
	case "telegram":
		if c.Telegram.BotToken == "" || c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.bot_token and telegram.chat_id are required for the telegram provider")
		}
	case "line":
		if c.Line.ChannelToken == "" {
			return fmt.Errorf("line.channel_token is required for the line provider")
		}
	case "none":
	default:
		return fmt.Errorf("notify.provider must be telegram, line or none, got %q", c.Notify.Provider)
	}
	if c.Notify.Mode != "on_drop" && c.Notify.Mode != "always" {
		return fmt.Errorf("notify.mode must be on_drop or always, got %q", c.Notify.Mode)
	}
	if c.Notify.TopN < 0 {
		return fmt.Errorf("notify.top_n must not be negative")
	}
	if c.Notify.MinDrop < 0 || c.Notify.MinDropPercent < 0 || c.Notify.MinDropPercent > 100 {
		return fmt.Errorf("notify.min_drop must be >= 0 and notify.min_drop_percent within 0-100")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("notify.timezone: %w", err)
	}
	return nil
}

// Location resolves the notification timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Notify.Timezone)
}
