package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// builtInFeeds - встроенный список подкастов в фиксированном порядке.
var builtInFeeds = []string{
	"https://www.ximalaya.com/album/3558668.xml",
	"https://rss.lizhi.fm/rss/21628.xml",
	"https://data.getpodcast.xyz/data/ximalaya/246622.xml",
	"http://feed.tangsuanradio.com/gadio.xml",
	"https://www.ximalaya.com/album/5574153.xml",
	"https://bitvoice.banlan.show/feed/audio.xml",
	"https://keepcalm.banlan.show/feed/audio.xml",
}

// StoreConfig выбирает хранилище подписок.
type StoreConfig struct {
	Driver string `json:"driver" toml:"driver"`
	Path   string `json:"path" toml:"path"`
	DSN    string `json:"dsn" toml:"dsn"`
}

// Config хранит настройки сервиса: адрес, список лент, параметры загрузки и хранилище.
type Config struct {
	Addr            string      `json:"addr" toml:"addr"`
	Feeds           []string    `json:"feeds" toml:"feeds"`
	FetchTimeout    int         `json:"fetch_timeout" toml:"fetch_timeout"`
	UserAgent       string      `json:"user_agent" toml:"user_agent"`
	MaxBodyBytes    int64       `json:"max_body_bytes" toml:"max_body_bytes"`
	Concurrency     int         `json:"concurrency" toml:"concurrency"`
	RecommendSample int         `json:"recommend_sample" toml:"recommend_sample"`
	LogLevel        string      `json:"log_level" toml:"log_level"`
	LogFormat       string      `json:"log_format" toml:"log_format"`
	Store           StoreConfig `json:"store" toml:"store"`
}

// Default возвращает конфигурацию со встроенными лентами и файловым хранилищем.
func Default() *Config {
	return &Config{
		Addr:            ":3000",
		Feeds:           append([]string(nil), builtInFeeds...),
		FetchTimeout:    10,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		MaxBodyBytes:    20 << 20,
		Concurrency:     4,
		RecommendSample: 3,
		LogLevel:        "info",
		LogFormat:       "json",
		Store: StoreConfig{
			Driver: DriverFile,
			Path:   "data/subscriptions.json",
		},
	}
}

// BuiltInFeeds возвращает копию списка лент, чтобы вызывающий не мог его изменить.
func (cfg *Config) BuiltInFeeds() []string {
	return append([]string(nil), cfg.Feeds...)
}

// Timeout возвращает FetchTimeout как time.Duration.
func (cfg *Config) Timeout() time.Duration {
	return time.Duration(cfg.FetchTimeout) * time.Second
}

// Validate проверяет URL лент, таймаут, параллелизм и настройки хранилища.
func (cfg *Config) Validate() error {
	if cfg.FetchTimeout < 1 {
		return errors.New("fetch timeout must be ≥ 1 second")
	}
	if cfg.Concurrency < 1 {
		return errors.New("concurrency must be ≥ 1")
	}
	if cfg.RecommendSample < 0 {
		return errors.New("recommend sample must not be negative")
	}
	for _, u := range cfg.Feeds {
		if _, err := url.ParseRequestURI(u); err != nil {
			return fmt.Errorf("invalid feed URL: %s", u)
		}
	}

	switch cfg.Store.Driver {
	case DriverFile, DriverSQLite:
		if cfg.Store.Path == "" {
			return fmt.Errorf("store path is required for driver %q", cfg.Store.Driver)
		}
	case DriverPostgres:
		if cfg.Store.DSN == "" {
			return errors.New("store dsn is required for driver \"postgres\"")
		}
	default:
		return fmt.Errorf("unknown store driver: %q", cfg.Store.Driver)
	}
	return nil
}

// LoadConfig читает файл по пути path поверх значений по умолчанию.
// Формат определяется расширением: .toml или JSON во всех остальных случаях.
// Пустой path возвращает Default().
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
