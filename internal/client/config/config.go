package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/iudanet/tripsync/internal/validation"
	"github.com/iudanet/tripsync/pkg/api"
)

// Config настройки клиента
type Config struct {
	// TTL кэша по типам; отсутствующие типы используют значения по умолчанию Store
	TTL map[api.EntityType]time.Duration
	// PollIntervals интервал опроса по типам
	PollIntervals   map[api.EntityType]time.Duration
	APIURL          string
	DBPath          string
	Channel         string
	LogLevel        string
	PollInterval    time.Duration
	PollBaseDelay   time.Duration
	PollMaxDelay    time.Duration
	PollMaxFailures int
	// ChannelPollInterval период чтения общей ленты канала другими процессами
	ChannelPollInterval time.Duration
}

const (
	defaultConfigPath      = "~/.config/tripsync/config.toml"
	defaultDBPath          = "~/.local/share/tripsync/tripsync.db"
	defaultAPIURL          = "http://localhost:8080/api"
	defaultChannel         = "tripsync"
	defaultLogLevel        = "info"
	defaultPollInterval    = 30 * time.Second
	defaultPollBaseDelay   = time.Second
	defaultPollMaxDelay    = time.Minute
	defaultPollMaxFailures = 3
	defaultChannelPoll     = 500 * time.Millisecond
)

// Переменные окружения, переопределяющие файл
const (
	EnvAPIURL       = "TRIPSYNC_API_URL"
	EnvDBPath       = "TRIPSYNC_DB_PATH"
	EnvChannel      = "TRIPSYNC_CHANNEL"
	EnvLogLevel     = "TRIPSYNC_LOG_LEVEL"
	EnvPollInterval = "TRIPSYNC_POLL_INTERVAL"
	EnvMaxFailures  = "TRIPSYNC_POLL_MAX_FAILURES"
)

type rawConfig struct {
	TTL             map[string]string `toml:"ttl"`
	PollIntervals   map[string]string `toml:"poll_intervals"`
	APIURL          string            `toml:"api_url"`
	DBPath          string            `toml:"db_path"`
	Channel         string            `toml:"channel"`
	LogLevel        string            `toml:"log_level"`
	PollInterval    string            `toml:"poll_interval"`
	PollBaseDelay   string            `toml:"poll_base_delay"`
	PollMaxDelay    string            `toml:"poll_max_delay"`
	PollMaxFailures int               `toml:"poll_max_failures"`
	ChannelPoll     string            `toml:"channel_poll_interval"`
}

// Default возвращает конфигурацию по умолчанию
func Default() Config {
	return Config{
		APIURL:              defaultAPIURL,
		DBPath:              mustExpand(defaultDBPath),
		Channel:             defaultChannel,
		LogLevel:            defaultLogLevel,
		PollInterval:        defaultPollInterval,
		PollBaseDelay:       defaultPollBaseDelay,
		PollMaxDelay:        defaultPollMaxDelay,
		PollMaxFailures:     defaultPollMaxFailures,
		ChannelPollInterval: defaultChannelPoll,
		TTL:                 map[api.EntityType]time.Duration{},
		PollIntervals:       map[api.EntityType]time.Duration{},
	}
}

// Load читает конфигурацию; отсутствующий файл означает значения по умолчанию.
// Переменные окружения TRIPSYNC_* применяются поверх файла.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// файла нет: только значения по умолчанию и окружение
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer func() {
			_ = file.Close()
		}()
		if err := cfg.decode(file); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(raw.DBPath); v != "" {
		c.DBPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.Channel); v != "" {
		c.Channel = v
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		c.LogLevel = v
	}
	if raw.PollMaxFailures != 0 {
		c.PollMaxFailures = raw.PollMaxFailures
	}

	durations := []struct {
		dst  *time.Duration
		key  string
		text string
	}{
		{dst: &c.PollInterval, key: "poll_interval", text: raw.PollInterval},
		{dst: &c.PollBaseDelay, key: "poll_base_delay", text: raw.PollBaseDelay},
		{dst: &c.PollMaxDelay, key: "poll_max_delay", text: raw.PollMaxDelay},
		{dst: &c.ChannelPollInterval, key: "channel_poll_interval", text: raw.ChannelPoll},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.text) == "" {
			continue
		}
		parsed, err := parseDuration(d.key, d.text)
		if err != nil {
			return err
		}
		*d.dst = parsed
	}

	if err := decodeTypeTable(c.TTL, "ttl", raw.TTL); err != nil {
		return err
	}
	return decodeTypeTable(c.PollIntervals, "poll_intervals", raw.PollIntervals)
}

func decodeTypeTable(dst map[api.EntityType]time.Duration, table string, raw map[string]string) error {
	for name, text := range raw {
		if err := validation.ValidateEntityType(name); err != nil {
			return fmt.Errorf("parse config: %s: %w", table, err)
		}
		d, err := parseDuration(table+"."+name, text)
		if err != nil {
			return err
		}
		dst[api.EntityType(name)] = d
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDBPath)); v != "" {
		c.DBPath = mustExpand(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvChannel)); v != "" {
		c.Channel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPollInterval)); v != "" {
		d, err := parseDuration(EnvPollInterval, v)
		if err != nil {
			return err
		}
		c.PollInterval = d
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxFailures)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvMaxFailures, err)
		}
		c.PollMaxFailures = n
	}
	return nil
}

// Validate проверяет значения конфигурации
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("api_url is required")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("db_path is required")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.ChannelPollInterval <= 0 {
		return fmt.Errorf("channel_poll_interval must be positive")
	}
	if c.PollMaxFailures <= 0 {
		return fmt.Errorf("poll_max_failures must be positive")
	}
	if c.PollBaseDelay <= 0 || c.PollMaxDelay < c.PollBaseDelay {
		return fmt.Errorf("poll_base_delay must be positive and not exceed poll_max_delay")
	}
	for et, ttl := range c.TTL {
		if ttl <= 0 {
			return fmt.Errorf("ttl.%s must be positive", et)
		}
	}
	for et, d := range c.PollIntervals {
		if d <= 0 {
			return fmt.Errorf("poll_intervals.%s must be positive", et)
		}
	}
	return nil
}

// SlogLevel возвращает уровень логирования
func (c Config) SlogLevel() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel разбирает debug|info|warn|error
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func parseDuration(key, text string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", key, err)
	}
	return d, nil
}

// DefaultPath возвращает путь к файлу конфигурации по умолчанию
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
