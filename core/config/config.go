package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TokenEnvVar names the environment variable holding the bot token.
const TokenEnvVar = "BOT_TOKEN"

// ErrMissingToken is returned when no bot token was provided.
var ErrMissingToken = errors.New(TokenEnvVar + " environment variable is not set")

// DefaultLongPollTimeoutSeconds is used when the configured timeout is zero.
const DefaultLongPollTimeoutSeconds = 10

// AllUpdateTypes lists every update kind the Bot API delivers to long polling.
var AllUpdateTypes = []string{
	"message",
	"edited_message",
	"channel_post",
	"edited_channel_post",
	"business_connection",
	"business_message",
	"edited_business_message",
	"deleted_business_messages",
	"message_reaction",
	"message_reaction_count",
	"inline_query",
	"chosen_inline_result",
	"callback_query",
	"shipping_query",
	"pre_checkout_query",
	"purchased_paid_media",
	"poll",
	"poll_answer",
	"my_chat_member",
	"chat_member",
	"chat_join_request",
	"chat_boost",
	"removed_chat_boost",
}

// DefaultDebugSampleEvery keeps one of every N debug update lines.
const DefaultDebugSampleEvery = 50

// TelegramConfig holds Telegram bot related settings.
// Token is read from BOT_TOKEN only; config files never supply it.
type TelegramConfig struct {
	Token  string `yaml:"-" envconfig:"BOT_TOKEN"`
	APIURL string `yaml:"api_url" envconfig:"TELEGRAM_API_URL"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// AllowedUpdates narrows the update kinds requested from getUpdates; empty -> all
	AllowedUpdates     []string `yaml:"allowed_updates" envconfig:"TELEGRAM_ALLOWED_UPDATES"`
	DropPendingUpdates bool     `yaml:"drop_pending_updates" envconfig:"TELEGRAM_DROP_PENDING_UPDATES"`
	PublishCommands    bool     `yaml:"publish_commands" envconfig:"TELEGRAM_PUBLISH_COMMANDS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
	// DebugSampleEvery logs one of every N update.received lines; 0 -> default, 1 -> all
	DebugSampleEvery int    `yaml:"debug_sample_every" envconfig:"LOG_DEBUG_SAMPLE_EVERY"`
	Dir              string `yaml:"dir" envconfig:"LOG_DIR"`
	File             string `yaml:"file" envconfig:"LOG_FILE"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// Config aggregates the bot configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoadEnvFiles populates the process environment from key-value files.
// Variables already present in the environment are left untouched and
// missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to stat env file %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from an optional YAML file and environment variables.
// An empty path skips the file and relies on the environment alone.
// Each section is processed without a prefix so keys match their tags exactly.
func Load(path string) (*Config, error) {
	var cfg Config

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	for _, section := range []any{&cfg.Telegram, &cfg.Logging} {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to process env: %w", err)
		}
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return ErrMissingToken
	}

	if cfg.Telegram.LongPollTimeoutSeconds < 0 {
		return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
	}
	if cfg.Telegram.LongPollTimeoutSeconds == 0 {
		cfg.Telegram.LongPollTimeoutSeconds = DefaultLongPollTimeoutSeconds
	}
	cfg.Telegram.APIURL = strings.TrimRight(strings.TrimSpace(cfg.Telegram.APIURL), "/")

	allowed := make(map[string]struct{}, len(AllUpdateTypes))
	for _, t := range AllUpdateTypes {
		allowed[t] = struct{}{}
	}
	updates := make([]string, 0, len(cfg.Telegram.AllowedUpdates))
	for _, v := range cfg.Telegram.AllowedUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if key == "all" {
			updates = nil
			break
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid telegram.allowed_updates value %q", v)
		}
		updates = append(updates, key)
	}
	if len(updates) == 0 {
		updates = append([]string(nil), AllUpdateTypes...)
	}
	cfg.Telegram.AllowedUpdates = updates

	if cfg.Logging.DebugSampleEvery < 0 {
		return fmt.Errorf("logging.debug_sample_every must be >= 0")
	}
	if cfg.Logging.DebugSampleEvery == 0 {
		cfg.Logging.DebugSampleEvery = DefaultDebugSampleEvery
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	cfg.Logging.Profile = strings.ToLower(strings.TrimSpace(cfg.Logging.Profile))
	return nil
}
