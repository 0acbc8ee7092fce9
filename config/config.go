// Package config loads pipeline configuration. Precedence is environment
// variables over the optional JSON file over built-in defaults; a .env file
// in the working directory feeds the environment first.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the pipeline. Secrets usually arrive via the
// environment; the JSON file carries the operational settings.
type Config struct {
	// ChannelID is the channel whose uploads are processed. Empty means the
	// authenticated account's own channel.
	ChannelID string `json:"channel_id"`

	// Languages is the caption language preference order.
	Languages []string `json:"languages"`

	// Provider selects the generation backend: "openai" or "deepseek".
	Provider string `json:"provider"`
	// Model overrides the provider's default model.
	Model string `json:"model"`

	// OpenAIKey and DeepSeekKey authenticate the generation backends.
	OpenAIKey   string `json:"openai_key"`
	DeepSeekKey string `json:"deepseek_key"`

	// GoogleClientID, GoogleClientSecret and GoogleTokenFile configure the
	// OAuth credential for the Data API and Docs API.
	GoogleClientID     string `json:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret"`
	GoogleTokenFile    string `json:"google_token_file"`

	// CookiesBase64 is the base64-encoded Netscape cookie file handed to the
	// fallback extractor for members-only videos.
	CookiesBase64 string `json:"cookies_base64"`

	// DocumentID is the summary document. Empty disables the ledger.
	DocumentID string `json:"document_id"`

	// TelegramToken and TelegramChatID configure operator alerts. Empty
	// disables them.
	TelegramToken  string `json:"telegram_token"`
	TelegramChatID string `json:"telegram_chat_id"`

	// CheckpointFile is where batch progress is persisted.
	CheckpointFile string `json:"checkpoint_file"`

	// YtdlpPath overrides the yt-dlp binary location.
	YtdlpPath string `json:"ytdlp_path"`
	// SubprocessTimeout bounds one fallback extraction.
	SubprocessTimeout time.Duration `json:"-"`
	// SubprocessTimeoutSeconds is the JSON representation of the timeout.
	SubprocessTimeoutSeconds int `json:"subprocess_timeout_seconds"`

	// VideoDelay is the courtesy pause between processed groups.
	VideoDelay time.Duration `json:"-"`
	// VideoDelaySeconds is the JSON representation of the delay.
	VideoDelaySeconds int `json:"video_delay_seconds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Languages:         []string{"pt", "pt-BR", "en"},
		Provider:          "deepseek",
		GoogleTokenFile:   "token.json",
		CheckpointFile:    "checkpoint.json",
		SubprocessTimeout: 10 * time.Minute,
		VideoDelay:        30 * time.Second,
	}
}

// Load builds the effective configuration. path names the JSON file; empty
// skips the file layer.
func Load(path string) (*Config, error) {
	// Missing .env is the common case in production.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.ChannelID, "CHANNEL_ID")
	setString(&c.Provider, "AI_PROVIDER")
	setString(&c.Model, "AI_MODEL")
	setString(&c.OpenAIKey, "OPENAI_API_KEY")
	setString(&c.DeepSeekKey, "DEEPSEEK_API_KEY")
	setString(&c.GoogleClientID, "GOOGLE_CLIENT_ID")
	setString(&c.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.GoogleTokenFile, "GOOGLE_TOKEN_FILE")
	setString(&c.CookiesBase64, "YOUTUBE_COOKIES_B64")
	setString(&c.DocumentID, "DOCUMENT_ID")
	setString(&c.TelegramToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.TelegramChatID, "TELEGRAM_CHAT_ID")
	setString(&c.CheckpointFile, "CHECKPOINT_FILE")
	setString(&c.YtdlpPath, "YTDLP_PATH")

	if v := os.Getenv("LANGUAGES"); v != "" {
		var langs []string
		for _, lang := range strings.Split(v, ",") {
			if lang = strings.TrimSpace(lang); lang != "" {
				langs = append(langs, lang)
			}
		}
		if len(langs) > 0 {
			c.Languages = langs
		}
	}
	if secs, ok := envInt("SUBPROCESS_TIMEOUT_SECONDS"); ok {
		c.SubprocessTimeoutSeconds = secs
	}
	if secs, ok := envInt("VIDEO_DELAY_SECONDS"); ok {
		c.VideoDelaySeconds = secs
	}
}

// normalize folds the JSON second fields into durations.
func (c *Config) normalize() {
	if c.SubprocessTimeoutSeconds > 0 {
		c.SubprocessTimeout = time.Duration(c.SubprocessTimeoutSeconds) * time.Second
	}
	if c.VideoDelaySeconds > 0 {
		c.VideoDelay = time.Duration(c.VideoDelaySeconds) * time.Second
	}
}

func (c *Config) validate() error {
	switch c.Provider {
	case "openai", "deepseek":
	default:
		return fmt.Errorf("config: unknown provider %q (want openai or deepseek)", c.Provider)
	}
	if len(c.Languages) == 0 {
		return fmt.Errorf("config: at least one language required")
	}
	return nil
}

// ProviderKey returns the API key for the selected provider.
func (c *Config) ProviderKey() string {
	if c.Provider == "openai" {
		return c.OpenAIKey
	}
	return c.DeepSeekKey
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
