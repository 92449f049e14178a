package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName string
	AppEnv  string
	AppPort string

	// BaseURL is the public origin used when building shareable result links.
	BaseURL string
	LIFFID  string

	AIProvider   string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	SpreadsheetID       string
	SheetName           string
	ServiceAccountEmail string
	ServiceAccountKey   string

	LineChannelToken string

	SMTPHost       string
	SMTPPort       int
	SenderEmail    string
	SenderPassword string
	SenderName     string

	RedisURL        string
	HistoryCacheTTL time.Duration
	GradingTimeout  time.Duration
	StageTimeout    time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// SheetsConfigured reports whether the spreadsheet store credentials are complete.
func (c Config) SheetsConfigured() bool {
	return c.SpreadsheetID != "" && c.ServiceAccountEmail != "" && c.ServiceAccountKey != ""
}

// MailConfigured reports whether the mail relay credentials are complete.
func (c Config) MailConfigured() bool {
	return c.SMTPHost != "" && c.SenderEmail != "" && c.SenderPassword != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Grammar Coach API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.base_url", "http://localhost:3000")
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("google.sheet_name", "Responses")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("sender.name", "AI英語予備校")
	v.SetDefault("history.cache_ttl", "60s")
	v.SetDefault("grading.timeout", "30s")
	v.SetDefault("stage.timeout", "10s")

	cacheTTL, err := time.ParseDuration(v.GetString("history.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid history cache ttl: %w", err)
	}

	gradingTimeout, err := time.ParseDuration(v.GetString("grading.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid grading timeout: %w", err)
	}

	stageTimeout, err := time.ParseDuration(v.GetString("stage.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid stage timeout: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		BaseURL:             strings.TrimRight(v.GetString("app.base_url"), "/"),
		LIFFID:              v.GetString("liff.id"),
		AIProvider:          strings.ToLower(v.GetString("ai.provider")),
		GeminiAPIKey:        v.GetString("gemini.api_key"),
		GeminiModel:         v.GetString("gemini.model"),
		OpenAIAPIKey:        v.GetString("openai.api_key"),
		OpenAIModel:         v.GetString("openai.model"),
		SpreadsheetID:       v.GetString("google.spreadsheet_id"),
		SheetName:           v.GetString("google.sheet_name"),
		ServiceAccountEmail: v.GetString("google.service_account_email"),
		ServiceAccountKey:   normalizePrivateKey(v.GetString("google.private_key")),
		LineChannelToken:    v.GetString("line.channel_access_token"),
		SMTPHost:            v.GetString("smtp.host"),
		SMTPPort:            v.GetInt("smtp.port"),
		SenderEmail:         v.GetString("sender.email"),
		SenderPassword:      v.GetString("sender.password"),
		SenderName:          v.GetString("sender.name"),
		RedisURL:            v.GetString("redis.url"),
		HistoryCacheTTL:     cacheTTL,
		GradingTimeout:      gradingTimeout,
		StageTimeout:        stageTimeout,
	}

	if cfg.SMTPPort <= 0 {
		cfg.SMTPPort = 587
	}

	return cfg, nil
}

// normalizePrivateKey restores real newlines in PEM material that was stored
// with escaped "\n" sequences, the way hosting dashboards hand it over.
func normalizePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}
