// Copyright (c) 2026 Bezal John Benny
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GmailConfig holds Gmail API access settings.
type GmailConfig struct {
	CredentialsFile string
	TokenFile       string
	Label           string
}

// GeminiConfig holds generation and filtering model settings.
type GeminiConfig struct {
	APIKey              string
	DraftModel          string
	FilterModel         string
	FilterFallbackModel string
	UseFiltering        bool
	ScoreThreshold      float64
	ConfidenceThreshold float64
	PromptTemplatePath  string
}

// TelegramConfig holds the review bot settings.
type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

// Config holds all configuration for the responder service.
type Config struct {
	Gmail    GmailConfig
	Gemini   GeminiConfig
	Telegram TelegramConfig

	IncludeKeywords []string
	ExcludeKeywords []string

	RedisURL    string
	DatabaseURL string

	PollInterval time.Duration

	// Port serves the health endpoint.
	Port int
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Gmail struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		Label           string `yaml:"label"`
	} `yaml:"gmail"`
	Gemini struct {
		APIKey              string  `yaml:"api_key"`
		DraftModel          string  `yaml:"draft_model"`
		FilterModel         string  `yaml:"filter_model"`
		FilterFallbackModel string  `yaml:"filter_fallback_model"`
		UseFiltering        *bool   `yaml:"use_filtering"`
		ScoreThreshold      float64 `yaml:"score_threshold"`
		ConfidenceThreshold float64 `yaml:"confidence_threshold"`
		PromptTemplatePath  string  `yaml:"prompt_template_path"`
	} `yaml:"gemini"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	Keywords struct {
		Include []string `yaml:"include"`
		Exclude []string `yaml:"exclude"`
	} `yaml:"keywords"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for non-YAML settings. The YAML file is optional:
// everything can be supplied through the environment.
func Load() (*Config, error) {
	var raw rawConfig

	configPath := envOrDefault("CONFIG_PATH", "config.yaml")
	if data, err := os.ReadFile(configPath); err == nil {
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	useFiltering := envOrDefaultBool("USE_GEMINI_FILTERING", true)
	if raw.Gemini.UseFiltering != nil {
		useFiltering = *raw.Gemini.UseFiltering
	}

	cfg := &Config{
		Gmail: GmailConfig{
			CredentialsFile: firstNonEmpty(raw.Gmail.CredentialsFile, envOrDefault("GMAIL_CREDENTIALS_FILE", "credentials.json")),
			TokenFile:       firstNonEmpty(raw.Gmail.TokenFile, envOrDefault("GMAIL_TOKEN_FILE", "token.json")),
			Label:           firstNonEmpty(raw.Gmail.Label, envOrDefault("GMAIL_LABEL_NAME", "HARO/HelpAB2BWriter")),
		},
		Gemini: GeminiConfig{
			APIKey:              firstNonEmpty(raw.Gemini.APIKey, os.Getenv("GEMINI_API_KEY")),
			DraftModel:          firstNonEmpty(raw.Gemini.DraftModel, envOrDefault("GEMINI_MODEL", "gemini-2.5-flash")),
			FilterModel:         firstNonEmpty(raw.Gemini.FilterModel, envOrDefault("GEMINI_FILTER_MODEL", "gemini-2.5-flash")),
			FilterFallbackModel: firstNonEmpty(raw.Gemini.FilterFallbackModel, envOrDefault("GEMINI_FILTER_FALLBACK_MODEL", "gemini-2.0-flash")),
			UseFiltering:        useFiltering,
			ScoreThreshold:      firstPositive(raw.Gemini.ScoreThreshold, envOrDefaultFloat("GEMINI_FILTER_THRESHOLD", 0.85)),
			ConfidenceThreshold: firstPositive(raw.Gemini.ConfidenceThreshold, envOrDefaultFloat("GEMINI_CONFIDENCE_THRESHOLD", 0.75)),
			PromptTemplatePath:  firstNonEmpty(raw.Gemini.PromptTemplatePath, os.Getenv("GEMINI_PROMPT_TEMPLATE_PATH")),
		},
		Telegram: TelegramConfig{
			BotToken: firstNonEmpty(raw.Telegram.BotToken, os.Getenv("TELEGRAM_BOT_TOKEN")),
			ChatID:   firstNonZero(raw.Telegram.ChatID, envOrDefaultInt64("TELEGRAM_CHAT_ID", 0)),
		},
		IncludeKeywords: mergeKeywords(raw.Keywords.Include, os.Getenv("HARO_INCLUDE_KEYWORDS")),
		ExcludeKeywords: mergeKeywords(raw.Keywords.Exclude, os.Getenv("HARO_EXCLUDE_KEYWORDS")),
		RedisURL:        firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "redis://localhost:6379/0")),
		DatabaseURL:     firstNonEmpty(raw.Database.URL, os.Getenv("DATABASE_URL")),
		PollInterval:    envOrDefaultDuration("POLL_INTERVAL", 120*time.Second),
		Port:            envOrDefaultInt("PORT", 8080),
	}

	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == 0 {
		return nil, fmt.Errorf("telegram bot_token and chat_id must be configured")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	return cfg, nil
}

// mergeKeywords combines YAML keywords with a comma-separated env override,
// lowercased and deduplicated.
func mergeKeywords(fromYAML []string, fromEnv string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(kw string) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			return
		}
		seen[kw] = true
		out = append(out, kw)
	}
	for _, kw := range fromYAML {
		add(kw)
	}
	for _, kw := range strings.Split(fromEnv, ",") {
		add(kw)
	}
	return out
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true")
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstNonZero(values ...int64) int64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
