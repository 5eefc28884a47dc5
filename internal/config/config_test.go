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

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GEMINI_API_KEY", "key123")
	t.Setenv("TELEGRAM_BOT_TOKEN", "bot:token")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")
	t.Setenv("DATABASE_URL", "postgres://localhost/responder")
}

func TestLoad_EnvOnlyDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Gmail.Label != "HARO/HelpAB2BWriter" {
		t.Errorf("label = %q", cfg.Gmail.Label)
	}
	if cfg.Gemini.DraftModel != "gemini-2.5-flash" {
		t.Errorf("draft model = %q", cfg.Gemini.DraftModel)
	}
	if cfg.Gemini.ScoreThreshold != 0.85 || cfg.Gemini.ConfidenceThreshold != 0.75 {
		t.Errorf("thresholds = %v / %v", cfg.Gemini.ScoreThreshold, cfg.Gemini.ConfidenceThreshold)
	}
	if !cfg.Gemini.UseFiltering {
		t.Error("filtering should default on")
	}
	if cfg.PollInterval != 120*time.Second {
		t.Errorf("poll interval = %v", cfg.PollInterval)
	}
	if cfg.Telegram.ChatID != 12345 {
		t.Errorf("chat id = %d", cfg.Telegram.ChatID)
	}
}

func TestLoad_RequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"missing api key", "GEMINI_API_KEY"},
		{"missing telegram token", "TELEGRAM_BOT_TOKEN"},
		{"missing database url", "DATABASE_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")
			if _, err := Load(); err == nil {
				t.Errorf("Load succeeded without %s", tt.unset)
			}
		})
	}
}

func TestLoad_YAMLWithEnvExpansion(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SECRET_KEY", "expanded-key")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
gemini:
  api_key: ${SECRET_KEY}
  draft_model: gemini-2.5-pro
  score_threshold: 0.9
gmail:
  label: Digests
keywords:
  include: [AI, " seo "]
  exclude: [crypto]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Gemini.APIKey != "expanded-key" {
		t.Errorf("api key = %q, want env-expanded value", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.DraftModel != "gemini-2.5-pro" {
		t.Errorf("draft model = %q", cfg.Gemini.DraftModel)
	}
	if cfg.Gemini.ScoreThreshold != 0.9 {
		t.Errorf("score threshold = %v", cfg.Gemini.ScoreThreshold)
	}
	if cfg.Gmail.Label != "Digests" {
		t.Errorf("label = %q", cfg.Gmail.Label)
	}
	if want := []string{"ai", "seo"}; !reflect.DeepEqual(cfg.IncludeKeywords, want) {
		t.Errorf("include keywords = %v, want %v", cfg.IncludeKeywords, want)
	}
}

func TestMergeKeywords(t *testing.T) {
	got := mergeKeywords([]string{"AI", "seo"}, "Marketing, ai , ,automation")
	want := []string{"ai", "seo", "marketing", "automation"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mergeKeywords = %v, want %v", got, want)
	}
}
