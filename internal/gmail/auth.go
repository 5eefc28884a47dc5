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

// Package gmail reads digest messages from a Gmail label and sends approved
// replies on the original thread. Authentication uses the installed-app
// OAuth flow: a credentials.json from the Google Cloud console plus a
// token.json minted once via AuthorizeURL/Exchange.
package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// scopes needed: read + modify (mark read) and send.
var scopes = []string{gmailapi.GmailModifyScope, gmailapi.GmailSendScope}

// NewService builds a Gmail API service from an installed-app credentials
// file and a previously saved token file.
func NewService(ctx context.Context, credentialsPath, tokenPath string) (*gmailapi.Service, error) {
	cfg, err := loadOAuthConfig(credentialsPath)
	if err != nil {
		return nil, err
	}

	token, err := LoadToken(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("load token %s (run the authorize flow first): %w", tokenPath, err)
	}

	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

// AuthorizeURL returns the consent URL for the one-time installed-app flow.
func AuthorizeURL(credentialsPath string) (string, error) {
	cfg, err := loadOAuthConfig(credentialsPath)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline), nil
}

// Exchange trades an authorization code for a token and saves it to tokenPath.
func Exchange(ctx context.Context, credentialsPath, tokenPath, code string) error {
	cfg, err := loadOAuthConfig(credentialsPath)
	if err != nil {
		return err
	}
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	return SaveToken(tokenPath, token)
}

func loadOAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", credentialsPath, err)
	}
	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return cfg, nil
}

// LoadToken reads a saved oauth2 token from disk.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &token, nil
}

// SaveToken writes an oauth2 token to disk with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write token %s: %w", path, err)
	}
	return nil
}
