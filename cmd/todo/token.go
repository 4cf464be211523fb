package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mahenzon/todo-app/internal/model"
)

// ---- session file ----

type tokenFile struct {
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Record      map[string]any `json:"record"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "todo")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "todo")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

// tokenExpiry reads exp from the token without verifying it; the server does that.
func tokenExpiry(tok string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Now().Add(15 * time.Minute)
	}
	return claims.ExpiresAt.Time
}

func saveToken(tok string, rec model.Record) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: tokenExpiry(tok), Record: rec})
}

func loadToken() (string, model.Record, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", nil, err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", nil, err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", nil, errors.New("no valid token (login required)")
	}
	return tf.AccessToken, model.Record(tf.Record), nil
}

func removeToken() error {
	if err := os.Remove(tokenPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
