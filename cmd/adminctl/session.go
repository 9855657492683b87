package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"barbershop-booking/internal/rpc"
)

type savedSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// sessionStore keeps the token pair between invocations.
type sessionStore struct {
	path string
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".adminctl-session.json"
	}
	return filepath.Join(dir, "barbershop", "session.json")
}

func (s sessionStore) load(c *rpc.Client) error {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var v savedSession
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("session file %s: %w", s.path, err)
	}
	c.SetTokens(v.AccessToken, v.RefreshToken)
	return nil
}

func (s sessionStore) save(c *rpc.Client) error {
	access, refresh := c.Tokens()
	b, err := json.Marshal(savedSession{AccessToken: access, RefreshToken: refresh})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

func (s sessionStore) clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
