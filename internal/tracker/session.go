package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Session is what the client needs to talk to the API on behalf of a user and trip
type Session struct {
	BaseURL string `json:"baseUrl"`
	Token   string `json:"token"`
	UserID  uint64 `json:"userId"`
	TripID  uint64 `json:"tripId"`
}

// Validate reports the first missing field
func (s Session) Validate() error {
	switch {
	case strings.TrimSpace(s.BaseURL) == "":
		return errors.New("session: base URL is required")
	case s.Token == "":
		return errors.New("session: token is required")
	case s.UserID == 0:
		return errors.New("session: user id is required")
	case s.TripID == 0:
		return errors.New("session: trip id is required")
	}
	return nil
}

// LoadSession reads a session file. A missing file yields an empty session.
func LoadSession(path string) (Session, error) {
	var s Session
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read session: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decode session %s: %w", path, err)
	}
	return s, nil
}

// Save writes the session with owner-only permissions; it holds a bearer token
func (s Session) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o600)
}
