// Package session holds the client's login state as an explicit value. A
// Session is created by a successful login, passed to every authenticated
// call and destroyed on logout; the CLI persists it between runs.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"appointment-planner/internal/api"
)

// ErrNoSession gates operations that need a logged-in user.
var ErrNoSession = errors.New("not logged in")

type Session struct {
	Token     string    `yaml:"token"`
	User      api.User  `yaml:"user"`
	ExpiresAt time.Time `yaml:"expires_at"`
	CreatedAt time.Time `yaml:"created_at"`
}

// New starts a session from a login response.
func New(resp api.LoginResponse) *Session {
	return &Session{
		Token:     resp.Token,
		User:      resp.User,
		ExpiresAt: resp.ExpiresAt,
		CreatedAt: time.Now(),
	}
}

// Active reports whether the session still carries an unexpired token.
func (s *Session) Active(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Require returns s when it is active and ErrNoSession otherwise.
func Require(s *Session) (*Session, error) {
	if !s.Active(time.Now()) {
		return nil, ErrNoSession
	}
	return s, nil
}

// Destroy clears the session in place; later Require calls fail.
func (s *Session) Destroy() {
	if s != nil {
		*s = Session{}
	}
}

// Save writes s to path readable only by the owner.
func Save(path string, s *Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("session dir: %w", err)
	}
	b, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads a saved session. A missing file or an expired token yields
// ErrNoSession.
func Load(path string) (*Session, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("session file %s: %w", path, err)
	}
	return Require(&s)
}

// Remove deletes the saved session, if any.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
