package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"mediamorph/internal/api"
)

// ErrNotAuthenticated indicates no usable session exists; the caller should
// direct the user to log in.
var ErrNotAuthenticated = errors.New("not logged in")

// Store owns the persisted token pair. It is the only writer of session
// state; every other component reads the token through the api.TokenSource
// interface. Cross-process writes are serialized with a file lock so
// concurrent CLI invocations cannot interleave a read-modify-write.
type Store struct {
	path string
	lock *flock.Flock

	mu   sync.RWMutex
	pair api.TokenPair
}

// NewStore creates a session store persisting to path.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

var _ api.TokenSource = (*Store)(nil)

// AccessToken implements api.TokenSource.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.AccessToken
}

// RefreshToken returns the stored refresh token, if any.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.RefreshToken
}

// Authenticated reports whether an access token is currently held.
func (s *Store) Authenticated() bool {
	return s.AccessToken() != ""
}

// Load reads the persisted token pair into memory. A missing file is not an
// error; it simply leaves the store unauthenticated.
func (s *Store) Load() error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var pair api.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("parse session file: %w", err)
	}

	s.mu.Lock()
	s.pair = pair
	s.mu.Unlock()
	return nil
}

// SetPair replaces the session and persists it so it survives process
// restarts. The file carries credentials, hence 0600.
func (s *Store) SetPair(pair api.TokenPair) error {
	s.mu.Lock()
	s.pair = pair
	s.mu.Unlock()
	return s.save(pair)
}

// Clear drops the session in memory and on disk. Used for logout and for
// trust-probe rejection.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.pair = api.TokenPair{}
	s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	defer s.lock.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *Store) save(pair api.TokenPair) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	defer s.lock.Unlock()

	data, err := json.MarshalIndent(pair, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp session file: %w", err)
	}
	return nil
}

// Bootstrap loads the persisted session and, when a token is present,
// performs exactly one trust-probe against the service. A rejected token is
// cleared from memory and disk; this probe is the only way the client learns
// a token has expired or been revoked.
func (s *Store) Bootstrap(ctx context.Context, client *api.Client) (*api.User, error) {
	if err := s.Load(); err != nil {
		return nil, err
	}
	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	user, err := client.Me(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			if clearErr := s.Clear(); clearErr != nil {
				return nil, fmt.Errorf("clear rejected session: %w", clearErr)
			}
			return nil, fmt.Errorf("session expired: %w", ErrNotAuthenticated)
		}
		return nil, err
	}
	return user, nil
}
