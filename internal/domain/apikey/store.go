package apikey

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
)

// Key is the JSON field holding the shared secret.
const Key = "api_key"

// Placeholder is written on first run so operators notice the key is unset.
const Placeholder = "your_api_key_here"

// Store holds the node's shared secret, backed by a JSON file.
// Other keys found in the file are preserved when it is rewritten.
type Store struct {
	path string

	mu     sync.RWMutex
	values map[string]interface{}
}

// Load reads the config file at path, creating it with the placeholder
// secret when it does not exist. created reports whether that happened.
func Load(path string) (store *Store, created bool, err error) {
	s := &Store{path: path}

	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		s.values = map[string]interface{}{Key: Placeholder}
		if err := s.persist(); err != nil {
			return nil, false, err
		}
		return s, true, nil
	} else if statErr != nil {
		return nil, false, fmt.Errorf("stat config %s: %w", path, statErr)
	}

	if err := s.Reload(); err != nil {
		return nil, false, err
	}
	return s, false, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the current secret, or "" when none is set.
func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, _ := s.values[Key].(string)
	return key
}

// IsPlaceholder reports whether the secret was never changed from the default.
func (s *Store) IsPlaceholder() bool {
	return s.Get() == Placeholder
}

// Matches compares candidate against the stored secret in constant time.
// An empty candidate or an empty stored secret never matches.
func (s *Store) Matches(candidate string) bool {
	key := s.Get()
	if candidate == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(key)) == 1
}

// Set replaces the secret and writes the file.
func (s *Store) Set(key string) error {
	if key == "" {
		return errors.New("api key must not be empty")
	}

	s.mu.Lock()
	previous, had := s.values[Key]
	s.values[Key] = key
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		s.mu.Lock()
		if had {
			s.values[Key] = previous
		} else {
			delete(s.values, Key)
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// Reload re-reads the file, replacing the in-memory values.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", s.path, err)
	}

	values := make(map[string]interface{})
	if err := sonic.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse config %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// persist writes the file through a temp file and rename so readers never
// observe a partial document.
func (s *Store) persist() error {
	s.mu.RLock()
	data, err := sonic.ConfigStd.MarshalIndent(s.values, "", "    ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace config %s: %w", s.path, err)
	}
	return nil
}
