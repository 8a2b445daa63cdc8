// Package auth holds the user file, the session cookie and the capability
// gate: level "editor" may write, any other level is read-only.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// LevelEditor is the only access level allowed to mutate records.
const LevelEditor = "editor"

type userEntry struct {
	PasswordHash string `json:"password_hash"`
	Level        string `json:"level"`
}

// UserStore is the JSON-file-backed user registry.
type UserStore struct {
	mu    sync.Mutex
	path  string
	users map[string]userEntry
}

// LoadUsers reads the user file. A missing or corrupt file is replaced by
// a bootstrap registry with the default admin editor.
func LoadUsers(path string) (*UserStore, error) {
	s := &UserStore{path: path}

	data, err := os.ReadFile(path)
	if err == nil {
		if jsonErr := json.Unmarshal(data, &s.users); jsonErr == nil && len(s.users) > 0 {
			return s, nil
		}
		log.Warn().Str("path", path).Msg("user file unreadable, bootstrapping defaults")
	}

	if err := s.bootstrap(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *UserStore) bootstrap() error {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing bootstrap password: %w", err)
	}
	s.users = map[string]userEntry{
		"admin": {PasswordHash: string(hash), Level: LevelEditor},
	}
	return s.save()
}

func (s *UserStore) save() error {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding user file: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing user file: %w", err)
	}
	return nil
}

// Authenticate checks the password against the stored bcrypt hash and
// returns the user's access level.
func (s *UserStore) Authenticate(username, password string) (level string, ok bool) {
	s.mu.Lock()
	entry, exists := s.users[username]
	s.mu.Unlock()
	if !exists {
		return "", false
	}
	if bcrypt.CompareHashAndPassword([]byte(entry.PasswordHash), []byte(password)) != nil {
		return "", false
	}
	return entry.Level, true
}

// SetPassword upserts a user with the given level.
func (s *UserStore) SetPassword(username, password, level string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]userEntry)
	}
	s.users[username] = userEntry{PasswordHash: string(hash), Level: level}
	return s.save()
}
