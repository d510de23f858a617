package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Entry is the persisted representation of one active session.
type Entry struct {
	ClientID    string `json:"clientId"`
	CallbackURL string `json:"callbackURL,omitempty"`
}

// Store persists the full session set as a JSON snapshot. The file is the
// recovery source of truth at boot; at runtime it is write-only.
type Store struct {
	path string
	log  zerolog.Logger
}

// NewStore creates a store writing to path.
func NewStore(path string, log zerolog.Logger) *Store {
	return &Store{
		path: path,
		log:  log.With().Str("component", "store").Logger(),
	}
}

// Load reads the snapshot file. A missing or corrupt file is treated as an
// empty set so that first boot and corruption never crash startup.
func (s *Store) Load() []Entry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Error().Err(err).Str("path", s.path).Msg("Failed to read clients from file")
		}
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("Failed to parse clients file")
		return nil
	}
	return entries
}

// SaveAll overwrites the snapshot. The write goes to a temp file in the
// same directory followed by a rename so a concurrent reader never sees a
// half-written file.
func (s *Store) SaveAll(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode clients: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".clients-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
