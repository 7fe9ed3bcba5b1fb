package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"nexus/internal/domain"
)

const profilesFile = "profiles.json"

// ProfileFileStore persists per-relay client profiles to disk.
type ProfileFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewProfileFileStore returns a ProfileFileStore rooted at dir.
func NewProfileFileStore(dir string) *ProfileFileStore {
	return &ProfileFileStore{dir: dir}
}

// SaveProfile stores or replaces the profile for p.RelayURL.
func (s *ProfileFileStore) SaveProfile(p domain.Profile) error {
	if p.RelayURL == "" {
		return errors.New("profile has no relay url")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	path := filepath.Join(s.dir, profilesFile)
	profiles := make(map[string]domain.Profile)
	if err := readJSON(path, &profiles); err != nil {
		return err
	}
	profiles[relayKey(p.RelayURL)] = p
	return writeJSON(path, profiles, 0o600)
}

// LoadProfile retrieves the profile for relayURL.
func (s *ProfileFileStore) LoadProfile(relayURL string) (domain.Profile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles := make(map[string]domain.Profile)
	if err := readJSON(filepath.Join(s.dir, profilesFile), &profiles); err != nil {
		return domain.Profile{}, false, err
	}
	p, ok := profiles[relayKey(relayURL)]
	return p, ok, nil
}

// relayKey normalises a relay URL so trailing slashes do not split profiles.
func relayKey(relayURL string) string {
	return strings.TrimRight(relayURL, "/")
}

var _ domain.ProfileStore = (*ProfileFileStore)(nil)
