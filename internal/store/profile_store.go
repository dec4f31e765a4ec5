package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/UniM0cha/gilton-system/internal/errs"
	"github.com/UniM0cha/gilton-system/internal/model"
)

// ProfileStore persists saved profiles in <dir>/profiles.json.
//
// The whole file is rewritten on every create, so writes are serialized
// behind a mutex; concurrent writers would otherwise lose entries.
type ProfileStore struct {
	mu  sync.Mutex
	dir string
}

// NewProfileStore creates a profile store rooted at dir.
func NewProfileStore(dir string) *ProfileStore {
	return &ProfileStore{dir: dir}
}

func (s *ProfileStore) path() string {
	return filepath.Join(s.dir, "profiles.json")
}

// List returns all saved profiles. A missing file is an empty list, not an
// error.
func (s *ProfileStore) List() ([]model.StoredProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Create validates, assigns an id, appends and persists the profile.
func (s *ProfileStore) Create(req model.CreateProfileRequest) (model.StoredProfile, error) {
	if req.Name == "" || req.Role == "" {
		return model.StoredProfile{}, errs.ErrInvalidProfile
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.read()
	if err != nil {
		return model.StoredProfile{}, err
	}

	profile := model.StoredProfile{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Role:     req.Role,
		Icon:     req.Icon,
		Commands: req.Commands,
	}
	profiles = append(profiles, profile)

	if err := s.write(profiles); err != nil {
		return model.StoredProfile{}, err
	}
	return profile, nil
}

func (s *ProfileStore) read() ([]model.StoredProfile, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return []model.StoredProfile{}, nil
		}
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	var profiles []model.StoredProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	return profiles, nil
}

func (s *ProfileStore) write(profiles []model.StoredProfile) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(), data, 0o644)
}
