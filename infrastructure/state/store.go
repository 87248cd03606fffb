package state

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// State holds what the previous run left behind
type State struct {
	LastSource string `yaml:"last_source"`
	LastOutput string `yaml:"last_output"`
}

// Store persists State as a small YAML file
type Store struct {
	path string
}

// NewStore creates a store backed by path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file
func (s *Store) Path() string {
	return s.path
}

// Load returns the saved state. A missing or unreadable file yields an empty State.
func (s *Store) Load() State {
	var st State
	if s.path == "" {
		return st
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return State{}
	}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return State{}
	}
	return st
}

// Save writes st to the backing file
func (s *Store) Save(st State) error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Update loads the state, applies fn and saves the result
func (s *Store) Update(fn func(*State)) error {
	st := s.Load()
	fn(&st)
	return s.Save(st)
}
