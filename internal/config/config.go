// Package config is the tool's project configuration store: which project
// is active, where its API lives, and whether snapshots come from local
// files or a Git working tree.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// StorageModeLocal reads import snapshots from local files.
	StorageModeLocal = "local"
	// StorageModeGit reads import snapshots from a local Git clone.
	StorageModeGit = "git"
)

// ProjectConfig holds the per-project settings.
type ProjectConfig struct {
	StorageMode  string `yaml:"storage_mode"`
	BaseURL      string `yaml:"base_url"`
	DefaultRealm string `yaml:"default_realm"`
	RepoPath     string `yaml:"repo_path"`
}

// fileConfig is the on-disk document shape.
type fileConfig struct {
	CurrentProject string                   `yaml:"current_project"`
	Projects       map[string]ProjectConfig `yaml:"projects"`
}

// Store loads and answers questions about the tool configuration. A missing
// or unreadable config file degrades to defaults rather than failing.
type Store struct {
	path string
	cfg  fileConfig
}

// NewStore creates a store backed by ~/.confsync/config.yaml.
func NewStore() *Store {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return NewStoreAt(filepath.Join(home, ".confsync", "config.yaml"))
}

// NewStoreAt creates a store backed by an explicit file path.
func NewStoreAt(path string) *Store {
	s := &Store{path: path}
	_ = s.Load()
	return s
}

// Load reads the config file. A missing file resets to defaults and is not
// an error; a malformed file is.
func (s *Store) Load() error {
	s.cfg = fileConfig{Projects: map[string]ProjectConfig{}}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &s.cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if s.cfg.Projects == nil {
		s.cfg.Projects = map[string]ProjectConfig{}
	}
	return nil
}

// Save writes the config file, creating parent directories as needed.
func (s *Store) Save() error {
	raw, err := yaml.Marshal(s.cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SetProject stores a project's configuration.
func (s *Store) SetProject(name string, cfg ProjectConfig) {
	s.cfg.Projects[name] = cfg
}

// SetCurrentProject records the active project name.
func (s *Store) SetCurrentProject(name string) {
	s.cfg.CurrentProject = name
}

// CurrentProject returns the active project name, possibly empty.
func (s *Store) CurrentProject() string {
	return s.cfg.CurrentProject
}

// Project returns a project's configuration. The empty name resolves to the
// current project.
func (s *Store) Project(name string) (ProjectConfig, bool) {
	if name == "" {
		name = s.cfg.CurrentProject
	}
	cfg, ok := s.cfg.Projects[name]
	return cfg, ok
}

// StorageMode returns the storage mode for a project, defaulting to local.
func (s *Store) StorageMode(project string) string {
	if cfg, ok := s.Project(project); ok && cfg.StorageMode == StorageModeGit {
		return StorageModeGit
	}
	return StorageModeLocal
}

// RepoPath returns the local Git clone path configured for a project.
func (s *Store) RepoPath(project string) string {
	cfg, _ := s.Project(project)
	return cfg.RepoPath
}
