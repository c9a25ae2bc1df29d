package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/confsync/internal/config"
)

func TestStore_MissingFileDefaults(t *testing.T) {
	store := config.NewStoreAt(filepath.Join(t.TempDir(), "config.yaml"))

	assert.Empty(t, store.CurrentProject())
	_, ok := store.Project("anything")
	assert.False(t, ok)
	assert.Equal(t, config.StorageModeLocal, store.StorageMode("anything"))
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	store := config.NewStoreAt(path)
	store.SetProject("prod", config.ProjectConfig{
		StorageMode:  config.StorageModeGit,
		BaseURL:      "https://tenant.example.com",
		DefaultRealm: "bravo",
		RepoPath:     "/srv/exports/prod",
	})
	store.SetCurrentProject("prod")
	require.NoError(t, store.Save())

	reloaded := config.NewStoreAt(path)
	assert.Equal(t, "prod", reloaded.CurrentProject())

	cfg, ok := reloaded.Project("prod")
	require.True(t, ok)
	assert.Equal(t, "https://tenant.example.com", cfg.BaseURL)
	assert.Equal(t, "bravo", cfg.DefaultRealm)
	assert.Equal(t, config.StorageModeGit, reloaded.StorageMode("prod"))
	assert.Equal(t, "/srv/exports/prod", reloaded.RepoPath("prod"))
}

func TestStore_EmptyNameUsesCurrentProject(t *testing.T) {
	store := config.NewStoreAt(filepath.Join(t.TempDir(), "config.yaml"))
	store.SetProject("dev", config.ProjectConfig{BaseURL: "https://dev.example.com"})
	store.SetCurrentProject("dev")

	cfg, ok := store.Project("")
	require.True(t, ok)
	assert.Equal(t, "https://dev.example.com", cfg.BaseURL)
}

func TestStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o600))

	store := config.NewStoreAt(path)
	assert.Error(t, store.Load())
	// still usable with defaults after a failed load
	assert.Equal(t, config.StorageModeLocal, store.StorageMode("x"))
}
