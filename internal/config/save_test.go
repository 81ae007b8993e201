package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSaveArtifacts_PreservesOtherSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`# Promoter
registry:
  host: registry.example.com/team # target
artifacts:
  - appmw
promotion:
  concurrency: 5
`), 0o600))

	require.NoError(t, SaveArtifacts(path, []string{"cardui", "gateway"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# Promoter")
	require.Contains(t, string(data), "# target")

	var got struct {
		Registry struct {
			Host string `yaml:"host"`
		} `yaml:"registry"`
		Artifacts []string `yaml:"artifacts"`
		Promotion struct {
			Concurrency int `yaml:"concurrency"`
		} `yaml:"promotion"`
	}
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Equal(t, "registry.example.com/team", got.Registry.Host)
	require.Equal(t, []string{"cardui", "gateway"}, got.Artifacts)
	require.Equal(t, 5, got.Promotion.Concurrency)
}

func TestSaveArtifacts_AppendsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history:\n  list_limit: 5\n"), 0o600))

	require.NoError(t, SaveArtifacts(path, []string{"batchsvc"}))

	var got map[string]any
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Equal(t, []any{"batchsvc"}, got["artifacts"])
	require.Contains(t, got, "history")
}

func TestSaveArtifacts_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new", "config.yaml")

	require.NoError(t, SaveArtifacts(path, []string{"appmw"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "artifacts:\n  - appmw\n", string(data))
}

func TestSaveArtifacts_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := SaveArtifacts(path, []string{"appmw", "all"})

	require.ErrorContains(t, err, "reserved")
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}
