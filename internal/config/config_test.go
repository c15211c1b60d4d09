package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "istio-system", cfg.IstioNamespace)
	assert.Equal(t, "apps", cfg.PlatformNamespace)
	assert.Equal(t, "istio-system", cfg.DashboardNamespace)
	assert.Equal(t, DefaultMeshVersion, cfg.MeshVersion)
	assert.Equal(t, DefaultExpectedContext, cfg.ExpectedContext)
	assert.Equal(t, DataplaneSidecar, cfg.DataplaneMode)

	require.NoError(t, cfg.Validate())
}

func TestLoadFile_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshlab.yaml")
	content := `
platform_namespace: workloads
mesh_version: 1.29.0
expected_context: kind-local
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := Default()
	require.NoError(t, LoadFile(cfg, path))

	// Overlaid fields.
	assert.Equal(t, "workloads", cfg.PlatformNamespace)
	assert.Equal(t, "1.29.0", cfg.MeshVersion)
	assert.Equal(t, "kind-local", cfg.ExpectedContext)

	// Untouched fields keep their defaults.
	assert.Equal(t, "istio-system", cfg.IstioNamespace)
	assert.Equal(t, "manifests", cfg.ManifestDir)
}

func TestLoadFile_MissingFile(t *testing.T) {
	cfg := Default()
	err := LoadFile(cfg, filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshlab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("platform_namespace: [\n"), 0o600))

	err := LoadFile(Default(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal yaml")
}

func TestLoadFile_CannotSetBehaviorFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshlab.yaml")
	content := `
force: true
delete_namespaces: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := Default()
	require.NoError(t, LoadFile(cfg, path))

	assert.False(t, cfg.Force)
	assert.False(t, cfg.DeleteNamespaces)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "invalid dataplane mode",
			mutate:  func(c *Config) { c.DataplaneMode = "holodeck" },
			wantErr: "invalid dataplane mode",
		},
		{
			name:    "missing istio namespace",
			mutate:  func(c *Config) { c.IstioNamespace = "" },
			wantErr: "istio namespace is required",
		},
		{
			name:    "missing platform namespace",
			mutate:  func(c *Config) { c.PlatformNamespace = "" },
			wantErr: "platform namespace is required",
		},
		{
			name:    "missing mesh version",
			mutate:  func(c *Config) { c.MeshVersion = "" },
			wantErr: "mesh version is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
