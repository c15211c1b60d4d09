// Package config holds the immutable run configuration for meshlab.
//
// A Config is built once at the start of a run from CLI flags (optionally
// overlaid on a meshlab.yaml file) and passed explicitly to every component.
// Nothing in this package carries mutable state between runs; all cluster
// state is re-observed on each invocation.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DataplaneMode selects how workload namespaces are enrolled in the mesh.
type DataplaneMode string

const (
	// DataplaneSidecar enrolls namespaces via sidecar proxy injection.
	DataplaneSidecar DataplaneMode = "sidecar"
	// DataplaneAmbient enrolls namespaces in ambient (per-node proxy) mode.
	DataplaneAmbient DataplaneMode = "ambient"
	// DataplaneNone leaves namespaces unenrolled.
	DataplaneNone DataplaneMode = "none"
)

// Config is the effective configuration of a single run.
type Config struct {
	// Target namespaces.
	IstioNamespace     string `yaml:"istio_namespace"`
	PlatformNamespace  string `yaml:"platform_namespace"`
	DashboardNamespace string `yaml:"dashboard_namespace"`

	// MeshVersion is the pinned Istio control-plane version this tooling is
	// designed against. A cluster running a different version fails preflight
	// unless Force is set.
	MeshVersion string `yaml:"mesh_version"`

	// ExpectedContext is the kubeconfig context this tooling expects to
	// operate on. Guarding on it keeps a stray KUBECONFIG from pointing a
	// destructive run at a real cluster.
	ExpectedContext string `yaml:"expected_context"`

	// KubeconfigPath overrides the default kubeconfig location. Empty means
	// the standard loading rules (KUBECONFIG, then ~/.kube/config).
	KubeconfigPath string `yaml:"kubeconfig"`

	// Context overrides the kubeconfig current-context.
	Context string `yaml:"context"`

	// ManifestDir is the root of the policy manifest tree.
	ManifestDir string `yaml:"manifest_dir"`

	// ChartDir is checked for vendored chart archives before any network
	// fetch is attempted.
	ChartDir string `yaml:"chart_dir"`

	// Behavior flags. These are CLI-only; a config file cannot set them.
	Force                 bool          `yaml:"-"`
	DataplaneMode         DataplaneMode `yaml:"-"`
	InstallIngressGateway bool          `yaml:"-"`
	InstallDashboard      bool          `yaml:"-"`
	AllowInternetEgress   bool          `yaml:"-"`
	DeleteNamespaces      bool          `yaml:"-"`
	AcknowledgeDestruct   bool          `yaml:"-"`
	RemoveClusterCRDs     bool          `yaml:"-"`
}

// Default returns a Config populated with the conventional local-dev values.
func Default() *Config {
	return &Config{
		IstioNamespace:     "istio-system",
		PlatformNamespace:  "apps",
		DashboardNamespace: "istio-system",
		MeshVersion:        DefaultMeshVersion,
		ExpectedContext:    DefaultExpectedContext,
		ManifestDir:        "manifests",
		ChartDir:           "charts",
		DataplaneMode:      DataplaneSidecar,
	}
}

// LoadFile overlays settings from a YAML file onto cfg. Only fields present
// in the file are touched; behavior flags stay CLI-only.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	if file.IstioNamespace != "" {
		cfg.IstioNamespace = file.IstioNamespace
	}
	if file.PlatformNamespace != "" {
		cfg.PlatformNamespace = file.PlatformNamespace
	}
	if file.DashboardNamespace != "" {
		cfg.DashboardNamespace = file.DashboardNamespace
	}
	if file.MeshVersion != "" {
		cfg.MeshVersion = file.MeshVersion
	}
	if file.ExpectedContext != "" {
		cfg.ExpectedContext = file.ExpectedContext
	}
	if file.KubeconfigPath != "" {
		cfg.KubeconfigPath = file.KubeconfigPath
	}
	if file.Context != "" {
		cfg.Context = file.Context
	}
	if file.ManifestDir != "" {
		cfg.ManifestDir = file.ManifestDir
	}
	if file.ChartDir != "" {
		cfg.ChartDir = file.ChartDir
	}

	return nil
}

// Validate checks the configuration for values that can never work.
func (c *Config) Validate() error {
	switch c.DataplaneMode {
	case DataplaneSidecar, DataplaneAmbient, DataplaneNone:
	default:
		return fmt.Errorf("invalid dataplane mode %q: must be 'sidecar', 'ambient' or 'none'", c.DataplaneMode)
	}

	if c.IstioNamespace == "" {
		return fmt.Errorf("istio namespace is required")
	}
	if c.PlatformNamespace == "" {
		return fmt.Errorf("platform namespace is required")
	}
	if c.DashboardNamespace == "" {
		return fmt.Errorf("dashboard namespace is required")
	}
	if c.MeshVersion == "" {
		return fmt.Errorf("mesh version is required")
	}

	return nil
}
