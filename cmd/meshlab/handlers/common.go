// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic and
// can be tested independently of the CLI framework.
package handlers

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/imamik/meshlab/internal/config"
	"github.com/imamik/meshlab/internal/driver"
	"github.com/imamik/meshlab/internal/helm"
	"github.com/imamik/meshlab/internal/k8s"
	"github.com/imamik/meshlab/internal/kubectl"
	"github.com/imamik/meshlab/internal/preflight"
	"github.com/imamik/meshlab/internal/probe"
	"github.com/imamik/meshlab/internal/reconcile"
)

// defaultConfigFile is picked up from the working directory when no --config
// flag is given.
const defaultConfigFile = "meshlab.yaml"

// Options carries the resolved CLI flags into a handler. String fields left
// empty mean "not set" and do not override the config file or defaults.
type Options struct {
	ConfigPath         string
	Kubeconfig         string
	Context            string
	IstioNamespace     string
	PlatformNamespace  string
	DashboardNamespace string
	MeshVersion        string
	ManifestDir        string
	ChartDir           string
	DataplaneMode      string

	Force               bool
	IngressGateway      bool
	Dashboard           bool
	AllowInternetEgress bool
	DeleteNamespaces    bool
	AcknowledgeDestruct bool
	RemoveClusterCRDs   bool
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// newClusterClient builds the typed and dynamic Kubernetes clients.
	newClusterClient = func(cfg *config.Config) (*k8s.Client, error) {
		return k8s.NewClient(cfg.KubeconfigPath, cfg.Context)
	}

	// newReleaseClient builds a Helm client bound to a namespace.
	newReleaseClient = func(cfg *config.Config, namespace string) (*helm.Client, error) {
		return helm.NewClient(cfg.KubeconfigPath, cfg.Context, namespace)
	}

	// loadConfigFile loads config from file (for testing injection).
	loadConfigFile = config.LoadFile

	// statFile checks for the default config file (for testing injection).
	statFile = os.Stat
)

// resolveConfig layers defaults, the optional config file, and flag
// overrides into a validated Config.
func resolveConfig(opts Options) (*config.Config, error) {
	cfg := config.Default()

	path := opts.ConfigPath
	if path == "" {
		if _, err := statFile(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyStringOverrides(cfg, opts)

	if opts.DataplaneMode != "" {
		mode, err := parseDataplaneMode(opts.DataplaneMode)
		if err != nil {
			return nil, err
		}
		cfg.DataplaneMode = mode
	}

	cfg.Force = opts.Force
	cfg.InstallIngressGateway = opts.IngressGateway
	cfg.InstallDashboard = opts.Dashboard
	cfg.AllowInternetEgress = opts.AllowInternetEgress
	cfg.DeleteNamespaces = opts.DeleteNamespaces
	cfg.AcknowledgeDestruct = opts.AcknowledgeDestruct
	cfg.RemoveClusterCRDs = opts.RemoveClusterCRDs

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyStringOverrides(cfg *config.Config, opts Options) {
	if opts.Kubeconfig != "" {
		cfg.KubeconfigPath = opts.Kubeconfig
	}
	if opts.Context != "" {
		cfg.Context = opts.Context
	}
	if opts.IstioNamespace != "" {
		cfg.IstioNamespace = opts.IstioNamespace
	}
	if opts.PlatformNamespace != "" {
		cfg.PlatformNamespace = opts.PlatformNamespace
	}
	if opts.DashboardNamespace != "" {
		cfg.DashboardNamespace = opts.DashboardNamespace
	}
	if opts.MeshVersion != "" {
		cfg.MeshVersion = opts.MeshVersion
	}
	if opts.ManifestDir != "" {
		cfg.ManifestDir = opts.ManifestDir
	}
	if opts.ChartDir != "" {
		cfg.ChartDir = opts.ChartDir
	}
}

func parseDataplaneMode(s string) (config.DataplaneMode, error) {
	switch config.DataplaneMode(s) {
	case config.DataplaneSidecar, config.DataplaneAmbient, config.DataplaneNone:
		return config.DataplaneMode(s), nil
	}
	return "", fmt.Errorf("invalid dataplane mode %q (want sidecar, ambient, or none)", s)
}

// buildDriver wires the live clients into a ready-to-run Driver.
func buildDriver(cfg *config.Config) (*driver.Driver, error) {
	cluster, err := newClusterClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster client: %w", err)
	}

	stateProbe := probe.New(cluster, func(namespace string) (probe.ReleaseAPI, error) {
		return newReleaseClient(cfg, namespace)
	})

	runner := &kubectl.Runner{
		KubeconfigPath: cfg.KubeconfigPath,
		Context:        cfg.Context,
	}

	deps := driver.Deps{
		Gate: &preflight.Gate{Cluster: cluster, Probe: stateProbe},
		Namespaces: &reconcile.NamespaceReconciler{
			API:           cluster,
			DeleteTimeout: reconcile.DefaultNamespaceDeleteTimeout,
		},
		Releases: &reconcile.ReleaseReconciler{
			Releases: func(namespace string) (reconcile.ReleaseAPI, error) {
				return newReleaseClient(cfg, namespace)
			},
		},
		Labels:    &reconcile.LabelReconciler{API: cluster},
		Manifests: &reconcile.ManifestReconciler{Runner: runner},
		CRDs:      &reconcile.CRDSetReconciler{API: cluster},
		Fallback:  &reconcile.FallbackReconciler{API: cluster},
		Probe:     stateProbe,
	}

	return driver.New(cfg, deps), nil
}

func isInteractiveTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func printHeader(title string) {
	fmt.Println()
	fmt.Printf("  %s\n", title)
	fmt.Println("  " + strings.Repeat("═", len(title)))
	fmt.Println()
}

func checkIndicator(status preflight.Status) string {
	if !isInteractiveTTY() {
		return fmt.Sprintf("[%s]", status)
	}
	switch status {
	case preflight.StatusPassed:
		return "✅" // green check
	case preflight.StatusWarning:
		return "⚠️" // warning sign
	case preflight.StatusFailed:
		return "❌" // red X
	default:
		return "➖" // skipped
	}
}

func printRow(name string, ok bool, extra string) {
	indicator := "✅"
	if !ok {
		indicator = "❌"
	}
	if !isInteractiveTTY() {
		indicator = "[ok]"
		if !ok {
			indicator = "[fail]"
		}
	}

	if extra != "" {
		fmt.Printf("  %s  %-28s %s\n", indicator, name, extra)
	} else {
		fmt.Printf("  %s  %s\n", indicator, name)
	}
}

func printPreflight(result *preflight.Result) {
	printHeader("Preflight")
	for _, check := range result.Checks {
		if check.Detail != "" {
			fmt.Printf("  %s  %-28s %s\n", checkIndicator(check.Status), check.Name, check.Detail)
		} else {
			fmt.Printf("  %s  %s\n", checkIndicator(check.Status), check.Name)
		}
	}
}

func printReport(report *driver.Report) {
	if report.Preflight != nil {
		printPreflight(report.Preflight)
	}

	if len(report.Steps) > 0 {
		printHeader("Reconcile")
		for _, step := range report.Steps {
			name := string(step.Kind) + " " + step.Name
			detail := string(step.Action)
			if step.Detail != "" {
				detail += ": " + step.Detail
			}
			if step.Err != nil {
				detail = step.Err.Error()
			}
			printRow(name, step.Err == nil, detail)
		}
	}

	if len(report.Verify) > 0 {
		printHeader("Verify")
		for _, item := range report.Verify {
			printRow(item.Name, item.OK, item.Detail)
		}
	}
	fmt.Println()
}
