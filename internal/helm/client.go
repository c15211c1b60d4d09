// Package helm drives Helm releases programmatically through the Helm SDK.
package helm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/storage/driver"
)

// Client performs release operations within a single namespace. The action
// configuration is namespace-bound, so callers hold one Client per target
// namespace.
type Client struct {
	settings     *cli.EnvSettings
	actionConfig *action.Configuration
	namespace    string
}

// NewClient creates a Client for the given namespace. kubeconfigPath and
// kubeContext override the default kubeconfig resolution; either may be
// empty.
func NewClient(kubeconfigPath, kubeContext, namespace string) (*Client, error) {
	settings := cli.New()
	if kubeconfigPath != "" {
		settings.KubeConfig = kubeconfigPath
	}
	if kubeContext != "" {
		settings.KubeContext = kubeContext
	}
	settings.SetNamespace(namespace)

	actionConfig := new(action.Configuration)
	// Suppress the SDK's debug chatter; release-level logging happens at the
	// reconciler layer.
	logFn := func(_ string, _ ...interface{}) {}
	if err := actionConfig.Init(settings.RESTClientGetter(), namespace, os.Getenv("HELM_DRIVER"), logFn); err != nil {
		return nil, fmt.Errorf("failed to initialize helm action config: %w", err)
	}

	return &Client{
		settings:     settings,
		actionConfig: actionConfig,
		namespace:    namespace,
	}, nil
}

// ReleaseExists reports whether the release has any history in this
// namespace. A missing release is the normal "absent" answer; any other
// error (storage or transport) is surfaced.
func (c *Client) ReleaseExists(name string) (bool, error) {
	histClient := action.NewHistory(c.actionConfig)
	histClient.Max = 1
	_, err := histClient.Run(name)
	if err != nil {
		if errors.Is(err, driver.ErrReleaseNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query release %s: %w", name, err)
	}
	return true, nil
}

// ReleaseChartRef returns the composite chart identifier of the latest
// revision, in the "<chartName>-<version>" form release listings use.
// Returns "" without error if the release does not exist.
func (c *Client) ReleaseChartRef(name string) (string, error) {
	histClient := action.NewHistory(c.actionConfig)
	histClient.Max = 1
	releases, err := histClient.Run(name)
	if err != nil {
		if errors.Is(err, driver.ErrReleaseNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to query release %s: %w", name, err)
	}
	if len(releases) == 0 || releases[0].Chart == nil || releases[0].Chart.Metadata == nil {
		return "", nil
	}

	meta := releases[0].Chart.Metadata
	return fmt.Sprintf("%s-%s", meta.Name, meta.Version), nil
}

// InstallOrUpgrade converges the release onto the given chart and values.
// It is safe whether or not the release exists: an existing release is
// upgraded, a missing one installed.
func (c *Client) InstallOrUpgrade(ctx context.Context, name string, src ChartSource, values map[string]interface{}) error {
	chart, origin, err := c.loadChart(src)
	if err != nil {
		return fmt.Errorf("failed to load chart %s: %w", src.Chart, err)
	}

	exists, err := c.ReleaseExists(name)
	if err != nil {
		return err
	}

	if exists {
		upgrade := action.NewUpgrade(c.actionConfig)
		upgrade.Namespace = c.namespace
		upgrade.Version = src.Version
		upgrade.Wait = true
		upgrade.Timeout = 10 * time.Minute
		upgrade.ReuseValues = false

		if _, err := upgrade.RunWithContext(ctx, name, chart, values); err != nil {
			return fmt.Errorf("helm upgrade of %s (%s) failed: %w", name, origin, err)
		}
		return nil
	}

	install := action.NewInstall(c.actionConfig)
	install.ReleaseName = name
	install.Namespace = c.namespace
	install.Version = src.Version
	install.Wait = true
	install.Timeout = 10 * time.Minute

	if _, err := install.RunWithContext(ctx, chart, values); err != nil {
		return fmt.Errorf("helm install of %s (%s) failed: %w", name, origin, err)
	}
	return nil
}

// Uninstall removes the release, waiting for resource deletion.
func (c *Client) Uninstall(name string) error {
	uninstall := action.NewUninstall(c.actionConfig)
	uninstall.Wait = true
	uninstall.Timeout = 5 * time.Minute

	if _, err := uninstall.Run(name); err != nil {
		return fmt.Errorf("helm uninstall of %s failed: %w", name, err)
	}
	return nil
}
