// Package probe answers existence and version questions about live cluster
// state without mutating it.
//
// Every answer is computed fresh against the cluster; nothing is cached
// between calls, because external actors may change state between them.
// "Does not exist" is always a normal answer, never an error; errors signal
// that the question itself could not be asked (cluster unreachable, storage
// broken) and are surfaced distinctly.
package probe

import (
	"context"
	"fmt"
)

// ClusterAPI is the read-only cluster surface the probe queries.
type ClusterAPI interface {
	NamespaceExists(ctx context.Context, name string) (bool, error)
	NamespaceLabel(ctx context.Context, name, key string) (string, error)
	DeploymentLabel(ctx context.Context, namespace, name, key string) (string, error)
	HasCRD(ctx context.Context, name string) (bool, error)
}

// ReleaseAPI is the read-only release surface, bound to one namespace.
type ReleaseAPI interface {
	ReleaseExists(name string) (bool, error)
	ReleaseChartRef(name string) (string, error)
}

// ReleaseFactory yields a ReleaseAPI for a namespace.
type ReleaseFactory func(namespace string) (ReleaseAPI, error)

// istiodDeployment is the workload whose version label is the primary
// installed-version signal.
const (
	istiodDeployment = "istiod"
	versionLabel     = "app.kubernetes.io/version"
)

// Probe implements the external state queries.
type Probe struct {
	Cluster  ClusterAPI
	Releases ReleaseFactory
}

// New returns a Probe over the given cluster and release clients.
func New(cluster ClusterAPI, releases ReleaseFactory) *Probe {
	return &Probe{Cluster: cluster, Releases: releases}
}

// NamespaceExists reports whether the namespace exists.
func (p *Probe) NamespaceExists(ctx context.Context, name string) (bool, error) {
	return p.Cluster.NamespaceExists(ctx, name)
}

// HelmReleaseExists reports whether the release exists in the namespace.
func (p *Probe) HelmReleaseExists(name, namespace string) (bool, error) {
	rel, err := p.Releases(namespace)
	if err != nil {
		return false, fmt.Errorf("failed to create release client for %s: %w", namespace, err)
	}
	return rel.ReleaseExists(name)
}

// CrdInstalled reports whether the named CRD exists cluster-wide.
func (p *Probe) CrdInstalled(ctx context.Context, name string) (bool, error) {
	return p.Cluster.HasCRD(ctx, name)
}

// NamespaceLabel returns the value of a label on the namespace, "" when the
// label or the namespace is absent.
func (p *Probe) NamespaceLabel(ctx context.Context, name, key string) (string, error) {
	return p.Cluster.NamespaceLabel(ctx, name, key)
}

// InstalledVersion determines the installed control-plane version. The
// version label on the control-plane workload is the primary signal; on a
// partially-initialized cluster that workload may be missing while the
// release metadata still carries the version, so release chart metadata is
// the fallback. Returns "" when neither signal is available.
func (p *Probe) InstalledVersion(ctx context.Context, istioNamespace string) (string, error) {
	version, err := p.Cluster.DeploymentLabel(ctx, istioNamespace, istiodDeployment, versionLabel)
	if err != nil {
		return "", err
	}
	if version != "" {
		return version, nil
	}

	rel, err := p.Releases(istioNamespace)
	if err != nil {
		return "", fmt.Errorf("failed to create release client for %s: %w", istioNamespace, err)
	}
	ref, err := rel.ReleaseChartRef(istiodDeployment)
	if err != nil {
		return "", err
	}

	if v, ok := ParseChartRef(ref); ok {
		return v, nil
	}
	return "", nil
}
