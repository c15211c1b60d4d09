package reconcile

import (
	"context"
	"fmt"

	"github.com/imamik/meshlab/internal/helm"
)

// ReleaseReconciler converges Helm releases.
type ReleaseReconciler struct {
	Releases ReleaseFactory
}

// Upgrade converges the release onto the pinned chart and values. It always
// issues an upgrade-or-install, so it is safe whether or not the release
// exists. A failure here is fatal to the run: a broken control-plane
// component must not be silently skipped.
func (r *ReleaseReconciler) Upgrade(ctx context.Context, name, namespace string, src helm.ChartSource, values map[string]interface{}) Outcome {
	rel, err := r.Releases(namespace)
	if err != nil {
		return failure(err)
	}

	existed, err := rel.ReleaseExists(name)
	if err != nil {
		return failure(err)
	}

	if err := rel.InstallOrUpgrade(ctx, name, src, values); err != nil {
		return failure(err)
	}

	if existed {
		return outcome(ActionUpdated, fmt.Sprintf("release %s upgraded to %s", name, src.Version))
	}
	return outcome(ActionCreated, fmt.Sprintf("release %s installed at %s", name, src.Version))
}

// UninstallIfPresent removes the release if it exists. Absence is an
// informational no-op. An uninstall failing after the release was observed
// to exist indicates a genuine cluster problem and is surfaced as fatal
// rather than masked.
func (r *ReleaseReconciler) UninstallIfPresent(ctx context.Context, name, namespace string) Outcome {
	rel, err := r.Releases(namespace)
	if err != nil {
		return failure(err)
	}

	exists, err := rel.ReleaseExists(name)
	if err != nil {
		return failure(err)
	}
	if !exists {
		return outcome(ActionNoOp, fmt.Sprintf("release %s not installed", name))
	}

	if err := rel.Uninstall(name); err != nil {
		return failure(err)
	}
	return outcome(ActionDeleted, fmt.Sprintf("release %s uninstalled", name))
}
