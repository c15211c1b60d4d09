package reconcile

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ManifestReconciler applies and deletes manifest files through kubectl.
type ManifestReconciler struct {
	Runner ManifestRunner
}

// ApplyFromFile applies the manifest at path. For required manifests a
// missing file is fatal: the network policies are core safety policies, not
// optional extras. Optional manifests (waypoint, egress) are skipped with a
// warning when absent.
func (r *ManifestReconciler) ApplyFromFile(ctx context.Context, path string, required bool) Outcome {
	if _, err := os.Stat(path); err != nil {
		if required {
			return failure(fmt.Errorf("required manifest %s is missing: %w", path, err))
		}
		return outcome(ActionSkipped, fmt.Sprintf("manifest %s absent", path))
	}

	output, err := r.Runner.Apply(ctx, path)
	if err != nil {
		return failure(fmt.Errorf("%w\noutput: %s", err, strings.TrimSpace(output)))
	}
	return outcome(ActionUpdated, fmt.Sprintf("applied %s", path))
}

// DeleteFromFile deletes the resources in the manifest at path, tolerating
// resources that are already gone. The second return value reports that the
// file itself was missing; the caller then falls back to deletion by
// well-known resource names, so teardown stays useful from a checkout that
// has lost its manifest tree.
func (r *ManifestReconciler) DeleteFromFile(ctx context.Context, path string) (Outcome, bool) {
	if _, err := os.Stat(path); err != nil {
		return outcome(ActionSkipped, fmt.Sprintf("manifest %s absent, falling back to named deletion", path)), true
	}

	output, err := r.Runner.Delete(ctx, path, true)
	if err != nil {
		return failure(fmt.Errorf("%w\noutput: %s", err, strings.TrimSpace(output))), false
	}
	return outcome(ActionDeleted, fmt.Sprintf("deleted resources from %s", path)), false
}
