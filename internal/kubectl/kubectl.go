// Package kubectl shells out to kubectl for manifest file operations.
//
// Manifest files are applied through the kubectl binary rather than the API
// client so that operators can replay the exact same commands by hand, and
// so that apply semantics (server-side apply, pruning of list documents)
// match what the CLI would do.
package kubectl

import (
	"context"
	"fmt"
	"os/exec"
)

// execCommand is swapped out in tests.
var execCommand = exec.CommandContext

// Runner invokes kubectl against a fixed kubeconfig and context.
type Runner struct {
	// KubeconfigPath overrides the default kubeconfig. Empty uses kubectl's
	// own resolution.
	KubeconfigPath string

	// Context overrides the kubeconfig current-context.
	Context string
}

// Apply runs "kubectl apply --server-side -f path" and returns the combined
// output. Server-side apply keeps repeated applies idempotent.
func (r *Runner) Apply(ctx context.Context, path string) (string, error) {
	args := r.args("apply", "--server-side", "--force-conflicts", "-f", path)
	return r.run(ctx, "apply", args)
}

// Delete runs "kubectl delete -f path". With ignoreMissing, resources that
// are already gone are not an error.
func (r *Runner) Delete(ctx context.Context, path string, ignoreMissing bool) (string, error) {
	args := r.args("delete", "-f", path)
	if ignoreMissing {
		args = append(args, "--ignore-not-found")
	}
	return r.run(ctx, "delete", args)
}

func (r *Runner) args(verb string, rest ...string) []string {
	var args []string
	if r.KubeconfigPath != "" {
		args = append(args, "--kubeconfig", r.KubeconfigPath)
	}
	if r.Context != "" {
		args = append(args, "--context", r.Context)
	}
	args = append(args, verb)
	return append(args, rest...)
}

func (r *Runner) run(ctx context.Context, verb string, args []string) (string, error) {
	// #nosec G204 - arguments come from internal config, not user input
	cmd := execCommand(ctx, "kubectl", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("kubectl %s failed: %w", verb, err)
	}
	return string(output), nil
}
