package kubectl

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureExec replaces execCommand with a stub that records the invocation
// and runs "true" instead of kubectl.
func captureExec(t *testing.T) *[][]string {
	t.Helper()

	var calls [][]string
	original := execCommand
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		call := append([]string{name}, args...)
		calls = append(calls, call)
		return exec.CommandContext(ctx, "true")
	}
	t.Cleanup(func() { execCommand = original })
	return &calls
}

func TestApply_Args(t *testing.T) {
	calls := captureExec(t)
	r := &Runner{}

	_, err := r.Apply(context.Background(), "manifests/zero-trust/baseline.yaml")
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	assert.Equal(t, []string{
		"kubectl", "apply", "--server-side", "--force-conflicts", "-f", "manifests/zero-trust/baseline.yaml",
	}, (*calls)[0])
}

func TestApply_KubeconfigAndContext(t *testing.T) {
	calls := captureExec(t)
	r := &Runner{KubeconfigPath: "/tmp/kubeconfig", Context: "docker-desktop"}

	_, err := r.Apply(context.Background(), "policy.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"kubectl", "--kubeconfig", "/tmp/kubeconfig", "--context", "docker-desktop",
		"apply", "--server-side", "--force-conflicts", "-f", "policy.yaml",
	}, (*calls)[0])
}

func TestDelete_IgnoreMissing(t *testing.T) {
	calls := captureExec(t)
	r := &Runner{}

	_, err := r.Delete(context.Background(), "policy.yaml", true)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"kubectl", "delete", "-f", "policy.yaml", "--ignore-not-found",
	}, (*calls)[0])
}

func TestDelete_StrictMode(t *testing.T) {
	calls := captureExec(t)
	r := &Runner{}

	_, err := r.Delete(context.Background(), "policy.yaml", false)
	require.NoError(t, err)

	assert.NotContains(t, (*calls)[0], "--ignore-not-found")
}

func TestRun_CommandFailure(t *testing.T) {
	original := execCommand
	execCommand = func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "false")
	}
	t.Cleanup(func() { execCommand = original })

	r := &Runner{}
	_, err := r.Apply(context.Background(), "policy.yaml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kubectl apply failed")
}
