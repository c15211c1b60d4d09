package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/meshlab/internal/config"
	"github.com/imamik/meshlab/internal/helm"
	"github.com/imamik/meshlab/internal/preflight"
	"github.com/imamik/meshlab/internal/reconcile"
)

// recorder implements every Deps interface and records each mutation in
// order, so tests can assert on exactly what a run did.
type recorder struct {
	calls []string

	preflightFatal bool

	// failOn maps a call signature to the error it should produce.
	failOn map[string]error
}

func newRecorder() *recorder {
	return &recorder{failOn: map[string]error{}}
}

func (r *recorder) record(call string) reconcile.Outcome {
	r.calls = append(r.calls, call)
	if err, ok := r.failOn[call]; ok {
		return reconcile.Outcome{Action: reconcile.ActionSkipped, Err: err}
	}
	return reconcile.Outcome{Action: reconcile.ActionCreated}
}

func (r *recorder) Run(context.Context, *config.Config) *preflight.Result {
	r.calls = append(r.calls, "preflight")
	return &preflight.Result{Fatal: r.preflightFatal}
}

func (r *recorder) Ensure(_ context.Context, name string) reconcile.Outcome {
	return r.record("ensure-ns:" + name)
}

func (r *recorder) EnsureAbsent(_ context.Context, name string) reconcile.Outcome {
	return r.record("delete-ns:" + name)
}

func (r *recorder) Upgrade(_ context.Context, name, _ string, _ helm.ChartSource, _ map[string]interface{}) reconcile.Outcome {
	return r.record("upgrade:" + name)
}

func (r *recorder) UninstallIfPresent(_ context.Context, name, _ string) reconcile.Outcome {
	return r.record("uninstall:" + name)
}

func (r *recorder) SetExclusive(_ context.Context, namespace string, _ reconcile.LabelSpec) reconcile.Outcome {
	return r.record("label:" + namespace)
}

func (r *recorder) Clear(_ context.Context, namespace string, _ ...string) reconcile.Outcome {
	return r.record("clear-label:" + namespace)
}

func (r *recorder) ApplyFromFile(_ context.Context, path string, _ bool) reconcile.Outcome {
	return r.record("apply:" + path)
}

func (r *recorder) DeleteFromFile(_ context.Context, path string) (reconcile.Outcome, bool) {
	out := r.record("delete:" + path)
	return out, false
}

func (r *recorder) EnsureInstalledFromURL(_ context.Context, markerCRD, _ string) reconcile.Outcome {
	return r.record("install-crds:" + markerCRD)
}

func (r *recorder) RemoveIfRequested(_ context.Context, _ []string) reconcile.Outcome {
	return r.record("remove-crds")
}

func (r *recorder) DeleteKnown(_ context.Context, targets []reconcile.FallbackTarget) reconcile.Outcome {
	return r.record("fallback")
}

// Read-only probe side; verify calls are not mutations and are not recorded.
func (r *recorder) NamespaceExists(context.Context, string) (bool, error) { return true, nil }
func (r *recorder) HelmReleaseExists(string, string) (bool, error)        { return true, nil }
func (r *recorder) NamespaceLabel(context.Context, string, string) (string, error) {
	return "", nil
}
func (r *recorder) InstalledVersion(context.Context, string) (string, error) { return "", nil }
func (r *recorder) CrdInstalled(context.Context, string) (bool, error)       { return true, nil }

func driverWith(cfg *config.Config, rec *recorder) *Driver {
	return New(cfg, Deps{
		Gate:       rec,
		Namespaces: rec,
		Releases:   rec,
		Labels:     rec,
		Manifests:  rec,
		CRDs:       rec,
		Fallback:   rec,
		Probe:      rec,
	})
}

func mutations(rec *recorder) []string {
	var out []string
	for _, c := range rec.calls {
		if c != "preflight" {
			out = append(out, c)
		}
	}
	return out
}

func TestConverge_SidecarHappyPath(t *testing.T) {
	rec := newRecorder()
	drv := driverWith(config.Default(), rec)

	report, err := drv.Converge(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, report.Phase)
	assert.False(t, report.Failed())
	assert.NotEmpty(t, report.Verify)

	assert.Equal(t, []string{
		"install-crds:" + config.GatewayAPIMarkerCRD,
		"ensure-ns:istio-system",
		"ensure-ns:apps",
		"upgrade:istio-base",
		"upgrade:istiod",
		"label:apps",
		"apply:manifests/zero-trust/baseline.yaml",
	}, mutations(rec))
}

func TestConverge_PreflightFatalMakesNoMutations(t *testing.T) {
	rec := newRecorder()
	rec.preflightFatal = true
	drv := driverWith(config.Default(), rec)

	report, err := drv.Converge(context.Background())

	require.ErrorIs(t, err, ErrPreflightFailed)
	assert.Equal(t, PhaseAborted, report.Phase)
	assert.Empty(t, mutations(rec))
	assert.Empty(t, report.Steps)
}

func TestConverge_RequiredFailureAborts(t *testing.T) {
	rec := newRecorder()
	rec.failOn["upgrade:istiod"] = errors.New("chart not found")
	drv := driverWith(config.Default(), rec)

	report, err := drv.Converge(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "istiod")
	assert.Equal(t, PhaseAborted, report.Phase)

	// Nothing after the failed step ran.
	last := mutations(rec)[len(mutations(rec))-1]
	assert.Equal(t, "upgrade:istiod", last)
	assert.Empty(t, report.Verify)
}

func TestConverge_OptionalFailureContinues(t *testing.T) {
	cfg := config.Default()
	cfg.InstallDashboard = true

	rec := newRecorder()
	rec.failOn["upgrade:kiali-server"] = errors.New("registry unreachable")
	drv := driverWith(cfg, rec)

	report, err := drv.Converge(context.Background())

	require.NoError(t, err)
	assert.Equal(t, PhaseDone, report.Phase)
	assert.False(t, report.Failed())

	// The enrollment label step still ran after the dashboard failed.
	assert.Contains(t, rec.calls, "label:apps")

	var kiali *StepResult
	for i := range report.Steps {
		if report.Steps[i].Name == config.ReleaseKiali {
			kiali = &report.Steps[i]
		}
	}
	require.NotNil(t, kiali)
	assert.Error(t, kiali.Err)
	assert.True(t, kiali.Optional)
}

func TestConverge_AmbientFreshCluster(t *testing.T) {
	cfg := config.Default()
	cfg.DataplaneMode = config.DataplaneAmbient

	rec := newRecorder()
	drv := driverWith(cfg, rec)

	report, err := drv.Converge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, report.Phase)

	calls := mutations(rec)
	assert.Contains(t, calls, "upgrade:istio-cni")
	assert.Contains(t, calls, "upgrade:ztunnel")
	assert.Contains(t, calls, "apply:manifests/waypoint/waypoint.yaml")
}

func TestDiverge_DefaultKeepsNamespaces(t *testing.T) {
	rec := newRecorder()
	drv := driverWith(config.Default(), rec)

	report, err := drv.Diverge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, report.Phase)

	for _, call := range rec.calls {
		assert.NotContains(t, call, "delete-ns:")
		assert.NotEqual(t, "remove-crds", call)
	}
	assert.Contains(t, rec.calls, "uninstall:istiod")
	assert.Contains(t, rec.calls, "clear-label:apps")
}

func TestDiverge_AbortsOnRequiredFailure(t *testing.T) {
	rec := newRecorder()
	rec.failOn["uninstall:istiod"] = errors.New("release stuck")
	drv := driverWith(config.Default(), rec)

	report, err := drv.Diverge(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "istiod")
	assert.Equal(t, PhaseAborted, report.Phase)

	// A stuck control-plane release stops teardown on the spot.
	assert.NotContains(t, rec.calls, "uninstall:istio-base")
	assert.NotContains(t, rec.calls, "clear-label:apps")
	assert.Equal(t, "uninstall:istiod", rec.calls[len(rec.calls)-1])
}

func TestDiverge_OptionalFailureContinues(t *testing.T) {
	rec := newRecorder()
	rec.failOn["uninstall:kiali-server"] = errors.New("release stuck")
	drv := driverWith(config.Default(), rec)

	report, err := drv.Diverge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, report.Phase)
	assert.Contains(t, rec.calls, "uninstall:istiod")
	assert.Contains(t, rec.calls, "clear-label:apps")
}

func TestDiverge_FullTeardown(t *testing.T) {
	cfg := config.Default()
	cfg.DeleteNamespaces = true
	cfg.AcknowledgeDestruct = true
	cfg.RemoveClusterCRDs = true

	rec := newRecorder()
	drv := driverWith(cfg, rec)

	report, err := drv.Diverge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, report.Phase)

	calls := mutations(rec)
	assert.Contains(t, calls, "delete-ns:apps")
	assert.Contains(t, calls, "delete-ns:istio-system")

	// CRD removal is the very last mutation.
	assert.Equal(t, "remove-crds", calls[len(calls)-1])
}

func TestDiverge_PreflightGatesUnacknowledgedDeletion(t *testing.T) {
	cfg := config.Default()
	cfg.DeleteNamespaces = true

	rec := newRecorder()
	rec.preflightFatal = true
	drv := driverWith(cfg, rec)

	_, err := drv.Diverge(context.Background())

	require.ErrorIs(t, err, ErrPreflightFailed)
	assert.Empty(t, mutations(rec))
}
