// Package driver orchestrates converge and diverge runs. A run walks a fixed
// state machine: Init, Preflight, Plan, Reconcile, Verify, then Done or
// Aborted. The plan is derived once from configuration and each step is
// dispatched to the matching reconciler.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/imamik/meshlab/internal/config"
	"github.com/imamik/meshlab/internal/helm"
	"github.com/imamik/meshlab/internal/preflight"
	"github.com/imamik/meshlab/internal/reconcile"
)

// Phase identifies where in the state machine a run currently is, or where
// it ended.
type Phase string

const (
	PhaseInit      Phase = "init"
	PhasePreflight Phase = "preflight"
	PhasePlan      Phase = "plan"
	PhaseReconcile Phase = "reconcile"
	PhaseVerify    Phase = "verify"
	PhaseDone      Phase = "done"
	PhaseAborted   Phase = "aborted"
)

// ErrPreflightFailed is returned when the preflight gate reports a fatal
// check. No mutation has happened when this error is returned.
var ErrPreflightFailed = errors.New("preflight checks failed")

// StepResult records what a single plan step did.
type StepResult struct {
	Kind      reconcile.Kind
	Name      string
	Namespace string
	Optional  bool
	Action    reconcile.Action
	Detail    string
	Err       error
}

// VerifyItem is one read-only post-run observation.
type VerifyItem struct {
	Name   string
	OK     bool
	Detail string
}

// Report is the full account of a run, usable whether the run finished or
// aborted partway.
type Report struct {
	Phase     Phase
	Preflight *preflight.Result
	Steps     []StepResult
	Verify    []VerifyItem
}

// Failed reports whether any non-optional step failed.
func (r *Report) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil && !s.Optional {
			return true
		}
	}
	return false
}

// PreflightGate runs the ordered preflight checks.
type PreflightGate interface {
	Run(ctx context.Context, cfg *config.Config) *preflight.Result
}

// NamespaceReconciler converges namespace presence.
type NamespaceReconciler interface {
	Ensure(ctx context.Context, name string) reconcile.Outcome
	EnsureAbsent(ctx context.Context, name string) reconcile.Outcome
}

// ReleaseReconciler converges Helm release presence.
type ReleaseReconciler interface {
	Upgrade(ctx context.Context, name, namespace string, src helm.ChartSource, values map[string]interface{}) reconcile.Outcome
	UninstallIfPresent(ctx context.Context, name, namespace string) reconcile.Outcome
}

// LabelReconciler converges namespace enrollment labels.
type LabelReconciler interface {
	SetExclusive(ctx context.Context, namespace string, spec reconcile.LabelSpec) reconcile.Outcome
	Clear(ctx context.Context, namespace string, keys ...string) reconcile.Outcome
}

// ManifestReconciler applies and deletes manifest files.
type ManifestReconciler interface {
	ApplyFromFile(ctx context.Context, path string, required bool) reconcile.Outcome
	DeleteFromFile(ctx context.Context, path string) (reconcile.Outcome, bool)
}

// CRDReconciler installs and removes cluster-scoped CRD sets.
type CRDReconciler interface {
	EnsureInstalledFromURL(ctx context.Context, markerCRD, url string) reconcile.Outcome
	RemoveIfRequested(ctx context.Context, names []string) reconcile.Outcome
}

// FallbackDeleter removes well-known resources by name when the manifest
// that created them is no longer on disk.
type FallbackDeleter interface {
	DeleteKnown(ctx context.Context, targets []reconcile.FallbackTarget) reconcile.Outcome
}

// MeshProbe reads cluster state for the verify pass.
type MeshProbe interface {
	NamespaceExists(ctx context.Context, name string) (bool, error)
	HelmReleaseExists(name, namespace string) (bool, error)
	NamespaceLabel(ctx context.Context, name, key string) (string, error)
	InstalledVersion(ctx context.Context, istioNamespace string) (string, error)
	CrdInstalled(ctx context.Context, name string) (bool, error)
}

// Deps bundles everything a Driver needs. All fields are interfaces so tests
// can substitute fakes.
type Deps struct {
	Gate       PreflightGate
	Namespaces NamespaceReconciler
	Releases   ReleaseReconciler
	Labels     LabelReconciler
	Manifests  ManifestReconciler
	CRDs       CRDReconciler
	Fallback   FallbackDeleter
	Probe      MeshProbe
}

// Driver executes converge and diverge runs against a cluster.
type Driver struct {
	cfg  *config.Config
	deps Deps
}

func New(cfg *config.Config, deps Deps) *Driver {
	return &Driver{cfg: cfg, deps: deps}
}

// Converge brings the cluster to the configured mesh state. The returned
// report is populated even when an error cuts the run short.
func (d *Driver) Converge(ctx context.Context) (*Report, error) {
	report := &Report{Phase: PhaseInit}

	if err := d.runPreflight(ctx, report); err != nil {
		return report, err
	}

	report.Phase = PhasePlan
	plan := BuildConvergePlan(d.cfg)

	if err := d.runPlan(ctx, report, plan); err != nil {
		return report, err
	}

	report.Phase = PhaseVerify
	report.Verify = d.verifyConverge(ctx)

	report.Phase = PhaseDone
	return report, nil
}

// Diverge tears down the mesh installation. Optional steps that fail are
// recorded and skipped over; a failed required step aborts the run without
// attempting further steps.
func (d *Driver) Diverge(ctx context.Context) (*Report, error) {
	report := &Report{Phase: PhaseInit}

	if err := d.runPreflight(ctx, report); err != nil {
		return report, err
	}

	report.Phase = PhasePlan
	plan := BuildDivergePlan(d.cfg)

	if err := d.runPlan(ctx, report, plan); err != nil {
		return report, err
	}

	report.Phase = PhaseVerify
	report.Verify = d.verifyDiverge(ctx)

	report.Phase = PhaseDone
	return report, nil
}

func (d *Driver) runPreflight(ctx context.Context, report *Report) error {
	report.Phase = PhasePreflight
	result := d.deps.Gate.Run(ctx, d.cfg)
	report.Preflight = result
	if result.Fatal {
		report.Phase = PhaseAborted
		return ErrPreflightFailed
	}
	return nil
}

// runPlan executes a plan in order. A failed required step aborts the run;
// failed optional steps are recorded and skipped over.
func (d *Driver) runPlan(ctx context.Context, report *Report, plan []reconcile.ResourceSpec) error {
	report.Phase = PhaseReconcile
	for _, spec := range plan {
		step := d.apply(ctx, spec)
		report.Steps = append(report.Steps, step)
		if step.Err == nil {
			continue
		}
		if spec.Optional {
			log.Printf("Optional step %s %q failed, continuing: %v", spec.Kind, spec.Name, step.Err)
			continue
		}
		report.Phase = PhaseAborted
		return fmt.Errorf("%s %q: %w", spec.Kind, spec.Name, step.Err)
	}
	return nil
}

// apply dispatches one plan step to the reconciler that owns its kind.
func (d *Driver) apply(ctx context.Context, spec reconcile.ResourceSpec) StepResult {
	var out reconcile.Outcome

	switch spec.Kind {
	case reconcile.KindNamespace:
		if spec.Presence == reconcile.Present {
			out = d.deps.Namespaces.Ensure(ctx, spec.Name)
		} else {
			out = d.deps.Namespaces.EnsureAbsent(ctx, spec.Name)
		}
	case reconcile.KindHelmRelease:
		if spec.Presence == reconcile.Present {
			values, err := helm.MergeValuesFile(spec.Values, valuesOverridePath(d.cfg.ChartDir, spec.Name))
			if err != nil {
				out = reconcile.Outcome{Action: reconcile.ActionSkipped, Err: err}
				break
			}
			out = d.deps.Releases.Upgrade(ctx, spec.Name, spec.Namespace, *spec.Chart, values)
		} else {
			out = d.deps.Releases.UninstallIfPresent(ctx, spec.Name, spec.Namespace)
		}
	case reconcile.KindLabel:
		if spec.Presence == reconcile.Present {
			out = d.deps.Labels.SetExclusive(ctx, spec.Namespace, *spec.Label)
		} else {
			out = d.deps.Labels.Clear(ctx, spec.Namespace, spec.Label.Clear...)
		}
	case reconcile.KindManifest:
		if spec.Presence == reconcile.Present {
			out = d.deps.Manifests.ApplyFromFile(ctx, spec.ManifestPath, !spec.Optional)
		} else {
			var missing bool
			out, missing = d.deps.Manifests.DeleteFromFile(ctx, spec.ManifestPath)
			if missing && len(spec.Fallback) > 0 {
				out = d.deps.Fallback.DeleteKnown(ctx, spec.Fallback)
			}
		}
	case reconcile.KindCRDSet:
		if spec.Presence == reconcile.Present {
			out = d.deps.CRDs.EnsureInstalledFromURL(ctx, spec.MarkerCRD, spec.CRDSourceURL)
		} else {
			out = d.deps.CRDs.RemoveIfRequested(ctx, spec.CRDNames)
		}
	default:
		out = reconcile.Outcome{Err: fmt.Errorf("unknown resource kind %q", spec.Kind)}
	}

	return StepResult{
		Kind:      spec.Kind,
		Name:      spec.Name,
		Namespace: spec.Namespace,
		Optional:  spec.Optional,
		Action:    out.Action,
		Detail:    out.Detail,
		Err:       out.Err,
	}
}
