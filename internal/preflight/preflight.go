// Package preflight decides, before any mutation, whether a run may proceed.
//
// The gate always runs every check and reports the full picture in one pass,
// so an operator fixes everything at once instead of replaying runs check by
// check. Checks whose subject depends on an earlier failed check (the mesh
// version cannot be read from an unreachable cluster) are reported as
// skipped rather than attempted.
package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/imamik/meshlab/internal/config"
)

// Status classifies the outcome of a single check.
type Status string

const (
	// StatusPassed means the check succeeded.
	StatusPassed Status = "ok"
	// StatusWarning means the check found a problem the run can survive.
	StatusWarning Status = "warn"
	// StatusFailed means the check found a problem that aborts the run.
	StatusFailed Status = "fail"
	// StatusSkipped means the check was not applicable, usually because a
	// check it depends on already failed.
	StatusSkipped Status = "skip"
)

// Check is one preflight check result.
type Check struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Result aggregates all check results. Fatal means no reconciler may run.
type Result struct {
	Checks []Check `json:"checks"`
	Fatal  bool    `json:"fatal"`
}

// add records a check and escalates the aggregate on failure.
func (r *Result) add(name string, status Status, detail string) {
	r.Checks = append(r.Checks, Check{Name: name, Status: status, Detail: detail})
	if status == StatusFailed {
		r.Fatal = true
	}
}

// Cluster is the read-only cluster surface the gate needs.
type Cluster interface {
	ServerVersion(ctx context.Context) (string, error)
	CurrentContext() string
	HasDefaultStorageClass(ctx context.Context) (bool, error)
}

// VersionProbe reads the installed mesh version, "" when none.
type VersionProbe interface {
	InstalledVersion(ctx context.Context, istioNamespace string) (string, error)
}

// Gate runs the pre-mutation validation pass.
type Gate struct {
	Cluster Cluster
	Probe   VersionProbe

	// LookPath is swapped out in tests; nil means exec.LookPath.
	LookPath func(string) (string, error)
}

// Run executes all checks in order and returns the aggregate result. It
// never mutates cluster state.
func (g *Gate) Run(ctx context.Context, cfg *config.Config) *Result {
	lookPath := g.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	result := &Result{}

	g.checkTools(result, lookPath)
	reachable := g.checkReachable(ctx, result)
	g.checkIdentity(result, cfg)
	g.checkStorage(ctx, result, reachable)
	g.checkMeshVersion(ctx, result, cfg, reachable)
	g.checkDestructiveAck(result, cfg)

	return result
}

func (g *Gate) checkTools(result *Result, lookPath func(string) (string, error)) {
	for _, tool := range requiredTools() {
		path, err := lookPath(tool.Name)
		if err != nil {
			result.add("required tools", StatusFailed,
				fmt.Sprintf("%s not found in PATH; %s (install: %s)", tool.Name, tool.Description, tool.InstallURL))
			continue
		}

		detail := path
		if v := toolVersion(lookPath, tool.Name); v != "" {
			detail = fmt.Sprintf("%s (%s)", path, v)
		}
		result.add("required tools", StatusPassed, detail)
	}
}

func (g *Gate) checkReachable(ctx context.Context, result *Result) bool {
	version, err := g.Cluster.ServerVersion(ctx)
	if err != nil {
		result.add("cluster reachable", StatusFailed,
			fmt.Sprintf("%v; is the local cluster running?", err))
		return false
	}
	result.add("cluster reachable", StatusPassed, fmt.Sprintf("server version %s", version))
	return true
}

func (g *Gate) checkIdentity(result *Result, cfg *config.Config) {
	current := g.Cluster.CurrentContext()
	if current == cfg.ExpectedContext {
		result.add("cluster identity", StatusPassed, fmt.Sprintf("context %q", current))
		return
	}

	detail := fmt.Sprintf("active context %q does not match expected %q", current, cfg.ExpectedContext)
	if cfg.Force {
		result.add("cluster identity", StatusWarning, detail+" (overridden by --force)")
		return
	}
	result.add("cluster identity", StatusFailed, detail+"; pass --force to proceed anyway")
}

func (g *Gate) checkStorage(ctx context.Context, result *Result, reachable bool) {
	if !reachable {
		result.add("default storage class", StatusSkipped, "not applicable: cluster unreachable")
		return
	}

	ok, err := g.Cluster.HasDefaultStorageClass(ctx)
	if err != nil {
		result.add("default storage class", StatusWarning, fmt.Sprintf("could not determine: %v", err))
		return
	}
	if !ok {
		// Advisory only: the mesh itself needs no storage, but dashboards
		// and demo workloads often do.
		result.add("default storage class", StatusWarning, "no default storage provisioner found")
		return
	}
	result.add("default storage class", StatusPassed, "")
}

func (g *Gate) checkMeshVersion(ctx context.Context, result *Result, cfg *config.Config, reachable bool) {
	if !reachable {
		result.add("mesh version", StatusSkipped, "not applicable: cluster unreachable")
		return
	}

	installed, err := g.Probe.InstalledVersion(ctx, cfg.IstioNamespace)
	if err != nil {
		detail := fmt.Sprintf("could not determine installed version: %v", err)
		if cfg.Force {
			result.add("mesh version", StatusWarning, detail+" (overridden by --force)")
			return
		}
		result.add("mesh version", StatusFailed, detail)
		return
	}

	if installed == "" {
		result.add("mesh version", StatusPassed, "no existing installation")
		return
	}
	if installed == cfg.MeshVersion {
		result.add("mesh version", StatusPassed, fmt.Sprintf("installed %s matches pinned version", installed))
		return
	}

	detail := fmt.Sprintf("installed %s does not match pinned %s", installed, cfg.MeshVersion)
	if cfg.Force {
		result.add("mesh version", StatusWarning, detail+" (overridden by --force)")
		return
	}
	result.add("mesh version", StatusFailed, detail+"; pass --force to proceed anyway")
}

func (g *Gate) checkDestructiveAck(result *Result, cfg *config.Config) {
	var requested []string
	if cfg.DeleteNamespaces {
		requested = append(requested, "namespace deletion")
	}
	if cfg.RemoveClusterCRDs {
		requested = append(requested, "cluster-wide CRD removal")
	}

	if len(requested) == 0 {
		result.add("destructive acknowledgement", StatusPassed, "no destructive actions requested")
		return
	}

	if cfg.DeleteNamespaces && !cfg.AcknowledgeDestruct {
		result.add("destructive acknowledgement", StatusFailed,
			"namespace deletion requested without --yes-i-mean-it")
		return
	}

	result.add("destructive acknowledgement", StatusPassed,
		fmt.Sprintf("acknowledged: %s", strings.Join(requested, ", ")))
}
