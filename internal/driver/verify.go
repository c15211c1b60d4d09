package driver

import (
	"context"
	"fmt"

	"github.com/imamik/meshlab/internal/config"
)

// The verify pass is strictly read-only. It re-probes the cluster after
// reconciliation and records what it sees; a failed observation never mutates
// anything and never aborts the run.

func (d *Driver) verifyConverge(ctx context.Context) []VerifyItem {
	var items []VerifyItem

	items = append(items, d.verifyNamespace(ctx, d.cfg.IstioNamespace, true))
	items = append(items, d.verifyNamespace(ctx, d.cfg.PlatformNamespace, true))
	items = append(items, d.verifyRelease(config.ReleaseIstioBase, d.cfg.IstioNamespace, true))
	items = append(items, d.verifyRelease(config.ReleaseIstiod, d.cfg.IstioNamespace, true))

	if d.cfg.DataplaneMode == config.DataplaneAmbient {
		items = append(items, d.verifyRelease(config.ReleaseIstioCNI, d.cfg.IstioNamespace, true))
		items = append(items, d.verifyRelease(config.ReleaseZtunnel, d.cfg.IstioNamespace, true))
	}
	if d.cfg.InstallIngressGateway {
		items = append(items, d.verifyRelease(config.ReleaseIngressGateway, d.cfg.IstioNamespace, true))
	}
	if d.cfg.InstallDashboard {
		items = append(items, d.verifyRelease(config.ReleaseKiali, d.cfg.DashboardNamespace, true))
	}

	items = append(items, d.verifyEnrollment(ctx))
	items = append(items, d.verifyVersion(ctx))
	return items
}

func (d *Driver) verifyDiverge(ctx context.Context) []VerifyItem {
	var items []VerifyItem

	for _, name := range []string{
		config.ReleaseKiali,
		config.ReleaseIngressGateway,
		config.ReleaseZtunnel,
		config.ReleaseIstioCNI,
		config.ReleaseIstiod,
		config.ReleaseIstioBase,
	} {
		namespace := d.cfg.IstioNamespace
		if name == config.ReleaseKiali {
			namespace = d.cfg.DashboardNamespace
		}
		items = append(items, d.verifyRelease(name, namespace, false))
	}

	if d.cfg.DeleteNamespaces {
		items = append(items, d.verifyNamespace(ctx, d.cfg.PlatformNamespace, false))
		items = append(items, d.verifyNamespace(ctx, d.cfg.IstioNamespace, false))
	} else {
		items = append(items, d.verifyEnrollmentCleared(ctx))
	}
	return items
}

func (d *Driver) verifyNamespace(ctx context.Context, name string, want bool) VerifyItem {
	item := VerifyItem{Name: fmt.Sprintf("namespace %s", name)}
	exists, err := d.deps.Probe.NamespaceExists(ctx, name)
	if err != nil {
		item.Detail = err.Error()
		return item
	}
	item.OK = exists == want
	switch {
	case exists:
		item.Detail = "present"
	case want:
		item.Detail = "missing"
	default:
		item.Detail = "absent"
	}
	return item
}

func (d *Driver) verifyRelease(name, namespace string, want bool) VerifyItem {
	item := VerifyItem{Name: fmt.Sprintf("release %s", name)}
	exists, err := d.deps.Probe.HelmReleaseExists(name, namespace)
	if err != nil {
		item.Detail = err.Error()
		return item
	}
	item.OK = exists == want
	switch {
	case exists && want:
		item.Detail = "installed"
	case exists:
		item.Detail = "still installed"
	case want:
		item.Detail = "not installed"
	default:
		item.Detail = "removed"
	}
	return item
}

func (d *Driver) verifyEnrollment(ctx context.Context) VerifyItem {
	item := VerifyItem{Name: fmt.Sprintf("dataplane enrollment %s", d.cfg.PlatformNamespace)}

	var key, want string
	switch d.cfg.DataplaneMode {
	case config.DataplaneSidecar:
		key, want = config.SidecarInjectionLabel, config.SidecarInjectionValue
	case config.DataplaneAmbient:
		key, want = config.AmbientDataplaneLabel, config.AmbientDataplaneValue
	default:
		return d.verifyEnrollmentCleared(ctx)
	}

	got, err := d.deps.Probe.NamespaceLabel(ctx, d.cfg.PlatformNamespace, key)
	if err != nil {
		item.Detail = err.Error()
		return item
	}
	item.OK = got == want
	if item.OK {
		item.Detail = fmt.Sprintf("%s=%s", key, got)
	} else {
		item.Detail = fmt.Sprintf("%s=%q, want %q", key, got, want)
	}
	return item
}

func (d *Driver) verifyEnrollmentCleared(ctx context.Context) VerifyItem {
	item := VerifyItem{Name: fmt.Sprintf("dataplane enrollment %s", d.cfg.PlatformNamespace)}
	for _, key := range []string{config.SidecarInjectionLabel, config.AmbientDataplaneLabel} {
		got, err := d.deps.Probe.NamespaceLabel(ctx, d.cfg.PlatformNamespace, key)
		if err != nil {
			item.Detail = err.Error()
			return item
		}
		if got != "" {
			item.Detail = fmt.Sprintf("%s=%s still set", key, got)
			return item
		}
	}
	item.OK = true
	item.Detail = "no enrollment labels"
	return item
}

func (d *Driver) verifyVersion(ctx context.Context) VerifyItem {
	item := VerifyItem{Name: "mesh version"}
	got, err := d.deps.Probe.InstalledVersion(ctx, d.cfg.IstioNamespace)
	if err != nil {
		item.Detail = err.Error()
		return item
	}
	item.OK = got == d.cfg.MeshVersion
	if item.OK {
		item.Detail = got
	} else {
		item.Detail = fmt.Sprintf("installed %q, want %q", got, d.cfg.MeshVersion)
	}
	return item
}
