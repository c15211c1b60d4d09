package driver

import (
	"fmt"
	"path/filepath"

	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/imamik/meshlab/internal/config"
	"github.com/imamik/meshlab/internal/helm"
	"github.com/imamik/meshlab/internal/reconcile"
)

// gatewayGVR addresses Gateway API Gateway objects for best-effort deletion.
var gatewayGVR = schema.GroupVersionResource{
	Group:    "gateway.networking.k8s.io",
	Version:  "v1",
	Resource: "gateways",
}

// gatewayAPIManifestURL builds the upstream release URL for the Gateway API
// CRD manifest.
func gatewayAPIManifestURL() string {
	return fmt.Sprintf(
		"https://github.com/kubernetes-sigs/gateway-api/releases/download/%s/%s-install.yaml",
		config.GatewayAPIVersion,
		config.GatewayAPIReleaseChannel,
	)
}

func istioChart(cfg *config.Config, chartName string) *helm.ChartSource {
	return &helm.ChartSource{
		RepoURL:  config.IstioChartRepo,
		Chart:    chartName,
		Version:  cfg.MeshVersion,
		LocalDir: cfg.ChartDir,
	}
}

// valuesOverridePath is where operators drop per-release Helm values
// overrides, next to the vendored chart archives.
func valuesOverridePath(chartDir, release string) string {
	return filepath.Join(chartDir, "values", release+".yaml")
}

func kialiChart(cfg *config.Config) *helm.ChartSource {
	return &helm.ChartSource{
		RepoURL:  config.KialiChartRepo,
		Chart:    config.ReleaseKiali,
		Version:  config.DefaultKialiVersion,
		LocalDir: cfg.ChartDir,
	}
}

// Manifest file locations under the manifest dir.
func zeroTrustManifest(cfg *config.Config) string {
	return filepath.Join(cfg.ManifestDir, "zero-trust", "baseline.yaml")
}

func egressManifest(cfg *config.Config) string {
	return filepath.Join(cfg.ManifestDir, "egress", "allow-internet-egress.yaml")
}

func waypointManifest(cfg *config.Config) string {
	return filepath.Join(cfg.ManifestDir, "waypoint", "waypoint.yaml")
}

// zeroTrustFallback lists the network policies the zero-trust manifest is
// known to create, for name-based teardown when the file is gone.
func zeroTrustFallback(cfg *config.Config) []reconcile.FallbackTarget {
	return []reconcile.FallbackTarget{
		{Namespace: cfg.PlatformNamespace, Name: "default-deny-all"},
		{Namespace: cfg.PlatformNamespace, Name: "allow-dns"},
		{Namespace: cfg.PlatformNamespace, Name: "allow-istio-control-plane"},
	}
}

func egressFallback(cfg *config.Config) []reconcile.FallbackTarget {
	return []reconcile.FallbackTarget{
		{Namespace: cfg.PlatformNamespace, Name: "allow-internet-egress"},
	}
}

func waypointFallback(cfg *config.Config) []reconcile.FallbackTarget {
	return []reconcile.FallbackTarget{
		{GVR: gatewayGVR, Namespace: cfg.PlatformNamespace, Name: "waypoint"},
	}
}

// enrollmentLabel returns the label spec for the requested dataplane mode.
// Enrollment is mutually exclusive, so each mode clears the other mode's
// label in the same step; mode "none" clears both.
func enrollmentLabel(mode config.DataplaneMode) reconcile.LabelSpec {
	switch mode {
	case config.DataplaneSidecar:
		return reconcile.LabelSpec{
			Key:   config.SidecarInjectionLabel,
			Value: config.SidecarInjectionValue,
			Clear: []string{config.AmbientDataplaneLabel},
		}
	case config.DataplaneAmbient:
		return reconcile.LabelSpec{
			Key:   config.AmbientDataplaneLabel,
			Value: config.AmbientDataplaneValue,
			Clear: []string{config.SidecarInjectionLabel},
		}
	default:
		return reconcile.LabelSpec{
			Clear: []string{config.SidecarInjectionLabel, config.AmbientDataplaneLabel},
		}
	}
}

// BuildConvergePlan derives the ordered bootstrap plan for the run. The
// order creates producers before consumers: CRDs and namespaces first, then
// the control plane, then dataplane components, then enrollment and policy.
// The plan is built once per run and immutable thereafter.
func BuildConvergePlan(cfg *config.Config) []reconcile.ResourceSpec {
	ambient := cfg.DataplaneMode == config.DataplaneAmbient

	plan := []reconcile.ResourceSpec{
		{
			Kind:         reconcile.KindCRDSet,
			Name:         "gateway-api",
			Presence:     reconcile.Present,
			CRDSourceURL: gatewayAPIManifestURL(),
			MarkerCRD:    config.GatewayAPIMarkerCRD,
		},
		{
			Kind:     reconcile.KindNamespace,
			Name:     cfg.IstioNamespace,
			Presence: reconcile.Present,
		},
		{
			Kind:     reconcile.KindNamespace,
			Name:     cfg.PlatformNamespace,
			Presence: reconcile.Present,
		},
	}

	if cfg.InstallDashboard && cfg.DashboardNamespace != cfg.IstioNamespace && cfg.DashboardNamespace != cfg.PlatformNamespace {
		plan = append(plan, reconcile.ResourceSpec{
			Kind:     reconcile.KindNamespace,
			Name:     cfg.DashboardNamespace,
			Presence: reconcile.Present,
		})
	}

	plan = append(plan,
		reconcile.ResourceSpec{
			Kind:      reconcile.KindHelmRelease,
			Name:      config.ReleaseIstioBase,
			Namespace: cfg.IstioNamespace,
			Presence:  reconcile.Present,
			Chart:     istioChart(cfg, "base"),
			Values:    baseValues(),
		},
		reconcile.ResourceSpec{
			Kind:      reconcile.KindHelmRelease,
			Name:      config.ReleaseIstiod,
			Namespace: cfg.IstioNamespace,
			Presence:  reconcile.Present,
			Chart:     istioChart(cfg, "istiod"),
			Values:    istiodValues(cfg),
		},
	)

	if ambient {
		plan = append(plan,
			reconcile.ResourceSpec{
				Kind:      reconcile.KindHelmRelease,
				Name:      config.ReleaseIstioCNI,
				Namespace: cfg.IstioNamespace,
				Presence:  reconcile.Present,
				Chart:     istioChart(cfg, "cni"),
				Values:    ambientProfileValues(),
			},
			reconcile.ResourceSpec{
				Kind:      reconcile.KindHelmRelease,
				Name:      config.ReleaseZtunnel,
				Namespace: cfg.IstioNamespace,
				Presence:  reconcile.Present,
				Chart:     istioChart(cfg, "ztunnel"),
				Values:    nil,
			},
		)
	}

	if cfg.InstallIngressGateway {
		plan = append(plan, reconcile.ResourceSpec{
			Kind:      reconcile.KindHelmRelease,
			Name:      config.ReleaseIngressGateway,
			Namespace: cfg.IstioNamespace,
			Presence:  reconcile.Present,
			Optional:  true,
			Chart:     istioChart(cfg, "gateway"),
			Values:    gatewayValues(),
		})
	}

	if cfg.InstallDashboard {
		plan = append(plan, reconcile.ResourceSpec{
			Kind:      reconcile.KindHelmRelease,
			Name:      config.ReleaseKiali,
			Namespace: cfg.DashboardNamespace,
			Presence:  reconcile.Present,
			Optional:  true,
			Chart:     kialiChart(cfg),
			Values:    kialiValues(cfg),
		})
	}

	label := enrollmentLabel(cfg.DataplaneMode)
	plan = append(plan,
		reconcile.ResourceSpec{
			Kind:      reconcile.KindLabel,
			Name:      "dataplane-enrollment",
			Namespace: cfg.PlatformNamespace,
			Presence:  reconcile.Present,
			Label:     &label,
		},
		reconcile.ResourceSpec{
			Kind:         reconcile.KindManifest,
			Name:         "zero-trust-policies",
			Namespace:    cfg.PlatformNamespace,
			Presence:     reconcile.Present,
			ManifestPath: zeroTrustManifest(cfg),
		},
	)

	if cfg.AllowInternetEgress {
		plan = append(plan, reconcile.ResourceSpec{
			Kind:         reconcile.KindManifest,
			Name:         "internet-egress-policy",
			Namespace:    cfg.PlatformNamespace,
			Presence:     reconcile.Present,
			Optional:     true,
			ManifestPath: egressManifest(cfg),
		})
	}

	if ambient {
		plan = append(plan, reconcile.ResourceSpec{
			Kind:         reconcile.KindManifest,
			Name:         "waypoint-proxy",
			Namespace:    cfg.PlatformNamespace,
			Presence:     reconcile.Present,
			Optional:     true,
			ManifestPath: waypointManifest(cfg),
		})
	}

	return plan
}

// BuildDivergePlan derives the ordered teardown plan. The order tears down
// consumers before producers: dataplane and optional releases before the
// control plane, the control plane before its CRD base, policy and labels
// before namespaces. Namespace deletion and CRD removal only enter the plan
// on their explicit flags.
func BuildDivergePlan(cfg *config.Config) []reconcile.ResourceSpec {
	plan := []reconcile.ResourceSpec{
		{
			Kind:      reconcile.KindHelmRelease,
			Name:      config.ReleaseKiali,
			Namespace: cfg.DashboardNamespace,
			Presence:  reconcile.Absent,
			Optional:  true,
		},
		{
			Kind:      reconcile.KindHelmRelease,
			Name:      config.ReleaseIngressGateway,
			Namespace: cfg.IstioNamespace,
			Presence:  reconcile.Absent,
			Optional:  true,
		},
		{
			Kind:      reconcile.KindHelmRelease,
			Name:      config.ReleaseZtunnel,
			Namespace: cfg.IstioNamespace,
			Presence:  reconcile.Absent,
		},
		{
			Kind:      reconcile.KindHelmRelease,
			Name:      config.ReleaseIstioCNI,
			Namespace: cfg.IstioNamespace,
			Presence:  reconcile.Absent,
		},
		{
			Kind:      reconcile.KindHelmRelease,
			Name:      config.ReleaseIstiod,
			Namespace: cfg.IstioNamespace,
			Presence:  reconcile.Absent,
		},
		{
			Kind:      reconcile.KindHelmRelease,
			Name:      config.ReleaseIstioBase,
			Namespace: cfg.IstioNamespace,
			Presence:  reconcile.Absent,
		},
		{
			Kind:         reconcile.KindManifest,
			Name:         "waypoint-proxy",
			Namespace:    cfg.PlatformNamespace,
			Presence:     reconcile.Absent,
			Optional:     true,
			ManifestPath: waypointManifest(cfg),
			Fallback:     waypointFallback(cfg),
		},
		{
			Kind:         reconcile.KindManifest,
			Name:         "internet-egress-policy",
			Namespace:    cfg.PlatformNamespace,
			Presence:     reconcile.Absent,
			Optional:     true,
			ManifestPath: egressManifest(cfg),
			Fallback:     egressFallback(cfg),
		},
		{
			Kind:         reconcile.KindManifest,
			Name:         "zero-trust-policies",
			Namespace:    cfg.PlatformNamespace,
			Presence:     reconcile.Absent,
			ManifestPath: zeroTrustManifest(cfg),
			Fallback:     zeroTrustFallback(cfg),
		},
		{
			Kind:      reconcile.KindLabel,
			Name:      "dataplane-enrollment",
			Namespace: cfg.PlatformNamespace,
			Presence:  reconcile.Absent,
			Label: &reconcile.LabelSpec{
				Clear: []string{config.SidecarInjectionLabel, config.AmbientDataplaneLabel},
			},
		},
	}

	if cfg.DeleteNamespaces {
		plan = append(plan, reconcile.ResourceSpec{
			Kind:     reconcile.KindNamespace,
			Name:     cfg.PlatformNamespace,
			Presence: reconcile.Absent,
		})
		if cfg.DashboardNamespace != cfg.IstioNamespace && cfg.DashboardNamespace != cfg.PlatformNamespace {
			plan = append(plan, reconcile.ResourceSpec{
				Kind:     reconcile.KindNamespace,
				Name:     cfg.DashboardNamespace,
				Presence: reconcile.Absent,
			})
		}
		plan = append(plan, reconcile.ResourceSpec{
			Kind:     reconcile.KindNamespace,
			Name:     cfg.IstioNamespace,
			Presence: reconcile.Absent,
		})
	}

	if cfg.RemoveClusterCRDs {
		plan = append(plan, reconcile.ResourceSpec{
			Kind:     reconcile.KindCRDSet,
			Name:     "gateway-api",
			Presence: reconcile.Absent,
			CRDNames: config.GatewayAPICRDNames,
		})
	}

	return plan
}
