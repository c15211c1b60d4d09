package driver

import "github.com/imamik/meshlab/internal/config"

// Helm values per release. Values are kept minimal: the upstream charts
// default sensibly for a local single-node cluster, so only the knobs that
// differ per dataplane mode or that bind components together are set.

func baseValues() map[string]any {
	// Gateway API CRDs are applied from the upstream release manifest, so
	// the base chart must not manage its own copy.
	return map[string]any{
		"defaultRevision": "default",
	}
}

func istiodValues(cfg *config.Config) map[string]any {
	if cfg.DataplaneMode == config.DataplaneAmbient {
		return map[string]any{
			"profile": "ambient",
		}
	}
	return nil
}

func ambientProfileValues() map[string]any {
	return map[string]any{
		"profile": "ambient",
	}
}

func gatewayValues() map[string]any {
	return map[string]any{
		"service": map[string]any{
			"type": "LoadBalancer",
		},
	}
}

func kialiValues(cfg *config.Config) map[string]any {
	// Anonymous auth keeps the dashboard reachable without an identity
	// provider on a local cluster.
	return map[string]any{
		"auth": map[string]any{
			"strategy": "anonymous",
		},
		"external_services": map[string]any{
			"istio": map[string]any{
				"root_namespace": cfg.IstioNamespace,
			},
		},
	}
}
