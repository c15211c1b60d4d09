package config

// Pinned defaults. The mesh version is the single control-plane version the
// bundled manifests and chart values are written against.
const (
	DefaultMeshVersion     = "1.28.2"
	DefaultExpectedContext = "docker-desktop"

	// DefaultKialiVersion pins the kiali-server chart used for the optional
	// dashboard. Kiali versions independently of Istio.
	DefaultKialiVersion = "2.14.0"
)

// Chart repositories.
const (
	IstioChartRepo = "https://istio-release.storage.googleapis.com/charts"
	KialiChartRepo = "https://kiali.org/helm-charts"
)

// Helm release names. Release and chart names differ for the Istio charts
// ("istio-base" installs chart "base").
const (
	ReleaseIstioBase      = "istio-base"
	ReleaseIstiod         = "istiod"
	ReleaseIstioCNI       = "istio-cni"
	ReleaseZtunnel        = "ztunnel"
	ReleaseIngressGateway = "istio-ingressgateway"
	ReleaseKiali          = "kiali-server"
)

// Namespace enrollment labels. Sidecar injection and ambient enrollment are
// mutually exclusive; setting one must clear the other.
const (
	SidecarInjectionLabel = "istio-injection"
	SidecarInjectionValue = "enabled"
	AmbientDataplaneLabel = "istio.io/dataplane-mode"
	AmbientDataplaneValue = "ambient"
)

// Gateway API CRD set. The marker CRD is the one checked for presence; the
// release URL follows the upstream publishing scheme.
const (
	GatewayAPIVersion        = "v1.4.1"
	GatewayAPIReleaseChannel = "standard"
	GatewayAPIMarkerCRD      = "gateways.gateway.networking.k8s.io"
)

// GatewayAPICRDNames lists the CRDs the standard channel installs, used when
// cluster-wide removal is explicitly requested.
var GatewayAPICRDNames = []string{
	"gatewayclasses.gateway.networking.k8s.io",
	"gateways.gateway.networking.k8s.io",
	"grpcroutes.gateway.networking.k8s.io",
	"httproutes.gateway.networking.k8s.io",
	"referencegrants.gateway.networking.k8s.io",
}
