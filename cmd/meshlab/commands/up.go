package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/meshlab/cmd/meshlab/handlers"
)

// Up returns the command for bootstrapping the mesh.
//
// This command converges the cluster toward the requested mesh state:
// Gateway API CRDs, namespaces, the Istio control plane, the selected
// dataplane mode, workload enrollment, and zero-trust network policies.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file (default: meshlab.yaml)
//	--dataplane-mode: sidecar, ambient, or none (default: sidecar)
//	--ingress-gateway: Also install the Istio ingress gateway
//	--dashboard: Also install the Kiali dashboard
//	--allow-internet-egress: Apply the internet egress allowance policy
func Up() *cobra.Command {
	var opts handlers.Options

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Install or update the mesh on the cluster",
		Long: `Install or update the Istio service mesh on your local cluster.

Every part of the installation is reconciled against live cluster state, so
re-running after a partial failure or a manual change picks up exactly where
the cluster actually is.

Examples:
  # Sidecar mesh with defaults
  meshlab up

  # Ambient mesh with the Kiali dashboard
  meshlab up --dataplane-mode ambient --dashboard

  # Allow workloads to reach the internet
  meshlab up --allow-internet-egress`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Up(cmd.Context(), opts)
		},
	}

	addCommonFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.DataplaneMode, "dataplane-mode", "", "Dataplane mode: sidecar, ambient, or none (default: sidecar)")
	cmd.Flags().StringVar(&opts.DashboardNamespace, "dashboard-namespace", "", "Namespace for the dashboard (default: istio-system)")
	cmd.Flags().StringVar(&opts.MeshVersion, "mesh-version", "", "Istio version to install (default: pinned)")
	cmd.Flags().StringVar(&opts.ManifestDir, "manifest-dir", "", "Directory holding policy manifests (default: manifests)")
	cmd.Flags().StringVar(&opts.ChartDir, "chart-dir", "", "Directory checked for local chart archives before remote fetch (default: charts)")
	cmd.Flags().BoolVar(&opts.IngressGateway, "ingress-gateway", false, "Install the Istio ingress gateway")
	cmd.Flags().BoolVar(&opts.Dashboard, "dashboard", false, "Install the Kiali dashboard")
	cmd.Flags().BoolVar(&opts.AllowInternetEgress, "allow-internet-egress", false, "Apply the internet egress allowance policy")

	return cmd
}
