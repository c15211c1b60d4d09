package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/meshlab/cmd/meshlab/handlers"
)

// Down returns the command for tearing down the mesh.
//
// By default only the mesh installation itself is removed: Helm releases,
// network policies, and enrollment labels. Namespace deletion requires both
// --delete-namespaces and --yes-i-mean-it; Gateway API CRD removal is a
// separate opt-in since other tools on the cluster may depend on the CRDs.
func Down() *cobra.Command {
	var opts handlers.Options

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Remove the mesh from the cluster",
		Long: `Remove the Istio service mesh from your local cluster.

Teardown walks consumers before producers and stops at the first failed
required step. When a policy manifest file is missing the resources it
created are deleted by their well-known names instead.

Examples:
  # Remove releases, policies, and enrollment labels
  meshlab down

  # Also delete the namespaces
  meshlab down --delete-namespaces --yes-i-mean-it

  # Full teardown including Gateway API CRDs
  meshlab down --delete-namespaces --yes-i-mean-it --remove-cluster-crds`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Down(cmd.Context(), opts)
		},
	}

	addCommonFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.DashboardNamespace, "dashboard-namespace", "", "Namespace the dashboard was installed into (default: istio-system)")
	cmd.Flags().StringVar(&opts.MeshVersion, "mesh-version", "", "Istio version expected on the cluster (default: pinned)")
	cmd.Flags().StringVar(&opts.ManifestDir, "manifest-dir", "", "Directory holding policy manifests (default: manifests)")
	cmd.Flags().StringVar(&opts.ChartDir, "chart-dir", "", "Directory holding local chart archives (default: charts)")
	cmd.Flags().BoolVar(&opts.DeleteNamespaces, "delete-namespaces", false, "Also delete the mesh namespaces")
	cmd.Flags().BoolVar(&opts.AcknowledgeDestruct, "yes-i-mean-it", false, "Acknowledge that namespace deletion destroys everything in them")
	cmd.Flags().BoolVar(&opts.RemoveClusterCRDs, "remove-cluster-crds", false, "Also remove the Gateway API CRDs")

	return cmd
}
