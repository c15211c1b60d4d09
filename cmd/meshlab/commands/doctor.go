package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/meshlab/cmd/meshlab/handlers"
)

// Doctor returns the command for running the preflight checks on their own.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file (default: meshlab.yaml)
//	--json: Output the check results in JSON format
func Doctor() *cobra.Command {
	var opts handlers.Options
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check whether the cluster is ready for the mesh",
		Long: `Run the preflight checks without changing anything.

Checks tooling, cluster reachability, the kubeconfig context identity, the
default storage class, and whether an already-installed mesh version matches
the configured one.

Examples:
  # Human-readable report
  meshlab doctor

  # Machine-readable report
  meshlab doctor --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), opts, jsonOutput)
		},
	}

	addCommonFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.MeshVersion, "mesh-version", "", "Istio version to check against (default: pinned)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
