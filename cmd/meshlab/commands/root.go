// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated to
// handler functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/meshlab/cmd/meshlab/handlers"
)

// Root returns the root command for the meshlab CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meshlab",
		Short: "Bootstrap an Istio service mesh on a local Kubernetes cluster",
	}

	cmd.AddCommand(Up())
	cmd.AddCommand(Down())
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

// addCommonFlags binds the flags shared by every cluster-touching command.
func addCommonFlags(cmd *cobra.Command, opts *handlers.Options) {
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: meshlab.yaml if present)")
	cmd.Flags().StringVar(&opts.Kubeconfig, "kubeconfig", "", "Path to kubeconfig (default: standard loading rules)")
	cmd.Flags().StringVar(&opts.Context, "context", "", "Kubeconfig context to use (default: current context)")
	cmd.Flags().StringVar(&opts.IstioNamespace, "istio-namespace", "", "Namespace for the Istio control plane (default: istio-system)")
	cmd.Flags().StringVar(&opts.PlatformNamespace, "platform-namespace", "", "Namespace for mesh-enrolled workloads (default: apps)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Downgrade context identity and version skew checks to warnings")
}
