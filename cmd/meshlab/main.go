// Package main is the entry point for the meshlab CLI.
//
// meshlab bootstraps and tears down an Istio service mesh on a local
// Kubernetes cluster. Every run re-reads live cluster state and converges
// it toward the requested shape, so repeating a command is always safe.
//
// Commands: up, down, doctor, version, completion.
//
// For detailed usage information, run:
//
//	meshlab --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/meshlab/cmd/meshlab/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
