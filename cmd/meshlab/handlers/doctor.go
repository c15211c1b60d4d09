package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/imamik/meshlab/internal/config"
	"github.com/imamik/meshlab/internal/preflight"
	"github.com/imamik/meshlab/internal/probe"
)

// PreflightRunner interface for testing - matches preflight.Gate.
type PreflightRunner interface {
	Run(ctx context.Context, cfg *config.Config) *preflight.Result
}

// newPreflightGate builds the gate over live clients (for testing injection).
var newPreflightGate = func(cfg *config.Config) (PreflightRunner, error) {
	cluster, err := newClusterClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster client: %w", err)
	}
	stateProbe := probe.New(cluster, func(namespace string) (probe.ReleaseAPI, error) {
		return newReleaseClient(cfg, namespace)
	})
	return &preflight.Gate{Cluster: cluster, Probe: stateProbe}, nil
}

// Doctor runs the preflight checks and reports them without touching the
// cluster. The exit status reflects whether a converge run would be allowed
// to proceed.
func Doctor(ctx context.Context, opts Options, jsonOutput bool) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	gate, err := newPreflightGate(cfg)
	if err != nil {
		return err
	}

	result := gate.Run(ctx, cfg)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printPreflight(result)
		fmt.Println()
	}

	if result.Fatal {
		return fmt.Errorf("preflight checks failed")
	}
	return nil
}
