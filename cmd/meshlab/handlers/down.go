package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/imamik/meshlab/internal/config"
	"github.com/imamik/meshlab/internal/driver"
)

// Diverger interface for testing - matches driver.Driver's diverge side.
type Diverger interface {
	Diverge(ctx context.Context) (*driver.Report, error)
}

// newDiverger builds the teardown driver (for testing injection).
var newDiverger = func(cfg *config.Config) (Diverger, error) {
	return buildDriver(cfg)
}

// Down removes the mesh installation.
//
// Namespace deletion only happens when the config carries both the request
// and the acknowledgement flag; the preflight gate rejects the run
// otherwise, before anything is touched.
func Down(ctx context.Context, opts Options) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	log.Printf("Removing mesh from context %s", cfg.ExpectedContext)

	drv, err := newDiverger(cfg)
	if err != nil {
		return err
	}

	report, err := drv.Diverge(ctx)
	printReport(report)

	if errors.Is(err, driver.ErrPreflightFailed) {
		log.Printf("No changes were made")
	}
	return err
}
