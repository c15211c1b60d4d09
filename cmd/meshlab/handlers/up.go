package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/imamik/meshlab/internal/config"
	"github.com/imamik/meshlab/internal/driver"
)

// Converger interface for testing - matches driver.Driver's converge side.
type Converger interface {
	Converge(ctx context.Context) (*driver.Report, error)
}

// newConverger builds the converge driver (for testing injection).
var newConverger = func(cfg *config.Config) (Converger, error) {
	return buildDriver(cfg)
}

// Up bootstraps or updates the mesh installation.
//
// The run walks preflight, plan, reconcile, and verify in order. The report
// is printed even when the run aborts partway, so the operator can see
// exactly which step stopped it and what had already been done.
func Up(ctx context.Context, opts Options) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	log.Printf("Converging mesh %s on context %s", cfg.MeshVersion, cfg.ExpectedContext)

	drv, err := newConverger(cfg)
	if err != nil {
		return err
	}

	report, err := drv.Converge(ctx)
	printReport(report)

	if errors.Is(err, driver.ErrPreflightFailed) {
		log.Printf("No changes were made")
	}
	return err
}
