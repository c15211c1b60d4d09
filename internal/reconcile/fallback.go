package reconcile

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// FallbackReconciler is the degraded-mode teardown path used when a manifest
// file has gone missing: it deletes the resources the bootstrap is known to
// create, by name. It cannot know about operator customizations, so every
// attempted name is logged for audit, and every deletion tolerates absence.
// Fallback outcomes are never fatal.
type FallbackReconciler struct {
	API PolicyDeleter
}

// DeleteKnown attempts each target once. Individual failures are logged and
// folded into the outcome detail, never into an error.
func (r *FallbackReconciler) DeleteKnown(ctx context.Context, targets []FallbackTarget) Outcome {
	var failed []string
	for _, t := range targets {
		var err error
		if t.GVR.Resource == "" {
			log.Printf("Best-effort delete: networkpolicy %s/%s", t.Namespace, t.Name)
			err = r.API.DeleteNetworkPolicy(ctx, t.Namespace, t.Name)
		} else {
			log.Printf("Best-effort delete: %s %s/%s", t.GVR.Resource, t.Namespace, t.Name)
			err = r.API.DeleteDynamic(ctx, t.GVR, t.Namespace, t.Name)
		}
		if err != nil {
			log.Printf("Best-effort delete of %s/%s failed: %v", t.Namespace, t.Name, err)
			failed = append(failed, t.Name)
		}
	}

	if len(failed) > 0 {
		return outcome(ActionDeleted,
			fmt.Sprintf("best-effort deletion attempted for %d resources (could not remove: %s)",
				len(targets), strings.Join(failed, ", ")))
	}
	return outcome(ActionDeleted,
		fmt.Sprintf("best-effort deletion attempted for %d resources", len(targets)))
}
