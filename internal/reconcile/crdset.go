package reconcile

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// fieldManager identifies this tool in server-side apply ownership.
const fieldManager = "meshlab"

// CRDSetReconciler manages a cluster-scoped set of CRDs published as a
// single manifest at a release URL.
type CRDSetReconciler struct {
	API CRDAPI

	// Fetch retrieves the manifest bytes; nil means plain HTTP GET. Swapped
	// out in tests.
	Fetch func(ctx context.Context, url string) ([]byte, error)
}

// EnsureInstalledFromURL installs the CRD set if the marker CRD is absent.
// CRDs are additive and rarely change within a pinned release, so an
// existing installation is left untouched rather than re-applied.
func (r *CRDSetReconciler) EnsureInstalledFromURL(ctx context.Context, markerCRD, url string) Outcome {
	installed, err := r.API.HasCRD(ctx, markerCRD)
	if err != nil {
		return failure(err)
	}
	if installed {
		return outcome(ActionNoOp, fmt.Sprintf("CRD %s already installed", markerCRD))
	}

	fetch := r.Fetch
	if fetch == nil {
		fetch = fetchURL
	}
	manifests, err := fetch(ctx, url)
	if err != nil {
		return failure(fmt.Errorf("failed to fetch CRD manifest from %s: %w", url, err))
	}

	applied, err := r.API.ApplyManifests(ctx, manifests, fieldManager)
	if err != nil {
		return failure(fmt.Errorf("failed to apply CRD manifest from %s: %w", url, err))
	}
	return outcome(ActionCreated, fmt.Sprintf("applied %d objects from %s", len(applied), url))
}

// RemoveIfRequested deletes the named CRDs. Removal is cluster-wide and can
// break consumers outside this tool's ownership, which is why callers only
// reach here on an explicit opt-in. CRDs that are already gone are fine.
func (r *CRDSetReconciler) RemoveIfRequested(ctx context.Context, names []string) Outcome {
	removed := 0
	for _, name := range names {
		present, err := r.API.HasCRD(ctx, name)
		if err != nil {
			return failure(err)
		}
		if !present {
			continue
		}

		if err := r.API.DeleteCRD(ctx, name); err != nil {
			return failure(err)
		}
		removed++
	}

	if removed == 0 {
		return outcome(ActionNoOp, "CRD set already absent")
	}
	return outcome(ActionDeleted, fmt.Sprintf("removed %d CRDs", removed))
}

// fetchURL downloads the manifest at url.
func fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
