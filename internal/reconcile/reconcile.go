// Package reconcile drives individual cluster resources toward a desired
// state, one reconciler per resource kind.
//
// Every reconciler re-probes current state immediately before acting and
// treats "already in the desired state" as success, so repeated runs
// converge without error and without redundant mutation. Each reconciler
// also decides for its own kind whether a failure is fatal or tolerable;
// the drivers never reinterpret that classification.
package reconcile

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/imamik/meshlab/internal/helm"
)

// Kind identifies the resource kind a spec targets.
type Kind string

const (
	KindNamespace   Kind = "Namespace"
	KindHelmRelease Kind = "HelmRelease"
	KindLabel       Kind = "Label"
	KindManifest    Kind = "Manifest"
	KindCRDSet      Kind = "CRDSet"
)

// Presence is the desired end state of a resource.
type Presence string

const (
	// Present means the resource should exist after reconciliation.
	Present Presence = "present"
	// Absent means the resource should not exist after reconciliation.
	Absent Presence = "absent"
)

// Action records what a reconciler actually did.
type Action string

const (
	// ActionNoOp means observed state already matched the desired state.
	ActionNoOp Action = "no-op"
	// ActionCreated means the resource was created or installed.
	ActionCreated Action = "created"
	// ActionUpdated means the resource existed and was converged in place.
	ActionUpdated Action = "updated"
	// ActionDeleted means the resource was removed, or its removal was
	// requested and is in progress.
	ActionDeleted Action = "deleted"
	// ActionSkipped means the reconciler chose not to act, with the reason
	// in the outcome detail.
	ActionSkipped Action = "skipped"
)

// Outcome is the result of reconciling one resource.
type Outcome struct {
	Action Action
	Detail string
	Err    error
}

// Failed reports whether the reconciliation errored.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

func outcome(action Action, detail string) Outcome {
	return Outcome{Action: action, Detail: detail}
}

func failure(err error) Outcome {
	return Outcome{Action: ActionSkipped, Err: err}
}

// LabelSpec describes an exclusive enrollment label: Key/Value are set while
// every key in Clear is removed in the same step. An empty Key only clears.
type LabelSpec struct {
	Key   string
	Value string
	Clear []string
}

// FallbackTarget names one well-known resource the best-effort teardown
// fallback attempts to delete when a manifest file has gone missing.
type FallbackTarget struct {
	// NetworkPolicy deletion when GVR is empty, dynamic deletion otherwise.
	GVR       schema.GroupVersionResource
	Namespace string
	Name      string
}

// ResourceSpec is a named, typed target to reconcile. Exactly the fields
// matching Kind are set; Namespace is set for namespaced kinds and empty
// for cluster-scoped ones.
type ResourceSpec struct {
	Kind      Kind
	Name      string
	Namespace string
	Presence  Presence

	// Optional entries are recorded on failure but never abort a run.
	Optional bool

	// Source of truth, by kind.
	Chart        *helm.ChartSource      // KindHelmRelease
	Values       map[string]interface{} // KindHelmRelease
	ManifestPath string                 // KindManifest
	Fallback     []FallbackTarget       // KindManifest, teardown only
	Label        *LabelSpec             // KindLabel
	CRDSourceURL string                 // KindCRDSet install
	MarkerCRD    string                 // KindCRDSet install presence check
	CRDNames     []string               // KindCRDSet removal
}

// DefaultNamespaceDeleteTimeout bounds the wait for namespace finalization.
const DefaultNamespaceDeleteTimeout = 180 * time.Second

// NamespaceAPI is the cluster surface the namespace reconciler mutates.
type NamespaceAPI interface {
	NamespaceExists(ctx context.Context, name string) (bool, error)
	CreateNamespace(ctx context.Context, name string) error
	DeleteNamespace(ctx context.Context, name string) error
	WaitForNamespaceDeleted(ctx context.Context, name string, timeout time.Duration) error
}

// LabelAPI is the cluster surface the label reconciler mutates.
type LabelAPI interface {
	NamespaceExists(ctx context.Context, name string) (bool, error)
	PatchNamespaceLabels(ctx context.Context, name string, labels map[string]*string) error
}

// ReleaseAPI is the release surface, bound to one namespace.
type ReleaseAPI interface {
	ReleaseExists(name string) (bool, error)
	InstallOrUpgrade(ctx context.Context, name string, src helm.ChartSource, values map[string]interface{}) error
	Uninstall(name string) error
}

// ReleaseFactory yields a ReleaseAPI for a namespace.
type ReleaseFactory func(namespace string) (ReleaseAPI, error)

// ManifestRunner applies and deletes manifest files.
type ManifestRunner interface {
	Apply(ctx context.Context, path string) (string, error)
	Delete(ctx context.Context, path string, ignoreMissing bool) (string, error)
}

// CRDAPI is the cluster surface the CRD set reconciler uses.
type CRDAPI interface {
	HasCRD(ctx context.Context, name string) (bool, error)
	DeleteCRD(ctx context.Context, name string) error
	ApplyManifests(ctx context.Context, manifests []byte, fieldManager string) ([]string, error)
}

// PolicyDeleter is the cluster surface the best-effort fallback uses.
type PolicyDeleter interface {
	DeleteNetworkPolicy(ctx context.Context, namespace, name string) error
	DeleteDynamic(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) error
}
