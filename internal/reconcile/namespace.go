package reconcile

import (
	"context"
	"fmt"
	"time"
)

// NamespaceReconciler converges namespaces toward presence or absence.
type NamespaceReconciler struct {
	API NamespaceAPI

	// DeleteTimeout bounds the wait for namespace finalization; zero means
	// DefaultNamespaceDeleteTimeout.
	DeleteTimeout time.Duration
}

// Ensure creates the namespace if it does not exist. Pre-existence is a
// no-op, never an error.
func (r *NamespaceReconciler) Ensure(ctx context.Context, name string) Outcome {
	exists, err := r.API.NamespaceExists(ctx, name)
	if err != nil {
		return failure(err)
	}
	if exists {
		return outcome(ActionNoOp, fmt.Sprintf("namespace %s already exists", name))
	}

	if err := r.API.CreateNamespace(ctx, name); err != nil {
		return failure(err)
	}
	return outcome(ActionCreated, fmt.Sprintf("namespace %s created", name))
}

// EnsureAbsent deletes the namespace and waits for it to disappear.
// Finalizers can legitimately outlive the wait, so a timeout is reported as
// "deletion requested but not confirmed" rather than a failure.
func (r *NamespaceReconciler) EnsureAbsent(ctx context.Context, name string) Outcome {
	exists, err := r.API.NamespaceExists(ctx, name)
	if err != nil {
		return failure(err)
	}
	if !exists {
		return outcome(ActionNoOp, fmt.Sprintf("namespace %s already absent", name))
	}

	if err := r.API.DeleteNamespace(ctx, name); err != nil {
		return failure(err)
	}

	timeout := r.DeleteTimeout
	if timeout == 0 {
		timeout = DefaultNamespaceDeleteTimeout
	}
	if err := r.API.WaitForNamespaceDeleted(ctx, name, timeout); err != nil {
		return outcome(ActionDeleted,
			fmt.Sprintf("namespace %s deletion requested but not confirmed within %s", name, timeout))
	}
	return outcome(ActionDeleted, fmt.Sprintf("namespace %s deleted", name))
}
