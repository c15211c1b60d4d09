package reconcile

import (
	"context"
	"fmt"
	"strings"
)

// LabelReconciler manages mutually-exclusive namespace enrollment labels.
type LabelReconciler struct {
	API LabelAPI
}

// SetExclusive applies the label spec with overwrite semantics: the key is
// set to its value and every competing key is removed in the same patch.
// Removing an already-absent label is indistinguishable from removing it
// successfully, and both are the desired end state, so clears never fail.
func (r *LabelReconciler) SetExclusive(ctx context.Context, namespace string, spec LabelSpec) Outcome {
	labels := make(map[string]*string, 1+len(spec.Clear))
	if spec.Key != "" {
		value := spec.Value
		labels[spec.Key] = &value
	}
	for _, key := range spec.Clear {
		labels[key] = nil
	}

	if err := r.API.PatchNamespaceLabels(ctx, namespace, labels); err != nil {
		return failure(err)
	}

	if spec.Key == "" {
		return outcome(ActionUpdated,
			fmt.Sprintf("labels %s cleared on namespace %s", strings.Join(spec.Clear, ", "), namespace))
	}
	return outcome(ActionUpdated,
		fmt.Sprintf("label %s=%s set on namespace %s", spec.Key, spec.Value, namespace))
}

// Clear removes the given label keys. A missing namespace means there is
// nothing to clear; that is the desired end state, not an error.
func (r *LabelReconciler) Clear(ctx context.Context, namespace string, keys ...string) Outcome {
	exists, err := r.API.NamespaceExists(ctx, namespace)
	if err != nil {
		return failure(err)
	}
	if !exists {
		return outcome(ActionNoOp, fmt.Sprintf("namespace %s absent, no labels to clear", namespace))
	}

	labels := make(map[string]*string, len(keys))
	for _, key := range keys {
		labels[key] = nil
	}

	if err := r.API.PatchNamespaceLabels(ctx, namespace, labels); err != nil {
		return failure(err)
	}
	return outcome(ActionDeleted,
		fmt.Sprintf("labels %s cleared on namespace %s", strings.Join(keys, ", "), namespace))
}
