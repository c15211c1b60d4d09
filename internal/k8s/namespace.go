package k8s

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/wait"
)

// NamespaceExists reports whether the namespace exists. A NotFound response
// is the normal "absent" answer; any other error means the query itself
// failed and is surfaced to the caller.
func (c *Client) NamespaceExists(ctx context.Context, name string) (bool, error) {
	_, err := c.Clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query namespace %s: %w", name, err)
	}
	return true, nil
}

// CreateNamespace creates the namespace. Pre-existence is not an error.
func (c *Client) CreateNamespace(ctx context.Context, name string) error {
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: name},
	}

	_, err := c.Clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create namespace %s: %w", name, err)
	}
	return nil
}

// DeleteNamespace requests deletion of the namespace. Absence is not an
// error: another actor deleting it first still leaves the desired state.
func (c *Client) DeleteNamespace(ctx context.Context, name string) error {
	err := c.Clientset.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete namespace %s: %w", name, err)
	}
	return nil
}

// WaitForNamespaceDeleted polls until the namespace is gone or the timeout
// elapses. Finalizers can legitimately hold a namespace in Terminating past
// any reasonable wait, so callers treat a timeout as unconfirmed, not failed.
func (c *Client) WaitForNamespaceDeleted(ctx context.Context, name string, timeout time.Duration) error {
	return wait.PollUntilContextTimeout(ctx, 2*time.Second, timeout, true, func(ctx context.Context) (bool, error) {
		_, err := c.Clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			return true, nil
		}
		return false, nil
	})
}

// NamespaceLabel returns the value of a label on the namespace, with "" for
// an unset label or an absent namespace.
func (c *Client) NamespaceLabel(ctx context.Context, name, key string) (string, error) {
	ns, err := c.Clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to query namespace %s: %w", name, err)
	}
	return ns.Labels[key], nil
}

// PatchNamespaceLabels applies the given label values with overwrite
// semantics. A nil value removes the label; removing an absent label is
// indistinguishable from success and treated as such.
func (c *Client) PatchNamespaceLabels(ctx context.Context, name string, labels map[string]*string) error {
	patch := map[string]interface{}{
		"metadata": map[string]interface{}{
			"labels": labels,
		},
	}

	data, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to marshal label patch: %w", err)
	}

	_, err = c.Clientset.CoreV1().Namespaces().Patch(ctx, name, types.MergePatchType, data, metav1.PatchOptions{})
	if err != nil {
		return fmt.Errorf("failed to patch labels on namespace %s: %w", name, err)
	}
	return nil
}
