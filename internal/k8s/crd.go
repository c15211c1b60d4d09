package k8s

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// HasCRD reports whether a CustomResourceDefinition with the given name
// exists cluster-wide.
func (c *Client) HasCRD(ctx context.Context, name string) (bool, error) {
	_, err := c.APIExt.ApiextensionsV1().CustomResourceDefinitions().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query CRD %s: %w", name, err)
	}
	return true, nil
}

// DeleteCRD removes a CustomResourceDefinition. Absence is not an error.
func (c *Client) DeleteCRD(ctx context.Context, name string) error {
	err := c.APIExt.ApiextensionsV1().CustomResourceDefinitions().Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete CRD %s: %w", name, err)
	}
	return nil
}

// DeleteNetworkPolicy removes a NetworkPolicy, returning nil if it is
// already absent.
func (c *Client) DeleteNetworkPolicy(ctx context.Context, namespace, name string) error {
	err := c.Clientset.NetworkingV1().NetworkPolicies(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete network policy %s/%s: %w", namespace, name, err)
	}
	return nil
}

// DeleteDynamic removes an arbitrary namespaced resource by GVR and name.
// Both "object not found" and "kind not served" count as already absent:
// deleting a Gateway on a cluster that never had the Gateway API installed
// is a no-op, not a failure.
func (c *Client) DeleteDynamic(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) error {
	err := c.Dynamic.Resource(gvr).Namespace(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete %s %s/%s: %w", gvr.Resource, namespace, name, err)
	}
	return nil
}
