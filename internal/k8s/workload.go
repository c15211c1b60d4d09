package k8s

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// DeploymentLabel returns the value of a label on a deployment, with "" for
// an unset label or an absent deployment. Partially-initialized clusters
// routinely lack the workload, so absence is not an error.
func (c *Client) DeploymentLabel(ctx context.Context, namespace, name, key string) (string, error) {
	dep, err := c.Clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to query deployment %s/%s: %w", namespace, name, err)
	}
	return dep.Labels[key], nil
}
