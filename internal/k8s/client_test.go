package k8s

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	storagev1 "k8s.io/api/storage/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8sfake "k8s.io/client-go/kubernetes/fake"
)

func TestHasDefaultStorageClass(t *testing.T) {
	client := &Client{Clientset: k8sfake.NewSimpleClientset(
		&storagev1.StorageClass{
			ObjectMeta: metav1.ObjectMeta{
				Name: "hostpath",
				Annotations: map[string]string{
					"storageclass.kubernetes.io/is-default-class": "true",
				},
			},
		},
	)}

	ok, err := client.HasDefaultStorageClass(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasDefaultStorageClass_NoneDefault(t *testing.T) {
	client := &Client{Clientset: k8sfake.NewSimpleClientset(
		&storagev1.StorageClass{ObjectMeta: metav1.ObjectMeta{Name: "manual"}},
	)}

	ok, err := client.HasDefaultStorageClass(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeploymentLabel(t *testing.T) {
	client := &Client{Clientset: k8sfake.NewSimpleClientset(
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{
				Name:      "istiod",
				Namespace: "istio-system",
				Labels:    map[string]string{"app.kubernetes.io/version": "1.28.2"},
			},
		},
	)}
	ctx := context.Background()

	version, err := client.DeploymentLabel(ctx, "istio-system", "istiod", "app.kubernetes.io/version")
	require.NoError(t, err)
	assert.Equal(t, "1.28.2", version)

	// Absent deployment reads as "", not an error.
	version, err = client.DeploymentLabel(ctx, "istio-system", "missing", "app.kubernetes.io/version")
	require.NoError(t, err)
	assert.Empty(t, version)
}
