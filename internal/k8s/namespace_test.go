package k8s

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8sfake "k8s.io/client-go/kubernetes/fake"
)

func namespaceObj(name string, labels map[string]string) *corev1.Namespace {
	return &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: name, Labels: labels},
	}
}

func TestNamespaceExists(t *testing.T) {
	client := &Client{Clientset: k8sfake.NewSimpleClientset(namespaceObj("apps", nil))}
	ctx := context.Background()

	exists, err := client.NamespaceExists(ctx, "apps")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.NamespaceExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateNamespace_Idempotent(t *testing.T) {
	client := &Client{Clientset: k8sfake.NewSimpleClientset()}
	ctx := context.Background()

	require.NoError(t, client.CreateNamespace(ctx, "apps"))

	// Creating again must succeed.
	require.NoError(t, client.CreateNamespace(ctx, "apps"))

	exists, err := client.NamespaceExists(ctx, "apps")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteNamespace_AbsentIsNotAnError(t *testing.T) {
	client := &Client{Clientset: k8sfake.NewSimpleClientset()}
	assert.NoError(t, client.DeleteNamespace(context.Background(), "missing"))
}

func TestWaitForNamespaceDeleted(t *testing.T) {
	client := &Client{Clientset: k8sfake.NewSimpleClientset()}

	// Already gone: returns immediately.
	err := client.WaitForNamespaceDeleted(context.Background(), "apps", 5*time.Second)
	assert.NoError(t, err)
}

func TestNamespaceLabel(t *testing.T) {
	client := &Client{Clientset: k8sfake.NewSimpleClientset(
		namespaceObj("apps", map[string]string{"istio-injection": "enabled"}),
	)}
	ctx := context.Background()

	value, err := client.NamespaceLabel(ctx, "apps", "istio-injection")
	require.NoError(t, err)
	assert.Equal(t, "enabled", value)

	// Unset label and absent namespace both read as "".
	value, err = client.NamespaceLabel(ctx, "apps", "istio.io/dataplane-mode")
	require.NoError(t, err)
	assert.Empty(t, value)

	value, err = client.NamespaceLabel(ctx, "missing", "istio-injection")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestPatchNamespaceLabels_SetAndRemove(t *testing.T) {
	client := &Client{Clientset: k8sfake.NewSimpleClientset(
		namespaceObj("apps", map[string]string{"istio.io/dataplane-mode": "ambient"}),
	)}
	ctx := context.Background()

	enabled := "enabled"
	err := client.PatchNamespaceLabels(ctx, "apps", map[string]*string{
		"istio-injection":         &enabled,
		"istio.io/dataplane-mode": nil,
	})
	require.NoError(t, err)

	ns, err := client.Clientset.CoreV1().Namespaces().Get(ctx, "apps", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "enabled", ns.Labels["istio-injection"])
	assert.NotContains(t, ns.Labels, "istio.io/dataplane-mode")
}
