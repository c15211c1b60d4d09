// Package k8s wraps the Kubernetes API operations meshlab needs: namespace
// and label management, server-side apply of raw manifests, CRD queries, and
// bounded condition waits.
package k8s

import (
	"context"
	"fmt"

	apiextensionsclientset "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
)

// Client wraps the typed, dynamic and apiextensions clients behind the small
// surface the reconcilers and the probe use. Fields are exported so tests can
// construct a Client around fake clientsets.
type Client struct {
	Clientset kubernetes.Interface
	Dynamic   dynamic.Interface
	APIExt    apiextensionsclientset.Interface
	Mapper    meta.RESTMapper

	contextName string
}

// NewClient creates a Client using standard kubeconfig loading rules.
// kubeconfigPath and contextName override the default location and the
// current-context respectively; either may be empty.
func NewClient(kubeconfigPath, contextName string) (*Client, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		loadingRules.ExplicitPath = kubeconfigPath
	}

	overrides := &clientcmd.ConfigOverrides{}
	if contextName != "" {
		overrides.CurrentContext = contextName
	}

	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides)

	rawConfig, err := clientConfig.RawConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	active := rawConfig.CurrentContext
	if contextName != "" {
		active = contextName
	}

	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build REST config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	apiExtClient, err := apiextensionsclientset.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create apiextensions client: %w", err)
	}

	discoveryClient, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery client: %w", err)
	}
	mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(discoveryClient))

	return &Client{
		Clientset:   clientset,
		Dynamic:     dynamicClient,
		APIExt:      apiExtClient,
		Mapper:      mapper,
		contextName: active,
	}, nil
}

// CurrentContext returns the kubeconfig context this client was built for.
func (c *Client) CurrentContext() string {
	return c.contextName
}

// ServerVersion queries the API server version, proving reachability.
func (c *Client) ServerVersion(_ context.Context) (string, error) {
	info, err := c.Clientset.Discovery().ServerVersion()
	if err != nil {
		return "", fmt.Errorf("cluster unreachable: %w", err)
	}
	return info.GitVersion, nil
}

// HasDefaultStorageClass reports whether any StorageClass carries the
// default-class annotation.
func (c *Client) HasDefaultStorageClass(ctx context.Context) (bool, error) {
	classes, err := c.Clientset.StorageV1().StorageClasses().List(ctx, metav1.ListOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to list storage classes: %w", err)
	}

	for _, sc := range classes.Items {
		if sc.Annotations["storageclass.kubernetes.io/is-default-class"] == "true" {
			return true, nil
		}
	}
	return false, nil
}
