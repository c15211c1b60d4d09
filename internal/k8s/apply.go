package k8s

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/yaml"
)

// ApplyManifests applies multi-document YAML using Server-Side Apply and
// returns one "Kind name" entry per applied object, in manifest order. The
// fieldManager identifies the actor applying the configuration. Decoding is
// completed before the first apply so a malformed trailing document cannot
// leave a partial apply behind.
func (c *Client) ApplyManifests(ctx context.Context, manifests []byte, fieldManager string) ([]string, error) {
	objects, err := decodeManifests(manifests)
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(objects))
	for _, obj := range objects {
		if err := c.applyObject(ctx, obj, fieldManager); err != nil {
			return applied, fmt.Errorf("failed to apply %s %s/%s: %w",
				obj.GetKind(), obj.GetNamespace(), obj.GetName(), err)
		}
		applied = append(applied, fmt.Sprintf("%s %s", obj.GetKind(), obj.GetName()))
	}
	return applied, nil
}

// decodeManifests splits multi-document YAML into objects, skipping empty
// documents.
func decodeManifests(manifests []byte) ([]*unstructured.Unstructured, error) {
	decoder := yaml.NewYAMLOrJSONDecoder(bytes.NewReader(manifests), 4096)

	var objects []*unstructured.Unstructured
	for docIndex := 0; ; docIndex++ {
		var obj unstructured.Unstructured
		if err := decoder.Decode(&obj); err != nil {
			if err == io.EOF {
				return objects, nil
			}
			return nil, fmt.Errorf("failed to decode manifest document %d: %w", docIndex, err)
		}
		if len(obj.Object) == 0 {
			continue
		}
		objects = append(objects, &obj)
	}
}

// applyObject applies a single unstructured object using Server-Side Apply.
func (c *Client) applyObject(ctx context.Context, obj *unstructured.Unstructured, fieldManager string) error {
	gvk := obj.GroupVersionKind()
	if gvk.Kind == "" {
		return fmt.Errorf("object has no kind set")
	}

	mapping, err := c.Mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return fmt.Errorf("failed to get REST mapping for %v: %w", gvk, err)
	}

	data, err := obj.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal object to JSON: %w", err)
	}

	force := true
	opts := metav1.PatchOptions{
		FieldManager: fieldManager,
		Force:        &force,
	}

	resource := c.Dynamic.Resource(mapping.Resource)
	if mapping.Scope.Name() == meta.RESTScopeNameNamespace {
		namespace := obj.GetNamespace()
		if namespace == "" {
			namespace = "default"
		}
		_, err = resource.Namespace(namespace).Patch(ctx, obj.GetName(), types.ApplyPatchType, data, opts)
	} else {
		_, err = resource.Patch(ctx, obj.GetName(), types.ApplyPatchType, data, opts)
	}

	if err != nil {
		return fmt.Errorf("server-side apply failed: %w", err)
	}
	return nil
}
