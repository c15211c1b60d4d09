package helm

import (
	"fmt"
	"os"

	sigsyaml "sigs.k8s.io/yaml"
)

// MergeValuesFile overlays operator-provided values from a YAML file onto
// base. A missing file means no overrides; base is returned unchanged. The
// overlay wins on conflicts, merging nested maps key by key the same way
// Helm merges stacked values files.
func MergeValuesFile(base map[string]interface{}, path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, fmt.Errorf("failed to read values file %s: %w", path, err)
	}

	var overrides map[string]interface{}
	if err := sigsyaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse values file %s: %w", path, err)
	}
	return mergeMaps(base, overrides), nil
}

func mergeMaps(base, overlay map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		overlayMap, overlayOK := v.(map[string]interface{})
		baseMap, baseOK := merged[k].(map[string]interface{})
		if overlayOK && baseOK {
			merged[k] = mergeMaps(baseMap, overlayMap)
			continue
		}
		merged[k] = v
	}
	return merged
}
