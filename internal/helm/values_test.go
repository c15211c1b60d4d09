package helm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeValuesFile_MissingFileKeepsBase(t *testing.T) {
	base := map[string]interface{}{"profile": "ambient"}

	merged, err := MergeValuesFile(base, filepath.Join(t.TempDir(), "values", "istiod.yaml"))
	require.NoError(t, err)
	assert.Equal(t, base, merged)
}

func TestMergeValuesFile_OverlayWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "istiod.yaml")
	content := `
profile: demo
pilot:
  resources:
    requests:
      cpu: 100m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	base := map[string]interface{}{"profile": "ambient"}
	merged, err := MergeValuesFile(base, path)
	require.NoError(t, err)

	assert.Equal(t, "demo", merged["profile"])
	assert.Contains(t, merged, "pilot")
}

func TestMergeValuesFile_NestedMapsMergeKeyByKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kiali.yaml")
	content := `
auth:
  openid:
    client_id: kiali
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	base := map[string]interface{}{
		"auth": map[string]interface{}{
			"strategy": "anonymous",
		},
	}
	merged, err := MergeValuesFile(base, path)
	require.NoError(t, err)

	auth, ok := merged["auth"].(map[string]interface{})
	require.True(t, ok)

	// The base key survives next to the overlaid one.
	assert.Equal(t, "anonymous", auth["strategy"])
	assert.Contains(t, auth, "openid")
}

func TestMergeValuesFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth: [\n"), 0o600))

	_, err := MergeValuesFile(nil, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse values file")
}
