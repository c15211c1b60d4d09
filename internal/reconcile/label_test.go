package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/meshlab/internal/config"
)

type fakeLabelAPI struct {
	existing  map[string]bool
	existsErr error
	patchErr  error

	patches []map[string]*string
}

func (f *fakeLabelAPI) NamespaceExists(_ context.Context, name string) (bool, error) {
	return f.existing[name], f.existsErr
}

func (f *fakeLabelAPI) PatchNamespaceLabels(_ context.Context, _ string, labels map[string]*string) error {
	f.patches = append(f.patches, labels)
	return f.patchErr
}

func TestSetExclusive_SidecarClearsAmbient(t *testing.T) {
	api := &fakeLabelAPI{existing: map[string]bool{"apps": true}}
	r := &LabelReconciler{API: api}

	out := r.SetExclusive(context.Background(), "apps", LabelSpec{
		Key:   config.SidecarInjectionLabel,
		Value: config.SidecarInjectionValue,
		Clear: []string{config.AmbientDataplaneLabel},
	})

	require.False(t, out.Failed())
	assert.Equal(t, ActionUpdated, out.Action)

	// One patch sets the active mode and removes the competing one, so the
	// namespace can never observe both labels at once.
	require.Len(t, api.patches, 1)
	patch := api.patches[0]
	require.NotNil(t, patch[config.SidecarInjectionLabel])
	assert.Equal(t, config.SidecarInjectionValue, *patch[config.SidecarInjectionLabel])
	value, present := patch[config.AmbientDataplaneLabel]
	assert.True(t, present)
	assert.Nil(t, value)
}

func TestSetExclusive_AmbientClearsSidecar(t *testing.T) {
	api := &fakeLabelAPI{existing: map[string]bool{"apps": true}}
	r := &LabelReconciler{API: api}

	out := r.SetExclusive(context.Background(), "apps", LabelSpec{
		Key:   config.AmbientDataplaneLabel,
		Value: config.AmbientDataplaneValue,
		Clear: []string{config.SidecarInjectionLabel},
	})

	require.False(t, out.Failed())
	patch := api.patches[0]
	require.NotNil(t, patch[config.AmbientDataplaneLabel])
	assert.Equal(t, config.AmbientDataplaneValue, *patch[config.AmbientDataplaneLabel])
	assert.Nil(t, patch[config.SidecarInjectionLabel])
}

func TestSetExclusive_ClearOnly(t *testing.T) {
	api := &fakeLabelAPI{existing: map[string]bool{"apps": true}}
	r := &LabelReconciler{API: api}

	out := r.SetExclusive(context.Background(), "apps", LabelSpec{
		Clear: []string{config.SidecarInjectionLabel, config.AmbientDataplaneLabel},
	})

	require.False(t, out.Failed())
	patch := api.patches[0]
	assert.Len(t, patch, 2)
	assert.Nil(t, patch[config.SidecarInjectionLabel])
	assert.Nil(t, patch[config.AmbientDataplaneLabel])
}

func TestClear_AbsentNamespaceIsNoOp(t *testing.T) {
	api := &fakeLabelAPI{existing: map[string]bool{}}
	r := &LabelReconciler{API: api}

	out := r.Clear(context.Background(), "apps", config.SidecarInjectionLabel)

	require.False(t, out.Failed())
	assert.Equal(t, ActionNoOp, out.Action)
	assert.Empty(t, api.patches)
}

func TestClear_PatchesNils(t *testing.T) {
	api := &fakeLabelAPI{existing: map[string]bool{"apps": true}}
	r := &LabelReconciler{API: api}

	out := r.Clear(context.Background(), "apps", config.SidecarInjectionLabel, config.AmbientDataplaneLabel)

	require.False(t, out.Failed())
	assert.Equal(t, ActionDeleted, out.Action)
	require.Len(t, api.patches, 1)
	assert.Len(t, api.patches[0], 2)
}

func TestSetExclusive_PatchErrorIsFatal(t *testing.T) {
	api := &fakeLabelAPI{
		existing: map[string]bool{"apps": true},
		patchErr: errors.New("forbidden"),
	}
	r := &LabelReconciler{API: api}

	out := r.SetExclusive(context.Background(), "apps", LabelSpec{
		Key:   config.SidecarInjectionLabel,
		Value: config.SidecarInjectionValue,
	})

	assert.True(t, out.Failed())
}
