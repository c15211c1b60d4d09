package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "meshlab", cmd.Use)
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := Root()

	expectedSubcommands := []string{
		"up",
		"down",
		"doctor",
		"version",
		"completion",
	}

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}

	for _, expected := range expectedSubcommands {
		assert.True(t, subcommands[expected], "Expected subcommand %s not found", expected)
	}
}

func TestUp_Flags(t *testing.T) {
	cmd := Up()

	for _, flag := range []string{
		"config", "dataplane-mode", "ingress-gateway", "dashboard",
		"allow-internet-egress", "mesh-version", "force",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "Expected flag --%s", flag)
	}
}

func TestDown_Flags(t *testing.T) {
	cmd := Down()

	for _, flag := range []string{
		"delete-namespaces", "yes-i-mean-it", "remove-cluster-crds", "force",
		"mesh-version", "chart-dir",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "Expected flag --%s", flag)
	}
}

func TestDoctor_Flags(t *testing.T) {
	cmd := Doctor()
	assert.NotNil(t, cmd.Flags().Lookup("json"))
}
