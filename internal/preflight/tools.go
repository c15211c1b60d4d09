package preflight

import (
	"os/exec"
	"strings"
)

// Tool is a client binary the run depends on.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required indicates the run cannot proceed without it.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallURL points at installation instructions.
	InstallURL string
}

// requiredTools returns the tools a run needs. Helm is driven through its
// SDK and is deliberately not on this list; kubectl is shelled out to for
// manifest files.
func requiredTools() []Tool {
	return []Tool{
		{
			Name:        "kubectl",
			Required:    true,
			Description: "Required for applying and deleting policy manifests",
			InstallURL:  "https://kubernetes.io/docs/tasks/tools/",
		},
	}
}

// toolVersion attempts to read the version of a tool, best effort.
func toolVersion(lookPath func(string) (string, error), name string) string {
	if _, err := lookPath(name); err != nil {
		return ""
	}

	versionFlags := []string{"version", "--version", "-v"}
	for _, flag := range versionFlags {
		// #nosec G204 - name comes from the fixed Tool table, not user input
		cmd := exec.Command(name, flag, "--client")
		output, err := cmd.Output()
		if err != nil {
			// Retry without --client for tools that reject it.
			cmd = exec.Command(name, flag)
			output, err = cmd.Output()
		}
		if err == nil {
			lines := strings.Split(string(output), "\n")
			if len(lines) > 0 {
				return strings.TrimSpace(lines[0])
			}
		}
	}
	return ""
}
