package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionBashGeneration(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newRootCmd().GenBashCompletion(&buf))

	out := buf.String()
	assert.Contains(t, out, "# bash completion for xmrig-monitor")
}

func TestCompletionZshGeneration(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newRootCmd().GenZshCompletion(&buf))

	assert.Contains(t, buf.String(), "#compdef xmrig-monitor")
}

func TestCompletionFishGeneration(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newRootCmd().GenFishCompletion(&buf, true))

	out := buf.String()
	assert.Contains(t, out, "fish completion for xmrig-monitor")
	assert.Contains(t, out, "complete -c xmrig-monitor")
}

func TestCompletionPowershellGeneration(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newRootCmd().GenPowerShellCompletion(&buf))

	out := buf.String()
	assert.Contains(t, strings.ToLower(out), "powershell completion")
	assert.Contains(t, out, "Register-ArgumentCompleter")
}

func TestCompletionCommandIsRegistered(t *testing.T) {
	out, err := executeCommand(t, "completion", "bash")

	require.NoError(t, err)
	assert.Contains(t, out, "bash completion")
}

func TestCompletion_ListsSubcommands(t *testing.T) {
	out, err := executeCommand(t, "__complete", "")

	require.NoError(t, err)
	for _, name := range []string{"monitor", "serve", "status", "node", "config", "version"} {
		assert.Contains(t, out, name)
	}
}

func TestCompletion_NodeSubcommands(t *testing.T) {
	out, err := executeCommand(t, "__complete", "node", "")

	require.NoError(t, err)
	for _, name := range []string{"list", "add", "edit", "remove", "refresh"} {
		assert.Contains(t, out, name)
	}
}
