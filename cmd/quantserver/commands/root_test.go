package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "quantserver", cmd.Use)
	assert.True(t, cmd.SilenceErrors)
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := Root()

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}
	for _, expected := range []string{"start", "stop", "status", "prune", "version"} {
		assert.True(t, subcommands[expected], "Expected subcommand %s not found", expected)
	}
	assert.Len(t, cmd.Commands(), 5)
}

func TestRoot_GlobalFlags(t *testing.T) {
	cmd := Root()

	config := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, config)
	assert.Equal(t, "c", config.Shorthand)

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
}

func TestStatus_Flags(t *testing.T) {
	cmd := Root()
	status, _, err := cmd.Find([]string{"status"})
	require.NoError(t, err)

	output := status.Flags().Lookup("output")
	require.NotNil(t, output)
	assert.Equal(t, "o", output.Shorthand)
	assert.Equal(t, "text", output.DefValue)
}

func TestStatus_RejectsUnknownFormat(t *testing.T) {
	cmd := Root()
	cmd.SetArgs([]string{"status", "-o", "json"})

	err := cmd.Execute()
	assert.ErrorContains(t, err, `unsupported output format "json"`)
}

func TestPrune_Flags(t *testing.T) {
	cmd := Root()
	prune, _, err := cmd.Find([]string{"prune"})
	require.NoError(t, err)

	dryRun := prune.Flags().Lookup("dry-run")
	require.NotNil(t, dryRun)
	assert.Equal(t, "false", dryRun.DefValue)
}

func TestActions_RejectArgs(t *testing.T) {
	for _, action := range []string{"start", "stop", "status", "prune"} {
		t.Run(action, func(t *testing.T) {
			cmd := Root()
			cmd.SetArgs([]string{action, "extra"})
			assert.Error(t, cmd.Execute())
		})
	}
}
