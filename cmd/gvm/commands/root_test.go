package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "gvm", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := Root()

	expectedSubcommands := []string{
		"setup",
		"apt",
		"ssh",
		"shell",
		"gui",
		"user",
		"desktop",
		"fix",
		"info",
		"gpu",
		"config",
		"start",
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

func TestRunFlags(t *testing.T) {
	cmd := Setup()

	for _, name := range []string{"config", "dry-run", "force", "verbose", "plain"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "Expected flag %s", name)
	}
}

func TestSetup_AllFlag(t *testing.T) {
	cmd := Setup()
	assert.NotNil(t, cmd.Flags().Lookup("all"))
}

func TestFix_YesFlag(t *testing.T) {
	cmd := Fix()
	assert.NotNil(t, cmd.Flags().Lookup("yes"))
}

func TestStart_ListFlag(t *testing.T) {
	cmd := Start()
	assert.NotNil(t, cmd.Flags().Lookup("list"))
}

func TestConfig_Subcommands(t *testing.T) {
	cmd := Config()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["init"])
	assert.True(t, names["show"])
}
