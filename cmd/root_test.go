package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"sync", "verify", "resolve", "runs"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "factsync", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestSyncCommand_Flags(t *testing.T) {
	for _, name := range []string{"job", "fields", "max-runtime", "write-delay", "stale", "write-market-hint"} {
		assert.NotNil(t, syncCmd.Flags().Lookup(name), "sync should have --%s flag", name)
	}
}

func TestVerifyCommand_Flags(t *testing.T) {
	flag := verifyCmd.Flags().Lookup("all")
	require.NotNil(t, flag, "verify command should have --all flag")
	assert.Equal(t, "false", flag.DefValue)
	assert.Nil(t, verifyCmd.Flags().Lookup("job"))
}

func TestResolveCommand_Args(t *testing.T) {
	require.Error(t, resolveCmd.Args(resolveCmd, nil))
	require.NoError(t, resolveCmd.Args(resolveCmd, []string{"005930"}))
	assert.NotNil(t, resolveCmd.Flags().Lookup("hint"))
	assert.NotNil(t, resolveCmd.Flags().Lookup("fields"))
}

func TestRunsCommand_Flags(t *testing.T) {
	flag := runsCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "runs command should have --limit flag")
	assert.Equal(t, "20", flag.DefValue)
}
