package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()

	t.Run("subcommands registered", func(t *testing.T) {
		var names []string
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}

		assert.Contains(t, names, "status")
		assert.Contains(t, names, "pending")
		assert.Contains(t, names, "users")
	})

	t.Run("persistent flags bound", func(t *testing.T) {
		for _, flag := range []string{"config", "store", "verbose", "quiet"} {
			assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %s missing", flag)
		}
	})
}

func TestLoadConfigFlagPrecedence(t *testing.T) {
	t.Cleanup(func() {
		flagConfigPath = ""
		flagStorePath = ""
		resolvedCfg = nil
	})

	// A --store flag must win over whatever the config layer resolves.
	flagConfigPath = filepath.Join(t.TempDir(), "no-such.toml")
	flagStorePath = "/tmp/flag-store.db"

	require.NoError(t, loadConfig())
	assert.Equal(t, "/tmp/flag-store.db", resolvedCfg.Storage.Path)
}
