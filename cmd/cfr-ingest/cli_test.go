package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

func TestExecute_ResetRequiresConfirmation(t *testing.T) {
	assert.Equal(t, ExitConfig, execute([]string{"reset", "--no-color"}))
}

func TestExecute_UnknownFlag(t *testing.T) {
	assert.Equal(t, ExitConfig, execute([]string{"ingest", "--no-such-flag"}))
}

func TestExecute_InvalidTitle(t *testing.T) {
	assert.Equal(t, ExitConfig, execute([]string{"ingest", "--title", "0", "--no-color"}))
}

func TestExecute_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("checkpoint:\n  backend: s3\n"), 0o644))

	assert.Equal(t, ExitConfig, execute([]string{"status", "--config", path, "--no-color"}))
}

func TestExecute_InvalidLogFormatFlag(t *testing.T) {
	assert.Equal(t, ExitConfig, execute([]string{"status", "--log-format", "xml", "--no-color"}))
}

func TestRunOptions(t *testing.T) {
	opts, err := runOptions(true, []int{40, 7, 40, 1})
	require.NoError(t, err)
	assert.True(t, opts.Fresh)
	assert.Equal(t, []int{1, 7, 40}, opts.Titles)

	opts, err = runOptions(false, nil)
	require.NoError(t, err)
	assert.Empty(t, opts.Titles)

	_, err = runOptions(false, []int{3, -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRootCmd_Subcommands(t *testing.T) {
	var g globalFlags
	root := newRootCmd(&g)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "status", "reset", "serve"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	ingest, _, err := root.Find([]string{"ingest"})
	require.NoError(t, err)
	for _, flag := range []string{"fresh", "title", "metrics-addr"} {
		assert.NotNil(t, ingest.Flags().Lookup(flag), "missing flag --%s", flag)
	}
}
