package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd(logging.NewNop())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrationCLI_UpDownVersion(t *testing.T) {
	dbURL := "file:" + filepath.Join(t.TempDir(), "cli.db")
	flags := []string{"--driver", "sqlite", "--db-url", dbURL}

	out, err := runCLI(t, append([]string{"version"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "version: none")

	_, err = runCLI(t, append([]string{"up"}, flags...)...)
	require.NoError(t, err)

	out, err = runCLI(t, append([]string{"version"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "version: 1")
	assert.Contains(t, out, "dirty: false")

	// A second up is a no-op.
	_, err = runCLI(t, append([]string{"up"}, flags...)...)
	require.NoError(t, err)

	_, err = runCLI(t, append([]string{"down", "1"}, flags...)...)
	require.NoError(t, err)

	out, err = runCLI(t, append([]string{"version"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "version: none")
}

func TestMigrationCLI_FileSource(t *testing.T) {
	dbURL := "file:" + filepath.Join(t.TempDir(), "cli.db")
	dir := filepath.Join("..", "..", "db", "migrations")

	_, err := runCLI(t, "up", "--driver", "sqlite", "--db-url", dbURL, "--dir", dir)
	require.NoError(t, err)

	out, err := runCLI(t, "version", "--driver", "sqlite", "--db-url", dbURL, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "version: 1")
}

func TestMigrationCLI_RequiresDBURL(t *testing.T) {
	t.Setenv("DB_URL", "")
	_, err := runCLI(t, "up", "--db-url", "")
	require.Error(t, err)
}

func TestParseArgs(t *testing.T) {
	steps, err := parseSteps(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, steps)

	_, err = parseSteps([]string{"0"})
	require.Error(t, err)

	_, err = parseSteps([]string{"abc"})
	require.Error(t, err)

	version, err := parseVersion("-1")
	require.NoError(t, err)
	assert.Equal(t, -1, version)

	_, err = parseVersion("-2")
	require.Error(t, err)

	target, err := parseTarget("3")
	require.NoError(t, err)
	assert.Equal(t, uint(3), target)
}
