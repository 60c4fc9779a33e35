package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/modkit/cmd/modkitd/cmd"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := cmd.NewRootCommand()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	rootCmd := cmd.NewRootCommand()
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "modkitd", rootCmd.Use)

	out, err := execute(t, "--help")
	assert.NoError(t, err)
	assert.Contains(t, out, "modkitd builds a modkit module tree")
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "modules")
}

func TestVersionInfo(t *testing.T) {
	version := cmd.PrintVersion()
	assert.Contains(t, version, "modkitd v")

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

func TestConfigCommand_MergesFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(base, []byte("httpserver:\n  port: 8080\n  host: 0.0.0.0\n"), 0o600))
	local := filepath.Join(dir, "local.json")
	require.NoError(t, os.WriteFile(local, []byte(`{"httpserver": {"port": 9090}}`), 0o600))
	t.Setenv("MODKIT_LOG_LEVEL", "debug")

	out, err := execute(t, "config", "-c", base, "-c", local)
	require.NoError(t, err)
	assert.Contains(t, out, "port: 9090")
	assert.Contains(t, out, "host: 0.0.0.0")
	assert.Contains(t, out, "level: debug")
}

func TestConfigCommand_UnsupportedFile(t *testing.T) {
	_, err := execute(t, "config", "-c", "app.ini")
	require.ErrorIs(t, err, cmd.ErrUnsupportedConfig)
}

func TestModulesCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[billing.providers.stripe]
provider = "sandbox"
`), 0o600))

	out, err := execute(t, "modules", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "* billing")
	assert.Contains(t, out, "* metrics")
	assert.Contains(t, out, "  httpserver")
	assert.Contains(t, out, "billing.sandbox")
}
