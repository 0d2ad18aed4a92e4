package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/flow/internal/app"
	"github.com/runoshun/flow/internal/domain"
)

// newConfigTestContainer creates an app.Container with real config
// infrastructure in a temporary project.
func newConfigTestContainer(t *testing.T) (*app.Container, string) {
	t.Helper()

	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c, err := app.New(context.Background(), projectDir, app.Options{Stderr: &bytes.Buffer{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, projectDir
}

func TestConfigCommand_NoSubcommand_ShowsHelp(t *testing.T) {
	c, _ := newConfigTestContainer(t)

	out, err := executeCommand(t, newConfigCommand(c))

	require.NoError(t, err)
	assert.Contains(t, out, "Available Commands:")
	assert.Contains(t, out, "show")
	assert.Contains(t, out, "init")
}

func TestConfigInitAndShow(t *testing.T) {
	c, projectDir := newConfigTestContainer(t)

	out, err := executeCommand(t, newConfigCommand(c), "init")
	requireNoErr(t, out, err)
	assert.Contains(t, out, "Created config file: "+domain.ProjectConfigPath(projectDir))

	_, err = executeCommand(t, newConfigCommand(c), "init")
	assert.ErrorIs(t, err, domain.ErrConfigExists)

	out, err = executeCommand(t, newConfigCommand(c), "show")
	requireNoErr(t, out, err)
	assert.Contains(t, out, "[Loaded from]")
	assert.Contains(t, out, "- "+domain.ProjectConfigPath(projectDir)+"\n")
	assert.Contains(t, out, "(not found)")
	assert.Contains(t, out, "[Effective Config]")
	assert.Contains(t, out, "[workflow]")
}

func TestConfigInit_Global(t *testing.T) {
	c, _ := newConfigTestContainer(t)

	out, err := executeCommand(t, newConfigCommand(c), "init", "--global")

	requireNoErr(t, out, err)
	assert.Contains(t, out, domain.ConfigFileName)
	assert.True(t, c.ConfigManager.GetGlobalConfigInfo().Exists)
}
