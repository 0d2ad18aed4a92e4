package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/flow/internal/domain"
)

func TestManager_InitProjectConfig(t *testing.T) {
	projectDir := t.TempDir()
	m := NewManagerWithGlobalDir(projectDir, t.TempDir())

	assert.False(t, m.GetProjectConfigInfo().Exists)

	require.NoError(t, m.InitProjectConfig())

	info := m.GetProjectConfigInfo()
	assert.True(t, info.Exists)
	assert.Equal(t, domain.ProjectConfigPath(projectDir), info.Path)
	assert.Contains(t, info.Content, "[workflow]")

	assert.ErrorIs(t, m.InitProjectConfig(), domain.ErrConfigExists)
}

func TestManager_InitGlobalConfig(t *testing.T) {
	globalDir := filepath.Join(t.TempDir(), "flow")
	m := NewManagerWithGlobalDir(t.TempDir(), globalDir)

	require.NoError(t, m.InitGlobalConfig())

	info := m.GetGlobalConfigInfo()
	assert.True(t, info.Exists)
	assert.Equal(t, filepath.Join(globalDir, domain.ConfigFileName), info.Path)

	st, err := os.Stat(info.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	assert.ErrorIs(t, m.InitGlobalConfig(), domain.ErrConfigExists)
}

func TestManager_NoGlobalDir(t *testing.T) {
	m := NewManagerWithGlobalDir(t.TempDir(), "")

	assert.Equal(t, domain.ConfigInfo{}, m.GetGlobalConfigInfo())
	assert.Error(t, m.InitGlobalConfig())
}
