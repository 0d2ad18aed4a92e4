package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/flow/internal/domain"
	"github.com/runoshun/flow/internal/testutil"
	"github.com/runoshun/flow/internal/usecase"
)

func TestInitConfig_Execute(t *testing.T) {
	t.Run("creates project config", func(t *testing.T) {
		manager := &testutil.MockConfigManager{
			ProjectInfo: domain.ConfigInfo{Path: "/srv/app/.flow/config.toml"},
		}

		uc := usecase.NewInitConfig(manager)
		out, err := uc.Execute(context.Background(), usecase.InitConfigInput{})

		require.NoError(t, err)
		assert.Equal(t, "/srv/app/.flow/config.toml", out.Path)
		assert.True(t, manager.InitProjectCalled)
		assert.False(t, manager.InitGlobalCalled)
	})

	t.Run("creates global config", func(t *testing.T) {
		manager := &testutil.MockConfigManager{
			GlobalInfo: domain.ConfigInfo{Path: "/home/test/.config/flow/config.toml"},
		}

		uc := usecase.NewInitConfig(manager)
		out, err := uc.Execute(context.Background(), usecase.InitConfigInput{Global: true})

		require.NoError(t, err)
		assert.Equal(t, "/home/test/.config/flow/config.toml", out.Path)
		assert.False(t, manager.InitProjectCalled)
		assert.True(t, manager.InitGlobalCalled)
	})

	t.Run("returns error when project config already exists", func(t *testing.T) {
		manager := &testutil.MockConfigManager{
			ProjectInfo:    domain.ConfigInfo{Path: "/srv/app/.flow/config.toml", Exists: true},
			InitProjectErr: domain.ErrConfigExists,
		}

		uc := usecase.NewInitConfig(manager)
		_, err := uc.Execute(context.Background(), usecase.InitConfigInput{})

		assert.ErrorIs(t, err, domain.ErrConfigExists)
	})

	t.Run("returns error when global config already exists", func(t *testing.T) {
		manager := &testutil.MockConfigManager{
			GlobalInfo:    domain.ConfigInfo{Exists: true},
			InitGlobalErr: domain.ErrConfigExists,
		}

		uc := usecase.NewInitConfig(manager)
		_, err := uc.Execute(context.Background(), usecase.InitConfigInput{Global: true})

		assert.ErrorIs(t, err, domain.ErrConfigExists)
	})
}
